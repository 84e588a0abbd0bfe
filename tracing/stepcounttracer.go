package tracing

import (
	"sync"

	"github.com/sarchlab/pagesim/hooking"
	"github.com/sarchlab/pagesim/paging"
)

// Totals are counters summed over runs.
type Totals struct {
	Runs       uint64 `json:"runs"`
	Steps      uint64 `json:"steps"`
	PageFaults uint64 `json:"page_faults"`
	TLBHits    uint64 `json:"tlb_hits"`
	Evictions  uint64 `json:"evictions"`
}

// StepCountTracer counts runs, steps, faults, TLB hits and evictions, both
// overall and per policy.
type StepCountTracer struct {
	lock      sync.Mutex
	total     Totals
	perPolicy map[paging.Policy]*Totals
}

// NewStepCountTracer creates a new StepCountTracer
func NewStepCountTracer() *StepCountTracer {
	return &StepCountTracer{
		perPolicy: make(map[paging.Policy]*Totals),
	}
}

// Func counts the event.
func (t *StepCountTracer) Func(ctx hooking.HookCtx) {
	t.lock.Lock()
	defer t.lock.Unlock()

	switch ctx.Pos {
	case paging.HookPosRunStart:
		info := ctx.Item.(paging.RunInfo)
		t.total.Runs++
		t.policyTotals(info.Policy).Runs++
	case paging.HookPosStep:
		step := ctx.Item.(paging.Step)
		t.countStep(&t.total, step)

		if s, ok := ctx.Domain.(*paging.Simulator); ok {
			t.countStep(t.policyTotals(s.Policy()), step)
		}
	}
}

func (t *StepCountTracer) policyTotals(p paging.Policy) *Totals {
	totals, ok := t.perPolicy[p]
	if !ok {
		totals = &Totals{}
		t.perPolicy[p] = totals
	}

	return totals
}

func (t *StepCountTracer) countStep(totals *Totals, step paging.Step) {
	totals.Steps++

	if step.IsFault() {
		totals.PageFaults++
	}

	if step.IsTLBHit() {
		totals.TLBHits++
	}

	if step.Evicted != nil {
		totals.Evictions++
	}
}

// Total returns the counters over all runs.
func (t *StepCountTracer) Total() Totals {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.total
}

// PolicyTotal returns the counters over the runs of one policy.
func (t *StepCountTracer) PolicyTotal(p paging.Policy) Totals {
	t.lock.Lock()
	defer t.lock.Unlock()

	totals, ok := t.perPolicy[p]
	if !ok {
		return Totals{}
	}

	return *totals
}
