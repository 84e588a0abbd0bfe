package paging

import (
	"fmt"

	"github.com/rs/xid"
	"github.com/sarchlab/pagesim/hooking"
	"github.com/sarchlab/pagesim/paging/internal/recency"
)

// HookPosRunStart marks the start of a run. The hook item is a RunInfo.
var HookPosRunStart = &hooking.HookPos{Name: "RunStart"}

// HookPosStep marks a finished access. The hook item is the Step and the
// detail is a StepDetail.
var HookPosStep = &hooking.HookPos{Name: "Step"}

// HookPosRunEnd marks the end of a run. The hook item is the *Result and the
// detail is the RunInfo.
var HookPosRunEnd = &hooking.HookPos{Name: "RunEnd"}

// RunInfo describes a run to hooks.
type RunInfo struct {
	ID          string
	Policy      Policy
	NumFrames   int
	NumAccesses int
}

// StepDetail locates a step within a run.
type StepDetail struct {
	RunID string
	Index int
}

// A Simulator replays reference strings against a main memory with a fixed
// number of frames and a TLB of TLBSize entries.
//
// A Simulator only holds its configuration. Each call to Run owns its memory,
// TLB and recency state, so runs may proceed concurrently.
type Simulator struct {
	*hooking.HookableBase

	name         string
	policy       Policy
	numFrames    int
	victimFinder VictimFinder
}

// Name returns the name of the simulator.
func (s *Simulator) Name() string {
	return s.name
}

// Policy returns the replacement policy.
func (s *Simulator) Policy() Policy {
	return s.policy
}

// NumFrames returns the number of frames in main memory.
func (s *Simulator) NumFrames() int {
	return s.numFrames
}

// Run replays refs from the first access to the last. The reference string is
// not modified.
func (s *Simulator) Run(refs []Page) (*Result, error) {
	if len(refs) == 0 {
		return nil, fmt.Errorf(
			"%w: reference string is empty", ErrInvalidCapacity)
	}

	r := newRun(s, refs)

	return r.execute(), nil
}

type run struct {
	sim  *Simulator
	info RunInfo
	refs []Page

	memory   []Page
	tlb      *TLB
	recency  *recency.Tracker[Page]
	recorder *TraceRecorder

	pageFaults int
	tlbHits    int
}

func newRun(s *Simulator, refs []Page) *run {
	return &run{
		sim: s,
		info: RunInfo{
			ID:          xid.New().String(),
			Policy:      s.policy,
			NumFrames:   s.numFrames,
			NumAccesses: len(refs),
		},
		refs:     refs,
		memory:   make([]Page, 0, s.numFrames),
		tlb:      NewTLB(TLBSize),
		recency:  recency.New[Page](),
		recorder: NewTraceRecorder(len(refs)),
	}
}

func (r *run) execute() *Result {
	r.invokeHook(HookPosRunStart, r.info, nil)

	for i, page := range r.refs {
		step := r.access(i, page)
		r.recorder.Append(step)

		r.invokeHook(HookPosStep, step, StepDetail{RunID: r.info.ID, Index: i})
	}

	res := r.recorder.Finalize(r.pageFaults, r.tlbHits)
	r.invokeHook(HookPosRunEnd, res, r.info)

	return res
}

func (r *run) access(i int, page Page) Step {
	step := Step{
		CurrentPage: page,
		Status:      NoFault,
		Added:       page,
		TLBStatus:   TLBMiss,
	}

	if r.tlb.Lookup(page) {
		r.tlbHits++
		step.TLBStatus = TLBHit
	} else {
		if !r.isResident(page) {
			r.pageFaults++
			step.Status = PageFault

			if len(r.memory) >= r.sim.numFrames {
				victim := r.evict(i)
				step.Evicted = &victim
			}

			r.memory = append(r.memory, page)
		}

		r.tlb.Insert(page)
	}

	r.recency.Touch(page, i)

	step.Memory = clonePages(r.memory)
	step.TLBContents = r.tlb.Contents()

	return step
}

// evict removes the policy's victim from memory, from the recency table and
// from the TLB. A TLB entry never outlives its page in memory.
func (r *run) evict(i int) Page {
	victim := r.sim.victimFinder.FindVictim(r.memory, r.refs, i, r.recency)

	r.removeFromMemory(victim)
	r.recency.Forget(victim)
	r.tlb.Invalidate(victim)

	return victim
}

func (r *run) isResident(page Page) bool {
	for _, p := range r.memory {
		if p == page {
			return true
		}
	}

	return false
}

func (r *run) removeFromMemory(page Page) {
	for i, p := range r.memory {
		if p == page {
			r.memory = append(r.memory[:i], r.memory[i+1:]...)
			return
		}
	}

	panic(fmt.Sprintf("victim %s is not resident", page))
}

func (r *run) invokeHook(pos *hooking.HookPos, item, detail interface{}) {
	if r.sim.NumHooks() == 0 {
		return
	}

	r.sim.InvokeHook(hooking.HookCtx{
		Domain: r.sim,
		Pos:    pos,
		Item:   item,
		Detail: detail,
	})
}

// Simulate runs refs once under policy with numFrames frames. The hooks are
// attached to the simulator before the run.
func Simulate(
	policy Policy,
	refs []Page,
	numFrames int,
	hooks ...hooking.Hook,
) (*Result, error) {
	s, err := MakeBuilder().
		WithPolicy(policy).
		WithNumFrames(numFrames).
		Build("Simulator")
	if err != nil {
		return nil, err
	}

	for _, h := range hooks {
		s.AcceptHook(h)
	}

	return s.Run(refs)
}

// A Comparison pairs a policy with the result it produced.
type Comparison struct {
	Policy Policy  `json:"algorithm"`
	Result *Result `json:"result"`
}

// Compare runs refs under every policy in Policies. Every run invokes the
// given hooks.
func Compare(
	refs []Page,
	numFrames int,
	hooks ...hooking.Hook,
) ([]Comparison, error) {
	comparisons := make([]Comparison, 0, len(Policies))

	for _, p := range Policies {
		res, err := Simulate(p, refs, numFrames, hooks...)
		if err != nil {
			return nil, err
		}

		comparisons = append(comparisons, Comparison{Policy: p, Result: res})
	}

	return comparisons, nil
}
