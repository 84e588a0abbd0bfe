package tracing

import (
	"github.com/sarchlab/pagesim/datarecording"
	"github.com/sarchlab/pagesim/hooking"
	"github.com/sarchlab/pagesim/paging"
)

// Tables written by the DBTracer.
const (
	RunTableName  = "pagesim_runs"
	StepTableName = "pagesim_steps"
)

// RunEntry is one row of the run table.
type RunEntry struct {
	RunID       string
	Policy      string
	NumFrames   int
	NumAccesses int
	PageFaults  int
	TLBHits     int
}

// StepEntry is one row of the step table. Page lists are space separated.
type StepEntry struct {
	RunID       string
	StepIndex   int
	Page        string
	Status      string
	TLBStatus   string
	Evicted     string
	Added       string
	Memory      string
	TLBContents string
}

// DBTracer is a hook that stores runs and their steps into a DataRecorder.
type DBTracer struct {
	backend datarecording.DataRecorder
}

// NewDBTracer creates a DBTracer and the tables it writes to.
func NewDBTracer(backend datarecording.DataRecorder) *DBTracer {
	backend.CreateTable(RunTableName, RunEntry{})
	backend.CreateTable(StepTableName, StepEntry{})

	return &DBTracer{backend: backend}
}

// Func records steps as they happen and the run summary when the run ends.
func (t *DBTracer) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case paging.HookPosStep:
		t.recordStep(ctx.Item.(paging.Step), ctx.Detail.(paging.StepDetail))
	case paging.HookPosRunEnd:
		t.recordRun(ctx.Item.(*paging.Result), ctx.Detail.(paging.RunInfo))
	}
}

func (t *DBTracer) recordStep(step paging.Step, detail paging.StepDetail) {
	evicted := ""
	if step.Evicted != nil {
		evicted = step.Evicted.String()
	}

	t.backend.InsertData(StepTableName, StepEntry{
		RunID:       detail.RunID,
		StepIndex:   detail.Index,
		Page:        step.CurrentPage.String(),
		Status:      string(step.Status),
		TLBStatus:   string(step.TLBStatus),
		Evicted:     evicted,
		Added:       step.Added.String(),
		Memory:      joinPages(step.Memory),
		TLBContents: joinPages(step.TLBContents),
	})
}

func (t *DBTracer) recordRun(res *paging.Result, info paging.RunInfo) {
	t.backend.InsertData(RunTableName, RunEntry{
		RunID:       info.ID,
		Policy:      info.Policy.String(),
		NumFrames:   info.NumFrames,
		NumAccesses: info.NumAccesses,
		PageFaults:  res.PageFaults,
		TLBHits:     res.TLBHits,
	})
}
