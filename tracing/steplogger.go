package tracing

import (
	"log"

	"github.com/sarchlab/pagesim/hooking"
	"github.com/sarchlab/pagesim/paging"
)

// A StepLogger is a hook that writes one line per run event to a logger.
type StepLogger struct {
	logger *log.Logger
}

// NewStepLogger creates a new StepLogger. The standard library logger
// serializes writes, so one StepLogger can follow concurrent runs.
func NewStepLogger(logger *log.Logger) *StepLogger {
	return &StepLogger{logger: logger}
}

// Func logs the run start, every step and the run end.
func (l *StepLogger) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case paging.HookPosRunStart:
		info := ctx.Item.(paging.RunInfo)
		l.logger.Printf("start, %s, %s, %d, %d\n",
			info.ID, info.Policy, info.NumFrames, info.NumAccesses)
	case paging.HookPosStep:
		step := ctx.Item.(paging.Step)
		detail := ctx.Detail.(paging.StepDetail)
		l.logger.Printf("step, %s, %d, %s, %s, %s, %s, [%s], [%s]\n",
			detail.RunID,
			detail.Index,
			step.CurrentPage,
			step.Status,
			step.TLBStatus,
			evictedString(step),
			joinPages(step.Memory),
			joinPages(step.TLBContents),
		)
	case paging.HookPosRunEnd:
		res := ctx.Item.(*paging.Result)
		info := ctx.Detail.(paging.RunInfo)
		l.logger.Printf("end, %s, %d, %d\n",
			info.ID, res.PageFaults, res.TLBHits)
	}
}
