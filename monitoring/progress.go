package monitoring

import (
	"sync"
	"time"

	"github.com/sarchlab/pagesim/hooking"
	"github.com/sarchlab/pagesim/paging"
)

// A ProgressBar tracks how many accesses of an in-flight run are done.
type ProgressBar struct {
	sync.Mutex
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartTime time.Time `json:"start_time"`
	Total     uint64    `json:"total"`
	Finished  uint64    `json:"finished"`
}

// IncrementFinished add a certain amount to finished element.
func (b *ProgressBar) IncrementFinished(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.Finished += amount
}

type progressRsp struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartTime time.Time `json:"start_time"`
	Total     uint64    `json:"total"`
	Finished  uint64    `json:"finished"`
}

func (b *ProgressBar) snapshot() progressRsp {
	b.Lock()
	defer b.Unlock()

	return progressRsp{
		ID:        b.ID,
		Name:      b.Name,
		StartTime: b.StartTime,
		Total:     b.Total,
		Finished:  b.Finished,
	}
}

// progressHook moves a progress bar forward on every step.
type progressHook struct {
	bar *ProgressBar
}

func (h *progressHook) Func(ctx hooking.HookCtx) {
	if ctx.Pos == paging.HookPosStep {
		h.bar.IncrementFinished(1)
	}
}
