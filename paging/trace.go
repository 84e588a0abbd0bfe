package paging

// Status tells whether an access faulted.
type Status string

// Access statuses.
const (
	NoFault   Status = "No Fault"
	PageFault Status = "Page Fault"
)

// TLBStatus tells whether an access hit in the TLB.
type TLBStatus string

// TLB lookup outcomes.
const (
	TLBHit  TLBStatus = "TLB Hit"
	TLBMiss TLBStatus = "TLB Miss"
)

// A Step is the snapshot taken after one access.
//
// Added holds the page loaded by this access. When nothing was loaded it holds
// the accessed page instead, so it always names the page that is present.
type Step struct {
	CurrentPage Page      `json:"current_page"`
	Memory      []Page    `json:"memory"`
	Status      Status    `json:"status"`
	Evicted     *Page     `json:"evicted"`
	Added       Page      `json:"added"`
	TLBStatus   TLBStatus `json:"tlb_status"`
	TLBContents []Page    `json:"tlb_contents"`
}

// IsFault tells if the access was a page fault.
func (s Step) IsFault() bool {
	return s.Status == PageFault
}

// IsTLBHit tells if the access hit in the TLB.
func (s Step) IsTLBHit() bool {
	return s.TLBStatus == TLBHit
}

// A Result is the outcome of one run.
type Result struct {
	PageFaults   int    `json:"page_faults"`
	TLBHits      int    `json:"tlb_hits"`
	MemoryStates []Step `json:"memory_states"`
}

// A TraceRecorder collects steps in access order.
type TraceRecorder struct {
	steps []Step
}

// NewTraceRecorder creates a recorder with room for n steps.
func NewTraceRecorder(n int) *TraceRecorder {
	return &TraceRecorder{
		steps: make([]Step, 0, n),
	}
}

// Append adds a step after all previously recorded steps.
func (r *TraceRecorder) Append(step Step) {
	r.steps = append(r.steps, step)
}

// Len returns the number of recorded steps.
func (r *TraceRecorder) Len() int {
	return len(r.steps)
}

// Finalize wraps the recorded steps and the counters into a Result. The
// recorder must not be used afterwards.
func (r *TraceRecorder) Finalize(pageFaults, tlbHits int) *Result {
	res := &Result{
		PageFaults:   pageFaults,
		TLBHits:      tlbHits,
		MemoryStates: r.steps,
	}
	r.steps = nil

	return res
}
