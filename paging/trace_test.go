package paging

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("TraceRecorder", func() {
	It("should keep steps in order and carry the counters", func() {
		r := NewTraceRecorder(2)
		first := Step{CurrentPage: NumPage(1), Status: PageFault}
		second := Step{CurrentPage: NumPage(1), TLBStatus: TLBHit}

		r.Append(first)
		r.Append(second)
		Expect(r.Len()).To(Equal(2))

		res := r.Finalize(1, 1)

		Expect(res.PageFaults).To(Equal(1))
		Expect(res.TLBHits).To(Equal(1))
		Expect(res.MemoryStates).To(Equal([]Step{first, second}))
		Expect(r.Len()).To(Equal(0))
	})
})
