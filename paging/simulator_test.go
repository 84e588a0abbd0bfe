package paging

import (
	"math/rand"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/pagesim/hooking"
)

func mustSimulate(p Policy, refs []Page, numFrames int) *Result {
	res, err := Simulate(p, refs, numFrames)
	Expect(err).NotTo(HaveOccurred())

	return res
}

func evictedPages(res *Result) []Page {
	evicted := []Page{}

	for _, s := range res.MemoryStates {
		if s.Evicted != nil {
			evicted = append(evicted, *s.Evicted)
		}
	}

	return evicted
}

func lastAccessBefore(refs []Page, i int, p Page) int {
	for j := i - 1; j >= 0; j-- {
		if refs[j] == p {
			return j
		}
	}

	return -1
}

func randomRefs(rng *rand.Rand, length, numPages int) []Page {
	refs := make([]Page, length)
	for i := range refs {
		refs[i] = NumPage(rng.Intn(numPages))
	}

	return refs
}

var _ = Describe("Builder", func() {
	It("should build with defaults", func() {
		s, err := MakeBuilder().Build("Sim")

		Expect(err).NotTo(HaveOccurred())
		Expect(s.Name()).To(Equal("Sim"))
		Expect(s.Policy()).To(Equal(FIFO))
		Expect(s.NumFrames()).To(Equal(3))
	})

	It("should reject a non-positive frame count", func() {
		_, err := MakeBuilder().WithNumFrames(0).Build("Sim")

		Expect(err).To(MatchError(ErrInvalidCapacity))
	})

	It("should reject an unknown policy", func() {
		_, err := MakeBuilder().WithPolicy(Policy(-1)).Build("Sim")

		Expect(err).To(MatchError(ErrInvalidPolicy))
	})
})

var _ = Describe("Simulator", func() {
	belady := Pages(1, 2, 3, 4, 1, 2, 5, 1, 2, 3, 4, 5)

	It("should reject an empty reference string", func() {
		_, err := Simulate(LRU, nil, 3)

		Expect(err).To(MatchError(ErrInvalidCapacity))
	})

	It("should not modify the reference string", func() {
		refs := Pages(1, 2, 3, 4, 1)
		before := clonePages(refs)

		mustSimulate(Optimal, refs, 2)

		Expect(refs).To(Equal(before))
	})

	Context("FIFO", func() {
		It("should replay the classic example", func() {
			res := mustSimulate(FIFO, Pages(1, 2, 3, 4, 1, 2, 5), 3)

			Expect(res.PageFaults).To(Equal(7))
			Expect(res.TLBHits).To(Equal(0))
			Expect(evictedPages(res)).To(Equal(Pages(1, 2, 3, 4)))

			last := res.MemoryStates[6]
			Expect(last.Memory).To(Equal(Pages(1, 2, 5)))
			Expect(last.TLBContents).To(Equal(Pages(1, 2, 5)))
		})

		It("should show Belady's anomaly string with ten faults", func() {
			res := mustSimulate(FIFO, belady, 4)

			Expect(res.PageFaults).To(Equal(10))
		})

		It("should ignore recency", func() {
			res := mustSimulate(FIFO, Pages(1, 2, 1, 3), 2)

			Expect(*res.MemoryStates[3].Evicted).To(Equal(NumPage(1)))
		})
	})

	Context("LRU", func() {
		It("should replay the Belady string", func() {
			res := mustSimulate(LRU, belady, 4)

			Expect(res.PageFaults).To(Equal(8))
			Expect(res.TLBHits).To(Equal(2))
			Expect(evictedPages(res)).To(Equal(Pages(3, 4, 5, 1)))
		})

		It("should refresh recency on a TLB hit", func() {
			res := mustSimulate(LRU, Pages(1, 2, 1, 3), 2)

			Expect(res.MemoryStates[2].TLBStatus).To(Equal(TLBHit))
			Expect(*res.MemoryStates[3].Evicted).To(Equal(NumPage(2)))
		})
	})

	Context("Optimal", func() {
		It("should replay the Belady string", func() {
			res := mustSimulate(Optimal, belady, 4)

			Expect(res.PageFaults).To(Equal(6))
			Expect(evictedPages(res)).To(Equal(Pages(4, 1)))
			Expect(res.MemoryStates[10].Memory).To(Equal(Pages(2, 3, 5, 4)))
		})

		It("should never fault more than LRU on the Belady string", func() {
			lru := mustSimulate(LRU, belady, 4)
			optimal := mustSimulate(Optimal, belady, 4)

			Expect(optimal.PageFaults).NotTo(Equal(lru.PageFaults))
			Expect(optimal.PageFaults).To(BeNumerically("<=", lru.PageFaults))
		})
	})

	Context("step records", func() {
		var res *Result

		BeforeEach(func() {
			res = mustSimulate(LRU, Pages(1, 2, 1, 2, 3, 1), 2)
		})

		It("should record a fault that loads a page", func() {
			s := res.MemoryStates[0]

			Expect(s.CurrentPage).To(Equal(NumPage(1)))
			Expect(s.Status).To(Equal(PageFault))
			Expect(s.TLBStatus).To(Equal(TLBMiss))
			Expect(s.Evicted).To(BeNil())
			Expect(s.Added).To(Equal(NumPage(1)))
			Expect(s.Memory).To(Equal(Pages(1)))
			Expect(s.TLBContents).To(Equal(Pages(1)))
		})

		It("should fall back to the current page on a TLB hit", func() {
			s := res.MemoryStates[2]

			Expect(s.Status).To(Equal(NoFault))
			Expect(s.TLBStatus).To(Equal(TLBHit))
			Expect(s.Added).To(Equal(NumPage(1)))
			Expect(s.Evicted).To(BeNil())
		})

		It("should invalidate the victim in the TLB", func() {
			s := res.MemoryStates[4]

			Expect(*s.Evicted).To(Equal(NumPage(1)))
			Expect(s.Memory).To(Equal(Pages(2, 3)))
			Expect(s.TLBContents).To(Equal(Pages(2, 3)))
		})

		It("should keep snapshots independent", func() {
			res.MemoryStates[0].Memory[0] = NumPage(99)

			Expect(res.MemoryStates[1].Memory[0]).To(Equal(NumPage(1)))
		})
	})

	It("should count a TLB miss that hits in memory as no fault", func() {
		res := mustSimulate(FIFO, Pages(1, 2, 3, 4, 1), 4)

		s := res.MemoryStates[4]
		Expect(s.TLBStatus).To(Equal(TLBMiss))
		Expect(s.Status).To(Equal(NoFault))
		Expect(s.Evicted).To(BeNil())
		Expect(s.TLBContents).To(Equal(Pages(3, 4, 1)))
	})

	It("should handle symbolic pages", func() {
		refs := []Page{SymPage("a"), SymPage("b"), SymPage("a")}

		res := mustSimulate(LRU, refs, 1)

		Expect(res.PageFaults).To(Equal(3))
		Expect(*res.MemoryStates[2].Evicted).To(Equal(SymPage("b")))
	})

	It("should compare all policies", func() {
		comparisons, err := Compare(belady, 4)

		Expect(err).NotTo(HaveOccurred())
		Expect(comparisons).To(HaveLen(3))
		Expect(comparisons[0].Policy).To(Equal(FIFO))
		Expect(comparisons[0].Result.PageFaults).To(Equal(10))
		Expect(comparisons[1].Result.PageFaults).To(Equal(8))
		Expect(comparisons[2].Result.PageFaults).To(Equal(6))
	})

	It("should invoke hooks for every compared policy", func() {
		var policies []Policy
		steps := 0

		hook := hooking.HookFunc(func(ctx hooking.HookCtx) {
			switch ctx.Pos {
			case HookPosRunStart:
				policies = append(policies, ctx.Item.(RunInfo).Policy)
			case HookPosStep:
				steps++
			}
		})

		_, err := Compare(belady, 4, hook)

		Expect(err).NotTo(HaveOccurred())
		Expect(policies).To(Equal(Policies))
		Expect(steps).To(Equal(3 * len(belady)))
	})

	Context("invariants", func() {
		rng := rand.New(rand.NewSource(1))

		type testCase struct {
			refs      []Page
			numFrames int
		}

		cases := make([]testCase, 0, 60)
		for i := 0; i < 60; i++ {
			cases = append(cases, testCase{
				refs:      randomRefs(rng, 10+rng.Intn(30), 2+rng.Intn(7)),
				numFrames: 1 + rng.Intn(5),
			})
		}

		for _, p := range Policies {
			p := p

			It("should hold for "+p.String(), func() {
				for _, c := range cases {
					res := mustSimulate(p, c.refs, c.numFrames)
					checkInvariants(p, c.refs, c.numFrames, res)
				}
			})
		}
	})

	It("should produce identical results for identical input", func() {
		refs := randomRefs(rand.New(rand.NewSource(7)), 50, 6)

		for _, p := range Policies {
			Expect(mustSimulate(p, refs, 3)).To(Equal(mustSimulate(p, refs, 3)))
		}
	})

	It("should keep concurrent runs apart", func() {
		rng := rand.New(rand.NewSource(3))
		s, err := MakeBuilder().WithPolicy(LRU).WithNumFrames(3).Build("Sim")
		Expect(err).NotTo(HaveOccurred())

		inputs := make([][]Page, 16)
		expected := make([]*Result, 16)
		for i := range inputs {
			inputs[i] = randomRefs(rng, 200, 8)
			expected[i], _ = s.Run(inputs[i])
		}

		actual := make([]*Result, 16)
		var wg sync.WaitGroup
		for i := range inputs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				actual[i], _ = s.Run(inputs[i])
			}(i)
		}
		wg.Wait()

		Expect(actual).To(Equal(expected))
	})

	Context("hooks", func() {
		var (
			mockCtrl *gomock.Controller
			hook     *MockHook
			s        *Simulator
		)

		BeforeEach(func() {
			mockCtrl = gomock.NewController(GinkgoT())
			hook = NewMockHook(mockCtrl)

			var err error
			s, err = MakeBuilder().WithPolicy(Optimal).Build("Sim")
			Expect(err).NotTo(HaveOccurred())

			s.AcceptHook(hook)
		})

		AfterEach(func() {
			mockCtrl.Finish()
		})

		It("should report run start, every step and run end", func() {
			var ctxs []hooking.HookCtx
			hook.EXPECT().
				Func(gomock.Any()).
				Do(func(ctx hooking.HookCtx) { ctxs = append(ctxs, ctx) }).
				Times(5)

			res, err := s.Run(Pages(1, 2, 3))
			Expect(err).NotTo(HaveOccurred())

			Expect(ctxs[0].Pos).To(Equal(HookPosRunStart))
			info := ctxs[0].Item.(RunInfo)
			Expect(info.ID).NotTo(BeEmpty())
			Expect(info.Policy).To(Equal(Optimal))
			Expect(info.NumFrames).To(Equal(3))
			Expect(info.NumAccesses).To(Equal(3))

			for i := 0; i < 3; i++ {
				ctx := ctxs[i+1]
				Expect(ctx.Domain).To(BeIdenticalTo(s))
				Expect(ctx.Pos).To(Equal(HookPosStep))
				Expect(ctx.Item).To(Equal(res.MemoryStates[i]))
				Expect(ctx.Detail).To(Equal(StepDetail{RunID: info.ID, Index: i}))
			}

			Expect(ctxs[4].Pos).To(Equal(HookPosRunEnd))
			Expect(ctxs[4].Item).To(BeIdenticalTo(res))
			Expect(ctxs[4].Detail).To(Equal(info))
		})

		It("should not invoke hooks on rejected input", func() {
			_, err := s.Run(nil)

			Expect(err).To(MatchError(ErrInvalidCapacity))
		})
	})
})

func checkInvariants(p Policy, refs []Page, numFrames int, res *Result) {
	faults, hits := 0, 0
	var prev Step

	for i, s := range res.MemoryStates {
		Expect(s.CurrentPage).To(Equal(refs[i]))
		Expect(len(s.Memory)).To(BeNumerically("<=", numFrames))
		Expect(len(s.TLBContents)).To(BeNumerically("<=", TLBSize))
		Expect(s.Memory).To(ContainElement(refs[i]))

		for _, t := range s.TLBContents {
			Expect(s.Memory).To(ContainElement(t))
		}

		if s.IsFault() {
			faults++
		}

		if s.IsTLBHit() {
			hits++
		}

		if s.Evicted != nil {
			victim := *s.Evicted
			Expect(s.Memory).NotTo(ContainElement(victim))
			Expect(s.TLBContents).NotTo(ContainElement(victim))
			Expect(prev.Memory).To(HaveLen(numFrames))
			checkVictim(p, refs, i, prev.Memory, victim)
		}

		prev = s
	}

	Expect(res.PageFaults).To(Equal(faults))
	Expect(res.TLBHits).To(Equal(hits))
}

func checkVictim(p Policy, refs []Page, i int, residents []Page, victim Page) {
	switch p {
	case FIFO:
		Expect(victim).To(Equal(residents[0]))
	case LRU:
		victimLast := lastAccessBefore(refs, i, victim)
		for _, r := range residents {
			Expect(victimLast).To(
				BeNumerically("<=", lastAccessBefore(refs, i, r)))
		}
	case Optimal:
		victimNext := nextUse(refs, i+1, victim)
		if victimNext < 0 {
			return
		}

		for _, r := range residents {
			next := nextUse(refs, i+1, r)
			Expect(next).To(BeNumerically(">=", 0))
			Expect(victimNext).To(BeNumerically(">=", next))
		}
	}
}
