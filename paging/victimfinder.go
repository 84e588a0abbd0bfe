package paging

// A RecencyTable knows when each resident page was last accessed.
type RecencyTable interface {
	LeastRecent() (Page, bool)
	LastAccess(page Page) (int, bool)
}

// A VictimFinder decides which resident page should be evicted.
//
// FindVictim is only called on a page fault with a full, non-empty memory.
// The memory slice lists residents oldest first and index is the position of
// the faulting access in refs. Implementations must not modify their
// arguments.
type VictimFinder interface {
	FindVictim(
		memory []Page,
		refs []Page,
		index int,
		recency RecencyTable,
	) Page
}

// FIFOVictimFinder evicts the page that has been resident the longest.
type FIFOVictimFinder struct {
}

// NewFIFOVictimFinder returns a newly constructed FIFO victim finder.
func NewFIFOVictimFinder() *FIFOVictimFinder {
	return new(FIFOVictimFinder)
}

// FindVictim returns the earliest loaded page.
func (e *FIFOVictimFinder) FindVictim(
	memory []Page,
	_ []Page,
	_ int,
	_ RecencyTable,
) Page {
	return memory[0]
}

// LRUVictimFinder evicts the least recently used page.
type LRUVictimFinder struct {
}

// NewLRUVictimFinder returns a newly constructed LRU victim finder.
func NewLRUVictimFinder() *LRUVictimFinder {
	return new(LRUVictimFinder)
}

// FindVictim returns the resident page with the oldest access. Residents
// unknown to the recency table count as older than any tracked page.
func (e *LRUVictimFinder) FindVictim(
	memory []Page,
	_ []Page,
	_ int,
	recency RecencyTable,
) Page {
	for _, p := range memory {
		if _, ok := recency.LastAccess(p); !ok {
			return p
		}
	}

	victim, ok := recency.LeastRecent()
	if !ok {
		return memory[0]
	}

	return victim
}

// OptimalVictimFinder evicts the page whose next use is furthest away.
type OptimalVictimFinder struct {
}

// NewOptimalVictimFinder returns a newly constructed optimal victim finder.
func NewOptimalVictimFinder() *OptimalVictimFinder {
	return new(OptimalVictimFinder)
}

// FindVictim scans the residents in memory order. The first resident that is
// never used again is returned immediately. Otherwise the resident with the
// furthest next use wins, and earlier residents win ties.
func (e *OptimalVictimFinder) FindVictim(
	memory []Page,
	refs []Page,
	index int,
	_ RecencyTable,
) Page {
	victim := memory[0]
	furthest := -1

	for _, p := range memory {
		next := nextUse(refs, index+1, p)
		if next < 0 {
			return p
		}

		if next > furthest {
			furthest = next
			victim = p
		}
	}

	return victim
}

// nextUse returns the first position at or after from where page appears, or
// -1 if it never does.
func nextUse(refs []Page, from int, page Page) int {
	for i := from; i < len(refs); i++ {
		if refs[i] == page {
			return i
		}
	}

	return -1
}
