package paging

// TLBSize is the number of entries every TLB holds.
const TLBSize = 3

// A TLB caches recently translated pages. It evicts in insertion order
// regardless of the policy used for main memory.
type TLB struct {
	capacity int
	entries  []Page
}

// NewTLB creates an empty TLB that holds at most capacity pages.
func NewTLB(capacity int) *TLB {
	return &TLB{
		capacity: capacity,
		entries:  make([]Page, 0, capacity),
	}
}

// Lookup tells if the page is cached.
func (t *TLB) Lookup(page Page) bool {
	return t.indexOf(page) >= 0
}

// Insert appends the page, evicting the oldest entry if the TLB is full.
// Inserting a cached page does nothing.
func (t *TLB) Insert(page Page) {
	if t.capacity <= 0 || t.Lookup(page) {
		return
	}

	if len(t.entries) >= t.capacity {
		t.entries = append(t.entries[:0], t.entries[1:]...)
	}

	t.entries = append(t.entries, page)
}

// Invalidate removes the page if it is cached.
func (t *TLB) Invalidate(page Page) {
	i := t.indexOf(page)
	if i < 0 {
		return
	}

	t.entries = append(t.entries[:i], t.entries[i+1:]...)
}

// Len returns the number of cached pages.
func (t *TLB) Len() int {
	return len(t.entries)
}

// Capacity returns the maximum number of cached pages.
func (t *TLB) Capacity() int {
	return t.capacity
}

// Contents returns a copy of the cached pages, oldest first.
func (t *TLB) Contents() []Page {
	return clonePages(t.entries)
}

func (t *TLB) indexOf(page Page) int {
	for i, p := range t.entries {
		if p == page {
			return i
		}
	}

	return -1
}

func clonePages(pages []Page) []Page {
	c := make([]Page, len(pages))
	copy(c, pages)

	return c
}
