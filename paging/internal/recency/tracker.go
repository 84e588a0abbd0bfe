// Package recency tracks when each resident page was last accessed.
package recency

import (
	"github.com/google/btree"
)

type visit[K comparable] struct {
	key   K
	index int
	seq   uint64
}

// Less orders visits by access index. The insertion sequence only matters when
// a caller reuses an index for two keys, in which case the earlier touch is
// older.
func (v visit[K]) Less(than btree.Item) bool {
	other := than.(visit[K])
	if v.index != other.index {
		return v.index < other.index
	}

	return v.seq < other.seq
}

// A Tracker maps keys to the index of their most recent access and can report
// the least recently accessed key. A Tracker belongs to a single run; create a
// new one for every run instead of sharing it.
type Tracker[K comparable] struct {
	visitTree *btree.BTree
	lastVisit map[K]visit[K]
	seq       uint64
}

// New creates an empty Tracker.
func New[K comparable]() *Tracker[K] {
	return &Tracker[K]{
		visitTree: btree.New(2),
		lastVisit: make(map[K]visit[K]),
	}
}

// Touch records that key was accessed at index.
func (t *Tracker[K]) Touch(key K, index int) {
	if old, ok := t.lastVisit[key]; ok {
		t.visitTree.Delete(old)
	}

	t.seq++
	v := visit[K]{key: key, index: index, seq: t.seq}
	t.visitTree.ReplaceOrInsert(v)
	t.lastVisit[key] = v
}

// LeastRecent returns the key with the smallest access index. The second
// return value is false when nothing is tracked.
func (t *Tracker[K]) LeastRecent() (K, bool) {
	item := t.visitTree.Min()
	if item == nil {
		var zero K
		return zero, false
	}

	return item.(visit[K]).key, true
}

// LastAccess returns the recorded access index of key.
func (t *Tracker[K]) LastAccess(key K) (int, bool) {
	v, ok := t.lastVisit[key]
	if !ok {
		return 0, false
	}

	return v.index, true
}

// Forget drops key. Forgetting an unknown key does nothing.
func (t *Tracker[K]) Forget(key K) {
	v, ok := t.lastVisit[key]
	if !ok {
		return
	}

	t.visitTree.Delete(v)
	delete(t.lastVisit, key)
}

// Len returns the number of tracked keys.
func (t *Tracker[K]) Len() int {
	return len(t.lastVisit)
}
