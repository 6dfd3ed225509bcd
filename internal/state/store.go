package state

import "sync/atomic"

// Store publishes the current Tree. Readers take a snapshot without locking;
// writers pass a pure function of the current tree.
type Store struct {
	tree atomic.Pointer[Tree]
}

func NewStore() *Store {
	s := &Store{}
	s.tree.Store(Empty())
	return s
}

func (s *Store) Snapshot() *Tree {
	return s.tree.Load()
}

// Update applies fn and publishes its result. fn may run more than once if
// another writer publishes first, so it must not have side effects.
func (s *Store) Update(fn func(*Tree) *Tree) *Tree {
	for {
		cur := s.tree.Load()
		next := fn(cur)
		if next == cur {
			return cur
		}
		if s.tree.CompareAndSwap(cur, next) {
			return next
		}
	}
}
