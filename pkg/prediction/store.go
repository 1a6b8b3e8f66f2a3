package prediction

import "sync/atomic"

type entry struct {
	p       Prediction
	version uint64
}

// Store holds the most recent Prediction. A reader always sees a whole
// Prediction from a single publish.
type Store struct {
	latest atomic.Pointer[entry]
}

// NewStore creates an empty store holding the placeholder state.
func NewStore() *Store {
	return &Store{}
}

// Publish replaces the latest prediction and returns its version. Concurrent
// publishers each get a distinct version; the highest one is kept.
func (s *Store) Publish(p Prediction) uint64 {
	for {
		old := s.latest.Load()
		v := uint64(1)
		if old != nil {
			v = old.version + 1
		}
		if s.latest.CompareAndSwap(old, &entry{p: p, version: v}) {
			return v
		}
	}
}

// Latest returns the last published prediction, or the zero value.
func (s *Store) Latest() Prediction {
	p, _ := s.Snapshot()
	return p
}

// Snapshot returns the last published prediction together with its version.
func (s *Store) Snapshot() (Prediction, uint64) {
	if e := s.latest.Load(); e != nil {
		return e.p, e.version
	}
	return Prediction{}, 0
}

// Version counts publishes. It is 0 until the first one.
func (s *Store) Version() uint64 {
	if e := s.latest.Load(); e != nil {
		return e.version
	}
	return 0
}
