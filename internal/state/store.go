package state

import (
	"sync"
)

// Listener receives every snapshot produced by Dispatch, in version order.
// Listeners run synchronously and must not call Dispatch or Begin.
type Listener func(Snapshot)

type subscription struct {
	id int
	fn Listener
}

// Store is one session's state container. Create one per session; there is
// no package-level instance.
type Store struct {
	// notifyMu serializes reduce+notify so listeners never observe
	// snapshots out of order.
	notifyMu sync.Mutex
	mu       sync.Mutex
	state    Snapshot
	subs     []subscription
	nextID   int
}

func NewStore() *Store {
	return &Store{state: Initial()}
}

// State returns a copy of the current snapshot.
func (s *Store) State() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Dispatch reduces a into the current state and notifies listeners.
func (s *Store) Dispatch(a Action) Snapshot {
	next, _ := s.dispatchIf(a, nil)
	return next
}

// dispatchIf applies a only when guard accepts the current state.
func (s *Store) dispatchIf(a Action, guard func(Snapshot) bool) (Snapshot, bool) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if guard != nil && !guard(s.state) {
		cur := s.state.Clone()
		s.mu.Unlock()
		return cur, false
	}
	s.state = Reduce(s.state, a)
	next := s.state.Clone()
	subs := make([]subscription, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(next.Clone())
	}
	return next, true
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs = append(s.subs, subscription{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Begin marks op as in flight. It returns ok=false if op is already in
// flight; otherwise done must be called once the operation settles.
func (s *Store) Begin(op string) (done func(), ok bool) {
	_, ok = s.dispatchIf(OperationStarted{Op: op}, func(cur Snapshot) bool {
		return !cur.InFlight[op]
	})
	if !ok {
		return func() {}, false
	}
	var once sync.Once
	return func() {
		once.Do(func() { s.Dispatch(OperationFinished{Op: op}) })
	}, true
}
