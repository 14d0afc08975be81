// Package notify implements the change signal raised when the record store
// changes. Signals carry no payload and coalesce per subscriber.
package notify

import "sync"

// Signal fans a "changed" event out to subscribers without ever blocking
// the raiser.
type Signal struct {
	mu     sync.Mutex
	subs   map[int]chan struct{}
	nextID int
	raised uint64
}

// New creates a Signal with no subscribers.
func New() *Signal {
	return &Signal{subs: make(map[int]chan struct{})}
}

// Subscribe returns a channel that receives after each Raise, plus a cancel
// func that unsubscribes. A subscriber that has not drained its channel sees
// a single pending event for any number of raises.
func (s *Signal) Subscribe() (<-chan struct{}, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan struct{}, 1)
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// Raise notifies all subscribers.
func (s *Signal) Raise() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.raised++
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Raised returns how many times Raise was called.
func (s *Signal) Raised() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.raised
}
