package broadcast

import "sync"

// Stream is the read-only view of a Subject handed to consumers.
type Stream[T any] interface {
	// Value returns the latest published value.
	Value() T
	// Subscribe returns a channel that immediately holds the current value
	// and afterwards the latest value published since the last receive.
	// Slow consumers skip intermediate values; they never block publishers.
	// The returned func unsubscribes and closes the channel.
	Subscribe() (<-chan T, func())
}

// Subject is a latest-value stream. The zero value is not usable; use New.
type Subject[T any] struct {
	mu     sync.Mutex
	value  T
	subs   map[uint64]chan T
	nextID uint64
	closed bool
}

// New creates a subject holding initial.
func New[T any](initial T) *Subject[T] {
	return &Subject[T]{
		value: initial,
		subs:  make(map[uint64]chan T),
	}
}

// Value returns the latest published value
func (s *Subject[T]) Value() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Publish replaces the current value and notifies subscribers.
// Publishing on a closed subject is a no-op.
func (s *Subject[T]) Publish(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.value = v
	for _, ch := range s.subs {
		offer(ch, v)
	}
}

// Subscribe implements Stream
func (s *Subject[T]) Subscribe() (<-chan T, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan T, 1)
	if s.closed {
		close(ch)
		return ch, func() {}
	}

	subID := s.nextID
	s.nextID++
	s.subs[subID] = ch
	ch <- s.value

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subs[subID]; ok {
				delete(s.subs, subID)
				close(c)
			}
		})
	}
}

// Subscribers returns the number of live subscriptions
func (s *Subject[T]) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Close closes every subscriber channel. Value keeps returning the last value.
func (s *Subject[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	for subID, ch := range s.subs {
		delete(s.subs, subID)
		close(ch)
	}
}

// offer delivers v, replacing any value the subscriber has not read yet.
// Callers hold s.mu, so there is a single sender per channel.
func offer[T any](ch chan T, v T) {
	select {
	case <-ch:
	default:
	}
	ch <- v
}
