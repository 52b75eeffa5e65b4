package events

import (
	"sync"
	"sync/atomic"
)

// DefaultBuffer is the per-subscriber channel capacity used when
// Subscribe is called with a non-positive buffer size.
const DefaultBuffer = 256

// Bus fans events out to subscribers without ever blocking the
// publisher. Each subscriber owns a bounded buffer; when a subscriber
// falls behind, its oldest buffered event is discarded to make room
// for the newest one.
type Bus struct {
	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	closed bool
}

// Subscription is one subscriber's view of the bus.
type Subscription struct {
	bus     *Bus
	ch      chan Event
	dropped atomic.Uint64
	once    sync.Once
}

// NewBus returns an empty bus ready for use.
func NewBus() *Bus {
	return &Bus{subs: make(map[*Subscription]struct{})}
}

// Subscribe registers a new subscriber with the given buffer capacity.
// A non-positive buffer falls back to DefaultBuffer. Subscribing to a
// closed bus yields a subscription whose channel is already closed.
func (b *Bus) Subscribe(buffer int) *Subscription {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	s := &Subscription{bus: b, ch: make(chan Event, buffer)}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(s.ch)
		return s
	}
	b.subs[s] = struct{}{}
	return s
}

// Publish delivers e to every live subscriber and never blocks.
// Publishing on a closed bus is a no-op.
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for s := range b.subs {
		s.send(e)
	}
}

// Close closes every subscriber channel. Later Publish calls become
// no-ops; subscribers observe the close after draining their buffers.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for s := range b.subs {
		close(s.ch)
	}
	b.subs = nil
}

// send enqueues e on the subscriber buffer, shedding the oldest
// buffered event when full. The caller must hold b.mu, which also
// serializes sends against channel close.
func (s *Subscription) send(e Event) {
	select {
	case s.ch <- e:
		return
	default:
	}

	// Buffer full: pull the oldest event off to make room.
	select {
	case <-s.ch:
		s.dropped.Add(1)
	default:
	}

	select {
	case s.ch <- e:
	default:
		// A concurrent receive freed no slot after all; the new
		// event is the one lost.
		s.dropped.Add(1)
	}
}

// Events returns the receive side of the subscription. The channel is
// closed when the bus closes or the subscription is canceled.
func (s *Subscription) Events() <-chan Event { return s.ch }

// Dropped reports how many events were discarded because this
// subscriber fell behind.
func (s *Subscription) Dropped() uint64 { return s.dropped.Load() }

// Cancel detaches the subscription from the bus and closes its
// channel. It is safe to call repeatedly and after the bus is closed.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.bus.mu.Lock()
		defer s.bus.mu.Unlock()
		if s.bus.closed {
			return
		}
		delete(s.bus.subs, s)
		close(s.ch)
	})
}
