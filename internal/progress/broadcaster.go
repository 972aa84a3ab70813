// Package progress fans crawl progress events out to stream subscribers.
package progress

import (
	"sync"
	"sync/atomic"
)

// Event is one progress update. Final marks the last event of a run and is
// not part of the wire payload.
type Event struct {
	Message string `json:"message"`
	Percent int    `json:"percent"`
	Final   bool   `json:"-"`
}

const DefaultBufferSize = 16

// Subscription is one observer's handle. Events arrive on C until the
// subscription is closed, after which C is closed.
type Subscription struct {
	ID uint64
	C  <-chan Event

	ch        chan Event
	closeOnce sync.Once
	closed    atomic.Bool
	dropped   atomic.Int64
	owner     *Broadcaster
}

// Dropped returns how many events were discarded because the buffer was full.
func (s *Subscription) Dropped() int64 {
	return s.dropped.Load()
}

// Close unregisters the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	if s.owner != nil {
		s.owner.Unsubscribe(s.ID)
		return
	}
	s.shutdown()
}

func (s *Subscription) shutdown() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.ch)
	})
}

// Broadcaster is a registry of subscriptions. Publish never blocks on a slow
// subscriber: events that do not fit its buffer are dropped for it alone.
type Broadcaster struct {
	mu         sync.Mutex
	subs       map[uint64]*Subscription
	nextID     uint64
	bufferSize int
}

func NewBroadcaster(bufferSize int) *Broadcaster {
	if bufferSize < 1 {
		bufferSize = DefaultBufferSize
	}
	return &Broadcaster{
		subs:       make(map[uint64]*Subscription),
		bufferSize: bufferSize,
	}
}

func (b *Broadcaster) Subscribe() *Subscription {
	ch := make(chan Event, b.bufferSize)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &Subscription{
		ID:    b.nextID,
		C:     ch,
		ch:    ch,
		owner: b,
	}
	b.subs[sub.ID] = sub
	return sub
}

func (b *Broadcaster) Unsubscribe(id uint64) {
	b.mu.Lock()
	sub, ok := b.subs[id]
	if ok {
		delete(b.subs, id)
	}
	b.mu.Unlock()

	if ok {
		sub.shutdown()
	}
}

// Publish delivers event to every registered subscription. Subscriptions
// already closed are unregistered. A final event always lands: when a
// buffer is full its oldest events are evicted to make room.
func (b *Broadcaster) Publish(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, sub := range b.subs {
		if sub.closed.Load() {
			delete(b.subs, id)
			continue
		}
		if event.Final {
			sub.deliverFinal(event)
			continue
		}
		select {
		case sub.ch <- event:
		default:
			sub.dropped.Add(1)
		}
	}
}

// deliverFinal must run under the broadcaster lock: it is then the only
// sender, and the channel cannot be closed underneath it.
func (s *Subscription) deliverFinal(event Event) {
	for {
		select {
		case s.ch <- event:
			return
		default:
		}
		select {
		case <-s.ch:
			s.dropped.Add(1)
		default:
		}
	}
}

// Count returns the number of registered subscriptions.
func (b *Broadcaster) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// CloseAll unregisters and closes every subscription.
func (b *Broadcaster) CloseAll() {
	b.mu.Lock()
	subs := b.subs
	b.subs = make(map[uint64]*Subscription)
	b.mu.Unlock()

	for _, sub := range subs {
		sub.shutdown()
	}
}
