package notify

import (
	"sync"
)

const (
	defaultSubscriberCapacity = 32
	defaultBacklogLimit       = 16
)

// BusOption customizes Bus construction.
type BusOption func(*Bus)

// Bus fans events out to subscribers over bounded channels. Events published
// while nobody is listening are held in a small backlog and flushed to the
// first subscriber.
type Bus struct {
	mu           sync.RWMutex
	subscribers  map[*subscriber]struct{}
	backlog      []Event
	channelSize  int
	backlogLimit int
	logger       Logger
}

// Subscription represents an active listener.
type Subscription struct {
	Events <-chan Event
	cancel func()
}

// Close terminates the subscription and closes its channel.
func (s Subscription) Close() {
	if s.cancel != nil {
		s.cancel()
	}
}

// NewBus constructs a bus with default capacities.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{
		subscribers:  map[*subscriber]struct{}{},
		channelSize:  defaultSubscriberCapacity,
		backlogLimit: defaultBacklogLimit,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// WithLogger injects a logger for drop diagnostics.
func WithLogger(logger Logger) BusOption {
	return func(b *Bus) {
		b.logger = logger
	}
}

// WithSubscriberCapacity overrides the buffered channel size per subscriber.
func WithSubscriberCapacity(capacity int) BusOption {
	return func(b *Bus) {
		if capacity > 0 {
			b.channelSize = capacity
		}
	}
}

// WithBacklogLimit overrides how many events are kept for late subscribers.
func WithBacklogLimit(limit int) BusOption {
	return func(b *Bus) {
		if limit > 0 {
			b.backlogLimit = limit
		}
	}
}

// Subscribe registers a listener and replays any backlog to it.
func (b *Bus) Subscribe() Subscription {
	sub := newSubscriber(b.channelSize, b.logger)
	b.mu.Lock()
	b.subscribers[sub] = struct{}{}
	backlog := b.backlog
	b.backlog = nil
	b.mu.Unlock()
	for _, event := range backlog {
		sub.deliver(event)
	}
	return Subscription{
		Events: sub.channel(),
		cancel: func() {
			b.removeSubscriber(sub)
		},
	}
}

// Publish delivers the event to every subscriber without blocking.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	subs := make([]*subscriber, 0, len(b.subscribers))
	for sub := range b.subscribers {
		subs = append(subs, sub)
	}
	b.mu.RUnlock()
	if len(subs) == 0 {
		b.bufferEvent(event)
		return
	}
	for _, sub := range subs {
		sub.deliver(event)
	}
}

func (b *Bus) removeSubscriber(sub *subscriber) {
	b.mu.Lock()
	delete(b.subscribers, sub)
	b.mu.Unlock()
	sub.close()
}

func (b *Bus) bufferEvent(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.backlog) >= b.backlogLimit {
		b.backlog = b.backlog[1:]
		if b.logger != nil {
			b.logger.Printf("notify: backlog drop (limit %d)", b.backlogLimit)
		}
	}
	b.backlog = append(b.backlog, event)
}

type subscriber struct {
	mu     sync.Mutex
	ch     chan Event
	logger Logger
	closed bool
}

func newSubscriber(capacity int, logger Logger) *subscriber {
	if capacity <= 0 {
		capacity = defaultSubscriberCapacity
	}
	return &subscriber{
		ch:     make(chan Event, capacity),
		logger: logger,
	}
}

func (s *subscriber) channel() <-chan Event {
	return s.ch
}

// deliver never blocks. On overflow the lower priority of the oldest queued
// event and the incoming one is dropped.
func (s *subscriber) deliver(event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- event:
		return
	default:
	}
	var oldest Event
	select {
	case oldest = <-s.ch:
	default:
		s.ch <- event
		return
	}
	if shouldDropOldest(oldest, event) {
		s.logDrop(oldest)
		s.ch <- event
		return
	}
	// Put the oldest back at the tail; ordering among survivors is best effort.
	s.ch <- oldest
	s.logDrop(event)
}

func (s *subscriber) logDrop(event Event) {
	if s.logger == nil {
		return
	}
	s.logger.Printf("notify: dropped %s/%s event (queue overflow)", event.Kind, event.Level)
}

func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}

func shouldDropOldest(oldest, incoming Event) bool {
	return priority(incoming) >= priority(oldest)
}

func priority(e Event) int {
	switch {
	case e.Kind == KindCelebration:
		return 2
	case e.Level == LevelError || e.Level == LevelSuccess:
		return 1
	default:
		return 0
	}
}
