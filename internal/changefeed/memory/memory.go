// Package memory implements the changefeed over an in-process bus.
//
// It backs unit tests and single-node development, where writer and engine
// share a process. Delivery is per-subscriber buffered with drop-oldest
// overflow: a slow consumer loses old notifications instead of stalling the
// publisher, which is safe because consumers re-read state rather than
// replaying events.
package memory

import (
	"context"
	"log/slog"
	"sync"

	"budgetme/internal/changefeed"
)

const subscriberBuffer = 32

// Bus is an in-process changefeed.Source that is also the publish side.
type Bus struct {
	logger *slog.Logger

	mu     sync.RWMutex
	subs   map[int]*subscriber
	lastID int
	closed bool
}

// Option configures a Bus.
type Option func(*Bus)

// WithLogger sets the logger used for drop reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bus) { b.logger = logger }
}

// NewBus builds an empty bus.
func NewBus(opts ...Option) *Bus {
	b := &Bus{
		logger: slog.New(slog.DiscardHandler),
		subs:   make(map[int]*subscriber),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

type subscriber struct {
	id     int
	bus    *Bus
	filter changefeed.Filter
	ch     chan changefeed.Event
	done   chan struct{}
	once   sync.Once
}

// Subscribe registers h for events matching f. Delivery happens on a
// dedicated goroutine per subscription, so handlers never run on the
// publisher's goroutine.
func (b *Bus) Subscribe(ctx context.Context, f changefeed.Filter, h changefeed.Handler) (changefeed.Subscription, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, context.Canceled
	}
	b.lastID++
	sub := &subscriber{
		id:     b.lastID,
		bus:    b,
		filter: f,
		ch:     make(chan changefeed.Event, subscriberBuffer),
		done:   make(chan struct{}),
	}
	b.subs[sub.id] = sub
	b.mu.Unlock()

	go sub.deliver(h)
	go func() {
		select {
		case <-ctx.Done():
			_ = sub.Close()
		case <-sub.done:
		}
	}()
	return sub, nil
}

func (s *subscriber) deliver(h changefeed.Handler) {
	for {
		select {
		case <-s.done:
			return
		case ev := <-s.ch:
			h(ev)
		}
	}
}

// Close unregisters the subscription and stops its delivery goroutine.
func (s *subscriber) Close() error {
	s.once.Do(func() {
		s.bus.mu.Lock()
		delete(s.bus.subs, s.id)
		s.bus.mu.Unlock()
		close(s.done)
	})
	return nil
}

// Publish fans ev out to every matching subscriber. Never blocks: a full
// subscriber buffer drops its oldest pending event to make room.
func (b *Bus) Publish(ev changefeed.Event) {
	b.mu.RLock()
	targets := make([]*subscriber, 0, len(b.subs))
	for _, sub := range b.subs {
		if sub.filter.Matches(ev) {
			targets = append(targets, sub)
		}
	}
	b.mu.RUnlock()

	for _, sub := range targets {
		select {
		case sub.ch <- ev:
			continue
		default:
		}
		// Buffer full: drop the oldest pending event, then retry once.
		select {
		case <-sub.ch:
			b.logger.Debug("changefeed subscriber lagging, dropped oldest event",
				"table", ev.Table, "subscriber", sub.id)
		default:
		}
		select {
		case sub.ch <- ev:
		default:
		}
	}
}

// Close shuts the bus down, closing every subscription.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	subs := make([]*subscriber, 0, len(b.subs))
	for _, sub := range b.subs {
		subs = append(subs, sub)
	}
	b.mu.Unlock()

	for _, sub := range subs {
		_ = sub.Close()
	}
}
