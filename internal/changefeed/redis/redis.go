// Package redis implements the changefeed over Redis Pub/Sub.
//
// Writers PUBLISH the shared JSON payload to one channel per table. Redis
// pub/sub is at-most-once: messages sent while disconnected are gone, which
// the engine tolerates because consumers re-read state on every nudge and a
// throttled refresh cycle follows soon after reconnect anyway.
package redis

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	goredis "github.com/redis/go-redis/v9"

	"budgetme/internal/changefeed"
)

const channelPrefix = "feed:"

// ChannelFor returns the pub/sub channel carrying a table's changes.
func ChannelFor(table changefeed.Table) string {
	return channelPrefix + string(table)
}

var errClosed = errors.New("changefeed source closed")

// Source is a changefeed.Source backed by one Redis pub/sub connection.
type Source struct {
	logger *slog.Logger
	pubsub *goredis.PubSub

	mu     sync.Mutex
	subs   map[int]*subscription
	lastID int
	closed bool

	done chan struct{}
	wg   sync.WaitGroup
}

// Option configures a Source.
type Option func(*Source)

// WithLogger sets the logger for decode diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Source) { s.logger = logger }
}

// New subscribes to every table channel on client and starts the receive
// loop. The loop runs until Close.
func New(client *goredis.Client, opts ...Option) (*Source, error) {
	s := &Source{
		logger: slog.New(slog.DiscardHandler),
		subs:   make(map[int]*subscription),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	channels := make([]string, 0, len(changefeed.Tables()))
	for _, table := range changefeed.Tables() {
		channels = append(channels, ChannelFor(table))
	}
	s.pubsub = client.Subscribe(context.Background(), channels...)

	// Force the subscription onto the wire before we claim readiness.
	if _, err := s.pubsub.Receive(context.Background()); err != nil {
		_ = s.pubsub.Close()
		return nil, err
	}

	s.wg.Add(1)
	go s.receive()
	return s, nil
}

type subscription struct {
	id     int
	src    *Source
	filter changefeed.Filter
	handle changefeed.Handler
	once   sync.Once
}

func (sub *subscription) Close() error {
	sub.once.Do(func() {
		sub.src.mu.Lock()
		delete(sub.src.subs, sub.id)
		sub.src.mu.Unlock()
	})
	return nil
}

// Subscribe registers h for events matching f.
func (s *Source) Subscribe(ctx context.Context, f changefeed.Filter, h changefeed.Handler) (changefeed.Subscription, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, errClosed
	}
	s.lastID++
	sub := &subscription{id: s.lastID, src: s, filter: f, handle: h}
	s.subs[sub.id] = sub
	s.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			_ = sub.Close()
		case <-s.done:
		}
	}()
	return sub, nil
}

func (s *Source) receive() {
	defer s.wg.Done()
	ch := s.pubsub.Channel()
	for {
		select {
		case <-s.done:
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			ev, err := changefeed.DecodeEvent([]byte(msg.Payload))
			if err != nil {
				s.logger.Warn("changefeed payload dropped",
					"channel", msg.Channel, "error", err)
				continue
			}
			s.dispatch(ev)
		}
	}
}

func (s *Source) dispatch(ev changefeed.Event) {
	s.mu.Lock()
	targets := make([]*subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		if sub.filter.Matches(ev) {
			targets = append(targets, sub)
		}
	}
	s.mu.Unlock()

	for _, sub := range targets {
		sub.handle(ev)
	}
}

// Close stops the receive loop and tears down the pub/sub connection.
func (s *Source) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.subs = make(map[int]*subscription)
	s.mu.Unlock()

	close(s.done)
	err := s.pubsub.Close()
	s.wg.Wait()
	return err
}
