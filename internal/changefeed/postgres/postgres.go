// Package postgres implements the changefeed over LISTEN/NOTIFY.
//
// Writer services (or row triggers) NOTIFY one channel per table with the
// shared JSON payload. A single database connection carries all LISTENs;
// subscriptions register client-side filters against it, so adding a
// subscription never opens another connection.
//
// lib/pq owns reconnection. After a dropped connection notifications may
// have been missed, so on reconnect every live subscription receives one
// synthetic nudge scoped to its own filter, prompting its consumer to
// re-read state it may have missed.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lib/pq"

	"budgetme/internal/changefeed"
)

const (
	channelPrefix        = "budgetme_"
	minReconnectInterval = 1 * time.Second
	maxReconnectInterval = 30 * time.Second
)

// ChannelFor returns the NOTIFY channel name carrying a table's changes.
func ChannelFor(table changefeed.Table) string {
	return channelPrefix + string(table)
}

var errClosed = errors.New("changefeed source closed")

// Source is a changefeed.Source backed by a Postgres listener connection.
type Source struct {
	logger   *slog.Logger
	listener *pq.Listener

	mu     sync.Mutex
	subs   map[int]*subscription
	lastID int
	closed bool

	done chan struct{}
	wg   sync.WaitGroup
}

// Option configures a Source.
type Option func(*Source)

// WithLogger sets the logger for connection and decode diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Source) { s.logger = logger }
}

// New opens the listener connection and starts LISTENing on every table
// channel. The receive loop runs until Close.
func New(conninfo string, opts ...Option) (*Source, error) {
	s := &Source{
		logger: slog.New(slog.DiscardHandler),
		subs:   make(map[int]*subscription),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.listener = pq.NewListener(conninfo, minReconnectInterval, maxReconnectInterval,
		func(ev pq.ListenerEventType, err error) {
			switch ev {
			case pq.ListenerEventConnected, pq.ListenerEventReconnected:
				s.logger.Info("changefeed listener connected")
			case pq.ListenerEventDisconnected:
				s.logger.Warn("changefeed listener disconnected", "error", err)
			case pq.ListenerEventConnectionAttemptFailed:
				s.logger.Warn("changefeed listener reconnect failed", "error", err)
			}
		})

	for _, table := range changefeed.Tables() {
		if err := s.listener.Listen(ChannelFor(table)); err != nil {
			s.listener.Close()
			return nil, fmt.Errorf("listen on %s: %w", ChannelFor(table), err)
		}
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
	for {
		select {
		case <-s.done:
			return
		case n, ok := <-s.listener.Notify:
			if !ok {
				return
			}
			if n == nil {
				// Reconnected; notifications may have been lost.
				s.nudgeAll()
				continue
			}
			ev, err := changefeed.DecodeEvent([]byte(n.Extra))
			if err != nil {
				s.logger.Warn("changefeed payload dropped",
					"channel", n.Channel, "error", err)
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

// nudgeAll synthesizes one event per subscription, shaped from its own
// filter so it is guaranteed to match.
func (s *Source) nudgeAll() {
	s.mu.Lock()
	targets := make([]*subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		targets = append(targets, sub)
	}
	s.mu.Unlock()

	now := time.Now()
	for _, sub := range targets {
		ev := changefeed.Event{
			Table:    sub.filter.Table,
			Op:       changefeed.OpUpdate,
			FamilyID: sub.filter.FamilyID,
			UserID:   sub.filter.UserID,
			At:       now,
		}
		if len(sub.filter.MemberIDs) > 0 {
			ev.UserID = sub.filter.MemberIDs[0]
		}
		sub.handle(ev)
	}
	s.logger.Info("changefeed reconnected, nudged subscriptions", "count", len(targets))
}

// Close stops the receive loop and drops the database connection.
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
	err := s.listener.Close()
	s.wg.Wait()
	return err
}
