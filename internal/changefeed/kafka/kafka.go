// Package kafka implements the changefeed over Kafka topics.
//
// Writers produce the shared JSON payload to one topic per table. The
// engine consumes group-less from the tail: it only cares about changes
// that happen while it is running, never about history, so there are no
// offsets to commit and a restart simply resumes at the live edge.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"budgetme/internal/changefeed"
)

// TopicFor returns the topic carrying a table's changes.
func TopicFor(prefix string, table changefeed.Table) string {
	return prefix + string(table)
}

var errClosed = errors.New("changefeed source closed")

// Source is a changefeed.Source backed by a Kafka consumer.
type Source struct {
	logger *slog.Logger
	client *kgo.Client
	cancel context.CancelFunc

	mu     sync.Mutex
	subs   map[int]*subscription
	lastID int
	closed bool

	done chan struct{}
	wg   sync.WaitGroup
}

// Option configures a Source.
type Option func(*Source)

// WithLogger sets the logger for consume and decode diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Source) { s.logger = logger }
}

// New connects to the brokers, makes sure the per-table topics exist and
// starts consuming them from the tail.
func New(brokers []string, topicPrefix string, opts ...Option) (*Source, error) {
	s := &Source{
		logger: slog.New(slog.DiscardHandler),
		subs:   make(map[int]*subscription),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	topics := make([]string, 0, len(changefeed.Tables()))
	for _, table := range changefeed.Tables() {
		topics = append(topics, TopicFor(topicPrefix, table))
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumeTopics(topics...),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtEnd()),
	)
	if err != nil {
		return nil, fmt.Errorf("connect kafka: %w", err)
	}
	s.client = client

	if err := ensureTopics(context.Background(), client, topics); err != nil {
		client.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.wg.Add(1)
	go s.consume(ctx)
	return s, nil
}

// ensureTopics creates missing topics so a fresh environment works without
// manual setup. Already-existing topics are fine.
func ensureTopics(ctx context.Context, client *kgo.Client, topics []string) error {
	adm := kadm.NewClient(client)
	resp, err := adm.CreateTopics(ctx, 1, 1, nil, topics...)
	if err != nil {
		return fmt.Errorf("create topics: %w", err)
	}
	for _, res := range resp.Sorted() {
		if res.Err != nil && !errors.Is(res.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", res.Topic, res.Err)
		}
	}
	return nil
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

func (s *Source) consume(ctx context.Context) {
	defer s.wg.Done()
	for {
		fetches := s.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			return
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			s.logger.Warn("changefeed fetch error",
				"topic", topic, "partition", partition, "error", err)
		})
		fetches.EachRecord(func(rec *kgo.Record) {
			ev, err := changefeed.DecodeEvent(rec.Value)
			if err != nil {
				s.logger.Warn("changefeed payload dropped",
					"topic", rec.Topic, "error", err)
				return
			}
			s.dispatch(ev)
		})
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

// Close stops the consumer and releases the client.
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
	s.cancel()
	s.client.Close()
	s.wg.Wait()
	return nil
}
