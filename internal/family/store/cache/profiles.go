// Package cache decorates the profile read port with a Redis read-through
// layer. Display names appear on every activity entry and contributor row,
// so they are by far the hottest read; everything else goes straight to
// the backing store.
//
// Staleness is bounded by TTL only: profile edits flow through a service
// this engine does not hear change notifications from.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"budgetme/internal/family/models"
	"budgetme/internal/family/store"
	id "budgetme/pkg/domain"
)

var (
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "budgetme_profile_cache_hits_total",
		Help: "Profile lookups served from Redis",
	})
	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "budgetme_profile_cache_misses_total",
		Help: "Profile lookups that fell through to the backing store",
	})
)

const profileKeyPrefix = "profile:"

// Profiles is a read-through cache over a store.ProfileReader.
//
// Redis failures never fail a lookup: the decorator logs, falls through to
// the inner reader and keeps serving. A corrupt cache entry is deleted and
// treated as a miss.
type Profiles struct {
	inner  store.ProfileReader
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// Option configures the cache.
type Option func(*Profiles)

// WithLogger sets the logger for cache diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Profiles) { p.logger = logger }
}

// NewProfiles wraps inner with a Redis read-through layer.
func NewProfiles(inner store.ProfileReader, client *redis.Client, ttl time.Duration, opts ...Option) *Profiles {
	p := &Profiles{
		inner:  inner,
		client: client,
		ttl:    ttl,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func profileKey(userID id.UserID) string {
	return profileKeyPrefix + userID.String()
}

// Profile returns the cached profile, falling through to the inner reader
// on miss or any cache failure.
func (p *Profiles) Profile(ctx context.Context, userID id.UserID) (*models.Profile, error) {
	if cached := p.lookup(ctx, userID); cached != nil {
		cacheHits.Inc()
		return cached, nil
	}
	cacheMisses.Inc()

	profile, err := p.inner.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	p.put(ctx, *profile)
	return profile, nil
}

// Profiles bulk-resolves users, serving what it can from Redis and reading
// the remainder through. As with the inner port, unknown users are absent
// from the result rather than an error.
func (p *Profiles) Profiles(ctx context.Context, userIDs []id.UserID) (map[id.UserID]models.Profile, error) {
	out := make(map[id.UserID]models.Profile, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}

	missing := p.lookupBulk(ctx, userIDs, out)
	if len(missing) == 0 {
		return out, nil
	}

	fetched, err := p.inner.Profiles(ctx, missing)
	if err != nil {
		return nil, err
	}

	pipe := p.client.Pipeline()
	for _, profile := range fetched {
		out[profile.ID] = profile
		if payload, err := json.Marshal(profile); err == nil {
			pipe.Set(ctx, profileKey(profile.ID), payload, p.ttl)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		p.logger.Debug("profile cache fill failed", "error", err)
	}
	return out, nil
}

// Invalidate drops a user's cached profile.
func (p *Profiles) Invalidate(ctx context.Context, userID id.UserID) {
	if err := p.client.Del(ctx, profileKey(userID)).Err(); err != nil {
		p.logger.Debug("profile cache invalidate failed", "user_id", userID, "error", err)
	}
}

// lookup returns the cached profile, or nil on miss, corruption or any
// redis error.
func (p *Profiles) lookup(ctx context.Context, userID id.UserID) *models.Profile {
	payload, err := p.client.Get(ctx, profileKey(userID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			p.logger.Debug("profile cache read failed", "user_id", userID, "error", err)
		}
		return nil
	}

	var profile models.Profile
	if err := json.Unmarshal(payload, &profile); err != nil {
		p.logger.Warn("dropping corrupt profile cache entry", "user_id", userID, "error", err)
		p.client.Del(ctx, profileKey(userID))
		return nil
	}
	return &profile
}

// lookupBulk fills hits into out and returns the users that still need the
// backing store. Any redis failure degrades the whole batch to misses.
func (p *Profiles) lookupBulk(ctx context.Context, userIDs []id.UserID, out map[id.UserID]models.Profile) []id.UserID {
	keys := make([]string, len(userIDs))
	for i, uid := range userIDs {
		keys[i] = profileKey(uid)
	}

	values, err := p.client.MGet(ctx, keys...).Result()
	if err != nil {
		p.logger.Debug("profile cache bulk read failed", "error", err)
		cacheMisses.Inc()
		return userIDs
	}

	var missing []id.UserID
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			cacheMisses.Inc()
			missing = append(missing, userIDs[i])
			continue
		}
		var profile models.Profile
		if err := json.Unmarshal([]byte(raw), &profile); err != nil {
			p.logger.Warn("dropping corrupt profile cache entry", "user_id", userIDs[i], "error", err)
			p.client.Del(ctx, keys[i])
			cacheMisses.Inc()
			missing = append(missing, userIDs[i])
			continue
		}
		cacheHits.Inc()
		out[profile.ID] = profile
	}
	return missing
}

func (p *Profiles) put(ctx context.Context, profile models.Profile) {
	payload, err := json.Marshal(profile)
	if err != nil {
		return
	}
	if err := p.client.Set(ctx, profileKey(profile.ID), payload, p.ttl).Err(); err != nil {
		p.logger.Debug("profile cache write failed", "user_id", profile.ID, "error", err)
	}
}
