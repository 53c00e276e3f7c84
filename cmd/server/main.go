// The budgetme-sync server keeps each signed-in user's family view live:
// membership, roster, savings metrics and the activity feed, re-read from
// the store whenever the change feed reports movement.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"budgetme/internal/changefeed"
	kafkafeed "budgetme/internal/changefeed/kafka"
	membus "budgetme/internal/changefeed/memory"
	pgfeed "budgetme/internal/changefeed/postgres"
	redisfeed "budgetme/internal/changefeed/redis"
	familyhandler "budgetme/internal/family/handler"
	"budgetme/internal/family/live"
	fammetrics "budgetme/internal/family/metrics"
	"budgetme/internal/family/store"
	"budgetme/internal/family/store/cache"
	memstore "budgetme/internal/family/store/memory"
	pgstore "budgetme/internal/family/store/postgres"
	jwttoken "budgetme/internal/jwt_token"
	"budgetme/internal/platform/config"
	"budgetme/internal/platform/httpserver"
	"budgetme/internal/platform/logger"
	platmetrics "budgetme/internal/platform/metrics"
	"budgetme/internal/platform/postgres"
	"budgetme/internal/platform/redis"
	httptransport "budgetme/internal/transport/http"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "budgetme-sync:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reader, closeReader, err := buildReader(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("build read store: %w", err)
	}
	defer closeReader()

	source, closeSource, err := buildSource(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("build changefeed: %w", err)
	}
	defer closeSource()

	svc := live.NewService(reader, source, cfg.Sync,
		live.WithServiceLogger(log),
		live.WithServiceMetrics(fammetrics.New()),
	)
	defer func() { _ = svc.Close() }()

	jwtService := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer, cfg.Auth.JWTAudience)

	router := httptransport.NewRouter(httptransport.Deps{
		Family:    familyhandler.New(svc, log),
		Validator: jwttoken.NewJWTServiceAdapter(jwtService),
		Logger:    log,
		Metrics:   platmetrics.New(),
	})

	srv := httpserver.New(cfg.HTTP.Addr, router)

	errCh := make(chan error, 1)
	go func() {
		log.Info("budgetme-sync listening",
			"addr", cfg.HTTP.Addr,
			"store", cfg.Store.Backend,
			"changefeed", cfg.Changefeed.Backend,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown incomplete", "error", err)
	}
	if err := svc.Close(); err != nil {
		log.Warn("live service close failed", "error", err)
	}
	return nil
}

// buildReader selects the read-store backend. With postgres, profile
// lookups go through the Redis read-through cache when Redis is
// configured.
func buildReader(ctx context.Context, cfg *config.Config, log *slog.Logger) (store.Reader, func(), error) {
	switch cfg.Store.Backend {
	case "postgres":
		pool, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		var reader store.Reader = pgstore.New(pool.Pool)
		closer := func() { pool.Close() }

		rc, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			log.Warn("redis unavailable, profile cache disabled", "error", err)
			return reader, closer, nil
		}
		if rc != nil {
			profiles := cache.NewProfiles(reader, rc.Client, cfg.Redis.ProfileCacheTTL, cache.WithLogger(log))
			reader = store.WithProfileCache(reader, profiles)
			closer = func() {
				pool.Close()
				_ = rc.Close()
			}
		}
		return reader, closer, nil

	default: // memory, for single-node dev
		log.Warn("using in-memory read store, data resets on restart")
		return memstore.New(), func() {}, nil
	}
}

// buildSource selects where change notifications come from.
func buildSource(ctx context.Context, cfg *config.Config, log *slog.Logger) (changefeed.Source, func(), error) {
	switch cfg.Changefeed.Backend {
	case "postgres":
		src, err := pgfeed.New(cfg.Postgres.URL, pgfeed.WithLogger(log))
		if err != nil {
			return nil, nil, err
		}
		return src, func() { _ = src.Close() }, nil

	case "redis":
		rc, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		if rc == nil {
			return nil, nil, fmt.Errorf("redis changefeed backend needs BUDGETME_REDIS_URL")
		}
		src, err := redisfeed.New(rc.Client, redisfeed.WithLogger(log))
		if err != nil {
			_ = rc.Close()
			return nil, nil, err
		}
		return src, func() {
			_ = src.Close()
			_ = rc.Close()
		}, nil

	case "kafka":
		src, err := kafkafeed.New(cfg.Kafka.Brokers, cfg.Kafka.TopicPrefix, kafkafeed.WithLogger(log))
		if err != nil {
			return nil, nil, err
		}
		return src, func() { _ = src.Close() }, nil

	default: // memory, for single-node dev
		bus := membus.NewBus(membus.WithLogger(log))
		return bus, bus.Close, nil
	}
}
