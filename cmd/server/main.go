package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/racecraft/internal/config"
	"github.com/iliyamo/racecraft/internal/database"
	"github.com/iliyamo/racecraft/internal/logger"
	"github.com/iliyamo/racecraft/internal/payment"
	"github.com/iliyamo/racecraft/internal/queue"
	"github.com/iliyamo/racecraft/internal/router"
	"github.com/iliyamo/racecraft/internal/service"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	lg := logger.New(cfg.Env, cfg.LogLevel)

	db, err := database.Open(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		lg.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("failed to open database")
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.EnsureSchema(ctx, db); err != nil {
		lg.Fatal().Err(err).Msg("failed to apply schema")
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		lg.Warn().Msg("redis unavailable; cache, rate limit and idempotency disabled")
	} else {
		defer rdb.Close()
	}

	var pub queue.Publisher = queue.NopPublisher{}
	if cfg.QueueEnabled {
		pub = queue.NewAMQPPublisher(cfg.QueueURL, cfg.QueueName)
	}
	if cfg.ConsumerEnabled {
		go func() {
			err := queue.StartEntryConsumer(ctx, queue.ConsumerConfig{
				URL:     cfg.QueueURL,
				Queue:   cfg.QueueName,
				LogPath: cfg.EntryLogPath,
			}, lg)
			if err != nil && !errors.Is(err, context.Canceled) {
				lg.Error().Err(err).Msg("entry consumer stopped")
			}
		}()
	}

	clock := clockwork.NewRealClock()
	pay, err := payment.NewProvider(payment.Config{
		Provider: cfg.PaymentProvider,
		Secret:   cfg.PaymentSecret,
		TTL:      cfg.PaymentTTL,
	}, clock)
	if err != nil {
		lg.Fatal().Err(err).Msg("failed to configure payment provider")
	}

	e, err := router.New(router.Deps{
		Catalog:     service.NewCatalog(db, clock),
		Entries:     service.NewEntries(db, pay, pub, clock, lg),
		Clock:       clock,
		Log:         lg,
		Redis:       rdb,
		Cache:       config.LoadCacheConfig(),
		RateLimit:   config.LoadRateLimitConfig(),
		Idempotency: config.LoadIdempotencyConfig(),
	})
	if err != nil {
		lg.Fatal().Err(err).Msg("failed to build router")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.WithCORS(e, cfg.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		lg.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Str("db", cfg.DBDriver).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	lg.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error().Err(err).Msg("graceful shutdown failed")
	}
}
