package main

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/racecraft/internal/config"
	"github.com/iliyamo/racecraft/internal/database"
	"github.com/iliyamo/racecraft/internal/logger"
	"github.com/iliyamo/racecraft/internal/seed"
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
		lg.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := database.EnsureSchema(ctx, db); err != nil {
		lg.Fatal().Err(err).Msg("failed to apply schema")
	}
	sum, err := seed.Run(ctx, db, clockwork.NewRealClock())
	if err != nil {
		lg.Fatal().Err(err).Msg("seed failed")
	}
	lg.Info().
		Bool("organiser_created", sum.OrganiserCreated).
		Int("events_created", sum.EventsCreated).
		Int("events_skipped", sum.EventsSkipped).
		Int("races_created", sum.RacesCreated).
		Int("races_skipped", sum.RacesSkipped).
		Int("categories_created", sum.CategoriesCreated).
		Int("categories_skipped", sum.CategoriesSkipped).
		Msg("seed complete")
}
