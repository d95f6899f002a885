package main

import (
	"context"

	"github.com/rs/zerolog/log"

	"vetdir/internal/adapters/csvsource"
	"vetdir/internal/adapters/observability"
	"vetdir/internal/app"
	"vetdir/internal/shared"
	"vetdir/internal/storage/catalogfile"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	log.Info().
		Strs("sources", cfg.SourcePaths).
		Str("catalog", cfg.CatalogPath).
		Int("workers", cfg.Workers).
		Msg("builder starting")

	if len(cfg.SourcePaths) == 0 {
		log.Fatal().Msg("CSV_PATHS is empty")
	}

	src := csvsource.New(cfg.SourcePaths, cfg.Workers)
	store := catalogfile.New(cfg.CatalogPath)
	b := app.NewBuildService(src, store)

	stats, err := b.Run(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("build failed")
	}
	observability.ObserveBuildRows("ok", stats.Rows-stats.Skipped)
	observability.ObserveBuildRows("skipped", stats.Skipped)

	log.Info().
		Int("rows", stats.Rows).
		Int("skipped", stats.Skipped).
		Int("cities", stats.Cities).
		Int("items", stats.Items).
		Msg("catalog build completed")
}
