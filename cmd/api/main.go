package main

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	server "vetdir/internal/adapters/http_server"
	"vetdir/internal/adapters/observability"
	redisad "vetdir/internal/adapters/redis"
	"vetdir/internal/app"
	"vetdir/internal/shared"
	"vetdir/internal/storage/catalogfile"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	// catalog artifact: loaded once, read-only from here on
	store := catalogfile.New(cfg.CatalogPath)
	cat, err := store.Load(context.Background())
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.CatalogPath).Msg("catalog load failed")
	}
	log.Info().Int("cities", len(cat.Cities)).Int("items", len(cat.AllItems)).Msg("catalog loaded")

	// deps
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	q := app.NewQueryService(&cat, cache, cfg.CacheTTL)

	// http
	srv := server.New(cfg.RateLimitRPS)
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Q: q})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
