package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bsenturk/country-cache/internal/api"
	"github.com/bsenturk/country-cache/internal/config"
	"github.com/bsenturk/country-cache/internal/db"
	"github.com/bsenturk/country-cache/internal/logger"
	"github.com/bsenturk/country-cache/internal/metrics"
	"github.com/bsenturk/country-cache/internal/repository/postgres"
	"github.com/bsenturk/country-cache/internal/services"
	"github.com/bsenturk/country-cache/internal/sources/openexchange"
	"github.com/bsenturk/country-cache/internal/sources/restcountries"
	"github.com/bsenturk/country-cache/internal/summary"
	"github.com/bsenturk/country-cache/internal/worker"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect", "err", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	if os.Getenv("APP_MIGRATE") == "true" {
		if err := db.RunMigrations(ctx, dbPool); err != nil {
			log.Error("migrations", "err", err)
			os.Exit(1)
		}
	}

	repos := postgres.NewRepositories(dbPool)
	wp := worker.NewPool(4)
	defer wp.Stop()

	renderer := summary.NewRenderer(repos.Countries, wp, cfg.SummaryImagePath)
	countriesSrc := restcountries.New(restcountries.Config{URL: cfg.CountriesURL, Timeout: cfg.SourceTimeout})
	ratesSrc := openexchange.New(openexchange.Config{URL: cfg.RatesURL, Timeout: cfg.SourceTimeout})

	refreshSvc := services.NewRefreshService(countriesSrc, ratesSrc, repos.Countries, renderer)
	countrySvc := services.NewCountryService(repos.Countries)

	metrics.Init()
	r := api.NewRouter(cfg, countrySvc, refreshSvc)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server", "err", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
