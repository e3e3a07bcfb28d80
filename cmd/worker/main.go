package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"orgconsole/internal/pkg/logger"
	"orgconsole/internal/platform/config"
	"orgconsole/internal/platform/database"
	"orgconsole/internal/platform/repositories"
	"orgconsole/internal/workers"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")
	once := flag.Bool("once", false, "Run a single reconciliation pass and exit")
	metricsAddr := flag.String("metrics-addr", ":9091", "Address serving the reconciliation gauges")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logger.Init(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	reconciler := workers.NewReconciler(repositories.NewStore(db), logger.Component("worker"))
	if *once {
		if _, err := reconciler.Reconcile(ctx); err != nil {
			log.Fatal().Err(err).Msg("reconciliation failed")
		}
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{Addr: *metricsAddr, Handler: mux}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics listener failed")
		}
	}()
	defer metricsSrv.Close()

	log.Info().Dur("interval", cfg.Worker.ReconcileInterval).Msg("starting reconciliation worker")
	reconciler.Run(ctx, cfg.Worker.ReconcileInterval)
}
