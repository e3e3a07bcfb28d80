package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"orgconsole/internal/api"
	"orgconsole/internal/api/handlers"
	"orgconsole/internal/api/middleware"
	"orgconsole/internal/engine/access"
	"orgconsole/internal/engine/membership"
	"orgconsole/internal/engine/provisioning"
	"orgconsole/internal/engine/tenancy"
	"orgconsole/internal/engine/webhooks"
	"orgconsole/internal/pkg/logger"
	"orgconsole/internal/platform/audit"
	"orgconsole/internal/platform/auth"
	"orgconsole/internal/platform/config"
	"orgconsole/internal/platform/database"
	"orgconsole/internal/platform/identity"
	"orgconsole/internal/platform/repositories"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")
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

	// Stores
	store := repositories.NewStore(db)
	idp := identity.NewLocal(db)
	auditLog := audit.NewLogger(db, logger.Component("audit"))
	hooks := webhooks.NewDispatcher(webhookEndpoints(cfg.Webhooks), logger.Component("webhooks"),
		webhooks.WithClient(&http.Client{Timeout: cfg.Webhooks.Timeout}),
		webhooks.WithRetry(cfg.Webhooks.MaxAttempts, cfg.Webhooks.Backoff))
	auditor := tenancy.MultiAuditor{auditLog, hooks}

	// Engine
	resolver := access.NewResolver(store, idp, logger.Component("api"))
	members := membership.NewService(store, idp, auditor, logger.Component("api"),
		membership.WithFetchConcurrency(cfg.Directory.MemberFetchConcurrency))
	provisioner := provisioning.NewProvisioner(store, idp, auditor, logger.Component("api"))
	tokenSvc := auth.NewTokenService(cfg.JWT)

	deps := &api.Dependencies{
		SignupHandler:    handlers.NewSignupHandler(provisioner, resolver, members, tokenSvc),
		AuthHandler:      handlers.NewAuthHandler(resolver, tokenSvc, idp),
		MeHandler:        handlers.NewMeHandler(resolver, tokenSvc),
		AdminHandler:     handlers.NewAdminHandler(members),
		AuditHandler:     handlers.NewAuditHandler(auditLog),
		HealthHandler:    handlers.NewHealthHandler(db),
		MetricsHandler:   handlers.NewMetricsHandler(),
		AuthMiddleware:   middleware.NewAuthMiddleware(tokenSvc, idp),
		AccessMiddleware: middleware.NewAccessMiddleware(resolver),
		RateLimiter:      middleware.NewRateLimiter(ctx),
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.NewRouter(deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("graceful shutdown failed")
		}
	}()

	log.Info().Str("addr", srv.Addr).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server failed")
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), cfg.Webhooks.Timeout)
	defer cancel()
	if err := hooks.Wait(drainCtx); err != nil {
		log.Warn().Err(err).Msg("webhook deliveries still in flight")
	}
	log.Info().Msg("server stopped")
}

func webhookEndpoints(cfg config.WebhooksConfig) []webhooks.Endpoint {
	endpoints := make([]webhooks.Endpoint, 0, len(cfg.Endpoints))
	for _, ep := range cfg.Endpoints {
		endpoints = append(endpoints, webhooks.Endpoint{URL: ep.URL, Secret: ep.Secret, Events: ep.Events})
	}
	return endpoints
}
