package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/UnknownOlympus/roster/internal/client/backend"
	"github.com/UnknownOlympus/roster/internal/config"
	"github.com/UnknownOlympus/roster/internal/i18n"
	"github.com/UnknownOlympus/roster/internal/metrics"
	"github.com/UnknownOlympus/roster/internal/panel"
	"github.com/UnknownOlympus/roster/internal/server"
	"github.com/UnknownOlympus/roster/internal/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web panel and the monitoring server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	// Load application configuration.
	cfg := config.MustLoad()

	// Set up the logger based on the environment.
	logger := setupLogger(cfg.Env)

	// Create a separate registry for metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(reg)

	client, err := backend.NewClient(cfg.Backend.URL, cfg.Backend.Timeout, appMetrics)
	if err != nil {
		return err
	}

	store, closeStore, err := newSessionStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()
	sessions := session.NewInstrumentedStore(store, appMetrics)

	localizer, err := i18n.NewLocalizer()
	if err != nil {
		return fmt.Errorf("failed to load translations: %w", err)
	}

	webPanel, err := panel.New(panel.Config{
		Addr:           cfg.Panel.Addr,
		CookieName:     cfg.Session.Cookie,
		CookieSecure:   cfg.Session.Secure,
		SessionTTL:     cfg.Session.TTL,
		MaxUploadBytes: cfg.Upload.MaxBytes,
		ReadTimeout:    cfg.Backend.Timeout,
		WriteTimeout:   2 * cfg.Backend.Timeout,
	}, logger, client, sessions, localizer, appMetrics)
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "Application started. Press Ctrl+C to stop.",
		"backend", client.Origin(), "session_store", cfg.Session.Store)

	// Start the monitoring server
	health := server.NewHealthChecker(logger, client, sessions)
	go server.StartMonitoringServer(ctx, logger, reg, cfg.Monitoring.Port, health)

	err = webPanel.Run(ctx)

	logger.InfoContext(ctx, "Application stopped gracefully.")
	return err
}

func newSessionStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (session.Store, func(), error) {
	switch cfg.Session.Store {
	case config.StoreRedis:
		store, err := session.NewRedisStore(ctx, cfg.Redis.Addr)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			if closeErr := store.Close(); closeErr != nil {
				logger.WarnContext(ctx, "Failed to close redis session store", "error", closeErr)
			}
		}, nil
	case config.StoreMemory:
		return session.NewMemoryStore(), func() {}, nil
	default:
		return nil, nil, errors.New("unknown session store: " + cfg.Session.Store)
	}
}
