package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewMonitoringHandler routes /healthz and /metrics.
func NewMonitoringHandler(reg *prometheus.Registry, health http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/healthz", health)
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return mux
}

// StartMonitoringServer starts an HTTP server that provides health check and metrics endpoints.
// It blocks until ctx is cancelled or the listener fails.
//
// Parameters:
// - ctx: A context.Context for managing cancellation and timeouts.
// - log: A logger for logging server events and errors.
// - reg: A registry with Prometheus collectors.
// - port: The port number on which the server will listen.
// - health: The /healthz handler.
func StartMonitoringServer(
	ctx context.Context,
	log *slog.Logger,
	reg *prometheus.Registry,
	port int,
	health http.Handler,
) {
	log.InfoContext(ctx, "Starting monitoring server", "port", port)

	readTimeout := 5
	writeTimeout := 10
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      NewMonitoringHandler(reg, health),
		ReadTimeout:  time.Duration(readTimeout) * time.Second,
		WriteTimeout: time.Duration(writeTimeout) * time.Second,
	}

	var err error
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(readTimeout)*time.Second)
		defer cancel()
		log.InfoContext(ctx, "Monitoring server shutting down.")
		if err = server.Shutdown(shutdownCtx); err != nil {
			log.ErrorContext(ctx, "Monitoring server failed to shutdown", "error", err)
			return
		}
	case err = <-serverErr:
		log.ErrorContext(ctx, "Monitoring server failed", "error", err)
	}
}
