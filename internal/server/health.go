package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
)

// Pinger is any dependency that can report its reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthChecker struct {
	backend  Pinger
	sessions Pinger
	log      *slog.Logger
}

func NewHealthChecker(log *slog.Logger, backend, sessions Pinger) *HealthChecker {
	return &HealthChecker{
		backend:  backend,
		sessions: sessions,
		log:      log,
	}
}

func (h *HealthChecker) ServeHTTP(writer http.ResponseWriter, req *http.Request) {
	h.log.DebugContext(req.Context(), "Performing health checks...")

	var err error
	status := make(map[string]string)
	overallStatus := http.StatusOK

	if err = h.backend.Ping(req.Context()); err != nil {
		status["backend"] = "unreachable"
		overallStatus = http.StatusServiceUnavailable
		h.log.WarnContext(req.Context(), "Health check failed: backend unreachable", "error", err)
	} else {
		status["backend"] = "ok"
	}

	if err = h.sessions.Ping(req.Context()); err != nil {
		status["sessions"] = "unavailable"
		overallStatus = http.StatusServiceUnavailable
		h.log.WarnContext(req.Context(), "Health check failed: session store ping", "error", err)
	} else {
		status["sessions"] = "ok"
	}

	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(overallStatus)
	if err = json.NewEncoder(writer).Encode(status); err != nil {
		h.log.ErrorContext(req.Context(), "Failed to write health check response", "error", err)
	}

	h.log.DebugContext(req.Context(), "Health checks completed", "status", overallStatus)
}
