package handler

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"tempiaops/internal/logger"
	"tempiaops/internal/respond"
)

const readinessTimeout = 2 * time.Second

// Check reports whether one dependency is usable.
type Check struct {
	Name  string
	Probe func(ctx context.Context) error
}

type HealthHandler struct {
	checks []Check
}

func NewHealthHandler(checks ...Check) *HealthHandler {
	return &HealthHandler{checks: checks}
}

func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness runs every check and answers 503 when any of them fails.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	results, ok := h.Run(r.Context())
	if !ok {
		respond.JSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "checks": results})
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"status": "ready", "checks": results})
}

// Run probes every dependency. The map holds "ok" or the failure message.
func (h *HealthHandler) Run(ctx context.Context) (map[string]string, bool) {
	ctx, cancel := context.WithTimeout(ctx, readinessTimeout)
	defer cancel()

	results := make(map[string]string, len(h.checks))
	ok := true
	for _, c := range h.checks {
		if err := c.Probe(ctx); err != nil {
			logger.L().Warn("readiness check failed", zap.String("check", c.Name), zap.Error(err))
			results[c.Name] = err.Error()
			ok = false
			continue
		}
		results[c.Name] = "ok"
	}
	return results, ok
}
