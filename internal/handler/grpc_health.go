package handler

import (
	"context"
	"time"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const healthPollInterval = 15 * time.Second

// ServingStatus keeps the gRPC health service in step with the readiness
// checks until ctx is cancelled.
func ServingStatus(ctx context.Context, srv *health.Server, h *HealthHandler) {
	update := func() {
		status := healthpb.HealthCheckResponse_SERVING
		if _, ok := h.Run(ctx); !ok {
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
		srv.SetServingStatus("", status)
	}

	update()
	ticker := time.NewTicker(healthPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			srv.Shutdown()
			return
		case <-ticker.C:
			update()
		}
	}
}
