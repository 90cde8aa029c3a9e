package grpc

import (
	"context"
	"time"

	"lendahand-backend/internal/logger"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service name reported for the API.
const ServiceName = "lendahand.api"

// Check reports whether a dependency is usable.
type Check func(ctx context.Context) error

// HealthReporter keeps the gRPC health status in step with the dependency checks.
type HealthReporter struct {
	server *health.Server
	checks map[string]Check
}

func NewHealthReporter(checks map[string]Check) *HealthReporter {
	return &HealthReporter{server: health.NewServer(), checks: checks}
}

func (h *HealthReporter) Server() *health.Server {
	return h.server
}

// Refresh runs every check once and publishes the combined status.
func (h *HealthReporter) Refresh(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			logger.Warn("Health check failed", "check", name, "error", err)
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	h.server.SetServingStatus("", status)
	h.server.SetServingStatus(ServiceName, status)
	return status
}

// Run refreshes the status every interval until ctx is done, then marks
// the server as shutting down.
func (h *HealthReporter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	h.refreshWithTimeout(ctx, interval)
	for {
		select {
		case <-ctx.Done():
			h.server.Shutdown()
			return
		case <-ticker.C:
			h.refreshWithTimeout(ctx, interval)
		}
	}
}

func (h *HealthReporter) refreshWithTimeout(ctx context.Context, timeout time.Duration) {
	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	h.Refresh(checkCtx)
}
