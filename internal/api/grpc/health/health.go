// Package health reports service readiness over the standard gRPC health
// protocol. Status follows the database: SERVING while it answers pings.
package health

import (
	"context"
	"time"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/dtroode/auth-server/internal/logger"
)

// ServiceName is the health entry for the account API.
const ServiceName = "auth.Users"

const pingTimeout = 2 * time.Second

// Pinger is the database liveness check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Watcher polls the database and updates the health server.
type Watcher struct {
	server   *health.Server
	db       Pinger
	interval time.Duration
	logger   *logger.Logger
	serving  bool
}

// NewWatcher creates a Watcher. Both the overall and the ServiceName entry
// start as NOT_SERVING until the first successful ping.
func NewWatcher(server *health.Server, db Pinger, interval time.Duration, logger *logger.Logger) *Watcher {
	server.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	server.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return &Watcher{server: server, db: db, interval: interval, logger: logger}
}

// Check pings the database once and publishes the result.
func (w *Watcher) Check(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	err := w.db.Ping(pingCtx)
	serving := err == nil

	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	w.server.SetServingStatus("", status)
	w.server.SetServingStatus(ServiceName, status)

	if serving != w.serving {
		if err != nil {
			w.logger.Warn("Health: database unreachable", "error", err.Error())
		} else {
			w.logger.Info("Health: database reachable")
		}
	}
	w.serving = serving
}

// Run checks immediately and then on every tick. On exit every entry is
// marked NOT_SERVING.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			w.server.Shutdown()
			return
		case <-ticker.C:
			w.Check(ctx)
		}
	}
}
