package router

import (
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/dtroode/auth-server/internal/api/grpc/middleware"
	"github.com/dtroode/auth-server/internal/logger"
)

// Router represents the gRPC operations surface.
// It wires interceptors and registers the health service.
type Router struct {
	health *health.Server
	logger *logger.Logger
}

// New creates new gRPC Router instance serving healthServer.
func New(healthServer *health.Server, logger *logger.Logger) *Router {
	return &Router{health: healthServer, logger: logger}
}

// Register builds the gRPC server with recovery, request logging and
// tracing, and registers the health service on it.
func (r *Router) Register() *grpc.Server {
	logging := middleware.NewLogging(r.logger)
	recovery := middleware.NewRecovery(r.logger)

	s := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			recovery.Unary(),
			logging.Unary(),
		),
		grpc.ChainStreamInterceptor(
			recovery.Stream(),
			logging.Stream(),
		),
	)
	healthpb.RegisterHealthServer(s, r.health)

	return s
}
