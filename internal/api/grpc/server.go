package grpc

import (
	"lendahand-backend/internal/api/grpc/interceptor"

	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// NewServer builds the gRPC server that exposes health and reflection.
func NewServer(reporter *HealthReporter) *grpc.Server {
	s := grpc.NewServer(
		grpc.UnaryInterceptor(interceptor.NewLoggingInterceptor().Unary()),
	)
	healthpb.RegisterHealthServer(s, reporter.Server())

	// Register reflection service for grpcurl
	reflection.Register(s)
	return s
}
