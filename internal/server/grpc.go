package server

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/swamys/hotfoods/internal/rpc"
)

// NewGRPCServer creates a gRPC server with standard interceptors and
// registers the StoreStatus service, health checks and reflection. Call
// health.Shutdown on the returned health server before stopping so checks
// report NOT_SERVING while connections drain, and Shutdown before
// GracefulStop so open WatchStatus streams end.
func (s *Server) NewGRPCServer() (*grpc.Server, *health.Server) {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			RecoveryInterceptor(s.logger),
			LoggingInterceptor(s.logger),
			AuthInterceptor(s.resolveToken, s.logger),
		),
		grpc.ChainStreamInterceptor(
			StreamRecoveryInterceptor(s.logger),
			StreamLoggingInterceptor(s.logger),
		),
	)

	rpc.RegisterStoreStatusServer(srv, &storeStatusRPC{srv: s})

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(rpc.StoreStatusService, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	return srv, hs
}
