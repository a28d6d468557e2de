// Package server provides gRPC server lifecycle management.
package server

import (
	"context"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/Hollywood0805/Validation-engine-Backend/internal/core/api"
	"github.com/Hollywood0805/Validation-engine-Backend/internal/core/auth"
	"github.com/Hollywood0805/Validation-engine-Backend/internal/core/config"
	"github.com/Hollywood0805/Validation-engine-Backend/internal/metrics"
)

// shutdownTimeout bounds GracefulStop before connections are cut.
const shutdownTimeout = 30 * time.Second

// GRPCServer manages gRPC server lifecycle.
type GRPCServer struct {
	server *grpc.Server
	health *health.Server
	config *config.ServerConfig
}

// NewGRPCServer creates gRPC server with logging and auth interceptors and
// registers the validation and health services. authenticator may be nil
// only when cfg.RequireAuth is false. m may be nil.
func NewGRPCServer(cfg *config.ServerConfig, service api.ValidationServer, authenticator *auth.Authenticator, logger *zap.Logger, m metrics.Metrics) (*GRPCServer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("cfg cannot be nil")
	}
	if service == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}
	if authenticator == nil && cfg.RequireAuth {
		return nil, fmt.Errorf("authenticator cannot be nil when authentication is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	// Logging runs first so rejected calls are logged too
	unary := []grpc.UnaryServerInterceptor{unaryLoggingInterceptor(logger, m)}
	stream := []grpc.StreamServerInterceptor{streamLoggingInterceptor(logger, m)}
	if authenticator != nil {
		unary = append(unary, authenticator.UnaryInterceptor())
		stream = append(stream, authenticator.StreamInterceptor())
	}

	server := grpc.NewServer(
		grpc.ChainUnaryInterceptor(unary...),
		grpc.ChainStreamInterceptor(stream...),
	)
	api.RegisterValidationServer(server, service)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(server, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(api.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	return &GRPCServer{
		server: server,
		health: healthServer,
		config: cfg,
	}, nil
}

// Start binds the configured address and serves until Shutdown.
func (s *GRPCServer) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.config.Host, fmt.Sprint(s.config.Port))
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", addr, err)
	}
	return s.Serve(listener)
}

// Serve serves on an existing listener. Blocks until Shutdown.
func (s *GRPCServer) Serve(listener net.Listener) error {
	return s.server.Serve(listener)
}

// Shutdown marks the server not serving and stops it gracefully, forcing
// the stop when ctx ends or the timeout passes.
func (s *GRPCServer) Shutdown(ctx context.Context) error {
	s.health.Shutdown()

	stopped := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(stopped)
	}()

	timer := time.NewTimer(shutdownTimeout)
	defer timer.Stop()

	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		s.server.Stop()
		<-stopped
		return fmt.Errorf("shutdown cancelled by context: %w", ctx.Err())
	case <-timer.C:
		s.server.Stop()
		<-stopped
		return fmt.Errorf("graceful shutdown timeout, forced stop")
	}
}
