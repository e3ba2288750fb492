package derivesvc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

// Server hosts the derive service and the standard health service.
type Server struct {
	listener        net.Listener
	grpcServer      *grpc.Server
	health          *health.Server
	logger          *zap.Logger
	shutdownTimeout time.Duration
}

// NewServer listens on addr and registers svc.
//
// Precondition: svc and logger are non-nil.
// Postcondition: Both the overall health status and ServiceName report SERVING.
func NewServer(addr string, svc DeriveServiceServer, shutdownTimeout time.Duration, logger *zap.Logger) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	RegisterDeriveServiceServer(grpcServer, svc)
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	return &Server{
		listener:        listener,
		grpcServer:      grpcServer,
		health:          healthServer,
		logger:          logger,
		shutdownTimeout: shutdownTimeout,
	}, nil
}

// Addr returns the listener address.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Start serves until Stop is called.
func (s *Server) Start() error {
	s.logger.Info("derive service listening", zap.String("addr", s.Addr()))
	err := s.grpcServer.Serve(s.listener)
	if err == nil || errors.Is(err, grpc.ErrServerStopped) {
		return nil
	}
	return fmt.Errorf("serve gRPC: %w", err)
}

// Stop marks the server NOT_SERVING and drains in-flight calls. Calls still
// running after the shutdown timeout are cancelled.
func (s *Server) Stop() {
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(done)
	}()

	var timeout <-chan time.Time
	if s.shutdownTimeout > 0 {
		timer := time.NewTimer(s.shutdownTimeout)
		defer timer.Stop()
		timeout = timer.C
	}
	select {
	case <-done:
	case <-timeout:
		s.logger.Warn("graceful stop timed out; closing open connections",
			zap.Duration("timeout", s.shutdownTimeout),
		)
		s.grpcServer.Stop()
		<-done
	}
}

// Serve runs the server until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.Start()
	}()

	select {
	case <-ctx.Done():
		s.Stop()
		return <-serveErr
	case err := <-serveErr:
		return err
	}
}
