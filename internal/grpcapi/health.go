// Package grpcapi exposes the standard gRPC health service, reporting
// SERVING only while the database answers.
package grpcapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/BrandonDHaskell/huella/internal/logger"
)

// ServiceName is reported alongside the overall ("") status.
const ServiceName = "huella.v1.Enrollment"

type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
	pinger     Pinger
	log        *zap.SugaredLogger
	interval   time.Duration
}

func New(pinger Pinger, log *zap.SugaredLogger, interval time.Duration) *Server {
	if log == nil {
		log = logger.Nop()
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}

	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	healthServer.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	return &Server{
		grpcServer: grpcServer,
		health:     healthServer,
		pinger:     pinger,
		log:        log,
		interval:   interval,
	}
}

// Check pings the database once and publishes the result.
func (s *Server) Check(ctx context.Context) grpc_health_v1.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	status := grpc_health_v1.HealthCheckResponse_SERVING
	if err := s.pinger.Ping(ctx); err != nil {
		s.log.Warnw("health check failed", "error", err)
		status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
	return status
}

// Serve runs the gRPC server on lis until ctx is cancelled, re-checking the
// database every interval.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	s.Check(ctx)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.grpcServer.Serve(lis)
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Infow("grpc health listening", "addr", lis.Addr().String())
	for {
		select {
		case <-ctx.Done():
			s.health.Shutdown()
			s.grpcServer.GracefulStop()
			err := <-serveErr
			if err == nil || errors.Is(err, grpc.ErrServerStopped) {
				return nil
			}
			return fmt.Errorf("serve gRPC: %w", err)
		case err := <-serveErr:
			if err == nil || errors.Is(err, grpc.ErrServerStopped) {
				return nil
			}
			return fmt.Errorf("serve gRPC: %w", err)
		case <-ticker.C:
			s.Check(ctx)
		}
	}
}
