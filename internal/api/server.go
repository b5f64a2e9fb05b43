// Package api exposes the review analysis over gRPC.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/miradorstack/review-intel/internal/config"
)

const defaultMaxMessageBytes = 16 << 20

// Server owns the listener, the gRPC server and its health service.
type Server struct {
	cfg        config.ServerConfig
	logger     *slog.Logger
	grpcServer *grpc.Server
	health     *health.Server
	listener   net.Listener
}

// NewServer listens on cfg.Address and registers the analysis service with
// health, reflection and Prometheus interceptors.
func NewServer(logger *slog.Logger, cfg config.ServerConfig, service ReviewIntelligenceServer, opts ...grpc.ServerOption) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	lis, err := net.Listen("tcp", cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", cfg.Address, err)
	}

	maxBytes := cfg.MaxMessageBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxMessageBytes
	}

	grpc_prometheus.EnableHandlingTimeHistogram()
	serverOpts := []grpc.ServerOption{
		grpc.MaxRecvMsgSize(maxBytes),
		grpc.MaxSendMsgSize(maxBytes),
		grpc.ChainUnaryInterceptor(grpc_prometheus.UnaryServerInterceptor, logUnary(logger)),
	}
	grpcServer := grpc.NewServer(append(serverOpts, opts...)...)

	RegisterReviewIntelligenceServer(grpcServer, service)
	grpc_prometheus.Register(grpcServer)

	healthSrv := health.NewServer()
	for _, name := range []string{"", ServiceDesc.ServiceName} {
		healthSrv.SetServingStatus(name, healthpb.HealthCheckResponse_SERVING)
	}
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	reflection.Register(grpcServer)

	return &Server{
		cfg:        cfg,
		logger:     logger,
		grpcServer: grpcServer,
		health:     healthSrv,
		listener:   lis,
	}, nil
}

// Start blocks serving requests. It returns nil once Shutdown has stopped the server.
func (s *Server) Start() error {
	s.logger.Info("gRPC server listening", slog.String("address", s.Address()))
	if err := s.grpcServer.Serve(s.listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// Shutdown marks the service NOT_SERVING, drains in-flight calls and stops
// hard once ctx ends.
func (s *Server) Shutdown(ctx context.Context) {
	s.health.Shutdown()

	stopped := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(stopped)
	}()

	select {
	case <-ctx.Done():
		s.logger.Warn("graceful stop timed out, closing open calls")
		s.grpcServer.Stop()
		<-stopped
	case <-stopped:
	}
}

// Address is the bound listener address.
func (s *Server) Address() string {
	return s.listener.Addr().String()
}

// GracefulTimeout is how long Shutdown should be given to drain.
func (s *Server) GracefulTimeout() time.Duration {
	return s.cfg.GracefulTimeout
}

func logUnary(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		level := slog.LevelDebug
		if err != nil {
			level = slog.LevelWarn
		}
		logger.Log(ctx, level, "rpc finished",
			slog.String("method", info.FullMethod),
			slog.String("code", status.Code(err).String()),
			slog.Duration("elapsed", time.Since(start)))
		return resp, err
	}
}
