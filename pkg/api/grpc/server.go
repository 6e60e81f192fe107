// Package grpc hosts the gRPC health and reflection surface for the
// engine: no generated QueryService stubs exist anywhere in the
// retrieval pack this repo was built from, so the RPC surface for
// ExecuteQuery/ComputeDistance lives over REST instead (pkg/api/rest);
// this package carries only what ships with real, pre-compiled gRPC
// subpackages (see DESIGN.md "Decision: gRPC scope").
package grpc

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/zvecdb/zvec-core/pkg/config"
	"github.com/zvecdb/zvec-core/pkg/observability"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"
)

// Server hosts the health-check and reflection RPCs over the same
// host:port conventions the teacher's full VectorDB gRPC server used.
type Server struct {
	config     *config.Config
	grpcServer *grpc.Server
	health     *health.Server
	listener   net.Listener
	startTime  time.Time
	shutdownMu sync.Mutex
	isShutdown bool
}

// NewServer creates a new gRPC health/reflection server.
func NewServer(cfg *config.Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &Server{
		config:    cfg,
		health:    health.NewServer(),
		startTime: time.Now(),
	}, nil
}

// SetServing marks service (empty string = overall server status) as
// SERVING or NOT_SERVING, for callers that want to gate health on
// whether a tenant namespace has finished initializing.
func (s *Server) SetServing(service string, serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(service, status)
}

// Start starts the gRPC server.
func (s *Server) Start() error {
	var opts []grpc.ServerOption

	if s.config.Server.EnableTLS {
		cert, err := tls.LoadX509KeyPair(s.config.Server.CertFile, s.config.Server.KeyFile)
		if err != nil {
			return fmt.Errorf("failed to load TLS certificates: %w", err)
		}
		tlsConfig := &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		}
		creds := credentials.NewTLS(tlsConfig)
		opts = append(opts, grpc.Creds(creds))
		observability.Info("TLS enabled")
	}

	kaParams := keepalive.ServerParameters{
		MaxConnectionIdle: 15 * time.Second,
		MaxConnectionAge:  30 * time.Second,
		Time:              5 * time.Second,
		Timeout:           1 * time.Second,
	}
	opts = append(opts, grpc.KeepaliveParams(kaParams))
	opts = append(opts, grpc.MaxConcurrentStreams(uint32(s.config.Server.MaxConnections)))

	s.grpcServer = grpc.NewServer(opts...)
	healthpb.RegisterHealthServer(s.grpcServer, s.health)
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	reflection.Register(s.grpcServer)

	addr := s.config.Server.Address()
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener

	observability.Infof("gRPC health/reflection server listening on %s", addr)

	go func() {
		if err := s.grpcServer.Serve(listener); err != nil {
			observability.Errorf("gRPC server error: %v", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	s.shutdownMu.Lock()
	defer s.shutdownMu.Unlock()

	if s.isShutdown {
		return nil
	}

	observability.Info("Shutting down gRPC server...")

	s.health.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	stopped := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
		observability.Info("gRPC server stopped gracefully")
	case <-ctx.Done():
		observability.Warn("Shutdown timeout exceeded, forcing stop")
		s.grpcServer.Stop()
	}

	s.isShutdown = true
	return nil
}

// Uptime returns server uptime.
func (s *Server) Uptime() time.Duration {
	return time.Since(s.startTime)
}
