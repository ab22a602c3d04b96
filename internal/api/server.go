package api

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"tourguide/internal/config"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const (
	healthProbeInterval = 15 * time.Second
	healthProbeTimeout  = 3 * time.Second
	shutdownGrace       = 10 * time.Second
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthProbe publishes the reachability of one dependency under its own health
// service name. Critical probes also drive the overall ("") status.
type HealthProbe struct {
	Service  string
	Check    Pinger
	Critical bool
}

// GRPCServer serves the standard gRPC health service fed by dependency probes.
type GRPCServer struct {
	server   *grpc.Server
	health   *health.Server
	probes   []HealthProbe
	listener net.Listener
	log      zerolog.Logger
	stop     chan struct{}
	stopOnce sync.Once
}

func NewGRPCServer(cfg config.APIConfig, probes []HealthProbe, logger *zerolog.Logger) (*GRPCServer, error) {
	addr := fmt.Sprintf(":%d", cfg.GRPC.Port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("grpc listen %s: %w", addr, err)
	}

	limiter := newRateLimiter(cfg.RateLimit, cfg.Auth.HeaderAPIKey)
	unary := ChainUnaryInterceptors(
		LoggingUnaryInterceptor(logger),
		limiter.Unary(),
	)

	serverOpts := []grpc.ServerOption{grpc.UnaryInterceptor(unary)}
	if cfg.GRPC.TLS.Enabled {
		tlsCfg, err := buildTLSConfig(cfg.GRPC.TLS)
		if err != nil {
			_ = lis.Close()
			return nil, err
		}
		serverOpts = append(serverOpts, grpc.Creds(credentials.NewTLS(tlsCfg)))
	}

	grpcServer := grpc.NewServer(serverOpts...)
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	if cfg.GRPC.Reflection {
		reflection.Register(grpcServer)
	}

	serverLogger := zerolog.Nop()
	if logger != nil {
		serverLogger = *logger
	}

	return &GRPCServer{
		server:   grpcServer,
		health:   healthServer,
		probes:   probes,
		listener: lis,
		log:      serverLogger,
		stop:     make(chan struct{}),
	}, nil
}

func buildTLSConfig(cfg config.APITLSConfig) (*tls.Config, error) {
	if cfg.CertFile == "" || cfg.KeyFile == "" {
		return nil, fmt.Errorf("grpc tls enabled but cert_file/key_file not set")
	}

	cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("load grpc tls keypair: %w", err)
	}

	tlsCfg := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}

	if cfg.RequireClientCert {
		if cfg.ClientCAFile == "" {
			return nil, fmt.Errorf("grpc tls require_client_cert=true but client_ca_file not set")
		}
		caPEM, err := os.ReadFile(cfg.ClientCAFile)
		if err != nil {
			return nil, fmt.Errorf("read client_ca_file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caPEM) {
			return nil, fmt.Errorf("failed to parse client_ca_file PEM")
		}
		tlsCfg.ClientAuth = tls.RequireAndVerifyClientCert
		tlsCfg.ClientCAs = pool
	}

	return tlsCfg, nil
}

func (s *GRPCServer) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// RefreshHealth runs every probe and publishes the per-service and overall statuses.
func (s *GRPCServer) RefreshHealth(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	overall := healthpb.HealthCheckResponse_SERVING
	for _, p := range s.probes {
		status := healthpb.HealthCheckResponse_SERVING
		if p.Check != nil {
			pingCtx, cancel := context.WithTimeout(ctx, healthProbeTimeout)
			err := p.Check.Ping(pingCtx)
			cancel()
			if err != nil {
				s.log.Warn().Err(err).Str("service", p.Service).Msg("Health probe failed")
				status = healthpb.HealthCheckResponse_NOT_SERVING
			}
		}
		if p.Service != "" {
			s.health.SetServingStatus(p.Service, status)
		}
		if p.Critical && status != healthpb.HealthCheckResponse_SERVING {
			overall = status
		}
	}
	s.health.SetServingStatus("", overall)
	return overall
}

// Serve blocks serving gRPC and probes dependencies until Shutdown.
func (s *GRPCServer) Serve() error {
	s.RefreshHealth(context.Background())
	go s.probe()

	s.log.Info().Str("addr", s.Addr()).Int("probes", len(s.probes)).Msg("gRPC health service listening")
	return s.server.Serve(s.listener)
}

func (s *GRPCServer) probe() {
	ticker := time.NewTicker(healthProbeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.RefreshHealth(context.Background())
		}
	}
}

// Shutdown stops probing and drains in-flight calls, forcing a stop when ctx
// expires or the grace period runs out.
func (s *GRPCServer) Shutdown(ctx context.Context) {
	if s.server == nil {
		return
	}
	s.stopOnce.Do(func() {
		close(s.stop)
		s.health.Shutdown()
	})

	done := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(done)
	}()

	timer := time.NewTimer(shutdownGrace)
	defer timer.Stop()
	select {
	case <-done:
	case <-ctx.Done():
		s.log.Warn().Msg("gRPC shutdown deadline reached, forcing stop")
		s.server.Stop()
	case <-timer.C:
		s.log.Warn().Msg("gRPC shutdown grace period elapsed, forcing stop")
		s.server.Stop()
	}
}
