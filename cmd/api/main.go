package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tourguide/internal/api"
	"tourguide/internal/config"
	"tourguide/internal/database"
	"tourguide/internal/domain"
	"tourguide/internal/events"
	"tourguide/internal/logging"
	"tourguide/internal/metrics"
	"tourguide/internal/repository"
	"tourguide/internal/service"
	"tourguide/internal/weather"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	db, err := database.Open(cfg.Database, logger)
	if err != nil {
		logger.Error().Err(err).Str("driver", cfg.Database.Driver).Msg("init database")
		return err
	}
	defer db.Close()

	redisClient := initRedis(cfg, logger)
	if redisClient != nil {
		defer func() { _ = repository.Close(redisClient) }()
	}
	cache := initCache(redisClient, logger)

	bus := events.NewEventBus()
	events.RegisterMetrics(bus, logging.Component(logger, "audit"))

	svc := buildServices(cfg, db, cache, bus, logger)
	if err := syncWilayas(cfg, svc.Locations, logger); err != nil {
		return err
	}

	var grpcServer *api.GRPCServer
	if cfg.API.GRPC.Enabled {
		grpcServer, err = api.NewGRPCServer(cfg.API, healthProbes(db, redisClient), logging.Component(logger, "grpc"))
		if err != nil {
			logger.Error().Err(err).Msg("create grpc server")
			return err
		}
	}

	httpServer := api.NewHTTPServer(cfg.API, svc, logging.Component(logger, "http"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startMetrics(ctx, cfg, logger)

	return startServers(ctx, grpcServer, httpServer, cfg, logger)
}

func loadConfigAndLogger() (*config.Config, *zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logging.Component(baseLogger, "api-main"), closer, nil
}

// healthProbes reports the database as critical and Redis, when configured, as
// informational since the memory cache takes over on failure.
func healthProbes(db *database.DB, client *redis.Client) []api.HealthProbe {
	probes := []api.HealthProbe{{Service: "tourguide.database", Check: db, Critical: true}}
	if client != nil {
		probes = append(probes, api.HealthProbe{
			Service: "tourguide.cache",
			Check:   api.PingFunc(func(ctx context.Context) error { return repository.Ping(ctx, client) }),
		})
	}
	return probes
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	client := repository.NewRedisClient(cfg.Redis)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := repository.Ping(ctx, client); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing with in-memory cache")
		_ = client.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return client
}

// initCache prefers Redis and falls back to process memory when it is unavailable.
func initCache(client *redis.Client, logger *zerolog.Logger) domain.Cache {
	memory := repository.NewMemoryCache()
	if client == nil {
		return memory
	}
	return repository.NewFailoverCache(repository.NewRedisCache(client), memory, logging.Component(logger, "cache"))
}

func buildServices(cfg *config.Config, db *database.DB, cache domain.Cache, bus *events.EventBus, logger *zerolog.Logger) api.Services {
	loc := cfg.App.Location()
	currency := cfg.App.Currency

	var forecasts domain.WeatherProvider
	if cfg.Weather.APIKey != "" {
		forecasts = weather.NewClient(cfg.Weather, cache, loc, logging.Component(logger, "weather"))
	} else {
		logger.Warn().Msg("weather api_key is not set, forecasts disabled")
	}

	svcLogger := logging.Component(logger, "service")
	return api.Services{
		Accounts:  service.NewAccountService(db, svcLogger),
		Locations: service.NewLocationService(db, db, db, svcLogger),
		Profiles:  service.NewProfileService(db, db, currency, loc, svcLogger),
		Tours:     service.NewTourService(db, db, db, db, forecasts, currency, cfg.Bookings.MinCancelDays, loc, svcLogger),
		Bookings:  service.NewBookingService(db, db, bus, cfg.Bookings, cfg.Exports, currency, loc, svcLogger),
		Reviews:   service.NewReviewService(db, db, bus, loc, svcLogger),
		Messaging: service.NewMessagingService(db, db, cache, bus, cfg.Messaging, loc, svcLogger),
		Store:     db,
	}
}

func syncWilayas(cfg *config.Config, locations *service.LocationService, logger *zerolog.Logger) error {
	if cfg.WilayasPath == "" {
		return nil
	}
	wilayas, err := database.LoadWilayasFile(cfg.WilayasPath)
	if err != nil {
		logger.Error().Err(err).Str("wilayas_path", cfg.WilayasPath).Msg("load wilayas")
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return locations.Sync(ctx, wilayas)
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startServers(
	ctx context.Context,
	grpcServer *api.GRPCServer,
	httpServer *api.HTTPServer,
	cfg *config.Config,
	logger *zerolog.Logger,
) error {
	if grpcServer != nil {
		go func() {
			if err := grpcServer.Serve(); err != nil {
				logger.Error().Err(err).Msg("grpc server stopped")
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start()
	}()

	logger.Info().Int("http_port", cfg.API.HTTP.Port).Bool("grpc", grpcServer != nil).Msg("API server started")

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case runErr = <-errCh:
		logger.Error().Err(runErr).Msg("http server stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if grpcServer != nil {
		grpcServer.Shutdown(shutdownCtx)
	}
	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("API server stopped")
	return runErr
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
