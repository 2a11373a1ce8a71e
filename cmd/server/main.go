package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"trip-scheduler-service/internal/adapters/cache"
	"trip-scheduler-service/internal/adapters/distance"
	"trip-scheduler-service/internal/adapters/messaging"
	"trip-scheduler-service/internal/adapters/repositories"
	"trip-scheduler-service/internal/api"
	"trip-scheduler-service/internal/api/handlers"
	"trip-scheduler-service/internal/config"
	"trip-scheduler-service/internal/platform/db"
	"trip-scheduler-service/internal/platform/logger"
	"trip-scheduler-service/internal/platform/tracing"
	"trip-scheduler-service/internal/ports"
	"trip-scheduler-service/internal/services"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const serviceName = "trip-scheduler-service"

// main is the application composition root.
// It wires concrete adapters (Postgres, Redis, RabbitMQ, ORS) behind ports and starts the HTTP server.
func main() {
	_ = godotenv.Load()

	cfg := config.MustLoad()
	log := logger.New(cfg.Env, cfg.Log.Level)
	defer func() {
		_ = log.Sync()
	}()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(serviceName, cfg.Tracing.Jaeger)
		if err != nil {
			return err
		}
		defer func() {
			_ = tp.Shutdown(context.Background())
		}()
	}

	defaults, err := cfg.Scheduling.Defaults()
	if err != nil {
		return fmt.Errorf("scheduling defaults: %w", err)
	}

	pool, err := db.Open(ctx, cfg.DB.DatabaseURL(), db.PoolOptions{
		MaxConns:        cfg.DB.MaxConns,
		MinConns:        cfg.DB.MinConns,
		MaxConnLifetime: cfg.DB.MaxConnLifetime,
		MaxConnIdleTime: cfg.DB.MaxConnIdleTime,
	})
	if err != nil {
		return err
	}
	defer pool.Close()

	checks := map[string]handlers.Pinger{"postgres": pool}

	fleet := repositories.NewPGFleetRepository(pool)
	trips := repositories.NewPGTripRepository(pool)

	deps := services.ScheduleDeps{
		Fleet:        fleet,
		Availability: fleet,
		Terminals:    repositories.NewPGTerminalRepository(pool),
		Settings:     repositories.NewPGSettingsRepository(pool),
		Distance:     newDistanceProvider(cfg, log, pool),
		Routes:       repositories.NewPGRouteRepository(pool),
		Trips:        trips,
	}

	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
		deps.Cache = cache.NewRedisPreviewCache(rdb)
		deps.Locker = cache.NewRedisLocker(log, rdb, cfg.Redis.LockTTL)
		checks["redis"] = handlers.PingFunc(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
		log.Info("redis enabled", zap.String("addr", cfg.Redis.Addr))
	}

	if cfg.AMQP.Enabled {
		mq, err := messaging.Dial(ctx, cfg.AMQP.URL, log)
		if err != nil {
			return err
		}
		defer mq.Close()

		if err := mq.DeclareTopicExchange(cfg.AMQP.Exchange); err != nil {
			return err
		}
		deps.Publisher = messaging.NewScheduleEventPublisher(mq, cfg.AMQP.Exchange, log)
		log.Info("schedule events enabled", zap.String("exchange", cfg.AMQP.Exchange))
	}

	scheduleSvc := services.NewScheduleService(log, deps, services.ScheduleOptions{
		Defaults:               defaults,
		BatchSize:              cfg.Scheduling.BatchSize,
		PreviewTTL:             cfg.Redis.PreviewTTL,
		StrictTerminalCapacity: cfg.Scheduling.StrictTerminalCapacity,
	})
	tripSvc := services.NewTripService(log, trips, trips, deps.Terminals, *defaults.DefaultWindow)

	router := api.NewRouter(log, api.Deps{
		Schedules: scheduleSvc,
		Trips:     tripSvc,
		Checks:    checks,
	})

	// Write timeout covers cold-cache metric estimation and large generate runs.
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newDistanceProvider prefers ORS (cached in Postgres) and falls back to a
// haversine estimate when no API key is configured.
func newDistanceProvider(cfg *config.Config, log *zap.Logger, pool *pgxpool.Pool) ports.DistanceProvider {
	if cfg.ORS.APIKey != "" {
		p, err := distance.NewORSDistanceProvider(log, distance.ORSOptions{
			APIKey:        cfg.ORS.APIKey,
			BaseURL:       cfg.ORS.BaseURL,
			Profile:       cfg.ORS.Profile,
			Timeout:       cfg.ORS.Timeout,
			RetryAttempts: cfg.ORS.RetryAttempts,
			RetryBackoff:  cfg.ORS.RetryBackoff,
		}, cache.NewPGDistanceCache(pool))
		if err == nil {
			log.Info("distance estimates from openrouteservice", zap.String("profile", cfg.ORS.Profile))
			return p
		}
		log.Warn("openrouteservice unavailable, using haversine estimates", zap.Error(err))
	}
	return distance.NewHaversineProvider(cfg.Scheduling.AverageSpeedKmh, cfg.Scheduling.RoadFactor)
}
