package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"trip-scheduler-service/internal/adapters/repositories"
	"trip-scheduler-service/internal/config"
	"trip-scheduler-service/internal/platform/db"
	"trip-scheduler-service/internal/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const usage = "usage: dbtool [migrate|seed|init]"

// dbtool applies the embedded migrations and loads seed data.
// DATABASE_URL and SEED_PATH are read from the environment (or .env).
func main() {
	_ = godotenv.Load()

	log := logger.New(config.Get("ENV", "local"), config.Get("LOG_LEVEL", "info"))
	defer func() {
		_ = log.Sync()
	}()

	cmd := "init"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	databaseURL := config.Get("DATABASE_URL", "")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.Open(ctx, databaseURL, db.PoolOptions{MaxConns: 2})
	if err != nil {
		log.Fatal("open database", zap.Error(err))
	}
	defer pool.Close()

	seedPath := config.Get("SEED_PATH", "config/seed.yaml")

	switch cmd {
	case "migrate":
		err = migrate(ctx, log, pool)
	case "seed":
		err = seed(ctx, log, pool, seedPath)
	case "init":
		if err = migrate(ctx, log, pool); err == nil {
			err = seed(ctx, log, pool, seedPath)
		}
	default:
		err = fmt.Errorf("unknown command %q; %s", cmd, usage)
	}
	if err != nil {
		log.Fatal("dbtool failed", zap.String("command", cmd), zap.Error(err))
	}
}

func migrate(ctx context.Context, log *zap.Logger, pool *pgxpool.Pool) error {
	log.Info("applying migrations")
	applied, err := db.Migrate(ctx, pool)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	log.Info("schema ready", zap.Strings("migrations", applied))
	return nil
}

func seed(ctx context.Context, log *zap.Logger, pool *pgxpool.Pool, path string) error {
	log.Info("seeding database", zap.String("path", path))
	s, err := repositories.LoadSeedFile(path)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	if err := s.Apply(ctx, pool); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	log.Info("seeding complete", zap.Int("cooperatives", len(s.Cooperatives)))
	return nil
}
