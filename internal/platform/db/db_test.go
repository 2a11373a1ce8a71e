package db

import (
	"strings"
	"testing"
	"time"
)

func TestBuildPoolConfigDefaults(t *testing.T) {
	cfg, err := buildPoolConfig("postgres://u:p@localhost:5432/trips?sslmode=disable", PoolOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MaxConns != 10 {
		t.Fatalf("MaxConns = %d, want 10", cfg.MaxConns)
	}
	if cfg.MaxConnLifetime != 30*time.Minute {
		t.Fatalf("MaxConnLifetime = %v", cfg.MaxConnLifetime)
	}
}

func TestBuildPoolConfigOverrides(t *testing.T) {
	cfg, err := buildPoolConfig("postgres://u:p@localhost:5432/trips", PoolOptions{MaxConns: 25, MinConns: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MaxConns != 25 || cfg.MinConns != 2 {
		t.Fatalf("pool sizes = %d/%d, want 25/2", cfg.MaxConns, cfg.MinConns)
	}
}

func TestBuildPoolConfigRejectsBadURL(t *testing.T) {
	if _, err := buildPoolConfig("postgres://%zz", PoolOptions{}); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestMigrationsAreOrderedAndEmbedded(t *testing.T) {
	names, err := migrationNames()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(names) == 0 || names[0] != "001_init.sql" {
		t.Fatalf("migrations = %v", names)
	}

	sqlb, err := migrationsFS.ReadFile("migrations/001_init.sql")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	for _, table := range []string{"trip_instances", "terminal_occupancy", "routes", "distance_cache"} {
		if !strings.Contains(string(sqlb), table) {
			t.Errorf("001_init.sql does not define %s", table)
		}
	}
}
