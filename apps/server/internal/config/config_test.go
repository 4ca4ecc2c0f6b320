package config

import (
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("CASINO_MODE", "memory")
	t.Setenv("CASINO_STARTING_POINTS", "")
	t.Setenv("CASINO_MAX_BET", "")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv err: %v", err)
	}
	if cfg.Mode != ModeMemory || cfg.Addr != ":8080" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.StartingPoints != 1000 || cfg.Rules.MaxBet != 0 || cfg.Rules.DealerStandsOn != 17 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	db, err := cfg.OpenDB()
	if err != nil || db != nil {
		t.Fatalf("memory mode must not open a database: db=%v err=%v", db, err)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("CASINO_MODE", "local")
	t.Setenv("CASINO_LOCAL_DATABASE_PATH", t.TempDir()+"/casino.db")
	t.Setenv("CASINO_STARTING_POINTS", "250")
	t.Setenv("CASINO_MAX_BET", "50")
	t.Setenv("CASINO_HISTORY_LIMIT", "nope")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv err: %v", err)
	}
	if cfg.Mode != ModeSQLite || cfg.SQLitePath == "" {
		t.Fatalf("expected sqlite mode with a path, got %+v", cfg)
	}
	if cfg.StartingPoints != 250 || cfg.Rules.MaxBet != 50 || cfg.HistoryLimit != defaultHistoryLimit {
		t.Fatalf("unexpected overrides: %+v", cfg)
	}
}

func TestFromEnvRejectsUnknownMode(t *testing.T) {
	t.Setenv("CASINO_MODE", "mongo")
	if _, err := FromEnv(); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

func TestEnvDuration(t *testing.T) {
	t.Setenv("X_TTL", "90m")
	if got := EnvDuration("X_TTL", time.Hour); got != 90*time.Minute {
		t.Fatalf("EnvDuration = %v", got)
	}
	t.Setenv("X_TTL", "-1s")
	if got := EnvDuration("X_TTL", time.Hour); got != time.Hour {
		t.Fatalf("negative duration must fall back, got %v", got)
	}
}
