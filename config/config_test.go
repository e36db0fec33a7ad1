package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SYNC_ROLE", "")
	t.Setenv("SYNC_LISTEN_ADDR", "")
	t.Setenv("SYNC_UPDATE_PERIOD_MS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Role != RoleServer {
		t.Fatalf("role = %v", cfg.Role)
	}
	if cfg.UpdatePeriod != DefaultUpdatePeriod {
		t.Fatalf("update period = %v", cfg.UpdatePeriod)
	}
}

func TestLoadClampsUpdatePeriod(t *testing.T) {
	t.Setenv("SYNC_UPDATE_PERIOD_MS", "1")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.UpdatePeriod != MinUpdatePeriod {
		t.Fatalf("expected clamp to %v, got %v", MinUpdatePeriod, cfg.UpdatePeriod)
	}
}

func TestLoadInvalidRole(t *testing.T) {
	t.Setenv("SYNC_ROLE", "bogus")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid role")
	}
}

func TestLoadCustomUpdatePeriod(t *testing.T) {
	t.Setenv("SYNC_UPDATE_PERIOD_MS", "20")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.UpdatePeriod != 20*time.Millisecond {
		t.Fatalf("update period = %v", cfg.UpdatePeriod)
	}
}
