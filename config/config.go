// Package config loads the small set of environment-driven knobs the
// replication host needs at startup: tick rate, listen address, and role.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Role selects whether a host runs as the authoritative server or as a
// client connecting to one.
type Role string

const (
	RoleServer Role = "server"
	RoleClient Role = "client"
)

// MinUpdatePeriod is the floor the engine clamps UpdatePeriod to: at most
// 100 Hz.
const MinUpdatePeriod = 10 * time.Millisecond

// DefaultUpdatePeriod is used when SYNC_UPDATE_PERIOD_MS is unset.
const DefaultUpdatePeriod = 40 * time.Millisecond

// Config holds the values a syncdemo host needs to start.
type Config struct {
	Role         Role
	ListenAddr   string
	UpdatePeriod time.Duration
}

// Load reads SYNC_ROLE, SYNC_LISTEN_ADDR, and SYNC_UPDATE_PERIOD_MS from
// the environment, applying defaults for anything unset.
func Load() (Config, error) {
	cfg := Config{
		Role:         RoleServer,
		ListenAddr:   "localhost:9100",
		UpdatePeriod: DefaultUpdatePeriod,
	}

	if v := os.Getenv("SYNC_ROLE"); v != "" {
		switch Role(v) {
		case RoleServer, RoleClient:
			cfg.Role = Role(v)
		default:
			return Config{}, fmt.Errorf("config: invalid SYNC_ROLE %q", v)
		}
	}

	if v := os.Getenv("SYNC_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}

	if v := os.Getenv("SYNC_UPDATE_PERIOD_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: invalid SYNC_UPDATE_PERIOD_MS %q: %w", v, err)
		}
		cfg.UpdatePeriod = time.Duration(ms) * time.Millisecond
	}

	if cfg.UpdatePeriod < MinUpdatePeriod {
		cfg.UpdatePeriod = MinUpdatePeriod
	}

	return cfg, nil
}
