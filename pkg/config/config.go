// Package config holds process configuration and the fixed operational
// constants the service runs with.
package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config contains the tunable process settings.
type Config struct {
	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DataDir is where the embedded store keeps its files.
	DataDir string `koanf:"data_dir"`

	// MaxMemoryMB bounds the store's in-memory tables and caches.
	MaxMemoryMB int `koanf:"max_memory_mb"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		Addr:        ":8080",
		DataDir:     "./data/skillwatch",
		MaxMemoryMB: 48,
		LogLevel:    "info",
	}
}

// Load builds a Config by layering defaults, an optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if SKILLWATCH_CONFIG is set
//  3. env (prefix SKILLWATCH_)
func Load() (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("SKILLWATCH_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// Environment variables: SKILLWATCH_ADDR, SKILLWATCH_DATA_DIR, ...
	// Map env keys like SKILLWATCH_DATA_DIR -> data_dir (flat keys).
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("SKILLWATCH_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "skillwatch_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}

	if cfg.Addr == "" {
		return nil, errors.New("addr must not be empty")
	}
	if cfg.MaxMemoryMB <= 0 {
		return nil, errors.New("max_memory_mb must be positive")
	}
	return &cfg, nil
}

// Server timeouts
const (
	ServerReadTimeout  = 10 * time.Second
	ServerWriteTimeout = 10 * time.Second
	ShutdownTimeout    = 30 * time.Second
)

// Store maintenance
const (
	BadgerGCInterval     = 10 * time.Minute
	BadgerGCDiscardRatio = 0.5
)

// Request timeouts
const (
	QueryTimeout  = 30 * time.Second
	IngestTimeout = 5 * time.Second
	ExportTimeout = 60 * time.Second
)

// WebSocket configuration
const (
	WSReadBufferSize  = 1024
	WSWriteBufferSize = 1024
	WSBroadcastBuffer = 256
	WSChannelBuffer   = 10
	WSWriteDeadline   = 10 * time.Second
	WSReadDeadline    = 60 * time.Second
	WSPingInterval    = 30 * time.Second
)
