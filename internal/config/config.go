// Package config loads stabwatch configuration from YAML with defaults and
// a content hash for change detection.
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/stabwatch/internal/alert"
	"github.com/ppiankov/stabwatch/internal/engine"
)

// EngineConfig tunes the stability integrator.
type EngineConfig struct {
	LambdaWeight float64 `yaml:"lambda_weight"` // error accumulator weight
	MuWeight     float64 `yaml:"mu_weight"`     // panic level weight
	NuWeight     float64 `yaml:"nu_weight"`     // exception accumulator weight
	TauPanic     float64 `yaml:"tau_panic"`     // panic decay constant
	HistorySize  int     `yaml:"history_size"`  // snapshot buffer capacity
	Horizon      float64 `yaml:"horizon"`       // prediction horizon, seconds
}

// ServeConfig configures the HTTP ingest/stream server.
type ServeConfig struct {
	Port int `yaml:"port"`
}

// Config is the root stabwatch configuration.
type Config struct {
	Engine EngineConfig   `yaml:"engine"`
	Serve  ServeConfig    `yaml:"serve"`
	Alerts []alert.Config `yaml:"alerts"`
}

// DefaultPort is the default HTTP listen port.
const DefaultPort = 8750

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			LambdaWeight: engine.DefaultLambdaWeight,
			MuWeight:     engine.DefaultMuWeight,
			NuWeight:     engine.DefaultNuWeight,
			TauPanic:     engine.DefaultTauPanic,
			HistorySize:  engine.DefaultHistorySize,
			Horizon:      engine.DefaultHorizon,
		},
		Serve: ServeConfig{Port: DefaultPort},
	}
}

// Load reads configuration and returns it with the SHA-256 hash of the raw
// YAML bytes on disk. When no file exists the defaults are returned and the
// hash is the SHA-256 of empty input.
func Load(path string) (*Config, string, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			h := sha256.Sum256(nil)
			return Default(), "sha256:" + hex.EncodeToString(h[:]), nil
		}
		path = filepath.Join(home, ".stabwatch", "config.yaml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			h := sha256.Sum256(nil)
			return Default(), "sha256:" + hex.EncodeToString(h[:]), nil
		}
		return nil, "", fmt.Errorf("failed to read config: %w", err)
	}

	h := sha256.Sum256(data)
	hash := "sha256:" + hex.EncodeToString(h[:])

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}

	return cfg, hash, nil
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	e := c.Engine
	for name, v := range map[string]float64{
		"lambda_weight": e.LambdaWeight,
		"mu_weight":     e.MuWeight,
		"nu_weight":     e.NuWeight,
		"tau_panic":     e.TauPanic,
		"horizon":       e.Horizon,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("config: %s must be finite, got %v", name, v)
		}
		if v < 0 {
			return fmt.Errorf("config: %s must be non-negative, got %v", name, v)
		}
	}
	if e.TauPanic <= 0 {
		return fmt.Errorf("config: tau_panic must be positive, got %v", e.TauPanic)
	}
	if e.HistorySize < 1 {
		return fmt.Errorf("config: history_size must be at least 1, got %d", e.HistorySize)
	}
	if c.Serve.Port < 1 || c.Serve.Port > 65535 {
		return fmt.Errorf("config: port out of range: %d", c.Serve.Port)
	}
	for i, a := range c.Alerts {
		if a.URL == "" {
			return fmt.Errorf("config: alert %d missing url", i)
		}
	}
	return nil
}

// EngineOptions converts the engine section to engine.Options. The values
// are marked as explicit tuning: Load already filled absent keys with
// defaults, so a zero weight here was written deliberately and must be
// honored at startup exactly as SetTuning honors it on hot-reload.
func (c *Config) EngineOptions() engine.Options {
	return engine.Options{
		LambdaWeight:   c.Engine.LambdaWeight,
		MuWeight:       c.Engine.MuWeight,
		NuWeight:       c.Engine.NuWeight,
		TauPanic:       c.Engine.TauPanic,
		HistorySize:    c.Engine.HistorySize,
		Horizon:        c.Engine.Horizon,
		ExplicitTuning: true,
	}
}
