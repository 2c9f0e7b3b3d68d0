// Package config loads engine.yaml and resolves runtime secrets.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// EngineConfig is the deployment-level configuration. Game content
// lives in the blueprint; this file only says which blueprint to run
// and how to expose the engine.
type EngineConfig struct {
	Version int `yaml:"version"`
	Game    struct {
		ID        string `yaml:"id"`
		Name      string `yaml:"name"`
		Blueprint string `yaml:"blueprint"`
	} `yaml:"game"`
	Network struct {
		APIPort int `yaml:"api_port"`
	} `yaml:"network"`
	Storage struct {
		// Backend selects the journal: postgres, sqlite, or none.
		Backend string `yaml:"backend"`
		// DSN is the sqlite file path; postgres reads PG* env vars.
		DSN string `yaml:"dsn"`
	} `yaml:"storage"`
	History struct {
		Limit int `yaml:"limit"`
	} `yaml:"history"`
	Telemetry struct {
		BrokerURL string `yaml:"broker_url"`
	} `yaml:"telemetry"`
}

// APIPort returns the configured API port, defaulting to 8080.
func (c *EngineConfig) APIPort() int {
	if c.Network.APIPort == 0 {
		return 8080
	}
	return c.Network.APIPort
}

// HistoryLimit returns the configured undo cap, defaulting to 100.
func (c *EngineConfig) HistoryLimit() int {
	if c.History.Limit <= 0 {
		return 100
	}
	return c.History.Limit
}

// Load reads and validates engine.yaml.
func Load(path string) (*EngineConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg EngineConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}

	if cfg.Version != 1 {
		return nil, fmt.Errorf("unsupported engine.yaml version: %d", cfg.Version)
	}
	if cfg.Game.Blueprint == "" {
		return nil, fmt.Errorf("engine.yaml: game.blueprint is required")
	}

	return &cfg, nil
}
