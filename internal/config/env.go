package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvOverrides are the environment variables that win over the project file.
type EnvOverrides struct {
	DSN     string `env:"ROLLSHEET_DSN"`
	Addr    string `env:"ROLLSHEET_ADDR"`
	Schema  string `env:"ROLLSHEET_SCHEMA"`
	Seed    string `env:"ROLLSHEET_SEED"`
	Session string `env:"ROLLSHEET_SESSION"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func ApplyEnv(cfg *ProjectConfig) error {
	var o EnvOverrides
	if err := ParseEnv(&o); err != nil {
		return err
	}
	if o.DSN != "" {
		cfg.Database.DSN = o.DSN
	}
	if o.Addr != "" {
		cfg.Server.Addr = o.Addr
	}
	if o.Schema != "" {
		cfg.Assets.Schema = o.Schema
	}
	if o.Seed != "" {
		cfg.Assets.Seed = o.Seed
	}
	if o.Session != "" {
		cfg.Session.DefaultID = o.Session
	}
	return nil
}
