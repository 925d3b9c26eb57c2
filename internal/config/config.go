package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPath      = "rollsheet.yaml"
	DefaultDSN       = "sqlite://:memory:"
	DefaultAddr      = ":8080"
	DefaultSessionID = "sess_001"
	DefaultRollLimit = 25
	DefaultNoticeTTL = 1500 * time.Millisecond
	DefaultMaxDice   = 1000
)

type ProjectConfig struct {
	Project  string         `yaml:"project"`
	Version  int            `yaml:"version"`
	Database DatabaseConfig `yaml:"database"`
	Assets   AssetsConfig   `yaml:"assets"`
	Session  SessionConfig  `yaml:"session"`
	Server   ServerConfig   `yaml:"server"`
	Dice     DiceConfig     `yaml:"dice"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// AssetsConfig points at the schema and seed sources. Empty means the embedded copy;
// otherwise a local path or an http(s) URL.
type AssetsConfig struct {
	Schema string `yaml:"schema"`
	Seed   string `yaml:"seed"`
	// Notes are directories of markdown session notes imported after seeding.
	Notes []string `yaml:"notes"`
}

type SessionConfig struct {
	DefaultID  string `yaml:"default_id"`
	RollLimit  int    `yaml:"roll_limit"`
	RollerType string `yaml:"roller_type"`
	RollerID   string `yaml:"roller_id"`
}

type ServerConfig struct {
	Addr      string        `yaml:"addr"`
	NoticeTTL time.Duration `yaml:"notice_ttl"`
	// RateLimit is POST requests per second per client IP.
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`
}

type DiceConfig struct {
	MaxCount int `yaml:"max_count"`
}

// Default is the configuration used when no project file exists.
func Default() *ProjectConfig {
	return &ProjectConfig{
		Project:  "rollsheet",
		Version:  1,
		Database: DatabaseConfig{DSN: DefaultDSN},
		Session: SessionConfig{
			DefaultID:  DefaultSessionID,
			RollLimit:  DefaultRollLimit,
			RollerType: "character",
			RollerID:   "char_eden",
		},
		Server: ServerConfig{
			Addr:      DefaultAddr,
			NoticeTTL: DefaultNoticeTTL,
			RateLimit: 5,
			RateBurst: 10,
		},
		Dice: DiceConfig{MaxCount: DefaultMaxDice},
	}
}

// LoadProjectConfig reads a YAML file on top of Default and validates the result.
func LoadProjectConfig(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	if err := validateProjectConfig(cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	return cfg, nil
}

// Load resolves the effective configuration: the project file when present
// (required unless optional is set), then environment overrides.
func Load(path string, optional bool) (*ProjectConfig, error) {
	cfg, err := LoadProjectConfig(path)
	if err != nil {
		if !optional || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		cfg = Default()
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if err := validateProjectConfig(cfg); err != nil {
		return nil, fmt.Errorf("applying environment: %w", err)
	}
	return cfg, nil
}

// Marshal renders cfg as it would be written by init.
func Marshal(cfg *ProjectConfig) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshaling project config: %w", err)
	}
	return data, nil
}

func validateProjectConfig(cfg *ProjectConfig) error {
	if strings.TrimSpace(cfg.Project) == "" {
		return fmt.Errorf("project name is required")
	}
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported version: %d", cfg.Version)
	}
	dsn := strings.TrimSpace(cfg.Database.DSN)
	if dsn == "" {
		return fmt.Errorf("database dsn is required")
	}
	if !strings.HasPrefix(dsn, "sqlite://") {
		return fmt.Errorf("unsupported database dsn: %s", dsn)
	}
	if strings.TrimSpace(cfg.Session.DefaultID) == "" {
		return fmt.Errorf("session default_id is required")
	}
	if cfg.Session.RollLimit <= 0 {
		return fmt.Errorf("session roll_limit must be positive: %d", cfg.Session.RollLimit)
	}
	if strings.TrimSpace(cfg.Server.Addr) == "" {
		return fmt.Errorf("server addr is required")
	}
	if cfg.Server.NoticeTTL <= 0 {
		return fmt.Errorf("server notice_ttl must be positive: %s", cfg.Server.NoticeTTL)
	}
	if cfg.Server.RateLimit <= 0 || cfg.Server.RateBurst <= 0 {
		return fmt.Errorf("server rate_limit and rate_burst must be positive")
	}
	if cfg.Dice.MaxCount <= 0 {
		return fmt.Errorf("dice max_count must be positive: %d", cfg.Dice.MaxCount)
	}
	return nil
}
