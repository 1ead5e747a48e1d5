package journal

import (
	"context"
	"fmt"
)

// Backend names accepted in Config.Backend.
const (
	BackendNone     = "none"
	BackendJSONL    = "jsonl"
	BackendRotating = "rotating"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config selects and configures the journal backend.
type Config struct {
	Backend    string `json:"backend"`
	Path       string `json:"path"`
	DSN        string `json:"dsn"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = BackendJSONL
	}
	if c.Path == "" {
		switch c.Backend {
		case BackendSQLite:
			c.Path = "journal.db"
		default:
			c.Path = "journal.jsonl"
		}
	}
	if c.MaxSizeMB == 0 {
		c.MaxSizeMB = 10
	}
	if c.MaxBackups == 0 {
		c.MaxBackups = 3
	}
	if c.MaxAgeDays == 0 {
		c.MaxAgeDays = 7
	}
}

// Validate checks the backend settings.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendNone, BackendJSONL, BackendRotating, BackendSQLite:
	case BackendPostgres:
		if c.DSN == "" {
			return fmt.Errorf("journal.dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown journal backend %q", c.Backend)
	}
	if c.MaxSizeMB < 0 || c.MaxBackups < 0 || c.MaxAgeDays < 0 {
		return fmt.Errorf("journal rotation settings must not be negative")
	}
	return nil
}

// New opens the store selected by cfg.
func New(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", BackendNone:
		return NopStore{}, nil
	case BackendJSONL:
		return NewJSONLStore(cfg.Path)
	case BackendRotating:
		return NewRotatingJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
	case BackendSQLite:
		return NewSQLiteStore(cfg.Path)
	case BackendPostgres:
		return NewPostgresStore(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown journal backend %q", cfg.Backend)
	}
}
