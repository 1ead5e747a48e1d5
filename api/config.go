package api

import "fmt"

// Config controls the HTTP API.
type Config struct {
	Enabled bool   `json:"enabled"`
	Address string `json:"address"`
	// Token enables bearer authentication on /api routes when set.
	Token          string   `json:"token"`
	AllowedOrigins []string `json:"allowed_origins"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Address == "" {
		c.Address = ":8080"
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.Enabled && c.Address == "" {
		return fmt.Errorf("address is required")
	}
	return nil
}
