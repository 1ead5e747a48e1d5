package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/raildispatch/api"
	"github.com/kilianp07/raildispatch/core/dispatch"
	"github.com/kilianp07/raildispatch/core/generator"
	"github.com/kilianp07/raildispatch/core/journal"
	"github.com/kilianp07/raildispatch/core/metrics"
	"github.com/kilianp07/raildispatch/infra/logger"
	"github.com/kilianp07/raildispatch/infra/monitoring"
	"github.com/kilianp07/raildispatch/infra/mqtt"
)

// EnvPrefix prefixes environment overrides. K_TRAIN__TIME_PER_STATION_UNIT=2
// sets train.time_per_station_unit.
const EnvPrefix = "K_"

type Config struct {
	Train      dispatch.Config   `json:"train"`
	Simulation SimulationConfig  `json:"simulation"`
	Generator  generator.Config  `json:"generator"`
	Log        logger.Config     `json:"log"`
	Journal    journal.Config    `json:"journal"`
	Metrics    metrics.Config    `json:"metrics"`
	MQTT       mqtt.Config       `json:"mqtt"`
	API        api.Config        `json:"api"`
	Sentry     monitoring.Config `json:"sentry"`
}

// Default returns a configuration with every section defaulted.
func Default() *Config {
	var cfg Config
	cfg.SetDefaults()
	return &cfg
}

// Load reads the file at path, applies environment overrides, defaults and
// validation. An empty path loads defaults and environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	// Optional environment overrides
	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envValue), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// listKeys are the settings whose environment value is a comma separated
// list. Every other value is kept verbatim.
var listKeys = map[string]bool{
	"train.stations":      true,
	"api.allowed_origins": true,
}

// envValue maps K_SECTION__KEY to section.key and splits list settings so
// K_TRAIN__STATIONS=A,B,C works.
func envValue(key, value string) (string, any) {
	key = strings.TrimPrefix(strings.ToLower(key), strings.ToLower(EnvPrefix))
	key = strings.ReplaceAll(key, "__", ".")
	if listKeys[key] {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return key, parts
	}
	return key, value
}

// SetDefaults applies defaults to every section.
func (c *Config) SetDefaults() {
	c.Train.SetDefaults()
	c.Simulation.SetDefaults()
	c.Generator.SetDefaults()
	c.Log.SetDefaults()
	c.Journal.SetDefaults()
	c.MQTT.SetDefaults()
	c.API.SetDefaults()
}

// Validate checks every section.
func (c Config) Validate() error {
	checks := []struct {
		section string
		fn      func() error
	}{
		{"train", c.Train.Validate},
		{"simulation", c.Simulation.Validate},
		{"generator", c.Generator.Validate},
		{"log", c.Log.Validate},
		{"journal", c.Journal.Validate},
		{"mqtt", c.MQTT.Validate},
		{"api", c.API.Validate},
		{"sentry", c.Sentry.Validate},
	}
	for _, chk := range checks {
		if err := chk.fn(); err != nil {
			return fmt.Errorf("%s: %w", chk.section, err)
		}
	}
	return nil
}
