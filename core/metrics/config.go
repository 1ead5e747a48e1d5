package metrics

import "github.com/kilianp07/raildispatch/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
}

// PrometheusAddress returns the listen address of the first prometheus sink,
// or an empty string when no prometheus sink is configured.
func (c Config) PrometheusAddress() string {
	for _, s := range c.Sinks {
		if s.Type != "prometheus" {
			continue
		}
		var conf struct {
			Port string `json:"prometheus_port"`
		}
		if err := factory.Decode(s.Conf, &conf); err != nil || conf.Port == "" {
			return ":9100"
		}
		return conf.Port
	}
	return ""
}
