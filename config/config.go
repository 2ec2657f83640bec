// Package config loads the gateway configuration from a yaml or json file
// with optional environment overrides (UP_ prefix, __ as section separator).
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

	"github.com/alfosobral/UniParking/core/metrics"
	"github.com/alfosobral/UniParking/core/spotindex"
	"github.com/alfosobral/UniParking/infra/mqtt"
	"github.com/alfosobral/UniParking/infra/store"
)

// HTTPConfig configures the HTTP listener.
type HTTPConfig struct {
	Addr string `json:"addr"`
}

// SetDefaults applies sane defaults.
func (c *HTTPConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
}

// GateConfig places a gate device on the facility plane. The point is the
// origin of nearest-spot queries for vehicles entering at that gate.
type GateConfig struct {
	DeviceID string  `json:"device_id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

// Config is the root configuration.
type Config struct {
	MQTT     mqtt.Config    `json:"mqtt"`
	Database store.Config   `json:"database"`
	HTTP     HTTPConfig     `json:"http"`
	Metrics  metrics.Config `json:"metrics"`
	Gates    []GateConfig   `json:"gates"`
}

// Load reads the file at path and applies environment overrides.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
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
	if err := k.Load(env.Provider("UP_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "up_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.MQTT.SetDefaults()
	cfg.Database.SetDefaults()
	cfg.HTTP.SetDefaults()
	if err := cfg.MQTT.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Database.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// GateLocator builds the device lookup used by the pipeline. Unknown devices
// resolve to the origin.
func (c *Config) GateLocator() func(deviceID string) spotindex.Point {
	points := make(map[string]spotindex.Point, len(c.Gates))
	for _, g := range c.Gates {
		points[g.DeviceID] = spotindex.Point{X: g.X, Y: g.Y}
	}
	return func(deviceID string) spotindex.Point {
		return points[deviceID]
	}
}
