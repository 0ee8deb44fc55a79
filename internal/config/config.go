package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"tripline/internal/timeline"
)

// Config models tripline.yml.
type Config struct {
	Trip struct {
		ID       string `yaml:"id"`
		Timezone string `yaml:"timezone"`
	} `yaml:"trip"`
	Timeline struct {
		DefaultMode string   `yaml:"default_mode"`
		Expanded    []string `yaml:"expanded"`
	} `yaml:"timeline"`
	Server struct {
		Addr     string `yaml:"addr"`
		BasePath string `yaml:"base_path"`
	} `yaml:"server"`
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; create one with tpl trip create", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// LoadOptional returns nil,nil if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Trip.Timezone != "" {
		if _, err := time.LoadLocation(c.Trip.Timezone); err != nil {
			return fmt.Errorf("config.trip.timezone: %w", err)
		}
	}
	if c.Timeline.DefaultMode != "" {
		if _, err := timeline.ScaleFor(timeline.ViewMode(c.Timeline.DefaultMode)); err != nil {
			return fmt.Errorf("config.timeline.default_mode: %w", err)
		}
	}
	for _, e := range c.Timeline.Expanded {
		if e == "" {
			return fmt.Errorf("config.timeline.expanded contains empty type")
		}
	}
	return nil
}

// Location resolves the trip timezone, defaulting to UTC.
func (c *Config) Location() *time.Location {
	if c == nil || c.Trip.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Trip.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DefaultMode resolves the configured view mode, defaulting to day.
func (c *Config) DefaultMode() timeline.ViewMode {
	if c == nil || c.Timeline.DefaultMode == "" {
		return timeline.ModeDay
	}
	return timeline.ViewMode(c.Timeline.DefaultMode)
}

// ExpandedTypes converts the configured expanded list into the caller-owned
// expand state the grouping engine consumes.
func (c *Config) ExpandedTypes() map[timeline.Type]bool {
	out := make(map[timeline.Type]bool)
	if c == nil {
		return out
	}
	for _, e := range c.Timeline.Expanded {
		out[timeline.Type(e)] = true
	}
	return out
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "tripline.yml")
}

// GenerateDefault returns default config YAML.
func GenerateDefault(tripID string) string {
	return fmt.Sprintf(defaultTemplate, tripID)
}

// Default returns the default Config struct for a trip.
func Default(tripID string) *Config {
	var cfg Config
	cfg.Trip.ID = tripID
	_ = yaml.NewDecoder(bytes.NewBufferString(fmt.Sprintf(defaultTemplate, tripID))).Decode(&cfg)
	return &cfg
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `trip:
  id: %s
  timezone: UTC

timeline:
  default_mode: day
  expanded: []

server:
  addr: 127.0.0.1:8080
  base_path: /v0
`
