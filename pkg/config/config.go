// Package config loads and validates the station configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/florawx/agromet/internal/gdd"
	"github.com/florawx/agromet/pkg/units"
)

// Provider is a source of configuration data.
type Provider interface {
	Load() (*Config, error)
}

// Config is the root configuration.
type Config struct {
	Station    StationConfig         `yaml:"station"`
	Archive    ArchiveConfig         `yaml:"archive"`
	DegreeDays map[string]gdd.Config `yaml:"degree_days"`
	Debug      bool                  `yaml:"debug"`
}

// StationConfig locates the weather station.
type StationConfig struct {
	Name      string  `yaml:"name"`
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
	AltitudeM float64 `yaml:"altitude_m"`

	// Timezone is the station's civil time zone, needed only when a
	// degree-day measure uses civil day boundaries.
	Timezone string `yaml:"timezone"`
}

// Archive backend kinds.
const (
	BackendSQLite      = "sqlite"
	BackendTimescaleDB = "timescaledb"
)

// ArchiveConfig selects and parameterizes the archive backend.
type ArchiveConfig struct {
	Backend string `yaml:"backend"`

	// Path is the database file of a sqlite archive.
	Path string `yaml:"path"`

	// ConnectionString, UnitSystem and IntervalMinutes parameterize a
	// timescaledb archive, which carries no per-row unit or interval
	// metadata of its own.
	ConnectionString string `yaml:"connection_string"`
	UnitSystem       string `yaml:"unit_system"`
	IntervalMinutes  int    `yaml:"interval_minutes"`
}

// System maps the configured unit-system name to its archive constant.
func (a ArchiveConfig) System() (units.System, error) {
	switch a.UnitSystem {
	case "us":
		return units.US, nil
	case "metric", "":
		return units.Metric, nil
	case "metricwx":
		return units.MetricWX, nil
	}
	return 0, fmt.Errorf("unknown unit system %q", a.UnitSystem)
}

// YAMLProvider loads configuration from a YAML file.
type YAMLProvider struct {
	path string
}

// NewYAMLProvider creates a provider for the given file path.
func NewYAMLProvider(path string) *YAMLProvider {
	return &YAMLProvider{path: path}
}

// Load reads, parses and validates the configuration file.
func (p *YAMLProvider) Load() (*Config, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for internal consistency and
// fills in defaults.
func (c *Config) Validate() error {
	if c.Station.Latitude < -90 || c.Station.Latitude > 90 {
		return fmt.Errorf("station latitude %.4f out of range", c.Station.Latitude)
	}
	if c.Station.Longitude < -180 || c.Station.Longitude > 180 {
		return fmt.Errorf("station longitude %.4f out of range", c.Station.Longitude)
	}

	switch c.Archive.Backend {
	case BackendSQLite:
		if c.Archive.Path == "" {
			return fmt.Errorf("sqlite archive requires a path")
		}
	case BackendTimescaleDB:
		if c.Archive.ConnectionString == "" {
			return fmt.Errorf("timescaledb archive requires a connection string")
		}
		if _, err := c.Archive.System(); err != nil {
			return err
		}
		if c.Archive.IntervalMinutes == 0 {
			c.Archive.IntervalMinutes = 5
		}
		if c.Archive.IntervalMinutes < 0 {
			return fmt.Errorf("archive interval must be positive, got %d", c.Archive.IntervalMinutes)
		}
	case "":
		return fmt.Errorf("archive backend not configured")
	default:
		return fmt.Errorf("unknown archive backend %q", c.Archive.Backend)
	}

	return nil
}
