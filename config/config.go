// Package config provides the YAML-backed application configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/NJonasFigge/fadable-calendar/calendar"
	"github.com/NJonasFigge/fadable-calendar/period"
	"github.com/NJonasFigge/fadable-calendar/widget"
)

// SourceConfig describes a single iCalendar source.
type SourceConfig struct {
	// ID is an internal identifier used for logging and de-dup.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label shown in the UI.
	Name string `yaml:"name" json:"name"`
	// URL is the ICS endpoint; http(s) URLs and local file paths are
	// both accepted.
	URL string `yaml:"url" json:"url"`
	// Color overrides the source's calendar-level color when set.
	Color string `yaml:"color,omitempty" json:"color,omitempty"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the Web UI and API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone all periods and day boundaries are
	// computed in (e.g. "Europe/Berlin").
	Timezone string `yaml:"timezone" json:"timezone"`

	// StartOfWeek is the weekday a week period starts on,
	// 0 = Monday through 6 = Sunday.
	StartOfWeek int `yaml:"start_of_week" json:"start_of_week"`

	// PeriodType is the window rendered by default: week, month or year.
	PeriodType string `yaml:"period_type" json:"period_type"`

	// Lookback is how many prior periods density widgets average over.
	Lookback int `yaml:"lookback" json:"lookback"`

	// RefreshCron is a cron-style schedule string (e.g. "*/15 * * * *")
	// used for periodic source refresh.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// FrontendDir is the static frontend directory served after the API
	// routes. Empty disables static serving.
	FrontendDir string `yaml:"frontend_dir" json:"frontend_dir"`

	// Sources is the list of subscribed iCalendar sources.
	Sources []SourceConfig `yaml:"sources" json:"sources"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:      "127.0.0.1:8080",
		Timezone:    "UTC",
		StartOfWeek: 0,
		PeriodType:  string(period.TypeWeek),
		Lookback:    widget.DefaultLookback,
		RefreshCron: "*/15 * * * *",
		Sources:     []SourceConfig{},
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	if !period.Type(c.PeriodType).Valid() {
		c.PeriodType = string(period.TypeWeek)
	}
	if c.Lookback <= 0 {
		c.Lookback = widget.DefaultLookback
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "*/15 * * * *"
	}
	if c.Sources == nil {
		c.Sources = []SourceConfig{}
	}
}

// Validate rejects configurations the core cannot operate on.
func (c *Config) Validate() error {
	if c.StartOfWeek < 0 || c.StartOfWeek > 6 {
		return &calendar.Error{
			Type:    calendar.ErrInvalidDateRange,
			Message: fmt.Sprintf("start_of_week %d outside [0,6]", c.StartOfWeek),
		}
	}
	return nil
}

// Load loads configuration from the given YAML path. A missing file is
// created with defaults and 0600 permissions.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration atomically via a temp file + rename,
// ensuring 0600 permissions on the result.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".fadable-calendar-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
