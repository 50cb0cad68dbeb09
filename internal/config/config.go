// Package config loads the caregiver configuration from YAML with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the process-wide configuration, loaded once at startup.
type Config struct {
	Nightscout NightscoutConfig `yaml:"nightscout"`
	Graph      GraphConfig      `yaml:"graph"`
	Refresh    RefreshConfig    `yaml:"refresh"`
	Storage    StorageConfig    `yaml:"storage"`
	Server     ServerConfig     `yaml:"server"`
	Display    DisplayConfig    `yaml:"display"`
	LogLevel   string           `yaml:"log_level"`
}

// NightscoutConfig points at the patient's Nightscout site.
type NightscoutConfig struct {
	URL       string        `yaml:"url"`
	APISecret string        `yaml:"api_secret"`
	Timeout   time.Duration `yaml:"timeout"`
	EnteredBy string        `yaml:"entered_by"`
}

// GraphConfig controls the treatment graph window.
type GraphConfig struct {
	Hours         int `yaml:"hours"`
	FallbackValue int `yaml:"fallback_value"`
}

// RefreshConfig controls the polling loop.
type RefreshConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// StorageConfig controls the local cache.
type StorageConfig struct {
	Path      string        `yaml:"path"`
	Retention time.Duration `yaml:"retention"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Listen string `yaml:"listen"`
}

// DisplayConfig points at an optional Pixoo64 LED display. An empty
// address disables it.
type DisplayConfig struct {
	Address    string        `yaml:"address"`
	Brightness int           `yaml:"brightness"` // 0 leaves the device setting alone
	Timeout    time.Duration `yaml:"timeout"`
}

// Enabled reports whether a display address is configured.
func (d DisplayConfig) Enabled() bool {
	return d.Address != ""
}

// Defaults.
const (
	DefaultTimeout        = 30 * time.Second
	DefaultGraphHours     = 6
	DefaultFallbackValue  = 390
	DefaultInterval       = 30 * time.Second
	DefaultDBPath         = "caregiver.db"
	DefaultRetention      = 48 * time.Hour
	DefaultListen         = ":8080"
	DefaultLogLevel       = "info"
	DefaultEnteredBy      = "caregiver"
	DefaultDisplayTimeout = 5 * time.Second
)

// Load reads the YAML file at path (if path is non-empty), applies environment
// overrides and defaults, and validates the result.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyEnv() {
	c.Nightscout.URL = getEnv("NIGHTSCOUT_URL", c.Nightscout.URL)
	c.Nightscout.APISecret = getEnv("NIGHTSCOUT_SECRET", c.Nightscout.APISecret)
	c.Storage.Path = getEnv("CAREGIVER_DB", c.Storage.Path)
	c.Server.Listen = getEnv("CAREGIVER_LISTEN", c.Server.Listen)
	c.Graph.Hours = getEnvAsInt("CAREGIVER_GRAPH_HOURS", c.Graph.Hours)
	c.Display.Address = getEnv("PIXOO_ADDR", c.Display.Address)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
}

func (c *Config) applyDefaults() {
	if c.Nightscout.Timeout == 0 {
		c.Nightscout.Timeout = DefaultTimeout
	}
	if c.Nightscout.EnteredBy == "" {
		c.Nightscout.EnteredBy = DefaultEnteredBy
	}
	if c.Graph.Hours == 0 {
		c.Graph.Hours = DefaultGraphHours
	}
	if c.Graph.FallbackValue == 0 {
		c.Graph.FallbackValue = DefaultFallbackValue
	}
	if c.Refresh.Interval == 0 {
		c.Refresh.Interval = DefaultInterval
	}
	if c.Storage.Path == "" {
		c.Storage.Path = DefaultDBPath
	}
	if c.Storage.Retention == 0 {
		c.Storage.Retention = DefaultRetention
	}
	if c.Server.Listen == "" {
		c.Server.Listen = DefaultListen
	}
	if c.Display.Timeout == 0 {
		c.Display.Timeout = DefaultDisplayTimeout
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
}

// Validate checks required fields.
func (c *Config) Validate() error {
	if c.Nightscout.URL == "" {
		return errors.New("nightscout.url is required")
	}
	u, err := url.Parse(c.Nightscout.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("nightscout.url %q is not an absolute URL", c.Nightscout.URL)
	}
	if c.Graph.Hours < 0 {
		return fmt.Errorf("graph.hours must not be negative, got %d", c.Graph.Hours)
	}
	if c.Refresh.Interval < time.Second {
		return fmt.Errorf("refresh.interval must be at least 1s, got %s", c.Refresh.Interval)
	}
	if c.Display.Brightness < 0 || c.Display.Brightness > 100 {
		return fmt.Errorf("display.brightness must be between 0 and 100, got %d", c.Display.Brightness)
	}
	return nil
}

// GraphWindow returns the graph duration.
func (c *Config) GraphWindow() time.Duration {
	return time.Duration(c.Graph.Hours) * time.Hour
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getEnvAsInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}
