package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Fetch modes.
const (
	ModeAggregate = "aggregate"
	ModeProbe     = "probe"
)

const (
	defaultTitle          = "Service Discovery Demo"
	defaultGatewayURL     = "http://localhost:8000"
	defaultListenAddr     = ":8080"
	defaultPollInterval   = 3000
	defaultClockInterval  = 100
	defaultRequestTimeout = 1500
)

// ErrInvalidConfig is returned by Validate for unusable settings.
var ErrInvalidConfig = errors.New("invalid config")

// Config represents configuration data for the dashboard.
type Config struct {
	Title            string   `yaml:"title"`
	GatewayURL       string   `yaml:"gateway_url"`
	ListenAddr       string   `yaml:"listen_addr"`
	Mode             string   `yaml:"mode"`
	Services         []string `yaml:"services"`
	PollIntervalMS   int      `yaml:"poll_interval_ms"`
	ClockIntervalMS  int      `yaml:"clock_interval_ms"`
	RequestTimeoutMS int      `yaml:"request_timeout_ms"`
	ProbeTimeoutMS   int      `yaml:"probe_timeout_ms"`
	PushIntervalMS   int      `yaml:"push_interval_ms"`
	UptimeWindow     int      `yaml:"uptime_window"`
}

// DefaultConfig returns sensible defaults in case no configuration file is provided.
func DefaultConfig() Config {
	return Config{
		Title:            defaultTitle,
		GatewayURL:       defaultGatewayURL,
		ListenAddr:       defaultListenAddr,
		Mode:             ModeAggregate,
		Services:         []string{"service-a", "service-b", "service-c"},
		PollIntervalMS:   defaultPollInterval,
		ClockIntervalMS:  defaultClockInterval,
		RequestTimeoutMS: defaultRequestTimeout,
		PushIntervalMS:   defaultClockInterval,
		UptimeWindow:     100,
	}
}

// Load reads configuration from yaml file. Missing files fall back to defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.Title == "" {
		c.Title = def.Title
	}
	if c.ListenAddr == "" {
		c.ListenAddr = def.ListenAddr
	}
	if c.Mode == "" {
		c.Mode = def.Mode
	}
	if c.PollIntervalMS <= 0 {
		c.PollIntervalMS = def.PollIntervalMS
	}
	if c.ClockIntervalMS <= 0 {
		c.ClockIntervalMS = def.ClockIntervalMS
	}
	if c.RequestTimeoutMS <= 0 {
		c.RequestTimeoutMS = def.RequestTimeoutMS
	}
	if c.ProbeTimeoutMS < 0 {
		c.ProbeTimeoutMS = 0
	}
	if c.PushIntervalMS <= 0 {
		c.PushIntervalMS = c.ClockIntervalMS
	}
	if c.UptimeWindow <= 0 {
		c.UptimeWindow = def.UptimeWindow
	}
}

// Validate checks that the configuration can drive a dashboard.
func (c *Config) Validate() error {
	c.applyDefaults()
	c.GatewayURL = strings.TrimSuffix(strings.TrimSpace(c.GatewayURL), "/")
	if c.GatewayURL == "" {
		return fmt.Errorf("%w: gateway_url is required", ErrInvalidConfig)
	}
	u, err := url.Parse(c.GatewayURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: gateway_url %q is not an absolute url", ErrInvalidConfig, c.GatewayURL)
	}
	switch c.Mode {
	case ModeAggregate:
	case ModeProbe:
		if len(c.Services) == 0 {
			return fmt.Errorf("%w: probe mode needs at least one service name", ErrInvalidConfig)
		}
		for i, name := range c.Services {
			if strings.TrimSpace(name) == "" {
				return fmt.Errorf("%w: service %d has an empty name", ErrInvalidConfig, i)
			}
		}
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, c.Mode)
	}
	return nil
}

// PollInterval is the fetch cadence.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// ClockInterval is the display clock cadence.
func (c Config) ClockInterval() time.Duration {
	return time.Duration(c.ClockIntervalMS) * time.Millisecond
}

// RequestTimeout bounds each aggregate request.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

// ProbeTimeout bounds each per-service probe. Zero means no timeout.
func (c Config) ProbeTimeout() time.Duration {
	return time.Duration(c.ProbeTimeoutMS) * time.Millisecond
}

// PushInterval throttles websocket pushes.
func (c Config) PushInterval() time.Duration {
	return time.Duration(c.PushIntervalMS) * time.Millisecond
}
