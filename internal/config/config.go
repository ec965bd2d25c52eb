package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the effective daemon configuration.
type Config struct {
	LogLevel     string        `yaml:"log_level"`
	PollInterval time.Duration `yaml:"poll_interval"`
	GracePeriod  time.Duration `yaml:"grace_period"`

	QueryCommand  []string      `yaml:"query_command"`
	QueryTimeout  time.Duration `yaml:"query_timeout"`
	ToggleCommand []string      `yaml:"toggle_command"`
	ToggleTimeout time.Duration `yaml:"toggle_timeout"`

	ImagesDir string `yaml:"images_dir"`
	HelpURL   string `yaml:"help_url"`
	ErrorsURL string `yaml:"errors_url"`

	Analytics AnalyticsConfig `yaml:"analytics"`
	IPC       IPCConfig       `yaml:"ipc"`
}

// AnalyticsConfig controls the usage metrics sink.
type AnalyticsConfig struct {
	Enabled               bool          `yaml:"enabled"`
	Endpoint              string        `yaml:"endpoint"`
	TrackingID            string        `yaml:"tracking_id"`
	AppName               string        `yaml:"app_name"`
	Timeout               time.Duration `yaml:"timeout"`
	QueueSize             int           `yaml:"queue_size"`
	QueryTimingSampleRate float64       `yaml:"query_timing_sample_rate"`
}

// IPCConfig controls the local status socket.
type IPCConfig struct {
	Enabled bool `yaml:"enabled"`
}

func DefaultConfig() *Config {
	return &Config{
		LogLevel:      "info",
		PollInterval:  time.Second,
		GracePeriod:   5 * time.Second,
		QueryCommand:  []string{"./query_browser_state.osa"},
		QueryTimeout:  10 * time.Second,
		ToggleCommand: []string{"./toggle_browser_state.osa"},
		ToggleTimeout: 10 * time.Second,
		ImagesDir:     ".",
		HelpURL:       "https://github.com/pgriess/streamdeck-workrooms/wiki/Help",
		ErrorsURL:     "https://github.com/pgriess/streamdeck-workrooms/wiki/Errors",
		Analytics: AnalyticsConfig{
			Enabled:               false,
			Endpoint:              "https://www.google-analytics.com/collect",
			TrackingID:            "UA-18586119-5",
			AppName:               "StreamDeckWorkrooms",
			Timeout:               5 * time.Second,
			QueueSize:             256,
			QueryTimingSampleRate: 0.01,
		},
		IPC: IPCConfig{Enabled: true},
	}
}

func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "streamdeck-workrooms", "config.yaml"), nil
}

// Validate performs strict validation of the effective configuration.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warning", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warning, error")}
	}
	if c.PollInterval <= 0 {
		return &ValidationError{Path: "poll_interval", Err: fmt.Errorf("poll_interval must be > 0")}
	}
	if c.GracePeriod <= 0 {
		return &ValidationError{Path: "grace_period", Err: fmt.Errorf("grace_period must be > 0")}
	}
	if err := validateCommand("query_command", c.QueryCommand); err != nil {
		return err
	}
	if err := validateCommand("toggle_command", c.ToggleCommand); err != nil {
		return err
	}
	if c.QueryTimeout <= 0 {
		return &ValidationError{Path: "query_timeout", Err: fmt.Errorf("query_timeout must be > 0")}
	}
	if c.ToggleTimeout <= 0 {
		return &ValidationError{Path: "toggle_timeout", Err: fmt.Errorf("toggle_timeout must be > 0")}
	}
	if strings.TrimSpace(c.ImagesDir) == "" {
		return &ValidationError{Path: "images_dir", Err: fmt.Errorf("images_dir is required")}
	}
	if err := validateURL("help_url", c.HelpURL); err != nil {
		return err
	}
	if err := validateURL("errors_url", c.ErrorsURL); err != nil {
		return err
	}

	a := c.Analytics
	if a.Enabled {
		if err := validateURL("analytics.endpoint", a.Endpoint); err != nil {
			return err
		}
		if strings.TrimSpace(a.TrackingID) == "" {
			return &ValidationError{Path: "analytics.tracking_id", Err: fmt.Errorf("tracking_id is required when analytics is enabled")}
		}
	}
	if strings.TrimSpace(a.AppName) == "" {
		return &ValidationError{Path: "analytics.app_name", Err: fmt.Errorf("app_name is required")}
	}
	if a.Timeout <= 0 {
		return &ValidationError{Path: "analytics.timeout", Err: fmt.Errorf("timeout must be > 0")}
	}
	if a.QueueSize <= 0 {
		return &ValidationError{Path: "analytics.queue_size", Err: fmt.Errorf("queue_size must be > 0")}
	}
	if a.QueryTimingSampleRate < 0 || a.QueryTimingSampleRate > 1 {
		return &ValidationError{Path: "analytics.query_timing_sample_rate", Err: fmt.Errorf("query_timing_sample_rate must be between 0 and 1")}
	}
	return nil
}

func validateCommand(path string, argv []string) error {
	if len(argv) == 0 || strings.TrimSpace(argv[0]) == "" {
		return &ValidationError{Path: path, Err: fmt.Errorf("%s must name a program", path)}
	}
	return nil
}

func validateURL(path, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return &ValidationError{Path: path, Err: err}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &ValidationError{Path: path, Err: fmt.Errorf("%s must be an http or https URL", path)}
	}
	return nil
}

// Marshal renders the effective configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
