package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

type RawAnalyticsConfig struct {
	Enabled               *bool          `yaml:"enabled"`
	Endpoint              *string        `yaml:"endpoint"`
	TrackingID            *string        `yaml:"tracking_id"`
	AppName               *string        `yaml:"app_name"`
	Timeout               *time.Duration `yaml:"timeout"`
	QueueSize             *int           `yaml:"queue_size"`
	QueryTimingSampleRate *float64       `yaml:"query_timing_sample_rate"`
}

type RawIPCConfig struct {
	Enabled *bool `yaml:"enabled"`
}

// RawConfig mirrors a config file. Nil fields were not set and fall back
// to earlier files or the defaults.
type RawConfig struct {
	Include       IncludeList         `yaml:"include"`
	LogLevel      *string             `yaml:"log_level"`
	PollInterval  *time.Duration      `yaml:"poll_interval"`
	GracePeriod   *time.Duration      `yaml:"grace_period"`
	QueryCommand  []string            `yaml:"query_command"`
	QueryTimeout  *time.Duration      `yaml:"query_timeout"`
	ToggleCommand []string            `yaml:"toggle_command"`
	ToggleTimeout *time.Duration      `yaml:"toggle_timeout"`
	ImagesDir     *string             `yaml:"images_dir"`
	HelpURL       *string             `yaml:"help_url"`
	ErrorsURL     *string             `yaml:"errors_url"`
	Analytics     *RawAnalyticsConfig `yaml:"analytics"`
	IPC           *RawIPCConfig       `yaml:"ipc"`
}

func (c RawConfig) merge(overlay RawConfig) RawConfig {
	out := c

	if overlay.LogLevel != nil {
		out.LogLevel = overlay.LogLevel
	}
	if overlay.PollInterval != nil {
		out.PollInterval = overlay.PollInterval
	}
	if overlay.GracePeriod != nil {
		out.GracePeriod = overlay.GracePeriod
	}
	if overlay.QueryCommand != nil {
		out.QueryCommand = overlay.QueryCommand
	}
	if overlay.QueryTimeout != nil {
		out.QueryTimeout = overlay.QueryTimeout
	}
	if overlay.ToggleCommand != nil {
		out.ToggleCommand = overlay.ToggleCommand
	}
	if overlay.ToggleTimeout != nil {
		out.ToggleTimeout = overlay.ToggleTimeout
	}
	if overlay.ImagesDir != nil {
		out.ImagesDir = overlay.ImagesDir
	}
	if overlay.HelpURL != nil {
		out.HelpURL = overlay.HelpURL
	}
	if overlay.ErrorsURL != nil {
		out.ErrorsURL = overlay.ErrorsURL
	}
	if overlay.Analytics != nil {
		base := RawAnalyticsConfig{}
		if out.Analytics != nil {
			base = *out.Analytics
		}
		merged := mergeRawAnalytics(base, *overlay.Analytics)
		out.Analytics = &merged
	}
	if overlay.IPC != nil {
		merged := RawIPCConfig{}
		if out.IPC != nil {
			merged = *out.IPC
		}
		if overlay.IPC.Enabled != nil {
			merged.Enabled = overlay.IPC.Enabled
		}
		out.IPC = &merged
	}
	return out
}

func mergeRawAnalytics(base RawAnalyticsConfig, overlay RawAnalyticsConfig) RawAnalyticsConfig {
	out := base
	if overlay.Enabled != nil {
		out.Enabled = overlay.Enabled
	}
	if overlay.Endpoint != nil {
		out.Endpoint = overlay.Endpoint
	}
	if overlay.TrackingID != nil {
		out.TrackingID = overlay.TrackingID
	}
	if overlay.AppName != nil {
		out.AppName = overlay.AppName
	}
	if overlay.Timeout != nil {
		out.Timeout = overlay.Timeout
	}
	if overlay.QueueSize != nil {
		out.QueueSize = overlay.QueueSize
	}
	if overlay.QueryTimingSampleRate != nil {
		out.QueryTimingSampleRate = overlay.QueryTimingSampleRate
	}
	return out
}
