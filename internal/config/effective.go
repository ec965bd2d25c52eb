package config

import (
	"fmt"
)

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// BuildEffectiveConfig applies raw on top of the defaults.
func BuildEffectiveConfig(raw RawConfig) (*Config, error) {
	cfg := DefaultConfig()

	if raw.LogLevel != nil {
		cfg.LogLevel = *raw.LogLevel
	}
	if raw.PollInterval != nil {
		cfg.PollInterval = *raw.PollInterval
	}
	if raw.GracePeriod != nil {
		cfg.GracePeriod = *raw.GracePeriod
	}
	if raw.QueryCommand != nil {
		cfg.QueryCommand = append([]string(nil), raw.QueryCommand...)
	}
	if raw.QueryTimeout != nil {
		cfg.QueryTimeout = *raw.QueryTimeout
	}
	if raw.ToggleCommand != nil {
		cfg.ToggleCommand = append([]string(nil), raw.ToggleCommand...)
	}
	if raw.ToggleTimeout != nil {
		cfg.ToggleTimeout = *raw.ToggleTimeout
	}
	if raw.ImagesDir != nil {
		cfg.ImagesDir = *raw.ImagesDir
	}
	if raw.HelpURL != nil {
		cfg.HelpURL = *raw.HelpURL
	}
	if raw.ErrorsURL != nil {
		cfg.ErrorsURL = *raw.ErrorsURL
	}

	if a := raw.Analytics; a != nil {
		if a.Enabled != nil {
			cfg.Analytics.Enabled = *a.Enabled
		}
		if a.Endpoint != nil {
			cfg.Analytics.Endpoint = *a.Endpoint
		}
		if a.TrackingID != nil {
			cfg.Analytics.TrackingID = *a.TrackingID
		}
		if a.AppName != nil {
			cfg.Analytics.AppName = *a.AppName
		}
		if a.Timeout != nil {
			cfg.Analytics.Timeout = *a.Timeout
		}
		if a.QueueSize != nil {
			cfg.Analytics.QueueSize = *a.QueueSize
		}
		if a.QueryTimingSampleRate != nil {
			cfg.Analytics.QueryTimingSampleRate = *a.QueryTimingSampleRate
		}
	}

	if raw.IPC != nil && raw.IPC.Enabled != nil {
		cfg.IPC.Enabled = *raw.IPC.Enabled
	}

	return cfg, nil
}
