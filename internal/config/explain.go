package config

import (
	"fmt"
	"strings"
)

// Explain returns the effective value at the given YAML-like path and its source.
//
// Supported paths are the top-level keys plus analytics.<key> and
// ipc.enabled, for example:
//
//	poll_interval
//	query_command
//	analytics.enabled
//	analytics.query_timing_sample_rate
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}
	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}
	return value, Source{Kind: SourceDefault, Name: "defaults"}, nil
}

func lookupValue(cfg *Config, path string) (any, error) {
	section, key, nested := strings.Cut(path, ".")
	if !nested {
		switch section {
		case "log_level":
			return cfg.LogLevel, nil
		case "poll_interval":
			return cfg.PollInterval, nil
		case "grace_period":
			return cfg.GracePeriod, nil
		case "query_command":
			return cfg.QueryCommand, nil
		case "query_timeout":
			return cfg.QueryTimeout, nil
		case "toggle_command":
			return cfg.ToggleCommand, nil
		case "toggle_timeout":
			return cfg.ToggleTimeout, nil
		case "images_dir":
			return cfg.ImagesDir, nil
		case "help_url":
			return cfg.HelpURL, nil
		case "errors_url":
			return cfg.ErrorsURL, nil
		case "analytics":
			return cfg.Analytics, nil
		case "ipc":
			return cfg.IPC, nil
		}
		return nil, fmt.Errorf("unknown config path %q", path)
	}

	switch section {
	case "analytics":
		a := cfg.Analytics
		switch key {
		case "enabled":
			return a.Enabled, nil
		case "endpoint":
			return a.Endpoint, nil
		case "tracking_id":
			return a.TrackingID, nil
		case "app_name":
			return a.AppName, nil
		case "timeout":
			return a.Timeout, nil
		case "queue_size":
			return a.QueueSize, nil
		case "query_timing_sample_rate":
			return a.QueryTimingSampleRate, nil
		}
	case "ipc":
		if key == "enabled" {
			return cfg.IPC.Enabled, nil
		}
	}
	return nil, fmt.Errorf("unknown config path %q", path)
}
