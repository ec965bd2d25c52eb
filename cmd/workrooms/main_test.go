package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pgriess/streamdeck-workrooms/internal/action"
	"github.com/pgriess/streamdeck-workrooms/internal/config"
	"github.com/pgriess/streamdeck-workrooms/internal/ipc"
	"github.com/pgriess/streamdeck-workrooms/internal/metrics"
)

func TestParsePluginFlags(t *testing.T) {
	args := []string{
		"-port", "28196",
		"-pluginUUID", "ABC123",
		"-registerEvent", "registerPlugin",
		"-info", `{"plugin":{"version":"1.4"}}`,
		"-v", "-v",
	}
	opts, err := parsePluginFlags(args, io.Discard)
	if err != nil {
		t.Fatalf("parsePluginFlags() error: %v", err)
	}
	if opts.port != 28196 || opts.pluginUUID != "ABC123" || opts.registerEvent != "registerPlugin" {
		t.Fatalf("parsePluginFlags() = %+v", opts)
	}
	if opts.verbose != 2 {
		t.Fatalf("verbose = %d, want 2", opts.verbose)
	}
}

func TestParsePluginFlags_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing port", []string{"-pluginUUID", "u", "-registerEvent", "e"}},
		{"port out of range", []string{"-port", "70000", "-pluginUUID", "u", "-registerEvent", "e"}},
		{"missing uuid", []string{"-port", "1", "-registerEvent", "e"}},
		{"missing event", []string{"-port", "1", "-pluginUUID", "u"}},
		{"positional", []string{"-port", "1", "-pluginUUID", "u", "-registerEvent", "e", "extra"}},
		{"unknown flag", []string{"-port", "1", "-pluginUUID", "u", "-registerEvent", "e", "-bogus"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parsePluginFlags(tt.args, io.Discard); err == nil {
				t.Fatalf("parsePluginFlags(%v) expected error", tt.args)
			}
		})
	}

	if _, err := parsePluginFlags([]string{"-h"}, io.Discard); !errors.Is(err, flag.ErrHelp) {
		t.Fatalf("parsePluginFlags(-h) error = %v, want flag.ErrHelp", err)
	}
}

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name     string
		cfgLevel string
		verbose  verbosity
		quiet    bool
		want     slog.Level
	}{
		{"config info", "info", 0, false, slog.LevelInfo},
		{"config debug", "debug", 0, false, slog.LevelDebug},
		{"one v", "debug", 1, false, slog.LevelWarn},
		{"two v", "error", 2, false, slog.LevelInfo},
		{"three v", "error", 3, false, slog.LevelDebug},
		{"many v", "error", 7, false, slog.LevelDebug},
		{"quiet wins", "debug", 3, true, slog.LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.LogLevel = tt.cfgLevel
			logger := newLogger(io.Discard, cfg, &pluginOptions{verbose: tt.verbose, quiet: tt.quiet})
			ctx := context.Background()
			if !logger.Enabled(ctx, tt.want) {
				t.Fatalf("level %v not enabled", tt.want)
			}
			if logger.Enabled(ctx, tt.want-1) {
				t.Fatalf("level %v enabled, want minimum %v", tt.want-1, tt.want)
			}
		})
	}
}

func TestResolveHelper(t *testing.T) {
	wd, err := filepath.Abs(".")
	if err != nil {
		t.Fatalf("Abs: %v", err)
	}
	tests := []struct {
		in   []string
		want []string
	}{
		{[]string{"./query_browser_state.osa"}, []string{filepath.Join(wd, "query_browser_state.osa")}},
		{[]string{"/usr/bin/osascript", "q.scpt"}, []string{"/usr/bin/osascript", "q.scpt"}},
		{[]string{"osascript", "./q.scpt"}, []string{"osascript", "./q.scpt"}},
	}
	for _, tt := range tests {
		got := resolveHelper(tt.in)
		if strings.Join(got, " ") != strings.Join(tt.want, " ") {
			t.Errorf("resolveHelper(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFormatSource(t *testing.T) {
	tests := []struct {
		src  config.Source
		want string
	}{
		{config.Source{Kind: config.SourceFile, File: "/c.yaml", Line: 3, Column: 5}, "file:/c.yaml:3:5"},
		{config.Source{Kind: config.SourceFile, File: "/c.yaml"}, "file:/c.yaml"},
		{config.Source{Kind: config.SourceDefault, Name: "defaults"}, "default:defaults"},
		{config.Source{Kind: config.SourceDefault}, "default"},
	}
	for _, tt := range tests {
		if got := formatSource(tt.src); got != tt.want {
			t.Errorf("formatSource(%+v) = %q, want %q", tt.src, got, tt.want)
		}
	}
}

func TestRenderStatus(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	tbl := action.NewTable()
	tbl.Appear(action.Mic, "ctx-mic")
	tbl.Update(action.Mic, func(r *action.Record) {
		r.Current = action.State{Status: action.StatusOn}
		r.Next = action.State{Status: action.StatusOff}
	})
	tbl.MarkToggled(action.Mic, action.StatusOn, now.Add(-2*time.Second))
	tbl.Appear(action.Camera, "ctx-camera")
	tbl.Update(action.Camera, func(r *action.Record) {
		r.Current = action.State{Status: action.StatusUnknown, Error: action.ErrQueryDOM}
	})

	status := &ipc.StatusData{
		PluginVersion:  "1.4",
		UptimeSeconds:  3725,
		Connected:      true,
		EventsReceived: 12345,
		LastPoll:       now.Add(-3 * time.Second),
		Analytics:      metrics.Stats{Enabled: true, Sent: 1500, Dropped: 2},
	}
	actions := ipc.NewActionsData(tbl.Snapshots())

	var buf bytes.Buffer
	renderStatus(&buf, status, &actions, now, false)
	out := buf.String()

	for _, want := range []string{
		"version:   1.4",
		"uptime:    1h2m5s",
		"connected: yes",
		"events:    12,345",
		"last poll: 3 seconds ago",
		"sent 1,500, failed 0, dropped 2",
		"UNKNOWN E2",
		"toggled 2 seconds ago",
		"not on deck",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("renderStatus() missing %q in:\n%s", want, out)
		}
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	last := lines[len(lines)-1]
	if !strings.HasPrefix(last, "call") {
		t.Errorf("last line = %q, want call row", last)
	}
}
