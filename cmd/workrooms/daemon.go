package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/pgriess/streamdeck-workrooms/internal/action"
	"github.com/pgriess/streamdeck-workrooms/internal/assets"
	"github.com/pgriess/streamdeck-workrooms/internal/browser"
	"github.com/pgriess/streamdeck-workrooms/internal/config"
	"github.com/pgriess/streamdeck-workrooms/internal/daemon"
	"github.com/pgriess/streamdeck-workrooms/internal/identity"
	"github.com/pgriess/streamdeck-workrooms/internal/ipc"
	"github.com/pgriess/streamdeck-workrooms/internal/metrics"
	"github.com/pgriess/streamdeck-workrooms/internal/reconcile"
	"github.com/pgriess/streamdeck-workrooms/internal/sampler"
	"github.com/pgriess/streamdeck-workrooms/internal/session"
	"github.com/pgriess/streamdeck-workrooms/internal/streamdeck"
)

// clientIDTimeout bounds the system_profiler run at startup.
const clientIDTimeout = 10 * time.Second

// verbosity counts repeated -v flags.
type verbosity int

func (v *verbosity) String() string { return strconv.Itoa(int(*v)) }

func (v *verbosity) Set(s string) error {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	if b {
		*v++
	}
	return nil
}

func (v *verbosity) IsBoolFlag() bool { return true }

// level maps the -v count onto a log level. ok is false when no -v was
// given and the configured level applies.
func (v verbosity) level() (slog.Level, bool) {
	switch {
	case v <= 0:
		return 0, false
	case v == 1:
		return slog.LevelWarn, true
	case v == 2:
		return slog.LevelInfo, true
	default:
		return slog.LevelDebug, true
	}
}

type pluginOptions struct {
	port          int
	pluginUUID    string
	registerEvent string
	info          string
	configPath    string
	verbose       verbosity
	quiet         bool
}

func parsePluginFlags(args []string, stderr io.Writer) (*pluginOptions, error) {
	opts := &pluginOptions{}
	fs := flag.NewFlagSet("daemon", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: workrooms [daemon] -port N -pluginUUID U -registerEvent E [-info JSON] [-config PATH] [-v ...]")
		fmt.Fprintln(stderr, "")
		fmt.Fprintln(stderr, "Run the Stream Deck plugin. These flags are supplied by the Stream Deck application.")
		fmt.Fprintln(stderr, "")
		fmt.Fprintln(stderr, "Flags:")
		fs.PrintDefaults()
	}
	fs.IntVar(&opts.port, "port", 0, "Stream Deck WebSocket port")
	fs.StringVar(&opts.pluginUUID, "pluginUUID", "", "Plugin registration UUID")
	fs.StringVar(&opts.registerEvent, "registerEvent", "", "Registration event name")
	fs.StringVar(&opts.info, "info", "", "Stream Deck application info (JSON)")
	fs.StringVar(&opts.configPath, "config", "", "Config file path (default: ~/.config/streamdeck-workrooms/config.yaml)")
	fs.Var(&opts.verbose, "v", "Increase log verbosity (repeatable)")
	fs.BoolVar(&opts.quiet, "q", false, "Only log errors")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if opts.port <= 0 || opts.port > 65535 {
		return nil, fmt.Errorf("-port must be between 1 and 65535")
	}
	if opts.pluginUUID == "" {
		return nil, fmt.Errorf("-pluginUUID is required")
	}
	if opts.registerEvent == "" {
		return nil, fmt.Errorf("-registerEvent is required")
	}
	return opts, nil
}

func parseLogLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newLogger(w io.Writer, cfg *config.Config, opts *pluginOptions) *slog.Logger {
	level := parseLogLevel(cfg.LogLevel)
	if l, ok := opts.verbose.level(); ok {
		level = l
	}
	if opts.quiet {
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func loadConfig(path string) (*config.LoadResult, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFromPath(path)
}

func runDaemon(args []string) int {
	opts, err := parsePluginFlags(args, os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}

	res, err := loadConfig(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	logger := newLogger(os.Stderr, res.Config, opts)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = runPlugin(ctx, res.Config, opts, logger)
	switch {
	case err == nil:
		logger.Info("plugin stopped")
		return 0
	case errors.Is(err, streamdeck.ErrClosed):
		logger.Info("stream deck closed the connection")
		return 0
	default:
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
}

func runPlugin(ctx context.Context, cfg *config.Config, opts *pluginOptions, logger *slog.Logger) error {
	started := time.Now()

	info, err := streamdeck.ParseInfo(opts.info)
	if err != nil {
		logger.Warn("ignoring -info", "error", err)
	}
	version := identity.PluginVersion(info, "manifest.json")
	logger.Info("starting plugin", "version", version, "port", opts.port, "platform", info.Application.Platform)

	images, err := assets.Load(cfg.ImagesDir)
	if err != nil {
		return fmt.Errorf("load images: %w", err)
	}

	sink := metrics.NewSink(metrics.SinkConfig{
		Enabled:    cfg.Analytics.Enabled,
		Endpoint:   cfg.Analytics.Endpoint,
		TrackingID: cfg.Analytics.TrackingID,
		ClientID:   resolveClientID(ctx, cfg, logger).String(),
		AppName:    cfg.Analytics.AppName,
		AppVersion: version,
		Timeout:    cfg.Analytics.Timeout,
		QueueSize:  cfg.Analytics.QueueSize,
		Logger:     logger.With("component", "metrics"),
	})
	sink.Collect(metrics.Launch())

	client, err := streamdeck.Dial(ctx, opts.port)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Register(ctx, opts.registerEvent, opts.pluginUUID); err != nil {
		return err
	}
	logger.Debug("registered with stream deck", "event", opts.registerEvent)

	table := action.NewTable()
	runner := &browser.Runner{
		QueryCommand:  resolveHelper(cfg.QueryCommand),
		QueryTimeout:  cfg.QueryTimeout,
		ToggleCommand: resolveHelper(cfg.ToggleCommand),
		ToggleTimeout: cfg.ToggleTimeout,
	}

	smp := sampler.New(sampler.Config{
		Querier:          runner,
		Metrics:          sink,
		TimingSampleRate: cfg.Analytics.QueryTimingSampleRate,
		Logger:           logger.With("component", "sampler"),
	})
	engine := reconcile.New(reconcile.Config{
		Table:       table,
		Images:      images,
		GracePeriod: cfg.GracePeriod,
		Metrics:     sink,
		Logger:      logger.With("component", "reconcile"),
	})
	dispatcher := session.NewDispatcher(session.DispatcherConfig{
		Table:     table,
		Toggler:   runner,
		Sender:    client,
		Metrics:   sink,
		HelpURL:   cfg.HelpURL,
		ErrorsURL: cfg.ErrorsURL,
		Logger:    logger.With("component", "dispatch"),
	})
	sess := session.New(session.Config{
		Receiver:   client,
		Table:      table,
		Dispatcher: dispatcher,
		Logger:     logger.With("component", "session"),
	})
	poller := daemon.NewPoller(daemon.PollerConfig{
		Interval:   cfg.PollInterval,
		Sampler:    smp,
		Reconciler: engine,
		Sender:     client,
		Logger:     logger.With("component", "poller"),
	})

	sup := daemon.NewSupervisor(logger)
	sup.Add(daemon.TaskPoll, poller.Run)
	sup.Add(daemon.TaskSession, sess.Run)
	sup.Add(daemon.TaskMetrics, sink.Run)

	if cfg.IPC.Enabled {
		view := &daemon.StatusView{
			Version:    version,
			Started:    started,
			Table:      table,
			Supervisor: sup,
			Poller:     poller,
			Session:    sess,
			Analytics:  sink,
		}
		if srv, err := startStatusServer(view, logger); err != nil {
			logger.Warn("status socket disabled", "error", err)
		} else {
			sup.Add(daemon.TaskIPC, srv.Run)
		}
	}

	return sup.Run(ctx)
}

func startStatusServer(view *daemon.StatusView, logger *slog.Logger) (*ipc.Server, error) {
	srv, err := ipc.NewServer(ipc.ServerConfig{
		Provider: view,
		Logger:   logger.With("component", "ipc"),
	})
	if err != nil {
		return nil, err
	}
	if err := srv.Start(); err != nil {
		return nil, err
	}
	return srv, nil
}

// resolveClientID falls back to a per-process random id when the device
// serial cannot be read.
func resolveClientID(ctx context.Context, cfg *config.Config, logger *slog.Logger) uuid.UUID {
	if !cfg.Analytics.Enabled {
		return uuid.New()
	}
	ctx, cancel := context.WithTimeout(ctx, clientIDTimeout)
	defer cancel()
	id, err := identity.ClientID(ctx)
	if err != nil {
		logger.Warn("using random analytics client id", "error", err)
		return uuid.New()
	}
	return id
}

// resolveHelper makes a relative helper path absolute against the working
// directory, which Stream Deck sets to the plugin bundle.
func resolveHelper(argv []string) []string {
	out := append([]string(nil), argv...)
	if len(out) > 0 && !filepath.IsAbs(out[0]) && filepath.Base(out[0]) != out[0] {
		if abs, err := filepath.Abs(out[0]); err == nil {
			out[0] = abs
		}
	}
	return out
}
