package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/pgriess/streamdeck-workrooms/internal/action"
	"github.com/pgriess/streamdeck-workrooms/internal/browser"
	"github.com/pgriess/streamdeck-workrooms/internal/metrics"
	"github.com/pgriess/streamdeck-workrooms/internal/streamdeck"
)

// Default help pages.
const (
	DefaultHelpURL   = "https://github.com/pgriess/streamdeck-workrooms/wiki/Help"
	DefaultErrorsURL = "https://github.com/pgriess/streamdeck-workrooms/wiki/Errors"
)

// Toggler runs the toggle helper for one action.
type Toggler interface {
	Toggle(ctx context.Context, a action.Action) (browser.Result, error)
}

// Outcome describes what a key press did.
type Outcome int

const (
	// Ignored means the state was not yet known.
	Ignored Outcome = iota
	// ShowedHelp means a help page was opened instead of toggling.
	ShowedHelp
	// Toggled means the toggle helper succeeded.
	Toggled
	// ToggleFailed means the toggle helper failed or could not run.
	ToggleFailed
)

func (o Outcome) String() string {
	switch o {
	case Ignored:
		return "ignored"
	case ShowedHelp:
		return "showed-help"
	case Toggled:
		return "toggled"
	case ToggleFailed:
		return "toggle-failed"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// DispatcherConfig holds configuration for a Dispatcher.
type DispatcherConfig struct {
	Table   *action.Table
	Toggler Toggler
	Sender  streamdeck.Sender
	Metrics metrics.Collector

	HelpURL   string
	ErrorsURL string

	Now    func() time.Time
	Logger *slog.Logger
}

// Dispatcher handles key presses.
type Dispatcher struct {
	table     *action.Table
	toggler   Toggler
	sender    streamdeck.Sender
	metrics   metrics.Collector
	helpURL   string
	errorsURL string
	now       func() time.Time
	logger    *slog.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	d := &Dispatcher{
		table:     cfg.Table,
		toggler:   cfg.Toggler,
		sender:    cfg.Sender,
		metrics:   cfg.Metrics,
		helpURL:   cfg.HelpURL,
		errorsURL: cfg.ErrorsURL,
		now:       cfg.Now,
		logger:    cfg.Logger,
	}
	if d.helpURL == "" {
		d.helpURL = DefaultHelpURL
	}
	if d.errorsURL == "" {
		d.errorsURL = DefaultErrorsURL
	}
	if d.metrics == nil {
		d.metrics = metrics.Discard{}
	}
	if d.now == nil {
		d.now = time.Now
	}
	if d.logger == nil {
		d.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return d
}

// ErrorURL returns the help page for an error code.
func (d *Dispatcher) ErrorURL(code action.ErrorCode) string {
	return d.errorsURL + "#" + strings.ToLower(code.String())
}

// KeyUp reacts to a key press on a, displayed at target. A toggle is
// only attempted when the committed state is a real reading without an
// error; otherwise the user is sent to the relevant help page. The
// returned error reports a failure to write to the surface.
func (d *Dispatcher) KeyUp(ctx context.Context, a action.Action, target string) (Outcome, error) {
	current := d.table.Snapshot(a).Current

	switch {
	case current.Status == action.StatusAbsent:
		d.logger.Debug("key press before state is known", "action", a.String())
		return Ignored, nil

	case current.Error != action.NoError:
		url := d.ErrorURL(current.Error)
		d.logger.Info("opening error help", "action", a.String(), "code", current.Error.String())
		return ShowedHelp, d.sender.Send(ctx, streamdeck.OpenURL(target, url))

	case current.Status == action.StatusNone || current.Status == action.StatusUnknown:
		d.logger.Info("opening help", "action", a.String(), "status", current.Status.String())
		return ShowedHelp, d.sender.Send(ctx, streamdeck.OpenURL(target, d.helpURL))
	}

	d.logger.Info("toggling", "action", a.String(), "status", current.Status.String())
	pressed := d.now()
	res, err := d.toggler.Toggle(ctx, a)
	if err == nil && !res.OK() {
		err = fmt.Errorf("exit status %d", res.ExitCode)
	}
	if err != nil {
		d.logger.Error("toggle failed",
			"action", a.String(),
			"error", err,
			"stdout", strings.TrimSpace(res.Stdout),
			"stderr", strings.TrimSpace(res.Stderr))
		d.metrics.Collect(metrics.Exception(a.Title() + "ToggleFailed"))
		return ToggleFailed, nil
	}

	if !d.table.MarkToggled(a, current.Status, pressed) {
		d.logger.Debug("toggle committed before helper returned", "action", a.String())
	}
	d.metrics.Collect(metrics.Hit("Actions", a.Title()))
	return Toggled, nil
}
