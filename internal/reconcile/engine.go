// Package reconcile decides when an observed action state becomes the
// state shown on the Stream Deck, and which surface commands that takes.
//
// Observations are debounced with two speeds. A change to a definite
// status (anything but UNKNOWN) is committed on the pass that first sees
// it. Any other change is held until it has persisted for the grace
// period, so transient polling noise never reaches the display.
package reconcile

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/pgriess/streamdeck-workrooms/internal/action"
	"github.com/pgriess/streamdeck-workrooms/internal/metrics"
	"github.com/pgriess/streamdeck-workrooms/internal/sampler"
	"github.com/pgriess/streamdeck-workrooms/internal/streamdeck"
)

// DefaultGracePeriod is how long an ambiguous change is withheld.
const DefaultGracePeriod = 5 * time.Second

// Images resolves the data URI shown for an action in a given status.
type Images interface {
	Image(a action.Action, s action.Status) string
}

// Config holds configuration for an Engine.
type Config struct {
	Table       *action.Table
	Images      Images
	GracePeriod time.Duration
	Metrics     metrics.Collector
	Logger      *slog.Logger
}

// Engine owns the commit step of every action record.
type Engine struct {
	table   *action.Table
	images  Images
	grace   time.Duration
	metrics metrics.Collector
	logger  *slog.Logger
}

// New creates an Engine.
func New(cfg Config) *Engine {
	e := &Engine{
		table:   cfg.Table,
		images:  cfg.Images,
		grace:   cfg.GracePeriod,
		metrics: cfg.Metrics,
		logger:  cfg.Logger,
	}
	if e.grace <= 0 {
		e.grace = DefaultGracePeriod
	}
	if e.metrics == nil {
		e.metrics = metrics.Discard{}
	}
	if e.logger == nil {
		e.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return e
}

// Reconcile applies one sample taken at now to every action and returns
// the commands to send, grouped by action in slot order. Within an action
// the image update always precedes the title update. The caller sends
// them after Reconcile returns, outside the table lock.
func (e *Engine) Reconcile(sample sampler.Sample, now time.Time) []streamdeck.Command {
	var cmds []streamdeck.Command
	for _, a := range action.All {
		observed := sample.Get(a)
		e.table.Update(a, func(r *action.Record) {
			cmds = append(cmds, e.step(a, observed, now, r)...)
		})
	}
	return cmds
}

func (e *Engine) step(a action.Action, observed action.State, now time.Time, r *action.Record) []streamdeck.Command {
	if !r.Active() {
		return nil
	}

	if observed != r.Next {
		r.Next = observed
		r.NextTime = now
	}
	if r.Next == r.Current {
		return nil
	}

	expired := now.After(r.NextTime.Add(e.grace))
	definite := r.Next.Status != r.Current.Status && r.Next.Status != action.StatusUnknown
	if !expired && !definite {
		return nil
	}

	prev := r.Current
	r.Current = r.Next

	var cmds []streamdeck.Command
	if prev.Status != r.Current.Status {
		e.logger.Info("status changed",
			"action", a.String(),
			"from", prev.Status.String(),
			"to", r.Current.Status.String())
		cmds = append(cmds, streamdeck.SetImage(r.Context, e.images.Image(a, r.Current.Status)))

		if !r.Current.Status.Known() {
			e.metrics.Collect(metrics.Exception(fmt.Sprintf("%sUnexpectedState%s", a.Title(), r.Current.Status)))
		}
		// Any change into On/Off is timed, including the plain On/Off flip.
		if r.Current.Status.Definite() && !r.ActionTime.IsZero() {
			e.metrics.Collect(metrics.Timing("toggle", a.String(), now.Sub(r.ActionTime)))
		}
		r.ActionTime = time.Time{}
	}

	if prev.Error != r.Current.Error {
		e.logger.Info("error changed",
			"action", a.String(),
			"from", prev.Error.String(),
			"to", r.Current.Error.String())
		cmds = append(cmds, streamdeck.SetTitle(r.Context, r.Current.Error.String()))

		if r.Current.Error != action.NoError {
			e.metrics.Collect(metrics.Exception(fmt.Sprintf("%sError%s", a.Title(), r.Current.Error)))
		}
	}
	return cmds
}
