package daemon

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/pgriess/streamdeck-workrooms/internal/sampler"
	"github.com/pgriess/streamdeck-workrooms/internal/streamdeck"
)

// DefaultPollInterval is the time between browser queries.
const DefaultPollInterval = time.Second

// StateSampler takes one observation of every action.
type StateSampler interface {
	Sample(ctx context.Context) sampler.Sample
}

// Reconciler folds an observation into the action table and returns the
// commands that bring the surface up to date.
type Reconciler interface {
	Reconcile(sample sampler.Sample, now time.Time) []streamdeck.Command
}

// PollerConfig holds configuration for the poller.
type PollerConfig struct {
	Interval   time.Duration
	Sampler    StateSampler
	Reconciler Reconciler
	Sender     streamdeck.Sender
	Now        func() time.Time
	Logger     *slog.Logger
}

// Poller periodically samples the browser and pushes state changes to the
// Stream Deck.
type Poller struct {
	interval   time.Duration
	sampler    StateSampler
	reconciler Reconciler
	sender     streamdeck.Sender
	now        func() time.Time
	logger     *slog.Logger

	passes   atomic.Uint64
	lastPoll atomic.Int64
}

// NewPoller creates a new poller with the given configuration.
func NewPoller(cfg PollerConfig) *Poller {
	p := &Poller{
		interval:   cfg.Interval,
		sampler:    cfg.Sampler,
		reconciler: cfg.Reconciler,
		sender:     cfg.Sender,
		now:        cfg.Now,
		logger:     cfg.Logger,
	}
	if p.interval <= 0 {
		p.interval = DefaultPollInterval
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.logger == nil {
		p.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return p
}

// Run polls until ctx is cancelled or a pass fails. A failed send or a
// panic inside a pass is returned; cancellation returns nil.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Info("poller started", "interval", p.interval)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("poller stopped")
			return nil
		case <-ticker.C:
			if err := p.PollNow(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
		}
	}
}

// PollNow performs a single pass.
func (p *Poller) PollNow(ctx context.Context) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			p.logger.Error("poll pass panicked", "panic", rec)
			err = fmt.Errorf("poll pass panicked: %v", rec)
		}
	}()

	sample := p.sampler.Sample(ctx)
	now := p.now()
	cmds := p.reconciler.Reconcile(sample, now)

	p.passes.Add(1)
	p.lastPoll.Store(now.UnixNano())

	for _, cmd := range cmds {
		p.logger.Debug("sending command", "event", cmd.Event, "context", cmd.Context)
		if err := p.sender.Send(ctx, cmd); err != nil {
			return fmt.Errorf("send %s: %w", cmd.Event, err)
		}
	}
	return nil
}

// Passes returns the number of completed passes.
func (p *Poller) Passes() uint64 {
	return p.passes.Load()
}

// LastPoll returns the time of the most recent pass, or the zero time.
func (p *Poller) LastPoll() time.Time {
	ns := p.lastPoll.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}
