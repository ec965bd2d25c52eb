// Package sampler turns the output of the browser status-query helper
// into one (status, error) observation per action.
package sampler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"strings"

	"github.com/pgriess/streamdeck-workrooms/internal/action"
	"github.com/pgriess/streamdeck-workrooms/internal/browser"
	"github.com/pgriess/streamdeck-workrooms/internal/metrics"
)

// scriptingDisabled appears on stderr when the browser refuses to run
// JavaScript sent through AppleScript.
const scriptingDisabled = "Executing JavaScript through AppleScript is turned off"

// noSession is the helper's output when no conferencing session exists.
const noSession = "NONE"

// Sample holds one observation per action, indexed by slot.
type Sample [action.Count]action.State

// Fill returns a sample with every slot set to st.
func Fill(st action.State) Sample {
	var s Sample
	for i := range s {
		s[i] = st
	}
	return s
}

// Get returns the observation for a.
func (s Sample) Get(a action.Action) action.State {
	return s[a.Slot()]
}

// Querier runs the status-query helper.
type Querier interface {
	Query(ctx context.Context) (browser.Result, error)
}

// Config holds configuration for a Sampler.
type Config struct {
	Querier Querier
	Metrics metrics.Collector
	// TimingSampleRate is the fraction of queries whose latency is
	// reported. Zero disables the metric.
	TimingSampleRate float64
	// Rand returns a value in [0, 1). Defaults to math/rand/v2.
	Rand   func() float64
	Logger *slog.Logger
}

// Sampler queries the browser once per call.
type Sampler struct {
	querier Querier
	metrics metrics.Collector
	rate    float64
	roll    func() float64
	logger  *slog.Logger
}

// New creates a Sampler.
func New(cfg Config) *Sampler {
	s := &Sampler{
		querier: cfg.Querier,
		metrics: cfg.Metrics,
		rate:    cfg.TimingSampleRate,
		roll:    cfg.Rand,
		logger:  cfg.Logger,
	}
	if s.metrics == nil {
		s.metrics = metrics.Discard{}
	}
	if s.roll == nil {
		s.roll = rand.Float64
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s
}

// Sample runs the query helper and interprets its result. Failures are
// folded into the per-slot error codes; Sample itself never fails.
func (s *Sampler) Sample(ctx context.Context) Sample {
	res, err := s.querier.Query(ctx)

	if s.rate > 0 && s.roll() < s.rate {
		s.metrics.Collect(metrics.Timing("query", "subprocess", res.Duration))
	}

	if err != nil {
		s.logger.Error("query failed", "error", err)
		return Fill(action.State{Status: action.StatusUnknown, Error: action.ErrQueryException})
	}
	if !res.OK() {
		s.logger.Error("query exited with non-zero status",
			"exit_code", res.ExitCode,
			"stdout", strings.TrimSpace(res.Stdout),
			"stderr", strings.TrimSpace(res.Stderr))
	}

	sample, unknown, err := Interpret(res)
	if err != nil {
		s.logger.Error("query returned unexpected output", "error", err)
	}
	for _, tok := range unknown {
		s.logger.Warn("query returned unrecognized status", "token", tok)
	}
	return sample
}

// Interpret converts a completed helper run into a sample. Tokens outside
// the status vocabulary are read as UNKNOWN and returned for logging.
// Output of the wrong shape yields an all-E4 sample and a non-nil error.
func Interpret(res browser.Result) (Sample, []string, error) {
	if !res.OK() {
		code := action.ErrQueryStatus
		if strings.Contains(res.Stderr, scriptingDisabled) {
			code = action.ErrScriptingDisabled
		}
		return Fill(action.State{Status: action.StatusUnknown, Error: code}), nil, nil
	}

	out := strings.TrimSpace(res.Stdout)
	if out == noSession {
		return Fill(action.State{Status: action.StatusNone}), nil, nil
	}

	tokens := strings.Fields(out)
	if len(tokens) != action.Count {
		err := fmt.Errorf("got %d status tokens, want %d: %q", len(tokens), action.Count, out)
		return Fill(action.State{Status: action.StatusUnknown, Error: action.ErrQueryException}), nil, err
	}

	var sample Sample
	var unknown []string
	for i, tok := range tokens {
		st, ok := action.ParseStatus(tok)
		if !ok {
			unknown = append(unknown, tok)
			st = action.StatusUnknown
		}
		sample[i].Status = st
	}

	// Calls without a raise-hand control report it as UNKNOWN; when
	// everything else is definite that just means there is no hand.
	if sample.Get(action.Hand).Status == action.StatusUnknown &&
		sample.Get(action.Mic).Status.Definite() &&
		sample.Get(action.Camera).Status.Definite() &&
		sample.Get(action.Call).Status.Definite() {
		sample[action.Hand.Slot()].Status = action.StatusNone
	}

	for i := range sample {
		if sample[i].Status == action.StatusUnknown {
			sample[i].Error = action.ErrQueryDOM
		}
	}
	return sample, unknown, nil
}
