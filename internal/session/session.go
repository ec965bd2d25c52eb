// Package session runs the single receive loop on the Stream Deck
// connection. It tracks which actions are on screen and hands key
// presses to the Dispatcher.
package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/pgriess/streamdeck-workrooms/internal/action"
	"github.com/pgriess/streamdeck-workrooms/internal/streamdeck"
)

// Config holds configuration for a Session.
type Config struct {
	Receiver   streamdeck.Receiver
	Table      *action.Table
	Dispatcher *Dispatcher
	Now        func() time.Time
	Logger     *slog.Logger
}

// Session is the only reader of the connection.
type Session struct {
	receiver   streamdeck.Receiver
	table      *action.Table
	dispatcher *Dispatcher
	now        func() time.Time
	logger     *slog.Logger

	received atomic.Uint64
}

// New creates a Session.
func New(cfg Config) *Session {
	s := &Session{
		receiver:   cfg.Receiver,
		table:      cfg.Table,
		dispatcher: cfg.Dispatcher,
		now:        cfg.Now,
		logger:     cfg.Logger,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s
}

// Received returns the number of events read so far.
func (s *Session) Received() uint64 {
	return s.received.Load()
}

// Run reads events until the connection fails or ctx is cancelled.
// Malformed frames are logged and skipped. Any other receive error is
// returned; streamdeck.ErrClosed means the application closed the
// connection normally.
func (s *Session) Run(ctx context.Context) error {
	s.logger.Debug("session started")
	for {
		ev, err := s.receiver.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				s.logger.Debug("session stopped")
				return nil
			}
			var perr *streamdeck.ProtocolError
			if errors.As(err, &perr) {
				s.logger.Warn("ignoring malformed frame", "error", perr.Err, "frame", string(perr.Frame))
				continue
			}
			return err
		}
		s.received.Add(1)
		s.Handle(ctx, ev)
	}
}

// Handle applies one inbound event.
func (s *Session) Handle(ctx context.Context, ev streamdeck.Event) {
	switch ev.Event {
	case streamdeck.EventWillAppear, streamdeck.EventWillDisappear, streamdeck.EventKeyUp:
	default:
		s.logger.Debug("ignoring event", "event", string(ev.Event), "action", ev.Action)
		return
	}
	if ev.Action == "" {
		s.logger.Debug("ignoring event without action", "event", string(ev.Event))
		return
	}
	a, ok := action.Parse(ev.Action)
	if !ok {
		s.logger.Warn("ignoring event for unknown action", "event", string(ev.Event), "action", ev.Action)
		return
	}

	switch ev.Event {
	case streamdeck.EventWillAppear:
		s.logger.Debug("action appeared", "action", a.String(), "context", ev.Context)
		s.table.Appear(a, ev.Context)

	case streamdeck.EventWillDisappear:
		s.logger.Debug("action disappeared", "action", a.String(), "context", ev.Context)
		s.table.Disappear(a, s.now())

	case streamdeck.EventKeyUp:
		outcome, err := s.dispatcher.KeyUp(ctx, a, ev.Context)
		if err != nil {
			s.logger.Error("failed to send command", "action", a.String(), "error", err)
			return
		}
		s.logger.Debug("key press handled", "action", a.String(), "outcome", outcome.String())
	}
}
