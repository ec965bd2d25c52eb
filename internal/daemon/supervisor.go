package daemon

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Supervisor runs the daemon's long-lived tasks as one group. The first
// task to fail cancels the rest, and its error is returned from Run.
type Supervisor struct {
	logger *slog.Logger

	mu      sync.Mutex
	tasks   []task
	running map[string]bool
}

type task struct {
	name string
	run  func(ctx context.Context) error
}

// NewSupervisor creates an empty supervisor.
func NewSupervisor(logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Supervisor{
		logger:  logger,
		running: make(map[string]bool),
	}
}

// Add registers a task. Tasks must return nil when ctx is cancelled; a task
// that returns nil while ctx is still live is treated as a failure.
func (s *Supervisor) Add(name string, run func(ctx context.Context) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, task{name: name, run: run})
}

// Running reports whether the named task is currently executing.
func (s *Supervisor) Running(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running[name]
}

// Run starts every task and blocks until all have returned.
func (s *Supervisor) Run(ctx context.Context) error {
	s.mu.Lock()
	tasks := append([]task(nil), s.tasks...)
	for _, t := range tasks {
		s.running[t.name] = true
	}
	s.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, t := range tasks {
		g.Go(func() error {
			defer s.setStopped(t.name)
			err := t.run(gctx)
			if err == nil && gctx.Err() == nil {
				err = fmt.Errorf("exited unexpectedly")
			}
			if err != nil {
				s.logger.Debug("task failed", "task", t.name, "error", err)
				return fmt.Errorf("%s: %w", t.name, err)
			}
			s.logger.Debug("task stopped", "task", t.name)
			return nil
		})
	}
	return g.Wait()
}

func (s *Supervisor) setStopped(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running[name] = false
}
