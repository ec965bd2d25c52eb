// Package browser runs the OS scripting helpers that query and toggle the
// state of the conferencing session in the browser.
package browser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/pgriess/streamdeck-workrooms/internal/action"
)

// Result describes a helper that ran to completion, whatever its exit code.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// OK reports whether the helper exited with status 0.
func (r Result) OK() bool {
	return r.ExitCode == 0
}

// Runner invokes the helpers. Commands are argv slices; the toggle helper
// receives the action name as an extra argument.
type Runner struct {
	QueryCommand  []string
	QueryTimeout  time.Duration
	ToggleCommand []string
	ToggleTimeout time.Duration
}

// Query runs the status-query helper. The error is non-nil only when the
// helper could not be run or did not finish in time.
func (r *Runner) Query(ctx context.Context) (Result, error) {
	return run(ctx, r.QueryCommand, r.QueryTimeout)
}

// Toggle runs the toggle helper for a.
func (r *Runner) Toggle(ctx context.Context, a action.Action) (Result, error) {
	if !a.Valid() {
		return Result{}, fmt.Errorf("toggle: invalid action %v", a)
	}
	argv := append(append([]string(nil), r.ToggleCommand...), a.String())
	return run(ctx, argv, r.ToggleTimeout)
}

func run(ctx context.Context, argv []string, timeout time.Duration) (Result, error) {
	if len(argv) == 0 || argv[0] == "" {
		return Result{}, errors.New("helper command is empty")
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	start := time.Now()
	err := cmd.Run()
	res := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}
	if err == nil {
		return res, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, fmt.Errorf("%s: %w", argv[0], ctxErr)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	if msg := strings.TrimSpace(res.Stderr); msg != "" {
		return res, fmt.Errorf("%s failed: %w (%s)", argv[0], err, msg)
	}
	return res, fmt.Errorf("%s failed: %w", argv[0], err)
}
