// Package agent launches external agent processes and captures their output.
//
// A process is always started from an explicit argument vector, never through
// a shell, with its stdin closed and a wall-clock limit. Output is streamed to
// the log as it arrives and summarized once the process exits; it is never
// returned to whoever asked for the launch.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/lightningnetwork/lnd/fn/v2"

	"github.com/arandaschimpf/claude-review/internal/config"
)

// A zero WaitDelay would let Wait block on pipes forever.
const minWaitDelay = 100 * time.Millisecond

// Spec describes one process to launch.
type Spec struct {
	// Name labels the job in logs, e.g. "review".
	Name       string
	Executable string
	// Args are passed to the process one by one, without interpretation.
	Args []string
	Dir  string
	Env  []string
	// LogAttrs are added to every log line the job produces.
	LogAttrs []any
}

// CommandFunc creates the command for a spec. It matches exec.CommandContext.
type CommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

// Launcher starts processes and attaches an output collector to each.
type Launcher struct {
	timeout   time.Duration
	killGrace time.Duration
	command   CommandFunc
	now       func() time.Time
	logger    *slog.Logger
}

// LauncherOption configures a Launcher.
type LauncherOption func(*Launcher)

// WithCommandFunc replaces exec.CommandContext.
func WithCommandFunc(f CommandFunc) LauncherOption {
	return func(l *Launcher) {
		l.command = f
	}
}

// NewLauncher creates a Launcher using the agent limits from cfg.
func NewLauncher(cfg *config.Config, logger *slog.Logger, opts ...LauncherOption) *Launcher {
	l := &Launcher{
		timeout:   cfg.Agent.Timeout,
		killGrace: cfg.Agent.KillGrace,
		command:   exec.CommandContext,
		now:       time.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Launch starts the process described by spec and returns as soon as it is
// running. The process is bound to ctx and to the launcher's timeout; when
// either ends it, the process group receives SIGTERM and, after the grace
// period, SIGKILL.
func (l *Launcher) Launch(ctx context.Context, spec Spec) (*Job, error) {
	job := &Job{
		ID:   uuid.NewString(),
		Name: spec.Name,
		done: make(chan struct{}),
	}
	logger := l.logger.With(append([]any{"job", spec.Name, "job_id", job.ID}, spec.LogAttrs...)...)

	runCtx, cancel := context.WithTimeout(ctx, l.timeout)

	cmd := l.command(runCtx, spec.Executable, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Env = spec.Env
	configureProcess(cmd, l.killGrace)

	col := newCollector(logger, l.now)
	cmd.Stdout = col.stdout
	cmd.Stderr = col.stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		cancel()
		logger.Error("failed to open agent stdin", "error", err)
		return nil, fmt.Errorf("failed to open stdin for %s: %w", spec.Executable, err)
	}

	logger.Info("starting agent process",
		"executable", spec.Executable,
		"arg_count", len(spec.Args),
		"dir", spec.Dir,
		"timeout", l.timeout,
	)
	if err := cmd.Start(); err != nil {
		cancel()
		logger.Error("failed to spawn agent process", "executable", spec.Executable, "error", err)
		return nil, fmt.Errorf("failed to start %s: %w", spec.Executable, err)
	}
	// Nothing is ever written to the child; closing stdin keeps it from
	// waiting on input.
	if err := stdin.Close(); err != nil {
		logger.Warn("failed to close agent stdin", "error", err)
	}

	job.PID = cmd.Process.Pid
	job.StartedAt = l.now()
	logger.Info("agent process started", "pid", job.PID)

	go func() {
		defer cancel()
		waitErr := cmd.Wait()
		if err := killGroup(cmd); err != nil {
			logger.Warn("failed to kill agent process group", "pid", job.PID, "error", err)
		}
		job.outcome = outcomeOf(runCtx, cmd, waitErr)
		job.outcome.FinishedAt = l.now()
		col.finish(job, l.timeout, &job.outcome)
		close(job.done)
	}()

	return job, nil
}

func outcomeOf(ctx context.Context, cmd *exec.Cmd, waitErr error) Outcome {
	o := Outcome{
		ExitCode: fn.None[int](),
		Signal:   fn.None[string](),
		TimedOut: errors.Is(ctx.Err(), context.DeadlineExceeded),
	}

	if state := cmd.ProcessState; state != nil {
		if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			o.Signal = fn.Some(ws.Signal().String())
		} else if code := state.ExitCode(); code >= 0 {
			o.ExitCode = fn.Some(code)
		}
	}

	var exitErr *exec.ExitError
	// ErrWaitDelay means the pipes were closed on something the child left
	// running; the child's own exit status is still known.
	if waitErr != nil && !errors.As(waitErr, &exitErr) && !errors.Is(waitErr, ctx.Err()) &&
		!errors.Is(waitErr, exec.ErrWaitDelay) {
		o.Err = waitErr
	}
	return o
}
