package agent

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// MaxLoggedChars caps how much of a stream is repeated in the exit log.
const MaxLoggedChars = 5000

// collector accumulates a job's stdout and stderr, logging every chunk as it
// arrives and a bounded summary once the process exits.
type collector struct {
	logger *slog.Logger
	now    func() time.Time
	stdout *stream
	stderr *stream
}

func newCollector(logger *slog.Logger, now func() time.Time) *collector {
	c := &collector{logger: logger, now: now}
	c.stdout = &stream{name: "stdout", level: slog.LevelInfo, c: c}
	c.stderr = &stream{name: "stderr", level: slog.LevelWarn, c: c}
	return c
}

// stream is the io.Writer for one output stream. Every Write is one chunk.
type stream struct {
	name  string
	level slog.Level
	c     *collector

	mu  sync.Mutex
	buf strings.Builder
}

func (s *stream) Write(p []byte) (int, error) {
	s.mu.Lock()
	s.buf.Write(p)
	s.mu.Unlock()

	s.c.logger.Log(context.Background(), s.level, "agent output",
		"stream", s.name,
		"received_at", s.c.now().UTC().Format(time.RFC3339Nano),
		"chunk", string(p),
	)
	return len(p), nil
}

func (s *stream) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

// finish records the accumulated output on o and writes the exit logs.
func (c *collector) finish(job *Job, timeout time.Duration, o *Outcome) {
	o.Stdout = c.stdout.String()
	o.Stderr = c.stderr.String()

	code := o.ExitCode.UnwrapOr(-1)
	signal := o.Signal.UnwrapOr("")
	logger := c.logger.With("pid", job.PID)

	logger.Info("agent process exited",
		"exit_code", code,
		"signal", signal,
		"duration", o.FinishedAt.Sub(job.StartedAt).Round(time.Millisecond),
	)

	switch {
	case o.TimedOut:
		logger.Error("agent process timed out", "timeout", timeout, "exit_code", code, "signal", signal)
	case o.Err != nil:
		logger.Error("failed waiting for agent process", "error", o.Err)
	case code != 0:
		logger.Error("agent process failed", "exit_code", code, "signal", signal)
	}

	c.dump(c.stderr, o.Stderr)
	c.dump(c.stdout, o.Stdout)

	if o.Succeeded() {
		if strings.TrimSpace(o.Stdout) == "" {
			logger.Warn("agent process completed with no output")
		} else {
			logger.Info("agent process completed successfully")
		}
	}

	logger.Info("agent job summary",
		"exit_code", code,
		"signal", signal,
		"timed_out", o.TimedOut,
		"stdout_bytes", len(o.Stdout),
		"stderr_bytes", len(o.Stderr),
	)
}

func (c *collector) dump(s *stream, out string) {
	if strings.TrimSpace(out) == "" {
		return
	}
	excerpt, omitted := Truncate(out, MaxLoggedChars)
	c.logger.Log(context.Background(), s.level, "agent "+s.name,
		"chars", utf8.RuneCountInString(out),
		"output", excerpt,
	)
	if omitted > 0 {
		c.logger.Log(context.Background(), s.level, "agent "+s.name+" truncated",
			"omitted_chars", omitted,
		)
	}
}

// Truncate returns the first limit characters of s and how many characters
// were cut off.
func Truncate(s string, limit int) (string, int) {
	n := 0
	for i := range s {
		if n == limit {
			return s[:i], utf8.RuneCountInString(s[i:])
		}
		n++
	}
	return s, 0
}
