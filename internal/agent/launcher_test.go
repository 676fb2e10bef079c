//go:build unix

package agent

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arandaschimpf/claude-review/internal/config"
)

// syncBuffer lets the job goroutine and the test share a log sink.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) snapshot() *bytes.Buffer {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bytes.NewBuffer(bytes.Clone(b.buf.Bytes()))
}

func newTestLauncher(t *testing.T, timeout time.Duration, opts ...LauncherOption) (*Launcher, *syncBuffer) {
	t.Helper()
	out := &syncBuffer{}
	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug}))
	cfg := &config.Config{Agent: config.AgentConfig{Timeout: timeout, KillGrace: 200 * time.Millisecond}}
	return NewLauncher(cfg, logger, opts...), out
}

// writeScript creates an executable shell script in a temp dir.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "agent.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func waitOutcome(t *testing.T, job *Job) Outcome {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	o, err := job.Wait(ctx)
	require.NoError(t, err, "job did not finish")
	return o
}

func TestLaunch_PassesArgumentsVerbatim(t *testing.T) {
	script := writeScript(t, `echo "$#"; for a in "$@"; do echo "$a"; done`)
	l, _ := newTestLauncher(t, 5*time.Second)

	instruction := "Review this; rm -rf / && echo $(whoami) `id` | cat > /tmp/x https://github.com/a/b/pull/1"
	job, err := l.Launch(context.Background(), Spec{
		Name:       "review",
		Executable: script,
		Args:       []string{"-p", "--dangerously-skip-permissions", instruction},
	})
	require.NoError(t, err)
	assert.Positive(t, job.PID)
	assert.NotEmpty(t, job.ID)

	o := waitOutcome(t, job)
	assert.True(t, o.Succeeded())
	assert.Equal(t, 0, o.ExitCode.UnwrapOr(-1))
	assert.Equal(t, "3\n-p\n--dangerously-skip-permissions\n"+instruction+"\n", o.Stdout)
}

func TestLaunch_StdinIsClosed(t *testing.T) {
	script := writeScript(t, `cat; echo done`)
	l, _ := newTestLauncher(t, 5*time.Second)

	job, err := l.Launch(context.Background(), Spec{Name: "review", Executable: script})
	require.NoError(t, err)

	o := waitOutcome(t, job)
	assert.True(t, o.Succeeded())
	assert.Equal(t, "done\n", o.Stdout)
}

func TestLaunch_TimeoutKillsProcess(t *testing.T) {
	script := writeScript(t, `exec sleep 30`)
	l, out := newTestLauncher(t, 200*time.Millisecond)

	start := time.Now()
	job, err := l.Launch(context.Background(), Spec{Name: "review", Executable: script})
	require.NoError(t, err)

	o := waitOutcome(t, job)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.True(t, o.TimedOut)
	assert.False(t, o.Succeeded())
	assert.True(t, o.ExitCode.IsNone())
	assert.Equal(t, "terminated", o.Signal.UnwrapOr(""))
	assert.NoError(t, o.Err)

	_, ok := findRecord(logRecords(t, out.snapshot()), "agent process timed out")
	assert.True(t, ok)
}

func TestLaunch_IgnoredTermIsKilledAfterGrace(t *testing.T) {
	script := writeScript(t, `trap '' TERM; while :; do sleep 1; done`)
	l, _ := newTestLauncher(t, 200*time.Millisecond)

	job, err := l.Launch(context.Background(), Spec{Name: "review", Executable: script})
	require.NoError(t, err)

	o := waitOutcome(t, job)
	assert.True(t, o.TimedOut)
	assert.False(t, o.Succeeded())
}

func TestLaunch_SpawnFailure(t *testing.T) {
	l, out := newTestLauncher(t, time.Second)

	job, err := l.Launch(context.Background(), Spec{
		Name:       "review",
		Executable: filepath.Join(t.TempDir(), "no-such-agent"),
	})
	require.Error(t, err)
	assert.Nil(t, job)

	_, ok := findRecord(logRecords(t, out.snapshot()), "failed to spawn agent process")
	assert.True(t, ok)
}

func TestLaunch_NonZeroExit(t *testing.T) {
	script := writeScript(t, `echo partial; echo boom >&2; exit 3`)
	l, out := newTestLauncher(t, 5*time.Second)

	job, err := l.Launch(context.Background(), Spec{
		Name:       "review",
		Executable: script,
		LogAttrs:   []any{"url", "https://github.com/a/b/pull/1"},
	})
	require.NoError(t, err)

	o := waitOutcome(t, job)
	assert.False(t, o.Succeeded())
	assert.Equal(t, 3, o.ExitCode.UnwrapOr(-1))
	assert.Equal(t, "partial\n", o.Stdout)
	assert.Equal(t, "boom\n", o.Stderr)

	records := logRecords(t, out.snapshot())
	failed, ok := findRecord(records, "agent process failed")
	require.True(t, ok)
	assert.EqualValues(t, 3, failed["exit_code"])
	assert.Equal(t, "https://github.com/a/b/pull/1", failed["url"])

	stderr, ok := findRecord(records, "agent stderr")
	require.True(t, ok)
	assert.Equal(t, "boom\n", stderr["output"])
}

func TestLaunch_DirAndEnv(t *testing.T) {
	script := writeScript(t, `pwd; echo "$REVIEW_MARKER"`)
	dir := t.TempDir()
	resolved, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	l, _ := newTestLauncher(t, 5*time.Second)

	job, err := l.Launch(context.Background(), Spec{
		Name:       "review",
		Executable: script,
		Dir:        dir,
		Env:        []string{"PATH=" + os.Getenv("PATH"), "REVIEW_MARKER=present"},
	})
	require.NoError(t, err)

	o := waitOutcome(t, job)
	lines := strings.Split(strings.TrimSpace(o.Stdout), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, []string{dir, resolved}, lines[0])
	assert.Equal(t, "present", lines[1])
}

func TestLaunch_EmptyOutputWarns(t *testing.T) {
	script := writeScript(t, `exit 0`)
	l, out := newTestLauncher(t, 5*time.Second)

	job, err := l.Launch(context.Background(), Spec{Name: "review", Executable: script})
	require.NoError(t, err)

	o := waitOutcome(t, job)
	assert.True(t, o.Succeeded())

	_, ok := findRecord(logRecords(t, out.snapshot()), "agent process completed with no output")
	assert.True(t, ok)
}

func TestLaunch_CommandFuncIsUsed(t *testing.T) {
	var gotName string
	var gotArgs []string
	l, _ := newTestLauncher(t, 5*time.Second, WithCommandFunc(func(ctx context.Context, name string, arg ...string) *exec.Cmd {
		gotName, gotArgs = name, arg
		return exec.CommandContext(ctx, "/bin/sh", "-c", "echo stubbed")
	}))

	job, err := l.Launch(context.Background(), Spec{Name: "review", Executable: "claude", Args: []string{"-p", "x"}})
	require.NoError(t, err)

	o := waitOutcome(t, job)
	assert.Equal(t, "claude", gotName)
	assert.Equal(t, []string{"-p", "x"}, gotArgs)
	assert.Equal(t, "stubbed\n", o.Stdout)
}
