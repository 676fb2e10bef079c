package jobs

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/arandaschimpf/claude-review/internal/agent"
	"github.com/arandaschimpf/claude-review/internal/config"
	"github.com/arandaschimpf/claude-review/internal/core"
)

// DeployService runs the configured update script and reports process status.
type DeployService struct {
	script    string
	launcher  Launcher
	tracker   *Tracker
	environ   func() []string
	now       func() time.Time
	startedAt time.Time
	logger    *slog.Logger

	mu   sync.Mutex
	last *core.DeployRun
}

// NewDeployService creates a DeployService for cfg.Deploy.Script.
func NewDeployService(cfg *config.Config, launcher Launcher, tracker *Tracker, logger *slog.Logger) *DeployService {
	return &DeployService{
		script:    cfg.Deploy.Script,
		launcher:  launcher,
		tracker:   tracker,
		environ:   os.Environ,
		now:       time.Now,
		startedAt: time.Now(),
		logger:    logger,
	}
}

// Trigger schedules the deploy script. Its output goes to the log like any
// other agent job.
func (d *DeployService) Trigger(_ context.Context, requestedBy string) error {
	if d.script == "" {
		return core.ErrDeployDisabled
	}

	spec := agent.Spec{
		Name:       "deploy",
		Executable: d.script,
		Env:        d.environ(),
		LogAttrs:   []any{"requested_by", requestedBy},
	}

	err := d.tracker.Go("deploy", func(ctx context.Context) {
		job, err := d.launcher.Launch(ctx, spec)
		if err != nil {
			return
		}
		run := &core.DeployRun{StartedAt: job.StartedAt, RequestedBy: requestedBy}
		d.record(run)

		o := job.Outcome()
		d.mu.Lock()
		finished := o.FinishedAt
		run.FinishedAt = &finished
		run.TimedOut = o.TimedOut
		o.ExitCode.WhenSome(func(code int) {
			run.ExitCode = &code
		})
		d.mu.Unlock()
	})
	if err != nil {
		return err
	}

	d.logger.Info("deployment initiated", "script", d.script, "requested_by", requestedBy)
	return nil
}

func (d *DeployService) record(run *core.DeployRun) {
	d.mu.Lock()
	d.last = run
	d.mu.Unlock()
}

// Status reports on the serving process.
func (d *DeployService) Status() core.DeployStatus {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	uptime := d.now().Sub(d.startedAt)
	status := core.DeployStatus{
		Status:        "running",
		PID:           os.Getpid(),
		StartedAt:     d.startedAt,
		Uptime:        uptime.Round(time.Second).String(),
		UptimeSeconds: int64(uptime.Seconds()),
		Goroutines:    runtime.NumGoroutine(),
		HeapBytes:     mem.HeapAlloc,
		SysBytes:      mem.Sys,
		ActiveJobs:    d.tracker.Active(),
	}

	d.mu.Lock()
	if d.last != nil {
		last := *d.last
		status.LastDeploy = &last
	}
	d.mu.Unlock()
	return status
}
