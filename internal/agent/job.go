package agent

import (
	"context"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// Job is the handle of one spawned process. Its Outcome becomes available
// once Done is closed.
type Job struct {
	ID        string
	Name      string
	PID       int
	StartedAt time.Time

	done    chan struct{}
	outcome Outcome
}

// Outcome is how a job ended.
type Outcome struct {
	// ExitCode is set when the process exited on its own.
	ExitCode fn.Option[int]
	// Signal is set when the process was terminated by a signal.
	Signal fn.Option[string]
	// TimedOut reports that the job hit its wall-clock limit and was killed.
	TimedOut bool
	// Err is a failure waiting for the process that is not an exit status.
	Err error

	Stdout     string
	Stderr     string
	FinishedAt time.Time
}

// Succeeded reports a clean zero exit.
func (o Outcome) Succeeded() bool {
	return !o.TimedOut && o.Err == nil && o.ExitCode.UnwrapOr(-1) == 0
}

// Done is closed once the process has exited and its output was logged.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Outcome returns the result of the job. It is only meaningful after Done is
// closed.
func (j *Job) Outcome() Outcome {
	<-j.done
	return j.outcome
}

// Wait blocks until the job finishes or ctx is done. Giving up on the wait
// does not stop the job.
func (j *Job) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-j.done:
		return j.outcome, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}
