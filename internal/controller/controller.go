// Package controller orchestrates one job run: runtime pre-check, gating,
// locking, execution, unlock, and notification. Every failure is absorbed
// here; nothing a single job does can take down the batch process.
package controller

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"jobrun/internal/executor"
	"jobrun/internal/job"
	"jobrun/internal/lock"
	"jobrun/pkg/logx"
)

// Notifier fans a failure message out to the configured sinks. A nil
// Notifier disables notification. Sink failures must stay inside the
// implementation; the controller does not handle them.
type Notifier interface {
	Notify(ctx context.Context, jobName, message string)
}

// emptyLogMarker is the one non-blank stdout content still considered a
// no-op run when cleaning up log files after unlock.
const emptyLogMarker = "[]"

type Controller struct {
	log   logx.Logger
	locks *lock.Manager
	exec  *executor.Executor
	notif Notifier

	// hostname and now are swappable for tests.
	hostname func() (string, error)
	now      func() time.Time
}

type Option func(*Controller)

// WithHostname overrides host detection.
func WithHostname(fn func() (string, error)) Option {
	return func(c *Controller) { c.hostname = fn }
}

// WithClock overrides the time source used for job log timestamps.
func WithClock(fn func() time.Time) Option {
	return func(c *Controller) { c.now = fn }
}

func New(log logx.Logger, locks *lock.Manager, exec *executor.Executor, notif Notifier, opts ...Option) *Controller {
	c := &Controller{
		log:      log,
		locks:    locks,
		exec:     exec,
		notif:    notif,
		hostname: os.Hostname,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run takes one job through the full lifecycle. It never returns an error:
// outcomes surface through the job's log files and the notifier only.
func (c *Controller) Run(ctx context.Context, j *job.Job) {
	runID := uuid.NewString()
	log := c.log.With(logx.String("job", j.Name), logx.String("run_id", runID))

	defer func() {
		if r := recover(); r != nil {
			log.Error("panic in job controller", logx.Any("panic", r))
		}
	}()

	if err := j.Validate(); err != nil {
		log.Error("job rejected", logx.Err(err))
		c.jobLog(j, "ERROR: "+err.Error())
		return
	}

	// Runtime pre-check: a job already past its budget must not get a second
	// overlapping instance, and the operator has to hear about the overrun.
	if j.MaxRuntime > 0 {
		age, err := c.locks.Age(j.Name)
		if err != nil {
			c.fail(ctx, log, j, fmt.Sprintf("checking lock age: %v", err))
			return
		}
		ageSecs := int(age.Seconds())
		if ageSecs >= j.MaxRuntime {
			c.fail(ctx, log, j, fmt.Sprintf("MaxRuntime of %d secs exceeded! Current runtime: %d secs", j.MaxRuntime, ageSecs))
			return
		}
	}

	// Gating is silent: a disabled, halted, or wrong-host job produces no
	// output at all.
	if !c.shouldRun(j, log) {
		return
	}

	if err := c.locks.Acquire(j.Name); err != nil {
		if errors.Is(err, lock.ErrHeld) {
			// Routine overlap avoidance; log, don't page anyone.
			c.jobLog(j, fmt.Sprintf("Job is still locked, skipping this run (%s)", c.locks.Path(j.Name)))
			log.Info("skipped: lock held", logx.String("lock", c.locks.Path(j.Name)))
			return
		}
		c.fail(ctx, log, j, err.Error())
		return
	}
	defer func() {
		if err := c.locks.Release(j.Name); err != nil {
			log.Error("releasing lock failed", logx.Err(err))
		}
		c.cleanupStdoutLog(j, log)
	}()

	started := c.now()
	outcome := c.exec.Run(ctx, j)
	took := c.now().Sub(started)

	switch outcome.Status {
	case job.StatusSuccess:
		log.Info("job finished", logx.Duration("took", took))
	case job.StatusSkip:
		c.jobLog(j, outcome.Message)
		log.Info("job skipped", logx.String("reason", outcome.Message))
	case job.StatusFailure:
		c.fail(ctx, log, j, outcome.Message)
	}
}

// shouldRun checks the three independent gates: enabled flag, halt marker,
// host affinity.
func (c *Controller) shouldRun(j *job.Job, log logx.Logger) bool {
	if !j.Enabled {
		log.Debug("skipped: disabled")
		return false
	}
	if j.HaltDir != "" {
		// The halt marker uses the exact job name, not the sanitized one.
		marker := filepath.Join(j.HaltDir, j.Name)
		if _, err := os.Stat(marker); err == nil {
			log.Debug("skipped: halt marker present", logx.String("marker", marker))
			return false
		}
	}
	if j.RunOnHost != "" {
		host, err := c.hostname()
		if err != nil {
			log.Warn("hostname lookup failed", logx.Err(err))
			return false
		}
		if !strings.EqualFold(host, j.RunOnHost) {
			log.Debug("skipped: wrong host", logx.String("host", host), logx.String("want", j.RunOnHost))
			return false
		}
	}
	return true
}

// fail writes an ERROR line to the job's stderr destination and notifies.
func (c *Controller) fail(ctx context.Context, log logx.Logger, j *job.Job, message string) {
	log.Error("job failed", logx.String("message", message))
	c.jobLog(j, "ERROR: "+message)
	if c.notif != nil {
		c.notif.Notify(ctx, j.Name, message)
	}
}

// jobLog appends one bracketed line to the job's stderr destination:
//
//	[<timestamp>] [<job-name>] <message>
//
// Raw command output is appended verbatim elsewhere; only controller
// messages get this framing.
func (c *Controller) jobLog(j *job.Job, message string) {
	if j.StderrPath == "" {
		return
	}
	line := fmt.Sprintf("[%s] [%s] %s\n", j.LogTimestamp(c.now()), j.Name, message)
	if err := appendLine(j.StderrPath, line); err != nil {
		c.log.Warn("writing job log line failed", logx.String("job", j.Name), logx.Err(err))
	}
}

// cleanupStdoutLog removes a stdout log that recorded nothing meaningful, so
// no-op runs do not accumulate files.
func (c *Controller) cleanupStdoutLog(j *job.Job, log logx.Logger) {
	if j.StdoutPath == "" {
		return
	}
	fi, err := os.Stat(j.StdoutPath)
	if errors.Is(err, fs.ErrNotExist) {
		return
	}
	if err != nil {
		log.Warn("stat stdout log failed", logx.Err(err))
		return
	}

	remove := fi.Size() <= 2
	if !remove {
		b, err := os.ReadFile(j.StdoutPath)
		if err == nil && strings.TrimSpace(string(b)) == emptyLogMarker {
			remove = true
		}
	}
	if remove {
		if err := os.Remove(j.StdoutPath); err != nil {
			log.Warn("removing empty stdout log failed", logx.Err(err))
		}
	}
}

func appendLine(path, line string) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(line)
	return err
}
