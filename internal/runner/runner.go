// Package runner evaluates which jobs are due for the current minute and
// dispatches each one as a detached child process running this same binary
// in single-job mode. The parent never waits on a child: a stuck job cannot
// delay evaluation of the rest of the batch.
package runner

import (
	"context"
	"os"
	"os/exec"
	"time"

	"jobrun/internal/job"
	"jobrun/internal/schedule"
	"jobrun/pkg/logx"
)

// SpawnFunc launches the single-job worker for one job name.
type SpawnFunc func(ctx context.Context, jobName string) error

type Runner struct {
	log        logx.Logger
	check      *schedule.Checker
	configPath string
	spawn      SpawnFunc
	now        func() time.Time
}

type Option func(*Runner)

// WithSpawn replaces the process launcher.
func WithSpawn(fn SpawnFunc) Option {
	return func(r *Runner) { r.spawn = fn }
}

// WithClock replaces the batch clock.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

func New(log logx.Logger, configPath string, opts ...Option) *Runner {
	if log.IsZero() {
		log = logx.Nop()
	}
	r := &Runner{
		log:        log,
		check:      schedule.NewChecker(),
		configPath: configPath,
		now:        time.Now,
	}
	r.spawn = r.spawnDetached
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunBatch dispatches every due job and returns the number dispatched.
// A job with a malformed schedule is logged and skipped; it never stops
// the batch.
func (r *Runner) RunBatch(ctx context.Context, jobs []*job.Job) int {
	now := r.now()
	dispatched := 0
	for _, j := range jobs {
		due, err := r.check.JobIsDue(j, now)
		if err != nil {
			r.log.Error("schedule check failed", logx.String("job", j.Name), logx.Err(err))
			continue
		}
		if !due {
			continue
		}
		if err := r.spawn(ctx, j.Name); err != nil {
			r.log.Error("job dispatch failed", logx.String("job", j.Name), logx.Err(err))
			continue
		}
		r.log.Info("job dispatched", logx.String("job", j.Name))
		dispatched++
	}
	return dispatched
}

// spawnDetached starts `<self> job <name> --config <path>` in its own
// session and releases the process handle without waiting. Child outcomes
// surface only through job logs and the notifier.
func (r *Runner) spawnDetached(ctx context.Context, jobName string) error {
	_ = ctx
	exe, err := os.Executable()
	if err != nil {
		return err
	}
	cmd := exec.Command(exe, "job", jobName, "--config", r.configPath)
	cmd.SysProcAttr = detachAttr()
	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}
