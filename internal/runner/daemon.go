package runner

import (
	"context"
	"sync"
	"time"

	sd "github.com/coreos/go-systemd/v22/daemon"

	"jobrun/internal/config"
	"jobrun/internal/job"
	"jobrun/pkg/logx"
)

// Daemon runs one batch evaluation at every minute boundary, the way cron
// would invoke the one-shot runner. The config file is watched and applied
// without a restart; a reload that fails validation keeps the previous
// job set.
type Daemon struct {
	log logx.Logger
	man *config.Manager
	run *Runner

	// onReload lets the caller re-tune long-lived services (notifier,
	// logging) after a successful reload.
	onReload func(cfg *config.Config)

	mu   sync.Mutex
	jobs []*job.Job
}

type DaemonOption func(*Daemon)

func WithReloadHook(fn func(cfg *config.Config)) DaemonOption {
	return func(d *Daemon) { d.onReload = fn }
}

func NewDaemon(log logx.Logger, man *config.Manager, run *Runner, opts ...DaemonOption) *Daemon {
	if log.IsZero() {
		log = logx.Nop()
	}
	d := &Daemon{log: log, man: man, run: run}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Daemon) setJobs(jobs []*job.Job) {
	d.mu.Lock()
	d.jobs = jobs
	d.mu.Unlock()
}

func (d *Daemon) snapshot() []*job.Job {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.jobs
}

// Run blocks until ctx is canceled.
func (d *Daemon) Run(ctx context.Context) error {
	cfg := d.man.Get()
	if cfg == nil {
		var err error
		cfg, err = d.man.Load()
		if err != nil {
			return err
		}
	}
	jobs, err := cfg.BuildJobs()
	if err != nil {
		return err
	}
	d.setJobs(jobs)

	watch := true
	if cfg.Daemon != nil && cfg.Daemon.WatchConfig != nil {
		watch = *cfg.Daemon.WatchConfig
	}

	var sub chan *config.Config
	if watch {
		go func() {
			if err := d.man.Watch(ctx); err != nil && ctx.Err() == nil {
				d.log.Warn("config watch stopped", logx.Err(err))
			}
		}()
		sub = d.man.Subscribe(1)
		defer d.man.Unsubscribe(sub)
	}

	// Under systemd these announce readiness and feed the watchdog;
	// anywhere else they are no-ops.
	_, _ = sd.SdNotify(false, sd.SdNotifyReady)
	defer func() { _, _ = sd.SdNotify(false, sd.SdNotifyStopping) }()

	var watchdog <-chan time.Time
	if interval, err := sd.SdWatchdogEnabled(false); err == nil && interval > 0 {
		t := time.NewTicker(interval / 2)
		defer t.Stop()
		watchdog = t.C
	}

	d.log.Info("daemon started", logx.Int("jobs", len(jobs)), logx.Bool("watch_config", watch))

	timer := time.NewTimer(untilNextMinute(time.Now()))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			d.log.Info("daemon stopping")
			return nil

		case <-timer.C:
			d.run.RunBatch(ctx, d.snapshot())
			timer.Reset(untilNextMinute(time.Now()))

		case next, ok := <-sub:
			if !ok {
				sub = nil
				continue
			}
			jobs, err := next.BuildJobs()
			if err != nil {
				d.log.Error("config reload rejected", logx.Err(err))
				continue
			}
			d.setJobs(jobs)
			if d.onReload != nil {
				d.onReload(next)
			}
			d.log.Info("configuration reloaded", logx.Int("jobs", len(jobs)))

		case <-watchdog:
			_, _ = sd.SdNotify(false, sd.SdNotifyWatchdog)
		}
	}
}

// untilNextMinute returns the wait to the next minute boundary, with a
// small floor so a reset exactly on the boundary cannot busy-loop.
func untilNextMinute(now time.Time) time.Duration {
	next := now.Truncate(time.Minute).Add(time.Minute)
	d := next.Sub(now)
	if d < 50*time.Millisecond {
		d = 50 * time.Millisecond
	}
	return d
}
