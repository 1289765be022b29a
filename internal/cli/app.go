package cli

import (
	"context"
	"os"
	"time"

	"jobrun/internal/config"
	"jobrun/internal/controller"
	"jobrun/internal/executor"
	"jobrun/internal/job"
	"jobrun/internal/lock"
	"jobrun/internal/notify"
	"jobrun/internal/storage"
	"jobrun/pkg/logx"
)

// app wires the services a single-job worker needs. The batch runner uses
// a lighter subset (config + logger + runner); see newRunCmd.
type app struct {
	man  *config.Manager
	cfg  *config.Config
	logs *logx.Service
	log  logx.Logger

	jobs  map[string]*job.Job
	locks *lock.Manager
	store storage.Store
	notif *notify.Service
	ctrl  *controller.Controller
}

func buildApp(configPath string) (*app, error) {
	man := config.NewManager(configPath)
	cfg, err := man.Load()
	if err != nil {
		return nil, err
	}

	logs, log := logx.New(cfg.Logx())
	man.SetLogger(log.With(logx.String("comp", "config")))

	built, err := cfg.BuildJobs()
	if err != nil {
		logs.Close()
		return nil, err
	}
	jobs := make(map[string]*job.Job, len(built))
	for _, j := range built {
		jobs[j.Name] = j
	}

	var lockOpts []lock.Option
	if cfg.LockDir != "" {
		lockOpts = append(lockOpts, lock.WithDir(cfg.LockDir))
	}
	if cfg.Environment != "" {
		lockOpts = append(lockOpts, lock.WithEnvironment(cfg.Environment))
	}
	locks := lock.NewManager(lockOpts...)

	store, err := openStore(cfg, log)
	if err != nil {
		log.Warn("storage disabled", logx.Err(err))
		store = nil
	}

	notif, err := buildNotify(cfg, log, store)
	if err != nil {
		logs.Close()
		return nil, err
	}

	host, _ := os.Hostname()
	var notifAdapter controller.Notifier
	if notif != nil {
		notifAdapter = &jobNotifier{svc: notif, host: host, jobs: jobs}
	}

	exec := executor.New(log, nil)
	ctrl := controller.New(log, locks, exec, notifAdapter)

	return &app{
		man:   man,
		cfg:   cfg,
		logs:  logs,
		log:   log,
		jobs:  jobs,
		locks: locks,
		store: store,
		notif: notif,
		ctrl:  ctrl,
	}, nil
}

func (a *app) start(ctx context.Context) {
	if a.notif != nil {
		a.notif.Start(ctx)
	}
}

func (a *app) shutdown() {
	if a.notif != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		a.notif.Stop(ctx)
		cancel()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("storage close failed", logx.Err(err))
		}
	}
	if a.logs != nil {
		_ = a.logs.Close()
	}
}

func openStore(cfg *config.Config, log logx.Logger) (storage.Store, error) {
	if cfg.Storage == nil {
		return nil, nil
	}
	busy, err := config.ParseDurationOrDefault("storage.busy_timeout", cfg.Storage.BusyTimeout, 0)
	if err != nil {
		return nil, err
	}
	return storage.Open(storage.Config{
		Driver:      cfg.Storage.Driver,
		Path:        cfg.Storage.Path,
		BusyTimeout: busy,
	}, log.With(logx.String("comp", "storage")))
}

// buildNotify maps the config block to a notify service with its sinks.
// Returns nil when notification is not configured.
func buildNotify(cfg *config.Config, log logx.Logger, store storage.Store) (*notify.Service, error) {
	nc := cfg.Notify
	if nc == nil || !nc.Enabled {
		return nil, nil
	}

	ncfg, err := notifyConfig(nc)
	if err != nil {
		return nil, err
	}

	var sinks []notify.Sink
	if nc.Mail != nil {
		ms, err := notify.NewMailSink(notify.MailConfig{
			Host:     nc.Mail.Host,
			Port:     nc.Mail.Port,
			Username: nc.Mail.Username,
			Password: nc.Mail.Password,
			From:     nc.Mail.From,
			To:       nc.Mail.To,
			Subject:  nc.Subject,
		})
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, ms)
	}
	if nc.Telegram != nil {
		ts, err := notify.NewTelegramSink(notify.TelegramConfig{
			Token:  nc.Telegram.Token,
			ChatID: nc.Telegram.ChatID,
		})
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, ts)
	}
	if len(nc.Webhooks) > 0 {
		sinks = append(sinks, notify.NewWebhookSink(nc.Webhooks))
	}

	return notify.New(ncfg, sinks, log.With(logx.String("comp", "notify")), store), nil
}

func notifyConfig(nc *config.NotifyConfig) (notify.Config, error) {
	retryBase, err := config.ParseDurationOrDefault("notify.retry_base", nc.RetryBase, 0)
	if err != nil {
		return notify.Config{}, err
	}
	retryMaxDelay, err := config.ParseDurationOrDefault("notify.retry_max_delay", nc.RetryMaxDelay, 0)
	if err != nil {
		return notify.Config{}, err
	}
	dedupWindow, err := config.ParseDurationOrDefault("notify.dedup_window", nc.DedupWindow, 0)
	if err != nil {
		return notify.Config{}, err
	}
	return notify.Config{
		Enabled:         nc.Enabled,
		Workers:         nc.Workers,
		QueueSize:       nc.QueueSize,
		RatePerSec:      nc.RatePerSec,
		RetryMax:        nc.RetryMax,
		RetryBase:       retryBase,
		RetryMaxDelay:   retryMaxDelay,
		DedupWindow:     dedupWindow,
		DedupMaxEntries: nc.DedupMaxEntries,
		PersistDedup:    nc.PersistDedup,
		Subject:         nc.Subject,
	}, nil
}

// jobNotifier adapts the notify service to the controller's interface,
// filling in the job's recipient list and stderr destination.
type jobNotifier struct {
	svc  *notify.Service
	host string
	jobs map[string]*job.Job
}

func (n *jobNotifier) Notify(ctx context.Context, jobName, message string) {
	m := notify.Message{Job: jobName, Text: message, Host: n.host}
	if j, ok := n.jobs[jobName]; ok {
		m.Recipients = j.MailTo
		m.Log = j.StderrPath
	}
	_ = n.svc.Notify(ctx, m)
}
