package config

// Config is the root of a jobrun config file (YAML or JSON).
//
// Unknown fields are rejected: a typo in a job block silently changing
// behavior is exactly the kind of bug a cron runner should refuse to load.
type Config struct {
	// Environment namespaces lock files, letting one host run e.g. staging
	// and production copies of the same job set.
	Environment string `json:"environment,omitempty"`

	// LockDir overrides where lock files live. Default is the OS temp dir.
	LockDir string `json:"lock_dir,omitempty"`

	Logging LoggingConfig `json:"logging"`

	// Defaults are merged under every job block, field by field.
	Defaults JobSettings `json:"defaults,omitempty"`

	Jobs map[string]JobSettings `json:"jobs"`

	Notify  *NotifyConfig  `json:"notify,omitempty"`
	Storage *StorageConfig `json:"storage,omitempty"`
	Daemon  *DaemonConfig  `json:"daemon,omitempty"`
}

// JobSettings is one job block, or the defaults block. All fields are
// optional here; validation happens after the defaults merge in BuildJobs.
type JobSettings struct {
	// Exactly one of Command (shell command line) or Handler (registered
	// in-process handler name) must be set after merging.
	Command string `json:"command,omitempty"`
	Handler string `json:"handler,omitempty"`

	// Schedule is a 5-field cron expression or an exact timestamp
	// "2006-01-02 15:04:05".
	Schedule string `json:"schedule,omitempty"`

	// Enabled is a pointer so an omitted value can default to true while an
	// explicit false still disables the job.
	Enabled *bool `json:"enabled,omitempty"`

	// MaxRuntime in seconds; 0 disables the overrun check.
	MaxRuntime int `json:"max_runtime,omitempty"`

	RunOnHost string `json:"run_on_host,omitempty"`
	HaltDir   string `json:"halt_dir,omitempty"`

	// Output routes both streams; the stream-specific fields override it.
	Output       string `json:"output,omitempty"`
	OutputStdout string `json:"output_stdout,omitempty"`
	OutputStderr string `json:"output_stderr,omitempty"`

	RunAs string `json:"run_as,omitempty"`

	MailTo []string `json:"mail_to,omitempty"`

	// DateFormat is a Go time layout for job log line timestamps.
	DateFormat string `json:"date_format,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level,omitempty"`
	Console bool        `json:"console,omitempty"`
	File    LoggingFile `json:"file,omitempty"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled,omitempty"`
	Path    string `json:"path,omitempty"`
}

// NotifyConfig controls the failure notification pipeline.
//
// All durations are Go duration strings (e.g. "500ms", "10s", "1m").
type NotifyConfig struct {
	Enabled         bool     `json:"enabled"`
	Workers         int      `json:"workers,omitempty"`
	QueueSize       int      `json:"queue_size,omitempty"`
	RatePerSec      int      `json:"rate_per_sec,omitempty"`
	RetryMax        int      `json:"retry_max,omitempty"`
	RetryBase       string   `json:"retry_base,omitempty"`
	RetryMaxDelay   string   `json:"retry_max_delay,omitempty"`
	DedupWindow     string   `json:"dedup_window,omitempty"`
	DedupMaxEntries int      `json:"dedup_max_entries,omitempty"`
	PersistDedup    bool     `json:"persist_dedup,omitempty"`
	Subject         string   `json:"subject,omitempty"`
	Webhooks        []string `json:"webhooks,omitempty"`

	Mail     *MailConfig     `json:"mail,omitempty"`
	Telegram *TelegramConfig `json:"telegram,omitempty"`
}

// MailConfig is the SMTP transport for recipient lists.
type MailConfig struct {
	Host     string   `json:"host"`
	Port     int      `json:"port,omitempty"`
	Username string   `json:"username,omitempty"`
	Password string   `json:"password,omitempty"` // do not log
	From     string   `json:"from"`
	To       []string `json:"to,omitempty"` // fallback when a job has no mail_to
}

type TelegramConfig struct {
	Token  string `json:"token"` // do not log
	ChatID int64  `json:"chat_id"`
}

// StorageConfig controls the optional persistence layer used for
// notification dedup and dispatch audit.
//
// Example:
//
//	"storage": { "driver": "file", "path": "./jobrun_store" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// DaemonConfig tunes `jobrun daemon`.
type DaemonConfig struct {
	// WatchConfig hot-reloads the config file on change. Default true.
	WatchConfig *bool `json:"watch_config,omitempty"`
}
