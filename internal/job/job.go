package job

import (
	"strings"
	"time"
)

// DefaultDateFormat is the timestamp layout used for job log lines when a job
// does not configure its own.
const DefaultDateFormat = "2006-01-02 15:04:05"

// Job is one named unit of scheduled work, immutable for the duration of a
// batch run. Build it from config via config.BuildJobs or construct it
// directly in code.
type Job struct {
	Name string

	// Schedule is a 5-field cron expression, an exact timestamp
	// ("2006-01-02 15:04:05"), or empty when Predicate is set.
	Schedule string

	// Predicate, when non-nil, is authoritative for due-ness and Schedule is
	// ignored.
	Predicate func(now time.Time) bool

	Action Action

	// MaxRuntime caps how long one run may take, in seconds. When the lock
	// age reaches it, the next invocation refuses to start and alerts.
	// Zero disables the check.
	MaxRuntime int

	Enabled   bool
	RunOnHost string // case-insensitive hostname gate, empty matches any host
	HaltDir   string // presence of <HaltDir>/<Name> suppresses execution

	// Output routing. Empty means the stream is discarded.
	StdoutPath string
	StderrPath string

	// RunAs switches the command to this user via sudo when the runner is
	// privileged. POSIX only.
	RunAs string

	// Environment namespaces the lock file, letting the same job name
	// coexist across e.g. staging and production on one host.
	Environment string

	// MailTo are the failure notification recipients for this job.
	MailTo []string

	// DateFormat is the Go time layout for job log line timestamps.
	DateFormat string
}

// LogTimestamp renders now in the job's configured layout.
func (j *Job) LogTimestamp(now time.Time) string {
	layout := j.DateFormat
	if strings.TrimSpace(layout) == "" {
		layout = DefaultDateFormat
	}
	return now.Format(layout)
}

// Validate checks the per-job invariants that do not depend on platform:
// a non-empty name, a schedule source, and exactly one action.
func (j *Job) Validate() error {
	if strings.TrimSpace(j.Name) == "" {
		return &ConfigError{Job: j.Name, Reason: "job name is empty"}
	}
	if j.Predicate == nil && strings.TrimSpace(j.Schedule) == "" {
		return &ConfigError{Job: j.Name, Reason: "schedule is empty"}
	}
	if err := j.Action.validate(); err != nil {
		return &ConfigError{Job: j.Name, Reason: err.Error()}
	}
	if j.MaxRuntime < 0 {
		return &ConfigError{Job: j.Name, Reason: "max_runtime must be >= 0"}
	}
	return nil
}
