package job

import "fmt"

// ConfigError marks a job definition the runner refuses to execute: a
// malformed action, an empty schedule, or a feature the platform cannot
// support. It is fatal for that job's run and aborts before any side effect.
type ConfigError struct {
	Job    string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Job == "" {
		return "invalid job config: " + e.Reason
	}
	return fmt.Sprintf("invalid config for job %q: %s", e.Job, e.Reason)
}
