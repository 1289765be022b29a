package config

import (
	"runtime"
	"sort"

	"jobrun/internal/job"
	"jobrun/pkg/logx"
)

// Logx maps the logging block onto the logx service config.
func (c *Config) Logx() logx.Config {
	return logx.Config{
		Level:   c.Logging.Level,
		Console: c.Logging.Console,
		File: logx.FileConfig{
			Enabled: c.Logging.File.Enabled,
			Path:    c.Logging.File.Path,
		},
	}
}

// BuildJobs materializes immutable job definitions from the config: defaults
// merged under each job block, then validated. Jobs come back sorted by name
// so batch evaluation order is stable.
func (c *Config) BuildJobs() ([]*job.Job, error) {
	names := make([]string, 0, len(c.Jobs))
	for name := range c.Jobs {
		names = append(names, name)
	}
	sort.Strings(names)

	jobs := make([]*job.Job, 0, len(names))
	for _, name := range names {
		j, err := c.buildJob(name, c.Jobs[name])
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, nil
}

func (c *Config) buildJob(name string, js JobSettings) (*job.Job, error) {
	s := mergeSettings(c.Defaults, js)

	if s.Command != "" && s.Handler != "" {
		return nil, &job.ConfigError{Job: name, Reason: "both command and handler are set"}
	}

	var action job.Action
	switch {
	case s.Command != "":
		action = job.CommandAction(s.Command)
	case s.Handler != "":
		action = job.HandlerAction(s.Handler)
	}

	if s.MaxRuntime > 0 && runtime.GOOS == "windows" {
		return nil, &job.ConfigError{Job: name, Reason: "max_runtime is not supported on windows"}
	}

	stdout := s.OutputStdout
	if stdout == "" {
		stdout = s.Output
	}
	stderr := s.OutputStderr
	if stderr == "" {
		stderr = s.Output
	}

	enabled := true
	if s.Enabled != nil {
		enabled = *s.Enabled
	}

	j := &job.Job{
		Name:        name,
		Schedule:    s.Schedule,
		Action:      action,
		MaxRuntime:  s.MaxRuntime,
		Enabled:     enabled,
		RunOnHost:   s.RunOnHost,
		HaltDir:     s.HaltDir,
		StdoutPath:  stdout,
		StderrPath:  stderr,
		RunAs:       s.RunAs,
		Environment: c.Environment,
		MailTo:      append([]string(nil), s.MailTo...),
		DateFormat:  s.DateFormat,
	}
	if err := j.Validate(); err != nil {
		return nil, err
	}
	return j, nil
}

// mergeSettings lays a job block over the defaults block, field by field.
// Zero values in the job block inherit the default.
func mergeSettings(def, js JobSettings) JobSettings {
	out := js
	if out.Command == "" && out.Handler == "" {
		out.Command = def.Command
		out.Handler = def.Handler
	}
	if out.Schedule == "" {
		out.Schedule = def.Schedule
	}
	if out.Enabled == nil {
		out.Enabled = def.Enabled
	}
	if out.MaxRuntime == 0 {
		out.MaxRuntime = def.MaxRuntime
	}
	if out.RunOnHost == "" {
		out.RunOnHost = def.RunOnHost
	}
	if out.HaltDir == "" {
		out.HaltDir = def.HaltDir
	}
	if out.Output == "" {
		out.Output = def.Output
	}
	if out.OutputStdout == "" {
		out.OutputStdout = def.OutputStdout
	}
	if out.OutputStderr == "" {
		out.OutputStderr = def.OutputStderr
	}
	if out.RunAs == "" {
		out.RunAs = def.RunAs
	}
	if len(out.MailTo) == 0 {
		out.MailTo = def.MailTo
	}
	if out.DateFormat == "" {
		out.DateFormat = def.DateFormat
	}
	return out
}
