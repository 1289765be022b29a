// Package schedule decides whether a job is due at a given instant.
//
// Due-ness is evaluated at minute granularity: a 5-field cron expression
// matches when the instant's minute is an activation minute, and an exact
// timestamp matches when it falls inside the same minute. Decisions are pure
// functions of (schedule, now); nothing is cached between batch runs.
package schedule

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"jobrun/internal/job"
)

// TimestampLayout is the exact-timestamp schedule form.
const TimestampLayout = "2006-01-02 15:04:05"

type Checker struct {
	parser cron.Parser
}

func NewChecker() *Checker {
	return &Checker{
		parser: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
	}
}

// IsDue reports whether spec fires in now's minute.
//
// An exact timestamp matches iff its minute-truncated value equals now's
// (seconds are ignored). Anything else must parse as a cron expression;
// a malformed one is a per-job configuration error.
func (c *Checker) IsDue(spec string, now time.Time) (bool, error) {
	if t, err := time.ParseInLocation(TimestampLayout, spec, now.Location()); err == nil {
		return t.Truncate(time.Minute).Equal(now.Truncate(time.Minute)), nil
	}

	sched, err := c.parser.Parse(spec)
	if err != nil {
		return false, &job.ConfigError{Reason: fmt.Sprintf("invalid schedule %q: %v", spec, err)}
	}

	// cron.Schedule only exposes Next (strictly after the reference), so ask
	// for the next activation from just before this minute started.
	minute := now.Truncate(time.Minute)
	return sched.Next(minute.Add(-time.Second)).Equal(minute), nil
}

// JobIsDue applies a job's predicate when it has one, otherwise its schedule
// expression.
func (c *Checker) JobIsDue(j *job.Job, now time.Time) (bool, error) {
	if j.Predicate != nil {
		return j.Predicate(now), nil
	}
	due, err := c.IsDue(j.Schedule, now)
	if err != nil {
		if ce, ok := err.(*job.ConfigError); ok && ce.Job == "" {
			ce.Job = j.Name
		}
		return false, err
	}
	return due, nil
}
