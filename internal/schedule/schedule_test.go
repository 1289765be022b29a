package schedule

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"jobrun/internal/job"
)

func TestIsDueCron(t *testing.T) {
	t.Parallel()
	c := NewChecker()
	now := time.Date(2025, 6, 15, 10, 30, 42, 0, time.UTC)

	tests := []struct {
		name string
		spec string
		want bool
	}{
		{name: "every minute", spec: "* * * * *", want: true},
		{name: "exact minute", spec: "30 10 * * *", want: true},
		{name: "other minute", spec: "31 10 * * *", want: false},
		{name: "step match", spec: "*/5 * * * *", want: true},
		{name: "step miss", spec: "*/7 * * * *", want: false},
		{name: "wrong day of week", spec: "30 10 * * 1", want: false}, // 2025-06-15 is a Sunday
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.IsDue(tt.spec, now)
			if err != nil {
				t.Fatalf("IsDue(%q) error: %v", tt.spec, err)
			}
			if got != tt.want {
				t.Fatalf("IsDue(%q) = %v, want %v", tt.spec, got, tt.want)
			}
		})
	}
}

func TestIsDueExactTimestamp(t *testing.T) {
	t.Parallel()
	c := NewChecker()
	now := time.Date(2025, 6, 15, 10, 30, 42, 0, time.UTC)

	// Seconds in the schedule are ignored: any second within the minute matches.
	for _, sec := range []int{0, 15, 59} {
		spec := fmt.Sprintf("2025-06-15 10:30:%02d", sec)
		got, err := c.IsDue(spec, now)
		if err != nil {
			t.Fatalf("IsDue(%q) error: %v", spec, err)
		}
		if !got {
			t.Fatalf("IsDue(%q) = false, want true", spec)
		}
	}

	got, err := c.IsDue("2025-06-15 10:31:00", now)
	if err != nil {
		t.Fatalf("IsDue error: %v", err)
	}
	if got {
		t.Fatal("timestamp one minute off should not be due")
	}
}

func TestIsDueMalformed(t *testing.T) {
	t.Parallel()
	c := NewChecker()
	_, err := c.IsDue("not a schedule", time.Now())
	if err == nil {
		t.Fatal("expected error for malformed schedule")
	}
	var ce *job.ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *job.ConfigError, got %T", err)
	}
}

func TestJobIsDuePredicate(t *testing.T) {
	t.Parallel()
	c := NewChecker()
	j := &job.Job{
		Name:      "pred",
		Predicate: func(now time.Time) bool { return now.Minute()%2 == 0 },
		Action:    job.CommandAction("true"),
	}

	even := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	odd := time.Date(2025, 6, 15, 10, 31, 0, 0, time.UTC)

	if due, err := c.JobIsDue(j, even); err != nil || !due {
		t.Fatalf("JobIsDue(even) = %v, %v; want true", due, err)
	}
	if due, err := c.JobIsDue(j, odd); err != nil || due {
		t.Fatalf("JobIsDue(odd) = %v, %v; want false", due, err)
	}
}

func TestJobIsDueTagsJobName(t *testing.T) {
	t.Parallel()
	c := NewChecker()
	j := &job.Job{Name: "broken", Schedule: "bogus", Action: job.CommandAction("true")}

	_, err := c.JobIsDue(j, time.Now())
	var ce *job.ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *job.ConfigError, got %v", err)
	}
	if ce.Job != "broken" {
		t.Fatalf("ConfigError.Job = %q, want %q", ce.Job, "broken")
	}
}
