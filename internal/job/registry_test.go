package job

import (
	"context"
	"io"
	"testing"
	"time"
)

func TestRegistryRegisterLookup(t *testing.T) {
	t.Parallel()
	r := NewRegistry()

	fn := func(ctx context.Context, stdout io.Writer) (any, error) { return true, nil }
	if err := r.Register("cleanup", fn); err != nil {
		t.Fatalf("Register error: %v", err)
	}

	got, ok := r.Lookup("cleanup")
	if !ok || got == nil {
		t.Fatal("Lookup did not find registered handler")
	}
	if _, ok := r.Lookup("missing"); ok {
		t.Fatal("Lookup found handler that was never registered")
	}
}

func TestRegistryDuplicate(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	fn := func(ctx context.Context, stdout io.Writer) (any, error) { return true, nil }

	if err := r.Register("dup", fn); err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if err := r.Register("dup", fn); err == nil {
		t.Fatal("expected error on duplicate registration")
	}
	if err := r.Register("", fn); err == nil {
		t.Fatal("expected error on empty name")
	}
	if err := r.Register("nil", nil); err == nil {
		t.Fatal("expected error on nil handler")
	}
}

func TestJobValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		job     Job
		wantErr bool
	}{
		{name: "command ok", job: Job{Name: "a", Schedule: "* * * * *", Action: CommandAction("true"), Enabled: true}},
		{name: "handler ok", job: Job{Name: "b", Schedule: "* * * * *", Action: HandlerAction("h"), Enabled: true}},
		{name: "no action", job: Job{Name: "c", Schedule: "* * * * *"}, wantErr: true},
		{name: "both payloads", job: Job{Name: "d", Schedule: "* * * * *", Action: Action{Kind: ActionCommand, Command: "x", Handler: "y"}}, wantErr: true},
		{name: "empty schedule", job: Job{Name: "e", Action: CommandAction("true")}, wantErr: true},
		{name: "predicate without schedule", job: Job{Name: "f", Predicate: func(time.Time) bool { return true }, Action: CommandAction("true")}},
		{name: "negative max runtime", job: Job{Name: "g", Schedule: "* * * * *", Action: CommandAction("true"), MaxRuntime: -1}, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			err := tt.job.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr = %v", err, tt.wantErr)
			}
		})
	}
}
