package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"jobrun/pkg/logx"
)

func TestOpenDisabled(t *testing.T) {
	t.Parallel()

	for _, driver := range []string{"", "none", " None "} {
		st, err := Open(Config{Driver: driver}, logx.Nop())
		if err != nil {
			t.Fatalf("driver %q: %v", driver, err)
		}
		if st != nil {
			t.Fatalf("driver %q: expected nil store", driver)
		}
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	t.Parallel()

	if _, err := Open(Config{Driver: "postgres"}, logx.Nop()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestFileDedupRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "notify.db")

	st, err := Open(Config{Driver: "file", Path: path}, logx.Nop())
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	until := time.Now().Add(time.Hour)
	if err := st.PutDedup(ctx, "job-a|fail", until); err != nil {
		t.Fatal(err)
	}

	got, ok, err := st.GetDedup(ctx, "job-a|fail")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected key to be present")
	}
	if got.UnixMilli() != until.UnixMilli() {
		t.Fatalf("until mismatch: got %v want %v", got, until)
	}

	if _, ok, _ := st.GetDedup(ctx, "missing"); ok {
		t.Fatal("unexpected hit for missing key")
	}
	if err := st.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestFileDedupSurvivesReopen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "notify.db")
	ctx := context.Background()

	st, err := Open(Config{Driver: "file", Path: path}, logx.Nop())
	if err != nil {
		t.Fatal(err)
	}
	until := time.Now().Add(time.Hour)
	if err := st.PutDedup(ctx, "persist-me", until); err != nil {
		t.Fatal(err)
	}
	// An expired key must not survive the reload prune.
	if err := st.PutDedup(ctx, "expired", time.Now().Add(-time.Minute)); err != nil {
		t.Fatal(err)
	}
	if err := st.Close(); err != nil {
		t.Fatal(err)
	}

	st2, err := Open(Config{Driver: "file", Path: path}, logx.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer st2.Close()

	if _, ok, _ := st2.GetDedup(ctx, "persist-me"); !ok {
		t.Fatal("expected journaled key after reopen")
	}
	if _, ok, _ := st2.GetDedup(ctx, "expired"); ok {
		t.Fatal("expired key should have been pruned on reopen")
	}
}

func TestFileAppendAudit(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "notify.db")

	st, err := Open(Config{Driver: "file", Path: path}, logx.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	ctx := context.Background()
	entries := []AuditEntry{
		{Job: "backup", Sink: "mail", Message: "ERROR: boom", TookMS: 12},
		{Job: "backup", Sink: "webhook", Error: "connection refused"},
	}
	for _, e := range entries {
		if err := st.AppendAudit(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	b, err := os.ReadFile(filepath.Join(dir, "notify.audit.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 audit lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], `"sink":"mail"`) {
		t.Fatalf("first line missing sink: %s", lines[0])
	}
	if !strings.Contains(lines[1], `"error":"connection refused"`) {
		t.Fatalf("second line missing error: %s", lines[1])
	}
}
