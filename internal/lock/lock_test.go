package lock

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"
)

func TestAcquireReleaseCycle(t *testing.T) {
	t.Parallel()
	m := NewManager(WithDir(t.TempDir()))

	if err := m.Acquire("backup"); err != nil {
		t.Fatalf("Acquire error: %v", err)
	}

	// The lock file content is exactly our PID.
	b, err := os.ReadFile(m.Path("backup"))
	if err != nil {
		t.Fatalf("read lock file: %v", err)
	}
	if string(b) != strconv.Itoa(os.Getpid()) {
		t.Fatalf("lock content = %q, want our pid", b)
	}

	if err := m.Release("backup"); err != nil {
		t.Fatalf("Release error: %v", err)
	}

	// No residual lock: the same process can acquire again right away.
	if err := m.Acquire("backup"); err != nil {
		t.Fatalf("re-Acquire after Release error: %v", err)
	}
	if err := m.Release("backup"); err != nil {
		t.Fatalf("second Release error: %v", err)
	}
}

func TestDoubleAcquireIsBug(t *testing.T) {
	t.Parallel()
	m := NewManager(WithDir(t.TempDir()))

	if err := m.Acquire("once"); err != nil {
		t.Fatalf("Acquire error: %v", err)
	}
	defer m.Release("once")

	err := m.Acquire("once")
	if err == nil {
		t.Fatal("second Acquire on same name should fail")
	}
	if errors.Is(err, ErrHeld) {
		t.Fatalf("double acquire must be a hard error, not ErrHeld: %v", err)
	}
}

func TestReleaseWithoutAcquire(t *testing.T) {
	t.Parallel()
	m := NewManager(WithDir(t.TempDir()))
	if err := m.Release("never-acquired"); err == nil {
		t.Fatal("Release without Acquire should fail")
	}
}

func TestAcquireHeldElsewhere(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	holder := NewManager(WithDir(dir))
	contender := NewManager(WithDir(dir))

	if err := holder.Acquire("shared"); err != nil {
		t.Fatalf("holder Acquire error: %v", err)
	}
	defer holder.Release("shared")

	// Independent open file descriptions conflict even within one process.
	err := contender.Acquire("shared")
	if !errors.Is(err, ErrHeld) {
		t.Fatalf("contender Acquire error = %v, want ErrHeld", err)
	}

	// Once released, the contender succeeds.
	if err := holder.Release("shared"); err != nil {
		t.Fatalf("holder Release error: %v", err)
	}
	if err := contender.Acquire("shared"); err != nil {
		t.Fatalf("contender Acquire after release error: %v", err)
	}
	_ = contender.Release("shared")
}

func TestAgeLifecycle(t *testing.T) {
	t.Parallel()
	m := NewManager(WithDir(t.TempDir()))

	// No lock file at all.
	if age, err := m.Age("fresh"); err != nil || age != 0 {
		t.Fatalf("Age without lock file = %v, %v; want 0", age, err)
	}

	if err := m.Acquire("fresh"); err != nil {
		t.Fatalf("Acquire error: %v", err)
	}
	age, err := m.Age("fresh")
	if err != nil {
		t.Fatalf("Age error: %v", err)
	}
	if age < 0 || age > 5*time.Second {
		t.Fatalf("Age right after Acquire = %v, want ~0", age)
	}
	if err := m.Release("fresh"); err != nil {
		t.Fatalf("Release error: %v", err)
	}

	// Released lock file is empty: age is back to zero.
	if age, err := m.Age("fresh"); err != nil || age != 0 {
		t.Fatalf("Age after Release = %v, %v; want 0", age, err)
	}
}

func TestAgeMeasuresFromMtime(t *testing.T) {
	t.Parallel()
	m := NewManager(WithDir(t.TempDir()))

	if err := m.Acquire("old"); err != nil {
		t.Fatalf("Acquire error: %v", err)
	}
	defer m.Release("old")

	// Backdate the lock file to simulate a long-running holder.
	past := time.Now().Add(-90 * time.Second)
	if err := os.Chtimes(m.Path("old"), past, past); err != nil {
		t.Fatalf("Chtimes error: %v", err)
	}

	age, err := m.Age("old")
	if err != nil {
		t.Fatalf("Age error: %v", err)
	}
	if age < 85*time.Second || age > 100*time.Second {
		t.Fatalf("Age = %v, want ~90s", age)
	}
}

func TestAgeDeadHolderIsZero(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	m := NewManager(WithDir(dir))

	// Forge a lock file owned by a PID that cannot exist, with an old mtime.
	path := m.Path("crashed")
	if err := os.WriteFile(path, []byte("99999999"), 0o666); err != nil {
		t.Fatalf("write forged lock: %v", err)
	}
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(path, past, past); err != nil {
		t.Fatalf("Chtimes error: %v", err)
	}

	age, err := m.Age("crashed")
	if err != nil {
		t.Fatalf("Age error: %v", err)
	}
	if age != 0 {
		t.Fatalf("Age with dead holder = %v, want 0", age)
	}
}

func TestSanitizeName(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want string
	}{
		{in: "Nightly Backup", want: "nightly_backup"},
		{in: "  spaced   out  ", want: "spaced_out"},
		{in: "weird/!@#chars", want: "weirdchars"},
		{in: "dots.and-dashes", want: "dots.and-dashes"},
		{in: "under__scores", want: "under_scores"},
		{in: "MixedCase", want: "mixedcase"},
	}
	for _, tt := range tests {
		if got := SanitizeName(tt.in); got != tt.want {
			t.Errorf("SanitizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	// Case- or spacing-only variants collide deliberately.
	if SanitizeName("My Job") != SanitizeName("my  JOB") {
		t.Error("case/spacing variants should map to the same lock name")
	}
}

func TestEnvironmentNamespacing(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	prod := NewManager(WithDir(dir), WithEnvironment("prod"))
	stage := NewManager(WithDir(dir), WithEnvironment("staging"))

	if prod.Path("sync") == stage.Path("sync") {
		t.Fatal("environments must not share lock files")
	}
	if filepath.Base(prod.Path("sync")) != "prod-sync.lck" {
		t.Fatalf("unexpected lock file name %q", filepath.Base(prod.Path("sync")))
	}

	// Same name, different environment: both locks can be held at once.
	if err := prod.Acquire("sync"); err != nil {
		t.Fatalf("prod Acquire error: %v", err)
	}
	defer prod.Release("sync")
	if err := stage.Acquire("sync"); err != nil {
		t.Fatalf("staging Acquire error: %v", err)
	}
	defer stage.Release("sync")
}
