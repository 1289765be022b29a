// Package lock provides per-job mutual exclusion through advisory file
// locks. Separate job instances run in separate processes, so the OS-level
// non-blocking exclusive lock is the one real arbiter; the in-process table
// only guards against double-acquire bugs within one process.
package lock

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ErrHeld means another process holds the lock. This is routine overlap
// avoidance, not a fault.
var ErrHeld = errors.New("lock held by another process")

const (
	acquireAttempts = 5
	acquireBackoff  = 250 * time.Microsecond

	lockSuffix = ".lck"
)

// Manager acquires and releases one advisory lock per job name. The table of
// held handles is explicit per-Manager state, so tests can run independent
// managers side by side.
type Manager struct {
	dir string // lock file directory, default os.TempDir()
	env string // optional namespace prefixed onto lock file names

	mu   sync.Mutex
	held map[string]*os.File
}

type Option func(*Manager)

// WithDir overrides the lock file directory.
func WithDir(dir string) Option { return func(m *Manager) { m.dir = dir } }

// WithEnvironment namespaces lock files as "<env>-<name>.lck".
func WithEnvironment(env string) Option { return func(m *Manager) { m.env = env } }

func NewManager(opts ...Option) *Manager {
	m := &Manager{dir: os.TempDir(), held: map[string]*os.File{}}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Path returns the lock file path for a job name.
func (m *Manager) Path(name string) string {
	base := SanitizeName(name)
	if m.env != "" {
		base = SanitizeName(m.env) + "-" + base
	}
	return filepath.Join(m.dir, base+lockSuffix)
}

// Acquire takes the exclusive lock for name, retrying a few times with a
// short backoff before reporting ErrHeld. On success the file holds exactly
// the caller's PID. A second Acquire for the same name from this Manager is a
// hard error: the real overlap race is handled by the OS lock, so a
// double-acquire here can only be a logic bug upstream.
func (m *Manager) Acquire(name string) error {
	path := m.Path(name)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.held[path]; ok {
		return fmt.Errorf("lock %q already acquired by this process", path)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o666)
	if err != nil {
		return fmt.Errorf("open lock file %q: %w", path, err)
	}

	locked := false
	for attempt := 0; attempt < acquireAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(acquireBackoff)
		}
		if err := flockTry(f); err == nil {
			locked = true
			break
		}
	}
	if !locked {
		_ = f.Close()
		return fmt.Errorf("%w: %s", ErrHeld, path)
	}

	if err := f.Truncate(0); err != nil {
		_ = flockRelease(f)
		_ = f.Close()
		return fmt.Errorf("truncate lock file %q: %w", path, err)
	}
	if _, err := f.WriteAt([]byte(strconv.Itoa(os.Getpid())), 0); err != nil {
		_ = flockRelease(f)
		_ = f.Close()
		return fmt.Errorf("write pid to lock file %q: %w", path, err)
	}

	m.held[path] = f
	return nil
}

// Release empties the lock file and drops the OS lock. Releasing a lock this
// Manager never acquired is a hard error.
func (m *Manager) Release(name string) error {
	path := m.Path(name)

	m.mu.Lock()
	defer m.mu.Unlock()

	f, ok := m.held[path]
	if !ok {
		return fmt.Errorf("lock %q is not held by this process", path)
	}
	delete(m.held, path)

	// Empty the file first so a reader never sees a stale PID after unlock.
	if err := f.Truncate(0); err != nil {
		_ = flockRelease(f)
		_ = f.Close()
		return fmt.Errorf("truncate lock file %q: %w", path, err)
	}
	if err := flockRelease(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("unlock %q: %w", path, err)
	}
	return f.Close()
}

// Age reports how long the lock for name has been held, measured from the
// lock file's mtime. It is zero when the file is missing or empty, and also
// when the recorded PID is no longer alive: a crashed holder must not look
// like an overrun and block future runs. A live overrun is measured
// precisely, via mtime rather than a separately tracked start time.
func (m *Manager) Age(name string) (time.Duration, error) {
	path := m.Path(name)

	fi, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("stat lock file %q: %w", path, err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read lock file %q: %w", path, err)
	}
	pidText := strings.TrimSpace(string(content))
	if pidText == "" {
		return 0, nil
	}
	pid, err := strconv.Atoi(pidText)
	if err != nil {
		// Garbage content; treat like an unheld lock.
		return 0, nil
	}
	if !pidAlive(pid) {
		return 0, nil
	}
	return time.Since(fi.ModTime()), nil
}

var (
	dropRE     = regexp.MustCompile(`[^a-z0-9_. \-]`)
	spaceRE    = regexp.MustCompile(`\s+`)
	repeatedRE = regexp.MustCompile(`_+`)
)

// SanitizeName canonicalizes a job name into a lock file basename:
// lower-cased, restricted to [a-z0-9_. -], trimmed, internal whitespace and
// underscore runs collapsed to single underscores. Names differing only by
// case or spacing therefore share a lock file; that is accepted behavior.
func SanitizeName(name string) string {
	s := strings.ToLower(name)
	s = dropRE.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	s = spaceRE.ReplaceAllString(s, "_")
	s = repeatedRE.ReplaceAllString(s, "_")
	return s
}
