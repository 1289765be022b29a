//go:build unix

package executor

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"jobrun/internal/job"
	"jobrun/pkg/logx"
)

func newTestExecutor(t *testing.T) (*Executor, *job.Registry) {
	t.Helper()
	reg := job.NewRegistry()
	return New(logx.Nop(), reg), reg
}

func TestCommandSuccess(t *testing.T) {
	t.Parallel()
	e, _ := newTestExecutor(t)
	dir := t.TempDir()

	j := &job.Job{
		Name:       "echoer",
		Action:     job.CommandAction("echo hello"),
		StdoutPath: filepath.Join(dir, "out.log"),
		Enabled:    true,
	}

	out := e.Run(context.Background(), j)
	if out.Status != job.StatusSuccess {
		t.Fatalf("Run status = %v, message = %q; want success", out.Status, out.Message)
	}

	b, err := os.ReadFile(j.StdoutPath)
	if err != nil {
		t.Fatalf("read stdout log: %v", err)
	}
	if strings.TrimSpace(string(b)) != "hello" {
		t.Fatalf("stdout log = %q, want hello", b)
	}
}

func TestCommandStreamsSplit(t *testing.T) {
	t.Parallel()
	e, _ := newTestExecutor(t)
	dir := t.TempDir()

	j := &job.Job{
		Name:       "split",
		Action:     job.CommandAction("echo to-out; echo to-err 1>&2"),
		StdoutPath: filepath.Join(dir, "stdout.log"),
		StderrPath: filepath.Join(dir, "stderr.log"),
	}

	out := e.Run(context.Background(), j)
	if out.Status != job.StatusSuccess {
		t.Fatalf("Run failed: %q", out.Message)
	}

	stdout, _ := os.ReadFile(j.StdoutPath)
	stderr, _ := os.ReadFile(j.StderrPath)
	if strings.TrimSpace(string(stdout)) != "to-out" {
		t.Fatalf("stdout = %q, want to-out", stdout)
	}
	if strings.TrimSpace(string(stderr)) != "to-err" {
		t.Fatalf("stderr = %q, want to-err", stderr)
	}
}

func TestCommandNotFound(t *testing.T) {
	t.Parallel()
	e, _ := newTestExecutor(t)
	dir := t.TempDir()

	j := &job.Job{
		Name:       "missing",
		Action:     job.CommandAction("definitely-not-a-real-command-12345"),
		StderrPath: filepath.Join(dir, "stderr.log"),
	}

	out := e.Run(context.Background(), j)
	if out.Status != job.StatusFailure || out.Kind != job.FailureCommand {
		t.Fatalf("Run = %+v, want command failure", out)
	}
	if out.ExitCode != 127 {
		t.Fatalf("ExitCode = %d, want 127", out.ExitCode)
	}
	if out.Message != "Job exited with status '127'." {
		t.Fatalf("Message = %q", out.Message)
	}

	// The shell's own "not found" complaint lands in the stderr destination.
	stderr, err := os.ReadFile(j.StderrPath)
	if err != nil {
		t.Fatalf("read stderr log: %v", err)
	}
	if !strings.Contains(string(stderr), "not found") {
		t.Fatalf("stderr = %q, want shell not-found text", stderr)
	}
}

func TestCommandCreatesLogDirectories(t *testing.T) {
	t.Parallel()
	e, _ := newTestExecutor(t)
	dir := t.TempDir()

	j := &job.Job{
		Name:       "nested",
		Action:     job.CommandAction("echo deep"),
		StdoutPath: filepath.Join(dir, "a", "b", "c", "out.log"),
	}

	out := e.Run(context.Background(), j)
	if out.Status != job.StatusSuccess {
		t.Fatalf("Run failed: %q", out.Message)
	}
	if _, err := os.Stat(j.StdoutPath); err != nil {
		t.Fatalf("stdout log not created: %v", err)
	}
}

func TestCommandAppendsNeverTruncates(t *testing.T) {
	t.Parallel()
	e, _ := newTestExecutor(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "out.log")

	if err := os.WriteFile(path, []byte("existing\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	j := &job.Job{Name: "appender", Action: job.CommandAction("echo more"), StdoutPath: path}
	if out := e.Run(context.Background(), j); out.Status != job.StatusSuccess {
		t.Fatalf("Run failed: %q", out.Message)
	}

	b, _ := os.ReadFile(path)
	if string(b) != "existing\nmore\n" {
		t.Fatalf("log = %q, want prior content preserved", b)
	}
}

func TestHandlerSuccess(t *testing.T) {
	t.Parallel()
	e, reg := newTestExecutor(t)
	dir := t.TempDir()

	reg.Register("printer", func(ctx context.Context, stdout io.Writer) (any, error) {
		io.WriteString(stdout, "test")
		return true, nil
	})

	j := &job.Job{
		Name:       "printer-job",
		Action:     job.HandlerAction("printer"),
		StdoutPath: filepath.Join(dir, "out.log"),
	}

	out := e.Run(context.Background(), j)
	if out.Status != job.StatusSuccess {
		t.Fatalf("Run = %+v, want success", out)
	}
	b, err := os.ReadFile(j.StdoutPath)
	if err != nil {
		t.Fatalf("read stdout log: %v", err)
	}
	if string(b) != "test" {
		t.Fatalf("stdout log = %q, want %q", b, "test")
	}
}

func TestHandlerNonTrueReturn(t *testing.T) {
	t.Parallel()
	e, reg := newTestExecutor(t)

	reg.Register("refuser", func(ctx context.Context, stdout io.Writer) (any, error) {
		return false, nil
	})

	j := &job.Job{Name: "refuser-job", Action: job.HandlerAction("refuser")}
	out := e.Run(context.Background(), j)
	if out.Status != job.StatusFailure || out.Kind != job.FailureHandler {
		t.Fatalf("Run = %+v, want handler failure", out)
	}
	if !strings.HasPrefix(out.Message, "Closure did not return true!") {
		t.Fatalf("Message = %q", out.Message)
	}
	if !strings.Contains(out.Message, "false") {
		t.Fatalf("Message should render the actual return value: %q", out.Message)
	}
}

func TestHandlerErrorBecomesMessage(t *testing.T) {
	t.Parallel()
	e, reg := newTestExecutor(t)

	reg.Register("failer", func(ctx context.Context, stdout io.Writer) (any, error) {
		return nil, errors.New("database unreachable")
	})

	j := &job.Job{Name: "failer-job", Action: job.HandlerAction("failer")}
	out := e.Run(context.Background(), j)
	if out.Status != job.StatusFailure {
		t.Fatalf("Run = %+v, want failure", out)
	}
	// The error message is the effective return value, which is not true.
	if !strings.Contains(out.Message, "database unreachable") {
		t.Fatalf("Message = %q", out.Message)
	}
}

func TestHandlerPanicIsContained(t *testing.T) {
	t.Parallel()
	e, reg := newTestExecutor(t)

	reg.Register("panicker", func(ctx context.Context, stdout io.Writer) (any, error) {
		panic("boom")
	})

	j := &job.Job{Name: "panicker-job", Action: job.HandlerAction("panicker")}
	out := e.Run(context.Background(), j)
	if out.Status != job.StatusFailure {
		t.Fatalf("Run = %+v, want failure", out)
	}
	if !strings.Contains(out.Message, "boom") {
		t.Fatalf("Message = %q, want panic text folded in", out.Message)
	}
}

func TestHandlerTrivialOutputDiscarded(t *testing.T) {
	t.Parallel()
	e, reg := newTestExecutor(t)
	dir := t.TempDir()

	reg.Register("whisper", func(ctx context.Context, stdout io.Writer) (any, error) {
		io.WriteString(stdout, "\n")
		return true, nil
	})

	j := &job.Job{
		Name:       "whisper-job",
		Action:     job.HandlerAction("whisper"),
		StdoutPath: filepath.Join(dir, "out.log"),
	}
	if out := e.Run(context.Background(), j); out.Status != job.StatusSuccess {
		t.Fatalf("Run = %+v, want success", out)
	}
	if _, err := os.Stat(j.StdoutPath); !os.IsNotExist(err) {
		t.Fatalf("trivial output should not create a log file, stat err = %v", err)
	}
}

func TestHandlerUnregistered(t *testing.T) {
	t.Parallel()
	e, _ := newTestExecutor(t)

	j := &job.Job{Name: "ghost", Action: job.HandlerAction("nobody")}
	out := e.Run(context.Background(), j)
	if out.Status != job.StatusFailure || out.Kind != job.FailureConfig {
		t.Fatalf("Run = %+v, want config failure", out)
	}
}
