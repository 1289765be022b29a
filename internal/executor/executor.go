// Package executor runs one job's action and reports the outcome.
//
// Command actions run synchronously under the shell with their streams
// appended to the configured destinations; handler actions run in-process
// with their stdout captured. The executor never truncates an output file.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"jobrun/internal/job"
	"jobrun/pkg/logx"
)

// trivialOutputBytes is the capture size below which handler output is
// considered noise (stray whitespace) and discarded instead of logged.
const trivialOutputBytes = 2

type Executor struct {
	log      logx.Logger
	registry *job.Registry
}

func New(log logx.Logger, registry *job.Registry) *Executor {
	if registry == nil {
		registry = job.DefaultRegistry
	}
	return &Executor{log: log, registry: registry}
}

// Run dispatches on the action kind and blocks until the action finishes.
// It reports failures through the Outcome; it does not return an error.
func (e *Executor) Run(ctx context.Context, j *job.Job) job.Outcome {
	switch j.Action.Kind {
	case job.ActionCommand:
		return e.runCommand(ctx, j)
	case job.ActionHandler:
		return e.runHandler(ctx, j)
	default:
		return job.Failure(job.FailureConfig, "job has no runnable action")
	}
}

func (e *Executor) runCommand(ctx context.Context, j *job.Job) job.Outcome {
	stdout, err := openSink(j.StdoutPath)
	if err != nil {
		return job.Failure(job.FailureIO, err.Error())
	}
	defer stdout.Close()

	stderr, err := openSink(j.StderrPath)
	if err != nil {
		return job.Failure(job.FailureIO, err.Error())
	}
	defer stderr.Close()

	argv := shellArgv(j.Action.Command, j.RunAs)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	e.log.Debug("running command", logx.String("job", j.Name), logx.String("argv0", argv[0]))

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code := exitErr.ExitCode()
			out := job.Failure(job.FailureCommand, fmt.Sprintf("Job exited with status '%d'.", code))
			out.ExitCode = code
			return out
		}
		// The command never ran (shell missing, fork failure, ...).
		return job.Failure(job.FailureIO, fmt.Sprintf("starting job command: %v", err))
	}
	return job.Success()
}

func (e *Executor) runHandler(ctx context.Context, j *job.Job) job.Outcome {
	fn, ok := e.registry.Lookup(j.Action.Handler)
	if !ok {
		return job.Failure(job.FailureConfig, fmt.Sprintf("handler %q is not registered", j.Action.Handler))
	}

	var captured bytes.Buffer
	ret := callHandler(ctx, fn, &captured)

	// Append whatever the handler printed, unless it is trivially small.
	if captured.Len() > trivialOutputBytes && j.StdoutPath != "" {
		if err := appendFile(j.StdoutPath, captured.Bytes()); err != nil {
			e.log.Warn("appending handler output failed",
				logx.String("job", j.Name), logx.Err(err))
		}
	}

	// Only the literal boolean true is success. A fault converted to a
	// message string can never be true, so faults always fail here.
	if b, ok := ret.(bool); ok && b {
		return job.Success()
	}
	return job.Failure(job.FailureHandler,
		fmt.Sprintf("Closure did not return true! Returned: %s", renderReturn(ret)))
}

// callHandler invokes fn, folding a returned error or a panic into the
// effective return value. Nothing raised by a handler escapes the executor.
func callHandler(ctx context.Context, fn job.HandlerFunc, stdout *bytes.Buffer) (ret any) {
	defer func() {
		if r := recover(); r != nil {
			ret = fmt.Sprint(r)
		}
	}()
	ret, err := fn(ctx, stdout)
	if err != nil {
		return err.Error()
	}
	return ret
}

func renderReturn(v any) string {
	switch x := v.(type) {
	case nil:
		return "<nil>"
	case string:
		return x
	default:
		return fmt.Sprintf("%v", v)
	}
}

// openSink opens an output destination for appending, creating parent
// directories on first use. An empty path routes to the null device.
func openSink(path string) (*os.File, error) {
	if path == "" {
		return os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	}
	if err := ensureParentDir(path); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open output file %q: %w", path, err)
	}
	return f, nil
}

func appendFile(path string, b []byte) error {
	f, err := openSink(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(b)
	return err
}
