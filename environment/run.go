package environment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/paperlab/querybot/tracing"
	"github.com/viant/afs/url"
)

// RunOption customises a Run invocation; by default the entry process
// inherits the parent's standard streams.
type RunOption func(*runOptions)

type runOptions struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// WithStdio overrides the standard streams of the entry process.
func WithStdio(stdin io.Reader, stdout, stderr io.Writer) RunOption {
	return func(o *runOptions) {
		o.stdin = stdin
		o.stdout = stdout
		o.stderr = stderr
	}
}

// Run starts the sole entry process with the recipe's fixed command line and
// blocks until it exits. The process exit code is returned unmodified; a
// non-zero code is not an error. The returned error is non-nil only when the
// environment is not built or the process could not be started, in which
// case the error is a *RunError.
//
// There is no supervision or restart: once the process exits the
// environment is EXITED for good.
func (e *Environment) Run(ctx context.Context, options ...RunOption) (code int, err error) {
	ctx, span := tracing.StartSpan(ctx, "environment.Run", "INTERNAL")
	defer tracing.EndSpan(span, err)

	if state := e.State(); state != StateBuilt {
		return -1, &RunError{Err: fmt.Errorf("environment is %v, expected %v", state, StateBuilt)}
	}

	opts := &runOptions{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
	for _, option := range options {
		option(opts)
	}

	entry := e.recipe.Entry
	cmd := exec.CommandContext(ctx, entry.Interpreter, entry.Script)
	cmd.Dir = url.Path(e.recipe.Root)
	cmd.Stdin = opts.stdin
	cmd.Stdout = opts.stdout
	cmd.Stderr = opts.stderr
	cmd.Env = os.Environ()
	for k, v := range e.recipe.Env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
	}

	if err = cmd.Start(); err != nil {
		return -1, &RunError{Err: err}
	}
	e.setState(StateRunning)
	span.WithAttributes(map[string]string{
		"entry.interpreter": entry.Interpreter,
		"entry.script":      entry.Script,
	})

	err = cmd.Wait()
	code = 0
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
			err = nil
		} else {
			e.setExited(-1)
			return -1, &RunError{Err: err}
		}
	}
	e.setExited(code)
	return code, nil
}

func (e *Environment) setExited(code int) {
	e.mux.Lock()
	e.state = StateExited
	e.exitCode = code
	e.mux.Unlock()
}
