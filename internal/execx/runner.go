// Package execx runs external commands with explicit working
// directories and captured output.
package execx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// ErrEmptyCommand indicates a Command without a program name.
var ErrEmptyCommand = errors.New("execx: empty command name")

const stderrExcerptLines = 10

// Command describes a single external command invocation. Dir is always
// passed to the child process explicitly; the runner never changes the
// working directory of the calling process.
type Command struct {
	Name string
	Args []string
	Dir  string
	// Env holds KEY=VALUE pairs appended to the parent environment.
	Env []string
}

// String returns the command line for logs and error messages.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Result captures the output of a completed command.
type Result struct {
	Stdout string
	Stderr string
}

// Runner executes external commands.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// CommandError wraps a nonzero exit (or spawn failure) together with a
// stderr excerpt so callers can surface what the tool printed.
type CommandError struct {
	Command string
	Stderr  string
	Err     error
}

func (e *CommandError) Error() string {
	excerpt := tailLines(e.Stderr, stderrExcerptLines)
	if excerpt == "" {
		return fmt.Sprintf("running %s: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("running %s: %v: %s", e.Command, e.Err, excerpt)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ExecRunner runs commands via os/exec. When streaming is enabled the
// child's output is mirrored to the parent's stdout/stderr in addition
// to being captured.
type ExecRunner struct {
	logger *zap.Logger
	stream bool
}

// NewRunner constructs an ExecRunner.
func NewRunner(logger *zap.Logger, stream bool) *ExecRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExecRunner{logger: logger, stream: stream}
}

// Run executes the command and waits for it to finish.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) (Result, error) {
	if strings.TrimSpace(cmd.Name) == "" {
		return Result{}, ErrEmptyCommand
	}

	child := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	child.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		child.Env = append(os.Environ(), cmd.Env...)
	}

	var stdout, stderr bytes.Buffer
	child.Stdout = &stdout
	child.Stderr = &stderr
	if r.stream {
		child.Stdout = io.MultiWriter(&stdout, os.Stdout)
		child.Stderr = io.MultiWriter(&stderr, os.Stderr)
	}

	r.logger.Debug("running command",
		zap.String("command", cmd.String()),
		zap.String("dir", cmd.Dir),
	)

	err := child.Run()
	result := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		return result, &CommandError{Command: cmd.String(), Stderr: result.Stderr, Err: err}
	}
	return result, nil
}

func tailLines(text string, n int) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ""
	}
	lines := strings.Split(trimmed, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
