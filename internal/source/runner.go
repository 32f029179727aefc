package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"
)

var ErrCommandFailed = errors.New("source: command failed")

// Runner starts a command and exposes its stdout as a stream.
// Closing the stream releases the process or session behind it.
type Runner interface {
	Open(ctx context.Context, name string, args ...string) (io.ReadCloser, error)
}

// Command is an lsof invocation.
type Command struct {
	Path    string
	Args    []string
	Timeout time.Duration
}

// DefaultCommand lists every open file with numeric hosts and ports in
// NUL-separated field mode.
func DefaultCommand() Command {
	return Command{
		Path: "lsof",
		Args: []string{"-n", "-P", "-F0"},
	}
}

func (c Command) String() string {
	return joinCommand(c.Path, c.Args)
}

// Open runs c through r. The timeout, if any, bounds the whole read.
func (c Command) Open(ctx context.Context, r Runner) (io.ReadCloser, error) {
	if strings.TrimSpace(c.Path) == "" {
		return nil, unavailable("command", errors.New("empty command path"))
	}
	cancel := context.CancelFunc(func() {})
	if c.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
	}
	rc, err := r.Open(ctx, c.Path, c.Args...)
	if err != nil {
		cancel()
		return nil, err
	}
	return &stream{Reader: rc, close: func() error {
		defer cancel()
		return rc.Close()
	}}, nil
}

// LocalRunner executes commands on the local host.
type LocalRunner struct{}

func (LocalRunner) Open(ctx context.Context, name string, args ...string) (io.ReadCloser, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, unavailable("pipe "+name, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, unavailable("start "+name, err)
	}

	return &stream{Reader: stdout, close: func() error {
		stdout.Close()
		if err := cmd.Wait(); err != nil {
			return commandError(name, exitCode(err), stderr.String(), err)
		}
		return nil
	}}, nil
}

func commandError(name string, code int32, stderr string, err error) error {
	msg := strings.TrimSpace(stderr)
	if msg == "" {
		return fmt.Errorf("%w: %s exited %d: %w", ErrCommandFailed, name, code, err)
	}
	return fmt.Errorf("%w: %s exited %d: %s", ErrCommandFailed, name, code, msg)
}

func exitCode(err error) int32 {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return int32(exitErr.ExitCode())
	}
	var execErr *exec.Error
	if errors.As(err, &execErr) {
		return 127
	}
	return 1
}

func joinCommand(cmd string, args []string) string {
	if len(args) == 0 {
		return shellEscape(cmd)
	}

	var builder strings.Builder
	builder.WriteString(shellEscape(cmd))
	for _, arg := range args {
		builder.WriteByte(' ')
		builder.WriteString(shellEscape(arg))
	}

	return builder.String()
}

func shellEscape(value string) string {
	if value == "" {
		return "''"
	}

	return "'" + strings.ReplaceAll(value, "'", `'"'"'`) + "'"
}
