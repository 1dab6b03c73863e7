package agent

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/redwing-381/ethglb-p1-sub001/internal/core"
)

const (
	// MaxOutputSize is the maximum size of CLI output (10MB).
	MaxOutputSize = 10 * 1024 * 1024

	// DefaultTimeout is the default timeout for CLI commands.
	DefaultTimeout = 5 * time.Minute
)

// Command configures the CLI command that backs one role's agent.
type Command struct {
	Command string
	Args    []string
	Timeout time.Duration
}

// CLIInvoker runs role agents as external CLI commands: the prompt is
// passed as the final argument and stdout is the agent's response.
// There is no retry: a failed invocation is recorded by the controller
// and the run proceeds.
type CLIInvoker struct {
	commands map[core.Role]Command
}

// NewCLIInvoker creates an invoker from a role-to-command mapping.
func NewCLIInvoker(commands map[core.Role]Command) *CLIInvoker {
	return &CLIInvoker{commands: commands}
}

// Available checks that every role's command is installed.
func (c *CLIInvoker) Available() bool {
	for _, cmd := range c.commands {
		if _, err := exec.LookPath(cmd.Command); err != nil {
			return false
		}
	}
	return len(c.commands) > 0
}

// Invoke executes the role's CLI command with the prompt.
func (c *CLIInvoker) Invoke(ctx context.Context, role core.Role, prompt string) (string, error) {
	cmd, ok := c.commands[role]
	if !ok {
		return "", &InvocationError{Role: role, Message: "no command configured"}
	}

	if _, err := exec.LookPath(cmd.Command); err != nil {
		return "", &InvocationError{Role: role, Message: "executable not found in PATH", Err: err}
	}

	timeout := cmd.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := append([]string{}, cmd.Args...)
	args = append(args, prompt)

	slog.Debug("Executing agent command", "role", role, "command", cmd.Command)

	run := exec.CommandContext(ctx, cmd.Command, args...)

	var stdout, stderr bytes.Buffer
	stdoutLimited := newLimitedWriter(&stdout, MaxOutputSize)
	run.Stdout = stdoutLimited
	run.Stderr = newLimitedWriter(&stderr, MaxOutputSize)

	if err := run.Run(); err != nil {
		slog.Error("Agent command failed", "role", role, "error", err, "stderr", stderr.String())
		if ctx.Err() == context.DeadlineExceeded {
			return "", &InvocationError{Role: role, Message: "command timed out", Err: ctx.Err()}
		}
		if stderr.Len() > 0 {
			return "", &InvocationError{Role: role, Message: stderr.String(), Err: err}
		}
		return "", &InvocationError{Role: role, Message: "command failed", Err: err}
	}

	result := strings.TrimSpace(stdout.String())
	if stdoutLimited.limited {
		result = result + "\n... (output truncated at 10MB)"
	}

	slog.Debug("Agent command successful", "role", role, "output_len", len(result))
	return result, nil
}

// limitedWriter wraps an io.Writer and limits total bytes written.
type limitedWriter struct {
	w       io.Writer
	n       int64
	limit   int64
	limited bool
}

func newLimitedWriter(w io.Writer, limit int64) *limitedWriter {
	return &limitedWriter{w: w, limit: limit}
}

func (l *limitedWriter) Write(p []byte) (n int, err error) {
	if l.n >= l.limit {
		l.limited = true
		return len(p), nil // Discard, but don't error
	}

	remaining := l.limit - l.n
	if int64(len(p)) > remaining {
		p = p[:remaining]
		l.limited = true
	}

	n, err = l.w.Write(p)
	l.n += int64(n)
	return n, err
}
