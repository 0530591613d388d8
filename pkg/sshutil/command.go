package sshutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/ssh"
)

// CommandRunner defines the interface for executing commands.
type CommandRunner interface {
	Run(ctx context.Context, command string) error
}

// CommandResult holds the result of a command execution.
type CommandResult struct {
	// ExitCode is the exit status of the command.
	ExitCode int

	// Stdout is the standard output of the command.
	Stdout string

	// Stderr is the standard error of the command.
	Stderr string
}

// SSHCommandRunner implements CommandRunner over SSH.
type SSHCommandRunner struct {
	client *Client
	logger *slog.Logger
}

// CommandRunnerOption is a functional option for configuring the SSHCommandRunner.
type CommandRunnerOption func(*SSHCommandRunner)

// WithCommandLogger sets a custom logger for command execution.
func WithCommandLogger(logger *slog.Logger) CommandRunnerOption {
	return func(cr *SSHCommandRunner) {
		if logger != nil {
			cr.logger = logger
		}
	}
}

// NewSSHCommandRunner creates a new SSH-based CommandRunner.
// The underlying SSH client must be connected before use.
func NewSSHCommandRunner(client *Client, opts ...CommandRunnerOption) *SSHCommandRunner {
	cr := &SSHCommandRunner{
		client: client,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(cr)
	}

	return cr
}

// Run executes a command on the remote system.
// It returns an error if the command fails (non-zero exit code) or if there's a communication error.
func (cr *SSHCommandRunner) Run(ctx context.Context, command string) error {
	result, err := cr.RunWithOutput(ctx, command)
	if err != nil {
		return err
	}

	if result.ExitCode != 0 {
		errMsg := strings.TrimSpace(result.Stderr)
		if errMsg == "" {
			errMsg = strings.TrimSpace(result.Stdout)
		}
		return fmt.Errorf("command failed with exit code %d: %s", result.ExitCode, errMsg)
	}

	return nil
}

// RunWithOutput executes a command and returns the full result including stdout/stderr.
//
// A command that ran and exited non-zero is not an error: the status is in
// the result. The error is reserved for failures to run the command at all.
func (cr *SSHCommandRunner) RunWithOutput(ctx context.Context, command string) (*CommandResult, error) {
	sshConn, err := cr.client.GetConnection()
	if err != nil {
		return nil, fmt.Errorf("getting SSH connection: %w", err)
	}

	session, err := sshConn.NewSession()
	if err != nil {
		return nil, fmt.Errorf("creating SSH session: %w", err)
	}
	defer func() { _ = session.Close() }()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	done := make(chan error, 1)
	go func() {
		done <- session.Run(command)
	}()

	select {
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGKILL) // best effort
		_ = session.Close()
		return nil, ctx.Err()
	case err := <-done:
		result := &CommandResult{
			ExitCode: 0,
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
		}

		if err != nil {
			code, ok := exitCode(err)
			if !ok {
				return nil, fmt.Errorf("running command: %w", err)
			}
			result.ExitCode = code
		}

		cr.logger.Debug("command completed",
			slog.Int("exit_code", result.ExitCode),
			slog.Int("stdout_len", len(result.Stdout)),
			slog.Int("stderr_len", len(result.Stderr)),
		)

		return result, nil
	}
}

// exitCode extracts the remote exit status from a session error.
// It reports false when err is not an exit status at all.
func exitCode(err error) (int, bool) {
	var exitErr *ssh.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitStatus(), true
	}

	var missing *ssh.ExitMissingError
	if errors.As(err, &missing) {
		return -1, true
	}

	return 0, false
}
