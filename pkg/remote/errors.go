package remote

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for remote execution.
var (
	// ErrTransport is wrapped by every failure to reach or talk to a host.
	ErrTransport = errors.New("remote transport failure")

	// ErrNonZeroExit is wrapped when the remote command ran but failed.
	ErrNonZeroExit = errors.New("remote command exited non-zero")
)

// ConfigError reports a required connection setting that is missing.
// It is returned at construction time and never retried.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Message)
}

// errConfigMissing creates an error for a missing required configuration field.
func errConfigMissing(field string) error {
	return &ConfigError{
		Field:   field,
		Message: "you must configure " + field,
	}
}

// RemoteExecutionError is returned when a command could not be run on the
// remote host or exited with a non-zero status.
type RemoteExecutionError struct {
	Host    string
	Command string

	// ExitCode is the remote exit status, or -1 when the command never ran.
	ExitCode int
	Stdout   string
	Stderr   string
	Err      error
}

func (e *RemoteExecutionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "running %q on %s", e.Command, e.Host)
	if e.ExitCode >= 0 {
		fmt.Fprintf(&b, ": exit status %d", e.ExitCode)
	}
	if msg := strings.TrimSpace(e.Stderr); msg != "" {
		fmt.Fprintf(&b, ": %s", msg)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *RemoteExecutionError) Unwrap() error {
	return e.Err
}

// ParseError is returned when discovered text cannot be parsed.
// Input is kept for callers but left out of Error, since discovered values
// may carry credentials.
type ParseError struct {
	Kind  string
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Kind, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
