package remote

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"gitlab.bluewillows.net/root/whitebox/pkg/sshutil"
)

// Transport opens connections to remote hosts.
type Transport interface {
	Connect(ctx context.Context, host string, id Identity) (Conn, error)
}

// Conn runs commands on one connected host.
type Conn interface {
	// Run runs command and returns its standard output. A non-zero exit
	// status or a transport failure is reported as *RemoteExecutionError.
	Run(ctx context.Context, command string) (string, error)
	Close() error
}

// SSHSettings are the transport-wide SSH options that are not part of the
// identity.
type SSHSettings struct {
	Port                  int
	Timeout               time.Duration
	KnownHostsFile        string
	StrictHostKeyChecking bool
	SSHConfigFile         string
}

// SSHTransport connects to hosts with pkg/sshutil.
type SSHTransport struct {
	settings SSHSettings
	resolver sshutil.Resolver
	logger   *slog.Logger
}

// TransportOption is a functional option for configuring the SSHTransport.
type TransportOption func(*SSHTransport)

// WithTransportLogger sets a custom logger for the transport.
func WithTransportLogger(logger *slog.Logger) TransportOption {
	return func(t *SSHTransport) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithResolver sets the resolver used to find the address of each host.
func WithResolver(resolver sshutil.Resolver) TransportOption {
	return func(t *SSHTransport) {
		t.resolver = resolver
	}
}

// NewSSHTransport creates a transport using settings for every connection.
func NewSSHTransport(settings SSHSettings, opts ...TransportOption) *SSHTransport {
	t := &SSHTransport{
		settings: settings,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Dial returns a connected sshutil.Client for host. The caller closes it.
func (t *SSHTransport) Dial(ctx context.Context, host string, id Identity) (*sshutil.Client, error) {
	cfg := &sshutil.Config{
		Host:                  host,
		Port:                  t.settings.Port,
		User:                  id.User,
		KeyFile:               id.KeyPath,
		Timeout:               t.settings.Timeout,
		KnownHostsFile:        t.settings.KnownHostsFile,
		StrictHostKeyChecking: t.settings.StrictHostKeyChecking,
		SSHConfigFile:         t.settings.SSHConfigFile,
	}

	opts := []sshutil.ClientOption{sshutil.WithLogger(t.logger)}
	if t.resolver != nil {
		opts = append(opts, sshutil.WithResolver(t.resolver))
	}

	client, err := sshutil.NewClient(cfg, opts...)
	if err != nil {
		return nil, transportError(host, "", err)
	}

	if err := client.Connect(ctx); err != nil {
		return nil, transportError(host, "", err)
	}

	return client, nil
}

// Connect implements Transport.
func (t *SSHTransport) Connect(ctx context.Context, host string, id Identity) (Conn, error) {
	client, err := t.Dial(ctx, host, id)
	if err != nil {
		return nil, err
	}

	return &sshConn{
		host:   host,
		client: client,
		runner: sshutil.NewSSHCommandRunner(client, sshutil.WithCommandLogger(t.logger)),
	}, nil
}

type sshConn struct {
	host   string
	client *sshutil.Client
	runner *sshutil.SSHCommandRunner
}

func (c *sshConn) Run(ctx context.Context, command string) (string, error) {
	result, err := c.runner.RunWithOutput(ctx, command)
	if err != nil {
		return "", transportError(c.host, command, err)
	}

	if result.ExitCode != 0 {
		return "", &RemoteExecutionError{
			Host:     c.host,
			Command:  command,
			ExitCode: result.ExitCode,
			Stdout:   result.Stdout,
			Stderr:   result.Stderr,
			Err:      ErrNonZeroExit,
		}
	}

	return result.Stdout, nil
}

func (c *sshConn) Close() error {
	return c.client.Close()
}

func transportError(host, command string, err error) error {
	return &RemoteExecutionError{
		Host:     host,
		Command:  command,
		ExitCode: -1,
		Err:      fmt.Errorf("%w: %w", ErrTransport, err),
	}
}

// DryRunTransport prints every command instead of running it.
type DryRunTransport struct {
	Out io.Writer
}

// Connect implements Transport.
func (t DryRunTransport) Connect(_ context.Context, host string, id Identity) (Conn, error) {
	return dryRunConn{out: t.Out, host: host, user: id.User}, nil
}

type dryRunConn struct {
	out  io.Writer
	host string
	user string
}

func (c dryRunConn) Run(_ context.Context, command string) (string, error) {
	_, err := fmt.Fprintf(c.out, "%s@%s: %s\n", c.user, c.host, command)
	return "", err
}

func (c dryRunConn) Close() error { return nil }
