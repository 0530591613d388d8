package sshutil

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// Sentinel errors for SSH operations.
var (
	// ErrNotConnected is returned when an operation is attempted on a disconnected client.
	ErrNotConnected = errors.New("ssh client is not connected")

	// ErrAlreadyConnected is returned when Connect is called on an already connected client.
	ErrAlreadyConnected = errors.New("ssh client is already connected")

	// ErrAuthenticationFailed is returned when SSH authentication fails.
	ErrAuthenticationFailed = errors.New("ssh authentication failed")

	// ErrConnectionTimeout is returned when the connection times out.
	ErrConnectionTimeout = errors.New("ssh connection timed out")
)

// Resolver maps a host name to the address that should be dialed.
type Resolver interface {
	Resolve(ctx context.Context, host string) (string, error)
}

// Client manages one SSH connection.
type Client struct {
	config   *Config
	logger   *slog.Logger
	resolver Resolver

	mu      sync.RWMutex
	conn    *ssh.Client
	connCtx context.Context    //nolint:containedctx // connection lifetime context
	cancel  context.CancelFunc // cancel function for connection context
}

// ClientOption is a functional option for configuring the Client.
type ClientOption func(*Client)

// WithLogger sets a custom logger for the SSH client.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithResolver sets the resolver used to turn the host name into the
// address that is dialed. Without one the system resolver is used.
func WithResolver(resolver Resolver) ClientOption {
	return func(c *Client) {
		c.resolver = resolver
	}
}

// NewClient creates a new SSH client with the given configuration.
// The client is not connected until Connect() is called.
func NewClient(config *Config, opts ...ClientOption) (*Client, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	c := &Client{
		config: config,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Connect establishes an SSH connection to the configured server.
// If already connected, returns ErrAlreadyConnected.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return ErrAlreadyConnected
	}

	host, port, err := c.target()
	if err != nil {
		return err
	}
	// The name is what host keys are checked against; the dialed address
	// may be a resolved IP.
	name := net.JoinHostPort(host, strconv.Itoa(port))

	dialHost := host
	if c.resolver != nil {
		dialHost, err = c.resolver.Resolve(ctx, host)
		if err != nil {
			return fmt.Errorf("resolving %s: %w", host, err)
		}
	}
	addr := net.JoinHostPort(dialHost, strconv.Itoa(port))

	sshConfig, err := c.buildSSHConfig()
	if err != nil {
		return fmt.Errorf("building SSH config: %w", err)
	}

	c.logger.Debug("connecting to SSH server",
		slog.String("host", host),
		slog.String("address", addr),
		slog.String("user", c.config.User),
	)

	timeout := c.config.GetTimeout()
	dialCtx, dialCancel := context.WithTimeout(ctx, timeout)
	defer dialCancel()

	dialer := &net.Dialer{
		Timeout: timeout,
	}

	netConn, err := dialer.DialContext(dialCtx, "tcp", addr)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrConnectionTimeout
		}
		return fmt.Errorf("dialing %s: %w", addr, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(netConn, name, sshConfig)
	if err != nil {
		_ = netConn.Close() // Best effort cleanup
		if isAuthError(err) {
			return fmt.Errorf("%w: %w", ErrAuthenticationFailed, err)
		}
		return fmt.Errorf("SSH handshake failed: %w", err)
	}

	c.conn = ssh.NewClient(sshConn, chans, reqs)

	c.connCtx, c.cancel = context.WithCancel(context.Background())

	if interval := c.config.GetKeepaliveInterval(); interval > 0 {
		go c.keepalive(c.connCtx, interval)
	}

	c.logger.Debug("SSH connection established",
		slog.String("host", host),
		slog.String("address", addr),
	)

	return nil
}

// Close closes the SSH connection.
// Safe to call multiple times.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}

	if c.conn == nil {
		return nil
	}

	err := c.conn.Close()
	c.conn = nil

	c.logger.Debug("SSH connection closed",
		slog.String("host", c.config.Host),
	)

	return err
}

// IsConnected returns true if the client has an active connection.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn != nil
}

// GetConnection returns the underlying SSH client connection.
// Returns ErrNotConnected if not connected.
// The connection should not be closed directly; use Client.Close() instead.
func (c *Client) GetConnection() (*ssh.Client, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.conn == nil {
		return nil, ErrNotConnected
	}

	return c.conn, nil
}

// DialUnix opens a connection to a unix socket on the remote host,
// forwarded over the SSH connection.
func (c *Client) DialUnix(ctx context.Context, path string) (net.Conn, error) {
	sshConn, err := c.GetConnection()
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	conn, err := sshConn.Dial("unix", path)
	if err != nil {
		return nil, fmt.Errorf("dialing remote socket %s: %w", path, err)
	}
	return conn, nil
}

// target returns the host and port to connect to after applying the
// ssh_config entry for the configured host, if any.
func (c *Client) target() (string, int, error) {
	host := c.config.Host
	port := c.config.Port

	if c.config.SSHConfigFile != "" {
		alias, err := lookupHostAlias(c.config.SSHConfigFile, c.config.Host)
		if err != nil {
			return "", 0, err
		}
		if alias.HostName != "" {
			host = alias.HostName
		}
		if port == 0 {
			port = alias.Port
		}
	}

	if port == 0 {
		port = DefaultSSHPort
	}

	return host, port, nil
}

// buildSSHConfig creates the ssh.ClientConfig from our Config.
func (c *Client) buildSSHConfig() (*ssh.ClientConfig, error) {
	authMethods, err := c.buildAuthMethods()
	if err != nil {
		return nil, fmt.Errorf("building auth methods: %w", err)
	}

	hostKeyCallback, err := c.buildHostKeyCallback()
	if err != nil {
		return nil, fmt.Errorf("building host key callback: %w", err)
	}

	return &ssh.ClientConfig{
		User:            c.config.User,
		Auth:            authMethods,
		HostKeyCallback: hostKeyCallback,
		Timeout:         c.config.GetTimeout(),
	}, nil
}

// buildAuthMethods creates authentication methods from the config.
func (c *Client) buildAuthMethods() ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod

	if c.config.KeyFile != "" {
		keyData, err := os.ReadFile(c.config.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("reading key file %s: %w", c.config.KeyFile, err)
		}

		signer, err := c.parsePrivateKey(keyData)
		if err != nil {
			return nil, fmt.Errorf("parsing key from file: %w", err)
		}

		methods = append(methods, ssh.PublicKeys(signer))
		c.logger.Debug("added key file authentication",
			slog.String("key_file", c.config.KeyFile),
		)
	}

	if c.config.KeyData != "" {
		signer, err := c.parsePrivateKey([]byte(c.config.KeyData))
		if err != nil {
			return nil, fmt.Errorf("parsing key data: %w", err)
		}

		methods = append(methods, ssh.PublicKeys(signer))
		c.logger.Debug("added key data authentication")
	}

	if c.config.Password != "" {
		methods = append(methods, ssh.Password(c.config.Password))
		c.logger.Debug("added password authentication")
	}

	if len(methods) == 0 {
		return nil, errors.New("no authentication methods configured")
	}

	return methods, nil
}

// parsePrivateKey parses a private key, handling encrypted keys if a passphrase is provided.
func (c *Client) parsePrivateKey(keyData []byte) (ssh.Signer, error) {
	if c.config.KeyPassphrase != "" {
		return ssh.ParsePrivateKeyWithPassphrase(keyData, []byte(c.config.KeyPassphrase))
	}
	return ssh.ParsePrivateKey(keyData)
}

// buildHostKeyCallback creates the host key callback based on config.
func (c *Client) buildHostKeyCallback() (ssh.HostKeyCallback, error) {
	if c.config.KnownHostsFile != "" {
		callback, err := knownhosts.New(c.config.KnownHostsFile)
		if err != nil {
			return nil, fmt.Errorf("loading known_hosts %s: %w", c.config.KnownHostsFile, err)
		}
		return callback, nil
	}

	if c.config.StrictHostKeyChecking {
		return nil, errors.New("strict host key checking enabled but no known_hosts file configured")
	}

	c.logger.Debug("host key verification disabled",
		slog.String("host", c.config.Host),
	)
	return ssh.InsecureIgnoreHostKey(), nil //nolint:gosec // no known_hosts configured
}

// keepalive sends periodic keepalive messages to maintain the connection.
func (c *Client) keepalive(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.RLock()
			conn := c.conn
			c.mu.RUnlock()

			if conn == nil {
				return
			}

			_, _, err := conn.SendRequest("keepalive@openssh.com", true, nil)
			if err != nil {
				c.logger.Warn("keepalive failed",
					slog.String("host", c.config.Host),
					slog.String("error", err.Error()),
				)
				// Don't close here - let the next operation discover the failure
			}
		}
	}
}

// isAuthError checks if an error is an authentication-related error.
func isAuthError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "unable to authenticate") ||
		strings.Contains(errStr, "no supported methods") ||
		strings.Contains(errStr, "permission denied") ||
		strings.Contains(errStr, "publickey") ||
		strings.Contains(errStr, "password")
}
