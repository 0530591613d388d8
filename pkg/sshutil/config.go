// Package sshutil provides the SSH/SFTP client utilities whitebox runs its
// remote commands over.
//
// Key features:
//   - SSH connections with keepalive and context-aware dialing
//   - SSH exec-based command runner returning exit status and output
//   - SFTP-based read access to remote files
//   - known_hosts verification and ~/.ssh/config host aliases
package sshutil

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// Default SSH client configuration values.
const (
	// DefaultSSHPort is the standard SSH port.
	DefaultSSHPort = 22

	// DefaultSSHTimeout is the default connection timeout.
	DefaultSSHTimeout = 30 * time.Second

	// DefaultKeepaliveInterval is the default SSH keepalive interval.
	DefaultKeepaliveInterval = 15 * time.Second
)

// Config holds SSH connection configuration.
type Config struct {
	// Host is the SSH server hostname, IP address or ssh_config alias (required).
	Host string

	// Port is the SSH server port. Zero means the ssh_config value or 22.
	Port int

	// User is the SSH username (required).
	User string

	// KeyFile is the path to the SSH private key file.
	// Either KeyFile, KeyData, or Password must be provided.
	KeyFile string

	// KeyData is the SSH private key content directly.
	KeyData string

	// KeyPassphrase is the passphrase for encrypted SSH keys (optional).
	KeyPassphrase string

	// Password is the SSH password for password authentication.
	Password string

	// Timeout is the SSH connection timeout (default: 30s).
	Timeout time.Duration

	// KeepaliveInterval is the interval for SSH keepalive messages (default: 15s).
	KeepaliveInterval time.Duration

	// KnownHostsFile is the path of an OpenSSH known_hosts file used to
	// verify host keys. Empty disables verification unless
	// StrictHostKeyChecking is set.
	KnownHostsFile string

	// StrictHostKeyChecking requires KnownHostsFile to be set.
	StrictHostKeyChecking bool

	// SSHConfigFile is an OpenSSH client config file consulted for the
	// HostName and Port of Host (optional).
	SSHConfigFile string
}

// Validate checks that all required configuration is present and valid.
func (c *Config) Validate() error {
	var errs []string

	if c.Host == "" {
		errs = append(errs, "host is required")
	}

	if c.User == "" {
		errs = append(errs, "user is required")
	}

	// At least one authentication method required
	if c.KeyFile == "" && c.KeyData == "" && c.Password == "" {
		errs = append(errs, "at least one authentication method required (key_file, key_data, or password)")
	}

	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, "port must be between 0 and 65535")
	}

	if c.Timeout < 0 {
		errs = append(errs, "timeout must be non-negative")
	}

	if c.KeepaliveInterval < 0 {
		errs = append(errs, "keepalive_interval must be non-negative")
	}

	if c.StrictHostKeyChecking && c.KnownHostsFile == "" {
		errs = append(errs, "strict host key checking requires known_hosts_file")
	}

	if len(errs) > 0 {
		return fmt.Errorf("ssh config validation failed: %s", strings.Join(errs, "; "))
	}

	return nil
}

// Address returns the SSH server address in host:port format.
func (c *Config) Address() string {
	port := c.Port
	if port == 0 {
		port = DefaultSSHPort
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(port))
}

// GetTimeout returns the configured timeout or the default.
func (c *Config) GetTimeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return DefaultSSHTimeout
}

// GetKeepaliveInterval returns the configured keepalive interval or the default.
func (c *Config) GetKeepaliveInterval() time.Duration {
	if c.KeepaliveInterval > 0 {
		return c.KeepaliveInterval
	}
	return DefaultKeepaliveInterval
}
