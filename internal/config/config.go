// Package config handles loading and validation of whitebox configuration.
//
// Values come from built-in defaults, then an optional YAML or TOML file,
// then WHITEBOX_* environment variables, each layer overriding the last.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gitlab.bluewillows.net/root/whitebox/pkg/remote"
)

// Containers modes.
const (
	ContainersOn   = "true"
	ContainersOff  = "false"
	ContainersAuto = "auto"
)

// Configuration defaults.
const (
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "json"
	DefaultContainers        = ContainersOff
	DefaultSSHPort           = 22
	DefaultSSHTimeout        = 30 * time.Second
	DefaultComputeContainer  = "nova_compute"
	DefaultAPIContainer      = "nova_api"
	DefaultDockerSocket      = "/var/run/docker.sock"
	DefaultNovaConfigPath    = "/etc/nova/nova.conf"
	DefaultNovaPython        = "python"
	DefaultNovaManageBinary  = "nova-manage"
	DefaultDatabaseCLI       = "mysql"
	DefaultDatabaseDiscovery = "introspect"
	DefaultHealthPort        = 8080
)

// Config holds the complete runtime configuration.
type Config struct {
	// Target deployment
	TargetPrivateKeyPath string
	TargetSSHUser        string
	TargetController     string
	Containers           string // true, false, auto

	SSH SSHConfig

	// Container names on the deployment hosts
	ComputeContainer string
	APIContainer     string
	DockerSocket     string

	// Compute service
	NovaConfigPath   string
	NovaPython       string
	NovaManageBinary string

	// Database access
	DatabaseCLI        string
	DatabaseDiscovery  string            // introspect, config-file, sftp
	DatabaseConnection string            // set to skip discovery; holds a password
	ShardRewrite       map[string]string // nil means the built-in cell0 rewrite

	LogLevel   string
	LogFormat  string
	DryRun     bool
	HealthPort int
}

// SSHConfig holds transport settings shared by every connection.
type SSHConfig struct {
	Port                  int
	Timeout               time.Duration
	KnownHosts            string
	StrictHostKeyChecking bool
	ConfigFile            string
	Nameserver            string
}

// Defaults returns a Config populated with default values.
func Defaults() *Config {
	return &Config{
		Containers: DefaultContainers,
		SSH: SSHConfig{
			Port:    DefaultSSHPort,
			Timeout: DefaultSSHTimeout,
		},
		ComputeContainer:  DefaultComputeContainer,
		APIContainer:      DefaultAPIContainer,
		DockerSocket:      DefaultDockerSocket,
		NovaConfigPath:    DefaultNovaConfigPath,
		NovaPython:        DefaultNovaPython,
		NovaManageBinary:  DefaultNovaManageBinary,
		DatabaseCLI:       DefaultDatabaseCLI,
		DatabaseDiscovery: DefaultDatabaseDiscovery,
		LogLevel:          DefaultLogLevel,
		LogFormat:         DefaultLogFormat,
		HealthPort:        DefaultHealthPort,
	}
}

// Load builds the configuration from defaults, the file at path (when path
// is not empty) and WHITEBOX_* environment variables. When path is empty
// WHITEBOX_CONFIG is consulted. All problems are reported together as a
// *ValidationError.
func Load(path string) (*Config, error) {
	if path == "" {
		path = GetConfigFilePath()
	}

	cfg := Defaults()
	var errs []string

	if path != "" {
		fileCfg, err := LoadFile(path)
		if err != nil {
			return nil, &ValidationError{Errors: []string{"config file: " + err.Error()}}
		}
		errs = append(errs, fileCfg.apply(cfg)...)
		slog.Debug("loaded configuration from file", slog.String("path", path))
	}

	errs = append(errs, applyEnv(cfg)...)
	errs = append(errs, validateConfig(cfg)...)

	if len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}
	return cfg, nil
}

// GetConfigFilePath returns the config file named by WHITEBOX_CONFIG.
func GetConfigFilePath() string {
	return os.Getenv(envPrefix + "CONFIG")
}

// Identity returns the SSH identity sessions connect with.
func (c *Config) Identity() remote.Identity {
	return remote.Identity{
		Host:    c.TargetController,
		User:    c.TargetSSHUser,
		KeyPath: c.TargetPrivateKeyPath,
	}
}

// SSHSettings returns the transport settings for remote.NewSSHTransport.
func (c *Config) SSHSettings() remote.SSHSettings {
	return remote.SSHSettings{
		Port:                  c.SSH.Port,
		Timeout:               c.SSH.Timeout,
		KnownHostsFile:        c.SSH.KnownHosts,
		StrictHostKeyChecking: c.SSH.StrictHostKeyChecking,
		SSHConfigFile:         c.SSH.ConfigFile,
	}
}

// String returns a human-readable summary of the configuration.
func (c *Config) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "target=%s@%s", c.TargetSSHUser, c.TargetController)
	fmt.Fprintf(&b, " containers=%s", c.Containers)
	fmt.Fprintf(&b, " discovery=%s", c.DatabaseDiscovery)
	fmt.Fprintf(&b, " log_level=%s", c.LogLevel)
	if c.DryRun {
		b.WriteString(" dry_run=true")
	}
	return b.String()
}
