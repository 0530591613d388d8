package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// FileConfig represents the configuration file structure. The same layout
// is accepted as YAML or, for paths ending in .toml, TOML.
type FileConfig struct {
	TargetPrivateKeyPath string     `yaml:"target_private_key_path,omitempty" toml:"target_private_key_path"`
	TargetSSHUser        string     `yaml:"target_ssh_user,omitempty" toml:"target_ssh_user"`
	TargetController     string     `yaml:"target_controller,omitempty" toml:"target_controller"`
	Containers           flexString `yaml:"containers,omitempty" toml:"containers"` // true, false, auto
	DryRun               *bool      `yaml:"dry_run,omitempty" toml:"dry_run"`

	SSH                *FileSSHConfig        `yaml:"ssh,omitempty" toml:"ssh"`
	ContainersSettings *FileContainersConfig `yaml:"containers_settings,omitempty" toml:"containers_settings"`
	Nova               *FileNovaConfig       `yaml:"nova,omitempty" toml:"nova"`
	Database           *FileDatabaseConfig   `yaml:"database,omitempty" toml:"database"`
	Logging            *FileLoggingConfig    `yaml:"log,omitempty" toml:"log"`
	Server             *FileServerConfig     `yaml:"server,omitempty" toml:"server"`
}

// FileSSHConfig holds SSH transport settings.
type FileSSHConfig struct {
	Port                  int    `yaml:"port,omitempty" toml:"port"`
	Timeout               string `yaml:"timeout,omitempty" toml:"timeout"` // Go duration format (e.g., "30s")
	KnownHosts            string `yaml:"known_hosts,omitempty" toml:"known_hosts"`
	StrictHostKeyChecking *bool  `yaml:"strict_host_key_checking,omitempty" toml:"strict_host_key_checking"`
	ConfigFile            string `yaml:"config_file,omitempty" toml:"config_file"`
	Nameserver            string `yaml:"nameserver,omitempty" toml:"nameserver"`
}

// FileContainersConfig names the service containers and the Docker socket.
type FileContainersConfig struct {
	ComputeContainer string `yaml:"compute_container,omitempty" toml:"compute_container"`
	APIContainer     string `yaml:"api_container,omitempty" toml:"api_container"`
	DockerSocket     string `yaml:"docker_socket,omitempty" toml:"docker_socket"`
}

// FileNovaConfig holds compute service settings.
type FileNovaConfig struct {
	ConfigPath   string `yaml:"config_path,omitempty" toml:"config_path"`
	Python       string `yaml:"python,omitempty" toml:"python"`
	ManageBinary string `yaml:"manage_binary,omitempty" toml:"manage_binary"`
}

// FileDatabaseConfig holds database access settings.
type FileDatabaseConfig struct {
	CLI          string            `yaml:"cli,omitempty" toml:"cli"`
	Discovery    string            `yaml:"discovery,omitempty" toml:"discovery"` // introspect, config-file, sftp
	Connection   string            `yaml:"connection,omitempty" toml:"connection"`
	ShardRewrite map[string]string `yaml:"shard_rewrite,omitempty" toml:"shard_rewrite"`
}

// FileLoggingConfig holds logging settings.
type FileLoggingConfig struct {
	Level  string `yaml:"level,omitempty" toml:"level"`   // debug, info, warn, error
	Format string `yaml:"format,omitempty" toml:"format"` // json, text
}

// FileServerConfig holds health/metrics server settings.
type FileServerConfig struct {
	Port int `yaml:"port,omitempty" toml:"port"`
}

// flexString accepts a boolean or a string, so `containers: true` and
// `containers: auto` both decode.
type flexString string

func (f *flexString) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a scalar", node.Line)
	}
	*f = flexString(node.Value)
	return nil
}

func (f *flexString) UnmarshalTOML(v any) error {
	switch v := v.(type) {
	case string:
		*f = flexString(v)
	case bool:
		*f = flexString(fmt.Sprint(v))
	default:
		return fmt.Errorf("expected a string or boolean, got %T", v)
	}
	return nil
}

// envVarPattern matches ${VAR} or ${VAR:-default} syntax.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// InterpolateEnvVars replaces ${VAR} patterns with environment variable values.
// Supports ${VAR:-default} syntax for default values.
func InterpolateEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultValue := ""
		if len(groups) >= 3 {
			defaultValue = groups[2]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})
}

// interpolateEnvVars interpolates environment variables in every string
// field of the file.
func (c *FileConfig) interpolateEnvVars() {
	c.TargetPrivateKeyPath = InterpolateEnvVars(c.TargetPrivateKeyPath)
	c.TargetSSHUser = InterpolateEnvVars(c.TargetSSHUser)
	c.TargetController = InterpolateEnvVars(c.TargetController)
	c.Containers = flexString(InterpolateEnvVars(string(c.Containers)))

	if c.SSH != nil {
		c.SSH.Timeout = InterpolateEnvVars(c.SSH.Timeout)
		c.SSH.KnownHosts = InterpolateEnvVars(c.SSH.KnownHosts)
		c.SSH.ConfigFile = InterpolateEnvVars(c.SSH.ConfigFile)
		c.SSH.Nameserver = InterpolateEnvVars(c.SSH.Nameserver)
	}

	if s := c.ContainersSettings; s != nil {
		s.ComputeContainer = InterpolateEnvVars(s.ComputeContainer)
		s.APIContainer = InterpolateEnvVars(s.APIContainer)
		s.DockerSocket = InterpolateEnvVars(s.DockerSocket)
	}

	if c.Nova != nil {
		c.Nova.ConfigPath = InterpolateEnvVars(c.Nova.ConfigPath)
		c.Nova.Python = InterpolateEnvVars(c.Nova.Python)
		c.Nova.ManageBinary = InterpolateEnvVars(c.Nova.ManageBinary)
	}

	if c.Database != nil {
		c.Database.CLI = InterpolateEnvVars(c.Database.CLI)
		c.Database.Discovery = InterpolateEnvVars(c.Database.Discovery)
		c.Database.Connection = InterpolateEnvVars(c.Database.Connection)
		for k, v := range c.Database.ShardRewrite {
			c.Database.ShardRewrite[k] = InterpolateEnvVars(v)
		}
	}

	if c.Logging != nil {
		c.Logging.Level = InterpolateEnvVars(c.Logging.Level)
		c.Logging.Format = InterpolateEnvVars(c.Logging.Format)
	}
}

// LoadFile reads and parses a configuration file. Paths ending in .toml are
// parsed as TOML, everything else as YAML. Environment variables in ${VAR}
// format are interpolated.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg FileConfig
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, fmt.Errorf("parsing TOML config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing YAML config: %w", err)
	}

	cfg.interpolateEnvVars()

	return &cfg, nil
}

// apply overlays the values set in the file onto cfg.
func (c *FileConfig) apply(cfg *Config) []string {
	var errs []string

	setString(&cfg.TargetPrivateKeyPath, c.TargetPrivateKeyPath)
	setString(&cfg.TargetSSHUser, c.TargetSSHUser)
	setString(&cfg.TargetController, c.TargetController)
	if c.Containers != "" {
		cfg.Containers = strings.ToLower(string(c.Containers))
	}
	if c.DryRun != nil {
		cfg.DryRun = *c.DryRun
	}

	if s := c.SSH; s != nil {
		if s.Port != 0 {
			cfg.SSH.Port = s.Port
		}
		if s.Timeout != "" {
			timeout, err := time.ParseDuration(s.Timeout)
			if err != nil {
				errs = append(errs, fmt.Sprintf("ssh.timeout: invalid duration %q (use format like 30s, 1m)", s.Timeout))
			} else {
				cfg.SSH.Timeout = timeout
			}
		}
		setString(&cfg.SSH.KnownHosts, s.KnownHosts)
		if s.StrictHostKeyChecking != nil {
			cfg.SSH.StrictHostKeyChecking = *s.StrictHostKeyChecking
		}
		setString(&cfg.SSH.ConfigFile, s.ConfigFile)
		setString(&cfg.SSH.Nameserver, s.Nameserver)
	}

	if s := c.ContainersSettings; s != nil {
		setString(&cfg.ComputeContainer, s.ComputeContainer)
		setString(&cfg.APIContainer, s.APIContainer)
		setString(&cfg.DockerSocket, s.DockerSocket)
	}

	if n := c.Nova; n != nil {
		setString(&cfg.NovaConfigPath, n.ConfigPath)
		setString(&cfg.NovaPython, n.Python)
		setString(&cfg.NovaManageBinary, n.ManageBinary)
	}

	if d := c.Database; d != nil {
		setString(&cfg.DatabaseCLI, d.CLI)
		if d.Discovery != "" {
			cfg.DatabaseDiscovery = strings.ToLower(d.Discovery)
		}
		setString(&cfg.DatabaseConnection, d.Connection)
		if d.ShardRewrite != nil {
			cfg.ShardRewrite = d.ShardRewrite
		}
	}

	if l := c.Logging; l != nil {
		if l.Level != "" {
			cfg.LogLevel = strings.ToLower(l.Level)
		}
		if l.Format != "" {
			cfg.LogFormat = strings.ToLower(l.Format)
		}
	}

	if c.Server != nil && c.Server.Port != 0 {
		cfg.HealthPort = c.Server.Port
	}

	return errs
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
