package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// applyEnv overrides cfg with WHITEBOX_* environment variables. Environment
// variables always take precedence over file config.
func applyEnv(cfg *Config) []string {
	var errs []string

	stringVars := []struct {
		key string
		dst *string
	}{
		{"TARGET_PRIVATE_KEY_PATH", &cfg.TargetPrivateKeyPath},
		{"TARGET_SSH_USER", &cfg.TargetSSHUser},
		{"TARGET_CONTROLLER", &cfg.TargetController},
		{"SSH_KNOWN_HOSTS", &cfg.SSH.KnownHosts},
		{"SSH_CONFIG_FILE", &cfg.SSH.ConfigFile},
		{"SSH_NAMESERVER", &cfg.SSH.Nameserver},
		{"COMPUTE_CONTAINER", &cfg.ComputeContainer},
		{"API_CONTAINER", &cfg.APIContainer},
		{"DOCKER_SOCKET", &cfg.DockerSocket},
		{"NOVA_CONFIG_PATH", &cfg.NovaConfigPath},
		{"NOVA_PYTHON", &cfg.NovaPython},
		{"NOVA_MANAGE_BINARY", &cfg.NovaManageBinary},
		{"DATABASE_CLI", &cfg.DatabaseCLI},
		{"DATABASE_CONNECTION", &cfg.DatabaseConnection},
	}
	for _, s := range stringVars {
		if v := getEnvWithFileFallback(s.key); v != "" {
			*s.dst = v
		}
	}

	if v := getEnv(envPrefix + "CONTAINERS"); v != "" {
		cfg.Containers = v
	}

	if v := getEnv(envPrefix + "DATABASE_DISCOVERY"); v != "" {
		cfg.DatabaseDiscovery = strings.ToLower(v)
	}

	if v := getEnv(envPrefix + "DATABASE_SHARD_REWRITE"); v != "" {
		if m, ok := parseShardRewrite(v); ok {
			cfg.ShardRewrite = m
		} else {
			errs = append(errs, fmt.Sprintf("%sDATABASE_SHARD_REWRITE: invalid value %q (use from=to,from=to)", envPrefix, v))
		}
	}

	if v := getEnv(envPrefix + "SSH_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%sSSH_PORT: invalid integer %q", envPrefix, v))
		} else {
			cfg.SSH.Port = port
		}
	}

	if v := getEnv(envPrefix + "SSH_TIMEOUT"); v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%sSSH_TIMEOUT: invalid duration %q (use format like 30s, 1m)", envPrefix, v))
		} else {
			cfg.SSH.Timeout = timeout
		}
	}

	if v := getEnv(envPrefix + "SSH_STRICT_HOST_KEY_CHECKING"); v != "" {
		cfg.SSH.StrictHostKeyChecking = parseBool(v, cfg.SSH.StrictHostKeyChecking)
	}

	if v := getEnv(envPrefix + "LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}

	if v := getEnv(envPrefix + "LOG_FORMAT"); v != "" {
		cfg.LogFormat = strings.ToLower(v)
	}

	if v := getEnv(envPrefix + "DRY_RUN"); v != "" {
		cfg.DryRun = parseBool(v, cfg.DryRun)
	}

	if v := getEnv(envPrefix + "HEALTH_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%sHEALTH_PORT: invalid integer %q", envPrefix, v))
		} else {
			cfg.HealthPort = port
		}
	}

	return errs
}
