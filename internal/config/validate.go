package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration error: %s", e.Errors[0])
	}
	return fmt.Sprintf("configuration errors:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// validateConfig normalizes enumerated values and performs cross-field
// validation on the complete configuration.
func validateConfig(cfg *Config) []string {
	var errs []string

	// Required target fields, in the order a session checks them
	if cfg.TargetPrivateKeyPath == "" {
		errs = append(errs, "target_private_key_path: required")
	}
	if cfg.TargetSSHUser == "" {
		errs = append(errs, "target_ssh_user: required")
	}
	if cfg.TargetController == "" {
		errs = append(errs, "target_controller: required")
	}

	cfg.Containers = normalizeContainers(cfg.Containers)
	switch cfg.Containers {
	case ContainersOn, ContainersOff, ContainersAuto:
	default:
		errs = append(errs, fmt.Sprintf("containers: invalid value %q (must be true, false, or auto)", cfg.Containers))
	}

	switch cfg.DatabaseDiscovery {
	case "introspect", "config-file", "sftp":
	default:
		errs = append(errs, fmt.Sprintf("database.discovery: invalid value %q (must be introspect, config-file, or sftp)", cfg.DatabaseDiscovery))
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("log.level: invalid value %q (must be debug, info, warn, or error)", cfg.LogLevel))
	}

	switch cfg.LogFormat {
	case "json", "text":
	default:
		errs = append(errs, fmt.Sprintf("log.format: invalid value %q (must be json or text)", cfg.LogFormat))
	}

	if cfg.SSH.Port < 1 || cfg.SSH.Port > 65535 {
		errs = append(errs, fmt.Sprintf("ssh.port: must be between 1 and 65535, got %d", cfg.SSH.Port))
	}
	if cfg.SSH.Timeout <= 0 {
		errs = append(errs, "ssh.timeout: must be positive")
	}
	if cfg.SSH.StrictHostKeyChecking && cfg.SSH.KnownHosts == "" {
		errs = append(errs, "ssh.strict_host_key_checking: requires ssh.known_hosts")
	}

	if cfg.HealthPort < 1 || cfg.HealthPort > 65535 {
		errs = append(errs, fmt.Sprintf("server.port: must be between 1 and 65535, got %d", cfg.HealthPort))
	}

	if cfg.ComputeContainer == "" || cfg.APIContainer == "" {
		errs = append(errs, "containers_settings: container names cannot be empty")
	}

	for from, to := range cfg.ShardRewrite {
		if from == "" || to == "" {
			errs = append(errs, fmt.Sprintf("database.shard_rewrite: invalid entry %q -> %q", from, to))
		}
	}

	return errs
}
