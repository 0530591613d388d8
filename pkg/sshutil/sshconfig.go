package sshutil

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/kevinburke/ssh_config"
)

// hostAlias holds what an OpenSSH client config says about one Host entry.
type hostAlias struct {
	HostName string
	Port     int
}

// lookupHostAlias reads path and returns the HostName and Port configured
// for alias. Fields the file does not set are left empty.
func lookupHostAlias(path, alias string) (hostAlias, error) {
	f, err := os.Open(path)
	if err != nil {
		return hostAlias{}, fmt.Errorf("opening ssh config %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	cfg, err := ssh_config.Decode(f)
	if err != nil {
		return hostAlias{}, fmt.Errorf("decoding ssh config %s: %w", path, err)
	}

	var result hostAlias

	hostName, err := cfg.Get(alias, "HostName")
	if err != nil {
		return hostAlias{}, fmt.Errorf("looking up HostName for %s: %w", alias, err)
	}
	result.HostName = strings.ReplaceAll(hostName, "%h", alias)

	portStr, err := cfg.Get(alias, "Port")
	if err != nil {
		return hostAlias{}, fmt.Errorf("looking up Port for %s: %w", alias, err)
	}
	if portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return hostAlias{}, fmt.Errorf("invalid Port %q for %s: %w", portStr, alias, err)
		}
		result.Port = port
	}

	return result, nil
}
