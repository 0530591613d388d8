package config

import (
	"os"
	"strings"
)

// envPrefix prefixes every environment variable whitebox reads.
const envPrefix = "WHITEBOX_"

// getEnv retrieves an environment variable value.
func getEnv(key string) string {
	return os.Getenv(key)
}

// getEnvOrFile retrieves a value from either a direct environment variable
// or a file path specified by the file key (Docker secrets pattern).
//
// If both are set, the file takes precedence. The file contents are trimmed
// of leading/trailing whitespace.
func getEnvOrFile(directKey, fileKey string) string {
	if filePath := os.Getenv(fileKey); filePath != "" {
		content, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
		// If file read fails, fall through to direct value
	}

	return os.Getenv(directKey)
}

// getEnvWithFileFallback retrieves WHITEBOX_<key>, supporting the _FILE
// suffix pattern:
//  1. WHITEBOX_<key>_FILE - reads file contents if set
//  2. WHITEBOX_<key> - returns direct value if set
func getEnvWithFileFallback(key string) string {
	return getEnvOrFile(envPrefix+key, envPrefix+key+"_FILE")
}

// parseBool parses a boolean string, returning defaultValue on parse failure.
// Accepts: true/false, 1/0, yes/no, on/off (case-insensitive).
func parseBool(s string, defaultValue bool) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return defaultValue
	}
}

// normalizeContainers maps the accepted spellings of the containers
// setting to true, false or auto. Unknown values are returned unchanged
// for validation to reject.
func normalizeContainers(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == ContainersAuto {
		return s
	}
	switch s {
	case "true", "1", "yes", "on":
		return ContainersOn
	case "false", "0", "no", "off":
		return ContainersOff
	}
	return s
}

// parseShardRewrite parses "from=to,from=to" into a rename map.
func parseShardRewrite(s string) (map[string]string, bool) {
	m := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		from, to, ok := strings.Cut(pair, "=")
		from, to = strings.TrimSpace(from), strings.TrimSpace(to)
		if !ok || from == "" || to == "" {
			return nil, false
		}
		m[from] = to
	}
	return m, true
}
