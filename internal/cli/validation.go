package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/AI2HU/gosimon/internal/config"
)

// validatePort validates a TCP port typed at a prompt
func validatePort(input string) (string, error) {
	input = strings.TrimSpace(input)
	port, err := strconv.Atoi(input)
	if err != nil {
		return "", fmt.Errorf("invalid port: %s (enter a number)", input)
	}
	if port < 1 || port > 65535 {
		return "", fmt.Errorf("port must be between 1 and 65535, got: %d", port)
	}
	return strconv.Itoa(port), nil
}

// validateURI accepts a connection URI only if it resolves, which among
// other things requires a database name in its path.
func validateURI(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("URI is required")
	}

	s := config.NewSettings()
	s.Set(config.Key(config.DefaultPrefix, "URI"), input)
	if _, err := config.Resolve("", s, config.DefaultPrefix); err != nil {
		return "", err
	}
	return input, nil
}

// maskSensitiveData masks sensitive data for display
func maskSensitiveData(data string, maskChar string) string {
	if data == "" {
		return "(not set)"
	}
	if len(data) <= 8 {
		return strings.Repeat(maskChar, 3)
	}
	return data[:2] + strings.Repeat(maskChar, 3) + data[len(data)-2:]
}
