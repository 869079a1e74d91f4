package utils

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// ValidateHost accepts an IP address or a DNS host name.
func ValidateHost(host string) error {
	if host == "" {
		return fmt.Errorf("host must not be empty")
	}
	if net.ParseIP(host) != nil {
		return nil
	}
	if len(host) > 253 {
		return fmt.Errorf("host name longer than 253 characters: %s", host)
	}
	for _, label := range strings.Split(host, ".") {
		if label == "" || len(label) > 63 {
			return fmt.Errorf("invalid host name: %s", host)
		}
		if strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
			return fmt.Errorf("invalid host name: %s", host)
		}
		for _, char := range label {
			if !((char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') || (char >= '0' && char <= '9') || char == '-') {
				return fmt.Errorf("invalid host name: %s", host)
			}
		}
	}
	return nil
}

func ValidatePort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be within 1-65535: %d", port)
	}
	return nil
}

// ValidateContainerName follows the docker rule [a-zA-Z0-9][a-zA-Z0-9_.-]*.
func ValidateContainerName(name string) error {
	if name == "" {
		return fmt.Errorf("container name must not be empty")
	}

	for i, char := range name {
		alnum := (char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') || (char >= '0' && char <= '9')
		if i == 0 && !alnum {
			return fmt.Errorf("container name must start with a letter or digit: %s", name)
		}
		if !alnum && char != '_' && char != '.' && char != '-' {
			return fmt.Errorf("container name may only contain letters, digits, '_', '.' and '-': %s", name)
		}
	}

	return nil
}

func SanitizeString(input string) string {
	dangerous := []string{";", "&", "|", "`", "$", "(", ")", "<", ">", "\"", "'", "\n", " "}
	result := input

	for _, char := range dangerous {
		result = strings.ReplaceAll(result, char, "")
	}

	return strings.TrimSpace(result)
}

// ValidateShellSafe rejects values that would change the meaning of the
// command line they are interpolated into.
func ValidateShellSafe(field, value string) error {
	if value == "" {
		return fmt.Errorf("%s must not be empty", field)
	}
	if SanitizeString(value) != value {
		return fmt.Errorf("%s contains shell metacharacters: %q", field, value)
	}
	return nil
}

// ParsePort accepts an empty string as the default port.
func ParsePort(value string, defaultPort int) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return defaultPort, nil
	}

	port, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("parse port %q: %w", value, err)
	}

	if err := ValidatePort(port); err != nil {
		return 0, err
	}

	return port, nil
}
