package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateConfig checks that the loaded configuration carries every
// value the server cannot run without.
func ValidateConfig(cfg *Config) error {
	var errors []string

	required := map[string]string{
		"server_port": cfg.ServerPort,
		"db_host":     cfg.DBHost,
		"db_port":     cfg.DBPort,
		"db_user":     cfg.DBUser,
		"db_name":     cfg.DBName,
	}
	for name, value := range required {
		if value == "" {
			errors = append(errors, fmt.Sprintf("required configuration %s is not set", name))
		}
	}

	// Sensitive values are checked separately so the message names the
	// secret, not the env var, outside CI
	if cfg.DBPassword == "" {
		errors = append(errors, "db_password secret is required")
	}
	if cfg.JWTSecret == "" {
		errors = append(errors, "jwt_secret secret is required")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(errors, "\n"))
	}

	return nil
}
