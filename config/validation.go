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

// ValidateConfig checks if the configuration meets the requirements for the current environment
func ValidateConfig(cfg *Config) error {
	var errs []string

	switch cfg.Database.Driver {
	case "postgres":
		if cfg.Database.Host == "" || cfg.Database.Name == "" {
			errs = append(errs, ValidationError{"database", "host and name are required for postgres"}.Error())
		}
	case "sqlite":
		if cfg.Database.SQLitePath == "" {
			errs = append(errs, ValidationError{"database.sqlite_path", "is required for sqlite"}.Error())
		}
	default:
		errs = append(errs, ValidationError{"database.driver", fmt.Sprintf("unsupported driver %q", cfg.Database.Driver)}.Error())
	}

	switch cfg.Storage.Driver {
	case "s3":
		if cfg.Storage.Bucket == "" {
			errs = append(errs, ValidationError{"storage.bucket", "is required for s3 storage"}.Error())
		}
	case "local":
		if cfg.Storage.LocalDir == "" {
			errs = append(errs, ValidationError{"storage.local_dir", "is required for local storage"}.Error())
		}
	default:
		errs = append(errs, ValidationError{"storage.driver", fmt.Sprintf("unsupported driver %q", cfg.Storage.Driver)}.Error())
	}

	if cfg.ShortLink.Length < 4 || cfg.ShortLink.Length > 8 {
		errs = append(errs, ValidationError{"short_link.length", "must be between 4 and 8"}.Error())
	}
	if cfg.ShortLink.MaxAttempts < 1 {
		errs = append(errs, ValidationError{"short_link.max_attempts", "must be positive"}.Error())
	}
	if cfg.Pagination.DefaultLimit < 1 || cfg.Pagination.DefaultLimit > cfg.Pagination.MaxLimit {
		errs = append(errs, ValidationError{"pagination.default_limit", "must be between 1 and max_limit"}.Error())
	}

	// Sensitive values must be set explicitly outside development
	if cfg.Env == Production || cfg.Env == CI {
		if cfg.Auth.JWTSecret == "" || cfg.Auth.JWTSecret == defaultJWTSecret {
			errs = append(errs, ValidationError{"auth.jwt_secret", "must be set"}.Error())
		}
		if cfg.Database.Driver == "postgres" && cfg.Database.Password == "" {
			errs = append(errs, ValidationError{"database.password", "must be set"}.Error())
		}
	}
	if cfg.Env == Production && strings.Contains(cfg.Server.BaseURL, "localhost") {
		errs = append(errs, ValidationError{"server.base_url", "must be a public URL in production"}.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "\n"))
	}

	return nil
}
