package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// Validate checks the configuration for required fields and valid values.
func (c *Config) Validate() error {
	var errs ValidationErrors

	errs = append(errs, c.validateSource()...)
	errs = append(errs, c.validateDestination()...)
	errs = append(errs, c.validateProcessing()...)
	errs = append(errs, c.validateLogging()...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (c *Config) validateSource() ValidationErrors {
	var errs ValidationErrors

	if c.Source.BaseURL == "" {
		errs = append(errs, ValidationError{
			Field:   "source.base_url",
			Message: "base URL is required",
		})
	} else if !strings.HasPrefix(c.Source.BaseURL, "http://") && !strings.HasPrefix(c.Source.BaseURL, "https://") {
		errs = append(errs, ValidationError{
			Field:   "source.base_url",
			Message: "base URL must start with http:// or https://",
		})
	}

	if c.Source.APIToken == "" {
		errs = append(errs, ValidationError{
			Field:   "source.api_token",
			Message: "API token is required",
		})
	}

	if c.Source.MaxRetries < 0 {
		errs = append(errs, ValidationError{
			Field:   "source.max_retries",
			Message: "must not be negative",
		})
	}

	if c.Source.RetryBaseDelay < 0 {
		errs = append(errs, ValidationError{
			Field:   "source.retry_base_delay",
			Message: "must not be negative",
		})
	}

	return errs
}

func (c *Config) validateDestination() ValidationErrors {
	var errs ValidationErrors

	if c.Destination.Host == "" {
		errs = append(errs, ValidationError{
			Field:   "destination.host",
			Message: "host is required",
		})
	}
	if c.Destination.User == "" {
		errs = append(errs, ValidationError{
			Field:   "destination.user",
			Message: "user is required",
		})
	}
	if c.Destination.Database == "" {
		errs = append(errs, ValidationError{
			Field:   "destination.database",
			Message: "database name is required",
		})
	}
	if c.Destination.Port <= 0 || c.Destination.Port > 65535 {
		errs = append(errs, ValidationError{
			Field:   "destination.port",
			Message: fmt.Sprintf("port %d is out of range (1-65535)", c.Destination.Port),
		})
	}

	switch c.Destination.SSLMode {
	case "", "disable", "prefer", "require":
	default:
		errs = append(errs, ValidationError{
			Field:   "destination.ssl_mode",
			Message: fmt.Sprintf("unknown ssl_mode %q (expected disable, prefer, or require)", c.Destination.SSLMode),
		})
	}

	return errs
}

func (c *Config) validateProcessing() ValidationErrors {
	var errs ValidationErrors

	if c.Processing.BatchSize <= 0 {
		errs = append(errs, ValidationError{
			Field:   "processing.batch_size",
			Message: "must be greater than zero",
		})
	}
	if c.Processing.BatchSize > MaxPageSize {
		errs = append(errs, ValidationError{
			Field:   "processing.batch_size",
			Message: fmt.Sprintf("must not exceed %d (source API page limit)", MaxPageSize),
		})
	}

	return errs
}

func (c *Config) validateLogging() ValidationErrors {
	var errs ValidationErrors

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("unknown level %q", c.Logging.Level),
		})
	}

	switch c.Logging.Format {
	case "", "json", "text":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("unknown format %q", c.Logging.Format),
		})
	}

	return errs
}
