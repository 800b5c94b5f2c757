package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Source.BaseURL = "https://app.example.com/version-live"
	cfg.Source.APIToken = "secret-token"
	cfg.Destination.Host = "localhost"
	cfg.Destination.User = "migrator"
	cfg.Destination.Database = "sheets"
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 30*time.Second, cfg.Source.Timeout)
	assert.Equal(t, 5, cfg.Source.MaxRetries)
	assert.Equal(t, time.Second, cfg.Source.RetryBaseDelay)
	assert.Equal(t, 250*time.Millisecond, cfg.Source.PageDelay)
	assert.Equal(t, 5432, cfg.Destination.Port)
	assert.Equal(t, "prefer", cfg.Destination.SSLMode)
	assert.Equal(t, MaxPageSize, cfg.Processing.BatchSize)
	assert.False(t, cfg.Verification.SkipVerification)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.Validate())
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{
			name:   "missing base URL",
			mutate: func(c *Config) { c.Source.BaseURL = "" },
			field:  "source.base_url",
		},
		{
			name:   "base URL without scheme",
			mutate: func(c *Config) { c.Source.BaseURL = "app.example.com" },
			field:  "source.base_url",
		},
		{
			name:   "missing API token",
			mutate: func(c *Config) { c.Source.APIToken = "" },
			field:  "source.api_token",
		},
		{
			name:   "negative retries",
			mutate: func(c *Config) { c.Source.MaxRetries = -1 },
			field:  "source.max_retries",
		},
		{
			name:   "missing destination host",
			mutate: func(c *Config) { c.Destination.Host = "" },
			field:  "destination.host",
		},
		{
			name:   "missing destination user",
			mutate: func(c *Config) { c.Destination.User = "" },
			field:  "destination.user",
		},
		{
			name:   "missing database name",
			mutate: func(c *Config) { c.Destination.Database = "" },
			field:  "destination.database",
		},
		{
			name:   "port out of range",
			mutate: func(c *Config) { c.Destination.Port = 70000 },
			field:  "destination.port",
		},
		{
			name:   "unknown ssl_mode",
			mutate: func(c *Config) { c.Destination.SSLMode = "verify-ca" },
			field:  "destination.ssl_mode",
		},
		{
			name:   "zero batch size",
			mutate: func(c *Config) { c.Processing.BatchSize = 0 },
			field:  "processing.batch_size",
		},
		{
			name:   "batch size over page limit",
			mutate: func(c *Config) { c.Processing.BatchSize = MaxPageSize + 1 },
			field:  "processing.batch_size",
		},
		{
			name:   "unknown log level",
			mutate: func(c *Config) { c.Logging.Level = "trace" },
			field:  "logging.level",
		},
		{
			name:   "unknown log format",
			mutate: func(c *Config) { c.Logging.Format = "xml" },
			field:  "logging.format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)

			errs, ok := err.(ValidationErrors)
			require.True(t, ok, "expected ValidationErrors, got %T", err)

			found := false
			for _, ve := range errs {
				if ve.Field == tt.field {
					found = true
				}
			}
			assert.True(t, found, "expected an error for field %s, got %v", tt.field, errs)
		})
	}
}

func TestValidate_CollectsMultipleErrors(t *testing.T) {
	cfg := DefaultConfig() // no source or destination filled in

	err := cfg.Validate()
	require.Error(t, err)

	errs, ok := err.(ValidationErrors)
	require.True(t, ok)
	assert.GreaterOrEqual(t, len(errs), 4)
	assert.Contains(t, err.Error(), "source.base_url")
	assert.Contains(t, err.Error(), "destination.host")
}

func TestApplyOverrides(t *testing.T) {
	cfg := validConfig()
	cfg.ApplyOverrides("debug", "text", 25, 750*time.Millisecond, true)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, 25, cfg.Processing.BatchSize)
	assert.Equal(t, 750*time.Millisecond, cfg.Source.PageDelay)
	assert.True(t, cfg.Verification.SkipVerification)
}

func TestApplyOverrides_ZeroValuesIgnored(t *testing.T) {
	cfg := validConfig()
	pageDelay := cfg.Source.PageDelay
	cfg.ApplyOverrides("", "", 0, 0, false)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, MaxPageSize, cfg.Processing.BatchSize)
	assert.Equal(t, pageDelay, cfg.Source.PageDelay)
	assert.False(t, cfg.Verification.SkipVerification)
}
