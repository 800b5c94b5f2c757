// Package config provides configuration structures and loading for sheetmigrate.
package config

import "time"

// Config represents the complete application configuration.
type Config struct {
	Source       SourceConfig       `yaml:"source" mapstructure:"source"`
	Destination  DestinationConfig  `yaml:"destination" mapstructure:"destination"`
	Processing   ProcessingConfig   `yaml:"processing" mapstructure:"processing"`
	Verification VerificationConfig `yaml:"verification" mapstructure:"verification"`
	Logging      LoggingConfig      `yaml:"logging" mapstructure:"logging"`
}

// SourceConfig represents the Bubble object API the migration reads from.
type SourceConfig struct {
	BaseURL        string        `yaml:"base_url" mapstructure:"base_url"`
	APIToken       string        `yaml:"api_token" mapstructure:"api_token"`
	Timeout        time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxRetries     int           `yaml:"max_retries" mapstructure:"max_retries"`
	RetryBaseDelay time.Duration `yaml:"retry_base_delay" mapstructure:"retry_base_delay"`
	PageDelay      time.Duration `yaml:"page_delay" mapstructure:"page_delay"`
}

// DestinationConfig represents the Postgres database the migration writes into.
type DestinationConfig struct {
	Host               string `yaml:"host" mapstructure:"host"`
	Port               int    `yaml:"port" mapstructure:"port"`
	User               string `yaml:"user" mapstructure:"user"`
	Password           string `yaml:"password" mapstructure:"password"`
	Database           string `yaml:"database" mapstructure:"database"`
	SSLMode            string `yaml:"ssl_mode" mapstructure:"ssl_mode"` // disable, prefer, require
	MaxConnections     int    `yaml:"max_connections" mapstructure:"max_connections"`
	MaxIdleConnections int    `yaml:"max_idle_connections" mapstructure:"max_idle_connections"`
}

// ProcessingConfig represents batch processing settings.
type ProcessingConfig struct {
	BatchSize int `yaml:"batch_size" mapstructure:"batch_size"`
}

// VerificationConfig represents post-entity consistency check settings.
type VerificationConfig struct {
	SkipVerification bool `yaml:"skip_verification" mapstructure:"skip_verification"`
}

// LoggingConfig represents logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json or text
	Output string `yaml:"output" mapstructure:"output"` // stdout, stderr, or file path
}

// MaxPageSize is the largest page the Bubble object API will serve.
const MaxPageSize = 100

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			Timeout:        30 * time.Second,
			MaxRetries:     5,
			RetryBaseDelay: time.Second,
			PageDelay:      250 * time.Millisecond,
		},
		Destination: DestinationConfig{
			Port:               5432,
			SSLMode:            "prefer",
			MaxConnections:     10,
			MaxIdleConnections: 5,
		},
		Processing: ProcessingConfig{
			BatchSize: MaxPageSize,
		},
		Verification: VerificationConfig{
			SkipVerification: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// ApplyOverrides applies CLI flag overrides to the configuration.
// Only non-zero/non-empty values are applied.
func (c *Config) ApplyOverrides(logLevel, logFormat string, batchSize int, pageDelay time.Duration, skipVerify bool) {
	if logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFormat != "" {
		c.Logging.Format = logFormat
	}
	if batchSize > 0 {
		c.Processing.BatchSize = batchSize
	}
	if pageDelay > 0 {
		c.Source.PageDelay = pageDelay
	}
	if skipVerify {
		c.Verification.SkipVerification = true
	}
}
