package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
)

// Default values applied by SetDefaults.
const (
	DefaultChunkSize    = 16
	MaxChunkSize        = 16
	DefaultChunkRetries = 5
	DefaultIPService    = "https://ident.me"
	DefaultTimeout      = "15s"
	DefaultMaxAttempts  = 3
	DefaultRetryWait    = "10s"
)

// Config is the nig-upload configuration file (nig-upload.yml).
// Credentials that are secret (passwords, TOTP codes) are never read from it.
type Config struct {
	URL          string      `yaml:"url,omitempty" json:"url,omitempty" jsonschema:"description=Server URL; https:// is added when missing"`
	Username     string      `yaml:"username,omitempty" json:"username,omitempty" jsonschema:"description=Account used to log in"`
	Certfile     string      `yaml:"certfile,omitempty" json:"certfile,omitempty" jsonschema:"description=Path of the PKCS#12 client certificate"`
	ChunkSize    int         `yaml:"chunk_size,omitempty" json:"chunk_size,omitempty" jsonschema:"minimum=1,maximum=16,description=Upload chunk size in MB"`
	ChunkRetries *int        `yaml:"chunk_retries,omitempty" json:"chunk_retries,omitempty" jsonschema:"minimum=0,description=Retries of a chunk after a network error"`
	IPService    string      `yaml:"ip_service,omitempty" json:"ip_service,omitempty" jsonschema:"description=Service echoing the caller's public IP address"`
	Timeout      string      `yaml:"timeout,omitempty" json:"timeout,omitempty" jsonschema:"description=Per request timeout (e.g. 15s)"`
	Retry        RetryConfig `yaml:"retry,omitempty" json:"retry,omitempty" jsonschema:"description=Retry policy for failed requests"`

	// Extensions holds every other top-level section (e.g. logging).
	Extensions map[string]interface{} `yaml:",inline" json:"-" jsonschema:"-"`
}

// RetryConfig controls how transport failures are retried.
type RetryConfig struct {
	MaxAttempts int    `yaml:"max_attempts,omitempty" json:"max_attempts,omitempty" jsonschema:"minimum=1,description=Attempts per request"`
	Wait        string `yaml:"wait,omitempty" json:"wait,omitempty" jsonschema:"description=Pause between attempts (e.g. 10s)"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.ChunkSize == 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.ChunkRetries == nil {
		retries := DefaultChunkRetries
		c.ChunkRetries = &retries
	}
	if c.IPService == "" {
		c.IPService = DefaultIPService
	}
	if c.Timeout == "" {
		c.Timeout = DefaultTimeout
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = DefaultMaxAttempts
	}
	if c.Retry.Wait == "" {
		c.Retry.Wait = DefaultRetryWait
	}
}

// TimeoutDuration returns the parsed request timeout.
func (c *Config) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		d, _ = time.ParseDuration(DefaultTimeout)
	}
	return d
}

// WaitDuration returns the parsed pause between attempts.
func (r RetryConfig) WaitDuration() time.Duration {
	d, err := time.ParseDuration(r.Wait)
	if err != nil {
		d, _ = time.ParseDuration(DefaultRetryWait)
	}
	return d
}

// Retries returns the chunk retry budget.
func (c *Config) Retries() int {
	if c.ChunkRetries == nil {
		return DefaultChunkRetries
	}
	return *c.ChunkRetries
}

// UnmarshalExtension decodes a specific extension's configuration from the
// loaded nig-upload.yml into the provided target struct. The target must be a pointer.
//
// Example:
//
//	var logCfg logging.Config
//	err := cfg.UnmarshalExtension("logging", &logCfg)
func (c *Config) UnmarshalExtension(key string, target interface{}) error {
	extensionConfig, ok := c.Extensions[key]
	if !ok {
		// It's not an error if the key doesn't exist.
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "yaml",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}

	if err := decoder.Decode(extensionConfig); err != nil {
		return fmt.Errorf("failed to decode extension config for '%s': %w", key, err)
	}

	return nil
}

// ConfigSource identifies the origin of a configuration layer.
type ConfigSource string

const (
	SourceDefault  ConfigSource = "default"
	SourceGlobal   ConfigSource = "global"
	SourceProject  ConfigSource = "project"
	SourceExplicit ConfigSource = "explicit"
)

// LayeredConfig holds each loaded layer and the merged result.
type LayeredConfig struct {
	Global    *Config
	Project   *Config
	Final     *Config
	FilePaths map[ConfigSource]string
}
