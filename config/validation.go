package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/grovetools/nig-upload/errors"
)

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.ChunkSize < 1 || c.ChunkSize > MaxChunkSize {
		return errors.New(errors.ErrCodeConfigValidation,
			fmt.Sprintf("The specified chunk size is too large: %d", c.ChunkSize)).
			WithDetail("chunk_size", c.ChunkSize)
	}
	if c.ChunkRetries != nil && *c.ChunkRetries < 0 {
		return errors.New(errors.ErrCodeConfigValidation, "chunk_retries cannot be negative")
	}

	if err := validateDuration("timeout", c.Timeout); err != nil {
		return err
	}
	if err := validateDuration("retry.wait", c.Retry.Wait); err != nil {
		return err
	}
	if c.Retry.MaxAttempts < 1 {
		return errors.New(errors.ErrCodeConfigValidation, "retry.max_attempts must be at least 1")
	}

	if err := validateServiceURL(c.IPService); err != nil {
		return err
	}
	if c.URL != "" {
		if _, err := url.Parse(c.URL); err != nil {
			return errors.Wrap(err, errors.ErrCodeConfigValidation, "invalid url").
				WithDetail("url", c.URL)
		}
	}

	return nil
}

func validateDuration(field, value string) error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigValidation, fmt.Sprintf("invalid duration for %s", field)).
			WithDetail(field, value)
	}
	if d < 0 {
		return errors.New(errors.ErrCodeConfigValidation, fmt.Sprintf("%s cannot be negative", field))
	}
	return nil
}

func validateServiceURL(value string) error {
	u, err := url.Parse(value)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New(errors.ErrCodeConfigValidation, "ip_service must be an absolute URL").
			WithDetail("ip_service", value)
	}
	return nil
}
