package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateConfig(t *testing.T) {
	negative := -1

	testCases := []struct {
		name   string
		mutate func(c *Config)
		valid  bool
	}{
		{"defaults", func(c *Config) {}, true},
		{"max chunk", func(c *Config) { c.ChunkSize = 16 }, true},
		{"chunk too large", func(c *Config) { c.ChunkSize = 17 }, false},
		{"negative chunk retries", func(c *Config) { c.ChunkRetries = &negative }, false},
		{"bad timeout", func(c *Config) { c.Timeout = "soon" }, false},
		{"bad retry wait", func(c *Config) { c.Retry.Wait = "-1s" }, false},
		{"relative ip service", func(c *Config) { c.IPService = "ident.me" }, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.SetDefaults()
			tc.mutate(cfg)
			if tc.valid {
				assert.NoError(t, cfg.Validate())
			} else {
				assert.Error(t, cfg.Validate())
			}
		})
	}
}

func TestMergeConfigs(t *testing.T) {
	retries := 1
	base := &Config{
		URL:        "base",
		ChunkSize:  4,
		Extensions: map[string]interface{}{"logging": map[string]interface{}{"level": "info"}},
	}
	override := &Config{
		Username:     "bob",
		ChunkRetries: &retries,
		Extensions:   map[string]interface{}{"extra": true},
	}

	merged := mergeConfigs(base, override)
	assert.Equal(t, "base", merged.URL)
	assert.Equal(t, "bob", merged.Username)
	assert.Equal(t, 4, merged.ChunkSize)
	assert.Equal(t, 1, *merged.ChunkRetries)
	assert.Contains(t, merged.Extensions, "logging")
	assert.Contains(t, merged.Extensions, "extra")
}

func TestGenerateSchema(t *testing.T) {
	data, err := GenerateSchema()
	assert.NoError(t, err)
	assert.Contains(t, string(data), `"chunk_size"`)
	assert.Contains(t, string(data), `"maximum": 16`)
	assert.NotContains(t, string(data), `"Extensions"`)
}
