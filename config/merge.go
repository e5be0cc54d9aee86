package config

// mergeConfigs merges override configuration into base
func mergeConfigs(base, override *Config) *Config {
	result := *base

	if override.URL != "" {
		result.URL = override.URL
	}
	if override.Username != "" {
		result.Username = override.Username
	}
	if override.Certfile != "" {
		result.Certfile = override.Certfile
	}
	if override.ChunkSize != 0 {
		result.ChunkSize = override.ChunkSize
	}
	if override.ChunkRetries != nil {
		retries := *override.ChunkRetries
		result.ChunkRetries = &retries
	}
	if override.IPService != "" {
		result.IPService = override.IPService
	}
	if override.Timeout != "" {
		result.Timeout = override.Timeout
	}
	if override.Retry.MaxAttempts != 0 {
		result.Retry.MaxAttempts = override.Retry.MaxAttempts
	}
	if override.Retry.Wait != "" {
		result.Retry.Wait = override.Retry.Wait
	}

	// Extensions are merged per top-level key
	if len(override.Extensions) > 0 {
		merged := make(map[string]interface{}, len(base.Extensions)+len(override.Extensions))
		for k, v := range base.Extensions {
			merged[k] = v
		}
		for k, v := range override.Extensions {
			merged[k] = v
		}
		result.Extensions = merged
	}

	return &result
}
