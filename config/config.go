package config

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/grovetools/nig-upload/errors"
	"github.com/grovetools/nig-upload/pkg/paths"
	"github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

var configNames = []string{
	"nig-upload.yml",
	"nig-upload.yaml",
	"nig-upload.toml",
	".nig-upload.yml",
	".nig-upload.yaml",
}

// Load reads, validates and defaults a single configuration file.
func Load(path string) (*Config, error) {
	cfg, err := readRaw(path)
	if err != nil {
		return nil, err
	}
	return finalize(cfg)
}

// LoadFromBytes parses YAML configuration from a byte array.
func LoadFromBytes(data []byte) (*Config, error) {
	cfg, err := parse(data, false)
	if err != nil {
		return nil, err
	}
	return finalize(cfg)
}

// LoadDefault loads the layered configuration for the current directory.
func LoadDefault() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to get current directory")
	}
	layered, err := LoadLayered(cwd, logrus.New())
	if err != nil {
		return nil, err
	}
	return layered.Final, nil
}

// Resolve loads the explicit file when given, the layered configuration otherwise.
// Having no configuration file at all is not an error.
func Resolve(explicit string, logger *logrus.Logger) (*Config, error) {
	if explicit != "" {
		logger.WithField("path", explicit).Debug("Loading configuration")
		return Load(explicit)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to get current directory")
	}
	layered, err := LoadLayered(cwd, logger)
	if err != nil {
		return nil, err
	}
	return layered.Final, nil
}

// LoadLayered merges the global config (XDG) with the nearest project config.
// Missing layers are skipped.
func LoadLayered(startDir string, logger *logrus.Logger) (*LayeredConfig, error) {
	layered := &LayeredConfig{FilePaths: make(map[ConfigSource]string)}

	if globalPath := globalConfigPath(); globalPath != "" {
		if info, err := os.Stat(globalPath); err == nil && !info.IsDir() {
			logger.WithField("path", globalPath).Debug("Loading global configuration")
			cfg, err := readRaw(globalPath)
			if err != nil {
				return nil, err
			}
			layered.Global = cfg
			layered.FilePaths[SourceGlobal] = globalPath
		}
	}

	if projectPath, err := FindConfigFile(startDir); err == nil {
		logger.WithField("path", projectPath).Debug("Loading project configuration")
		cfg, err := readRaw(projectPath)
		if err != nil {
			return nil, err
		}
		layered.Project = cfg
		layered.FilePaths[SourceProject] = projectPath
	}

	merged := &Config{}
	if layered.Global != nil {
		merged = mergeConfigs(merged, layered.Global)
	}
	if layered.Project != nil {
		merged = mergeConfigs(merged, layered.Project)
	}

	final, err := finalize(merged)
	if err != nil {
		return nil, err
	}
	layered.Final = final

	if logger.IsLevelEnabled(logrus.DebugLevel) {
		if data, err := yaml.Marshal(final); err == nil {
			logger.Debugf("Merged configuration:\n%s", string(data))
		}
	}
	return layered, nil
}

// FindConfigFile searches for a project configuration file from startDir
// up to the filesystem root.
func FindConfigFile(startDir string) (string, error) {
	dir := startDir
	for {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", errors.ConfigNotFound(startDir).WithDetail("searchPath", startDir)
}

func readRaw(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigNotFound(path)
		}
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to read config file").
			WithDetail("path", path)
	}
	cfg, err := parse(data, strings.HasSuffix(path, ".toml"))
	if err != nil {
		if nigErr, ok := errors.As(err); ok {
			return nil, nigErr.WithDetail("path", path)
		}
		return nil, err
	}
	return cfg, nil
}

func parse(data []byte, isTOML bool) (*Config, error) {
	expanded := []byte(expandEnvVars(string(data)))

	if isTOML {
		// TOML is normalized through YAML so that both formats share the inline extensions map.
		var raw map[string]interface{}
		if err := toml.Unmarshal(expanded, &raw); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse TOML configuration")
		}
		converted, err := yaml.Marshal(raw)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to convert TOML configuration")
		}
		expanded = converted
	}

	var cfg Config
	if err := yaml.Unmarshal(expanded, &cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse YAML configuration")
	}
	return &cfg, nil
}

func finalize(cfg *Config) (*Config, error) {
	validator, err := NewSchemaValidator()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to create validator")
	}
	if err := validator.Validate(cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "schema validation failed")
	}

	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// expandEnvVars replaces ${VAR} with environment variable values
func expandEnvVars(content string) string {
	return envVarRegex.ReplaceAllStringFunc(content, func(match string) string {
		varName := envVarRegex.FindStringSubmatch(match)[1]

		// Handle default values: ${VAR:-default}
		parts := strings.SplitN(varName, ":-", 2)
		varName = parts[0]
		defaultValue := ""
		if len(parts) > 1 {
			defaultValue = parts[1]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}

		return defaultValue
	})
}

// globalConfigPath returns the per-user configuration file path.
func globalConfigPath() string {
	dir := paths.ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "nig-upload.yml")
}
