// Package descriptor reads the repository's declarative descriptors: the
// pre-commit hook configuration and the release workflow.
package descriptor

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/grovetools/nig-upload/errors"
)

// PreCommitConfig is a .pre-commit-config.yaml file.
type PreCommitConfig struct {
	Repos []HookRepo `yaml:"repos"`
}

// HookRepo is a hook repository pinned to a revision.
type HookRepo struct {
	Repo  string `yaml:"repo"`
	Rev   string `yaml:"rev"`
	Hooks []Hook `yaml:"hooks"`
}

// Hook is a single hook of a repository.
type Hook struct {
	ID              string   `yaml:"id"`
	Args            []string `yaml:"args,omitempty"`
	LanguageVersion string   `yaml:"language_version,omitempty"`
	Stages          []string `yaml:"stages,omitempty"`
}

// LoadPreCommit parses a pre-commit configuration file.
func LoadPreCommit(path string) (*PreCommitConfig, error) {
	var cfg PreCommitConfig
	if err := load(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that every repository is pinned and declares hooks.
func (c *PreCommitConfig) Validate() error {
	if len(c.Repos) == 0 {
		return errors.New(errors.ErrCodeConfigValidation, "no hook repositories declared")
	}
	for i, r := range c.Repos {
		if r.Repo == "" {
			return errors.New(errors.ErrCodeConfigValidation, fmt.Sprintf("repos[%d]: missing repo", i))
		}
		if r.Rev == "" {
			return errors.New(errors.ErrCodeConfigValidation, fmt.Sprintf("repos[%d]: missing rev", i)).
				WithDetail("repo", r.Repo)
		}
		if len(r.Hooks) == 0 {
			return errors.New(errors.ErrCodeConfigValidation, fmt.Sprintf("repos[%d]: no hooks", i)).
				WithDetail("repo", r.Repo)
		}
		for j, h := range r.Hooks {
			if h.ID == "" {
				return errors.New(errors.ErrCodeConfigValidation, fmt.Sprintf("repos[%d].hooks[%d]: missing id", i, j)).
					WithDetail("repo", r.Repo)
			}
		}
	}
	return nil
}

// HookIDs returns the hook ids in declaration order.
func (c *PreCommitConfig) HookIDs() []string {
	var ids []string
	for _, r := range c.Repos {
		for _, h := range r.Hooks {
			ids = append(ids, h.ID)
		}
	}
	return ids
}

func load(path string, target any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.ConfigNotFound(path)
		}
		return errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to read descriptor").
			WithDetail("path", path)
	}
	if err := yaml.Unmarshal(data, target); err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse descriptor").
			WithDetail("path", path)
	}
	return nil
}
