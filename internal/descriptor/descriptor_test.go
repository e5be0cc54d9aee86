package descriptor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/nig-upload/errors"
)

const repoRoot = "../.."

func TestRepositoryPreCommit(t *testing.T) {
	cfg, err := LoadPreCommit(filepath.Join(repoRoot, ".pre-commit-config.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	require.Len(t, cfg.Repos, 5)
	for _, r := range cfg.Repos {
		assert.NotEmpty(t, r.Repo)
		assert.NotEmpty(t, r.Rev)
	}

	assert.Equal(t, "go-imports", cfg.Repos[0].Hooks[0].ID)

	fumpt := cfg.Repos[1].Hooks[0]
	assert.Equal(t, "go-fumpt", fumpt.ID)
	require.Len(t, fumpt.Args, 1)
	assert.True(t, strings.HasPrefix(fumpt.Args[0], "-lang="))

	assert.Equal(t, "golangci-lint", cfg.Repos[2].Hooks[0].ID)
	assert.Contains(t, cfg.Repos[3].Repo, "pre-commit-hooks")

	gitleaks := cfg.Repos[4].Hooks[0]
	assert.Equal(t, "gitleaks", gitleaks.ID)
	assert.Equal(t, []string{"pre-commit"}, gitleaks.Stages)
	assert.NotEmpty(t, gitleaks.LanguageVersion)
}

func TestRepositoryWorkflow(t *testing.T) {
	wf, err := LoadWorkflow(filepath.Join(repoRoot, ".github", "workflows", "release.yml"))
	require.NoError(t, err)
	require.NoError(t, wf.Validate())

	assert.True(t, wf.TagOnly())
	require.Len(t, wf.Jobs, 1)

	job := wf.Jobs[wf.JobNames()[0]]
	assert.NotEmpty(t, job.RunsOn)
	require.Len(t, job.Steps, 5)

	assert.Contains(t, job.Steps[0].Uses, "actions/checkout")
	assert.Contains(t, job.Steps[1].Uses, "actions/setup-go")
	assert.NotEmpty(t, job.Steps[1].With["go-version"])
	assert.Equal(t, "go mod verify", job.Steps[2].Run)
	assert.Contains(t, job.Steps[3].Run, "go test")

	publish := job.LastStep()
	assert.Contains(t, publish.Uses, "goreleaser/goreleaser-action")
	assert.Equal(t, "${{ secrets.GITHUB_TOKEN }}", publish.Env["GITHUB_TOKEN"])
}

func TestPinChangesKeepStructure(t *testing.T) {
	dir := t.TempDir()

	data, err := os.ReadFile(filepath.Join(repoRoot, ".pre-commit-config.yaml"))
	require.NoError(t, err)
	baseline, err := LoadPreCommit(filepath.Join(repoRoot, ".pre-commit-config.yaml"))
	require.NoError(t, err)

	bumped := strings.Replace(string(data), "rev: v5.0.0", "rev: v9.9.9", 1)
	bumped = strings.Replace(bumped, "-lang=go1.24", "-lang=go1.30", 1)
	path := filepath.Join(dir, "pre-commit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(bumped), 0o644))

	changed, err := LoadPreCommit(path)
	require.NoError(t, err)
	require.NoError(t, changed.Validate())
	assert.Equal(t, baseline.HookIDs(), changed.HookIDs())
	assert.Equal(t, "v9.9.9", changed.Repos[3].Rev)

	data, err = os.ReadFile(filepath.Join(repoRoot, ".github", "workflows", "release.yml"))
	require.NoError(t, err)
	wfBaseline, err := LoadWorkflow(filepath.Join(repoRoot, ".github", "workflows", "release.yml"))
	require.NoError(t, err)

	path = filepath.Join(dir, "release.yml")
	require.NoError(t, os.WriteFile(path, []byte(strings.Replace(string(data), `go-version: "1.24"`, `go-version: "1.30"`, 1)), 0o644))
	wfChanged, err := LoadWorkflow(path)
	require.NoError(t, err)

	stepNames := func(wf *Workflow) []string {
		var names []string
		for _, s := range wf.Jobs[wf.JobNames()[0]].Steps {
			names = append(names, s.Name)
		}
		return names
	}
	assert.Equal(t, stepNames(wfBaseline), stepNames(wfChanged))
	assert.Equal(t, "1.30", wfChanged.Jobs[wfChanged.JobNames()[0]].Steps[1].With["go-version"])
}

func TestPreCommitValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		message string
	}{
		{name: "empty", content: "repos: []\n", message: "no hook repositories"},
		{name: "missing rev", content: "repos:\n  - repo: https://x\n    hooks:\n      - id: a\n", message: "missing rev"},
		{name: "missing repo", content: "repos:\n  - rev: v1\n    hooks:\n      - id: a\n", message: "missing repo"},
		{name: "no hooks", content: "repos:\n  - repo: https://x\n    rev: v1\n", message: "no hooks"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "pre-commit.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			cfg, err := LoadPreCommit(path)
			require.NoError(t, err)
			err = cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrCodeConfigValidation))
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestWorkflowTriggers(t *testing.T) {
	tests := []struct {
		name    string
		on      string
		tagOnly bool
	}{
		{name: "tags", on: "on:\n  push:\n    tags: ['v*']\n", tagOnly: true},
		{name: "scalar push", on: "on: push\n"},
		{name: "list", on: "on: [push, pull_request]\n"},
		{name: "tags and branches", on: "on:\n  push:\n    tags: ['v*']\n    branches: [main]\n"},
		{name: "tags and pull requests", on: "on:\n  push:\n    tags: ['v*']\n  pull_request:\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "wf.yml")
			content := tt.on + "jobs:\n  build:\n    runs-on: ubuntu-22.04\n    steps:\n      - name: Test\n        run: go test ./...\n"
			require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

			wf, err := LoadWorkflow(path)
			require.NoError(t, err)
			assert.Equal(t, tt.tagOnly, wf.TagOnly())
			if tt.tagOnly {
				assert.NoError(t, wf.Validate())
			} else {
				assert.Error(t, wf.Validate())
			}
		})
	}
}

func TestWorkflowStepValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wf.yml")
	content := "on:\n  push:\n    tags: ['*']\njobs:\n  build:\n    runs-on: ubuntu-22.04\n    steps:\n      - name: Nothing\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	wf, err := LoadWorkflow(path)
	require.NoError(t, err)
	err = wf.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `step "Nothing" needs uses or run`)

	var empty Job
	assert.Equal(t, Step{}, empty.LastStep())
}

func TestLoadMissing(t *testing.T) {
	_, err := LoadWorkflow(filepath.Join(t.TempDir(), "missing.yml"))
	assert.True(t, errors.Is(err, errors.ErrCodeConfigNotFound))
}
