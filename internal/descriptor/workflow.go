package descriptor

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/grovetools/nig-upload/errors"
)

// Workflow is a CI workflow file.
type Workflow struct {
	Name string         `yaml:"name"`
	On   Triggers       `yaml:"on"`
	Jobs map[string]Job `yaml:"jobs"`
}

// Job is a linear sequence of steps on one runner image.
type Job struct {
	RunsOn string `yaml:"runs-on"`
	Steps  []Step `yaml:"steps"`
}

// Step runs either an action (Uses) or a shell command (Run).
type Step struct {
	Name string            `yaml:"name"`
	Uses string            `yaml:"uses,omitempty"`
	Run  string            `yaml:"run,omitempty"`
	With map[string]string `yaml:"with,omitempty"`
	Env  map[string]string `yaml:"env,omitempty"`
}

// Triggers maps event names to their filters. Events given in the short
// scalar or list forms have no filter.
type Triggers map[string]*EventFilter

// EventFilter narrows an event to branches or tags.
type EventFilter struct {
	Branches []string `yaml:"branches,omitempty"`
	Tags     []string `yaml:"tags,omitempty"`
}

// UnmarshalYAML accepts `on: push`, `on: [push, pull_request]` and the
// mapping form.
func (t *Triggers) UnmarshalYAML(node *yaml.Node) error {
	out := Triggers{}
	switch node.Kind {
	case yaml.ScalarNode:
		out[node.Value] = nil
	case yaml.SequenceNode:
		var events []string
		if err := node.Decode(&events); err != nil {
			return err
		}
		for _, e := range events {
			out[e] = nil
		}
	case yaml.MappingNode:
		var events map[string]*EventFilter
		if err := node.Decode(&events); err != nil {
			return err
		}
		for k, v := range events {
			out[k] = v
		}
	default:
		return fmt.Errorf("unsupported trigger definition at line %d", node.Line)
	}
	*t = out
	return nil
}

// LoadWorkflow parses a workflow file.
func LoadWorkflow(path string) (*Workflow, error) {
	var wf Workflow
	if err := load(path, &wf); err != nil {
		return nil, err
	}
	return &wf, nil
}

// TagOnly reports whether the workflow runs on tag pushes and nothing else.
func (w *Workflow) TagOnly() bool {
	if len(w.On) != 1 {
		return false
	}
	push, ok := w.On["push"]
	return ok && push != nil && len(push.Tags) > 0 && len(push.Branches) == 0
}

// JobNames returns the job names sorted.
func (w *Workflow) JobNames() []string {
	names := make([]string, 0, len(w.Jobs))
	for name := range w.Jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks the trigger and that every step does something.
func (w *Workflow) Validate() error {
	if !w.TagOnly() {
		return errors.New(errors.ErrCodeConfigValidation, "workflow must be triggered only by tag pushes")
	}
	if len(w.Jobs) == 0 {
		return errors.New(errors.ErrCodeConfigValidation, "workflow declares no jobs")
	}
	for _, name := range w.JobNames() {
		job := w.Jobs[name]
		if job.RunsOn == "" {
			return errors.New(errors.ErrCodeConfigValidation, fmt.Sprintf("job %s: missing runs-on", name))
		}
		if len(job.Steps) == 0 {
			return errors.New(errors.ErrCodeConfigValidation, fmt.Sprintf("job %s: no steps", name))
		}
		for i, s := range job.Steps {
			if s.Name == "" {
				return errors.New(errors.ErrCodeConfigValidation, fmt.Sprintf("job %s: step %d has no name", name, i))
			}
			if s.Uses == "" && s.Run == "" {
				return errors.New(errors.ErrCodeConfigValidation,
					fmt.Sprintf("job %s: step %q needs uses or run", name, s.Name))
			}
		}
	}
	return nil
}

// LastStep returns the final step, or a zero Step for an empty job.
func (j *Job) LastStep() Step {
	if len(j.Steps) == 0 {
		return Step{}
	}
	return j.Steps[len(j.Steps)-1]
}
