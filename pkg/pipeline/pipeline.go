// Package pipeline runs an ordered list of external commands, streaming
// their output and stopping at the first failure.
package pipeline

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the pipeline definition loaded when no path is given.
const DefaultFile = "pipeline.yaml"

// Stage is one pipeline step: a command with its arguments.
type Stage struct {
	Name    string   `yaml:"name"`
	Command []string `yaml:"command"`
}

// Pipeline is an ordered list of stages.
type Pipeline struct {
	Stages []Stage `yaml:"stages"`
}

// Selection narrows which stages run. Stage picks a single stage by its
// 1-based position; MaxStage runs the first N stages. Setting both is an
// error; zero values run everything.
type Selection struct {
	Stage    int
	MaxStage int
}

// Load reads a pipeline definition from a YAML file.
func Load(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pipeline file: %w", err)
	}

	var p Pipeline
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse pipeline file %s: %w", path, err)
	}

	if len(p.Stages) == 0 {
		return nil, fmt.Errorf("pipeline file %s defines no stages", path)
	}
	for i := range p.Stages {
		stage := &p.Stages[i]
		if len(stage.Command) == 0 {
			return nil, fmt.Errorf("stage %d (%s) has no command", i+1, stage.Name)
		}
		if stage.Name == "" {
			stage.Name = stage.Command[0]
		}
	}

	return &p, nil
}

// Select resolves a selection against the stage list.
func (p *Pipeline) Select(sel Selection) ([]Stage, error) {
	if sel.Stage > 0 && sel.MaxStage > 0 {
		return nil, fmt.Errorf("cannot specify both a single stage and a maximum stage")
	}

	switch {
	case sel.Stage > 0:
		if sel.Stage > len(p.Stages) {
			return nil, fmt.Errorf("stage %d out of range: pipeline has %d stage(s)", sel.Stage, len(p.Stages))
		}
		return p.Stages[sel.Stage-1 : sel.Stage], nil
	case sel.MaxStage > 0:
		n := sel.MaxStage
		if n > len(p.Stages) {
			n = len(p.Stages)
		}
		return p.Stages[:n], nil
	default:
		return p.Stages, nil
	}
}
