package spec

import (
	"os"
	"strings"

	cerror "training-job-runner/core/errors"

	"gopkg.in/yaml.v3"
)

// JobSpec represents the YAML job specification
type JobSpec struct {
	Job JobSpecJob `yaml:"job"`
}

// JobSpecJob represents the job section of the spec
type JobSpecJob struct {
	Name            string            `yaml:"name"`
	Data            JobSpecData       `yaml:"data"`
	Output          JobSpecOutput     `yaml:"output"`
	Hyperparameters map[string]string `yaml:"hyperparameters"`
}

// JobSpecData represents where training data is read from
type JobSpecData struct {
	TrainingDir string `yaml:"training_dir"`
}

// JobSpecOutput represents where the job writes
type JobSpecOutput struct {
	ModelDir      string `yaml:"model_dir"`
	CheckpointDir string `yaml:"checkpoint_dir"`
}

// ParseJobSpec parses a YAML job specification
func ParseJobSpec(specYAML string) (*JobSpec, error) {
	var spec JobSpec
	dec := yaml.NewDecoder(strings.NewReader(specYAML))
	dec.KnownFields(true)
	if err := dec.Decode(&spec); err != nil {
		return nil, cerror.WrapError(cerror.ErrInvalidJobSpec, err, "document")
	}

	spec.Job.Name = strings.TrimSpace(spec.Job.Name)
	spec.Job.Data.TrainingDir = strings.TrimSpace(spec.Job.Data.TrainingDir)
	spec.Job.Output.ModelDir = strings.TrimSpace(spec.Job.Output.ModelDir)
	spec.Job.Output.CheckpointDir = strings.TrimSpace(spec.Job.Output.CheckpointDir)

	return &spec, nil
}

// LoadJobSpec reads and parses the job spec file at path
func LoadJobSpec(path string) (*JobSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, cerror.WrapError(cerror.ErrInvalidJobSpec, err, path)
	}
	spec, err := ParseJobSpec(string(data))
	if err != nil {
		return nil, cerror.Annotate(err, path)
	}
	return spec, nil
}
