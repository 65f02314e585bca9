package config

import (
	"testing"

	cerror "training-job-runner/core/errors"
	"training-job-runner/core/models"
	"training-job-runner/core/spec"

	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Setenv(EnvModelDir, "/opt/ml/model")
	t.Setenv(EnvTrainChannel, "/opt/ml/input/data/train")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("STATUS_ADDR", ":9090")
	t.Setenv("AWS_REGION", "")
	t.Setenv("ARTIFACT_S3_URI", "")

	cfg := Load()
	require.Equal(t, "/opt/ml/model", cfg.ModelDir)
	require.Equal(t, "/opt/ml/input/data/train", cfg.TrainingDir)
	require.Equal(t, "info", cfg.LogLevel)
	require.Empty(t, cfg.DatabaseURL)
	require.Equal(t, ":9090", cfg.StatusAddr)
	require.Equal(t, "us-east-1", cfg.AWSRegion)
}

func TestResolvePrecedence(t *testing.T) {
	t.Parallel()
	js := &spec.JobSpec{Job: spec.JobSpecJob{
		Data:   spec.JobSpecData{TrainingDir: "/spec/train"},
		Output: spec.JobSpecOutput{ModelDir: "/spec/model", CheckpointDir: "/spec/ckpt"},
	}}

	tests := []struct {
		name string
		o    Overrides
		c    Config
		js   *spec.JobSpec
		want models.JobConfig
	}{
		{
			name: "flags win",
			o:    Overrides{ModelDir: "/flag/model", TrainingDir: "/flag/train", CheckpointDir: "/flag/ckpt"},
			c:    Config{ModelDir: "/env/model", TrainingDir: "/env/train"},
			js:   js,
			want: models.JobConfig{ModelDir: "/flag/model", TrainingDir: "/flag/train", CheckpointDir: "/flag/ckpt"},
		},
		{
			name: "environment beats spec file",
			c:    Config{ModelDir: "/env/model", TrainingDir: "/env/train"},
			js:   js,
			want: models.JobConfig{ModelDir: "/env/model", TrainingDir: "/env/train", CheckpointDir: "/spec/ckpt"},
		},
		{
			name: "spec file fills the gaps",
			js:   js,
			want: models.JobConfig{ModelDir: "/spec/model", TrainingDir: "/spec/train", CheckpointDir: "/spec/ckpt"},
		},
		{
			name: "default checkpoint dir",
			c:    Config{ModelDir: "/env/model", TrainingDir: "/env/train"},
			want: models.JobConfig{ModelDir: "/env/model", TrainingDir: "/env/train", CheckpointDir: "/opt/ml/checkpoints"},
		},
	}
	for _, tt := range tests {
		got, err := Resolve(tt.o, tt.c, tt.js)
		require.NoError(t, err, "case:%s", tt.name)
		require.Equal(t, tt.want, got, "case:%s", tt.name)
	}
}

func TestResolveMissingModelDir(t *testing.T) {
	t.Parallel()
	_, err := Resolve(Overrides{TrainingDir: "/data"}, Config{}, nil)
	require.Error(t, err)
	require.True(t, cerror.Is(err, cerror.ErrConfigurationMissing))
	require.Contains(t, err.Error(), EnvModelDir)
}

func TestResolveMissingTrainingDir(t *testing.T) {
	t.Parallel()
	_, err := Resolve(Overrides{ModelDir: "/out"}, Config{ModelDir: " "}, nil)
	require.Error(t, err)
	require.True(t, cerror.Is(err, cerror.ErrConfigurationMissing))
	require.Contains(t, err.Error(), EnvTrainChannel)
}
