package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	cerror "training-job-runner/core/errors"
	"training-job-runner/core/runner"

	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SM_MODEL_DIR", "SM_CHANNEL_TRAIN", "LOG_LEVEL", "DATABASE_URL",
		"STATUS_ADDR", "ARTIFACT_S3_URI",
	} {
		t.Setenv(key, "")
	}
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	noop := runner.WorkFunc(func(context.Context, int) error { return nil })
	cmd := newRootCmd(runner.WithWorkUnit(noop))
	cmd.SetArgs(args)
	return cmd.Execute()
}

func TestExitError(t *testing.T) {
	inner := fmt.Errorf("something went wrong")
	ee := &ExitError{Code: ExitCodeInvalidConfig, Err: inner}
	require.Equal(t, "something went wrong", ee.Error())
	require.ErrorIs(t, ee, inner)
}

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"exit error", &ExitError{Code: 7, Err: fmt.Errorf("x")}, 7},
		{"cancelled", cerror.ErrCancelled.GenWithStackByArgs(1), ExitCodeCancelled},
		{"configuration missing", cerror.ErrConfigurationMissing.GenWithStackByArgs("a", "b", "c"), ExitCodeInvalidConfig},
		{"invalid job spec", cerror.ErrInvalidJobSpec.GenWithStackByArgs("job.yaml"), ExitCodeInvalidConfig},
		{"directory not found", cerror.ErrDirectoryNotFound.GenWithStackByArgs("/data"), ExitCodeExecuteFailed},
		{"write failure", cerror.ErrWriteFailure.GenWithStackByArgs("/out"), ExitCodeExecuteFailed},
		{"plain", fmt.Errorf("boom"), ExitCodeExecuteFailed},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, exitCodeFor(tt.err), "case:%s", tt.name)
	}
}

func TestRunWithFlags(t *testing.T) {
	clearEnv(t)
	trainingDir := t.TempDir()
	for _, name := range []string{"a.csv", "b.csv"} {
		require.NoError(t, os.WriteFile(filepath.Join(trainingDir, name), nil, 0o644))
	}
	modelDir := filepath.Join(t.TempDir(), "out")

	err := execute(t, "--model-dir", modelDir, "--training-dir", trainingDir)
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(modelDir, "model.dummy"))
	require.NoError(t, err)
	require.Equal(t, "Dummy model.", string(got))
}

func TestRunWithEnvironment(t *testing.T) {
	clearEnv(t)
	modelDir := filepath.Join(t.TempDir(), "model")
	t.Setenv("SM_MODEL_DIR", modelDir)
	t.Setenv("SM_CHANNEL_TRAIN", t.TempDir())

	require.NoError(t, execute(t, "--checkpoint-dir", "/tmp/ignored"))
	require.FileExists(t, filepath.Join(modelDir, "model.dummy"))
}

func TestRunWithJobSpec(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	modelDir := filepath.Join(dir, "model")
	trainingDir := filepath.Join(dir, "train")
	require.NoError(t, os.Mkdir(trainingDir, 0o755))

	specPath := filepath.Join(dir, "job.yaml")
	specYAML := fmt.Sprintf("job:\n  name: spec-job\n  data:\n    training_dir: %s\n  output:\n    model_dir: %s\n  hyperparameters:\n    lr: \"0.1\"\n", trainingDir, modelDir)
	require.NoError(t, os.WriteFile(specPath, []byte(specYAML), 0o644))

	require.NoError(t, execute(t, "-c", specPath))
	require.FileExists(t, filepath.Join(modelDir, "model.dummy"))
}

func TestRunConfigurationMissing(t *testing.T) {
	clearEnv(t)
	err := execute(t, "--training-dir", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	require.True(t, cerror.Is(err, cerror.ErrConfigurationMissing))
	require.False(t, cerror.Is(err, cerror.ErrDirectoryNotFound))
	require.Equal(t, ExitCodeInvalidConfig, exitCodeFor(err))
}

func TestRunMissingTrainingDir(t *testing.T) {
	clearEnv(t)
	modelDir := t.TempDir()
	err := execute(t, "--model-dir", modelDir, "--training-dir", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	require.True(t, cerror.Is(err, cerror.ErrDirectoryNotFound))
	rfc, ok := cerror.RFCCode(err)
	require.True(t, ok)
	require.Contains(t, rfc, "ErrDirectoryNotFound")
	require.Equal(t, ExitCodeExecuteFailed, exitCodeFor(err))
	require.NoFileExists(t, filepath.Join(modelDir, "model.dummy"))
}

func TestRunInvalidLogLevel(t *testing.T) {
	clearEnv(t)
	err := execute(t, "--log-level", "loud", "--model-dir", t.TempDir(), "--training-dir", t.TempDir())
	require.Error(t, err)
	require.Equal(t, ExitCodeInvalidConfig, exitCodeFor(err))
}

func TestRunUnknownFlag(t *testing.T) {
	clearEnv(t)
	err := execute(t, "--epochs", "3")
	require.Error(t, err)
	require.Equal(t, ExitCodeInvalidConfig, exitCodeFor(err))
}

func TestRunMalformedJobSpec(t *testing.T) {
	clearEnv(t)
	specPath := filepath.Join(t.TempDir(), "job.yaml")
	require.NoError(t, os.WriteFile(specPath, []byte("job: [unterminated"), 0o644))

	err := execute(t, "-c", specPath, "--model-dir", t.TempDir(), "--training-dir", t.TempDir())
	require.Error(t, err)
	require.True(t, cerror.Is(err, cerror.ErrInvalidJobSpec))
	require.Equal(t, ExitCodeInvalidConfig, exitCodeFor(err))
}

func TestRunMissingJobSpec(t *testing.T) {
	clearEnv(t)
	err := execute(t, "-c", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	require.True(t, cerror.Is(err, cerror.ErrInvalidJobSpec))
	require.Equal(t, ExitCodeInvalidConfig, exitCodeFor(err))
}
