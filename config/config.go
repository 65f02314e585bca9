package config

import (
	"os"
	"strings"

	cerror "training-job-runner/core/errors"
	"training-job-runner/core/models"
	"training-job-runner/core/spec"
)

const (
	EnvModelDir     = "SM_MODEL_DIR"
	EnvTrainChannel = "SM_CHANNEL_TRAIN"
)

// Config holds the application configuration
type Config struct {
	// Training environment
	ModelDir    string
	TrainingDir string

	// Logging
	LogLevel string

	// Job ledger, disabled when empty
	DatabaseURL string

	// Status endpoint, disabled when empty
	StatusAddr string

	// AWS
	AWSRegion     string
	ArtifactS3URI string
}

// Load loads configuration from environment variables
func Load() Config {
	return Config{
		ModelDir:      getEnv(EnvModelDir, ""),
		TrainingDir:   getEnv(EnvTrainChannel, ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		StatusAddr:    getEnv("STATUS_ADDR", ""),
		AWSRegion:     getEnv("AWS_REGION", "us-east-1"),
		ArtifactS3URI: getEnv("ARTIFACT_S3_URI", ""),
	}
}

// Overrides carries values given explicitly on the command line.
// Empty fields mean "not given".
type Overrides struct {
	ModelDir      string
	CheckpointDir string
	TrainingDir   string
}

// Resolve builds the job configuration. An explicit override wins over the
// environment, which wins over the job spec file.
func Resolve(o Overrides, c Config, js *spec.JobSpec) (models.JobConfig, error) {
	var fromSpec spec.JobSpecJob
	if js != nil {
		fromSpec = js.Job
	}

	jc := models.JobConfig{
		ModelDir:      firstNonEmpty(o.ModelDir, c.ModelDir, fromSpec.Output.ModelDir),
		CheckpointDir: firstNonEmpty(o.CheckpointDir, fromSpec.Output.CheckpointDir, models.DefaultCheckpointDir),
		TrainingDir:   firstNonEmpty(o.TrainingDir, c.TrainingDir, fromSpec.Data.TrainingDir),
	}

	if jc.ModelDir == "" {
		return models.JobConfig{}, cerror.ErrConfigurationMissing.GenWithStackByArgs(
			"model directory", "--model-dir", EnvModelDir)
	}
	if jc.TrainingDir == "" {
		return models.JobConfig{}, cerror.ErrConfigurationMissing.GenWithStackByArgs(
			"training directory", "--training-dir", EnvTrainChannel)
	}
	return jc, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); strings.TrimSpace(value) != "" {
		return value
	}
	return defaultValue
}
