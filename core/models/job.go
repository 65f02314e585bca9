package models

import "time"

// DefaultCheckpointDir is where checkpoints go when nothing else is configured
const DefaultCheckpointDir = "/opt/ml/checkpoints"

// ArtifactFileName is the file name of the model artifact inside the model directory
const ArtifactFileName = "model.dummy"

// ArtifactPayload is the literal content of the model artifact
const ArtifactPayload = "Dummy model."

// JobConfig holds the directories a training job works with
type JobConfig struct {
	ModelDir      string
	CheckpointDir string // accepted but never read or written
	TrainingDir   string
}

// Job represents one execution of the training entry point
type Job struct {
	ID              string
	Name            string
	Config          JobConfig
	Hyperparameters map[string]string
	Status          JobStatus
	CreatedAt       time.Time
	StartedAt       *time.Time
	CompletedAt     *time.Time
}

// JobStatus represents the current status of a job
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// IsTerminal reports whether no further transition can follow s
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}
