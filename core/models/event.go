package models

import "time"

// JobEvent represents a state transition event for a job
type JobEvent struct {
	ID         int64
	JobID      string
	At         time.Time
	FromStatus *JobStatus
	ToStatus   JobStatus
	Reason     string
	MetaJSON   map[string]interface{}
}

// ArtifactType represents the type of job artifact
type ArtifactType string

const (
	ArtifactTypeOutput   ArtifactType = "output"
	ArtifactTypeExported ArtifactType = "exported"
)

// JobArtifact represents a file produced by a job
type JobArtifact struct {
	ID        int64
	JobID     string
	Type      ArtifactType
	URI       string
	CreatedAt time.Time
	MetaJSON  map[string]interface{}
}
