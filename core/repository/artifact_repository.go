package repository

import (
	"context"

	"training-job-runner/core/models"
)

// ArtifactRepository handles database operations for job artifacts
type ArtifactRepository struct {
	db *DB
}

// NewArtifactRepository creates a new artifact repository
func NewArtifactRepository(db *DB) *ArtifactRepository {
	return &ArtifactRepository{db: db}
}

// CreateArtifact creates a new artifact record
func (r *ArtifactRepository) CreateArtifact(ctx context.Context, jobID string, artifactType models.ArtifactType, uri string, meta map[string]interface{}) error {
	metaJSON, err := marshalMeta(meta)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO training_job_artifacts (job_id, type, uri, meta_json, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`

	_, err = r.db.ExecContext(ctx, query, jobID, artifactType, uri, metaJSON)
	return err
}
