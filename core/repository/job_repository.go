package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"training-job-runner/core/models"

	"github.com/google/uuid"
)

// JobRepository handles database operations for training jobs
type JobRepository struct {
	db *DB
}

// NewJobRepository creates a new job repository
func NewJobRepository(db *DB) *JobRepository {
	return &JobRepository{db: db}
}

// CreateJob inserts the job and its initial event
func (r *JobRepository) CreateJob(ctx context.Context, job *models.Job) error {
	query := `
		INSERT INTO training_jobs (
			id, name, model_dir, checkpoint_dir, training_dir,
			hyperparameters, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	jobID := uuid.New()
	if job.ID != "" {
		var err error
		jobID, err = uuid.Parse(job.ID)
		if err != nil {
			return err
		}
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}

	hyperparameters, err := marshalMeta(job.Hyperparameters)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, query,
		jobID,
		job.Name,
		job.Config.ModelDir,
		job.Config.CheckpointDir,
		job.Config.TrainingDir,
		hyperparameters,
		job.Status,
		job.CreatedAt,
		job.CreatedAt,
	)
	if err != nil {
		return err
	}

	if err := r.createJobEventTx(ctx, tx, jobID.String(), nil, job.Status, "job_created", nil); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	job.ID = jobID.String()
	return nil
}

// UpdateJobStatus updates job status atomically with event logging
func (r *JobRepository) UpdateJobStatus(ctx context.Context, jobID string, fromStatus, toStatus models.JobStatus, reason string, meta map[string]interface{}) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	updateQuery := `
		UPDATE training_jobs SET
			status = $1,
			started_at = CASE WHEN $1 = 'running' THEN NOW() ELSE started_at END,
			finished_at = CASE WHEN $1 IN ('completed', 'failed', 'cancelled') THEN NOW() ELSE finished_at END,
			updated_at = NOW()
		WHERE id = $2
	`
	if _, err := tx.ExecContext(ctx, updateQuery, toStatus, jobID); err != nil {
		return err
	}

	if err := r.createJobEventTx(ctx, tx, jobID, &fromStatus, toStatus, reason, meta); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *JobRepository) createJobEventTx(ctx context.Context, tx *sql.Tx, jobID string, fromStatus *models.JobStatus, toStatus models.JobStatus, reason string, meta map[string]interface{}) error {
	query := `
		INSERT INTO training_job_events (job_id, from_status, to_status, reason, meta_json)
		VALUES ($1, $2, $3, $4, $5)
	`

	var fromStatusStr *string
	if fromStatus != nil {
		s := string(*fromStatus)
		fromStatusStr = &s
	}

	metaJSON, err := marshalMeta(meta)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, query, jobID, fromStatusStr, toStatus, reason, metaJSON)
	return err
}

func marshalMeta[T any](meta map[string]T) (string, error) {
	if meta == nil {
		return "{}", nil
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
