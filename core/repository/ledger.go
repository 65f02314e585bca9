package repository

import (
	"context"

	cerror "training-job-runner/core/errors"
	"training-job-runner/core/models"
)

// Ledger records job runs, their status transitions and artifacts in Postgres
type Ledger struct {
	jobs      *JobRepository
	artifacts *ArtifactRepository
}

// NewLedger creates a ledger backed by db
func NewLedger(db *DB) *Ledger {
	return &Ledger{
		jobs:      NewJobRepository(db),
		artifacts: NewArtifactRepository(db),
	}
}

// RecordJob inserts the job row
func (l *Ledger) RecordJob(ctx context.Context, job *models.Job) error {
	return cerror.WrapError(cerror.ErrLedgerFailure, l.jobs.CreateJob(ctx, job), "create job")
}

// RecordStatus stores a status transition
func (l *Ledger) RecordStatus(ctx context.Context, job *models.Job, from, to models.JobStatus, reason string) error {
	meta := map[string]interface{}{"name": job.Name}
	if to.IsTerminal() && job.StartedAt != nil && job.CompletedAt != nil {
		meta["elapsed_seconds"] = job.CompletedAt.Sub(*job.StartedAt).Seconds()
	}
	return cerror.WrapError(cerror.ErrLedgerFailure,
		l.jobs.UpdateJobStatus(ctx, job.ID, from, to, reason, meta), "update status")
}

// RecordArtifact stores an artifact location
func (l *Ledger) RecordArtifact(ctx context.Context, job *models.Job, artifactType models.ArtifactType, uri string) error {
	meta := map[string]interface{}{"model_dir": job.Config.ModelDir}
	return cerror.WrapError(cerror.ErrLedgerFailure,
		l.artifacts.CreateArtifact(ctx, job.ID, artifactType, uri, meta), "create artifact")
}
