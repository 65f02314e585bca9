package storage

import (
	"context"
	"os"

	cerror "training-job-runner/core/errors"
	"training-job-runner/core/models"

	"github.com/pingcap/log"
	"go.uber.org/zap"
)

// Exporter copies a local artifact to remote storage and returns its URI
type Exporter interface {
	Export(ctx context.Context, jobID string, localPath string, body []byte) (string, error)
}

// ArtifactRecorder keeps track of the artifacts a job produced
type ArtifactRecorder interface {
	RecordArtifact(ctx context.Context, job *models.Job, artifactType models.ArtifactType, uri string) error
}

// ArtifactManager publishes finished model artifacts
type ArtifactManager struct {
	exporter Exporter
	recorder ArtifactRecorder
}

// NewArtifactManager creates a new artifact manager. recorder may be nil.
func NewArtifactManager(exporter Exporter, recorder ArtifactRecorder) *ArtifactManager {
	return &ArtifactManager{
		exporter: exporter,
		recorder: recorder,
	}
}

// Publish exports the artifact at localPath and records the remote copy
func (am *ArtifactManager) Publish(ctx context.Context, job *models.Job, localPath string) (string, error) {
	body, err := os.ReadFile(localPath)
	if err != nil {
		return "", cerror.WrapError(cerror.ErrArtifactExportFailed, err, localPath)
	}

	uri, err := am.exporter.Export(ctx, job.ID, localPath, body)
	if err != nil {
		return "", cerror.Trace(err)
	}
	log.Info("model artifact exported",
		zap.String("jobID", job.ID),
		zap.String("local", localPath),
		zap.String("uri", uri),
		zap.Int("bytes", len(body)))

	if am.recorder != nil {
		if err := am.recorder.RecordArtifact(ctx, job, models.ArtifactTypeExported, uri); err != nil {
			log.Warn("record exported artifact failed", zap.String("jobID", job.ID), zap.Error(err))
		}
	}
	return uri, nil
}
