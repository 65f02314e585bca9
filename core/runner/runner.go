// Package runner executes a training job: it lists the training channel,
// runs the epoch loop and persists the model artifact, in that order.
package runner

import (
	"context"
	"os"
	"time"

	cerror "training-job-runner/core/errors"
	"training-job-runner/core/models"
	"training-job-runner/storage"

	"github.com/pingcap/log"
	"go.uber.org/zap"
)

// Recorder persists the lifecycle of a job somewhere outside the process
type Recorder interface {
	RecordJob(ctx context.Context, job *models.Job) error
	RecordStatus(ctx context.Context, job *models.Job, from, to models.JobStatus, reason string) error
	RecordArtifact(ctx context.Context, job *models.Job, artifactType models.ArtifactType, uri string) error
}

// Observer receives progress updates while a job runs
type Observer interface {
	JobStarted(job models.Job, totalEpochs int)
	EpochCompleted(epoch int)
	JobFinished(status models.JobStatus, err error)
}

// Result describes a finished job
type Result struct {
	Listing         []string
	EpochsCompleted int
	ArtifactPath    string
}

// Runner runs training jobs
type Runner struct {
	epochs   int
	work     WorkUnit
	recorder Recorder
	observer Observer
}

// Option configures a Runner
type Option func(*Runner)

// WithEpochs sets how many times the work unit is invoked
func WithEpochs(n int) Option {
	return func(r *Runner) { r.epochs = n }
}

// WithWorkUnit replaces the simulated epoch
func WithWorkUnit(w WorkUnit) Option {
	return func(r *Runner) { r.work = w }
}

// WithRecorder attaches a job ledger
func WithRecorder(rec Recorder) Option {
	return func(r *Runner) { r.recorder = rec }
}

// WithObserver attaches a progress observer
func WithObserver(o Observer) Option {
	return func(r *Runner) { r.observer = o }
}

// NewRunner creates a runner that sleeps DefaultEpochInterval for each of DefaultEpochs epochs
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		epochs: DefaultEpochs,
		work:   SleepWork{Interval: DefaultEpochInterval},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes job. The job's status and timestamps are updated in place.
func (r *Runner) Run(ctx context.Context, job *models.Job) (*Result, error) {
	cfg := job.Config
	if cfg.ModelDir == "" {
		return nil, cerror.ErrConfigurationMissing.GenWithStackByArgs("model directory", "--model-dir", "SM_MODEL_DIR")
	}
	if cfg.TrainingDir == "" {
		return nil, cerror.ErrConfigurationMissing.GenWithStackByArgs("training directory", "--training-dir", "SM_CHANNEL_TRAIN")
	}

	if job.Status == "" {
		job.Status = models.JobStatusPending
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	if r.recorder != nil {
		if err := r.recorder.RecordJob(ctx, job); err != nil {
			log.Warn("record job failed", zap.String("jobID", job.ID), zap.Error(err))
		}
	}

	now := time.Now()
	job.StartedAt = &now
	r.transition(ctx, job, models.JobStatusRunning, "job_started")
	if r.observer != nil {
		r.observer.JobStarted(*job, r.epochs)
	}
	log.Info("training job started",
		zap.String("jobID", job.ID),
		zap.String("name", job.Name),
		zap.String("modelDir", cfg.ModelDir),
		zap.String("checkpointDir", cfg.CheckpointDir),
		zap.String("trainingDir", cfg.TrainingDir),
		zap.Any("hyperparameters", job.Hyperparameters))

	res, err := r.run(ctx, job)

	status, reason := models.JobStatusCompleted, "training_completed"
	if err != nil {
		status, reason = models.JobStatusFailed, err.Error()
		if cerror.IsCancelled(err) {
			status = models.JobStatusCancelled
		}
	}
	done := time.Now()
	job.CompletedAt = &done
	// the ledger still gets the terminal status after the job context is cancelled
	r.transition(context.WithoutCancel(ctx), job, status, reason)
	if r.observer != nil {
		r.observer.JobFinished(status, err)
	}

	if err != nil {
		log.Error("training job failed", zap.String("jobID", job.ID), zap.String("status", string(status)), zap.Error(err))
		return nil, err
	}
	log.Info("training job completed",
		zap.String("jobID", job.ID),
		zap.String("artifact", res.ArtifactPath),
		zap.Duration("elapsed", done.Sub(now)))
	return res, nil
}

func (r *Runner) run(ctx context.Context, job *models.Job) (*Result, error) {
	cfg := job.Config

	listing, err := listTrainingDir(cfg.TrainingDir)
	if err != nil {
		return nil, err
	}
	log.Info("listing training files", zap.String("jobID", job.ID), zap.Strings("files", listing))

	completed := 0
	for epoch := 0; epoch < r.epochs; epoch++ {
		log.Info("running epoch", zap.String("jobID", job.ID), zap.Int("epoch", epoch))
		if err := r.work.Run(ctx, epoch); err != nil {
			if cerror.IsCancelled(err) {
				return nil, cerror.WrapError(cerror.ErrCancelled, err, epoch)
			}
			return nil, cerror.Trace(err)
		}
		completed++
		log.Info("completed epoch", zap.String("jobID", job.ID), zap.Int("epoch", epoch))
		if r.observer != nil {
			r.observer.EpochCompleted(epoch)
		}
	}

	path, err := storage.WriteArtifact(cfg.ModelDir, []byte(models.ArtifactPayload))
	if err != nil {
		return nil, err
	}
	if r.recorder != nil {
		if err := r.recorder.RecordArtifact(ctx, job, models.ArtifactTypeOutput, path); err != nil {
			log.Warn("record artifact failed", zap.String("jobID", job.ID), zap.Error(err))
		}
	}

	return &Result{
		Listing:         listing,
		EpochsCompleted: completed,
		ArtifactPath:    path,
	}, nil
}

func (r *Runner) transition(ctx context.Context, job *models.Job, to models.JobStatus, reason string) {
	from := job.Status
	job.Status = to
	if r.recorder == nil {
		return
	}
	if err := r.recorder.RecordStatus(ctx, job, from, to, reason); err != nil {
		log.Warn("record job status failed",
			zap.String("jobID", job.ID),
			zap.String("from", string(from)),
			zap.String("to", string(to)),
			zap.Error(err))
	}
}

func listTrainingDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, cerror.WrapError(cerror.ErrDirectoryNotFound, err, dir)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}
