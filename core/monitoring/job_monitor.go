package monitoring

import (
	"sync"
	"time"

	"training-job-runner/core/models"
)

// JobMonitor tracks the progress of the job running in this process.
// It is written by the runner and read by the status endpoint.
type JobMonitor struct {
	mu      sync.RWMutex
	metrics JobMetrics
}

// JobMetrics is a point-in-time view of job progress
type JobMetrics struct {
	JobID           string           `json:"id"`
	Name            string           `json:"name"`
	Status          models.JobStatus `json:"status"`
	EpochsCompleted int              `json:"epoch"`
	TotalEpochs     int              `json:"total_epochs"`
	StartTime       *time.Time       `json:"start_time,omitempty"`
	ElapsedSeconds  float64          `json:"elapsed_seconds"`
	ArtifactURI     string           `json:"artifact_uri,omitempty"`
	Error           string           `json:"error,omitempty"`

	finished *time.Time
}

// NewJobMonitor creates a monitor for job, still pending
func NewJobMonitor(job models.Job) *JobMonitor {
	return &JobMonitor{
		metrics: JobMetrics{
			JobID:  job.ID,
			Name:   job.Name,
			Status: models.JobStatusPending,
		},
	}
}

// JobStarted marks the job as running
func (jm *JobMonitor) JobStarted(job models.Job, totalEpochs int) {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	jm.metrics.Status = models.JobStatusRunning
	jm.metrics.TotalEpochs = totalEpochs
	jm.metrics.StartTime = job.StartedAt
	if jm.metrics.StartTime == nil {
		now := time.Now()
		jm.metrics.StartTime = &now
	}
}

// EpochCompleted records that epoch (zero based) finished
func (jm *JobMonitor) EpochCompleted(epoch int) {
	jm.mu.Lock()
	defer jm.mu.Unlock()
	jm.metrics.EpochsCompleted = epoch + 1
}

// JobFinished records the terminal status
func (jm *JobMonitor) JobFinished(status models.JobStatus, err error) {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	jm.metrics.Status = status
	if err != nil {
		jm.metrics.Error = err.Error()
	}
	now := time.Now()
	jm.metrics.finished = &now
}

// SetArtifactURI records where the model artifact ended up
func (jm *JobMonitor) SetArtifactURI(uri string) {
	jm.mu.Lock()
	defer jm.mu.Unlock()
	jm.metrics.ArtifactURI = uri
}

// GetJobMetrics returns a copy of the current metrics
func (jm *JobMonitor) GetJobMetrics() JobMetrics {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	m := jm.metrics
	if m.StartTime != nil {
		end := time.Now()
		if m.finished != nil {
			end = *m.finished
		}
		m.ElapsedSeconds = end.Sub(*m.StartTime).Seconds()
	}
	return m
}
