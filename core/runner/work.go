package runner

import (
	"context"
	"time"
)

// DefaultEpochs is the number of simulated epochs a job runs
const DefaultEpochs = 5

// DefaultEpochInterval is how long each simulated epoch blocks
const DefaultEpochInterval = 2 * time.Second

// WorkUnit is one step of training. The runner invokes it once per epoch.
type WorkUnit interface {
	Run(ctx context.Context, epoch int) error
}

// WorkFunc adapts a function to a WorkUnit
type WorkFunc func(ctx context.Context, epoch int) error

// Run calls f(ctx, epoch)
func (f WorkFunc) Run(ctx context.Context, epoch int) error {
	return f(ctx, epoch)
}

// SleepWork stands in for real computation by blocking for Interval.
type SleepWork struct {
	Interval time.Duration
}

// Run blocks for the interval or until ctx is done
func (w SleepWork) Run(ctx context.Context, _ int) error {
	timer := time.NewTimer(w.Interval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
