package jobs

import (
	"context"
	"fmt"
	"log/slog"
)

// Job is a scheduled task that can be started and stopped.
type Job interface {
	Name() string
	Start() error
	Stop()
}

// JobManager starts and stops every background job of the application.
type JobManager struct {
	jobs   []Job
	logger *slog.Logger
}

func NewJobManager(logger *slog.Logger, jobs ...Job) *JobManager {
	return &JobManager{
		jobs:   jobs,
		logger: logger.With("component", "JobManager"),
	}
}

// StartAll starts the jobs in order. When one fails to start, the ones
// already running are stopped.
func (jm *JobManager) StartAll() error {
	for i, job := range jm.jobs {
		if err := job.Start(); err != nil {
			for _, started := range jm.jobs[:i] {
				started.Stop()
			}
			return fmt.Errorf("failed to start %s: %w", job.Name(), err)
		}
	}
	jm.logger.InfoContext(context.Background(), "background jobs started", "count", len(jm.jobs))
	return nil
}

// StopAll stops the jobs in reverse start order.
func (jm *JobManager) StopAll() {
	for i := len(jm.jobs) - 1; i >= 0; i-- {
		jm.jobs[i].Stop()
	}
}
