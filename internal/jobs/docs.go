// Package jobs provides scheduled background tasks of the fulfillment service.
//
// Jobs run on github.com/robfig/cron/v3 schedules with seconds enabled and are
// started and stopped together through JobManager:
//
//	jobManager := jobs.NewJobManager(logger, activeDeliveriesJob)
//	if err := jobManager.StartAll(); err != nil {
//		return err
//	}
//	defer jobManager.StopAll()
//
// # Available Jobs
//
// ActiveDeliveriesJob reads the active deliveries, publishes their count per
// status as gauges and warns about in-transit deliveries whose tracker has
// been silent for longer than the configured threshold.
package jobs
