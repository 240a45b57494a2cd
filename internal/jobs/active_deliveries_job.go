package jobs

import (
	"context"
	"log/slog"
	"time"

	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/core/domain/model/delivery"

	"github.com/robfig/cron/v3"
)

const activeDeliveriesJobName = "active deliveries job"

type ActiveDeliveriesReader interface {
	Handle(ctx context.Context, query queries.GetActiveDeliveriesQuery) ([]queries.DeliverySummary, error)
}

// DeliveryGauges receives the figures computed on each run.
type DeliveryGauges interface {
	SetActiveDeliveries(counts map[delivery.Status]int)
	SetSilentTrackers(n int)
}

// ActiveDeliveriesJob periodically summarizes the deliveries in flight.
type ActiveDeliveriesJob struct {
	reader          ActiveDeliveriesReader
	gauges          DeliveryGauges
	schedule        string
	silentThreshold time.Duration
	timeout         time.Duration
	now             func() time.Time
	cron            *cron.Cron
	logger          *slog.Logger
}

// NewActiveDeliveriesJob creates the job. schedule is a six-field cron
// expression; a tracker is silent when its last location is older than
// silentThreshold.
func NewActiveDeliveriesJob(
	reader ActiveDeliveriesReader,
	gauges DeliveryGauges,
	schedule string,
	silentThreshold time.Duration,
	logger *slog.Logger,
) *ActiveDeliveriesJob {
	return &ActiveDeliveriesJob{
		reader:          reader,
		gauges:          gauges,
		schedule:        schedule,
		silentThreshold: silentThreshold,
		timeout:         10 * time.Second,
		now:             func() time.Time { return time.Now().UTC() },
		cron:            cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger:          logger.With("component", "active_deliveries_job"),
	}
}

func (j *ActiveDeliveriesJob) Name() string {
	return activeDeliveriesJobName
}

func (j *ActiveDeliveriesJob) Start() error {
	_, err := j.cron.AddFunc(j.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
		defer cancel()

		if err := j.Run(ctx); err != nil {
			j.logger.ErrorContext(ctx, "Active deliveries job failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Active deliveries job started", "schedule", j.schedule)
	return nil
}

func (j *ActiveDeliveriesJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Active deliveries job stopped")
}

// Run performs one pass.
func (j *ActiveDeliveriesJob) Run(ctx context.Context) error {
	list, err := j.reader.Handle(ctx, queries.NewGetActiveDeliveriesQuery())
	if err != nil {
		return err
	}

	counts := make(map[delivery.Status]int)
	silent := 0
	now := j.now()
	for _, d := range list {
		counts[d.Status]++
		if !j.isSilent(d, now) {
			continue
		}
		silent++
		attrs := []any{
			"deliveryId", d.ID.String(),
			"trackerId", d.TrackerID,
		}
		if d.LastLocationUpdate != nil {
			attrs = append(attrs, "lastLocationUpdate", d.LastLocationUpdate.Format(time.RFC3339))
		}
		j.logger.WarnContext(ctx, "tracker has gone silent", attrs...)
	}

	j.gauges.SetActiveDeliveries(counts)
	j.gauges.SetSilentTrackers(silent)
	j.logger.DebugContext(ctx, "active deliveries summarized", "active", len(list), "silent", silent)
	return nil
}

// isSilent reports an in-transit delivery whose last location, or its
// assignment when it never reported, is older than the threshold.
func (j *ActiveDeliveriesJob) isSilent(d queries.DeliverySummary, now time.Time) bool {
	if d.Status != delivery.InTransit {
		return false
	}
	last := d.LastLocationUpdate
	if last == nil {
		last = d.AssignedAt
	}
	if last == nil {
		return true
	}
	return now.Sub(*last) > j.silentThreshold
}
