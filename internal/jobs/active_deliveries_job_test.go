package jobs

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/core/domain/model/delivery"
	"fulfillment/internal/core/domain/model/kernel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type MockActiveDeliveriesReader struct {
	mock.Mock
}

func (m *MockActiveDeliveriesReader) Handle(
	ctx context.Context,
	query queries.GetActiveDeliveriesQuery,
) ([]queries.DeliverySummary, error) {
	args := m.Called(ctx, query)
	list, _ := args.Get(0).([]queries.DeliverySummary)
	return list, args.Error(1)
}

type recordingGauges struct {
	counts map[delivery.Status]int
	silent int
	calls  atomic.Int32
}

func (g *recordingGauges) SetActiveDeliveries(counts map[delivery.Status]int) {
	g.counts = counts
	g.calls.Add(1)
}

func (g *recordingGauges) SetSilentTrackers(n int) {
	g.silent = n
}

func newTestJob(reader ActiveDeliveriesReader, gauges DeliveryGauges, logger *slog.Logger) *ActiveDeliveriesJob {
	j := NewActiveDeliveriesJob(reader, gauges, "* * * * * *", 5*time.Minute, logger)
	j.now = func() time.Time { return fixedNow }
	return j
}

func at(d time.Duration) *time.Time {
	t := fixedNow.Add(-d)
	return &t
}

func TestActiveDeliveriesJob_Run_CountsAndFlagsSilentTrackers(t *testing.T) {
	ctx := t.Context()
	silentID := kernel.NewUUID()
	list := []queries.DeliverySummary{
		{ID: kernel.NewUUID(), Status: delivery.Paid},
		{ID: kernel.NewUUID(), Status: delivery.InTransit, TrackerID: "trk-1", LastLocationUpdate: at(time.Minute)},
		{ID: silentID, Status: delivery.InTransit, TrackerID: "trk-2", LastLocationUpdate: at(10 * time.Minute)},
		{ID: kernel.NewUUID(), Status: delivery.InTransit, TrackerID: "trk-3", AssignedAt: at(2 * time.Minute)},
		{ID: kernel.NewUUID(), Status: delivery.Assigned, AssignedAt: at(time.Hour)},
	}
	reader := new(MockActiveDeliveriesReader)
	reader.On("Handle", ctx, mock.AnythingOfType("queries.GetActiveDeliveriesQuery")).Return(list, nil).Once()

	var buf bytes.Buffer
	gauges := &recordingGauges{}
	job := newTestJob(reader, gauges, slog.New(slog.NewJSONHandler(&buf, nil)))

	require.NoError(t, job.Run(ctx))

	assert.Equal(t, map[delivery.Status]int{delivery.Paid: 1, delivery.InTransit: 3, delivery.Assigned: 1}, gauges.counts)
	assert.Equal(t, 1, gauges.silent)
	assert.Contains(t, buf.String(), "tracker has gone silent")
	assert.Contains(t, buf.String(), silentID.String())
	assert.NotContains(t, buf.String(), "trk-1")
	reader.AssertExpectations(t)
}

func TestActiveDeliveriesJob_Run_ReaderError(t *testing.T) {
	ctx := t.Context()
	reader := new(MockActiveDeliveriesReader)
	reader.On("Handle", ctx, mock.Anything).Return(nil, errors.New("db down")).Once()
	gauges := &recordingGauges{}

	err := newTestJob(reader, gauges, slog.New(slog.NewTextHandler(io.Discard, nil))).Run(ctx)

	require.Error(t, err)
	assert.Zero(t, gauges.calls.Load())
}

func TestActiveDeliveriesJob_StartRunsOnSchedule(t *testing.T) {
	reader := new(MockActiveDeliveriesReader)
	reader.On("Handle", mock.Anything, mock.Anything).Return(nil, nil)
	gauges := &recordingGauges{}

	job := newTestJob(reader, gauges, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, job.Start())
	t.Cleanup(job.Stop)

	assert.Eventually(t, func() bool { return gauges.calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
}

func TestActiveDeliveriesJob_StartRejectsBadSchedule(t *testing.T) {
	job := NewActiveDeliveriesJob(new(MockActiveDeliveriesReader), &recordingGauges{}, "every minute", time.Minute,
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.Error(t, job.Start())
}

type stubJob struct {
	name     string
	startErr error
	started  bool
	stopped  bool
}

func (j *stubJob) Name() string { return j.name }

func (j *stubJob) Start() error {
	j.started = j.startErr == nil
	return j.startErr
}

func (j *stubJob) Stop() { j.stopped = true }

func TestJobManager_StartAllStopsStartedJobsOnFailure(t *testing.T) {
	first := &stubJob{name: "first"}
	second := &stubJob{name: "second", startErr: errors.New("bad schedule")}
	third := &stubJob{name: "third"}

	err := NewJobManager(slog.New(slog.NewTextHandler(io.Discard, nil)), first, second, third).StartAll()

	require.ErrorContains(t, err, "second")
	assert.True(t, first.stopped)
	assert.False(t, third.started)
}
