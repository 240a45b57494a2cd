package commands_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"fulfillment/internal/core/application/realtime"
	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/delivery"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lockedRow stores one delivery. rowLock plays the part of SELECT ... FOR
// UPDATE: taken by GetForUpdate and released by Commit or Rollback.
type lockedRow struct {
	rowLock sync.Mutex

	mu     sync.Mutex
	stored *delivery.Delivery
}

func (r *lockedRow) load() (*delivery.Delivery, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d := r.stored
	return delivery.RestoreDelivery(delivery.Snapshot{
		ID:                 d.ID(),
		VendorID:           d.VendorID(),
		StoreID:            d.StoreID(),
		Total:              d.Total(),
		LineItems:          d.LineItems(),
		Status:             d.Status(),
		CreatedAt:          d.CreatedAt(),
		AssignedAt:         d.AssignedAt(),
		DeliveredAt:        d.DeliveredAt(),
		Payment:            d.Payment(),
		DriverID:           d.DriverID(),
		TrackerID:          d.TrackerID(),
		Origin:             d.Origin(),
		Destination:        d.Destination(),
		Current:            d.CurrentLocation(),
		LastLocationUpdate: d.LastLocationUpdate(),
		Notes:              d.Notes(),
		Version:            d.Version(),
	})
}

func (r *lockedRow) current() *delivery.Delivery {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stored
}

type lockingUoWFactory struct {
	row         *lockedRow
	onLocked    func()
	afterCommit func()
}

func (f lockingUoWFactory) Create() commands.DeliveryUoW {
	return &lockingUoW{factory: f}
}

type lockingUoW struct {
	factory lockingUoWFactory
	locked  bool
	pending *delivery.Delivery
}

func (u *lockingUoW) Begin(context.Context) error { return nil }

func (u *lockingUoW) Commit(context.Context) error {
	row := u.factory.row
	if u.pending != nil {
		row.mu.Lock()
		row.stored = u.pending
		row.mu.Unlock()
	}
	u.unlock()
	if u.factory.afterCommit != nil {
		u.factory.afterCommit()
	}
	return nil
}

func (u *lockingUoW) Rollback(context.Context) error {
	u.unlock()
	return nil
}

func (u *lockingUoW) unlock() {
	if u.locked {
		u.locked = false
		u.factory.row.rowLock.Unlock()
	}
}

func (u *lockingUoW) DeliveryRepository() ports.DeliveryRepository { return u }

func (u *lockingUoW) Add(context.Context, *delivery.Delivery) error { return nil }

func (u *lockingUoW) Update(_ context.Context, d *delivery.Delivery) error {
	if d.Version() <= u.factory.row.current().Version() {
		return errs.NewValueIsInvalidError("delivery version")
	}
	u.pending = d
	return nil
}

func (u *lockingUoW) Get(context.Context, kernel.UUID) (*delivery.Delivery, error) {
	return u.factory.row.load()
}

func (u *lockingUoW) GetForUpdate(context.Context, kernel.UUID) (*delivery.Delivery, error) {
	u.factory.row.rowLock.Lock()
	u.locked = true
	if u.factory.onLocked != nil {
		u.factory.onLocked()
	}
	return u.factory.row.load()
}

func (u *lockingUoW) AppendLocation(context.Context, kernel.UUID, delivery.LocationSample) error {
	return nil
}

// recordingPublisher remembers publish order and forwards to the hub.
type recordingPublisher struct {
	hub *realtime.Hub

	mu     sync.Mutex
	events []delivery.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, e delivery.Event) {
	p.mu.Lock()
	p.events = append(p.events, e)
	p.mu.Unlock()
	p.hub.Publish(ctx, e)
}

func (p *recordingPublisher) published() []delivery.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]delivery.Event(nil), p.events...)
}

type collectingSubscriber struct {
	mu   sync.Mutex
	msgs []realtime.Message
}

func (s *collectingSubscriber) Send(_ context.Context, msg realtime.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
	return nil
}

func (s *collectingSubscriber) Close() error { return nil }

func (s *collectingSubscriber) received() []realtime.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]realtime.Message(nil), s.msgs...)
}

type commitOrderFixture struct {
	row       *lockedRow
	publisher *recordingPublisher
	sub       *collectingSubscriber
}

func newCommitOrderFixture(t *testing.T, d *delivery.Delivery) commitOrderFixture {
	t.Helper()
	hub := realtime.NewHub(discardLogger())
	t.Cleanup(hub.Close)

	sub := &collectingSubscriber{}
	c, err := hub.Attach(sub)
	require.NoError(t, err)
	require.NoError(t, hub.Join(c, d.ID()))

	return commitOrderFixture{
		row:       &lockedRow{stored: d},
		publisher: &recordingPublisher{hub: hub},
		sub:       sub,
	}
}

// runOverlapping runs first until it holds the row lock, then starts second.
// first pauses after its commit, so second commits later but publishes
// earlier.
func runOverlapping(
	t *testing.T,
	f commitOrderFixture,
	first func(commands.DeliveryUoWFactory),
	second func(commands.DeliveryUoWFactory),
) {
	t.Helper()
	locked := make(chan struct{})
	var once sync.Once

	firstFactory := lockingUoWFactory{
		row:         f.row,
		onLocked:    func() { once.Do(func() { close(locked) }) },
		afterCommit: func() { time.Sleep(50 * time.Millisecond) },
	}
	secondFactory := lockingUoWFactory{row: f.row}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		first(firstFactory)
	}()
	go func() {
		defer wg.Done()
		<-locked
		second(secondFactory)
	}()
	wg.Wait()
}

func TestConcurrentStatusChanges_SubscriberEndsOnLastCommittedStatus(t *testing.T) {
	ctx := t.Context()
	d := newDelivery()
	f := newCommitOrderFixture(t, d)

	inTransit, err := commands.NewUpdateDeliveryStatusCommand(d.ID(), delivery.InTransit)
	require.NoError(t, err)
	delivered, err := commands.NewUpdateDeliveryStatusCommand(d.ID(), delivery.Delivered)
	require.NoError(t, err)

	runOverlapping(t, f,
		func(uf commands.DeliveryUoWFactory) {
			h := commands.NewUpdateDeliveryStatusCommandHandler(uf, f.publisher, fixedClock, discardLogger())
			_, hErr := h.Handle(ctx, inTransit)
			assert.NoError(t, hErr)
		},
		func(uf commands.DeliveryUoWFactory) {
			h := commands.NewUpdateDeliveryStatusCommandHandler(uf, f.publisher, fixedClock, discardLogger())
			_, hErr := h.Handle(ctx, delivered)
			assert.NoError(t, hErr)
		},
	)

	require.Equal(t, delivery.Delivered, f.row.current().Status())
	require.Equal(t, int64(3), f.row.current().Version())

	published := f.publisher.published()
	require.Len(t, published, 2)
	require.Equal(t, delivery.Delivered, published[0].Status, "publish order is the reverse of commit order")
	require.Equal(t, delivery.InTransit, published[1].Status)

	require.Eventually(t, func() bool { return len(f.sub.received()) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	msgs := f.sub.received()
	require.Len(t, msgs, 1)
	assert.Equal(t, delivery.Delivered, msgs[0].Event.Status)
	assert.Equal(t, uint64(3), msgs[0].Seq)
}

func TestConcurrentCourierAndLocation_SubscriberNeverGoesBack(t *testing.T) {
	ctx := t.Context()
	d := newDelivery()
	f := newCommitOrderFixture(t, d)

	assign, err := commands.NewAssignCourierCommand(d.ID(), "driver-7", "tracker-7")
	require.NoError(t, err)
	record, err := commands.NewRecordLocationCommand(d.ID(), kernel.MustGeoPoint(0, 0.005), fixedNow, nil, nil)
	require.NoError(t, err)

	runOverlapping(t, f,
		func(uf commands.DeliveryUoWFactory) {
			h := commands.NewAssignCourierCommandHandler(uf, f.publisher, fixedClock, discardLogger())
			_, hErr := h.Handle(ctx, assign)
			assert.NoError(t, hErr)
		},
		func(uf commands.DeliveryUoWFactory) {
			h := commands.NewRecordLocationCommandHandler(uf, f.publisher, fixedClock, discardLogger())
			_, hErr := h.Handle(ctx, record)
			assert.NoError(t, hErr)
		},
	)

	stored := f.row.current()
	require.Equal(t, delivery.Assigned, stored.Status())
	require.NotNil(t, stored.CurrentLocation())
	require.Equal(t, int64(3), stored.Version())

	require.Eventually(t, func() bool { return len(f.sub.received()) >= 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(80 * time.Millisecond)
	msgs := f.sub.received()
	require.Len(t, msgs, 1)
	assert.Equal(t, delivery.EventLocationUpdated, msgs[0].Event.Type)
	assert.Equal(t, uint64(3), msgs[0].Seq)
}
