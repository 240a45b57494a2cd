package delivery_test

import (
	"testing"
	"time"

	"fulfillment/internal/core/domain/model/delivery"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/store"
	"fulfillment/internal/core/domain/model/vendor"
	"fulfillment/internal/pkg/errs"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newVendorAndStore(t *testing.T) (*vendor.Vendor, *store.Store) {
	t.Helper()
	v, err := vendor.NewVendor(kernel.NewUUID(), "Acme", kernel.MustGeoPoint(0, 0))
	require.NoError(t, err)
	s, err := store.NewStore(kernel.NewUUID(), "Central", "1 Main St", kernel.MustGeoPoint(0, 1))
	require.NoError(t, err)
	return v, s
}

func mustLineItem(t *testing.T, qty int, price string) delivery.LineItem {
	t.Helper()
	item, err := delivery.NewLineItem(kernel.NewUUID(), qty, decimal.RequireFromString(price))
	require.NoError(t, err)
	return item
}

func newDelivery(t *testing.T, items ...delivery.LineItem) *delivery.Delivery {
	t.Helper()
	v, s := newVendorAndStore(t)
	d, err := delivery.NewDelivery(kernel.NewUUID(), v, s, items, t0)
	require.NoError(t, err)
	return d
}

func TestNewDelivery(t *testing.T) {
	t.Run("computes total and copies endpoints", func(t *testing.T) {
		v, s := newVendorAndStore(t)
		items := []delivery.LineItem{mustLineItem(t, 2, "10.00"), mustLineItem(t, 1, "5.00")}

		d, err := delivery.NewDelivery(kernel.NewUUID(), v, s, items, t0)

		require.NoError(t, err)
		require.NoError(t, d.Validate())
		assert.Equal(t, "25.00", d.Total().StringFixed(2))
		assert.Equal(t, delivery.PendingPayment, d.Status())
		assert.Equal(t, t0, d.CreatedAt())
		assert.True(t, d.VendorID().IsEqual(v.ID()))
		assert.True(t, d.StoreID().IsEqual(s.ID()))
		assert.True(t, d.Origin().IsEqual(v.Location()))
		assert.True(t, d.Destination().IsEqual(s.Location()))
		assert.Nil(t, d.AssignedAt())
		assert.Nil(t, d.DeliveredAt())
		assert.Nil(t, d.CurrentLocation())
		assert.Len(t, d.LineItems(), 2)
		assert.True(t, d.Payment().IsZero())
	})

	t.Run("no line items yields zero total", func(t *testing.T) {
		d := newDelivery(t)
		assert.True(t, d.Total().IsZero())
	})

	t.Run("fractional prices round to cents", func(t *testing.T) {
		d := newDelivery(t, mustLineItem(t, 3, "0.33"), mustLineItem(t, 1, "1.005"))
		assert.Equal(t, "2.00", d.Total().StringFixed(2))
	})

	t.Run("missing vendor and store", func(t *testing.T) {
		d, err := delivery.NewDelivery(kernel.NewUUID(), nil, nil, nil, t0)

		require.Error(t, err)
		assert.Nil(t, d)
		require.ErrorIs(t, err, vendor.ErrVendorIsNotConstructed)
		require.ErrorIs(t, err, store.ErrStoreIsNotConstructed)
	})

	t.Run("unconstructed line item", func(t *testing.T) {
		v, s := newVendorAndStore(t)
		_, err := delivery.NewDelivery(kernel.NewUUID(), v, s, []delivery.LineItem{{}}, t0)
		require.ErrorIs(t, err, delivery.ErrLineItemIsNotConstructed)
	})
}

func TestNewLineItem(t *testing.T) {
	_, err := delivery.NewLineItem(kernel.NewUUID(), 0, decimal.NewFromInt(1))
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)

	_, err = delivery.NewLineItem(kernel.NewUUID(), 1, decimal.NewFromInt(-1))
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)

	item := mustLineItem(t, 4, "2.50")
	assert.Equal(t, "10.00", item.Subtotal().StringFixed(2))
}

func TestDelivery_TotalIsFrozen(t *testing.T) {
	item := mustLineItem(t, 2, "10.00")
	d := newDelivery(t, item, mustLineItem(t, 1, "5.00"))

	restored, err := delivery.RestoreDelivery(delivery.Snapshot{
		ID:          d.ID(),
		VendorID:    d.VendorID(),
		StoreID:     d.StoreID(),
		Total:       d.Total(),
		LineItems:   []delivery.LineItem{mustLineItem(t, 2, "99.00")},
		Status:      d.Status(),
		CreatedAt:   d.CreatedAt(),
		Origin:      d.Origin(),
		Destination: d.Destination(),
		Version:     d.Version(),
	})

	require.NoError(t, err)
	assert.Equal(t, "25.00", restored.Total().StringFixed(2))
	assert.Equal(t, int64(1), restored.Version())
}

func TestDelivery_VersionGrowsWithEveryChange(t *testing.T) {
	d := newDelivery(t)
	require.Equal(t, int64(1), d.Version())

	_, err := d.SetStatus(delivery.Paid, t0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), d.Version())

	_, err = d.AssignCourier("driver-1", "tracker-1", t0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), d.Version())

	sample, err := delivery.NewLocationSample(kernel.MustGeoPoint(1, 1), t0, nil, nil, t0)
	require.NoError(t, err)
	require.NoError(t, d.RecordLocation(sample))
	assert.Equal(t, int64(4), d.Version())

	require.NoError(t, d.AppendNote("ring twice"))
	assert.Equal(t, int64(5), d.Version())

	t.Run("rejected changes keep the version", func(t *testing.T) {
		_, err := d.SetStatus(delivery.Status(99), t0)
		require.Error(t, err)
		_, err = d.AssignCourier("driver-2", "tracker-2", t0)
		require.Error(t, err)
		require.Error(t, d.AppendNote(" "))
		assert.Equal(t, int64(5), d.Version())
	})
}

func TestDelivery_SetStatus(t *testing.T) {
	t.Run("stamps assignedAt only once", func(t *testing.T) {
		d := newDelivery(t)

		prev, err := d.SetStatus(delivery.Assigned, t0.Add(time.Minute))
		require.NoError(t, err)
		assert.Equal(t, delivery.PendingPayment, prev)
		first := d.AssignedAt()
		require.NotNil(t, first)

		_, err = d.SetStatus(delivery.Assigned, t0.Add(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, *first, *d.AssignedAt())
	})

	t.Run("stamps deliveredAt only once", func(t *testing.T) {
		d := newDelivery(t)

		_, err := d.SetStatus(delivery.Delivered, t0.Add(time.Minute))
		require.NoError(t, err)
		_, err = d.SetStatus(delivery.InTransit, t0.Add(2*time.Minute))
		require.NoError(t, err)
		_, err = d.SetStatus(delivery.Delivered, t0.Add(3*time.Minute))
		require.NoError(t, err)

		assert.Equal(t, t0.Add(time.Minute), *d.DeliveredAt())
		assert.Nil(t, d.AssignedAt())
	})

	// Backward moves are accepted on purpose. Whether Delivered -> PendingPayment
	// should be rejected is an open question; callers log such moves instead.
	t.Run("accepts backward transitions", func(t *testing.T) {
		d := newDelivery(t)
		_, err := d.SetStatus(delivery.Delivered, t0)
		require.NoError(t, err)

		prev, err := d.SetStatus(delivery.PendingPayment, t0.Add(time.Minute))

		require.NoError(t, err)
		assert.Equal(t, delivery.Delivered, prev)
		assert.Equal(t, delivery.PendingPayment, d.Status())
		assert.True(t, d.Status().IsBackwardFrom(prev))
		assert.NotNil(t, d.DeliveredAt())
	})

	t.Run("rejects invalid status", func(t *testing.T) {
		d := newDelivery(t)

		_, err := d.SetStatus(delivery.Unknown, t0)
		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
		_, err = d.SetStatus(delivery.Status(42), t0)
		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
		assert.Equal(t, delivery.PendingPayment, d.Status())
	})
}

func TestDelivery_AssignCourier(t *testing.T) {
	t.Run("sets identities and moves to assigned", func(t *testing.T) {
		d := newDelivery(t)

		prev, err := d.AssignCourier("driver-1", "gps-7", t0)

		require.NoError(t, err)
		assert.Equal(t, delivery.PendingPayment, prev)
		assert.Equal(t, "driver-1", d.DriverID())
		assert.Equal(t, "gps-7", d.TrackerID())
		assert.Equal(t, delivery.Assigned, d.Status())
		assert.Equal(t, t0, *d.AssignedAt())
	})

	t.Run("same courier twice is a no-op", func(t *testing.T) {
		d := newDelivery(t)
		_, err := d.AssignCourier("driver-1", "gps-7", t0)
		require.NoError(t, err)

		_, err = d.AssignCourier("driver-1", "gps-7", t0.Add(time.Hour))

		require.NoError(t, err)
		assert.Equal(t, t0, *d.AssignedAt())
	})

	t.Run("different courier is rejected", func(t *testing.T) {
		d := newDelivery(t)
		_, err := d.AssignCourier("driver-1", "gps-7", t0)
		require.NoError(t, err)

		_, err = d.AssignCourier("driver-2", "gps-8", t0)

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
		assert.Equal(t, "driver-1", d.DriverID())
	})

	t.Run("identities are required", func(t *testing.T) {
		d := newDelivery(t)

		_, err := d.AssignCourier(" ", "", t0)

		require.ErrorIs(t, err, errs.ErrValueIsRequired)
		assert.Contains(t, err.Error(), "driver id")
		assert.Contains(t, err.Error(), "tracker id")
		assert.Equal(t, delivery.PendingPayment, d.Status())
	})
}

func TestDelivery_RecordLocation(t *testing.T) {
	t.Run("snapshot follows the last of N samples", func(t *testing.T) {
		d := newDelivery(t)
		const n = 5

		for i := range n {
			sample, err := delivery.NewLocationSample(
				kernel.MustGeoPoint(float64(i), float64(i)/2), t0.Add(time.Duration(i)*time.Second), nil, nil, t0)
			require.NoError(t, err)
			require.NoError(t, d.RecordLocation(sample))
		}

		history := d.History()
		require.Len(t, history, n)
		last := history[n-1]
		assert.True(t, d.CurrentLocation().IsEqual(last.Point()))
		assert.Equal(t, last.RecordedAt(), *d.LastLocationUpdate())
	})

	t.Run("backdated sample still becomes the current position", func(t *testing.T) {
		d := newDelivery(t)
		recent, err := delivery.NewLocationSample(kernel.MustGeoPoint(5, 5), t0.Add(time.Minute), nil, nil, t0)
		require.NoError(t, err)
		late, err := delivery.NewLocationSample(kernel.MustGeoPoint(1, 1), t0, nil, nil, t0)
		require.NoError(t, err)

		require.NoError(t, d.RecordLocation(recent))
		require.NoError(t, d.RecordLocation(late))

		assert.True(t, d.CurrentLocation().IsEqual(kernel.MustGeoPoint(1, 1)))
		assert.Equal(t, t0, *d.LastLocationUpdate())
	})

	t.Run("timestamp defaults to capture time", func(t *testing.T) {
		speed := 12.5
		note := "left the store"

		sample, err := delivery.NewLocationSample(kernel.MustGeoPoint(1, 2), time.Time{}, &speed, &note, t0)

		require.NoError(t, err)
		assert.Equal(t, t0, sample.RecordedAt())
		assert.InDelta(t, 12.5, *sample.Speed(), 0)
		assert.Equal(t, "left the store", *sample.Note())
	})

	t.Run("negative speed is rejected", func(t *testing.T) {
		speed := -1.0
		_, err := delivery.NewLocationSample(kernel.MustGeoPoint(1, 2), t0, &speed, nil, t0)
		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})

	t.Run("unconstructed sample", func(t *testing.T) {
		d := newDelivery(t)
		require.ErrorIs(t, d.RecordLocation(delivery.LocationSample{}), delivery.ErrLocationSampleIsNotConstructed)
		assert.Empty(t, d.History())
	})
}

func TestDelivery_AppendNote(t *testing.T) {
	d := newDelivery(t)

	require.NoError(t, d.AppendNote("gate code 1234"))
	require.NoError(t, d.AppendNote("  call on arrival "))
	require.ErrorIs(t, d.AppendNote(""), errs.ErrValueIsRequired)

	assert.Equal(t, "gate code 1234\ncall on arrival", d.Notes())
}

func TestRestoreDelivery_Validates(t *testing.T) {
	_, err := delivery.RestoreDelivery(delivery.Snapshot{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "UUID must be created")
	assert.Contains(t, err.Error(), "status")
}

func TestEvents(t *testing.T) {
	d := newDelivery(t, mustLineItem(t, 1, "3.00"))

	created := delivery.NewCreatedEvent(d)
	assert.Equal(t, delivery.EventCreated, created.Type)
	assert.Equal(t, t0, created.OccurredAt)
	assert.Equal(t, "3.00", created.Total.StringFixed(2))

	prev, err := d.SetStatus(delivery.Paid, t0)
	require.NoError(t, err)
	changed := delivery.NewStatusChangedEvent(d, prev, t0)
	assert.Equal(t, delivery.Paid, changed.Status)
	assert.Equal(t, delivery.PendingPayment, changed.PreviousStatus)

	sample, err := delivery.NewLocationSample(kernel.MustGeoPoint(3, 4), t0, nil, nil, t0)
	require.NoError(t, err)
	moved := delivery.NewLocationUpdatedEvent(d, sample)
	assert.Equal(t, delivery.EventLocationUpdated, moved.Type)
	assert.True(t, moved.Location.IsEqual(kernel.MustGeoPoint(3, 4)))

	assert.Equal(t, int64(1), created.Version)
	assert.Equal(t, int64(2), changed.Version)
}
