package queries

import (
	"time"

	"fulfillment/internal/core/domain/model/delivery"
	"fulfillment/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const summaryColumns = `
	d.id,
	d.vendor_id,
	d.store_id,
	d.status,
	d.total,
	d.created_at,
	d.assigned_at,
	d.delivered_at,
	d.driver_id,
	d.tracker_id,
	d.origin_lat,
	d.origin_lon,
	d.destination_lat,
	d.destination_lon,
	d.current_lat,
	d.current_lon,
	d.last_location_update`

type summaryRow struct {
	id, vendorID, storeID   uuid.UUID
	status                  int
	total                   decimal.Decimal
	createdAt               time.Time
	assignedAt, deliveredAt *time.Time
	driverID, trackerID     string
	originLat, originLon    float64
	destLat, destLon        float64
	currentLat, currentLon  *float64
	lastLocationUpdate      *time.Time
}

// targets returns the scan destinations in summaryColumns order; extra
// destinations are appended after them.
func (r *summaryRow) targets(extra ...any) []any {
	return append([]any{
		&r.id, &r.vendorID, &r.storeID,
		&r.status, &r.total,
		&r.createdAt, &r.assignedAt, &r.deliveredAt,
		&r.driverID, &r.trackerID,
		&r.originLat, &r.originLon, &r.destLat, &r.destLon,
		&r.currentLat, &r.currentLon, &r.lastLocationUpdate,
	}, extra...)
}

func (r *summaryRow) toSummary() (DeliverySummary, error) {
	id, err := kernel.UUIDFromBytes(r.id[:])
	if err != nil {
		return DeliverySummary{}, err
	}
	vendorID, err := kernel.UUIDFromBytes(r.vendorID[:])
	if err != nil {
		return DeliverySummary{}, err
	}
	storeID, err := kernel.UUIDFromBytes(r.storeID[:])
	if err != nil {
		return DeliverySummary{}, err
	}
	origin, err := kernel.NewGeoPoint(r.originLat, r.originLon)
	if err != nil {
		return DeliverySummary{}, err
	}
	destination, err := kernel.NewGeoPoint(r.destLat, r.destLon)
	if err != nil {
		return DeliverySummary{}, err
	}

	s := DeliverySummary{
		ID:                 id,
		VendorID:           vendorID,
		StoreID:            storeID,
		Status:             delivery.Status(r.status),
		Total:              r.total,
		CreatedAt:          r.createdAt.UTC(),
		AssignedAt:         utc(r.assignedAt),
		DeliveredAt:        utc(r.deliveredAt),
		DriverID:           r.driverID,
		TrackerID:          r.trackerID,
		Origin:             origin,
		Destination:        destination,
		LastLocationUpdate: utc(r.lastLocationUpdate),
	}

	if r.currentLat != nil && r.currentLon != nil {
		current, pointErr := kernel.NewGeoPoint(*r.currentLat, *r.currentLon)
		if pointErr != nil {
			return DeliverySummary{}, pointErr
		}
		s.CurrentLocation = &current
	}

	return s, nil
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
