package delivery

import (
	"time"

	"fulfillment/internal/core/domain/model/kernel"

	"github.com/shopspring/decimal"
)

// EventType names a change that observers of a delivery are told about.
type EventType string

const (
	EventCreated         EventType = "delivery.created"
	EventStatusChanged   EventType = "delivery.status_changed"
	EventLocationUpdated EventType = "delivery.location_updated"
)

// Event is the notification emitted after a delivery change is committed.
// Version is the delivery version the change produced; observers use it to
// order events and to discard ones already superseded.
type Event struct {
	Type           EventType
	DeliveryID     kernel.UUID
	Version        int64
	Status         Status
	PreviousStatus Status
	Total          decimal.Decimal
	Location       *kernel.GeoPoint
	Speed          *float64
	Note           *string
	OccurredAt     time.Time
}

func NewCreatedEvent(d *Delivery) Event {
	return Event{
		Type:       EventCreated,
		DeliveryID: d.ID(),
		Version:    d.Version(),
		Status:     d.Status(),
		Total:      d.Total(),
		OccurredAt: d.CreatedAt(),
	}
}

func NewStatusChangedEvent(d *Delivery, prev Status, at time.Time) Event {
	return Event{
		Type:           EventStatusChanged,
		DeliveryID:     d.ID(),
		Version:        d.Version(),
		Status:         d.Status(),
		PreviousStatus: prev,
		Total:          d.Total(),
		OccurredAt:     at.UTC(),
	}
}

func NewLocationUpdatedEvent(d *Delivery, sample LocationSample) Event {
	p := sample.Point()
	return Event{
		Type:       EventLocationUpdated,
		DeliveryID: d.ID(),
		Version:    d.Version(),
		Status:     d.Status(),
		Total:      d.Total(),
		Location:   &p,
		Speed:      sample.Speed(),
		Note:       sample.Note(),
		OccurredAt: sample.RecordedAt(),
	}
}
