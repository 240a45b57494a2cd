// Package eventbus defines the JSON form of delivery events and fans events
// out to every configured publisher.
package eventbus

import (
	"time"

	"fulfillment/internal/core/domain/model/delivery"
)

// Location is a point in an event message.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// EventMessage is the JSON shape shared by the WebSocket stream and Kafka.
// Seq is the delivery version the event was produced at; consumers order
// events of one delivery by it and ignore ones they have already passed.
type EventMessage struct {
	Type           string    `json:"type"`
	Seq            uint64    `json:"seq,omitempty"`
	DeliveryID     string    `json:"deliveryId"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previousStatus,omitempty"`
	Total          string    `json:"total"`
	Location       *Location `json:"location,omitempty"`
	Speed          *float64  `json:"speed,omitempty"`
	Note           *string   `json:"note,omitempty"`
	OccurredAt     time.Time `json:"occurredAt"`
}

func NewEventMessage(e delivery.Event) EventMessage {
	msg := EventMessage{
		Type:       string(e.Type),
		Seq:        uint64(max(e.Version, 0)),
		DeliveryID: e.DeliveryID.String(),
		Status:     e.Status.String(),
		Total:      e.Total.StringFixed(2),
		Speed:      e.Speed,
		Note:       e.Note,
		OccurredAt: e.OccurredAt.UTC(),
	}
	if e.Type == delivery.EventStatusChanged {
		msg.PreviousStatus = e.PreviousStatus.String()
	}
	if e.Location != nil {
		msg.Location = &Location{Lat: e.Location.Lat(), Lon: e.Location.Lon()}
	}
	return msg
}
