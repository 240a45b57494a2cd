package commands

import (
	"errors"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/guard"
)

var ErrRecordLocationCommandIsNotConstructed = errors.New(
	"RecordLocationCommand must be created via NewRecordLocationCommand constructor",
)

// RecordLocationCommand carries one GPS sample. A zero recordedAt means the
// sample is stamped with the time it is captured.
type RecordLocationCommand struct { //nolint:recvcheck //using for validation
	deliveryID kernel.UUID
	point      kernel.GeoPoint
	recordedAt time.Time
	speed      *float64
	note       *string

	guard guard.ConstructorGuard
}

func NewRecordLocationCommand(
	deliveryID kernel.UUID,
	point kernel.GeoPoint,
	recordedAt time.Time,
	speed *float64,
	note *string,
) (RecordLocationCommand, error) {
	if err := errors.Join(deliveryID.Validate(), point.Validate()); err != nil {
		return RecordLocationCommand{}, err
	}

	cmd := RecordLocationCommand{
		deliveryID: deliveryID,
		point:      point,
		recordedAt: recordedAt,
		guard:      guard.NewConstructorGuard(),
	}
	if speed != nil {
		v := *speed
		cmd.speed = &v
	}
	if note != nil {
		v := *note
		cmd.note = &v
	}

	return cmd, nil
}

func (c RecordLocationCommand) Validate() error {
	return c.guard.Validate(ErrRecordLocationCommandIsNotConstructed)
}

func (c RecordLocationCommand) DeliveryID() kernel.UUID {
	return c.deliveryID
}

func (c RecordLocationCommand) Point() kernel.GeoPoint {
	return c.point
}

func (c RecordLocationCommand) RecordedAt() time.Time {
	return c.recordedAt
}

func (c RecordLocationCommand) Speed() *float64 {
	return c.speed
}

func (c RecordLocationCommand) Note() *string {
	return c.note
}
