package delivery

import (
	"errors"
	"fmt"
	"math"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var ErrLocationSampleIsNotConstructed = errors.New("LocationSample must be created via NewLocationSample")

// LocationSample is one immutable GPS breadcrumb of a delivery.
type LocationSample struct { //nolint:recvcheck //using for validation
	point      kernel.GeoPoint
	recordedAt time.Time
	speed      *float64
	note       *string

	guard guard.ConstructorGuard
}

// NewLocationSample builds a sample. A zero recordedAt is replaced by now.
func NewLocationSample(
	point kernel.GeoPoint,
	recordedAt time.Time,
	speed *float64,
	note *string,
	now time.Time,
) (LocationSample, error) {
	s := LocationSample{
		recordedAt: recordedAt,
		guard:      guard.NewConstructorGuard(),
	}
	if s.recordedAt.IsZero() {
		s.recordedAt = now
	}
	s.recordedAt = s.recordedAt.UTC()

	if err := errors.Join(s.setPoint(point), s.setSpeed(speed)); err != nil {
		return LocationSample{}, err
	}
	if note != nil {
		n := *note
		s.note = &n
	}

	return s, nil
}

func (s LocationSample) Validate() error {
	return s.guard.Validate(ErrLocationSampleIsNotConstructed)
}

func (s LocationSample) Point() kernel.GeoPoint {
	return s.point
}

func (s LocationSample) RecordedAt() time.Time {
	return s.recordedAt
}

// Speed returns the reported speed, nil when the tracker did not send one.
func (s LocationSample) Speed() *float64 {
	if s.speed == nil {
		return nil
	}
	v := *s.speed
	return &v
}

func (s LocationSample) Note() *string {
	if s.note == nil {
		return nil
	}
	v := *s.note
	return &v
}

func (s *LocationSample) setPoint(point kernel.GeoPoint) error {
	if err := point.Validate(); err != nil {
		return err
	}
	s.point = point
	return nil
}

func (s *LocationSample) setSpeed(speed *float64) error {
	if speed == nil {
		return nil
	}
	if math.IsNaN(*speed) || math.IsInf(*speed, 0) || *speed < 0 {
		return errs.NewValueIsInvalidErrorWithCause("speed", fmt.Errorf("%g is not a valid speed", *speed))
	}
	v := *speed
	s.speed = &v
	return nil
}
