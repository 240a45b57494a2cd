package commands

import (
	"errors"
	"strings"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var ErrAssignCourierCommandIsNotConstructed = errors.New(
	"AssignCourierCommand must be created via NewAssignCourierCommand constructor",
)

type AssignCourierCommand struct { //nolint:recvcheck //using for validation
	deliveryID kernel.UUID
	driverID   string
	trackerID  string

	guard guard.ConstructorGuard
}

func NewAssignCourierCommand(deliveryID kernel.UUID, driverID, trackerID string) (AssignCourierCommand, error) {
	cmd := AssignCourierCommand{
		driverID:  strings.TrimSpace(driverID),
		trackerID: strings.TrimSpace(trackerID),
		guard:     guard.NewConstructorGuard(),
	}

	var errList []error
	errList = append(errList, deliveryID.Validate())
	if cmd.driverID == "" {
		errList = append(errList, errs.NewValueIsRequiredError("driverId"))
	}
	if cmd.trackerID == "" {
		errList = append(errList, errs.NewValueIsRequiredError("trackerId"))
	}
	if err := errors.Join(errList...); err != nil {
		return AssignCourierCommand{}, err
	}
	cmd.deliveryID = deliveryID

	return cmd, nil
}

func (c AssignCourierCommand) Validate() error {
	return c.guard.Validate(ErrAssignCourierCommandIsNotConstructed)
}

func (c AssignCourierCommand) DeliveryID() kernel.UUID {
	return c.deliveryID
}

func (c AssignCourierCommand) DriverID() string {
	return c.driverID
}

func (c AssignCourierCommand) TrackerID() string {
	return c.trackerID
}
