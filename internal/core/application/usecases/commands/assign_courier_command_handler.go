package commands

import (
	"context"
	"log/slog"

	"fulfillment/internal/core/domain/model/delivery"
	"fulfillment/internal/core/ports"
)

// AssignCourierCommandHandler binds a driver and tracker to a delivery and
// moves it to Assigned.
type AssignCourierCommandHandler struct {
	uowFactory DeliveryUoWFactory
	publisher  ports.DeliveryEventPublisher
	clock      Clock
	logger     *slog.Logger
}

func NewAssignCourierCommandHandler(
	uowFactory DeliveryUoWFactory,
	publisher ports.DeliveryEventPublisher,
	clock Clock,
	logger *slog.Logger,
) AssignCourierCommandHandler {
	return AssignCourierCommandHandler{
		uowFactory: uowFactory,
		publisher:  publisher,
		clock:      clock,
		logger:     logger.With("component", "AssignCourierCommandHandler"),
	}
}

func (h *AssignCourierCommandHandler) Handle(
	ctx context.Context,
	cmd AssignCourierCommand,
) (*delivery.Delivery, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	d, err := uow.DeliveryRepository().GetForUpdate(ctx, cmd.DeliveryID())
	if err != nil {
		return nil, err
	}

	now := h.clock()
	prev, err := d.AssignCourier(cmd.DriverID(), cmd.TrackerID(), now)
	if err != nil {
		return nil, err
	}

	if d.Status().IsBackwardFrom(prev) {
		h.logger.WarnContext(ctx, "delivery status moved backwards",
			"deliveryId", d.ID().String(),
			"from", prev.String(),
			"to", d.Status().String())
	}

	if err = uow.DeliveryRepository().Update(ctx, d); err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	h.logger.InfoContext(ctx, "courier assigned",
		"deliveryId", d.ID().String(),
		"driverId", d.DriverID(),
		"trackerId", d.TrackerID())
	h.publisher.Publish(ctx, delivery.NewStatusChangedEvent(d, prev, now))

	return d, nil
}
