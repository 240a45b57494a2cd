package commands

import (
	"context"
	"errors"
	"log/slog"

	"fulfillment/internal/core/domain/model/delivery"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
)

// UpdateDeliveryStatusCommandHandler writes a new status. Any status may
// follow any other; moves that go back in the lifecycle are applied and
// logged at WARN.
type UpdateDeliveryStatusCommandHandler struct {
	uowFactory DeliveryUoWFactory
	publisher  ports.DeliveryEventPublisher
	clock      Clock
	logger     *slog.Logger
}

func NewUpdateDeliveryStatusCommandHandler(
	uowFactory DeliveryUoWFactory,
	publisher ports.DeliveryEventPublisher,
	clock Clock,
	logger *slog.Logger,
) UpdateDeliveryStatusCommandHandler {
	return UpdateDeliveryStatusCommandHandler{
		uowFactory: uowFactory,
		publisher:  publisher,
		clock:      clock,
		logger:     logger.With("component", "UpdateDeliveryStatusCommandHandler"),
	}
}

// Handle reports false when the delivery does not exist.
func (h *UpdateDeliveryStatusCommandHandler) Handle(
	ctx context.Context,
	cmd UpdateDeliveryStatusCommand,
) (bool, error) {
	if err := cmd.Validate(); err != nil {
		return false, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return false, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	d, err := uow.DeliveryRepository().GetForUpdate(ctx, cmd.DeliveryID())
	if err != nil {
		if errors.Is(err, errs.ErrObjectNotFound) {
			return false, nil
		}
		return false, err
	}

	now := h.clock()
	prev, err := d.SetStatus(cmd.Status(), now)
	if err != nil {
		return false, err
	}

	if cmd.Status().IsBackwardFrom(prev) {
		h.logger.WarnContext(ctx, "delivery status moved backwards",
			"deliveryId", d.ID().String(),
			"from", prev.String(),
			"to", cmd.Status().String())
	}

	if err = uow.DeliveryRepository().Update(ctx, d); err != nil {
		if errors.Is(err, errs.ErrObjectNotFound) {
			return false, nil
		}
		return false, err
	}

	if err = uow.Commit(ctx); err != nil {
		return false, err
	}

	h.publisher.Publish(ctx, delivery.NewStatusChangedEvent(d, prev, now))

	return true, nil
}
