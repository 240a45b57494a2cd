package commands

import (
	"context"
	"log/slog"

	"fulfillment/internal/core/domain/model/delivery"
	"fulfillment/internal/core/ports"
)

// RecordLocationCommandHandler appends a GPS sample and moves the current
// position snapshot. The delivery row stays locked until commit, so
// concurrent samples for one delivery are applied one at a time.
type RecordLocationCommandHandler struct {
	uowFactory DeliveryUoWFactory
	publisher  ports.DeliveryEventPublisher
	clock      Clock
	logger     *slog.Logger
}

func NewRecordLocationCommandHandler(
	uowFactory DeliveryUoWFactory,
	publisher ports.DeliveryEventPublisher,
	clock Clock,
	logger *slog.Logger,
) RecordLocationCommandHandler {
	return RecordLocationCommandHandler{
		uowFactory: uowFactory,
		publisher:  publisher,
		clock:      clock,
		logger:     logger.With("component", "RecordLocationCommandHandler"),
	}
}

func (h *RecordLocationCommandHandler) Handle(
	ctx context.Context,
	cmd RecordLocationCommand,
) (delivery.LocationSample, error) {
	if err := cmd.Validate(); err != nil {
		return delivery.LocationSample{}, err
	}

	sample, err := delivery.NewLocationSample(cmd.Point(), cmd.RecordedAt(), cmd.Speed(), cmd.Note(), h.clock())
	if err != nil {
		return delivery.LocationSample{}, err
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return delivery.LocationSample{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	d, err := uow.DeliveryRepository().GetForUpdate(ctx, cmd.DeliveryID())
	if err != nil {
		return delivery.LocationSample{}, err
	}

	if err = d.RecordLocation(sample); err != nil {
		return delivery.LocationSample{}, err
	}

	if err = uow.DeliveryRepository().AppendLocation(ctx, d.ID(), sample); err != nil {
		return delivery.LocationSample{}, err
	}

	if err = uow.DeliveryRepository().Update(ctx, d); err != nil {
		return delivery.LocationSample{}, err
	}

	if err = uow.Commit(ctx); err != nil {
		return delivery.LocationSample{}, err
	}

	h.logger.DebugContext(ctx, "location recorded",
		"deliveryId", d.ID().String(),
		"point", sample.Point().String())
	h.publisher.Publish(ctx, delivery.NewLocationUpdatedEvent(d, sample))

	return sample, nil
}
