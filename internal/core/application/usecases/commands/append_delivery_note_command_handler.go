package commands

import (
	"context"
	"log/slog"
)

// AppendDeliveryNoteCommandHandler adds a line to a delivery's tracking notes.
// Notes are not broadcast.
type AppendDeliveryNoteCommandHandler struct {
	uowFactory DeliveryUoWFactory
	logger     *slog.Logger
}

func NewAppendDeliveryNoteCommandHandler(
	uowFactory DeliveryUoWFactory,
	logger *slog.Logger,
) AppendDeliveryNoteCommandHandler {
	return AppendDeliveryNoteCommandHandler{
		uowFactory: uowFactory,
		logger:     logger.With("component", "AppendDeliveryNoteCommandHandler"),
	}
}

func (h *AppendDeliveryNoteCommandHandler) Handle(ctx context.Context, cmd AppendDeliveryNoteCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	d, err := uow.DeliveryRepository().GetForUpdate(ctx, cmd.DeliveryID())
	if err != nil {
		return err
	}

	if err = d.AppendNote(cmd.Text()); err != nil {
		return err
	}

	if err = uow.DeliveryRepository().Update(ctx, d); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	h.logger.InfoContext(ctx, "note appended", "deliveryId", d.ID().String())
	return nil
}
