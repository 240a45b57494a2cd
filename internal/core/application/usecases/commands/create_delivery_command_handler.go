package commands

import (
	"context"
	"log/slog"

	"fulfillment/internal/core/domain/model/delivery"
	"fulfillment/internal/core/domain/model/store"
	"fulfillment/internal/core/domain/model/vendor"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/core/ports"
)

// CreateDeliveryCommandHandler opens deliveries: it resolves the store,
// freezes catalog prices into line items and writes everything in one
// transaction. Products missing from the catalog are skipped and add nothing
// to the total.
type CreateDeliveryCommandHandler struct {
	uowFactory LedgerUoWFactory
	matcher    services.StoreMatcher
	publisher  ports.DeliveryEventPublisher
	clock      Clock
	logger     *slog.Logger
}

func NewCreateDeliveryCommandHandler(
	uowFactory LedgerUoWFactory,
	matcher services.StoreMatcher,
	publisher ports.DeliveryEventPublisher,
	clock Clock,
	logger *slog.Logger,
) CreateDeliveryCommandHandler {
	return CreateDeliveryCommandHandler{
		uowFactory: uowFactory,
		matcher:    matcher,
		publisher:  publisher,
		clock:      clock,
		logger:     logger.With("component", "CreateDeliveryCommandHandler"),
	}
}

func (h *CreateDeliveryCommandHandler) Handle(
	ctx context.Context,
	cmd CreateDeliveryCommand,
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

	v, err := uow.VendorRepository().Get(ctx, cmd.VendorID())
	if err != nil {
		return nil, err
	}

	s, err := h.resolveStore(ctx, uow, cmd, v)
	if err != nil {
		return nil, err
	}

	prices, err := uow.ProductCatalog().GetPrices(ctx, cmd.ProductIDs())
	if err != nil {
		return nil, err
	}

	items := make([]delivery.LineItem, 0, len(cmd.Items()))
	for _, requested := range cmd.Items() {
		price, ok := prices[requested.ProductID]
		if !ok {
			h.logger.WarnContext(ctx, "skipping unknown product",
				"deliveryId", cmd.DeliveryID().String(),
				"productId", requested.ProductID.String())
			continue
		}
		item, itemErr := delivery.NewLineItem(requested.ProductID, requested.Quantity, price)
		if itemErr != nil {
			return nil, itemErr
		}
		items = append(items, item)
	}

	d, err := delivery.NewDelivery(cmd.DeliveryID(), v, s, items, h.clock())
	if err != nil {
		return nil, err
	}

	if err = uow.DeliveryRepository().Add(ctx, d); err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	h.logger.InfoContext(ctx, "delivery created",
		"deliveryId", d.ID().String(),
		"storeId", d.StoreID().String(),
		"total", d.Total().StringFixed(2))
	h.publisher.Publish(ctx, delivery.NewCreatedEvent(d))

	return d, nil
}

func (h *CreateDeliveryCommandHandler) resolveStore(
	ctx context.Context,
	uow LedgerUoW,
	cmd CreateDeliveryCommand,
	v *vendor.Vendor,
) (*store.Store, error) {
	if id := cmd.StoreID(); id != nil {
		return uow.StoreRepository().Get(ctx, *id)
	}

	stores, err := uow.StoreRepository().GetAllActive(ctx)
	if err != nil {
		return nil, err
	}

	return h.matcher.SelectStore(v, cmd.ProductIDs(), stores)
}
