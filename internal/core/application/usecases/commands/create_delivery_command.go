package commands

import (
	"errors"
	"fmt"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var ErrCreateDeliveryCommandIsNotConstructed = errors.New(
	"CreateDeliveryCommand must be created via NewCreateDeliveryCommand constructor",
)

// RequestedItem is a product and the quantity asked for.
type RequestedItem struct {
	ProductID kernel.UUID
	Quantity  int
}

// CreateDeliveryCommand asks to open a delivery for a vendor. When storeID is
// nil the nearest active store is chosen.
//
//	cmd, err := NewCreateDeliveryCommand(kernel.NewUUID(), vendorID, nil, []RequestedItem{
//	    {ProductID: teaID, Quantity: 2},
//	})
type CreateDeliveryCommand struct { //nolint:recvcheck //using for validation
	deliveryID kernel.UUID
	vendorID   kernel.UUID
	storeID    *kernel.UUID
	items      []RequestedItem

	guard guard.ConstructorGuard
}

func NewCreateDeliveryCommand(
	deliveryID kernel.UUID,
	vendorID kernel.UUID,
	storeID *kernel.UUID,
	items []RequestedItem,
) (CreateDeliveryCommand, error) {
	cmd := CreateDeliveryCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setDeliveryID(deliveryID),
		cmd.setVendorID(vendorID),
		cmd.setStoreID(storeID),
		cmd.setItems(items),
	); err != nil {
		return CreateDeliveryCommand{}, err
	}

	return cmd, nil
}

func (c CreateDeliveryCommand) Validate() error {
	return c.guard.Validate(ErrCreateDeliveryCommandIsNotConstructed)
}

func (c CreateDeliveryCommand) DeliveryID() kernel.UUID {
	return c.deliveryID
}

func (c CreateDeliveryCommand) VendorID() kernel.UUID {
	return c.vendorID
}

// StoreID is the explicitly requested store, nil to let the matcher decide.
func (c CreateDeliveryCommand) StoreID() *kernel.UUID {
	if c.storeID == nil {
		return nil
	}
	id := *c.storeID
	return &id
}

func (c CreateDeliveryCommand) Items() []RequestedItem {
	return append([]RequestedItem(nil), c.items...)
}

// ProductIDs lists the requested products in request order.
func (c CreateDeliveryCommand) ProductIDs() []kernel.UUID {
	ids := make([]kernel.UUID, 0, len(c.items))
	for _, item := range c.items {
		ids = append(ids, item.ProductID)
	}
	return ids
}

func (c *CreateDeliveryCommand) setDeliveryID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	c.deliveryID = id
	return nil
}

func (c *CreateDeliveryCommand) setVendorID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	c.vendorID = id
	return nil
}

func (c *CreateDeliveryCommand) setStoreID(id *kernel.UUID) error {
	if id == nil {
		return nil
	}
	if err := id.Validate(); err != nil {
		return err
	}
	v := *id
	c.storeID = &v
	return nil
}

func (c *CreateDeliveryCommand) setItems(items []RequestedItem) error {
	for i, item := range items {
		if err := item.ProductID.Validate(); err != nil {
			return err
		}
		if item.Quantity <= 0 {
			return errs.NewValueIsInvalidErrorWithCause(
				fmt.Sprintf("items[%d].quantity", i),
				fmt.Errorf("%d is not greater than 0", item.Quantity),
			)
		}
	}
	c.items = append([]RequestedItem(nil), items...)
	return nil
}
