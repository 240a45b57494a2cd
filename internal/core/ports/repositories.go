// Package ports defines the contracts between the fulfillment core and its
// infrastructure: repositories, the unit of work and event publishing.
package ports

import (
	"context"

	"fulfillment/internal/core/domain/model/delivery"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/store"
	"fulfillment/internal/core/domain/model/vendor"

	"github.com/shopspring/decimal"
)

// VendorRepository persists vendors.
type VendorRepository interface {
	Add(ctx context.Context, v *vendor.Vendor) error

	// Get returns errs.ErrObjectNotFound when the vendor does not exist.
	Get(ctx context.Context, id kernel.UUID) (*vendor.Vendor, error)
}

// StoreRepository persists stores and their stock.
type StoreRepository interface {
	Add(ctx context.Context, s *store.Store) error
	Update(ctx context.Context, s *store.Store) error

	// Get returns errs.ErrObjectNotFound when the store does not exist.
	Get(ctx context.Context, id kernel.UUID) (*store.Store, error)

	// GetAllActive returns active stores ordered by id.
	GetAllActive(ctx context.Context) ([]*store.Store, error)
}

// ProductCatalog resolves products and their current unit prices.
type ProductCatalog interface {
	Add(ctx context.Context, p *vendor.Product) error

	// GetPrices returns the unit price of every known id. Unknown ids are
	// absent from the map; they are not an error.
	GetPrices(ctx context.Context, ids []kernel.UUID) (map[kernel.UUID]decimal.Decimal, error)

	// GetByVendor lists the products a vendor sells, ordered by name.
	GetByVendor(ctx context.Context, vendorID kernel.UUID) ([]*vendor.Product, error)
}

// DeliveryRepository persists the Delivery aggregate.
//
// Example:
//
//	uow := factory.Create()
//	if err := uow.Begin(ctx); err != nil {
//	    return err
//	}
//	defer func() { _ = uow.Rollback(ctx) }()
//
//	d, err := uow.DeliveryRepository().GetForUpdate(ctx, id)
//	...
//	return uow.Commit(ctx)
type DeliveryRepository interface {
	// Add writes the delivery header and its line items.
	Add(ctx context.Context, d *delivery.Delivery) error

	// Update writes the mutable header fields: status, timestamps, courier,
	// current position and notes. Line items and history are not touched.
	Update(ctx context.Context, d *delivery.Delivery) error

	// Get loads the delivery with its line items. errs.ErrObjectNotFound if absent.
	Get(ctx context.Context, id kernel.UUID) (*delivery.Delivery, error)

	// GetForUpdate is Get with a row lock held until the transaction ends.
	GetForUpdate(ctx context.Context, id kernel.UUID) (*delivery.Delivery, error)

	// AppendLocation adds one sample to the delivery history.
	AppendLocation(ctx context.Context, deliveryID kernel.UUID, sample delivery.LocationSample) error
}

// DeliveryEventPublisher announces committed delivery changes. Implementations
// must not block on slow consumers and must not fail the caller because of them.
type DeliveryEventPublisher interface {
	Publish(ctx context.Context, event delivery.Event)
}
