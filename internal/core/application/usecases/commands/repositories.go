// Package commands contains the write operations of the fulfillment engine.
// Every handler validates its command, runs inside one unit of work and
// publishes the resulting delivery event only after the commit succeeded.
package commands

import (
	"context"
	"time"

	"fulfillment/internal/core/ports"
)

// Unit of Work interfaces narrowed to what each handler touches.
type (
	// TxManager handles the transaction lifecycle.
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	VendorRepoFactory interface {
		VendorRepository() ports.VendorRepository
	}

	StoreRepoFactory interface {
		StoreRepository() ports.StoreRepository
	}

	CatalogFactory interface {
		ProductCatalog() ports.ProductCatalog
	}

	DeliveryRepoFactory interface {
		DeliveryRepository() ports.DeliveryRepository
	}

	// LedgerUoW spans everything delivery creation reads and writes.
	LedgerUoW interface {
		TxManager
		VendorRepoFactory
		StoreRepoFactory
		CatalogFactory
		DeliveryRepoFactory
	}

	LedgerUoWFactory interface {
		Create() LedgerUoW
	}

	// DeliveryUoW is used by handlers that change an existing delivery.
	DeliveryUoW interface {
		TxManager
		DeliveryRepoFactory
	}

	DeliveryUoWFactory interface {
		Create() DeliveryUoW
	}
)

// Clock returns the current time. Handlers take it so tests can pin time.
type Clock func() time.Time

// SystemClock is the wall clock in UTC.
func SystemClock() time.Time {
	return time.Now().UTC()
}
