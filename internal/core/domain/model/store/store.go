package store

import (
	"errors"
	"fmt"
	"strings"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var ErrStoreIsNotConstructed = errors.New("Store must be created via NewStore or RestoreStore")

// StockItem is the quantity of one product held by a store. Quantities are
// informational; matching does not reserve or check them.
type StockItem struct {
	ProductID kernel.UUID
	Quantity  int
}

// Store is a fulfillment location. Only active stores take part in matching.
type Store struct {
	id       kernel.UUID
	name     string
	address  string
	location kernel.GeoPoint
	active   bool
	stock    []StockItem

	guard guard.ConstructorGuard
}

// NewStore builds an active store with empty stock.
func NewStore(id kernel.UUID, name, address string, location kernel.GeoPoint) (*Store, error) {
	return RestoreStore(id, name, address, location, true, nil)
}

// RestoreStore rebuilds a Store loaded from storage.
func RestoreStore(
	id kernel.UUID,
	name, address string,
	location kernel.GeoPoint,
	active bool,
	stock []StockItem,
) (*Store, error) {
	s := &Store{
		address: address,
		active:  active,
		guard:   guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		s.setID(id),
		s.setName(name),
		s.setLocation(location),
		s.setStock(stock),
	); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Store) Validate() error {
	if s == nil {
		return ErrStoreIsNotConstructed
	}
	return s.guard.Validate(ErrStoreIsNotConstructed)
}

func (s *Store) ID() kernel.UUID {
	return s.id
}

func (s *Store) Name() string {
	return s.name
}

func (s *Store) Address() string {
	return s.address
}

func (s *Store) Location() kernel.GeoPoint {
	return s.location
}

func (s *Store) IsActive() bool {
	return s.active
}

// Stock returns a copy of the store inventory.
func (s *Store) Stock() []StockItem {
	out := make([]StockItem, len(s.stock))
	copy(out, s.stock)
	return out
}

// QuantityOf returns the quantity on hand for productID, zero if not stocked.
func (s *Store) QuantityOf(productID kernel.UUID) int {
	for _, item := range s.stock {
		if item.ProductID.IsEqual(productID) {
			return item.Quantity
		}
	}
	return 0
}

func (s *Store) Activate() {
	s.active = true
}

func (s *Store) Deactivate() {
	s.active = false
}

// DistanceTo returns the great-circle distance in kilometres from the store to p.
func (s *Store) DistanceTo(p kernel.GeoPoint) (float64, error) {
	return s.location.DistanceTo(p)
}

func (s *Store) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	s.id = id
	return nil
}

func (s *Store) setName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errs.NewValueIsRequiredError("store name")
	}
	s.name = name
	return nil
}

func (s *Store) setLocation(location kernel.GeoPoint) error {
	if err := location.Validate(); err != nil {
		return err
	}
	s.location = location
	return nil
}

func (s *Store) setStock(stock []StockItem) error {
	items := make([]StockItem, 0, len(stock))
	for _, item := range stock {
		if err := item.ProductID.Validate(); err != nil {
			return err
		}
		if item.Quantity < 0 {
			return errs.NewValueIsInvalidErrorWithCause("quantity", fmt.Errorf("%d is negative", item.Quantity))
		}
		items = append(items, item)
	}
	s.stock = items
	return nil
}
