package queries

import (
	"context"
	"database/sql"
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/store"
	"fulfillment/internal/core/domain/model/vendor"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/pkg/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StoreMatch is the store chosen for a vendor and how far away it is.
type StoreMatch struct {
	Store      StoreView
	DistanceKm float64
}

type SelectStoreQueryHandler struct {
	db      *gorm.DB
	matcher services.StoreMatcher
}

func NewSelectStoreQueryHandler(db *gorm.DB, matcher services.StoreMatcher) SelectStoreQueryHandler {
	return SelectStoreQueryHandler{db: db, matcher: matcher}
}

// Handle fails with ErrObjectNotFound for an unknown vendor and with
// ErrServiceUnavailable when no store is active.
func (h SelectStoreQueryHandler) Handle(ctx context.Context, query SelectStoreQuery) (StoreMatch, error) {
	if err := query.Validate(); err != nil {
		return StoreMatch{}, err
	}

	db := h.db.WithContext(ctx)

	v, err := h.vendor(db, query.VendorID())
	if err != nil {
		return StoreMatch{}, err
	}

	stores, err := h.activeStores(db)
	if err != nil {
		return StoreMatch{}, err
	}

	chosen, err := h.matcher.SelectStore(v, query.ProductIDs(), stores)
	if err != nil {
		return StoreMatch{}, err
	}

	distance, err := chosen.DistanceTo(v.Location())
	if err != nil {
		return StoreMatch{}, err
	}

	return StoreMatch{
		Store: StoreView{
			ID:       chosen.ID(),
			Name:     chosen.Name(),
			Address:  chosen.Address(),
			Location: chosen.Location(),
			Active:   chosen.IsActive(),
		},
		DistanceKm: distance,
	}, nil
}

func (h SelectStoreQueryHandler) vendor(db *gorm.DB, id kernel.UUID) (*vendor.Vendor, error) {
	var name string
	var lat, lon float64

	err := db.Raw(`SELECT name, lat, lon FROM vendors WHERE id = ?`, id.Bytes()).Row().Scan(&name, &lat, &lon)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NewObjectNotFoundError("vendorID", id)
	}
	if err != nil {
		return nil, err
	}

	loc, err := kernel.NewGeoPoint(lat, lon)
	if err != nil {
		return nil, err
	}
	return vendor.RestoreVendor(id, name, loc)
}

func (h SelectStoreQueryHandler) activeStores(db *gorm.DB) ([]*store.Store, error) {
	rows, err := db.Raw(`
		SELECT
			id,
			name,
			address,
			lat,
			lon
		FROM stores
		WHERE active
		ORDER BY id
	`).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stores := make([]*store.Store, 0)
	for rows.Next() {
		var id uuid.UUID
		var name, address string
		var lat, lon float64

		if err = rows.Scan(&id, &name, &address, &lat, &lon); err != nil {
			return nil, err
		}

		storeID, idErr := kernel.UUIDFromBytes(id[:])
		if idErr != nil {
			return nil, idErr
		}
		loc, locErr := kernel.NewGeoPoint(lat, lon)
		if locErr != nil {
			return nil, locErr
		}
		s, storeErr := store.RestoreStore(storeID, name, address, loc, true, nil)
		if storeErr != nil {
			return nil, storeErr
		}
		stores = append(stores, s)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return stores, nil
}
