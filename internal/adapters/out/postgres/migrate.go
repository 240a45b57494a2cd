package postgres

import (
	"fulfillment/internal/adapters/out/postgres/deliveryrepo"
	"fulfillment/internal/adapters/out/postgres/productrepo"
	"fulfillment/internal/adapters/out/postgres/storerepo"
	"fulfillment/internal/adapters/out/postgres/vendorrepo"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Models lists every table in dependency order.
func Models() []any {
	return []any{
		&vendorrepo.VendorDTO{},
		&productrepo.ProductDTO{},
		&storerepo.StoreDTO{},
		&storerepo.StoreProductDTO{},
		&deliveryrepo.DeliveryDTO{},
		&deliveryrepo.DeliveryProductDTO{},
		&deliveryrepo.LocationHistoryDTO{},
	}
}

// Migrate creates or updates the schema, including foreign keys.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return errors.Wrap(err, "auto migrate")
	}
	return nil
}
