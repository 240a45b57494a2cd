// Package storerepo persists stores and their stock with GORM.
package storerepo

import (
	"fulfillment/internal/adapters/out/postgres/productrepo"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/store"

	"github.com/google/uuid"
)

// StoreDTO is the stores table row.
type StoreDTO struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name    string    `gorm:"not null"`
	Address string    `gorm:"not null;default:''"`
	Lat     float64   `gorm:"not null"`
	Lon     float64   `gorm:"not null"`
	Active  bool      `gorm:"not null;default:true;index"`

	Stock []StoreProductDTO `gorm:"foreignKey:StoreID;constraint:OnDelete:CASCADE"`
}

func (StoreDTO) TableName() string {
	return "stores"
}

// StoreProductDTO is the quantity of a product held by a store.
type StoreProductDTO struct {
	StoreID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProductID uuid.UUID `gorm:"type:uuid;primaryKey"`
	Quantity  int       `gorm:"not null;default:0"`

	Product *productrepo.ProductDTO `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT"`
}

func (StoreProductDTO) TableName() string {
	return "store_products"
}

func fromDomain(s *store.Store) StoreDTO {
	stock := make([]StoreProductDTO, 0, len(s.Stock()))
	for _, item := range s.Stock() {
		stock = append(stock, StoreProductDTO{
			StoreID:   s.ID().Bytes(),
			ProductID: item.ProductID.Bytes(),
			Quantity:  item.Quantity,
		})
	}

	return StoreDTO{
		ID:      s.ID().Bytes(),
		Name:    s.Name(),
		Address: s.Address(),
		Lat:     s.Location().Lat(),
		Lon:     s.Location().Lon(),
		Active:  s.IsActive(),
		Stock:   stock,
	}
}

func toDomain(dto StoreDTO) (*store.Store, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	loc, err := kernel.NewGeoPoint(dto.Lat, dto.Lon)
	if err != nil {
		return nil, err
	}

	stock := make([]store.StockItem, 0, len(dto.Stock))
	for _, row := range dto.Stock {
		productID, idErr := kernel.UUIDFromBytes(row.ProductID[:])
		if idErr != nil {
			return nil, idErr
		}
		stock = append(stock, store.StockItem{ProductID: productID, Quantity: row.Quantity})
	}

	return store.RestoreStore(id, dto.Name, dto.Address, loc, dto.Active, stock)
}
