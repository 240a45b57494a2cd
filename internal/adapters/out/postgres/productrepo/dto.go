// Package productrepo is the GORM-backed product catalog.
package productrepo

import (
	"fulfillment/internal/adapters/out/postgres/vendorrepo"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/vendor"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductDTO is the products table row. Deleting a vendor that still has
// products is rejected.
type ProductDTO struct {
	ID       uuid.UUID       `gorm:"type:uuid;primaryKey"`
	VendorID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name     string          `gorm:"not null"`
	Weight   float64         `gorm:"not null;default:0"`
	Category string          `gorm:"not null;default:''"`
	Price    decimal.Decimal `gorm:"type:numeric(12,2);not null"`

	Vendor *vendorrepo.VendorDTO `gorm:"foreignKey:VendorID;constraint:OnDelete:RESTRICT"`
}

func (ProductDTO) TableName() string {
	return "products"
}

func fromDomain(p *vendor.Product) ProductDTO {
	return ProductDTO{
		ID:       p.ID().Bytes(),
		VendorID: p.VendorID().Bytes(),
		Name:     p.Name(),
		Weight:   p.Weight(),
		Category: p.Category(),
		Price:    p.Price(),
	}
}

func toDomain(dto ProductDTO) (*vendor.Product, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	vendorID, err := kernel.UUIDFromBytes(dto.VendorID[:])
	if err != nil {
		return nil, err
	}

	return vendor.RestoreProduct(id, vendorID, dto.Name, dto.Weight, dto.Category, dto.Price)
}
