// Package vendorrepo persists vendors with GORM.
package vendorrepo

import (
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/vendor"

	"github.com/google/uuid"
)

// VendorDTO is the vendors table row.
type VendorDTO struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name string    `gorm:"not null"`
	Lat  float64   `gorm:"not null"`
	Lon  float64   `gorm:"not null"`
}

func (VendorDTO) TableName() string {
	return "vendors"
}

func fromDomain(v *vendor.Vendor) VendorDTO {
	return VendorDTO{
		ID:   v.ID().Bytes(),
		Name: v.Name(),
		Lat:  v.Location().Lat(),
		Lon:  v.Location().Lon(),
	}
}

func toDomain(dto VendorDTO) (*vendor.Vendor, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	loc, err := kernel.NewGeoPoint(dto.Lat, dto.Lon)
	if err != nil {
		return nil, err
	}

	return vendor.RestoreVendor(id, dto.Name, loc)
}
