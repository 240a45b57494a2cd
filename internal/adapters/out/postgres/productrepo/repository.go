package productrepo

import (
	"context"

	"fulfillment/internal/adapters/out/postgres/pgerr"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/vendor"
	"fulfillment/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProductCatalog implements ports.ProductCatalog.
type GormProductCatalog struct {
	db *gorm.DB
}

func NewGormProductCatalog(db *gorm.DB) *GormProductCatalog {
	return &GormProductCatalog{db: db}
}

// Add stores a product. An unknown vendor is reported as not found.
func (r *GormProductCatalog) Add(ctx context.Context, p *vendor.Product) error {
	if err := p.Validate(); err != nil {
		return err
	}

	dto := fromDomain(p)
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&dto).Error; err != nil {
		if pgerr.IsForeignKeyViolation(err) {
			return errs.NewObjectNotFoundErrorWithCause("vendor", p.VendorID().String(), err)
		}
		return err
	}
	return nil
}

// GetPrices returns the unit price of every known id; unknown ids are absent.
func (r *GormProductCatalog) GetPrices(
	ctx context.Context,
	ids []kernel.UUID,
) (map[kernel.UUID]decimal.Decimal, error) {
	prices := make(map[kernel.UUID]decimal.Decimal, len(ids))
	if len(ids) == 0 {
		return prices, nil
	}

	raw := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if err := id.Validate(); err != nil {
			return nil, err
		}
		raw = append(raw, id.Bytes())
	}

	var rows []ProductDTO
	if err := r.db.WithContext(ctx).
		Select("id", "price").
		Where("id IN ?", raw).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	for _, row := range rows {
		id, err := kernel.UUIDFromBytes(row.ID[:])
		if err != nil {
			return nil, err
		}
		prices[id] = row.Price
	}

	return prices, nil
}

func (r *GormProductCatalog) GetByVendor(ctx context.Context, vendorID kernel.UUID) ([]*vendor.Product, error) {
	if err := vendorID.Validate(); err != nil {
		return nil, err
	}

	var dtos []ProductDTO
	if err := r.db.WithContext(ctx).
		Where("vendor_id = ?", vendorID.Bytes()).
		Order("name, id").
		Find(&dtos).Error; err != nil {
		return nil, err
	}

	products := make([]*vendor.Product, 0, len(dtos))
	for _, dto := range dtos {
		p, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}

	return products, nil
}
