package storerepo

import (
	"context"

	"fulfillment/internal/adapters/out/postgres/pgerr"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/store"
	"fulfillment/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStoreRepository implements ports.StoreRepository.
type GormStoreRepository struct {
	db *gorm.DB
}

func NewGormStoreRepository(db *gorm.DB) *GormStoreRepository {
	return &GormStoreRepository{db: db}
}

// Add stores the store row and its stock. Stock referencing an unknown
// product is reported as not found.
func (r *GormStoreRepository) Add(ctx context.Context, s *store.Store) error {
	if err := s.Validate(); err != nil {
		return err
	}

	dto := fromDomain(s)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&dto).Error; err != nil {
			return err
		}
		if len(dto.Stock) == 0 {
			return nil
		}
		return tx.Omit(clause.Associations).Create(&dto.Stock).Error
	})
	if pgerr.IsForeignKeyViolation(err) {
		return errs.NewObjectNotFoundErrorWithCause("product", pgerr.ConstraintName(err), err)
	}
	return err
}

// Update rewrites the store row and replaces its stock.
func (r *GormStoreRepository) Update(ctx context.Context, s *store.Store) error {
	if err := s.Validate(); err != nil {
		return err
	}

	dto := fromDomain(s)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&StoreDTO{}).
			Where("id = ?", dto.ID).
			Select("name", "address", "lat", "lon", "active").
			Updates(&dto)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errs.NewObjectNotFoundError("store", s.ID().String())
		}

		if err := tx.Where("store_id = ?", dto.ID).Delete(&StoreProductDTO{}).Error; err != nil {
			return err
		}
		if len(dto.Stock) == 0 {
			return nil
		}
		return tx.Omit(clause.Associations).Create(&dto.Stock).Error
	})
	if pgerr.IsForeignKeyViolation(err) {
		return errs.NewObjectNotFoundErrorWithCause("product", pgerr.ConstraintName(err), err)
	}
	return err
}

func (r *GormStoreRepository) Get(ctx context.Context, id kernel.UUID) (*store.Store, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto StoreDTO
	if err := r.db.WithContext(ctx).
		Preload("Stock", func(db *gorm.DB) *gorm.DB { return db.Order("product_id") }).
		First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if pgerr.IsNotFound(err) {
			return nil, errs.NewObjectNotFoundError("store", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

// GetAllActive returns active stores ordered by id, so callers scanning them
// meet the lowest id first.
func (r *GormStoreRepository) GetAllActive(ctx context.Context) ([]*store.Store, error) {
	var dtos []StoreDTO
	if err := r.db.WithContext(ctx).
		Preload("Stock", func(db *gorm.DB) *gorm.DB { return db.Order("product_id") }).
		Where("active = ?", true).
		Order("id").
		Find(&dtos).Error; err != nil {
		return nil, err
	}

	stores := make([]*store.Store, 0, len(dtos))
	for _, dto := range dtos {
		s, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		stores = append(stores, s)
	}

	return stores, nil
}
