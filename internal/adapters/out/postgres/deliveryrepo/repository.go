package deliveryrepo

import (
	"context"
	"fmt"

	"fulfillment/internal/adapters/out/postgres/pgerr"
	"fulfillment/internal/core/domain/model/delivery"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormDeliveryRepository implements ports.DeliveryRepository.
type GormDeliveryRepository struct {
	db *gorm.DB
}

func NewGormDeliveryRepository(db *gorm.DB) *GormDeliveryRepository {
	return &GormDeliveryRepository{db: db}
}

// Add inserts the header and line items. Both land or neither does: run it
// inside a unit of work, or it opens its own savepoint-backed transaction.
func (r *GormDeliveryRepository) Add(ctx context.Context, d *delivery.Delivery) error {
	if err := d.Validate(); err != nil {
		return err
	}

	dto := fromDomain(d)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&dto).Error; err != nil {
			return err
		}
		if len(dto.LineItems) == 0 {
			return nil
		}
		return tx.Omit(clause.Associations).Create(&dto.LineItems).Error
	})
	if pgerr.IsForeignKeyViolation(err) {
		return errs.NewObjectNotFoundErrorWithCause("delivery reference", pgerr.ConstraintName(err), err)
	}
	return err
}

// Update writes the header fields owned by the ledger and the tracker. The
// row is only written when the stored version is older than d's, so a copy
// that was not loaded under the row lock cannot overwrite a newer change.
func (r *GormDeliveryRepository) Update(ctx context.Context, d *delivery.Delivery) error {
	if err := d.Validate(); err != nil {
		return err
	}

	dto := fromDomain(d)
	result := r.db.WithContext(ctx).
		Model(&DeliveryDTO{}).
		Where("id = ? AND version < ?", dto.ID, dto.Version).
		Select(
			"status", "assigned_at", "delivered_at",
			"driver_id", "tracker_id",
			"current_lat", "current_lon", "last_location_update",
			"notes", "version",
		).
		Updates(&dto)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&DeliveryDTO{}).Where("id = ?", dto.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return errs.NewObjectNotFoundError("delivery", d.ID().String())
		}
		return errs.NewValueIsInvalidErrorWithCause(
			"delivery version",
			fmt.Errorf("delivery %s is already at version %d or later", d.ID(), d.Version()),
		)
	}

	return nil
}

func (r *GormDeliveryRepository) Get(ctx context.Context, id kernel.UUID) (*delivery.Delivery, error) {
	return r.get(ctx, r.db, id)
}

// GetForUpdate locks the delivery row with SELECT ... FOR UPDATE. Concurrent
// writers of the same delivery queue behind it until the transaction ends.
func (r *GormDeliveryRepository) GetForUpdate(ctx context.Context, id kernel.UUID) (*delivery.Delivery, error) {
	return r.get(ctx, r.db.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}), id)
}

func (r *GormDeliveryRepository) AppendLocation(
	ctx context.Context,
	deliveryID kernel.UUID,
	sample delivery.LocationSample,
) error {
	if err := sample.Validate(); err != nil {
		return err
	}

	row := sampleFromDomain(deliveryID, sample)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if pgerr.IsForeignKeyViolation(err) {
			return errs.NewObjectNotFoundErrorWithCause("delivery", deliveryID.String(), err)
		}
		return err
	}
	return nil
}

func (r *GormDeliveryRepository) get(ctx context.Context, db *gorm.DB, id kernel.UUID) (*delivery.Delivery, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto DeliveryDTO
	if err := db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if pgerr.IsNotFound(err) {
			return nil, errs.NewObjectNotFoundError("delivery", id.String())
		}
		return nil, err
	}

	if err := r.db.WithContext(ctx).
		Where("delivery_id = ?", dto.ID).
		Order("id").
		Find(&dto.LineItems).Error; err != nil {
		return nil, err
	}

	return toDomain(dto)
}
