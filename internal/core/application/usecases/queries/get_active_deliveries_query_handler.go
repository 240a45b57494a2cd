package queries

import (
	"context"

	"fulfillment/internal/core/domain/model/delivery"

	"gorm.io/gorm"
)

type GetActiveDeliveriesQueryHandler struct {
	db *gorm.DB
}

func NewGetActiveDeliveriesQueryHandler(db *gorm.DB) GetActiveDeliveriesQueryHandler {
	return GetActiveDeliveriesQueryHandler{db: db}
}

// Handle orders by creation time and then by id so that deliveries created
// in the same instant keep a stable order.
func (h GetActiveDeliveriesQueryHandler) Handle(
	ctx context.Context,
	query GetActiveDeliveriesQuery,
) ([]DeliverySummary, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT `+summaryColumns+`
		FROM deliveries d
		WHERE d.status NOT IN (?, ?)
		ORDER BY d.created_at, d.id
	`, int(delivery.Delivered), int(delivery.Cancelled)).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	deliveries := make([]DeliverySummary, 0)
	for rows.Next() {
		var row summaryRow
		if err = rows.Scan(row.targets()...); err != nil {
			return nil, err
		}

		summary, convErr := row.toSummary()
		if convErr != nil {
			return nil, convErr
		}
		deliveries = append(deliveries, summary)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return deliveries, nil
}
