package queries

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type GetDeliveryQueryHandler struct {
	db *gorm.DB
}

func NewGetDeliveryQueryHandler(db *gorm.DB) GetDeliveryQueryHandler {
	return GetDeliveryQueryHandler{db: db}
}

// Handle returns ErrObjectNotFound when the delivery does not exist. Line
// items come back in insertion order, history by recorded time and then by
// insertion.
func (h GetDeliveryQueryHandler) Handle(ctx context.Context, query GetDeliveryQuery) (DeliveryDetails, error) {
	if err := query.Validate(); err != nil {
		return DeliveryDetails{}, err
	}

	db := h.db.WithContext(ctx)
	id := query.DeliveryID().Bytes()

	details, err := h.header(db, id)
	if errors.Is(err, sql.ErrNoRows) {
		return DeliveryDetails{}, errs.NewObjectNotFoundError("deliveryID", query.DeliveryID())
	}
	if err != nil {
		return DeliveryDetails{}, err
	}

	if details.Items, err = h.items(db, id); err != nil {
		return DeliveryDetails{}, err
	}
	if details.History, err = h.history(db, id); err != nil {
		return DeliveryDetails{}, err
	}

	return details, nil
}

func (h GetDeliveryQueryHandler) header(db *gorm.DB, id uuid.UUID) (DeliveryDetails, error) {
	var (
		row           summaryRow
		paymentDate   *time.Time
		paymentMethod string
		paidAmount    decimal.NullDecimal
		notes         string
		vendorName    string
		vendorLat     float64
		vendorLon     float64
		storeName     string
		storeAddress  string
		storeLat      float64
		storeLon      float64
		storeActive   bool
	)

	err := db.Raw(`
		SELECT `+summaryColumns+`,
			d.payment_date,
			d.payment_method,
			d.paid_amount,
			d.notes,
			v.name,
			v.lat,
			v.lon,
			s.name,
			s.address,
			s.lat,
			s.lon,
			s.active
		FROM deliveries d
		JOIN vendors v ON v.id = d.vendor_id
		JOIN stores s ON s.id = d.store_id
		WHERE d.id = ?
	`, id).Row().Scan(row.targets(
		&paymentDate, &paymentMethod, &paidAmount, &notes,
		&vendorName, &vendorLat, &vendorLon,
		&storeName, &storeAddress, &storeLat, &storeLon, &storeActive,
	)...)
	if err != nil {
		return DeliveryDetails{}, err
	}

	summary, err := row.toSummary()
	if err != nil {
		return DeliveryDetails{}, err
	}
	vendorLoc, err := kernel.NewGeoPoint(vendorLat, vendorLon)
	if err != nil {
		return DeliveryDetails{}, err
	}
	storeLoc, err := kernel.NewGeoPoint(storeLat, storeLon)
	if err != nil {
		return DeliveryDetails{}, err
	}

	details := DeliveryDetails{
		DeliverySummary: summary,
		Payment: PaymentView{
			PaidAt: utc(paymentDate),
			Method: paymentMethod,
		},
		Notes:  notes,
		Vendor: VendorView{ID: summary.VendorID, Name: vendorName, Location: vendorLoc},
		Store: StoreView{
			ID:       summary.StoreID,
			Name:     storeName,
			Address:  storeAddress,
			Location: storeLoc,
			Active:   storeActive,
		},
	}
	if paidAmount.Valid {
		amount := paidAmount.Decimal
		details.Payment.Amount = &amount
	}

	return details, nil
}

func (h GetDeliveryQueryHandler) items(db *gorm.DB, id uuid.UUID) ([]LineItemView, error) {
	rows, err := db.Raw(`
		SELECT
			dp.product_id,
			p.name,
			p.category,
			p.weight,
			dp.quantity,
			dp.unit_price
		FROM delivery_products dp
		JOIN products p ON p.id = dp.product_id
		WHERE dp.delivery_id = ?
		ORDER BY dp.id
	`, id).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]LineItemView, 0)
	for rows.Next() {
		var item LineItemView
		var productID uuid.UUID

		if err = rows.Scan(
			&productID,
			&item.Name,
			&item.Category,
			&item.Weight,
			&item.Quantity,
			&item.UnitPrice,
		); err != nil {
			return nil, err
		}

		item.ProductID, err = kernel.UUIDFromBytes(productID[:])
		if err != nil {
			return nil, err
		}
		item.Subtotal = item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))).Round(2)
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

func (h GetDeliveryQueryHandler) history(db *gorm.DB, id uuid.UUID) ([]LocationView, error) {
	rows, err := db.Raw(`
		SELECT
			lat,
			lon,
			recorded_at,
			speed,
			note
		FROM delivery_location_history
		WHERE delivery_id = ?
		ORDER BY recorded_at, id
	`, id).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := make([]LocationView, 0)
	for rows.Next() {
		var sample LocationView
		var lat, lon float64

		if err = rows.Scan(&lat, &lon, &sample.RecordedAt, &sample.Speed, &sample.Note); err != nil {
			return nil, err
		}

		sample.Location, err = kernel.NewGeoPoint(lat, lon)
		if err != nil {
			return nil, err
		}
		sample.RecordedAt = sample.RecordedAt.UTC()
		history = append(history, sample)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return history, nil
}
