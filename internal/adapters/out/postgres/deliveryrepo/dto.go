// Package deliveryrepo persists the Delivery aggregate with GORM: the header
// row, its line items and its append-only location history.
package deliveryrepo

import (
	"time"

	"fulfillment/internal/adapters/out/postgres/productrepo"
	"fulfillment/internal/adapters/out/postgres/storerepo"
	"fulfillment/internal/adapters/out/postgres/vendorrepo"
	"fulfillment/internal/core/domain/model/delivery"
	"fulfillment/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DeliveryDTO is the deliveries table row. Vendors and stores referenced by a
// delivery cannot be deleted; deleting a delivery removes its line items and
// history.
type DeliveryDTO struct {
	ID       uuid.UUID       `gorm:"type:uuid;primaryKey"`
	VendorID uuid.UUID       `gorm:"type:uuid;not null;index"`
	StoreID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	Total    decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Status   int             `gorm:"not null;index"`

	CreatedAt   time.Time `gorm:"not null;index"`
	AssignedAt  *time.Time
	DeliveredAt *time.Time

	PaymentDate   *time.Time
	PaymentMethod string              `gorm:"not null;default:''"`
	PaidAmount    decimal.NullDecimal `gorm:"type:numeric(12,2)"`

	DriverID  string `gorm:"not null;default:''"`
	TrackerID string `gorm:"not null;default:'';index"`

	OriginLat          float64 `gorm:"not null"`
	OriginLon          float64 `gorm:"not null"`
	DestinationLat     float64 `gorm:"not null"`
	DestinationLon     float64 `gorm:"not null"`
	CurrentLat         *float64
	CurrentLon         *float64
	LastLocationUpdate *time.Time
	Notes              string `gorm:"type:text;not null;default:''"`
	Version            int64  `gorm:"not null;default:1"`

	Vendor    *vendorrepo.VendorDTO `gorm:"foreignKey:VendorID;constraint:OnDelete:RESTRICT"`
	Store     *storerepo.StoreDTO   `gorm:"foreignKey:StoreID;constraint:OnDelete:RESTRICT"`
	LineItems []DeliveryProductDTO  `gorm:"foreignKey:DeliveryID;constraint:OnDelete:CASCADE"`
	History   []LocationHistoryDTO  `gorm:"foreignKey:DeliveryID;constraint:OnDelete:CASCADE"`
}

func (DeliveryDTO) TableName() string {
	return "deliveries"
}

// DeliveryProductDTO is a line item; ID keeps insertion order.
type DeliveryProductDTO struct {
	ID         uint64          `gorm:"primaryKey;autoIncrement"`
	DeliveryID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity   int             `gorm:"not null"`
	UnitPrice  decimal.Decimal `gorm:"type:numeric(12,2);not null"`

	Product *productrepo.ProductDTO `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT"`
}

func (DeliveryProductDTO) TableName() string {
	return "delivery_products"
}

// LocationHistoryDTO is one GPS sample. Rows are only ever inserted.
type LocationHistoryDTO struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	DeliveryID uuid.UUID `gorm:"type:uuid;not null;index:idx_history_delivery_time,priority:1"`
	Lat        float64   `gorm:"not null"`
	Lon        float64   `gorm:"not null"`
	RecordedAt time.Time `gorm:"not null;index:idx_history_delivery_time,priority:2"`
	Speed      *float64
	Note       *string
}

func (LocationHistoryDTO) TableName() string {
	return "delivery_location_history"
}

func fromDomain(d *delivery.Delivery) DeliveryDTO {
	dto := DeliveryDTO{
		ID:                 d.ID().Bytes(),
		VendorID:           d.VendorID().Bytes(),
		StoreID:            d.StoreID().Bytes(),
		Total:              d.Total(),
		Status:             int(d.Status()),
		CreatedAt:          d.CreatedAt(),
		AssignedAt:         d.AssignedAt(),
		DeliveredAt:        d.DeliveredAt(),
		PaymentDate:        d.Payment().PaidAt,
		PaymentMethod:      d.Payment().Method,
		DriverID:           d.DriverID(),
		TrackerID:          d.TrackerID(),
		OriginLat:          d.Origin().Lat(),
		OriginLon:          d.Origin().Lon(),
		DestinationLat:     d.Destination().Lat(),
		DestinationLon:     d.Destination().Lon(),
		LastLocationUpdate: d.LastLocationUpdate(),
		Notes:              d.Notes(),
		Version:            d.Version(),
	}
	if !d.Payment().Amount.IsZero() {
		dto.PaidAmount = decimal.NewNullDecimal(d.Payment().Amount)
	}
	if cur := d.CurrentLocation(); cur != nil {
		lat, lon := cur.Lat(), cur.Lon()
		dto.CurrentLat = &lat
		dto.CurrentLon = &lon
	}

	for _, item := range d.LineItems() {
		dto.LineItems = append(dto.LineItems, DeliveryProductDTO{
			DeliveryID: dto.ID,
			ProductID:  item.ProductID().Bytes(),
			Quantity:   item.Quantity(),
			UnitPrice:  item.UnitPrice(),
		})
	}

	return dto
}

func sampleFromDomain(deliveryID kernel.UUID, s delivery.LocationSample) LocationHistoryDTO {
	return LocationHistoryDTO{
		DeliveryID: deliveryID.Bytes(),
		Lat:        s.Point().Lat(),
		Lon:        s.Point().Lon(),
		RecordedAt: s.RecordedAt(),
		Speed:      s.Speed(),
		Note:       s.Note(),
	}
}

func toDomain(dto DeliveryDTO) (*delivery.Delivery, error) {
	ids, err := parseIDs(dto.ID, dto.VendorID, dto.StoreID)
	if err != nil {
		return nil, err
	}

	origin, err := kernel.NewGeoPoint(dto.OriginLat, dto.OriginLon)
	if err != nil {
		return nil, err
	}
	destination, err := kernel.NewGeoPoint(dto.DestinationLat, dto.DestinationLon)
	if err != nil {
		return nil, err
	}

	var current *kernel.GeoPoint
	if dto.CurrentLat != nil && dto.CurrentLon != nil {
		p, pointErr := kernel.NewGeoPoint(*dto.CurrentLat, *dto.CurrentLon)
		if pointErr != nil {
			return nil, pointErr
		}
		current = &p
	}

	items := make([]delivery.LineItem, 0, len(dto.LineItems))
	for _, row := range dto.LineItems {
		productID, idErr := kernel.UUIDFromBytes(row.ProductID[:])
		if idErr != nil {
			return nil, idErr
		}
		item, itemErr := delivery.NewLineItem(productID, row.Quantity, row.UnitPrice)
		if itemErr != nil {
			return nil, itemErr
		}
		items = append(items, item)
	}

	history := make([]delivery.LocationSample, 0, len(dto.History))
	for _, row := range dto.History {
		p, pointErr := kernel.NewGeoPoint(row.Lat, row.Lon)
		if pointErr != nil {
			return nil, pointErr
		}
		sample, sampleErr := delivery.NewLocationSample(p, row.RecordedAt, row.Speed, row.Note, row.RecordedAt)
		if sampleErr != nil {
			return nil, sampleErr
		}
		history = append(history, sample)
	}

	payment := delivery.Payment{
		PaidAt: dto.PaymentDate,
		Method: dto.PaymentMethod,
	}
	if dto.PaidAmount.Valid {
		payment.Amount = dto.PaidAmount.Decimal
	}

	return delivery.RestoreDelivery(delivery.Snapshot{
		ID:                 ids[0],
		VendorID:           ids[1],
		StoreID:            ids[2],
		Total:              dto.Total,
		LineItems:          items,
		Status:             delivery.Status(dto.Status),
		CreatedAt:          dto.CreatedAt.UTC(),
		AssignedAt:         utc(dto.AssignedAt),
		DeliveredAt:        utc(dto.DeliveredAt),
		Payment:            payment,
		DriverID:           dto.DriverID,
		TrackerID:          dto.TrackerID,
		Origin:             origin,
		Destination:        destination,
		Current:            current,
		LastLocationUpdate: utc(dto.LastLocationUpdate),
		Notes:              dto.Notes,
		History:            history,
		Version:            dto.Version,
	})
}

func parseIDs(raw ...uuid.UUID) ([]kernel.UUID, error) {
	ids := make([]kernel.UUID, 0, len(raw))
	for _, r := range raw {
		id, err := kernel.UUIDFromBytes(r[:])
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
