package queries

import (
	"time"

	"fulfillment/internal/core/domain/model/delivery"
	"fulfillment/internal/core/domain/model/kernel"

	"github.com/shopspring/decimal"
)

type VendorView struct {
	ID       kernel.UUID
	Name     string
	Location kernel.GeoPoint
}

type StoreView struct {
	ID       kernel.UUID
	Name     string
	Address  string
	Location kernel.GeoPoint
	Active   bool
}

// LineItemView is a line item resolved to its product. UnitPrice is the
// price frozen at creation, not the current catalog price.
type LineItemView struct {
	ProductID kernel.UUID
	Name      string
	Category  string
	Weight    float64
	Quantity  int
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
}

type LocationView struct {
	Location   kernel.GeoPoint
	RecordedAt time.Time
	Speed      *float64
	Note       *string
}

type PaymentView struct {
	PaidAt *time.Time
	Method string
	Amount *decimal.Decimal
}

// DeliverySummary is a delivery header without its collections.
type DeliverySummary struct {
	ID                 kernel.UUID
	VendorID           kernel.UUID
	StoreID            kernel.UUID
	Status             delivery.Status
	Total              decimal.Decimal
	CreatedAt          time.Time
	AssignedAt         *time.Time
	DeliveredAt        *time.Time
	DriverID           string
	TrackerID          string
	Origin             kernel.GeoPoint
	Destination        kernel.GeoPoint
	CurrentLocation    *kernel.GeoPoint
	LastLocationUpdate *time.Time
}

// DeliveryDetails is the full read model of one delivery.
type DeliveryDetails struct {
	DeliverySummary

	Payment PaymentView
	Notes   string
	Vendor  VendorView
	Store   StoreView
	Items   []LineItemView
	History []LocationView
}
