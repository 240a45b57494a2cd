package http

import (
	"time"

	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/core/domain/model/delivery"
	"fulfillment/internal/core/domain/model/kernel"

	"github.com/google/uuid"
)

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type NewDeliveryItem struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
}

type NewDelivery struct {
	VendorID uuid.UUID         `json:"vendorId"`
	StoreID  *uuid.UUID        `json:"storeId,omitempty"`
	Items    []NewDeliveryItem `json:"items"`
}

type StatusUpdate struct {
	Status string `json:"status"`
}

type StatusUpdated struct {
	Updated bool `json:"updated"`
}

type CourierAssignment struct {
	DriverID  string `json:"driverId"`
	TrackerID string `json:"trackerId"`
}

type NewLocation struct {
	Lat       *float64   `json:"lat"`
	Lon       *float64   `json:"lon"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	Speed     *float64   `json:"speed,omitempty"`
	Note      *string    `json:"note,omitempty"`
}

type NewNote struct {
	Text string `json:"text"`
}

type LocationSample struct {
	Location   Location  `json:"location"`
	RecordedAt time.Time `json:"recordedAt"`
	Speed      *float64  `json:"speed,omitempty"`
	Note       *string   `json:"note,omitempty"`
}

type DeliverySummary struct {
	ID                 uuid.UUID  `json:"id"`
	VendorID           uuid.UUID  `json:"vendorId"`
	StoreID            uuid.UUID  `json:"storeId"`
	Status             string     `json:"status"`
	Total              string     `json:"total"`
	CreatedAt          time.Time  `json:"createdAt"`
	AssignedAt         *time.Time `json:"assignedAt,omitempty"`
	DeliveredAt        *time.Time `json:"deliveredAt,omitempty"`
	DriverID           string     `json:"driverId,omitempty"`
	TrackerID          string     `json:"trackerId,omitempty"`
	Origin             Location   `json:"origin"`
	Destination        Location   `json:"destination"`
	CurrentLocation    *Location  `json:"currentLocation,omitempty"`
	LastLocationUpdate *time.Time `json:"lastLocationUpdate,omitempty"`
}

type Vendor struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Location Location  `json:"location"`
}

type Store struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Address  string    `json:"address"`
	Location Location  `json:"location"`
	Active   bool      `json:"active"`
}

type LineItem struct {
	ProductID uuid.UUID `json:"productId"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Weight    float64   `json:"weight"`
	Quantity  int       `json:"quantity"`
	UnitPrice string    `json:"unitPrice"`
	Subtotal  string    `json:"subtotal"`
}

type Payment struct {
	PaidAt *time.Time `json:"paidAt,omitempty"`
	Method string     `json:"method,omitempty"`
	Amount *string    `json:"amount,omitempty"`
}

type DeliveryDetails struct {
	DeliverySummary

	Notes   string           `json:"notes"`
	Payment Payment          `json:"payment"`
	Vendor  Vendor           `json:"vendor"`
	Store   Store            `json:"store"`
	Items   []LineItem       `json:"items"`
	History []LocationSample `json:"history"`
}

type StoreMatch struct {
	Store      Store   `json:"store"`
	DistanceKm float64 `json:"distanceKm"`
}

func toLocation(p kernel.GeoPoint) Location {
	return Location{Lat: p.Lat(), Lon: p.Lon()}
}

func toOptionalLocation(p *kernel.GeoPoint) *Location {
	if p == nil {
		return nil
	}
	l := toLocation(*p)
	return &l
}

func toStore(s queries.StoreView) Store {
	return Store{
		ID:       s.ID.Bytes(),
		Name:     s.Name,
		Address:  s.Address,
		Location: toLocation(s.Location),
		Active:   s.Active,
	}
}

func summaryFromDomain(d *delivery.Delivery) DeliverySummary {
	return DeliverySummary{
		ID:                 d.ID().Bytes(),
		VendorID:           d.VendorID().Bytes(),
		StoreID:            d.StoreID().Bytes(),
		Status:             d.Status().String(),
		Total:              d.Total().StringFixed(2),
		CreatedAt:          d.CreatedAt(),
		AssignedAt:         d.AssignedAt(),
		DeliveredAt:        d.DeliveredAt(),
		DriverID:           d.DriverID(),
		TrackerID:          d.TrackerID(),
		Origin:             toLocation(d.Origin()),
		Destination:        toLocation(d.Destination()),
		CurrentLocation:    toOptionalLocation(d.CurrentLocation()),
		LastLocationUpdate: d.LastLocationUpdate(),
	}
}

func summaryFromView(s queries.DeliverySummary) DeliverySummary {
	return DeliverySummary{
		ID:                 s.ID.Bytes(),
		VendorID:           s.VendorID.Bytes(),
		StoreID:            s.StoreID.Bytes(),
		Status:             s.Status.String(),
		Total:              s.Total.StringFixed(2),
		CreatedAt:          s.CreatedAt,
		AssignedAt:         s.AssignedAt,
		DeliveredAt:        s.DeliveredAt,
		DriverID:           s.DriverID,
		TrackerID:          s.TrackerID,
		Origin:             toLocation(s.Origin),
		Destination:        toLocation(s.Destination),
		CurrentLocation:    toOptionalLocation(s.CurrentLocation),
		LastLocationUpdate: s.LastLocationUpdate,
	}
}

func detailsFromView(d queries.DeliveryDetails) DeliveryDetails {
	out := DeliveryDetails{
		DeliverySummary: summaryFromView(d.DeliverySummary),
		Notes:           d.Notes,
		Payment: Payment{
			PaidAt: d.Payment.PaidAt,
			Method: d.Payment.Method,
		},
		Vendor: Vendor{
			ID:       d.Vendor.ID.Bytes(),
			Name:     d.Vendor.Name,
			Location: toLocation(d.Vendor.Location),
		},
		Store:   toStore(d.Store),
		Items:   make([]LineItem, 0, len(d.Items)),
		History: make([]LocationSample, 0, len(d.History)),
	}
	if d.Payment.Amount != nil {
		amount := d.Payment.Amount.StringFixed(2)
		out.Payment.Amount = &amount
	}
	for _, item := range d.Items {
		out.Items = append(out.Items, LineItem{
			ProductID: item.ProductID.Bytes(),
			Name:      item.Name,
			Category:  item.Category,
			Weight:    item.Weight,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice.StringFixed(2),
			Subtotal:  item.Subtotal.StringFixed(2),
		})
	}
	for _, sample := range d.History {
		out.History = append(out.History, LocationSample{
			Location:   toLocation(sample.Location),
			RecordedAt: sample.RecordedAt,
			Speed:      sample.Speed,
			Note:       sample.Note,
		})
	}
	return out
}

func sampleFromDomain(s delivery.LocationSample) LocationSample {
	return LocationSample{
		Location:   toLocation(s.Point()),
		RecordedAt: s.RecordedAt(),
		Speed:      s.Speed(),
		Note:       s.Note(),
	}
}
