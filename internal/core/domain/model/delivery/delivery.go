package delivery

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/store"
	"fulfillment/internal/core/domain/model/vendor"
	"fulfillment/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

var ErrDeliveryIsNotConstructed = errors.New("Delivery must be created via NewDelivery or RestoreDelivery")

// Delivery is the order aggregate tracked from creation to a terminal status.
//
// Invariants:
//   - vendor, store, origin, destination and total are fixed at creation
//   - assignedAt and deliveredAt are stamped at most once
//   - the current position always equals the last appended sample
//   - version starts at 1 and grows by one with every change
type Delivery struct {
	id       kernel.UUID
	vendorID kernel.UUID
	storeID  kernel.UUID

	total     decimal.Decimal
	lineItems []LineItem

	status      Status
	createdAt   time.Time
	assignedAt  *time.Time
	deliveredAt *time.Time

	payment   Payment
	driverID  string
	trackerID string

	origin             kernel.GeoPoint
	destination        kernel.GeoPoint
	current            *kernel.GeoPoint
	lastLocationUpdate *time.Time
	notes              string

	history []LocationSample

	version int64

	isConstructed bool
}

// NewDelivery creates a delivery in PendingPayment. The total is the sum of
// the line item subtotals and is not recomputed afterwards. Origin and
// destination are copied from the vendor and the store.
func NewDelivery(
	id kernel.UUID,
	v *vendor.Vendor,
	s *store.Store,
	items []LineItem,
	now time.Time,
) (*Delivery, error) {
	if err := errors.Join(id.Validate(), v.Validate(), s.Validate()); err != nil {
		return nil, err
	}

	d := &Delivery{
		id:            id,
		vendorID:      v.ID(),
		storeID:       s.ID(),
		status:        PendingPayment,
		createdAt:     now.UTC(),
		origin:        v.Location(),
		destination:   s.Location(),
		total:         decimal.Zero,
		version:       1,
		isConstructed: true,
	}

	if err := d.setLineItems(items); err != nil {
		return nil, err
	}
	for _, item := range d.lineItems {
		d.total = d.total.Add(item.Subtotal())
	}
	d.total = d.total.Round(2)

	return d, nil
}

// Snapshot carries the persisted state of a delivery for RestoreDelivery.
type Snapshot struct {
	ID                 kernel.UUID
	VendorID           kernel.UUID
	StoreID            kernel.UUID
	Total              decimal.Decimal
	LineItems          []LineItem
	Status             Status
	CreatedAt          time.Time
	AssignedAt         *time.Time
	DeliveredAt        *time.Time
	Payment            Payment
	DriverID           string
	TrackerID          string
	Origin             kernel.GeoPoint
	Destination        kernel.GeoPoint
	Current            *kernel.GeoPoint
	LastLocationUpdate *time.Time
	Notes              string
	History            []LocationSample
	Version            int64
}

// RestoreDelivery rebuilds a Delivery from storage without recomputing the total.
func RestoreDelivery(s Snapshot) (*Delivery, error) {
	if err := errors.Join(
		s.ID.Validate(),
		s.VendorID.Validate(),
		s.StoreID.Validate(),
		s.Status.Validate(),
		s.Origin.Validate(),
		s.Destination.Validate(),
	); err != nil {
		return nil, err
	}
	if s.Version < 1 {
		return nil, errs.NewValueIsInvalidError("version")
	}

	d := &Delivery{
		id:                 s.ID,
		vendorID:           s.VendorID,
		storeID:            s.StoreID,
		total:              s.Total.Round(2),
		status:             s.Status,
		createdAt:          s.CreatedAt,
		assignedAt:         copyTime(s.AssignedAt),
		deliveredAt:        copyTime(s.DeliveredAt),
		payment:            s.Payment,
		driverID:           s.DriverID,
		trackerID:          s.TrackerID,
		origin:             s.Origin,
		destination:        s.Destination,
		lastLocationUpdate: copyTime(s.LastLocationUpdate),
		notes:              s.Notes,
		version:            s.Version,
		isConstructed:      true,
	}
	if s.Current != nil {
		if err := s.Current.Validate(); err != nil {
			return nil, err
		}
		p := *s.Current
		d.current = &p
	}
	if err := d.setLineItems(s.LineItems); err != nil {
		return nil, err
	}
	for _, sample := range s.History {
		if err := sample.Validate(); err != nil {
			return nil, err
		}
	}
	d.history = append([]LocationSample(nil), s.History...)

	return d, nil
}

func (d *Delivery) Validate() error {
	if d == nil || !d.isConstructed {
		return ErrDeliveryIsNotConstructed
	}
	return nil
}

func (d *Delivery) IsEqual(other *Delivery) bool {
	return other != nil && d.id.IsEqual(other.id)
}

func (d *Delivery) ID() kernel.UUID {
	return d.id
}

func (d *Delivery) VendorID() kernel.UUID {
	return d.vendorID
}

func (d *Delivery) StoreID() kernel.UUID {
	return d.storeID
}

// Total is the frozen sum of line item subtotals.
func (d *Delivery) Total() decimal.Decimal {
	return d.total
}

func (d *Delivery) LineItems() []LineItem {
	return append([]LineItem(nil), d.lineItems...)
}

func (d *Delivery) Status() Status {
	return d.status
}

func (d *Delivery) CreatedAt() time.Time {
	return d.createdAt
}

func (d *Delivery) AssignedAt() *time.Time {
	return copyTime(d.assignedAt)
}

func (d *Delivery) DeliveredAt() *time.Time {
	return copyTime(d.deliveredAt)
}

func (d *Delivery) Payment() Payment {
	return d.payment
}

func (d *Delivery) DriverID() string {
	return d.driverID
}

func (d *Delivery) TrackerID() string {
	return d.trackerID
}

func (d *Delivery) Origin() kernel.GeoPoint {
	return d.origin
}

func (d *Delivery) Destination() kernel.GeoPoint {
	return d.destination
}

// CurrentLocation returns the last recorded position, nil before the first sample.
func (d *Delivery) CurrentLocation() *kernel.GeoPoint {
	if d.current == nil {
		return nil
	}
	p := *d.current
	return &p
}

func (d *Delivery) LastLocationUpdate() *time.Time {
	return copyTime(d.lastLocationUpdate)
}

func (d *Delivery) Notes() string {
	return d.notes
}

// Version counts the changes applied to the delivery. Writers hold the row
// lock while bumping it, so versions follow commit order.
func (d *Delivery) Version() int64 {
	return d.version
}

// History returns the samples known to this instance in append order.
// Repositories may load a delivery without its history.
func (d *Delivery) History() []LocationSample {
	return append([]LocationSample(nil), d.history...)
}

// SetStatus writes newStatus regardless of the current one and returns the
// previous status. assignedAt is stamped on the first move into Assigned and
// deliveredAt on the first move into Delivered; later moves keep them.
func (d *Delivery) SetStatus(newStatus Status, now time.Time) (Status, error) {
	if err := newStatus.Validate(); err != nil {
		return d.status, err
	}

	prev := d.status
	d.status = newStatus
	d.version++

	switch newStatus {
	case Assigned:
		if d.assignedAt == nil {
			t := now.UTC()
			d.assignedAt = &t
		}
	case Delivered:
		if d.deliveredAt == nil {
			t := now.UTC()
			d.deliveredAt = &t
		}
	case Unknown, PendingPayment, Paid, InTransit, Cancelled:
	}

	return prev, nil
}

// AssignCourier records the driver and GPS tracker and moves the delivery to
// Assigned. Repeating the call with the same identities is allowed; replacing
// an already assigned courier is not.
func (d *Delivery) AssignCourier(driverID, trackerID string, now time.Time) (Status, error) {
	driverID = strings.TrimSpace(driverID)
	trackerID = strings.TrimSpace(trackerID)

	var errList []error
	if driverID == "" {
		errList = append(errList, errs.NewValueIsRequiredError("driver id"))
	}
	if trackerID == "" {
		errList = append(errList, errs.NewValueIsRequiredError("tracker id"))
	}
	if err := errors.Join(errList...); err != nil {
		return d.status, err
	}

	if d.driverID != "" && (d.driverID != driverID || d.trackerID != trackerID) {
		return d.status, errs.NewValueIsInvalidErrorWithCause(
			"courier",
			fmt.Errorf("delivery %s already has driver %s", d.id, d.driverID),
		)
	}

	d.driverID = driverID
	d.trackerID = trackerID
	return d.SetStatus(Assigned, now)
}

// RecordLocation appends sample to the history and moves the current
// position snapshot to it. The snapshot follows append order, not
// RecordedAt: a backdated sample still becomes the current position.
func (d *Delivery) RecordLocation(sample LocationSample) error {
	if err := sample.Validate(); err != nil {
		return err
	}

	d.version++
	d.history = append(d.history, sample)
	p := sample.Point()
	d.current = &p
	t := sample.RecordedAt()
	d.lastLocationUpdate = &t
	return nil
}

// AppendNote adds a line to the free-text tracking notes.
func (d *Delivery) AppendNote(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return errs.NewValueIsRequiredError("note")
	}
	d.version++
	if d.notes == "" {
		d.notes = text
		return nil
	}
	d.notes = d.notes + "\n" + text
	return nil
}

func (d *Delivery) setLineItems(items []LineItem) error {
	out := make([]LineItem, 0, len(items))
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return err
		}
		out = append(out, item)
	}
	d.lineItems = out
	return nil
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
