package delivery

import (
	"fmt"
	"strings"

	"fulfillment/internal/pkg/errs"
)

// Status is the lifecycle state of a delivery. The numeric values follow the
// declared order of the lifecycle and are persisted as-is.
type Status int

const (
	Unknown Status = iota
	PendingPayment
	Paid
	Assigned
	InTransit
	Delivered
	Cancelled
)

var statusNames = map[Status]string{
	PendingPayment: "PendingPayment",
	Paid:           "Paid",
	Assigned:       "Assigned",
	InTransit:      "InTransit",
	Delivered:      "Delivered",
	Cancelled:      "Cancelled",
}

// AllStatuses lists every valid status in lifecycle order.
func AllStatuses() []Status {
	return []Status{PendingPayment, Paid, Assigned, InTransit, Delivered, Cancelled}
}

// ParseStatus accepts a status name, case-insensitively.
func ParseStatus(s string) (Status, error) {
	for status, name := range statusNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%q is not a valid status", s))
}

func (s Status) Validate() error {
	if _, ok := statusNames[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "Unknown"
}

// IsTerminal reports whether s ends the lifecycle.
func (s Status) IsTerminal() bool {
	return s == Delivered || s == Cancelled
}

// IsActive reports whether a delivery in status s is still in progress.
func (s Status) IsActive() bool {
	return s.Validate() == nil && !s.IsTerminal()
}

// IsBackwardFrom reports whether moving from prev to s goes against the
// lifecycle: leaving a terminal status, or stepping back to an earlier one.
// Cancelling a non-terminal delivery is never backward.
func (s Status) IsBackwardFrom(prev Status) bool {
	switch {
	case s == prev:
		return false
	case prev.IsTerminal():
		return true
	case s == Cancelled:
		return false
	default:
		return s < prev
	}
}
