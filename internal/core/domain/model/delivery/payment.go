package delivery

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment is written by the payment workflow and only carried by the ledger.
type Payment struct {
	PaidAt *time.Time
	Method string
	Amount decimal.Decimal
}

// IsZero reports whether no payment data has been recorded.
func (p Payment) IsZero() bool {
	return p.PaidAt == nil && p.Method == "" && p.Amount.IsZero()
}
