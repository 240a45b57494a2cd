package services

import (
	"math"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/store"
	"fulfillment/internal/core/domain/model/vendor"
	"fulfillment/internal/pkg/errs"
)

// ErrNoActiveStore is returned when no store is active, so no delivery can be fulfilled.
var ErrNoActiveStore = errs.NewServiceUnavailableError("active store")

// StoreMatcher selects the nearest active store for a vendor.
//
// Selection rules:
//   - inactive stores are ignored
//   - the store with the smallest great-circle distance to the vendor wins
//   - equal distances go to the lowest store id, whatever the input order
//
// Requested products are part of the signature but do not filter stores:
// stock and capacity are not checked yet.
//
//	matcher := services.NewStoreMatcher()
//	best, err := matcher.SelectStore(v, productIDs, stores)
//	if errors.Is(err, errs.ErrServiceUnavailable) {
//	    // nothing can fulfill the delivery right now
//	}
type StoreMatcher struct{}

func NewStoreMatcher() StoreMatcher {
	return StoreMatcher{}
}

// SelectStore returns the best store for v among stores. It has no side effects.
func (m StoreMatcher) SelectStore(
	v *vendor.Vendor,
	_ []kernel.UUID,
	stores []*store.Store,
) (*store.Store, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}

	var (
		best         *store.Store
		bestDistance = math.MaxFloat64
	)

	for _, s := range stores {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		if !s.IsActive() {
			continue
		}

		d, err := s.DistanceTo(v.Location())
		if err != nil {
			return nil, err
		}

		if best == nil || d < bestDistance || (d == bestDistance && s.ID().Less(best.ID())) {
			best = s
			bestDistance = d
		}
	}

	if best == nil {
		return nil, ErrNoActiveStore
	}

	return best, nil
}
