package queries

import (
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/guard"
)

var ErrSelectStoreQueryIsNotConstructed = errors.New(
	"SelectStoreQuery must be created via NewSelectStoreQuery constructor",
)

// SelectStoreQuery asks which store would fulfil a vendor's order right now.
// The product list is carried through to the matcher but does not narrow
// the candidates.
type SelectStoreQuery struct {
	vendorID   kernel.UUID
	productIDs []kernel.UUID

	guard guard.ConstructorGuard
}

func NewSelectStoreQuery(vendorID kernel.UUID, productIDs []kernel.UUID) (SelectStoreQuery, error) {
	errList := []error{vendorID.Validate()}
	for _, id := range productIDs {
		errList = append(errList, id.Validate())
	}
	if err := errors.Join(errList...); err != nil {
		return SelectStoreQuery{}, err
	}

	return SelectStoreQuery{
		vendorID:   vendorID,
		productIDs: append([]kernel.UUID(nil), productIDs...),
		guard:      guard.NewConstructorGuard(),
	}, nil
}

func (q SelectStoreQuery) Validate() error {
	return q.guard.Validate(ErrSelectStoreQueryIsNotConstructed)
}

func (q SelectStoreQuery) VendorID() kernel.UUID {
	return q.vendorID
}

func (q SelectStoreQuery) ProductIDs() []kernel.UUID {
	return append([]kernel.UUID(nil), q.productIDs...)
}
