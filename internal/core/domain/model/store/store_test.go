package store_test

import (
	"testing"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/store"
	"fulfillment/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStore(t *testing.T) {
	id := kernel.NewUUID()

	s, err := store.NewStore(id, "Central", "1 Main St", kernel.MustGeoPoint(0, 1))

	require.NoError(t, err)
	require.NoError(t, s.Validate())
	assert.True(t, s.IsActive())
	assert.Equal(t, "1 Main St", s.Address())
	assert.Empty(t, s.Stock())
}

func TestRestoreStore(t *testing.T) {
	productID := kernel.NewUUID()

	t.Run("inactive with stock", func(t *testing.T) {
		s, err := store.RestoreStore(kernel.NewUUID(), "North", "", kernel.MustGeoPoint(1, 1), false,
			[]store.StockItem{{ProductID: productID, Quantity: 7}})

		require.NoError(t, err)
		assert.False(t, s.IsActive())
		assert.Equal(t, 7, s.QuantityOf(productID))
		assert.Equal(t, 0, s.QuantityOf(kernel.NewUUID()))
	})

	t.Run("negative stock is rejected", func(t *testing.T) {
		_, err := store.RestoreStore(kernel.NewUUID(), "North", "", kernel.MustGeoPoint(1, 1), true,
			[]store.StockItem{{ProductID: productID, Quantity: -1}})

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})

	t.Run("stock copy does not leak", func(t *testing.T) {
		s, err := store.RestoreStore(kernel.NewUUID(), "North", "", kernel.MustGeoPoint(1, 1), true,
			[]store.StockItem{{ProductID: productID, Quantity: 2}})
		require.NoError(t, err)

		items := s.Stock()
		items[0].Quantity = 100

		assert.Equal(t, 2, s.QuantityOf(productID))
	})
}

func TestStore_ActivateDeactivate(t *testing.T) {
	s, err := store.NewStore(kernel.NewUUID(), "Central", "", kernel.MustGeoPoint(0, 0))
	require.NoError(t, err)

	s.Deactivate()
	assert.False(t, s.IsActive())
	s.Activate()
	assert.True(t, s.IsActive())
}

func TestStore_DistanceTo(t *testing.T) {
	s, err := store.NewStore(kernel.NewUUID(), "Central", "", kernel.MustGeoPoint(0, 1))
	require.NoError(t, err)

	d, err := s.DistanceTo(kernel.MustGeoPoint(0, 0))

	require.NoError(t, err)
	assert.InDelta(t, 111.19, d, 0.01)
}
