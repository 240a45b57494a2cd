package commands_test

import (
	"context"
	"log/slog"
	"time"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/delivery"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/store"
	"fulfillment/internal/core/domain/model/vendor"
	"fulfillment/internal/core/ports"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func discardLogger() *slog.Logger { return slog.New(slog.DiscardHandler) }

type MockVendorRepository struct{ mock.Mock }

func (m *MockVendorRepository) Add(ctx context.Context, v *vendor.Vendor) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}

func (m *MockVendorRepository) Get(ctx context.Context, id kernel.UUID) (*vendor.Vendor, error) {
	args := m.Called(ctx, id)
	v, _ := args.Get(0).(*vendor.Vendor)
	return v, args.Error(1)
}

type MockStoreRepository struct{ mock.Mock }

func (m *MockStoreRepository) Add(ctx context.Context, s *store.Store) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockStoreRepository) Update(ctx context.Context, s *store.Store) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockStoreRepository) Get(ctx context.Context, id kernel.UUID) (*store.Store, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(*store.Store)
	return s, args.Error(1)
}

func (m *MockStoreRepository) GetAllActive(ctx context.Context) ([]*store.Store, error) {
	args := m.Called(ctx)
	s, _ := args.Get(0).([]*store.Store)
	return s, args.Error(1)
}

type MockProductCatalog struct{ mock.Mock }

func (m *MockProductCatalog) Add(ctx context.Context, p *vendor.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockProductCatalog) GetPrices(ctx context.Context, ids []kernel.UUID) (map[kernel.UUID]decimal.Decimal, error) {
	args := m.Called(ctx, ids)
	p, _ := args.Get(0).(map[kernel.UUID]decimal.Decimal)
	return p, args.Error(1)
}

func (m *MockProductCatalog) GetByVendor(ctx context.Context, vendorID kernel.UUID) ([]*vendor.Product, error) {
	args := m.Called(ctx, vendorID)
	p, _ := args.Get(0).([]*vendor.Product)
	return p, args.Error(1)
}

type MockDeliveryRepository struct{ mock.Mock }

func (m *MockDeliveryRepository) Add(ctx context.Context, d *delivery.Delivery) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDeliveryRepository) Update(ctx context.Context, d *delivery.Delivery) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDeliveryRepository) Get(ctx context.Context, id kernel.UUID) (*delivery.Delivery, error) {
	args := m.Called(ctx, id)
	d, _ := args.Get(0).(*delivery.Delivery)
	return d, args.Error(1)
}

func (m *MockDeliveryRepository) GetForUpdate(ctx context.Context, id kernel.UUID) (*delivery.Delivery, error) {
	args := m.Called(ctx, id)
	d, _ := args.Get(0).(*delivery.Delivery)
	return d, args.Error(1)
}

func (m *MockDeliveryRepository) AppendLocation(
	ctx context.Context,
	deliveryID kernel.UUID,
	sample delivery.LocationSample,
) error {
	args := m.Called(ctx, deliveryID, sample)
	return args.Error(0)
}

type MockTxManager struct{ mock.Mock }

func (m *MockTxManager) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTxManager) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTxManager) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockLedgerUoW struct{ MockTxManager }

func (m *MockLedgerUoW) VendorRepository() ports.VendorRepository {
	args := m.Called()
	return args.Get(0).(ports.VendorRepository)
}

func (m *MockLedgerUoW) StoreRepository() ports.StoreRepository {
	args := m.Called()
	return args.Get(0).(ports.StoreRepository)
}

func (m *MockLedgerUoW) ProductCatalog() ports.ProductCatalog {
	args := m.Called()
	return args.Get(0).(ports.ProductCatalog)
}

func (m *MockLedgerUoW) DeliveryRepository() ports.DeliveryRepository {
	args := m.Called()
	return args.Get(0).(ports.DeliveryRepository)
}

type MockLedgerUoWFactory struct{ mock.Mock }

func (m *MockLedgerUoWFactory) Create() commands.LedgerUoW {
	args := m.Called()
	return args.Get(0).(commands.LedgerUoW)
}

type MockDeliveryUoW struct{ MockTxManager }

func (m *MockDeliveryUoW) DeliveryRepository() ports.DeliveryRepository {
	args := m.Called()
	return args.Get(0).(ports.DeliveryRepository)
}

type MockDeliveryUoWFactory struct{ mock.Mock }

func (m *MockDeliveryUoWFactory) Create() commands.DeliveryUoW {
	args := m.Called()
	return args.Get(0).(commands.DeliveryUoW)
}

type MockPublisher struct{ mock.Mock }

func (m *MockPublisher) Publish(ctx context.Context, event delivery.Event) {
	m.Called(ctx, event)
}

func mustVendor(lat, lon float64) *vendor.Vendor {
	v, err := vendor.NewVendor(kernel.NewUUID(), "Tea House", kernel.MustGeoPoint(lat, lon))
	if err != nil {
		panic(err)
	}
	return v
}

func mustStore(id kernel.UUID, lat, lon float64) *store.Store {
	s, err := store.NewStore(id, "Depot", "1 Main St", kernel.MustGeoPoint(lat, lon))
	if err != nil {
		panic(err)
	}
	return s
}

// newDelivery builds a PendingPayment delivery with one 2 x 12.50 line item.
func newDelivery() *delivery.Delivery {
	v := mustVendor(0, 0)
	s := mustStore(kernel.NewUUID(), 0, 0.01)
	item, err := delivery.NewLineItem(kernel.NewUUID(), 2, decimal.RequireFromString("12.50"))
	if err != nil {
		panic(err)
	}
	d, err := delivery.NewDelivery(kernel.NewUUID(), v, s, []delivery.LineItem{item}, fixedNow.Add(-time.Hour))
	if err != nil {
		panic(err)
	}
	return d
}
