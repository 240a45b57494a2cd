package http

import (
	"context"
	"io"
	"log/slog"
	"time"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/core/domain/model/delivery"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/store"
	"fulfillment/internal/core/domain/model/vendor"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeUseCases struct {
	mock.Mock
}

func (f *fakeUseCases) handlers() Handlers {
	return Handlers{
		CreateDelivery:       createDeliveryFake{f},
		UpdateDeliveryStatus: updateStatusFake{f},
		AssignCourier:        assignCourierFake{f},
		RecordLocation:       recordLocationFake{f},
		AppendDeliveryNote:   appendNoteFake{f},
		GetDelivery:          getDeliveryFake{f},
		GetActiveDeliveries:  activeDeliveriesFake{f},
		SelectStore:          selectStoreFake{f},
	}
}

type createDeliveryFake struct{ f *fakeUseCases }

func (h createDeliveryFake) Handle(ctx context.Context, cmd commands.CreateDeliveryCommand) (*delivery.Delivery, error) {
	args := h.f.Called(ctx, cmd)
	d, _ := args.Get(0).(*delivery.Delivery)
	return d, args.Error(1)
}

type updateStatusFake struct{ f *fakeUseCases }

func (h updateStatusFake) Handle(ctx context.Context, cmd commands.UpdateDeliveryStatusCommand) (bool, error) {
	args := h.f.Called(ctx, cmd)
	return args.Bool(0), args.Error(1)
}

type assignCourierFake struct{ f *fakeUseCases }

func (h assignCourierFake) Handle(ctx context.Context, cmd commands.AssignCourierCommand) (*delivery.Delivery, error) {
	args := h.f.Called(ctx, cmd)
	d, _ := args.Get(0).(*delivery.Delivery)
	return d, args.Error(1)
}

type recordLocationFake struct{ f *fakeUseCases }

func (h recordLocationFake) Handle(ctx context.Context, cmd commands.RecordLocationCommand) (delivery.LocationSample, error) {
	args := h.f.Called(ctx, cmd)
	return args.Get(0).(delivery.LocationSample), args.Error(1)
}

type appendNoteFake struct{ f *fakeUseCases }

func (h appendNoteFake) Handle(ctx context.Context, cmd commands.AppendDeliveryNoteCommand) error {
	return h.f.Called(ctx, cmd).Error(0)
}

type getDeliveryFake struct{ f *fakeUseCases }

func (h getDeliveryFake) Handle(ctx context.Context, query queries.GetDeliveryQuery) (queries.DeliveryDetails, error) {
	args := h.f.Called(ctx, query)
	return args.Get(0).(queries.DeliveryDetails), args.Error(1)
}

type activeDeliveriesFake struct{ f *fakeUseCases }

func (h activeDeliveriesFake) Handle(ctx context.Context, query queries.GetActiveDeliveriesQuery) ([]queries.DeliverySummary, error) {
	args := h.f.Called(ctx, query)
	list, _ := args.Get(0).([]queries.DeliverySummary)
	return list, args.Error(1)
}

type selectStoreFake struct{ f *fakeUseCases }

func (h selectStoreFake) Handle(ctx context.Context, query queries.SelectStoreQuery) (queries.StoreMatch, error) {
	args := h.f.Called(ctx, query)
	return args.Get(0).(queries.StoreMatch), args.Error(1)
}

type fakeLimiter struct {
	allowed bool
	err     error
	window  time.Duration
	keys    []string
}

func (l *fakeLimiter) Window() time.Duration {
	return l.window
}

func (l *fakeLimiter) Allow(_ context.Context, key string) (bool, int64, error) {
	l.keys = append(l.keys, key)
	return l.allowed, int64(len(l.keys)), l.err
}

// newDelivery builds a PendingPayment delivery with one 2 x 12.50 line item.
func newDelivery() *delivery.Delivery {
	v, err := vendor.NewVendor(kernel.NewUUID(), "Tea House", kernel.MustGeoPoint(0, 0))
	if err != nil {
		panic(err)
	}
	s, err := store.NewStore(kernel.NewUUID(), "Depot", "1 Main St", kernel.MustGeoPoint(0, 0.01))
	if err != nil {
		panic(err)
	}
	item, err := delivery.NewLineItem(kernel.NewUUID(), 2, decimal.RequireFromString("12.50"))
	if err != nil {
		panic(err)
	}
	d, err := delivery.NewDelivery(kernel.NewUUID(), v, s, []delivery.LineItem{item}, fixedNow)
	if err != nil {
		panic(err)
	}
	return d
}
