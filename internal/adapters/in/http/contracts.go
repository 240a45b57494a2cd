package http

import (
	"context"
	"time"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/core/domain/model/delivery"
)

// Use cases the server calls. The command and query handlers satisfy them.
type (
	CreateDeliveryHandler interface {
		Handle(ctx context.Context, cmd commands.CreateDeliveryCommand) (*delivery.Delivery, error)
	}

	UpdateDeliveryStatusHandler interface {
		Handle(ctx context.Context, cmd commands.UpdateDeliveryStatusCommand) (bool, error)
	}

	AssignCourierHandler interface {
		Handle(ctx context.Context, cmd commands.AssignCourierCommand) (*delivery.Delivery, error)
	}

	RecordLocationHandler interface {
		Handle(ctx context.Context, cmd commands.RecordLocationCommand) (delivery.LocationSample, error)
	}

	AppendDeliveryNoteHandler interface {
		Handle(ctx context.Context, cmd commands.AppendDeliveryNoteCommand) error
	}

	GetDeliveryHandler interface {
		Handle(ctx context.Context, query queries.GetDeliveryQuery) (queries.DeliveryDetails, error)
	}

	GetActiveDeliveriesHandler interface {
		Handle(ctx context.Context, query queries.GetActiveDeliveriesQuery) ([]queries.DeliverySummary, error)
	}

	SelectStoreHandler interface {
		Handle(ctx context.Context, query queries.SelectStoreQuery) (queries.StoreMatch, error)
	}

	// RateLimiter counts one hit for key and reports whether it is allowed.
	// Window is the length of one counting window.
	RateLimiter interface {
		Allow(ctx context.Context, key string) (bool, int64, error)
		Window() time.Duration
	}
)

// Handlers groups the use cases served over HTTP.
type Handlers struct {
	CreateDelivery       CreateDeliveryHandler
	UpdateDeliveryStatus UpdateDeliveryStatusHandler
	AssignCourier        AssignCourierHandler
	RecordLocation       RecordLocationHandler
	AppendDeliveryNote   AppendDeliveryNoteHandler
	GetDelivery          GetDeliveryHandler
	GetActiveDeliveries  GetActiveDeliveriesHandler
	SelectStore          SelectStoreHandler
}
