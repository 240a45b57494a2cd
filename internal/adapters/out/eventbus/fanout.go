package eventbus

import (
	"context"

	"fulfillment/internal/core/domain/model/delivery"
	"fulfillment/internal/core/ports"
)

// Fanout hands each event to every publisher in order. Publishers must not
// block; a slow one delays the ones after it.
type Fanout struct {
	publishers []ports.DeliveryEventPublisher
}

func NewFanout(publishers ...ports.DeliveryEventPublisher) *Fanout {
	out := make([]ports.DeliveryEventPublisher, 0, len(publishers))
	for _, p := range publishers {
		if p != nil {
			out = append(out, p)
		}
	}
	return &Fanout{publishers: out}
}

func (f *Fanout) Publish(ctx context.Context, event delivery.Event) {
	for _, p := range f.publishers {
		p.Publish(ctx, event)
	}
}
