package eta

import (
	"context"

	"github.com/scrambledgregs/fleet-sub001/core/model"
)

// Provider estimates travel time between two points. Implementations may
// call out over the network and must honor context cancellation. The engine
// consumes this port; it never implements it.
type Provider interface {
	EstimateTravelMinutes(ctx context.Context, from, to model.GeoPoint) (float64, error)
}

// Leg identifies one directed origin/destination pair. Legs are the unit of
// deduplication when a ranking call prefetches its travel times.
type Leg struct {
	From model.GeoPoint
	To   model.GeoPoint
}
