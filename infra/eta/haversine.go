package eta

import (
	"context"
	"math"

	"github.com/scrambledgregs/fleet-sub001/core/model"
)

const earthRadiusKm = 6371.0

// DefaultSpeedKmh approximates urban driving speed for the offline
// estimator.
const DefaultSpeedKmh = 45.0

// HaversineProvider estimates travel time from great-circle distance at a
// fixed average road speed. It never fails and is the default provider when
// no external routing service is configured.
type HaversineProvider struct {
	SpeedKmh float64
}

// NewHaversineProvider returns a provider using DefaultSpeedKmh.
func NewHaversineProvider() *HaversineProvider {
	return &HaversineProvider{SpeedKmh: DefaultSpeedKmh}
}

// EstimateTravelMinutes implements eta.Provider.
func (p *HaversineProvider) EstimateTravelMinutes(ctx context.Context, from, to model.GeoPoint) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	speed := p.SpeedKmh
	if speed <= 0 {
		speed = DefaultSpeedKmh
	}
	km := haversineKm(from, to)
	return km / speed * 60, nil
}

// haversineKm returns the great-circle distance between two points.
func haversineKm(a, b model.GeoPoint) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}
