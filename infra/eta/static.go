package eta

import (
	"context"
	"fmt"

	coreeta "github.com/scrambledgregs/fleet-sub001/core/eta"
	"github.com/scrambledgregs/fleet-sub001/core/model"
)

// StaticPair seeds a StaticProvider with one directed travel time.
type StaticPair struct {
	From, To model.GeoPoint
	Minutes  float64
}

// StaticProvider returns pre-seeded travel times, or a fixed default for
// unseeded pairs when Default is non-negative. Used in tests and demos.
type StaticProvider struct {
	Default float64
	m       map[coreeta.Leg]float64
}

// NewStaticProvider builds a provider from the given pairs. A negative
// defaultMinutes makes unseeded lookups fail.
func NewStaticProvider(defaultMinutes float64, pairs []StaticPair) *StaticProvider {
	m := make(map[coreeta.Leg]float64, len(pairs))
	for _, p := range pairs {
		m[coreeta.Leg{From: p.From, To: p.To}] = p.Minutes
	}
	return &StaticProvider{Default: defaultMinutes, m: m}
}

// EstimateTravelMinutes implements eta.Provider.
func (p *StaticProvider) EstimateTravelMinutes(ctx context.Context, from, to model.GeoPoint) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if m, ok := p.m[coreeta.Leg{From: from, To: to}]; ok {
		return m, nil
	}
	if p.Default >= 0 {
		return p.Default, nil
	}
	return 0, fmt.Errorf("no travel time seeded for %v -> %v", from, to)
}
