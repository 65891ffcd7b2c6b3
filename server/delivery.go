package main

import (
	"fmt"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
)

const DeliveryRadius = 5.0

// DeliveryPoint is a station the craft drops cargo at
type DeliveryPoint struct {
	ID        string
	Position  mgl64.Vec3
	Radius    float64
	Delivered bool
}

// generateDeliveryPoints places 3+level stations. The first is the level's
// authored delivery point when one is given.
func generateDeliveryPoints(rng *rand.Rand, level int, first *mgl64.Vec3) []*DeliveryPoint {
	n := 3 + level
	pts := make([]*DeliveryPoint, n)
	for i := range pts {
		pos := mgl64.Vec3{
			(rng.Float64() - 0.5) * 100,
			(rng.Float64() - 0.5) * 50,
			(rng.Float64() - 0.5) * 100,
		}
		if i == 0 && first != nil {
			pos = *first
		}
		pts[i] = &DeliveryPoint{
			ID:       fmt.Sprintf("delivery_%d", i),
			Position: pos,
			Radius:   DeliveryRadius,
		}
	}
	return pts
}

// ToState converts to protocol state
func (d *DeliveryPoint) ToState() DeliveryState {
	return DeliveryState{
		ID:        d.ID,
		Pos:       vecState(d.Position),
		Radius:    d.Radius,
		Delivered: d.Delivered,
	}
}
