package main

import (
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	AsteroidDensity  = 0.5
	AsteroidMaxDrift = 1.0 // units/s per axis
	AsteroidSpinMax  = 0.5 // rad/s per axis
	AsteroidField    = 150.0
	asteroidClearing = 10.0 // keep this far from the start point
)

// Asteroid is a drifting rock simulated as a dynamic body
type Asteroid struct {
	ID   string
	Body BodyID
}

// SpawnAsteroids registers count rocks with radii in [minR, maxR] and returns
// them. Rocks never spawn on top of the start point.
func SpawnAsteroids(w *PhysicsWorld, rng *rand.Rand, count int, minR, maxR float64, start mgl64.Vec3) []*Asteroid {
	if maxR < minR {
		maxR = minR
	}
	if minR <= 0 {
		return nil
	}
	out := make([]*Asteroid, 0, count)
	for i := 0; i < count; i++ {
		r := minR + rng.Float64()*(maxR-minR)
		var pos mgl64.Vec3
		for tries := 0; tries < 8; tries++ {
			pos = mgl64.Vec3{
				(rng.Float64() - 0.5) * AsteroidField,
				(rng.Float64() - 0.5) * AsteroidField * 0.5,
				(rng.Float64() - 0.5) * AsteroidField,
			}
			if Distance(pos, start) > r+asteroidClearing {
				break
			}
		}
		mass := AsteroidDensity * r * r * r
		body := NewRigidBody(pos, mass, r)
		body.Velocity = randVec(rng, AsteroidMaxDrift)
		body.AngularVelocity = randVec(rng, AsteroidSpinMax)
		body.LinearDamping = 1
		body.AngularDamping = 1

		a := &Asteroid{ID: GenerateID(4)}
		body.Owner = EntityRef{Kind: KindObstacle, ID: a.ID}
		a.Body = w.RegisterBody(body)
		out = append(out, a)
	}
	return out
}

// ToState converts to protocol state; ok is false once the body is gone
func (a *Asteroid) ToState(w *PhysicsWorld) (AsteroidState, bool) {
	b := w.Body(a.Body)
	if b == nil {
		return AsteroidState{}, false
	}
	return AsteroidState{
		ID:  a.ID,
		Pos: vecState(b.Position),
		Rot: [4]float64{b.Orientation.W, b.Orientation.V[0], b.Orientation.V[1], b.Orientation.V[2]},
		R:   round2(b.Radius),
	}, true
}

func randVec(rng *rand.Rand, max float64) mgl64.Vec3 {
	return mgl64.Vec3{
		(rng.Float64()*2 - 1) * max,
		(rng.Float64()*2 - 1) * max,
		(rng.Float64()*2 - 1) * max,
	}
}
