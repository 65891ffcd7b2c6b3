package main

import (
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	PickupRadius      = 3.0
	PickupTimeout     = 30.0 // seconds
	PickupFuel        = 30.0
	PickupSpeedFactor = 1.5
	PickupSpeedTime   = 10.0 // seconds
	MaxLives          = 3
)

// PowerUpType identifies what a pickup grants
type PowerUpType uint8

const (
	PowerFuel PowerUpType = iota
	PowerShield
	PowerSpeed
	PowerRepair
	powerUpTypeCount
)

func (p PowerUpType) String() string {
	switch p {
	case PowerFuel:
		return "fuel"
	case PowerShield:
		return "shield"
	case PowerSpeed:
		return "speed"
	case PowerRepair:
		return "repair"
	}
	return "unknown"
}

// PowerUp is a collectible that buffs the craft on contact
type PowerUp struct {
	ID        string
	Type      PowerUpType
	Position  mgl64.Vec3
	Life      float64
	Collected bool
}

// NewPowerUp spawns a random power-up inside the arena
func NewPowerUp(rng *rand.Rand) *PowerUp {
	return &PowerUp{
		ID:   GenerateID(4),
		Type: PowerUpType(rng.Intn(int(powerUpTypeCount))),
		Position: mgl64.Vec3{
			(rng.Float64() - 0.5) * 150,
			(rng.Float64() - 0.5) * 75,
			(rng.Float64() - 0.5) * 150,
		},
		Life: PickupTimeout,
	}
}

// Alive reports whether the power-up can still be collected
func (p *PowerUp) Alive() bool {
	return !p.Collected && p.Life > 0
}

// Update ticks down the pickup lifetime
func (p *PowerUp) Update(dt float64) {
	if !p.Alive() {
		return
	}
	p.Life -= dt
	if p.Life < 0 {
		p.Life = 0
	}
}

// ToState converts to protocol state
func (p *PowerUp) ToState() PowerUpState {
	return PowerUpState{
		ID:   p.ID,
		Type: p.Type.String(),
		Pos:  vecState(p.Position),
	}
}
