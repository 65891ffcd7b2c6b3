package main

import (
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
)

// EffectKind selects a particle burst
type EffectKind uint8

const (
	EffectDelivery EffectKind = iota
	EffectPowerUp
	EffectExplosion
	EffectImpact
)

func (k EffectKind) String() string {
	switch k {
	case EffectDelivery:
		return "delivery"
	case EffectPowerUp:
		return "powerup"
	case EffectExplosion:
		return "explosion"
	case EffectImpact:
		return "impact"
	}
	return "unknown"
}

const (
	explosionParticles = 10
	burstParticles     = 5
	particleSpread     = 6.0 // units/s per axis
	particleMinLife    = 1.0
	particleLifeJitter = 2.0
	particleShrink     = 0.94 // scale per second
	particleMinScale   = 0.01
)

// Particle is a short-lived visual marker the client renders
type Particle struct {
	Position mgl64.Vec3
	Velocity mgl64.Vec3
	Life     float64
	Scale    float64
	Kind     EffectKind
}

// NewBurst creates the particles for one effect at pos
func NewBurst(rng *rand.Rand, pos mgl64.Vec3, kind EffectKind) []*Particle {
	n := burstParticles
	if kind == EffectExplosion {
		n = explosionParticles
	}
	out := make([]*Particle, n)
	for i := range out {
		out[i] = &Particle{
			Position: pos,
			Velocity: mgl64.Vec3{
				(rng.Float64() - 0.5) * particleSpread,
				(rng.Float64() - 0.5) * particleSpread,
				(rng.Float64() - 0.5) * particleSpread,
			},
			Life:  particleMinLife + rng.Float64()*particleLifeJitter,
			Scale: 0.5 + rng.Float64()*0.5,
			Kind:  kind,
		}
	}
	return out
}

// Update drifts and shrinks the particle; returns false once it is spent
func (p *Particle) Update(dt float64) bool {
	p.Position = p.Position.Add(p.Velocity.Mul(dt))
	p.Life -= dt
	p.Scale *= math.Pow(particleShrink, dt)
	return p.Life > 0 && p.Scale >= particleMinScale
}

// ToState converts to protocol state
func (p *Particle) ToState() ParticleState {
	return ParticleState{
		Pos:   vecState(p.Position),
		Scale: round2(p.Scale),
		Kind:  p.Kind.String(),
	}
}
