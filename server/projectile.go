package main

import "github.com/go-gl/mathgl/mgl64"

const (
	ProjectileSpeed     = 40.0 // units/s
	ProjectileLifetime  = 5.0  // seconds
	ProjectileHitRadius = 2.0
	ProjectileOffset    = 2.0 // spawn distance from shooter centre
)

// Projectile is a bolt fired by an enemy
type Projectile struct {
	ID       string
	OwnerID  string
	Position mgl64.Vec3
	Velocity mgl64.Vec3
	Life     float64
	Damage   float64
	Alive    bool
}

// NewEnemyProjectile fires from enemy towards target
func NewEnemyProjectile(e *Enemy, target mgl64.Vec3) *Projectile {
	dir := SafeNormalize(target.Sub(e.Position))
	return &Projectile{
		ID:       GenerateID(3),
		OwnerID:  e.ID,
		Position: e.Position.Add(dir.Mul(ProjectileOffset)),
		Velocity: dir.Mul(ProjectileSpeed),
		Life:     ProjectileLifetime,
		Damage:   e.Damage,
		Alive:    true,
	}
}

// Update moves the projectile one tick
func (p *Projectile) Update(dt float64) {
	if !p.Alive {
		return
	}
	p.Position = p.Position.Add(p.Velocity.Mul(dt))
	p.Life -= dt
	if p.Life <= 0 {
		p.Life = 0
		p.Alive = false
	}
}

// ToState converts to protocol state
func (p *Projectile) ToState() ProjectileState {
	return ProjectileState{
		ID:    p.ID,
		Pos:   vecState(p.Position),
		Owner: p.OwnerID,
	}
}
