package main

import (
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	EnemyRadius          = 1.5
	EnemyDetectRange     = 30.0 // patrol -> chase
	EnemyLoseRange       = 50.0 // chase -> patrol
	EnemyAttackRange     = 15.0 // chase -> attack
	EnemyDisengageRange  = 20.0 // attack -> chase
	EnemyChaseSpeed      = 8.0  // units/s
	EnemyPatrolSpeed     = 1.5  // max drift per axis, units/s
	EnemyBounds          = 150.0
	EnemyBaseHealth      = 50.0
	EnemyHealthPerLevel  = 10.0
	EnemyBaseDamage      = 10.0
	EnemyDamagePerLevel  = 2.0
	EnemyFireRateMin     = 2.0 // seconds
	EnemyFireRateJitter  = 1.0
	ContactRadius        = 3.0
	EnemyContactSelfHit  = 25.0
	EnemyContactCooldown = 1.0 // seconds between contact hits from one enemy
)

// AIState is the behaviour mode of an enemy
type AIState uint8

const (
	AIPatrol AIState = iota
	AIChase
	AIAttack
	aiStateCount
)

func (s AIState) String() string {
	switch s {
	case AIPatrol:
		return "patrol"
	case AIChase:
		return "chase"
	case AIAttack:
		return "attack"
	}
	return "unknown"
}

// Enemy is an AI drone hunting the craft
type Enemy struct {
	ID          string
	Position    mgl64.Vec3
	Velocity    mgl64.Vec3
	Health      float64
	MaxHealth   float64
	Damage      float64
	FireRate    float64 // seconds between shots
	LastShot    float64 // simulation time of last shot
	LastContact float64 // simulation time of last contact hit
	State       AIState
	Alive       bool
}

// NewEnemy spawns an enemy for level at a random point in the arena
func NewEnemy(rng *rand.Rand, level int, damageScale float64) *Enemy {
	hp := EnemyBaseHealth + EnemyHealthPerLevel*float64(level)
	return &Enemy{
		ID: GenerateID(4),
		Position: mgl64.Vec3{
			(rng.Float64() - 0.5) * 200,
			(rng.Float64() - 0.5) * 100,
			(rng.Float64() - 0.5) * 200,
		},
		Velocity: mgl64.Vec3{
			(rng.Float64()*2 - 1) * EnemyPatrolSpeed,
			(rng.Float64()*2 - 1) * EnemyPatrolSpeed,
			(rng.Float64()*2 - 1) * EnemyPatrolSpeed,
		},
		Health:      hp,
		MaxHealth:   hp,
		Damage:      (EnemyBaseDamage + EnemyDamagePerLevel*float64(level)) * damageScale,
		FireRate:    EnemyFireRateMin + rng.Float64()*EnemyFireRateJitter,
		LastContact: -EnemyContactCooldown,
		State:       AIPatrol,
		Alive:       true,
	}
}

// aiInput is what an enemy sees of the world this tick
type aiInput struct {
	Target      mgl64.Vec3
	Distance    float64
	Now         float64
	DetectScale float64 // shrinks detection range for stealthy craft
}

// aiBehavior handles one AI state; it may change e.State and reports
// whether the enemy fires this tick
type aiBehavior func(e *Enemy, in aiInput) bool

var aiBehaviors = [aiStateCount]aiBehavior{
	AIPatrol: patrolBehavior,
	AIChase:  chaseBehavior,
	AIAttack: attackBehavior,
}

func patrolBehavior(e *Enemy, in aiInput) bool {
	if in.Distance < EnemyDetectRange*in.DetectScale {
		e.State = AIChase
	}
	return false
}

func chaseBehavior(e *Enemy, in aiInput) bool {
	if in.Distance > EnemyLoseRange {
		e.State = AIPatrol
	} else if in.Distance < EnemyAttackRange {
		e.State = AIAttack
	}
	e.Velocity = SafeNormalize(in.Target.Sub(e.Position)).Mul(EnemyChaseSpeed)
	return false
}

func attackBehavior(e *Enemy, in aiInput) bool {
	if in.Distance > EnemyDisengageRange {
		e.State = AIChase
	}
	if in.Now-e.LastShot >= e.FireRate {
		e.LastShot = in.Now
		return true
	}
	return false
}

// Think runs the behaviour for the current state. Returns true when the enemy
// fires at target.
func (e *Enemy) Think(target mgl64.Vec3, now, detectScale float64) bool {
	if !e.Alive || e.State >= aiStateCount {
		return false
	}
	if detectScale <= 0 {
		detectScale = 1
	}
	in := aiInput{
		Target:      target,
		Distance:    Distance(e.Position, target),
		Now:         now,
		DetectScale: detectScale,
	}
	return aiBehaviors[e.State](e, in)
}

// Update moves the enemy and keeps it inside the arena
func (e *Enemy) Update(dt float64) {
	if !e.Alive {
		return
	}
	e.Position = e.Position.Add(e.Velocity.Mul(dt))
	for i := 0; i < 3; i++ {
		if e.Position[i] > EnemyBounds && e.Velocity[i] > 0 || e.Position[i] < -EnemyBounds && e.Velocity[i] < 0 {
			e.Velocity[i] = -e.Velocity[i]
		}
	}
}

// TakeDamage reduces health and returns true if the enemy died
func (e *Enemy) TakeDamage(dmg float64) bool {
	if !e.Alive {
		return false
	}
	e.Health = Clamp(e.Health-dmg, 0, e.MaxHealth)
	if e.Health <= 0 {
		e.Alive = false
		return true
	}
	return false
}

// ToState converts to protocol state
func (e *Enemy) ToState() EnemyState {
	return EnemyState{
		ID:    e.ID,
		Pos:   vecState(e.Position),
		HP:    round2(e.Health),
		MaxHP: e.MaxHealth,
		AI:    e.State.String(),
	}
}
