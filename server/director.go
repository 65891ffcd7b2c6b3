package main

import (
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
)

// DirectorConfig holds spawn and scoring rules
type DirectorConfig struct {
	MaxEnemies       int
	EnemySpawnRate   float64 // per-tick probability before level scaling
	MaxPowerUps      int
	PowerUpSpawnRate float64 // per-tick probability
	DamageScale      float64 // difficulty multiplier on enemy damage

	PointsPerDelivery int
	PointsPerKill     int
	PrimaryPoints     int
	OptionalPoints    int
	LevelPoints       int
	BonusPoints       int

	ImpactThreshold float64 // craft/obstacle impulse that counts as a hit
}

// DefaultDirectorConfig returns the normal-difficulty rules
func DefaultDirectorConfig() DirectorConfig {
	return DirectorConfig{
		MaxEnemies:        5,
		EnemySpawnRate:    0.02,
		MaxPowerUps:       3,
		PowerUpSpawnRate:  0.01,
		DamageScale:       1,
		PointsPerDelivery: 100,
		PointsPerKill:     50,
		PrimaryPoints:     500,
		OptionalPoints:    200,
		LevelPoints:       1000,
		BonusPoints:       300,
		ImpactThreshold:   9,
	}
}

// RunStats is the mutable score state of a run
type RunStats struct {
	Score      int
	Lives      int
	Kills      int
	Deliveries int
	Pickups    int
	Hits       int
}

// Event kinds reported through the tick context
const (
	EvtDelivery      = "delivery"
	EvtEnemyKilled   = "enemy_killed"
	EvtPowerUp       = "powerup"
	EvtCraftHit      = "craft_hit"
	EvtShieldHit     = "shield_hit"
	EvtObjectiveDone = "objective_complete"
	EvtLevelComplete = "level_complete"
	EvtGameOver      = "game_over"
)

// FlightEvent is a notable gameplay moment
type FlightEvent struct {
	Kind   string  `json:"kind" msgpack:"kind"`
	Level  int     `json:"level" msgpack:"level"`
	Score  int     `json:"score" msgpack:"score"`
	Detail string  `json:"detail,omitempty" msgpack:"detail,omitempty"`
	At     float64 `json:"at" msgpack:"at"`
}

// EventSink receives flight events
type EventSink func(FlightEvent)

// TickContext carries everything the director reads or writes in one tick
type TickContext struct {
	DT        float64
	Now       float64 // elapsed level time
	Level     int
	Craft     *Spacecraft
	World     *PhysicsWorld
	Stats     *RunStats
	Modifiers *ModifierList
	Events    EventSink
}

func (ctx *TickContext) emit(kind, detail string) {
	if ctx.Events == nil {
		return
	}
	ctx.Events(FlightEvent{Kind: kind, Level: ctx.Level, Score: ctx.Stats.Score, Detail: detail, At: ctx.Now})
}

// EntityDirector owns the non-physics entities of a level and decides what
// happens when they meet the craft
type EntityDirector struct {
	cfg            DirectorConfig
	rng            *rand.Rand
	enemies        []*Enemy
	projectiles    []*Projectile
	powerUps       []*PowerUp
	particles      []*Particle
	deliveryPoints []*DeliveryPoint
	objectives     []*Objective
}

// NewEntityDirector creates a director drawing randomness from rng
func NewEntityDirector(cfg DirectorConfig, rng *rand.Rand) *EntityDirector {
	if cfg.DamageScale <= 0 {
		cfg.DamageScale = 1
	}
	return &EntityDirector{cfg: cfg, rng: rng}
}

// InitLevel discards all entities and builds the objectives and stations
// for level. timeLimit bounds timed objectives; zero means unbounded.
func (d *EntityDirector) InitLevel(level int, firstDelivery *mgl64.Vec3, timeLimit float64) {
	d.enemies = d.enemies[:0]
	d.projectiles = d.projectiles[:0]
	d.powerUps = d.powerUps[:0]
	d.particles = d.particles[:0]
	d.objectives = generateObjectives(level, timeLimit)
	d.deliveryPoints = generateDeliveryPoints(d.rng, level, firstDelivery)
}

// Clear drops every entity and objective
func (d *EntityDirector) Clear() {
	d.enemies = nil
	d.projectiles = nil
	d.powerUps = nil
	d.particles = nil
	d.deliveryPoints = nil
	d.objectives = nil
}

// Update runs one tick: objectives, spawning, AI, aging and collisions
func (d *EntityDirector) Update(ctx *TickContext) {
	if ctx.Craft == nil || ctx.Stats == nil {
		return
	}
	d.updateSurvival(ctx)
	d.spawn(ctx)
	d.updateEnemies(ctx)
	d.updateProjectiles(ctx)
	d.updatePowerUps(ctx)
	d.updateParticles(ctx)
	d.checkCollisions(ctx)
	d.handlePhysicsEvents(ctx)
	d.sweepEnemies(ctx)
}

func (d *EntityDirector) updateSurvival(ctx *TickContext) {
	for _, o := range d.objectives {
		if o.Type == ObjSurvival && o.advance(ctx.Now-o.Current) {
			d.onObjectiveComplete(ctx, o)
		}
	}
}

func (d *EntityDirector) spawn(ctx *TickContext) {
	rate := d.cfg.EnemySpawnRate * (1 + 0.1*float64(ctx.Level))
	if len(d.enemies) < d.cfg.MaxEnemies && d.rng.Float64() < rate {
		d.enemies = append(d.enemies, NewEnemy(d.rng, ctx.Level, d.cfg.DamageScale))
	}
	if len(d.powerUps) < d.cfg.MaxPowerUps && d.rng.Float64() < d.cfg.PowerUpSpawnRate {
		d.powerUps = append(d.powerUps, NewPowerUp(d.rng))
	}
}

func (d *EntityDirector) updateEnemies(ctx *TickContext) {
	target := ctx.Craft.Position()
	detect := 1 - GetClassDef(ctx.Craft.Class).StealthRating
	for _, e := range d.enemies {
		if !e.Alive {
			continue
		}
		if e.Think(target, ctx.Now, detect) {
			d.projectiles = append(d.projectiles, NewEnemyProjectile(e, target))
		}
		e.Update(ctx.DT)
	}
}

func (d *EntityDirector) updateProjectiles(ctx *TickContext) {
	for _, p := range d.projectiles {
		p.Update(ctx.DT)
	}
	d.compactProjectiles()
}

func (d *EntityDirector) updatePowerUps(ctx *TickContext) {
	for _, p := range d.powerUps {
		p.Update(ctx.DT)
	}
	d.compactPowerUps()
}

func (d *EntityDirector) updateParticles(ctx *TickContext) {
	kept := d.particles[:0]
	for _, p := range d.particles {
		if p.Update(ctx.DT) {
			kept = append(kept, p)
		}
	}
	for i := len(kept); i < len(d.particles); i++ {
		d.particles[i] = nil
	}
	d.particles = kept
}

// checkCollisions resolves craft contacts with projectiles, enemies,
// power-ups and stations. Removals are deferred until each pass ends.
func (d *EntityDirector) checkCollisions(ctx *TickContext) {
	pos := ctx.Craft.Position()

	for _, p := range d.projectiles {
		if p.Alive && WithinRange(pos, p.Position, ProjectileHitRadius) {
			p.Alive = false
			d.hitCraft(ctx, p.Damage, "projectile")
		}
	}
	d.compactProjectiles()

	for _, e := range d.enemies {
		if !e.Alive || !WithinRange(pos, e.Position, ContactRadius) {
			continue
		}
		if ctx.Now-e.LastContact < EnemyContactCooldown {
			continue
		}
		e.LastContact = ctx.Now
		d.hitCraft(ctx, e.Damage, "contact")
		e.TakeDamage(EnemyContactSelfHit)
	}

	for _, p := range d.powerUps {
		if p.Alive() && WithinRange(pos, p.Position, PickupRadius) {
			d.collectPowerUp(ctx, p)
		}
	}
	d.compactPowerUps()

	for _, dp := range d.deliveryPoints {
		if !dp.Delivered && WithinRange(pos, dp.Position, dp.Radius) {
			d.deliver(ctx, dp)
		}
	}
}

// handlePhysicsEvents turns hard craft impacts into damage
func (d *EntityDirector) handlePhysicsEvents(ctx *TickContext) {
	if ctx.World == nil {
		return
	}
	for _, ev := range ctx.World.Collisions() {
		var other EntityRef
		switch {
		case ev.OwnerA.Kind == KindCraft:
			other = ev.OwnerB
		case ev.OwnerB.Kind == KindCraft:
			other = ev.OwnerA
		default:
			continue
		}
		if other.Kind != KindObstacle || ev.Impulse < d.cfg.ImpactThreshold {
			continue
		}
		d.particles = append(d.particles, NewBurst(d.rng, ctx.Craft.Position(), EffectImpact)...)
		d.hitCraft(ctx, ev.Impulse, "impact")
	}
}

// sweepEnemies removes destroyed enemies and scores them
func (d *EntityDirector) sweepEnemies(ctx *TickContext) {
	kept := d.enemies[:0]
	for _, e := range d.enemies {
		if e.Alive && e.Health > 0 {
			kept = append(kept, e)
			continue
		}
		e.Alive = false
		d.destroyEnemy(ctx, e)
	}
	for i := len(kept); i < len(d.enemies); i++ {
		d.enemies[i] = nil
	}
	d.enemies = kept
}

func (d *EntityDirector) destroyEnemy(ctx *TickContext, e *Enemy) {
	ctx.Stats.Score += d.cfg.PointsPerKill * ctx.Level
	ctx.Stats.Kills++
	d.particles = append(d.particles, NewBurst(d.rng, e.Position, EffectExplosion)...)
	ctx.emit(EvtEnemyKilled, e.ID)
	d.progress(ctx, ObjElimination)
}

func (d *EntityDirector) deliver(ctx *TickContext, dp *DeliveryPoint) {
	dp.Delivered = true
	ctx.Stats.Score += d.cfg.PointsPerDelivery * ctx.Level
	ctx.Stats.Deliveries++
	d.particles = append(d.particles, NewBurst(d.rng, dp.Position, EffectDelivery)...)
	ctx.emit(EvtDelivery, dp.ID)
	d.progress(ctx, ObjDelivery)
}

func (d *EntityDirector) collectPowerUp(ctx *TickContext, p *PowerUp) {
	p.Collected = true
	switch p.Type {
	case PowerFuel:
		ctx.Craft.AddFuel(PickupFuel)
	case PowerShield:
		ctx.Craft.Shield.Charge(ShieldPickupBoost)
	case PowerSpeed:
		if ctx.Modifiers != nil {
			ctx.Modifiers.Add(ModSpeed, PickupSpeedFactor, ctx.Now, PickupSpeedTime)
		}
	case PowerRepair:
		ctx.Stats.Lives = ClampInt(ctx.Stats.Lives+1, 0, MaxLives)
	}
	ctx.Stats.Pickups++
	d.particles = append(d.particles, NewBurst(d.rng, p.Position, EffectPowerUp)...)
	ctx.emit(EvtPowerUp, p.Type.String())
	d.progress(ctx, ObjCollection)
}

// hitCraft applies one hit: the shield soaks it if it can, otherwise a life
// is lost. Any hit forfeits the no-damage bonus.
func (d *EntityDirector) hitCraft(ctx *TickContext, dmg float64, cause string) {
	ctx.Stats.Hits++
	if ctx.Craft.Shield.AbsorbDamage(dmg) {
		ctx.emit(EvtShieldHit, cause)
	} else {
		if ctx.Stats.Lives > 0 {
			ctx.Stats.Lives--
		}
		ctx.emit(EvtCraftHit, cause)
	}
	if o := d.objective(NoDamageObjectiveID); o != nil && !o.Completed {
		o.broken = true
	}
}

// progress advances the first open objective of type by one
func (d *EntityDirector) progress(ctx *TickContext, typ ObjectiveType) {
	for _, o := range d.objectives {
		if o.Type != typ || o.Completed {
			continue
		}
		if o.advance(1) {
			d.onObjectiveComplete(ctx, o)
		}
		return
	}
}

func (d *EntityDirector) onObjectiveComplete(ctx *TickContext, o *Objective) {
	if o.Primary {
		ctx.Stats.Score += d.cfg.PrimaryPoints * ctx.Level
	} else {
		ctx.Stats.Score += d.cfg.OptionalPoints * ctx.Level
	}
	ctx.emit(EvtObjectiveDone, o.ID)
}

func (d *EntityDirector) objective(id string) *Objective {
	for _, o := range d.objectives {
		if o.ID == id {
			return o
		}
	}
	return nil
}

// LevelComplete reports whether every primary objective is done
func (d *EntityDirector) LevelComplete() bool {
	found := false
	for _, o := range d.objectives {
		if !o.Primary {
			continue
		}
		found = true
		if !o.Completed {
			return false
		}
	}
	return found
}

// CompleteLevel settles the bonus objectives and level bonus for a finished
// level. ctx.Level is the level just flown; the returned level is the next.
func (d *EntityDirector) CompleteLevel(ctx *TickContext) int {
	if o := d.objective(NoDamageObjectiveID); o != nil && !o.broken && o.advance(o.Target) {
		d.onObjectiveComplete(ctx, o)
	}
	next := ctx.Level + 1
	bonus := 0
	for _, o := range d.objectives {
		if o.Bonus && o.Completed {
			bonus++
		}
	}
	ctx.Stats.Score += d.cfg.LevelPoints*next + d.cfg.BonusPoints*next*bonus
	return next
}

// Objectives returns the live objective list
func (d *EntityDirector) Objectives() []*Objective {
	return d.objectives
}

// EnemyCount returns the number of live enemies
func (d *EntityDirector) EnemyCount() int { return len(d.enemies) }

// PowerUpCount returns the number of collectible power-ups
func (d *EntityDirector) PowerUpCount() int { return len(d.powerUps) }

// ProjectileCount returns the number of bolts in flight
func (d *EntityDirector) ProjectileCount() int { return len(d.projectiles) }

// ParticleCount returns the number of live particles
func (d *EntityDirector) ParticleCount() int { return len(d.particles) }

func (d *EntityDirector) compactProjectiles() {
	kept := d.projectiles[:0]
	for _, p := range d.projectiles {
		if p.Alive {
			kept = append(kept, p)
		}
	}
	for i := len(kept); i < len(d.projectiles); i++ {
		d.projectiles[i] = nil
	}
	d.projectiles = kept
}

func (d *EntityDirector) compactPowerUps() {
	kept := d.powerUps[:0]
	for _, p := range d.powerUps {
		if p.Alive() {
			kept = append(kept, p)
		}
	}
	for i := len(kept); i < len(d.powerUps); i++ {
		d.powerUps[i] = nil
	}
	d.powerUps = kept
}

// snapshot fills the entity lists of a state frame
func (d *EntityDirector) snapshot(gs *GameState) {
	gs.Enemies = make([]EnemyState, 0, len(d.enemies))
	for _, e := range d.enemies {
		gs.Enemies = append(gs.Enemies, e.ToState())
	}
	gs.Projectiles = make([]ProjectileState, 0, len(d.projectiles))
	for _, p := range d.projectiles {
		gs.Projectiles = append(gs.Projectiles, p.ToState())
	}
	gs.PowerUps = make([]PowerUpState, 0, len(d.powerUps))
	for _, p := range d.powerUps {
		gs.PowerUps = append(gs.PowerUps, p.ToState())
	}
	gs.Particles = make([]ParticleState, 0, len(d.particles))
	for _, p := range d.particles {
		gs.Particles = append(gs.Particles, p.ToState())
	}
	gs.Deliveries = make([]DeliveryState, 0, len(d.deliveryPoints))
	for _, dp := range d.deliveryPoints {
		gs.Deliveries = append(gs.Deliveries, dp.ToState())
	}
}
