package main

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	DefaultGravityConstant = 18.0  // tuned for unit/second integration
	DefaultRestitution     = 0.8   // collisionDamping
	DefaultLinearDamping   = 0.995 // per 1/60 s
	DefaultAngularDamping  = 0.995
)

// BodyID is a stable handle into the physics world
type BodyID uint32

// EntityKind tags what owns a body
type EntityKind uint8

const (
	KindNone EntityKind = iota
	KindCraft
	KindObstacle
)

// EntityRef identifies the game entity a body belongs to
type EntityRef struct {
	Kind EntityKind
	ID   string
}

// RigidBody is a sphere-shaped body simulated by the PhysicsWorld.
// The owning entity drives the transform; the world owns force and torque
// accumulators.
type RigidBody struct {
	Position        mgl64.Vec3
	Orientation     mgl64.Quat
	Velocity        mgl64.Vec3
	AngularVelocity mgl64.Vec3
	Mass            float64
	Inertia         mgl64.Vec3 // moment of inertia per local axis
	Radius          float64

	IsStatic          bool
	AffectedByGravity bool
	CollisionResponse bool

	// 0 means use the world default; 1 disables damping
	LinearDamping  float64
	AngularDamping float64

	Owner EntityRef

	force  mgl64.Vec3
	torque mgl64.Vec3
}

// NewRigidBody returns a dynamic sphere with identity orientation
func NewRigidBody(pos mgl64.Vec3, mass, radius float64) *RigidBody {
	if mass <= 0 {
		mass = 1
	}
	return &RigidBody{
		Position:          pos,
		Orientation:       mgl64.QuatIdent(),
		Mass:              mass,
		Inertia:           SphereInertia(mass, radius),
		Radius:            radius,
		AffectedByGravity: true,
		CollisionResponse: true,
	}
}

// SphereInertia returns the moment of inertia of a solid sphere
func SphereInertia(mass, radius float64) mgl64.Vec3 {
	i := 0.4 * mass * radius * radius
	if i <= 0 {
		i = 1
	}
	return mgl64.Vec3{i, i, i}
}

func (b *RigidBody) invMass() float64 {
	if b.IsStatic {
		return 0
	}
	return 1 / b.Mass
}

// GravitySource is a fixed point mass that attracts dynamic bodies
type GravitySource struct {
	Position mgl64.Vec3
	Mass     float64
	Radius   float64 // no pull inside this radius
	Falloff  float64 // distance exponent, 2 for inverse square
}

// CollisionEvent is emitted for every resolved contact in a step
type CollisionEvent struct {
	A, B           BodyID
	OwnerA, OwnerB EntityRef
	Normal         mgl64.Vec3 // from B towards A
	Impulse        float64
}

// PhysicsWorld integrates registered bodies and resolves their collisions
type PhysicsWorld struct {
	Gravity        float64
	Restitution    float64
	LinearDamping  float64
	AngularDamping float64

	bodies         map[BodyID]*RigidBody
	order          []BodyID // registration order, keeps stepping deterministic
	nextID         BodyID
	sources        []GravitySource
	gravityEnabled bool
	events         []CollisionEvent
}

// NewPhysicsWorld creates an empty world with default constants
func NewPhysicsWorld() *PhysicsWorld {
	return &PhysicsWorld{
		Gravity:        DefaultGravityConstant,
		Restitution:    DefaultRestitution,
		LinearDamping:  DefaultLinearDamping,
		AngularDamping: DefaultAngularDamping,
		bodies:         make(map[BodyID]*RigidBody),
		gravityEnabled: true,
	}
}

// RegisterBody adds a body and returns its handle
func (w *PhysicsWorld) RegisterBody(b *RigidBody) BodyID {
	if b.Mass <= 0 {
		b.Mass = 1
	}
	if b.Orientation.Len() == 0 {
		b.Orientation = mgl64.QuatIdent()
	}
	w.nextID++
	id := w.nextID
	w.bodies[id] = b
	w.order = append(w.order, id)
	return id
}

// DeregisterBody removes a body. Unknown ids are ignored.
func (w *PhysicsWorld) DeregisterBody(id BodyID) {
	if _, ok := w.bodies[id]; !ok {
		return
	}
	delete(w.bodies, id)
	for i, oid := range w.order {
		if oid == id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
}

// Body returns the body for id, or nil
func (w *PhysicsWorld) Body(id BodyID) *RigidBody {
	return w.bodies[id]
}

// BodyCount returns the number of registered bodies
func (w *PhysicsWorld) BodyCount() int {
	return len(w.bodies)
}

// AddGravitySource adds a gravity well for the rest of the level
func (w *PhysicsWorld) AddGravitySource(src GravitySource) {
	if src.Falloff <= 0 {
		src.Falloff = 2
	}
	w.sources = append(w.sources, src)
}

// GravitySources returns the registered wells
func (w *PhysicsWorld) GravitySources() []GravitySource {
	return w.sources
}

// SetGravityEnabled toggles gravity well simulation
func (w *PhysicsWorld) SetGravityEnabled(on bool) {
	w.gravityEnabled = on
}

// ApplyForce accumulates a world-space force on a body. When localPoint is
// given the force also produces torque about the centre of mass.
func (w *PhysicsWorld) ApplyForce(id BodyID, force mgl64.Vec3, localPoint *mgl64.Vec3) {
	b, ok := w.bodies[id]
	if !ok || b.IsStatic {
		return
	}
	b.force = b.force.Add(force)
	if localPoint != nil {
		arm := b.Orientation.Rotate(*localPoint)
		b.torque = b.torque.Add(arm.Cross(force))
	}
}

// ApplyTorque accumulates a world-space torque on a body
func (w *PhysicsWorld) ApplyTorque(id BodyID, torque mgl64.Vec3) {
	b, ok := w.bodies[id]
	if !ok || b.IsStatic {
		return
	}
	b.torque = b.torque.Add(torque)
}

// ApplyAngularImpulse changes angular velocity immediately by impulse/inertia
func (w *PhysicsWorld) ApplyAngularImpulse(id BodyID, impulse mgl64.Vec3) {
	b, ok := w.bodies[id]
	if !ok || b.IsStatic {
		return
	}
	b.AngularVelocity = b.AngularVelocity.Add(divInertia(impulse, b.Inertia))
}

// Collisions drains the events produced by previous steps
func (w *PhysicsWorld) Collisions() []CollisionEvent {
	ev := w.events
	w.events = nil
	return ev
}

// Clear removes all bodies, gravity sources and pending events
func (w *PhysicsWorld) Clear() {
	w.bodies = make(map[BodyID]*RigidBody)
	w.order = w.order[:0]
	w.sources = nil
	w.events = nil
}

// Step advances the simulation by dt seconds
func (w *PhysicsWorld) Step(dt float64) {
	if dt <= 0 {
		return
	}
	if w.gravityEnabled {
		w.applyGravity()
	}
	for _, id := range w.order {
		b := w.bodies[id]
		if b.IsStatic {
			b.force, b.torque = mgl64.Vec3{}, mgl64.Vec3{}
			continue
		}
		w.integrate(b, dt)
	}
	w.resolveCollisions()
}

func (w *PhysicsWorld) applyGravity() {
	for _, id := range w.order {
		b := w.bodies[id]
		if b.IsStatic || !b.AffectedByGravity {
			continue
		}
		for _, src := range w.sources {
			d := src.Position.Sub(b.Position)
			dist := d.Len()
			if dist <= src.Radius || dist < vecEpsilon {
				continue
			}
			mag := w.Gravity * src.Mass * b.Mass / math.Pow(dist, src.Falloff)
			b.force = b.force.Add(d.Mul(mag / dist))
		}
	}
}

func (w *PhysicsWorld) integrate(b *RigidBody, dt float64) {
	b.Velocity = b.Velocity.Add(b.force.Mul(dt / b.Mass))
	b.AngularVelocity = b.AngularVelocity.Add(divInertia(b.torque, b.Inertia).Mul(dt))
	b.force, b.torque = mgl64.Vec3{}, mgl64.Vec3{}

	ld, ad := b.LinearDamping, b.AngularDamping
	if ld == 0 {
		ld = w.LinearDamping
	}
	if ad == 0 {
		ad = w.AngularDamping
	}
	b.Velocity = b.Velocity.Mul(perFrame(ld, dt))
	b.AngularVelocity = b.AngularVelocity.Mul(perFrame(ad, dt))

	b.Position = b.Position.Add(b.Velocity.Mul(dt))

	rate := b.AngularVelocity.Len()
	if rate > vecEpsilon {
		rot := mgl64.QuatRotate(rate*dt, b.AngularVelocity.Mul(1/rate))
		b.Orientation = rot.Mul(b.Orientation).Normalize()
	}
}

// resolveCollisions checks every pair of bodies
func (w *PhysicsWorld) resolveCollisions() {
	for i := 0; i < len(w.order); i++ {
		idA := w.order[i]
		a := w.bodies[idA]
		for j := i + 1; j < len(w.order); j++ {
			idB := w.order[j]
			b := w.bodies[idB]
			if a.IsStatic && b.IsStatic {
				continue
			}
			if !a.CollisionResponse && !b.CollisionResponse {
				continue
			}
			c, ok := sphereContact(a.Position, a.Radius, b.Position, b.Radius)
			if !ok {
				continue
			}

			invA, invB := a.invMass(), b.invMass()
			vn := a.Velocity.Sub(b.Velocity).Dot(c.Normal)
			impulse := 0.0
			if vn < 0 {
				impulse = -(1 + w.Restitution) * vn / (invA + invB)
				a.Velocity = a.Velocity.Add(c.Normal.Mul(impulse * invA))
				b.Velocity = b.Velocity.Sub(c.Normal.Mul(impulse * invB))
			}

			// Push apart so the pair no longer overlaps
			switch {
			case a.IsStatic:
				b.Position = b.Position.Sub(c.Normal.Mul(c.Penetration))
			case b.IsStatic:
				a.Position = a.Position.Add(c.Normal.Mul(c.Penetration))
			default:
				half := c.Penetration * 0.5
				a.Position = a.Position.Add(c.Normal.Mul(half))
				b.Position = b.Position.Sub(c.Normal.Mul(half))
			}

			if vn < 0 {
				w.events = append(w.events, CollisionEvent{
					A: idA, B: idB,
					OwnerA: a.Owner, OwnerB: b.Owner,
					Normal:  c.Normal,
					Impulse: impulse,
				})
			}
		}
	}
}

// divInertia divides v by inertia per axis; non-positive axes are locked
func divInertia(v, inertia mgl64.Vec3) mgl64.Vec3 {
	var out mgl64.Vec3
	for i := 0; i < 3; i++ {
		if inertia[i] > 0 {
			out[i] = v[i] / inertia[i]
		}
	}
	return out
}
