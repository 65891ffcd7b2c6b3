package main

import (
	"github.com/go-gl/mathgl/mgl64"
)

const (
	CraftRadius          = 1.5
	CraftMass            = 1.0
	MaxFuel              = 100.0
	ThrusterAccel        = 18.0  // units/s²
	AngularThrusterAccel = 5.4   // rad/s²
	CraftMaxSpeed        = 18.0  // units/s
	CraftDamping         = 0.995 // per 1/60 s
	FuelConsumptionRate  = 3.0   // fuel/s while any thruster fires
	FuelRegenRate        = 1.2   // fuel/s while idle
	TurnRate             = 0.27  // rad/s added per turn impulse
	EmergencyStopCost    = 20.0
	EmergencyStopFactor  = 0.2
)

// Thruster is a direction of thrust intent
type Thruster uint8

const (
	ThrustForward Thruster = iota
	ThrustBackward
	ThrustLeft
	ThrustRight
	ThrustUp
	ThrustDown
	ThrustRollLeft
	ThrustRollRight
	thrusterCount
)

var thrusterNames = [thrusterCount]string{
	"forward", "backward", "left", "right", "up", "down", "rollLeft", "rollRight",
}

func (t Thruster) String() string {
	if t >= thrusterCount {
		return "unknown"
	}
	return thrusterNames[t]
}

// ParseThruster maps a wire name to a thruster
func ParseThruster(name string) (Thruster, bool) {
	for i, n := range thrusterNames {
		if n == name {
			return Thruster(i), true
		}
	}
	return 0, false
}

// Local axes of the craft at identity orientation
var (
	axisForward = mgl64.Vec3{0, 0, -1}
	axisRight   = mgl64.Vec3{1, 0, 0}
	axisUp      = mgl64.Vec3{0, 1, 0}
	axisRoll    = mgl64.Vec3{0, 0, 1}
)

// Spacecraft turns thruster intent and fuel into motion of its body
type Spacecraft struct {
	ID        string
	Class     ShipClass
	Body      BodyID
	Fuel      float64
	FuelRegen float64 // fuel/s while idle
	MaxSpeed  float64
	Shield    Shield

	world     *PhysicsWorld
	thrusters [thrusterCount]bool
	start     mgl64.Vec3
	firing    bool // any thruster fired last update
}

// NewSpacecraft registers a craft body in world at start
func NewSpacecraft(world *PhysicsWorld, class ShipClass, start mgl64.Vec3) *Spacecraft {
	c := &Spacecraft{
		ID:        GenerateID(4),
		Class:     class,
		FuelRegen: FuelRegenRate,
		MaxSpeed:  CraftMaxSpeed,
	}
	c.Attach(world, start)
	return c
}

// Attach registers a fresh body for the craft in world at start and resets
// it there. Used when a level rebuilds the world.
func (c *Spacecraft) Attach(world *PhysicsWorld, start mgl64.Vec3) {
	body := NewRigidBody(start, CraftMass, CraftRadius)
	body.LinearDamping = 1 // the controller damps its own motion
	body.AngularDamping = 1
	body.Owner = EntityRef{Kind: KindCraft, ID: c.ID}
	c.world = world
	c.Body = world.RegisterBody(body)
	c.ResetAt(start)
}

// Detach removes the craft's body from its world
func (c *Spacecraft) Detach() {
	if c.world != nil {
		c.world.DeregisterBody(c.Body)
	}
}

// body returns the craft's rigid body, or nil once deregistered
func (c *Spacecraft) body() *RigidBody {
	if c.world == nil {
		return nil
	}
	return c.world.Body(c.Body)
}

// SetThruster sets one thrust intent flag
func (c *Spacecraft) SetThruster(dir Thruster, on bool) {
	if dir >= thrusterCount {
		return
	}
	c.thrusters[dir] = on
}

// SetThrusterMask replaces all intent flags from a bitmask (bit i = Thruster i)
func (c *Spacecraft) SetThrusterMask(mask uint8) {
	for i := range c.thrusters {
		c.thrusters[i] = mask&(1<<uint(i)) != 0
	}
}

// Thrusting reports whether dir is engaged
func (c *Spacecraft) Thrusting(dir Thruster) bool {
	return dir < thrusterCount && c.thrusters[dir]
}

// Update applies one tick of damping, thrust, fuel use and speed limiting.
// speedFactor scales the speed cap (timed boosts).
func (c *Spacecraft) Update(dt, speedFactor float64) {
	b := c.body()
	if b == nil || dt <= 0 {
		return
	}
	def := GetClassDef(c.Class)

	damp := perFrame(CraftDamping, dt)
	b.Velocity = b.Velocity.Mul(damp)
	b.AngularVelocity = b.AngularVelocity.Mul(damp)

	c.firing = false
	if c.Fuel > 0 {
		forward := b.Orientation.Rotate(axisForward)
		right := b.Orientation.Rotate(axisRight)
		up := b.Orientation.Rotate(axisUp)
		roll := b.Orientation.Rotate(axisRoll)

		dv := ThrusterAccel * def.Speed * dt
		dw := AngularThrusterAccel * def.Maneuverability * dt
		var thrust, spin mgl64.Vec3
		for dir, on := range c.thrusters {
			if !on {
				continue
			}
			c.firing = true
			switch Thruster(dir) {
			case ThrustForward:
				thrust = thrust.Add(forward.Mul(dv))
			case ThrustBackward:
				thrust = thrust.Sub(forward.Mul(dv))
			case ThrustRight:
				thrust = thrust.Add(right.Mul(dv))
			case ThrustLeft:
				thrust = thrust.Sub(right.Mul(dv))
			case ThrustUp:
				thrust = thrust.Add(up.Mul(dv))
			case ThrustDown:
				thrust = thrust.Sub(up.Mul(dv))
			case ThrustRollLeft:
				spin = spin.Add(roll.Mul(dw))
			case ThrustRollRight:
				spin = spin.Sub(roll.Mul(dw))
			}
		}
		b.Velocity = b.Velocity.Add(thrust)
		b.AngularVelocity = b.AngularVelocity.Add(spin)
	}

	if c.firing {
		c.Fuel -= FuelConsumptionRate * def.FuelConsumption * dt
	} else {
		c.Fuel += c.FuelRegen * dt
	}
	c.Fuel = Clamp(c.Fuel, 0, MaxFuel)

	if speedFactor <= 0 {
		speedFactor = 1
	}
	b.Velocity = ClampLen(b.Velocity, c.MaxSpeed*def.Speed*speedFactor)
}

// Turn applies a pitch/yaw impulse in [-1, 1] about the craft's right and up
// axes. Needs fuel.
func (c *Spacecraft) Turn(pitch, yaw float64) {
	b := c.body()
	if b == nil || c.Fuel <= 0 {
		return
	}
	rate := TurnRate * GetClassDef(c.Class).Maneuverability
	right := b.Orientation.Rotate(axisRight)
	up := b.Orientation.Rotate(axisUp)
	dw := right.Mul(Clamp(pitch, -1, 1) * rate).Add(up.Mul(Clamp(yaw, -1, 1) * rate))
	c.world.ApplyAngularImpulse(c.Body, mulElem(dw, b.Inertia))
}

// EmergencyStop kills most of the craft's motion for a chunk of fuel
func (c *Spacecraft) EmergencyStop() bool {
	b := c.body()
	if b == nil || c.Fuel < EmergencyStopCost {
		return false
	}
	b.Velocity = b.Velocity.Mul(EmergencyStopFactor)
	b.AngularVelocity = b.AngularVelocity.Mul(EmergencyStopFactor)
	c.Fuel -= EmergencyStopCost
	return true
}

// AddFuel refuels up to the tank limit
func (c *Spacecraft) AddFuel(amount float64) {
	c.Fuel = Clamp(c.Fuel+amount, 0, MaxFuel)
}

// ToggleShield raises or lowers the shield
func (c *Spacecraft) ToggleShield() bool {
	return c.Shield.Toggle()
}

// Reset stops the craft at its start point with a full tank
func (c *Spacecraft) Reset() {
	c.ResetAt(c.start)
}

// ResetAt is Reset with a new start point
func (c *Spacecraft) ResetAt(start mgl64.Vec3) {
	c.start = start
	c.Fuel = MaxFuel
	c.thrusters = [thrusterCount]bool{}
	c.firing = false
	c.Shield.Reset()
	if b := c.body(); b != nil {
		b.Position = start
		b.Orientation = mgl64.QuatIdent()
		b.Velocity = mgl64.Vec3{}
		b.AngularVelocity = mgl64.Vec3{}
	}
}

// Position returns the craft position, or the start point if it has no body
func (c *Spacecraft) Position() mgl64.Vec3 {
	if b := c.body(); b != nil {
		return b.Position
	}
	return c.start
}

// Velocity returns the craft velocity
func (c *Spacecraft) Velocity() mgl64.Vec3 {
	if b := c.body(); b != nil {
		return b.Velocity
	}
	return mgl64.Vec3{}
}

// ToState converts to protocol state
func (c *Spacecraft) ToState() CraftState {
	st := CraftState{
		Fuel:   round2(c.Fuel),
		Shield: c.Shield.Active,
		Energy: round2(c.Shield.Energy),
		Class:  int(c.Class),
	}
	if b := c.body(); b != nil {
		st.Pos = vecState(b.Position)
		st.Vel = vecState(b.Velocity)
		st.Rot = [4]float64{b.Orientation.W, b.Orientation.V[0], b.Orientation.V[1], b.Orientation.V[2]}
		st.Speed = round2(b.Velocity.Len())
	}
	for i, on := range c.thrusters {
		if on {
			st.Thrust |= 1 << uint(i)
		}
	}
	return st
}
