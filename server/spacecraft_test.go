package main

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func newTestCraft() (*PhysicsWorld, *Spacecraft) {
	w := NewPhysicsWorld()
	w.SetGravityEnabled(false)
	return w, NewSpacecraft(w, ClassShuttle, mgl64.Vec3{})
}

func TestForwardThrustMovesAlongNegativeZ(t *testing.T) {
	w, c := newTestCraft()
	c.SetThruster(ThrustForward, true)
	for i := 0; i < 30; i++ {
		c.Update(dt60, 1)
		w.Step(dt60)
	}
	v := c.Velocity()
	if v.Z() >= 0 {
		t.Errorf("expected -Z velocity, got %v", v)
	}
	if math.Abs(v.X()) > 1e-9 || math.Abs(v.Y()) > 1e-9 {
		t.Errorf("expected pure Z motion, got %v", v)
	}
	if c.Position().Z() >= 0 {
		t.Errorf("expected craft to move forward, pos %v", c.Position())
	}
	if c.Fuel >= MaxFuel {
		t.Errorf("expected fuel to drop, got %f", c.Fuel)
	}
}

func TestNoThrustWithoutFuel(t *testing.T) {
	_, c := newTestCraft()
	c.Fuel = 0
	c.SetThruster(ThrustForward, true)
	c.SetThruster(ThrustRollLeft, true)
	c.Update(dt60, 1)
	if c.Velocity() != (mgl64.Vec3{}) {
		t.Errorf("expected no thrust at zero fuel, got %v", c.Velocity())
	}
	if c.Fuel <= 0 {
		t.Errorf("expected an empty tank to start regenerating, got %f", c.Fuel)
	}
}

func TestFuelRegeneratesWhenIdle(t *testing.T) {
	_, c := newTestCraft()
	c.Fuel = 50
	c.Update(1, 1)
	if math.Abs(c.Fuel-(50+FuelRegenRate)) > 1e-9 {
		t.Errorf("expected fuel %f, got %f", 50+FuelRegenRate, c.Fuel)
	}
}

func TestFuelStaysInRange(t *testing.T) {
	_, c := newTestCraft()
	for i := 0; i < 2000; i++ {
		on := (i/300)%2 == 0
		c.SetThruster(ThrustForward, on)
		c.SetThruster(ThrustUp, on)
		c.Update(dt60*float64(1+i%5), 1)
		if c.Fuel < 0 || c.Fuel > MaxFuel {
			t.Fatalf("fuel out of range at step %d: %f", i, c.Fuel)
		}
	}
}

func TestSpeedClampedToMax(t *testing.T) {
	w, c := newTestCraft()
	c.SetThruster(ThrustForward, true)
	for i := 0; i < 600; i++ {
		c.Fuel = MaxFuel
		c.Update(dt60, 1)
		w.Step(dt60)
	}
	if s := c.Velocity().Len(); s > CraftMaxSpeed+1e-9 {
		t.Errorf("speed %f exceeds cap %f", s, CraftMaxSpeed)
	}
}

func TestSpeedFactorRaisesCap(t *testing.T) {
	_, c := newTestCraft()
	b := c.body()
	b.Velocity = mgl64.Vec3{0, 0, -100}
	c.Update(dt60, 1.5)
	want := CraftMaxSpeed * 1.5
	if s := c.Velocity().Len(); math.Abs(s-want) > 1e-9 {
		t.Errorf("expected speed %f, got %f", want, s)
	}
}

func TestEmergencyStopRequiresFuel(t *testing.T) {
	_, c := newTestCraft()
	b := c.body()
	b.Velocity = mgl64.Vec3{10, 0, 0}
	b.AngularVelocity = mgl64.Vec3{0, 1, 0}
	c.Fuel = 15
	if c.EmergencyStop() {
		t.Error("expected emergency stop to fail with 15 fuel")
	}
	if c.Fuel != 15 || b.Velocity != (mgl64.Vec3{10, 0, 0}) || b.AngularVelocity != (mgl64.Vec3{0, 1, 0}) {
		t.Errorf("state changed on failed stop: fuel=%f v=%v w=%v", c.Fuel, b.Velocity, b.AngularVelocity)
	}
}

func TestEmergencyStop(t *testing.T) {
	_, c := newTestCraft()
	b := c.body()
	b.Velocity = mgl64.Vec3{10, 0, 0}
	b.AngularVelocity = mgl64.Vec3{0, 1, 0}
	c.Fuel = 25
	if !c.EmergencyStop() {
		t.Fatal("expected emergency stop to succeed")
	}
	if math.Abs(c.Fuel-5) > 1e-9 {
		t.Errorf("expected fuel 5, got %f", c.Fuel)
	}
	if math.Abs(b.Velocity.X()-2) > 1e-9 || math.Abs(b.AngularVelocity.Y()-0.2) > 1e-9 {
		t.Errorf("expected v and w scaled by 0.2, got v=%v w=%v", b.Velocity, b.AngularVelocity)
	}
}

func TestRollThrustSpinsAboutRollAxis(t *testing.T) {
	_, c := newTestCraft()
	c.SetThruster(ThrustRollLeft, true)
	c.Update(dt60, 1)
	w := c.body().AngularVelocity
	if w.Z() <= 0 || math.Abs(w.X()) > 1e-9 || math.Abs(w.Y()) > 1e-9 {
		t.Errorf("expected +Z spin, got %v", w)
	}
}

func TestTurnAppliesAngularImpulse(t *testing.T) {
	_, c := newTestCraft()
	c.Turn(0, 1)
	w := c.body().AngularVelocity
	if math.Abs(w.Y()-TurnRate) > 1e-9 {
		t.Errorf("expected yaw rate %f, got %v", TurnRate, w)
	}
}

func TestResetRestoresCraft(t *testing.T) {
	w, c := newTestCraft()
	c.SetThruster(ThrustForward, true)
	c.Shield.Charge(40)
	for i := 0; i < 30; i++ {
		c.Update(dt60, 1)
		w.Step(dt60)
	}
	c.Reset()
	b := c.body()
	if c.Fuel != MaxFuel || b.Velocity != (mgl64.Vec3{}) || b.AngularVelocity != (mgl64.Vec3{}) {
		t.Errorf("reset left fuel=%f v=%v w=%v", c.Fuel, b.Velocity, b.AngularVelocity)
	}
	if b.Position != (mgl64.Vec3{}) {
		t.Errorf("expected start position, got %v", b.Position)
	}
	if c.Thrusting(ThrustForward) {
		t.Error("expected thrusters cleared")
	}
	if c.Shield.Energy != 0 {
		t.Errorf("expected shield emptied, got %f", c.Shield.Energy)
	}
}

func TestDeregisteredCraftIsInert(t *testing.T) {
	w, c := newTestCraft()
	w.DeregisterBody(c.Body)
	c.SetThruster(ThrustForward, true)
	c.Update(dt60, 1)
	c.Turn(1, 1)
	if c.EmergencyStop() {
		t.Error("expected stop to fail without a body")
	}
}

func TestThrusterMask(t *testing.T) {
	_, c := newTestCraft()
	c.SetThrusterMask(1<<uint(ThrustForward) | 1<<uint(ThrustRollRight))
	if !c.Thrusting(ThrustForward) || !c.Thrusting(ThrustRollRight) || c.Thrusting(ThrustUp) {
		t.Error("mask decoded incorrectly")
	}
	if got := c.ToState().Thrust; got != 1<<uint(ThrustForward)|1<<uint(ThrustRollRight) {
		t.Errorf("expected mask round trip, got %b", got)
	}
}

func TestShieldToggleNeedsEnergy(t *testing.T) {
	_, c := newTestCraft()
	if c.ToggleShield() || c.Shield.Active {
		t.Error("empty shield should not raise")
	}
	c.Shield.Charge(ShieldPickupBoost)
	if !c.ToggleShield() || !c.Shield.Active {
		t.Error("charged shield should raise")
	}
	if !c.Shield.AbsorbDamage(60) {
		t.Error("expected hit absorbed")
	}
	if c.Shield.Active || c.Shield.Energy != 0 {
		t.Errorf("expected drained shield to drop, active=%v energy=%f", c.Shield.Active, c.Shield.Energy)
	}
}
