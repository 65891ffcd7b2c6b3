package main

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestModifierExpires(t *testing.T) {
	var m ModifierList
	m.Add(ModSpeed, 1.5, 2, 10)
	if !m.Active(ModSpeed) || m.Factor(ModSpeed) != 1.5 {
		t.Fatalf("fresh modifier: active=%v factor=%f", m.Active(ModSpeed), m.Factor(ModSpeed))
	}

	m.Prune(11.9)
	if m.Len() != 1 {
		t.Error("modifier dropped before expiry")
	}
	m.Prune(12)
	if m.Len() != 0 || m.Active(ModSpeed) || m.Factor(ModSpeed) != 1 {
		t.Error("modifier should be gone at its expiry time")
	}
}

func TestModifierFactorsStack(t *testing.T) {
	var m ModifierList
	m.Add(ModSpeed, 1.5, 0, 10)
	m.Add(ModSpeed, 2, 0, 5)
	if got := m.Factor(ModSpeed); got != 3 {
		t.Errorf("stacked factor = %f, want 3", got)
	}
	m.Prune(6)
	if got := m.Factor(ModSpeed); got != 1.5 {
		t.Errorf("factor after the short one expired = %f", got)
	}
	m.Clear()
	if m.Len() != 0 {
		t.Error("Clear should empty the list")
	}
}

func TestSafeNormalize(t *testing.T) {
	if v := SafeNormalize(mgl64.Vec3{}); v != (mgl64.Vec3{}) {
		t.Errorf("zero vector normalized to %v", v)
	}
	v := SafeNormalize(mgl64.Vec3{3, 0, 4})
	if math.Abs(v.Len()-1) > 1e-9 || math.Abs(v[0]-0.6) > 1e-9 {
		t.Errorf("SafeNormalize = %v", v)
	}
}

func TestClampLen(t *testing.T) {
	v := ClampLen(mgl64.Vec3{30, 40, 0}, 5)
	if math.Abs(v.Len()-5) > 1e-9 {
		t.Errorf("clamped length = %f", v.Len())
	}
	short := mgl64.Vec3{1, 0, 0}
	if ClampLen(short, 5) != short {
		t.Error("short vectors pass through unchanged")
	}
}

func TestPerFrameMatchesSixtyHertz(t *testing.T) {
	if got := perFrame(0.5, 1.0/60); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("one frame = %f, want 0.5", got)
	}
	if got := perFrame(0.5, 2.0/60); math.Abs(got-0.25) > 1e-12 {
		t.Errorf("two frames = %f, want 0.25", got)
	}
}
