package main

import "github.com/go-gl/mathgl/mgl64"

// CheckCollision checks if two spheres overlap
func CheckCollision(p1 mgl64.Vec3, r1 float64, p2 mgl64.Vec3, r2 float64) bool {
	radSum := r1 + r2
	return p2.Sub(p1).LenSqr() <= radSum*radSum
}

// WithinRange reports whether b lies strictly closer than r to a
func WithinRange(a, b mgl64.Vec3, r float64) bool {
	return b.Sub(a).LenSqr() < r*r
}

// contact describes the overlap between two spheres
type contact struct {
	Normal      mgl64.Vec3 // unit vector pointing from B towards A
	Penetration float64
}

// sphereContact returns the contact between sphere A and sphere B, if any.
// Coincident centres fall back to +X so the pair still separates.
func sphereContact(pa mgl64.Vec3, ra float64, pb mgl64.Vec3, rb float64) (contact, bool) {
	d := pa.Sub(pb)
	dist := d.Len()
	radSum := ra + rb
	if dist >= radSum {
		return contact{}, false
	}
	n := mgl64.Vec3{1, 0, 0}
	if dist > vecEpsilon {
		n = d.Mul(1 / dist)
	}
	return contact{Normal: n, Penetration: radSum - dist}, true
}
