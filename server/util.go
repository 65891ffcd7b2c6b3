package main

import (
	"crypto/rand"
	"encoding/hex"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// epsilon below which a vector is treated as zero length
const vecEpsilon = 1e-9

// GenerateID returns a random hex string of the given byte length
func GenerateID(byteLen int) string {
	b := make([]byte, byteLen)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// GenerateUUID returns a random v4 UUID string (used for session ids)
func GenerateUUID() string {
	return uuid.NewString()
}

// Clamp restricts v to [min, max]
func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// ClampInt restricts v to [min, max]
func ClampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// SafeNormalize returns v scaled to unit length, or the zero vector when v is
// degenerate.
func SafeNormalize(v mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if l < vecEpsilon || math.IsNaN(l) || math.IsInf(l, 0) {
		return mgl64.Vec3{}
	}
	return v.Mul(1 / l)
}

// Distance returns the distance between two points
func Distance(a, b mgl64.Vec3) float64 {
	return b.Sub(a).Len()
}

// ClampLen limits the length of v to max
func ClampLen(v mgl64.Vec3, max float64) mgl64.Vec3 {
	l := v.Len()
	if l > max && l > vecEpsilon {
		return v.Mul(max / l)
	}
	return v
}

// mulElem multiplies two vectors component-wise
func mulElem(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

// round2 rounds to 2 decimal places for wire output
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func vecState(v mgl64.Vec3) [3]float64 {
	return [3]float64{round2(v[0]), round2(v[1]), round2(v[2])}
}

// perFrame converts a per-frame factor (authored at 60 fps) to one for dt
// seconds, so damping behaves the same at any tick rate.
func perFrame(factor, dt float64) float64 {
	return math.Pow(factor, dt*60)
}
