// Package common holds the planar math shared by the navigation and
// simulation packages. All positions and velocities are 2D; elevation is a
// property of the mesh, not of the vectors.
package common

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec2 is the vector type used throughout the engine.
type Vec2 = mgl64.Vec2

// AgentID is a dense handle, stable for the lifetime of the agent.
// Retired ids are never reissued.
type AgentID int

const Epsilon = 1e-5

// Sqr returns the square of the value.
func Sqr(a float64) float64 { return a * a }

// Det returns the 2D cross product (determinant) of a and b.
func Det(a, b Vec2) float64 {
	return a[0]*b[1] - a[1]*b[0]
}

// Dist returns the distance between two points.
func Dist(a, b Vec2) float64 {
	return b.Sub(a).Len()
}

// DistSqr returns the squared distance between two points.
func DistSqr(a, b Vec2) float64 {
	d := b.Sub(a)
	return d[0]*d[0] + d[1]*d[1]
}

// Norm returns v scaled to unit length. The zero vector stays zero.
func Norm(v Vec2) Vec2 {
	l := v.Len()
	if l < Epsilon {
		return Vec2{}
	}
	return v.Mul(1 / l)
}

// LeftOf returns a positive value when p lies to the left of the directed
// segment a->b, negative to the right, zero when collinear.
func LeftOf(a, b, p Vec2) float64 {
	return Det(b.Sub(a), p.Sub(a))
}

// TriArea2D returns twice the signed area of triangle (a, b, c).
func TriArea2D(a, b, c Vec2) float64 {
	return Det(b.Sub(a), c.Sub(a))
}

// DistPtSegSqr returns the squared distance from p to segment (a, b).
func DistPtSegSqr(p, a, b Vec2) float64 {
	seg := b.Sub(a)
	segLen := seg[0]*seg[0] + seg[1]*seg[1]
	if segLen < Epsilon*Epsilon {
		return DistSqr(p, a)
	}
	t := p.Sub(a).Dot(seg) / segLen
	t = Clamp(t, 0, 1)
	return DistSqr(p, a.Add(seg.Mul(t)))
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

// Rotate returns v rotated counter-clockwise by the angle whose cosine and
// sine are given.
func Rotate(v Vec2, cos, sin float64) Vec2 {
	return Vec2{cos*v[0] - sin*v[1], sin*v[0] + cos*v[1]}
}

// AngleBetween returns the unsigned angle between two unit vectors.
func AngleBetween(a, b Vec2) float64 {
	return math.Acos(Clamp(a.Dot(b), -1, 1))
}
