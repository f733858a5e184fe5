// Package geom implements the 2D pose algebra the rest of the engine is
// built on: composing and inverting poses expressed in a parent frame,
// and normalizing headings into (-pi, pi].
package geom

import "math"

// Vec2 is a 2D point or vector in meters.
type Vec2 struct {
	X, Y float64
}

// Pose is a position, height and heading. Heading A is always normalized
// to (-pi, pi].
type Pose struct {
	X, Y, Z, A float64
}

// Velocity is a linear rate in the body frame plus an angular rate.
type Velocity struct {
	X, Y, Z, A float64
}

// IsZero reports whether every component of v is zero.
func (v Velocity) IsZero() bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0 && v.A == 0
}

// Size is the extent of a body along each axis.
type Size struct {
	X, Y, Z float64
}

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min, Max Vec2
}

// BoundsOf returns the axis-aligned bounding box of pts. It panics if pts
// is empty: a zero-point polygon is a programming error, not a runtime one.
func BoundsOf(pts []Vec2) Bounds {
	if len(pts) == 0 {
		panic("geom: BoundsOf of empty point set")
	}

	b := Bounds{Min: pts[0], Max: pts[0]}
	for _, p := range pts[1:] {
		if p.X < b.Min.X {
			b.Min.X = p.X
		}
		if p.Y < b.Min.Y {
			b.Min.Y = p.Y
		}
		if p.X > b.Max.X {
			b.Max.X = p.X
		}
		if p.Y > b.Max.Y {
			b.Max.Y = p.Y
		}
	}
	return b
}

// Normalize shifts a into (-pi, pi]. It panics if a is not finite: a NaN
// or infinite heading is a programming error upstream (spec invariant),
// not a value that should propagate silently through the pose tree.
func Normalize(a float64) float64 {
	if math.IsNaN(a) || math.IsInf(a, 0) {
		panic("geom: heading is not finite")
	}

	a = math.Mod(a, 2*math.Pi)
	switch {
	case a <= -math.Pi:
		a += 2 * math.Pi
	case a > math.Pi:
		a -= 2 * math.Pi
	}
	return a
}

// PoseSum composes b, expressed in a's frame, into the world frame.
func PoseSum(a, b Pose) Pose {
	cosa := math.Cos(a.A)
	sina := math.Sin(a.A)

	return Pose{
		X: a.X + b.X*cosa - b.Y*sina,
		Y: a.Y + b.X*sina + b.Y*cosa,
		Z: a.Z + b.Z,
		A: Normalize(a.A + b.A),
	}
}

// GlobalToLocal inverts PoseSum: given a pose p in the world frame, it
// returns the pose expressed in frame's coordinate system, such that
// PoseSum(frame, GlobalToLocal(frame, p)) == p.
func GlobalToLocal(frame, p Pose) Pose {
	cosa := math.Cos(frame.A)
	sina := math.Sin(frame.A)

	dx := p.X - frame.X
	dy := p.Y - frame.Y

	return Pose{
		X: dx*cosa + dy*sina,
		Y: -dx*sina + dy*cosa,
		Z: p.Z - frame.Z,
		A: Normalize(p.A - frame.A),
	}
}

// LocalToGlobalPoint transforms a local-frame point at local height z into
// the world frame, using only the frame's pose (no scale).
func LocalToGlobalPoint(frame Pose, p Vec2, z float64) (Vec2, float64) {
	gp := PoseSum(frame, Pose{X: p.X, Y: p.Y, Z: z, A: 0})
	return Vec2{X: gp.X, Y: gp.Y}, gp.Z
}
