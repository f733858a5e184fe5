package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	require.InDelta(t, 0, Normalize(0), 1e-9)
	require.InDelta(t, math.Pi, Normalize(math.Pi), 1e-9)
	require.InDelta(t, -math.Pi+0.1, Normalize(math.Pi+0.1), 1e-9)
	require.InDelta(t, 0, Normalize(2*math.Pi), 1e-9)
}

func TestPoseSumIdentity(t *testing.T) {
	a := Pose{X: 1, Y: 2, Z: 3, A: math.Pi / 4}
	zero := Pose{}

	got := PoseSum(a, zero)
	require.InDelta(t, a.X, got.X, 1e-9)
	require.InDelta(t, a.Y, got.Y, 1e-9)
	require.InDelta(t, a.Z, got.Z, 1e-9)
	require.InDelta(t, a.A, got.A, 1e-9)
}

// S1 from the spec: parent at (1,0,0,pi/2), child local pose (1,0,0,0)
// composes to (1,1,0,pi/2) before the Z shift that model.GetGlobalPose adds.
func TestPoseSumHierarchical(t *testing.T) {
	parent := Pose{X: 1, Y: 0, Z: 0, A: math.Pi / 2}
	child := Pose{X: 1, Y: 0, Z: 0, A: 0}

	got := PoseSum(parent, child)
	require.InDelta(t, 1, got.X, 1e-9)
	require.InDelta(t, 1, got.Y, 1e-9)
	require.InDelta(t, math.Pi/2, got.A, 1e-9)
}

// Invariant 5: global_to_local is the exact inverse of pose_sum.
func TestGlobalToLocalInvertsPoseSum(t *testing.T) {
	frame := Pose{X: -3.5, Y: 2.1, Z: 0.4, A: 1.1}
	p := Pose{X: 0.7, Y: -1.2, Z: 0.1, A: -2.9}

	global := PoseSum(frame, p)
	back := GlobalToLocal(frame, global)

	require.InDelta(t, p.X, back.X, 1e-9)
	require.InDelta(t, p.Y, back.Y, 1e-9)
	require.InDelta(t, p.Z, back.Z, 1e-9)
	require.InDelta(t, Normalize(p.A), back.A, 1e-9)
}

func TestBoundsOf(t *testing.T) {
	pts := []Vec2{{X: -1, Y: 2}, {X: 3, Y: -4}, {X: 0, Y: 0}}
	b := BoundsOf(pts)
	require.Equal(t, Vec2{X: -1, Y: -4}, b.Min)
	require.Equal(t, Vec2{X: 3, Y: 2}, b.Max)
}

func TestBoundsOfEmptyPanics(t *testing.T) {
	require.Panics(t, func() { BoundsOf(nil) })
}
