package block

import (
	"testing"

	"github.com/MarekWiejak/stagesim/geom"
	"github.com/MarekWiejak/stagesim/spatial"
	"github.com/stretchr/testify/require"
)

type fakeOwner struct {
	id    uint32
	token string
	pose  geom.Pose
}

func (o *fakeOwner) ID() uint32      { return o.id }
func (o *fakeOwner) Token() string   { return o.token }
func (o *fakeOwner) LocalToGlobal(p geom.Pose) geom.Pose {
	return geom.PoseSum(o.pose, p)
}

func square(half float64) []geom.Vec2 {
	return []geom.Vec2{
		{X: -half, Y: -half},
		{X: half, Y: -half},
		{X: half, Y: half},
		{X: -half, Y: half},
	}
}

func TestNewPanicsOnTooFewPoints(t *testing.T) {
	owner := &fakeOwner{id: 1, token: "m1"}
	require.Panics(t, func() {
		New(owner, []geom.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}}, 0, 1, Color{}, false)
	})
}

func TestMapInsertsPixelsAndUnMapRemovesThem(t *testing.T) {
	idx := spatial.NewIndex(10, 64, 16)
	owner := &fakeOwner{id: 1, token: "m1", pose: geom.Pose{X: 0, Y: 0, Z: 0, A: 0}}
	b := New(owner, square(0.5), 0, 1, Color{R: 1}, false)

	require.False(t, b.Mapped())
	b.Map(idx)
	require.True(t, b.Mapped())

	corner := spatial.Coord{
		X: spatial.MetersToPixels(0.5, idx.PPM),
		Y: spatial.MetersToPixels(0.5, idx.PPM),
	}
	occs := idx.Occupants(corner)
	require.Len(t, occs, 1)
	require.Same(t, b, occs[0])

	b.UnMap()
	require.False(t, b.Mapped())
	require.Empty(t, idx.Occupants(corner))
}

func TestMapPanicsWhenAlreadyMapped(t *testing.T) {
	idx := spatial.NewIndex(10, 64, 16)
	owner := &fakeOwner{id: 1, token: "m1"}
	b := New(owner, square(0.5), 0, 1, Color{}, false)

	b.Map(idx)
	require.Panics(t, func() { b.Map(idx) })
}

func TestUnMapPanicsWhenNotMapped(t *testing.T) {
	owner := &fakeOwner{id: 1, token: "m1"}
	b := New(owner, square(0.5), 0, 1, Color{}, false)

	require.Panics(t, func() { b.UnMap() })
}

func TestMapUsesOwnerPoseForGlobalPixels(t *testing.T) {
	idx := spatial.NewIndex(10, 64, 16)
	owner := &fakeOwner{id: 1, token: "m1", pose: geom.Pose{X: 10, Y: 0, Z: 2, A: 0}}
	b := New(owner, square(0.5), 0, 1, Color{}, false)

	b.Map(idx)

	origin := spatial.Coord{X: spatial.MetersToPixels(0, idx.PPM), Y: spatial.MetersToPixels(0, idx.PPM)}
	require.Empty(t, idx.Occupants(origin))

	shifted := spatial.Coord{X: spatial.MetersToPixels(10.5, idx.PPM), Y: spatial.MetersToPixels(0.5, idx.PPM)}
	require.Len(t, idx.Occupants(shifted), 1)

	require.InDelta(t, 2, b.GlobalZMin, 1e-9)
	require.InDelta(t, 3, b.GlobalZMax, 1e-9)
}

func TestOwnerIDAndZBandImplementOccupant(t *testing.T) {
	idx := spatial.NewIndex(10, 64, 16)
	owner := &fakeOwner{id: 42, token: "m1"}
	b := New(owner, square(0.5), 1, 2, Color{}, false)
	b.Map(idx)

	require.EqualValues(t, 42, b.OwnerID())
	min, max := b.ZBand()
	require.InDelta(t, 1, min, 1e-9)
	require.InDelta(t, 2, max, 1e-9)
}

func TestScaleListUnmapsAndRescales(t *testing.T) {
	idx := spatial.NewIndex(10, 64, 16)
	owner := &fakeOwner{id: 1, token: "m1"}

	b1 := New(owner, []geom.Vec2{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 2}, {X: 0, Y: 2}}, 0, 4, Color{}, false)
	b1.Map(idx)
	require.True(t, b1.Mapped())

	ScaleList([]*Block{b1}, geom.Size{X: 1, Y: 1, Z: 1})

	require.False(t, b1.Mapped())

	bounds := geom.BoundsOf(b1.Points)
	require.InDelta(t, -0.5, bounds.Min.X, 1e-9)
	require.InDelta(t, 0.5, bounds.Max.X, 1e-9)
	require.InDelta(t, -0.5, bounds.Min.Y, 1e-9)
	require.InDelta(t, 0.5, bounds.Max.Y, 1e-9)
	require.InDelta(t, 1, b1.ZMax, 1e-9)
}

func TestScaleListEmptyIsNoop(t *testing.T) {
	require.NotPanics(t, func() {
		ScaleList(nil, geom.Size{X: 1, Y: 1, Z: 1})
	})
}
