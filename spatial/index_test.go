package spatial

import (
	"testing"

	"github.com/MarekWiejak/stagesim/geom"
	"github.com/stretchr/testify/require"
)

type fakeOccupant struct {
	owner    uint32
	min, max float64
}

func (f *fakeOccupant) OwnerID() uint32          { return f.owner }
func (f *fakeOccupant) ZBand() (float64, float64) { return f.min, f.max }

func TestAddBlockPixelIncrementsCounters(t *testing.T) {
	idx := NewIndex(10, 64, 16)
	occ := &fakeOccupant{owner: 1, min: 0, max: 1}

	h := idx.AddBlockPixel(Coord{X: 5, Y: 5}, occ)

	sr := idx.getSuperregion(Coord{X: 5, Y: 5})
	require.NotNil(t, sr)
	require.EqualValues(t, 1, sr.nonZeroPixels)

	lx, ly := idx.localCoord(Coord{X: 5, Y: 5})
	region := sr.regions[idx.regionIndex(lx, ly)]
	require.NotNil(t, region)
	require.EqualValues(t, 1, region.nonZeroPixels)

	occs := idx.Occupants(Coord{X: 5, Y: 5})
	require.Len(t, occs, 1)
	require.Same(t, occ, occs[0])

	h.Release()

	require.EqualValues(t, 0, sr.nonZeroPixels)
	require.EqualValues(t, 0, region.nonZeroPixels)
	require.Empty(t, idx.Occupants(Coord{X: 5, Y: 5}))
}

// Map/UnMap inverse (spec invariant 2 / S4): inserting then releasing a
// batch of handles leaves the index exactly as it was before the insert.
func TestAddReleaseIsExactInverse(t *testing.T) {
	idx := NewIndex(10, 64, 16)
	occ := &fakeOccupant{owner: 1}

	coords := []Coord{{1, 1}, {1, 2}, {2, 1}, {40, 40}, {-5, -5}}

	var handles []Handle
	for _, c := range coords {
		handles = append(handles, idx.AddBlockPixel(c, occ))
	}
	for _, c := range coords {
		require.Len(t, idx.Occupants(c), 1)
	}

	for _, h := range handles {
		h.Release()
	}
	for _, c := range coords {
		require.Empty(t, idx.Occupants(c))
	}

	// re-map and verify identical occupancy to the first pass
	handles = nil
	for _, c := range coords {
		handles = append(handles, idx.AddBlockPixel(c, occ))
	}
	for _, c := range coords {
		require.Len(t, idx.Occupants(c), 1)
	}
}

func TestAddBlockPixelMultipleOccupantsRemoveMiddle(t *testing.T) {
	idx := NewIndex(10, 64, 16)
	a := &fakeOccupant{owner: 1}
	b := &fakeOccupant{owner: 2}
	c := &fakeOccupant{owner: 3}

	ha := idx.AddBlockPixel(Coord{0, 0}, a)
	hb := idx.AddBlockPixel(Coord{0, 0}, b)
	hc := idx.AddBlockPixel(Coord{0, 0}, c)
	_ = ha

	hb.Release()

	occs := idx.Occupants(Coord{0, 0})
	require.Len(t, occs, 2)
	require.Contains(t, occs, Occupant(a))
	require.Contains(t, occs, Occupant(c))

	hc.Release()
	require.Len(t, idx.Occupants(Coord{0, 0}), 1)
}

func TestRaytraceSkipsEmptySuperregions(t *testing.T) {
	idx := NewIndex(1, 64, 16) // ppm=1: 1 pixel per meter
	occ := &fakeOccupant{owner: 2, min: -1, max: 1}
	idx.AddBlockPixel(Coord{X: 900, Y: 0}, occ)

	idx.ResetStats()
	sample := idx.Raytrace(geom.Vec2{X: 0, Y: 0}, 0, 0, 1000, 1, false,
		func(o Occupant, requester uint32) bool { return true })

	require.True(t, sample.Hit())
	require.Same(t, occ, sample.Occupant)
	require.InDelta(t, 900, sample.Range, 1)

	// S3: far fewer region visits than pixels traversed by the ray.
	require.Less(t, idx.PixelsVisited, uint64(40))
	require.Greater(t, idx.SuperregionsSkipped+idx.RegionsSkipped, uint64(0))
}

func TestRaytraceNoHitReturnsTerminalPoint(t *testing.T) {
	idx := NewIndex(1, 64, 16)

	sample := idx.Raytrace(geom.Vec2{X: 0, Y: 0}, 0, 0, 50, 1, false,
		func(o Occupant, requester uint32) bool { return true })

	require.False(t, sample.Hit())
	require.InDelta(t, 50, sample.Range, 1)
}

func TestRaytraceExcludesRequester(t *testing.T) {
	idx := NewIndex(1, 64, 16)
	mine := &fakeOccupant{owner: 7, min: -1, max: 1}
	idx.AddBlockPixel(Coord{X: 5, Y: 0}, mine)

	sample := idx.Raytrace(geom.Vec2{X: 0, Y: 0}, 0, 0, 50, 7, false,
		func(o Occupant, requester uint32) bool { return true })

	require.False(t, sample.Hit())
}

func TestRaytraceZFilter(t *testing.T) {
	idx := NewIndex(1, 64, 16)
	low := &fakeOccupant{owner: 2, min: 0, max: 0.5}
	idx.AddBlockPixel(Coord{X: 5, Y: 0}, low)

	sample := idx.Raytrace(geom.Vec2{X: 0, Y: 0}, 2.0, 0, 50, 1, true,
		func(o Occupant, requester uint32) bool { return true })
	require.False(t, sample.Hit())

	sample = idx.Raytrace(geom.Vec2{X: 0, Y: 0}, 0.2, 0, 50, 1, true,
		func(o Occupant, requester uint32) bool { return true })
	require.True(t, sample.Hit())
}

func TestRaytraceFanIndexing(t *testing.T) {
	idx := NewIndex(1, 64, 16)

	samples := idx.RaytraceFan(geom.Vec2{X: 0, Y: 0}, 0, 0, 10, 1.0, 5, 1, false,
		func(o Occupant, requester uint32) bool { return true })

	require.Len(t, samples, 5)
}
