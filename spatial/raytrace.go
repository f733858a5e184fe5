package spatial

import (
	"math"

	"github.com/MarekWiejak/stagesim/geom"
)

// rayEpsilon pushes a ray fractionally past a tile boundary so the next
// floor() lands in the next tile rather than back on the one just left.
const rayEpsilon = 1e-6

// Predicate decides whether a hit occupant terminates the ray. The index
// has already excluded occupants owned by requesterID and, if ztest is
// set, occupants whose Z band misses the query Z, before calling this.
type Predicate func(occ Occupant, requesterID uint32) bool

// Sample is the result of a single ray. Occupant is nil when the ray left
// the world or reached range without a hit; Point and Range are still
// filled in with the ray's terminal position in that case.
type Sample struct {
	Point    geom.Vec2
	Z        float64
	Range    float64
	Occupant Occupant
}

// Hit reports whether the ray terminated on an occupant rather than
// running out of range or leaving the world.
func (s Sample) Hit() bool {
	return s.Occupant != nil
}

func axisBoundaryT(origin, dir, t, tile float64) float64 {
	if dir == 0 {
		return math.Inf(1)
	}

	pos := origin + dir*t
	idx := math.Floor(pos / tile)

	var boundary float64
	if dir > 0 {
		boundary = (idx + 1) * tile
	} else {
		boundary = idx * tile
	}
	return (boundary - origin) / dir
}

func tileExitT(ox, oy, dx, dy, t, tile float64) float64 {
	tx := axisBoundaryT(ox, dx, t, tile)
	ty := axisBoundaryT(oy, dy, t, tile)
	if tx < ty {
		return tx
	}
	return ty
}

func zOverlap(z float64, occ Occupant) bool {
	min, max := occ.ZBand()
	return z >= min && z <= max
}

// Raytrace walks an integer DDA from origin along bearing, up to range
// meters, at the resolution the index was built at. At each pixel it
// consults the owning region and superregion's non-zero-pixel counters
// before scanning the pixel's occupant list, so empty space costs O(1)
// tile jumps rather than a pixel-by-pixel walk (spec S3).
//
// ztest, when true, rejects occupants whose ZBand() does not contain
// originZ; callers raytracing on behalf of a model should pass that
// model's GetGlobalPose().Z unless they have an explicit reason to probe
// a different height.
func (idx *Index) Raytrace(origin geom.Vec2, originZ, bearing, rangeMeters float64, requesterID uint32, ztest bool, pred Predicate) Sample {
	ox := origin.X * idx.PPM
	oy := origin.Y * idx.PPM
	dx := math.Cos(bearing)
	dy := math.Sin(bearing)
	rangePixels := rangeMeters * idx.PPM

	t := 0.0
	maxSteps := int(rangePixels)*2 + 64

	for step := 0; step <= maxSteps; step++ {
		if t > rangePixels {
			break
		}

		px := math.Floor(ox + dx*t)
		py := math.Floor(oy + dy*t)
		coord := Coord{X: int32(px), Y: int32(py)}

		sr := idx.getSuperregion(coord)
		if sr == nil || sr.nonZeroPixels == 0 {
			idx.SuperregionsSkipped++
			next := tileExitT(ox, oy, dx, dy, t, float64(idx.SuperregionPixels))
			if next <= t {
				next = t + rayEpsilon
			}
			t = next + rayEpsilon
			continue
		}

		lx, ly := idx.localCoord(coord)
		region := sr.regions[idx.regionIndex(lx, ly)]
		if region == nil || region.nonZeroPixels == 0 {
			idx.RegionsSkipped++
			next := tileExitT(ox, oy, dx, dy, t, float64(idx.RegionPixels))
			if next <= t {
				next = t + rayEpsilon
			}
			t = next + rayEpsilon
			continue
		}

		idx.PixelsVisited++
		for n := region.pixels[idx.pixelIndex(lx, ly)]; n != nil; n = n.next {
			if n.occupant.OwnerID() == requesterID {
				continue
			}
			if ztest && !zOverlap(originZ, n.occupant) {
				continue
			}
			if pred(n.occupant, requesterID) {
				return Sample{
					Point:    geom.Vec2{X: (ox + dx*t) / idx.PPM, Y: (oy + dy*t) / idx.PPM},
					Z:        originZ,
					Range:    t / idx.PPM,
					Occupant: n.occupant,
				}
			}
		}

		next := tileExitT(ox, oy, dx, dy, t, 1)
		if next <= t {
			next = t + rayEpsilon
		}
		t = next + rayEpsilon
	}

	finalT := math.Min(t, rangePixels)
	if finalT < 0 {
		finalT = 0
	}
	return Sample{
		Point: geom.Vec2{X: (ox + dx*finalT) / idx.PPM, Y: (oy + dy*finalT) / idx.PPM},
		Z:     originZ,
		Range: finalT / idx.PPM,
	}
}

// RaytraceFan dispatches n evenly spaced rays spanning fov centered on
// bearing, indexed 0..n-1 from bearing-fov/2 to bearing+fov/2.
func (idx *Index) RaytraceFan(origin geom.Vec2, originZ, bearing, rangeMeters, fov float64, n int, requesterID uint32, ztest bool, pred Predicate) []Sample {
	samples := make([]Sample, n)
	if n == 1 {
		samples[0] = idx.Raytrace(origin, originZ, bearing, rangeMeters, requesterID, ztest, pred)
		return samples
	}

	start := bearing - fov/2
	step := fov / float64(n-1)
	for i := 0; i < n; i++ {
		angle := start + step*float64(i)
		samples[i] = idx.Raytrace(origin, originZ, angle, rangeMeters, requesterID, ztest, pred)
	}
	return samples
}
