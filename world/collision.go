package world

import (
	"math"

	"github.com/MarekWiejak/stagesim/block"
	"github.com/MarekWiejak/stagesim/featureflag"
	"github.com/MarekWiejak/stagesim/geom"
	"github.com/MarekWiejak/stagesim/model"
	"github.com/MarekWiejak/stagesim/spatial"
)

// CollisionHit describes the result of a positive TestCollision.
type CollisionHit struct {
	Model *model.Model
	Point geom.Vec2
}

// TestCollision speculatively applies delta (a body-frame pose delta) to
// mover and raytraces, for every block, both (a) each vertex's swept path
// from its current to its candidate position, and (b) each polygon edge
// at the candidate position, against the spatial index, with the mover
// unmapped so it cannot self-hit. The vertex sweep is what makes a
// single-tick delta that would otherwise tunnel straight through a thin
// obstacle (spec §8 S2's large-velocity case) still register a hit;
// model_pose.c's own edge-at-final-pose test alone cannot.
//
// A block terminates a ray iff its owning model is not related to mover
// (shares no root — stricter than plain identity exclusion, following
// model_pose.c's lines_raytrace_match) and that model's ObstacleReturn is
// true. The first hit, in block-then-edge order, wins.
//
// The mover is left unmapped on return; the caller (UpdatePose) commits
// or discards the pose change and remaps exactly once.
func (w *World) TestCollision(mover *model.Model, delta geom.Pose) (CollisionHit, bool) {
	current := w.frameOf(mover, mover.Pose())

	mover.UnmapTree()

	candidatePose := geom.PoseSum(mover.Pose(), delta)
	candidate := w.frameOf(mover, candidatePose)

	pred := func(occ spatial.Occupant, requesterID uint32) bool {
		owner, ok := w.byID[occ.OwnerID()]
		if !ok {
			return false
		}
		if mover.IsRelated(owner) {
			return false
		}
		return owner.ObstacleReturn
	}

	for _, blk := range mover.Blocks() {
		oldPts := globalPoints(current, blk)
		newPts := globalPoints(candidate, blk)
		n := len(newPts)

		if !w.flags.IsSet(featureflag.FlagDisableVertexSweep) {
			for i := 0; i < n; i++ {
				if sample, ok := traceSegment(w.Index, oldPts[i], newPts[i], candidate.Z, mover.ID(), pred); ok {
					return CollisionHit{Model: w.byID[sample.Occupant.OwnerID()], Point: sample.Point}, true
				}
			}
		}

		for i := 0; i < n; i++ {
			a := newPts[i]
			b := newPts[(i+1)%n]
			if sample, ok := traceSegment(w.Index, a, b, candidate.Z, mover.ID(), pred); ok {
				return CollisionHit{Model: w.byID[sample.Occupant.OwnerID()], Point: sample.Point}, true
			}
		}
	}

	return CollisionHit{}, false
}

func traceSegment(idx *spatial.Index, a, b geom.Vec2, z float64, requesterID uint32, pred spatial.Predicate) (spatial.Sample, bool) {
	dx := b.X - a.X
	dy := b.Y - a.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return spatial.Sample{}, false
	}
	bearing := math.Atan2(dy, dx)

	sample := idx.Raytrace(a, z, bearing, length, requesterID, false, pred)
	return sample, sample.Hit()
}

// frameOf computes the world-frame transform (global pose composed with
// the body-center offset) mover's blocks would be transformed through if
// mover's local pose were localPose, without mutating mover.
func (w *World) frameOf(mover *model.Model, localPose geom.Pose) geom.Pose {
	parent := mover.Parent()

	var global geom.Pose
	if parent == nil {
		global = localPose
	} else {
		global = geom.PoseSum(parent.GetGlobalPose(), localPose)
		global.Z += parent.Size().Z
	}
	return geom.PoseSum(global, mover.GeomOffset())
}

// globalPoints transforms blk's polygon vertices through frame.
func globalPoints(frame geom.Pose, blk *block.Block) []geom.Vec2 {
	pts := make([]geom.Vec2, len(blk.Points))
	for i, p := range blk.Points {
		gp := geom.PoseSum(frame, geom.Pose{X: p.X, Y: p.Y, Z: blk.ZMin, A: 0})
		pts[i] = geom.Vec2{X: gp.X, Y: gp.Y}
	}
	return pts
}
