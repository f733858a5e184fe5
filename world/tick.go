package world

import (
	"github.com/MarekWiejak/stagesim/featureflag"
	"github.com/MarekWiejak/stagesim/geom"
	"github.com/MarekWiejak/stagesim/model"
	"github.com/MarekWiejak/stagesim/spatial"
	"github.com/aukilabs/go-tooling/pkg/logs"
)

const microsecondsPerSecond = 1_000_000

// UpdatePose advances one velocity-listed model by one simulation step:
// it records a trail checkpoint every 10th tick, computes the pose delta
// from velocity and IntervalSim, tests the delta for collision, and
// commits or stalls (spec §4.5).
func (w *World) UpdatePose(m *model.Model) {
	if !w.flags.IsSet(featureflag.FlagDisableTrailRecording) {
		m.RecordTrail(w.tickCount)
	}

	dt := float64(w.IntervalSim) / microsecondsPerSecond
	v := m.Velocity()
	delta := geom.Pose{X: v.X * dt, Y: v.Y * dt, Z: v.Z * dt, A: v.A * dt}

	hit, collided := w.TestCollision(m, delta)

	if collided {
		m.SetStall(true)
		w.instrumentStall()
		logs.WithTag("model", m.Token()).WithTag("hit", hit.Model.Token()).Debug("collision stall")
	} else {
		m.SetStall(false)
		oldPose := m.Pose()
		newPose := geom.PoseSum(oldPose, delta)
		m.CommitKinematicPose(newPose)

		odom := m.Odom
		m.Odom = geom.Pose{
			X: odom.X + (newPose.X - oldPose.X),
			Y: odom.Y + (newPose.Y - oldPose.Y),
			Z: odom.Z + (newPose.Z - oldPose.Z),
			A: geom.Normalize(odom.A + (newPose.A - oldPose.A)),
		}
	}

	m.MapTree()
}

// Raytrace delegates to the spatial index, excluding requester's own
// blocks by id.
func (w *World) Raytrace(origin geom.Vec2, originZ, bearing, rangeMeters float64, requester *model.Model, ztest bool, pred spatial.Predicate) spatial.Sample {
	return w.Index.Raytrace(origin, originZ, bearing, rangeMeters, requester.ID(), ztest, pred)
}

// RaytraceFan delegates a fan of rays to the spatial index.
func (w *World) RaytraceFan(origin geom.Vec2, originZ, bearing, rangeMeters, fov float64, n int, requester *model.Model, ztest bool, pred spatial.Predicate) []spatial.Sample {
	return w.Index.RaytraceFan(origin, originZ, bearing, rangeMeters, fov, n, requester.ID(), ztest, pred)
}

// Tick advances sim_time by IntervalSim, updates every velocity-listed
// model's pose, and dispatches UpdateIfDue to every model on the update
// list (spec §4.5's Tick).
func (w *World) Tick() {
	w.SimTime += w.IntervalSim
	w.tickCount++
	w.instrumentTick()

	for _, m := range w.velocityList {
		w.UpdatePose(m)
	}
	for _, m := range w.updateList {
		m.UpdateIfDue(w.SimTime)
	}
}
