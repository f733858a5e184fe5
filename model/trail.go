package model

import "github.com/MarekWiejak/stagesim/geom"

// RecordTrail appends a checkpoint to the bounded trail ring when tick is
// a multiple of 10 and ignores every other tick, dropping the oldest
// entry once the trail reaches its capacity (spec S6: bounded to 100
// entries). World.UpdatePose calls this on every pose update.
func (m *Model) RecordTrail(tick uint64) {
	if tick%trailStride != 0 {
		return
	}

	entry := TrailEntry{Pose: m.GetGlobalPose(), Color: m.color, Tick: tick}
	if len(m.trail) >= trailCapacity {
		m.trail = append(m.trail[1:], entry)
		return
	}
	m.trail = append(m.trail, entry)
}

// Trail returns the model's recorded pose history, oldest first. The
// returned slice must not be mutated by the caller.
func (m *Model) Trail() []TrailEntry { return m.trail }

// ResetOdom zeroes the accumulated odometry drift.
func (m *Model) ResetOdom() { m.Odom = geom.Pose{} }
