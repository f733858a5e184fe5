package model

import "github.com/MarekWiejak/stagesim/geom"

// SetPose unmaps the model and every descendant, normalizes and assigns
// the new local pose, marks this subtree's global pose dirty, remaps,
// and fires ChangePose regardless of whether p equals the prior pose —
// matching model.cc's SetPose, which calls CallCallbacks unconditionally.
func (m *Model) SetPose(p geom.Pose) {
	m.unmapWithChildren()

	p.A = geom.Normalize(p.A)
	m.pose = p
	m.dirtyTree()

	m.mapWithChildren()
	m.fire(ChangePose)
}

// SetGlobalPose sets the model's pose such that GetGlobalPose returns p.
// With no parent the local and global frames coincide; otherwise p is
// converted into the parent's frame first.
func (m *Model) SetGlobalPose(p geom.Pose) {
	if m.parent == nil {
		m.SetPose(p)
		return
	}
	m.SetPose(geom.GlobalToLocal(m.parent.GetGlobalPose(), p))
}

// UnmapTree unmaps every block owned by this model and its descendants,
// without remapping. Exposed for world.World.UpdatePose, which holds the
// mover unmapped across a speculative collision test and remaps exactly
// once afterward via MapTree, rather than paying for an unmap/map cycle
// inside the test and another on commit.
func (m *Model) UnmapTree() { m.unmapWithChildren() }

// MapTree remaps every block owned by this model and its descendants
// that is not currently mapped.
func (m *Model) MapTree() { m.mapWithChildren() }

// CommitKinematicPose assigns the local pose directly and dirties the
// subtree, without touching block mappings. Exposed for
// world.World.UpdatePose, which manages the unmap/remap cycle itself
// around the collision test that brackets this call.
func (m *Model) CommitKinematicPose(p geom.Pose) {
	p.A = geom.Normalize(p.A)
	m.pose = p
	m.dirtyTree()
	m.fire(ChangePose)
}

// AddToPose is a convenience wrapper around SetPose that adds a delta to
// the current local pose, present in model.cc and dropped by the
// distillation.
func (m *Model) AddToPose(dx, dy, dz, da float64) {
	cur := m.pose
	m.SetPose(geom.Pose{X: cur.X + dx, Y: cur.Y + dy, Z: cur.Z + dz, A: cur.A + da})
}

// AddPose is the Pose-argument overload of AddToPose.
func (m *Model) AddPose(delta geom.Pose) {
	m.AddToPose(delta.X, delta.Y, delta.Z, delta.A)
}

// dirtyTree marks this model and every descendant's cached global pose
// stale, mirroring model.cc's GPoseDirtyTree.
func (m *Model) dirtyTree() {
	m.gposeDirty = true
	for _, c := range m.children {
		c.dirtyTree()
	}
}

// GetGlobalPose returns the model's pose in the world frame, recomputing
// from the parent chain only when the cache is stale (spec invariant 3).
// A child's Z sits on top of its parent's size.z, matching model.cc's
// z-stacking.
func (m *Model) GetGlobalPose() geom.Pose {
	if !m.gposeDirty {
		return m.globalPose
	}

	if m.parent == nil {
		m.globalPose = m.pose
	} else {
		pp := m.parent.GetGlobalPose()
		gp := geom.PoseSum(pp, m.pose)
		gp.Z += m.parent.size.Z
		m.globalPose = gp
	}
	m.gposeDirty = false
	return m.globalPose
}

// LocalToGlobal transforms a pose in this model's body frame (i.e. past
// its own geometric offset) into the world frame. Implements block.Owner.
func (m *Model) LocalToGlobal(p geom.Pose) geom.Pose {
	return geom.PoseSum(geom.PoseSum(m.GetGlobalPose(), m.geomOffset), p)
}

// IsAntecedent reports whether other is this model or any ancestor.
func (m *Model) IsAntecedent(other *Model) bool {
	for n := m; n != nil; n = n.parent {
		if n == other {
			return true
		}
	}
	return false
}

// IsDescendent reports whether other is this model or any descendant.
func (m *Model) IsDescendent(other *Model) bool {
	if other == m {
		return true
	}
	for _, c := range m.children {
		if c.IsDescendent(other) {
			return true
		}
	}
	return false
}

// root walks to the top of the tree.
func (m *Model) root() *Model {
	n := m
	for n.parent != nil {
		n = n.parent
	}
	return n
}

// IsRelated reports whether m and other share a root: ancestor,
// descendant, or sibling-through-root. Used by collision self-exclusion
// (model_pose.c's lines_raytrace_match), which is stricter than plain
// requester-identity exclusion.
func (m *Model) IsRelated(other *Model) bool {
	if other == nil {
		return false
	}
	return m.root() == other.root()
}

func (m *Model) unmapWithChildren() {
	for _, b := range m.blocks {
		if b.Mapped() {
			b.UnMap()
		}
	}
	for _, c := range m.children {
		c.unmapWithChildren()
	}
}

func (m *Model) mapWithChildren() {
	if m.idx != nil {
		for _, b := range m.blocks {
			if !b.Mapped() {
				b.Map(m.idx)
			}
		}
	}
	for _, c := range m.children {
		c.mapWithChildren()
	}
}
