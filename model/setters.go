package model

import (
	"github.com/MarekWiejak/stagesim/block"
	"github.com/MarekWiejak/stagesim/geom"
)

// SetGeom sets the model's size and body origin offset, rescales every
// owned block to fit the new size, marks the subtree's global pose dirty
// (children's Z-stacking depends on this model's size.z), and remaps.
func (m *Model) SetGeom(size geom.Size, offset geom.Pose) {
	m.unmapWithChildren()

	m.size = size
	m.geomOffset = offset
	block.ScaleList(m.blocks, size)
	m.dirtyTree()

	m.mapWithChildren()
	m.fire(ChangeGeom)
}

// SetVelocity assigns the model's velocity and notifies the owning
// world, which maintains the velocity-list invariant (spec invariant 4).
func (m *Model) SetVelocity(v geom.Velocity) {
	m.velocity = v
	if m.onVelocityChange != nil {
		m.onVelocityChange(m)
	}
	m.fire(ChangeVelocity)
}

// SetStall assigns the stall flag and fires ChangeStall.
func (m *Model) SetStall(b bool) {
	m.stall = b
	m.fire(ChangeStall)
}

// SetColor assigns the model's appearance color and fires ChangeColor.
func (m *Model) SetColor(c Color) {
	m.color = c
	m.fire(ChangeColor)
}

// SetObstacleReturn assigns whether this model is visible to obstacle
// (collision) raytraces and fires ChangeObstacleReturn.
func (m *Model) SetObstacleReturn(b bool) {
	m.ObstacleReturn = b
	m.fire(ChangeObstacleReturn)
}

// SetRangerReturn assigns this model's visibility to ranger sensors.
func (m *Model) SetRangerReturn(v Visibility) {
	m.RangerReturn = v
	m.fire(ChangeRangerReturn)
}

// SetBlobReturn assigns this model's visibility to blobfinder sensors.
func (m *Model) SetBlobReturn(v Visibility) {
	m.BlobReturn = v
	m.fire(ChangeBlobReturn)
}

// SetLaserReturn assigns this model's visibility to laser sensors.
func (m *Model) SetLaserReturn(v Visibility) {
	m.LaserReturn = v
	m.fire(ChangeLaserReturn)
}

// SetGripperReturn assigns whether a gripper can grasp this model.
// Gripper push/momentum-transfer dynamics are not implemented here; see
// the TODO in lifecycle.go's Update.
func (m *Model) SetGripperReturn(b bool) {
	m.GripperReturn = b
	m.fire(ChangeGripperReturn)
}

// SetFiducialReturn assigns this model's fiducial id (0 = not a
// fiducial).
func (m *Model) SetFiducialReturn(id int) {
	m.FiducialReturn = id
	m.fire(ChangeFiducialReturn)
}

// SetFiducialKey assigns this model's fiducial key.
func (m *Model) SetFiducialKey(key int) {
	m.FiducialKey = key
	m.fire(ChangeFiducialKey)
}

// SetWatts assigns the model's declared power draw.
func (m *Model) SetWatts(w float64) {
	m.Watts = w
	m.fire(ChangeWatts)
}

// SetMapResolution assigns the meters-per-pixel used when rasterizing
// this model's blocks.
func (m *Model) SetMapResolution(r float64) {
	m.MapResolution = r
	m.fire(ChangeMapResolution)
}

// AddBlock appends a new block to the model's body and marks the subtree
// for redraw. The block is not mapped until the model (or world tick) maps
// it; callers that add blocks to an already-mapped model should Map the
// returned block themselves.
func (m *Model) AddBlock(pts []geom.Vec2, zmin, zmax float64, color Color, inheritColor bool) *block.Block {
	b := block.New(m, pts, zmin, zmax, color, inheritColor)
	m.blocks = append(m.blocks, b)
	m.markRedraw()
	return b
}

// ClearBlocks unmaps and discards every block on this model's body.
func (m *Model) ClearBlocks() {
	for _, b := range m.blocks {
		if b.Mapped() {
			b.UnMap()
		}
	}
	m.blocks = nil
	m.markRedraw()
}
