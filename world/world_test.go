package world

import (
	"testing"

	"github.com/MarekWiejak/stagesim/block"
	"github.com/MarekWiejak/stagesim/geom"
	"github.com/MarekWiejak/stagesim/model"
	"github.com/MarekWiejak/stagesim/spatial"
	"github.com/stretchr/testify/require"
)

func square(half float64) []geom.Vec2 {
	return []geom.Vec2{
		{X: -half, Y: -half},
		{X: half, Y: -half},
		{X: half, Y: half},
		{X: -half, Y: half},
	}
}

func addObstacleSquare(m *model.Model, at geom.Pose) {
	m.SetObstacleReturn(true)
	m.AddBlock(square(0.5), 0, 1, block.Color{R: 1}, false)
	m.SetPose(at)
}

// S2 — stall on collision.
func TestUpdatePoseStallsOnCollisionThenMovesWhenSlow(t *testing.T) {
	w := New(10, 64, 16)

	a := w.AddModel("a", model.KindPosition, nil)
	addObstacleSquare(a, geom.Pose{X: 0, Y: 0})

	b := w.AddModel("b", model.KindGeneric, nil)
	addObstacleSquare(b, geom.Pose{X: 2, Y: 0})

	w.IntervalSim = 1_000_000 // 1s
	a.SetVelocity(geom.Velocity{X: 10})

	w.UpdatePose(a)
	require.True(t, a.Stall())
	require.InDelta(t, 0, a.Pose().X, 1e-9)

	a.SetVelocity(geom.Velocity{X: 0.5})
	w.UpdatePose(a)
	require.False(t, a.Stall())
	require.InDelta(t, 0.5, a.Pose().X, 1e-9)
}

func TestVelocityListInvariant(t *testing.T) {
	w := New(10, 64, 16)
	m := w.AddModel("m", model.KindGeneric, nil)

	require.Empty(t, w.VelocityList())

	m.SetVelocity(geom.Velocity{X: 1})
	require.Len(t, w.VelocityList(), 1)

	m.SetVelocity(geom.Velocity{})
	require.Empty(t, w.VelocityList())
}

func TestUpdateListFollowsSubscriptionCount(t *testing.T) {
	w := New(10, 64, 16)
	m := w.AddModel("m", model.KindGeneric, nil)

	require.Empty(t, w.UpdateList())

	m.Subscribe()
	require.Len(t, w.UpdateList(), 1)

	m.Unsubscribe()
	require.Empty(t, w.UpdateList())
}

func TestGetModelAndGetModelByToken(t *testing.T) {
	w := New(10, 64, 16)
	m := w.AddModel("robot", model.KindPosition, nil)

	got, ok := w.GetModel(m.ID())
	require.True(t, ok)
	require.Same(t, m, got)

	got, ok = w.GetModelByToken("robot")
	require.True(t, ok)
	require.Same(t, m, got)

	_, ok = w.GetModel(9999)
	require.False(t, ok)
}

func TestAddModelTokenDerivesFromParent(t *testing.T) {
	w := New(10, 64, 16)
	parent := w.AddModel("robot", model.KindPosition, nil)
	child := w.AddModel("laser", model.KindLaser, parent)

	require.Equal(t, "robot.laser", child.Token())
}

func TestRemoveModelClearsMapsAndLists(t *testing.T) {
	w := New(10, 64, 16)
	m := w.AddModel("m", model.KindGeneric, nil)
	m.SetVelocity(geom.Velocity{X: 1})
	m.Subscribe()

	w.RemoveModel(m)

	_, ok := w.GetModel(m.ID())
	require.False(t, ok)
	require.Empty(t, w.VelocityList())
	require.Empty(t, w.UpdateList())
}

func TestTickAdvancesSimTimeAndDispatchesUpdates(t *testing.T) {
	w := New(10, 64, 16)
	m := w.AddModel("m", model.KindGeneric, nil)

	var updates int
	m.SetBehavior(model.Behavior{Update: func(mm *model.Model) { updates++ }})
	m.Subscribe()

	for i := 0; i < 3; i++ {
		w.Tick()
	}

	require.Equal(t, w.IntervalSim*3, w.SimTime)
	require.GreaterOrEqual(t, updates, 1)
}

func TestRaytraceFindsObstacleAcrossEmptySpace(t *testing.T) {
	w := New(1, 64, 16)
	obstacle := w.AddModel("obstacle", model.KindGeneric, nil)
	addObstacleSquare(obstacle, geom.Pose{X: 900, Y: 0})

	seeker := w.AddModel("seeker", model.KindLaser, nil)
	seeker.SetPose(geom.Pose{X: 0, Y: 0})

	sample := w.Raytrace(geom.Vec2{X: 0, Y: 0}, 0, 0, 1000, seeker, false,
		func(occ spatial.Occupant, requester uint32) bool { return true })

	require.True(t, sample.Hit())
	require.Same(t, obstacle.Blocks()[0], sample.Occupant)
}
