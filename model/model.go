// Package model implements the scene tree: nodes with local/global pose
// composition, a body made of blocks, visibility attributes sensors key
// off, and an enumerated change-callback registry. Grounded on
// original_source/libstage/model.cc, with the callback registry and
// subtype dispatch reshaped per that file's own design notes (§9) into
// idiomatic Go rather than virtual methods and address-keyed callbacks.
package model

import (
	"github.com/MarekWiejak/stagesim/block"
	"github.com/MarekWiejak/stagesim/geom"
	"github.com/MarekWiejak/stagesim/spatial"
)

// Visibility is a per-model, per-sensor-modality strength.
type Visibility int

const (
	Invisible Visibility = iota
	Visible
	Bright
)

// ChangeKey enumerates the attributes a callback can subscribe to.
// Replaces the source's callback-keyed-by-attribute-address scheme with
// an enumerated key set, per design note §9.
type ChangeKey int

const (
	ChangePose ChangeKey = iota
	ChangeVelocity
	ChangeColor
	ChangeGeom
	ChangeStall
	ChangeStartup
	ChangeShutdown
	ChangeUpdate
	ChangeObstacleReturn
	ChangeRangerReturn
	ChangeBlobReturn
	ChangeLaserReturn
	ChangeGripperReturn
	ChangeFiducialReturn
	ChangeFiducialKey
	ChangeParent
	ChangeWatts
	ChangeMapResolution
)

// Callback receives the model whose attribute changed and the user data
// it was registered with.
type Callback func(m *Model, userdata any)

// ModelKind tags a model's subtype. Subtype-specific tick/visualize
// behavior is provided via an embedded Behavior rather than virtual
// methods, per design note §9.
type ModelKind int

const (
	KindGeneric ModelKind = iota
	KindPosition
	KindLaser
	KindRanger
	KindFiducial
	KindBlobfinder
	KindGripper
)

// Behavior is the function table a model's subtype installs. Any nil
// field is simply not called.
type Behavior struct {
	Startup  func(m *Model)
	Shutdown func(m *Model)
	Update   func(m *Model)
}

// Color is an RGBA color in [0,1] components.
type Color = block.Color

// TrailEntry is one sample in a model's pose trail.
type TrailEntry struct {
	Pose  geom.Pose
	Color Color
	Tick  uint64
}

const (
	trailCapacity = 100
	trailStride   = 10

	// DefaultUpdateInterval matches the source's 10ms default.
	DefaultUpdateInterval = 10_000 // microseconds
)

// Model is a node in the scene tree.
type Model struct {
	id    uint32
	token string
	kind  ModelKind

	parent   *Model
	children []*Model

	pose        geom.Pose
	globalPose  geom.Pose
	gposeDirty  bool
	velocity    geom.Velocity
	stall       bool

	size       geom.Size
	geomOffset geom.Pose

	blocks      []*block.Block
	needsRedraw bool

	ObstacleReturn bool
	RangerReturn   Visibility
	BlobReturn     Visibility
	LaserReturn    Visibility
	GripperReturn  bool
	FiducialReturn int
	FiducialKey    int

	color         Color
	MapResolution float64
	Watts         float64

	subscriptions   int
	onUpdateList    bool
	lastUpdate      int64
	updateInterval  int64

	behavior Behavior

	callbacks map[ChangeKey][]registeredCallback

	trail []TrailEntry

	Odom geom.Pose

	onVelocityChange func(m *Model)
	onStartUpdating  func(m *Model)
	onStopUpdating   func(m *Model)

	// idx is the spatial index blocks map into. Set once by the owning
	// world at AddModel time; a model created outside a world (e.g. in
	// unit tests exercising only pose algebra) simply never maps.
	idx *spatial.Index
}

// SetIndex attaches the spatial index this model's blocks map into.
// Called by world.World.AddModel; not meant for direct use otherwise.
func (m *Model) SetIndex(idx *spatial.Index) { m.idx = idx }

type registeredCallback struct {
	fn       Callback
	userdata any
}

// New constructs a model with the given id, token and parent (nil for a
// world-root model). Registration into a world's id/token maps is the
// world's responsibility, not the model's, mirroring spec §3's "registration
// in world/parent happens at construction" being driven by the owner that
// allocates the id.
func New(id uint32, token string, kind ModelKind, parent *Model) *Model {
	m := &Model{
		id:             id,
		token:          token,
		kind:           kind,
		parent:         parent,
		gposeDirty:     true,
		color:          Color{R: 1, G: 1, B: 1, A: 1},
		MapResolution:  0.01,
		updateInterval: DefaultUpdateInterval,
		callbacks:      make(map[ChangeKey][]registeredCallback),
	}
	if parent != nil {
		parent.children = append(parent.children, m)
	}
	return m
}

// ID implements block.Owner.
func (m *Model) ID() uint32 { return m.id }

// Token implements block.Owner.
func (m *Model) Token() string { return m.token }

// Kind returns the model's tagged subtype.
func (m *Model) Kind() ModelKind { return m.kind }

// SetBehavior installs the function table for this model's subtype.
func (m *Model) SetBehavior(b Behavior) { m.behavior = b }

// Parent returns the model's parent, or nil at the tree root.
func (m *Model) Parent() *Model { return m.parent }

// Children returns the model's direct children. The returned slice must
// not be mutated by the caller.
func (m *Model) Children() []*Model { return m.children }

// Blocks returns the model's body. The returned slice must not be
// mutated by the caller.
func (m *Model) Blocks() []*block.Block { return m.blocks }

// Stall reports whether the model's last kinematic update was blocked by
// a collision.
func (m *Model) Stall() bool { return m.stall }

// Velocity returns the model's current velocity.
func (m *Model) Velocity() geom.Velocity { return m.velocity }

// GetColor returns the model's appearance color.
func (m *Model) GetColor() Color { return m.color }

// Size returns the model's geometric extent.
func (m *Model) Size() geom.Size { return m.size }

// Pose returns the model's local pose, expressed in its parent's frame.
func (m *Model) Pose() geom.Pose { return m.pose }

// GeomOffset returns the body-center offset set by SetGeom.
func (m *Model) GeomOffset() geom.Pose { return m.geomOffset }

// NeedsRedraw reports whether this model or a descendant's body changed
// since the last clear, propagated up the tree per model.cc's
// rebuild_displaylist. Drawing itself is out of scope; this flag exists
// so an external renderer knows when to re-fetch a subtree's footprint.
func (m *Model) NeedsRedraw() bool { return m.needsRedraw }

func (m *Model) markRedraw() {
	for n := m; n != nil; n = n.parent {
		n.needsRedraw = true
	}
}

// ClearRedraw resets the redraw flag after an external renderer has
// consumed it.
func (m *Model) ClearRedraw() { m.needsRedraw = false }

// AddCallback registers fn to run whenever key changes.
func (m *Model) AddCallback(key ChangeKey, fn Callback, userdata any) {
	m.callbacks[key] = append(m.callbacks[key], registeredCallback{fn: fn, userdata: userdata})
}

// RemoveCallback deregisters every callback registered under key. The
// source keys removal by callback address; here the enumerated key is
// the whole registration unit, matching spec §6's "deregistration is by
// callback key."
func (m *Model) RemoveCallback(key ChangeKey) {
	delete(m.callbacks, key)
}

func (m *Model) fire(key ChangeKey) {
	for _, cb := range m.callbacks[key] {
		cb.fn(m, cb.userdata)
	}
}

// SetVelocityChangeHook lets a *world.World observe velocity mutations
// without model importing world, so it can maintain the velocity-list
// invariant (spec invariant 4).
func (m *Model) SetVelocityChangeHook(fn func(m *Model)) { m.onVelocityChange = fn }

// SetUpdateListHooks lets a *world.World maintain its update-list
// invariant (spec invariant 5) without model importing world: start is
// called on the 0→1 subscription transition, stop on the 1→0 transition.
func (m *Model) SetUpdateListHooks(start, stop func(m *Model)) {
	m.onStartUpdating = start
	m.onStopUpdating = stop
}
