// Package block implements the polygonal prism body primitive: an ordered
// outline of 2D points extruded between zmin and zmax, attached to a
// model, that rasterizes its footprint into a spatial.Index when mapped.
// Grounded on original_source/libstage/block.cc.
package block

import (
	"github.com/MarekWiejak/stagesim/geom"
	"github.com/MarekWiejak/stagesim/spatial"
)

// Color is an RGBA color in [0,1] components.
type Color struct {
	R, G, B, A float64
}

// Owner is the subset of model.Model a block needs: enough to transform
// its local points into the world frame and to identify itself to the
// spatial index. Defined here rather than imported from model to avoid an
// import cycle (model owns blocks; blocks reference their owner back).
type Owner interface {
	ID() uint32
	Token() string
	LocalToGlobal(p geom.Pose) geom.Pose
}

// Renderer is the external collaborator a block would draw itself through
// (DrawFootprint/DrawSides/DrawTop in original_source/libstage/block.cc).
// stagesim exposes simulation state for an external visualizer (the
// telemetry package) instead of drawing, so there is no default
// implementation of this interface in this tree.
type Renderer interface {
	DrawFootprint(b *Block)
	DrawSides(b *Block)
	DrawTop(b *Block)
}

// Block is a polygonal prism: an outline of >=3 points plus a vertical
// extent, owned by exactly one model.
type Block struct {
	Owner         Owner
	Points        []geom.Vec2
	ZMin, ZMax    float64
	Color         Color
	InheritColor  bool

	// Valid only while mapped.
	GlobalZMin, GlobalZMax float64

	mapped  bool
	handles []spatial.Handle
}

// New constructs a block from a copy of pts. The cached pixel footprint
// is not computed until Map is called. pts must have at least 3 vertices;
// a zero-point block is a programming error, not a runtime one.
func New(owner Owner, pts []geom.Vec2, zmin, zmax float64, color Color, inheritColor bool) *Block {
	if len(pts) < 3 {
		panic("block: a block needs at least 3 points")
	}

	copied := make([]geom.Vec2, len(pts))
	copy(copied, pts)

	return &Block{
		Owner:        owner,
		Points:       copied,
		ZMin:         zmin,
		ZMax:         zmax,
		Color:        color,
		InheritColor: inheritColor,
	}
}

// OwnerID implements spatial.Occupant.
func (b *Block) OwnerID() uint32 {
	return b.Owner.ID()
}

// ZBand implements spatial.Occupant.
func (b *Block) ZBand() (float64, float64) {
	return b.GlobalZMin, b.GlobalZMax
}

// Mapped reports whether this block currently has entries in a spatial
// index.
func (b *Block) Mapped() bool {
	return b.mapped
}

// Map transforms the polygon into world pixel coordinates via the
// owner's LocalToGlobal, then walks each edge with an integer rasterizer,
// recording (pixel, block) in idx once for every pixel an edge crosses (a
// pixel shared by two edges, such as a vertex, is recorded once). Calling
// Map on an already-mapped block is a programming error (spec §7) rather
// than a silent no-op.
func (b *Block) Map(idx *spatial.Index) {
	if b.mapped {
		panic("block: Map called on an already-mapped block of " + b.Owner.Token())
	}

	pixels := make([]spatial.Coord, len(b.Points))

	var gz float64
	for i, p := range b.Points {
		global := b.Owner.LocalToGlobal(geom.Pose{X: p.X, Y: p.Y, Z: b.ZMin, A: 0})
		pixels[i] = spatial.Coord{
			X: spatial.MetersToPixels(global.X, idx.PPM),
			Y: spatial.MetersToPixels(global.Y, idx.PPM),
		}
		gz = global.Z
	}

	b.GlobalZMin = gz
	b.GlobalZMax = gz + (b.ZMax - b.ZMin)

	b.handles = b.handles[:0]
	seen := make(map[spatial.Coord]struct{}, len(pixels))
	n := len(pixels)
	for i := 0; i < n; i++ {
		p0 := pixels[i]
		p1 := pixels[(i+1)%n]
		rasterizeLine(p0, p1, func(c spatial.Coord) {
			if _, dup := seen[c]; dup {
				return
			}
			seen[c] = struct{}{}
			b.handles = append(b.handles, idx.AddBlockPixel(c, b))
		})
	}

	b.mapped = true
}

// UnMap removes exactly the entries this block's last Map inserted,
// using the stored handles, and is idempotent at the application level
// only in the sense described by spec §4.2: once unmapped no entry
// referencing this block remains. Calling UnMap on a block that is not
// currently mapped is a programming error (spec §7).
func (b *Block) UnMap() {
	if !b.mapped {
		panic("block: UnMap called on a block that is not mapped (" + b.Owner.Token() + ")")
	}

	for _, h := range b.handles {
		h.Release()
	}
	b.handles = nil
	b.mapped = false
}

// ScaleList rescales every point of every block in blocks to fit inside
// +/- size.{x,y}/2 centered at the origin, and rescales zmin/zmax so the
// tallest block reaches size.z. Every block must be unmapped first; this
// mirrors StgBlock::ScaleList's unconditional UnMap-before-scale.
func ScaleList(blocks []*Block, size geom.Size) {
	if len(blocks) == 0 {
		return
	}

	var allPoints []geom.Vec2
	maxZMax := 0.0
	for _, blk := range blocks {
		if blk.mapped {
			blk.UnMap()
		}
		allPoints = append(allPoints, blk.Points...)
		if blk.ZMax > maxZMax {
			maxZMax = blk.ZMax
		}
	}

	bounds := geom.BoundsOf(allPoints)
	scaleX := bounds.Max.X - bounds.Min.X
	scaleY := bounds.Max.Y - bounds.Min.Y

	var scaleZ float64
	if maxZMax != 0 {
		scaleZ = size.Z / maxZMax
	}

	for _, blk := range blocks {
		for i, p := range blk.Points {
			np := p
			if scaleX != 0 {
				np.X = (p.X-bounds.Min.X)/scaleX*size.X - size.X/2
			}
			if scaleY != 0 {
				np.Y = (p.Y-bounds.Min.Y)/scaleY*size.Y - size.Y/2
			}
			blk.Points[i] = np
		}
		blk.ZMax *= scaleZ
		blk.ZMin *= scaleZ
	}
}

// rasterizeLine visits every pixel an 8-connected Bresenham line between
// p0 and p1 crosses, including both endpoints. Grounded on
// original_source/libstage/block.cc's stg_polygon_3d edge walk.
func rasterizeLine(p0, p1 spatial.Coord, visit func(spatial.Coord)) {
	x0, y0 := p0.X, p0.Y
	x1, y1 := p1.X, p1.Y

	dx := x1 - x0
	if dx < 0 {
		dx = -dx
	}
	dy := y1 - y0
	if dy < 0 {
		dy = -dy
	}

	sx := int32(1)
	if x1 < x0 {
		sx = -1
	}
	sy := int32(1)
	if y1 < y0 {
		sy = -1
	}

	err := dx - dy
	x, y := x0, y0
	for {
		visit(spatial.Coord{X: x, Y: y})
		if x == x1 && y == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x += sx
		}
		if e2 < dx {
			err += dx
			y += sy
		}
	}
}
