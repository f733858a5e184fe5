package spatial

// Occupant is anything a pixel can hold a reference to. block.Block
// implements it; spatial never imports the block package, so the index can
// be tested and reasoned about without pulling in the model tree.
type Occupant interface {
	// OwnerID identifies the model that owns this occupant, used both for
	// self-exclusion during raytracing and for predicate dispatch.
	OwnerID() uint32

	// ZBand returns the global vertical extent recorded the last time this
	// occupant was mapped.
	ZBand() (min, max float64)
}

type blockNode struct {
	occupant   Occupant
	prev, next *blockNode
}

// Region is one tile of a superregion: a flat array of pixel list heads
// plus a running count of pixels that are currently non-empty.
type Region struct {
	pixels        []*blockNode
	nonZeroPixels uint32
}

// Superregion tiles a large area of the world into regions, lazily
// allocated, plus its own non-zero-pixel count for O(1) early-out.
type Superregion struct {
	regions       []*Region
	nonZeroPixels uint32
}

// Index is the multi-resolution raster spatial index: superregions of
// regions of pixels, each pixel holding a list of occupying blocks.
type Index struct {
	PPM               float64
	SuperregionPixels int32
	RegionPixels      int32

	supers map[superKey]*Superregion

	// Instrumentation used by tests and metrics to demonstrate that empty
	// space is skipped in O(1) rather than walked pixel by pixel (spec S3).
	PixelsVisited       uint64
	RegionsSkipped      uint64
	SuperregionsSkipped uint64
}

// NewIndex creates an index at the given resolution (pixels per meter).
// A zero superregionPixels/regionPixels falls back to the spec's example
// tile sizes.
func NewIndex(ppm float64, superregionPixels, regionPixels int32) *Index {
	if superregionPixels <= 0 {
		superregionPixels = DefaultSuperregionPixels
	}
	if regionPixels <= 0 {
		regionPixels = DefaultRegionPixels
	}
	if superregionPixels%regionPixels != 0 {
		panic("spatial: superregion size must be a multiple of region size")
	}

	return &Index{
		PPM:               ppm,
		SuperregionPixels: superregionPixels,
		RegionPixels:      regionPixels,
		supers:            make(map[superKey]*Superregion),
	}
}

// ResetStats zeroes the instrumentation counters.
func (idx *Index) ResetStats() {
	idx.PixelsVisited = 0
	idx.RegionsSkipped = 0
	idx.SuperregionsSkipped = 0
}

func (idx *Index) localCoord(c Coord) (lx, ly int32) {
	return floorMod(c.X, idx.SuperregionPixels), floorMod(c.Y, idx.SuperregionPixels)
}

func (idx *Index) regionIndex(lx, ly int32) int32 {
	perSide := idx.regionsPerSide()
	return (ly/idx.RegionPixels)*perSide + lx/idx.RegionPixels
}

func (idx *Index) pixelIndex(lx, ly int32) int32 {
	qx, qy := lx%idx.RegionPixels, ly%idx.RegionPixels
	return qy*idx.RegionPixels + qx
}

// getSuperregion looks up a superregion without allocating one.
func (idx *Index) getSuperregion(c Coord) *Superregion {
	return idx.supers[idx.superCoord(c)]
}

func (idx *Index) getOrCreateSuperregion(c Coord) *Superregion {
	key := idx.superCoord(c)
	sr, ok := idx.supers[key]
	if !ok {
		perSide := idx.regionsPerSide()
		sr = &Superregion{regions: make([]*Region, perSide*perSide)}
		idx.supers[key] = sr
	}
	return sr
}

func (idx *Index) getOrCreateRegion(sr *Superregion, lx, ly int32) *Region {
	ri := idx.regionIndex(lx, ly)
	r := sr.regions[ri]
	if r == nil {
		r = &Region{pixels: make([]*blockNode, idx.RegionPixels*idx.RegionPixels)}
		sr.regions[ri] = r
	}
	return r
}

// Handle is the opaque token AddBlockPixel returns. It stores exactly what
// is needed to remove the inserted entry in O(1): the region it landed in,
// that region's pixel slot, and the list node itself. Releasing a handle
// decrements the region/superregion counters when the pixel becomes empty.
type Handle struct {
	super    *Superregion
	region   *Region
	pixelIdx int32
	node     *blockNode
}

// Release removes the entry this handle refers to from the index. It is
// the only way to remove an entry; there is no separate RemoveBlockPixel
// lookup path, which is what keeps removal O(1).
func (h Handle) Release() {
	n := h.node

	if n.prev != nil {
		n.prev.next = n.next
	} else {
		h.region.pixels[h.pixelIdx] = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	}

	if h.region.pixels[h.pixelIdx] == nil {
		h.region.nonZeroPixels--
		h.super.nonZeroPixels--
	}
}

// AddBlockPixel inserts occ at pixel c, at the head of that pixel's list,
// incrementing the region and superregion non-zero-pixel counters if the
// pixel was previously empty.
func (idx *Index) AddBlockPixel(c Coord, occ Occupant) Handle {
	sr := idx.getOrCreateSuperregion(c)
	lx, ly := idx.localCoord(c)
	region := idx.getOrCreateRegion(sr, lx, ly)
	pi := idx.pixelIndex(lx, ly)

	wasEmpty := region.pixels[pi] == nil

	node := &blockNode{occupant: occ, next: region.pixels[pi]}
	if node.next != nil {
		node.next.prev = node
	}
	region.pixels[pi] = node

	if wasEmpty {
		region.nonZeroPixels++
		sr.nonZeroPixels++
	}

	return Handle{super: sr, region: region, pixelIdx: pi, node: node}
}

// Occupants returns the occupants currently recorded at pixel c, for
// inspection and tests. It allocates; production code has no reason to
// call it on the hot path.
func (idx *Index) Occupants(c Coord) []Occupant {
	sr := idx.getSuperregion(c)
	if sr == nil {
		return nil
	}
	lx, ly := idx.localCoord(c)
	region := sr.regions[idx.regionIndex(lx, ly)]
	if region == nil {
		return nil
	}

	var out []Occupant
	for n := region.pixels[idx.pixelIndex(lx, ly)]; n != nil; n = n.next {
		out = append(out, n.occupant)
	}
	return out
}
