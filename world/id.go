package world

import "sync"

// sequentialIDGenerator mints the uint32 ids World.AddModel assigns to new
// models. A freed id (via World.RemoveModel) goes into reusableIDs and is
// handed back out before currentID advances any further, so a world that
// adds and removes models at a steady rate doesn't grow its id space
// without bound.
type sequentialIDGenerator struct {
	mutex       sync.Mutex
	currentID   uint32
	reusableIDs map[uint32]struct{}
}

func (g *sequentialIDGenerator) New() uint32 {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	for id := range g.reusableIDs {
		delete(g.reusableIDs, id)
		return id
	}

	g.currentID++
	return g.currentID
}

func (g *sequentialIDGenerator) Reuse(id uint32) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if g.reusableIDs == nil {
		g.reusableIDs = make(map[uint32]struct{})
	}
	g.reusableIDs[id] = struct{}{}
}
