package model

// SetParent reattaches m under newParent, detaching it from any current
// parent first. Setting a parent that would make m its own ancestor is a
// programming error (spec §7 invariant violation), not a runtime one, so
// it panics rather than returning an error.
func (m *Model) SetParent(newParent *Model) {
	if newParent != nil && (newParent == m || m.IsDescendent(newParent)) {
		panic("model: SetParent would introduce a cycle for " + m.token)
	}

	m.unmapWithChildren()

	if m.parent != nil {
		m.parent.removeChild(m)
	}
	m.parent = newParent
	if newParent != nil {
		newParent.children = append(newParent.children, m)
	}
	m.dirtyTree()

	m.mapWithChildren()
	m.fire(ChangeParent)
}

func (m *Model) removeChild(child *Model) {
	for i, c := range m.children {
		if c == child {
			m.children = append(m.children[:i], m.children[i+1:]...)
			return
		}
	}
}
