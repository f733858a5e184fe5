package model

// Subscribe increments the subscription count. On the 0→1 transition it
// runs the installed Behavior.Startup and fires ChangeStartup; the caller
// (world.World) is responsible for placing the model on the update list,
// since the update list is world state, not model state.
func (m *Model) Subscribe() {
	m.subscriptions++
	if m.subscriptions == 1 {
		if m.behavior.Startup != nil {
			m.behavior.Startup(m)
		}
		if m.onStartUpdating != nil {
			m.onStartUpdating(m)
		}
		m.fire(ChangeStartup)
	}
}

// Unsubscribe decrements the subscription count. On the 1→0 transition
// it runs Behavior.Shutdown and fires ChangeShutdown. Unsubscribing a
// model with zero subscriptions is a no-op, not an error: nothing in the
// source distinguishes "never subscribed" from "fully unsubscribed."
func (m *Model) Unsubscribe() {
	if m.subscriptions == 0 {
		return
	}
	m.subscriptions--
	if m.subscriptions == 0 {
		if m.behavior.Shutdown != nil {
			m.behavior.Shutdown(m)
		}
		if m.onStopUpdating != nil {
			m.onStopUpdating(m)
		}
		m.fire(ChangeShutdown)
	}
}

// Subscriptions returns the current reference count.
func (m *Model) Subscriptions() int { return m.subscriptions }

// UpdateInterval returns the model's update period in microseconds.
func (m *Model) UpdateInterval() int64 { return m.updateInterval }

// SetUpdateInterval overrides the default 10ms update period.
func (m *Model) SetUpdateInterval(microseconds int64) { m.updateInterval = microseconds }

// UpdateIfDue runs Update if simTime (microseconds) has reached
// lastUpdate + interval, recording the new lastUpdate. Returns whether it
// ran. A new model's lastUpdate is 0, so its first update runs once
// simTime reaches one full interval.
func (m *Model) UpdateIfDue(simTime int64) bool {
	if simTime < m.lastUpdate+m.updateInterval {
		return false
	}
	m.Update()
	m.lastUpdate = simTime
	return true
}

// Update runs the subtype's Behavior.Update hook and fires ChangeUpdate.
func (m *Model) Update() {
	if m.behavior.Update != nil {
		m.behavior.Update(m)
	}
	m.fire(ChangeUpdate)

	// TODO(gripper): model_pose.c's commented-out impact-velocity
	// transfer for GripperReturn targets would hook in here.
}

// FirstUnsubscribedOfKind recursively searches descendants for the first
// model of the given kind with zero subscriptions, present in model.cc as
// GetUnsubscribedModelOfType and useful for a controller claiming a free
// sensor or actuator child.
func (m *Model) FirstUnsubscribedOfKind(kind ModelKind) *Model {
	for _, c := range m.children {
		if c.kind == kind && c.subscriptions == 0 {
			return c
		}
		if found := c.FirstUnsubscribedOfKind(kind); found != nil {
			return found
		}
	}
	return nil
}
