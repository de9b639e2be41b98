package sim

import (
	"crowdsim/common"
)

// Component is the contract shared by all three behaviour layers. Update
// is invoked once per tick during the layer's phase and reads/writes agent
// state through the simulator.
type Component interface {
	ID() ComponentID
	AddAgent(id common.AgentID)
	RemoveAgent(id common.AgentID) bool
	Update(timeStep float64)
}

// StrategyComponent updates goals or high-level intent (phase 1).
type StrategyComponent interface{ Component }

// TacticComponent turns goals into preferred velocities (phase 2).
type TacticComponent interface{ Component }

// OperationComponent refines a preferred velocity into the velocity
// candidate VelNew using the previous tick's neighbour sets (phase 4).
type OperationComponent interface{ Component }

// membership is the insertion-ordered agent set behaviour components keep.
// Update phases iterate it, so ordering must be stable across ticks.
type membership struct {
	order []common.AgentID
	has   map[common.AgentID]bool
}

func newMembership() membership {
	return membership{has: make(map[common.AgentID]bool)}
}

func (m *membership) add(id common.AgentID) {
	if m.has[id] {
		return
	}
	m.has[id] = true
	m.order = append(m.order, id)
}

func (m *membership) remove(id common.AgentID) bool {
	if !m.has[id] {
		return false
	}
	delete(m.has, id)
	for i, a := range m.order {
		if a == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true
}
