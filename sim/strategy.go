package sim

import (
	"crowdsim/common"
)

// HoldStrategy is the stock strategy layer: it keeps whatever goal the
// host assigned through SetAgentGoal. Hosts with higher-level intent
// register their own StrategyComponent instead.
type HoldStrategy struct {
	sim     *Simulator
	members membership
}

// NewHoldStrategy creates the goal-holding strategy.
func NewHoldStrategy(s *Simulator) *HoldStrategy {
	return &HoldStrategy{sim: s, members: newMembership()}
}

func (h *HoldStrategy) ID() ComponentID { return ComponentHold }

func (h *HoldStrategy) AddAgent(id common.AgentID) { h.members.add(id) }

func (h *HoldStrategy) RemoveAgent(id common.AgentID) bool {
	return h.members.remove(id)
}

// Update leaves goals untouched.
func (h *HoldStrategy) Update(timeStep float64) {}
