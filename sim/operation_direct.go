package sim

import (
	"crowdsim/common"
)

// DirectOperation is the pass-through operation layer: the velocity
// candidate is the preferred velocity, capped at the agent's maximum
// speed. No local avoidance.
type DirectOperation struct {
	sim     *Simulator
	members membership
}

// NewDirectOperation creates the pass-through solver.
func NewDirectOperation(s *Simulator) *DirectOperation {
	return &DirectOperation{sim: s, members: newMembership()}
}

func (d *DirectOperation) ID() ComponentID { return ComponentDirect }

func (d *DirectOperation) AddAgent(id common.AgentID) { d.members.add(id) }

func (d *DirectOperation) RemoveAgent(id common.AgentID) bool {
	return d.members.remove(id)
}

func (d *DirectOperation) Update(timeStep float64) {
	for _, id := range d.members.order {
		info := d.sim.GetSpatialInfo(id)
		if info == nil {
			continue
		}
		v := info.PrefVelocity.Preferred()
		if l := v.Len(); l > info.MaxSpeed {
			v = v.Mul(info.MaxSpeed / l)
		}
		info.VelNew = v
	}
}
