package sim

import (
	"math"
	"sort"

	"crowdsim/common"
	"crowdsim/navmesh"
	"crowdsim/neighbors"
)

// NavSystem owns the spatial side of the simulation: the per-agent
// kinematic state, the mesh localizer and the neighbour index. Its Update
// runs the integration, neighbour-rebuild and relocalisation phases of a
// tick.
type NavSystem struct {
	mesh      *navmesh.NavMesh
	localizer *navmesh.Localizer
	seeker    *neighbors.Seeker

	infos map[common.AgentID]*AgentSpatialInfo
	order []common.AgentID

	neighbours map[common.AgentID][]common.AgentID
}

// NewNavSystem wraps a loaded mesh. The default sensitivity radius is 1.
func NewNavSystem(mesh *navmesh.NavMesh) *NavSystem {
	return &NavSystem{
		mesh:       mesh,
		localizer:  navmesh.NewLocalizer(mesh),
		seeker:     neighbors.NewSeeker(1),
		infos:      make(map[common.AgentID]*AgentSpatialInfo),
		neighbours: make(map[common.AgentID][]common.AgentID),
	}
}

// Mesh returns the shared read-only mesh.
func (ns *NavSystem) Mesh() *navmesh.NavMesh { return ns.mesh }

// Localizer returns the agent-to-node tracker.
func (ns *NavSystem) Localizer() *navmesh.Localizer { return ns.localizer }

// SetSensitivityRadius sets the neighbour cutoff distance.
func (ns *NavSystem) SetSensitivityRadius(r float64) { ns.seeker.SetRadius(r) }

// SensitivityRadius returns the neighbour cutoff distance.
func (ns *NavSystem) SensitivityRadius() float64 { return ns.seeker.Radius() }

// AddAgent inserts spatial state for a new agent.
func (ns *NavSystem) AddAgent(info AgentSpatialInfo) {
	stored := info
	ns.infos[info.ID] = &stored
	i := sort.Search(len(ns.order), func(i int) bool { return ns.order[i] >= info.ID })
	ns.order = append(ns.order, 0)
	copy(ns.order[i+1:], ns.order[i:])
	ns.order[i] = info.ID
}

// RemoveAgent retires an agent's spatial state.
func (ns *NavSystem) RemoveAgent(id common.AgentID) {
	if _, ok := ns.infos[id]; !ok {
		return
	}
	delete(ns.infos, id)
	delete(ns.neighbours, id)
	for i, a := range ns.order {
		if a == id {
			ns.order = append(ns.order[:i], ns.order[i+1:]...)
			break
		}
	}
	ns.localizer.RemoveAgent(id)
}

// SpatialInfo returns the mutable spatial state of an agent, nil when the
// id is unknown.
func (ns *NavSystem) SpatialInfo(id common.AgentID) *AgentSpatialInfo {
	return ns.infos[id]
}

// AgentCount returns the number of live agents.
func (ns *NavSystem) AgentCount() int { return len(ns.order) }

// Neighbours returns the spatial infos of the agents within the
// sensitivity radius of the given agent, per the latest index build.
func (ns *NavSystem) Neighbours(id common.AgentID) []*AgentSpatialInfo {
	ids := ns.neighbours[id]
	out := make([]*AgentSpatialInfo, 0, len(ids))
	for _, nid := range ids {
		if info, ok := ns.infos[nid]; ok {
			out = append(out, info)
		}
	}
	return out
}

// CountNeighbours returns the size of the agent's neighbour set.
func (ns *NavSystem) CountNeighbours(id common.AgentID) int {
	return len(ns.neighbours[id])
}

// GetClosestObstacles returns the obstacles stored on the agent's current
// mesh node.
func (ns *NavSystem) GetClosestObstacles(id common.AgentID) []*navmesh.Obstacle {
	info, ok := ns.infos[id]
	if !ok {
		return nil
	}
	nodeID := ns.localizer.AgentNode(id)
	if nodeID == navmesh.NoNode {
		nodeID = ns.mesh.FindNode(info.Pos)
	}
	node := ns.mesh.NodeByID(nodeID)
	if node == nil {
		return nil
	}
	return node.Obstacles
}

// Update integrates every agent, rebuilds the neighbour index and
// relocalizes agents on the mesh. Iteration follows ascending agent id so
// the tick is deterministic.
func (ns *NavSystem) Update(timeStep float64) {
	for _, id := range ns.order {
		info := ns.infos[id]
		updatePos(info, timeStep)
		updateOrient(info, timeStep)
		if l := info.Orient.Len(); l < 1-1e-5 || l > 1+1e-5 {
			panic("sim: agent orientation drifted off unit length")
		}
	}
	ns.updateNeighbours()
	ns.relocalize()
}

// updatePos blends Vel toward VelNew under the acceleration limit, then
// advances the position.
func updatePos(agent *AgentSpatialInfo, timeStep float64) {
	dv := agent.VelNew.Sub(agent.Vel)
	delV := dv.Len()
	if delV > agent.MaxAccel*timeStep {
		w := agent.MaxAccel * timeStep / delV
		agent.Vel = agent.Vel.Mul(1 - w).Add(agent.VelNew.Mul(w))
	} else {
		agent.Vel = agent.VelNew
	}
	agent.Pos = agent.Pos.Add(agent.Vel.Mul(timeStep))
}

// updateOrient turns the agent toward its velocity (or, when nearly
// stopped, toward a blend with the preferred direction), limited by the
// angular speed. A zero speed preserves the current orientation.
func updateOrient(agent *AgentSpatialInfo, timeStep float64) {
	speed := agent.Vel.Len()
	if speed < common.Epsilon {
		// Not moving: keep the current orientation.
		return
	}

	moveDir := agent.Vel.Mul(1 / speed)
	newOrient := moveDir
	if thresh := agent.PrefSpeed / 3; speed < thresh {
		frac := math.Sqrt(speed / thresh)
		prefDir := agent.PrefVelocity.Direction
		if prefDir.Len() > common.Epsilon {
			blended := common.Norm(moveDir.Mul(frac).Add(common.Norm(prefDir).Mul(1 - frac)))
			// Opposed directions can cancel; keep the move direction then.
			if blended.Len() > common.Epsilon {
				newOrient = blended
			}
		}
	}
	rotateToward(agent, newOrient, timeStep)
}

// rotateToward sets agent.Orient to target, rotating by at most
// MaxAngVel*timeStep. When clamped, the rotation sign follows the 2D cross
// product so the angle shrinks.
func rotateToward(agent *AgentSpatialInfo, target common.Vec2, timeStep float64) {
	maxAngle := agent.MaxAngVel * timeStep
	maxCt := math.Cos(maxAngle)
	if target.Dot(agent.Orient) >= maxCt {
		agent.Orient = target
		return
	}
	maxSt := math.Sin(maxAngle)
	if common.Det(agent.Orient, target) < 0 {
		maxSt = -maxSt
	}
	agent.Orient = common.Rotate(agent.Orient, maxCt, maxSt)
}

// updateNeighbours rebuilds the per-tick neighbour index from the full
// position map, in ascending agent id order.
func (ns *NavSystem) updateNeighbours() {
	entries := make([]neighbors.Entry, 0, len(ns.order))
	for _, id := range ns.order {
		entries = append(entries, neighbors.Entry{ID: id, Pos: ns.infos[id].Pos})
	}
	ns.neighbours = ns.seeker.Find(entries)
}

// relocalize reruns the stay/neighbours/blind cascade for every agent and
// records node changes with the localizer.
func (ns *NavSystem) relocalize() {
	for _, id := range ns.order {
		info := ns.infos[id]
		old := ns.localizer.AgentNode(id)
		now := ns.localizer.Locate(id, info.Pos)
		ns.localizer.UpdateAgentPosition(id, old, now)
	}
}
