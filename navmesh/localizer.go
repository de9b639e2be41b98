package navmesh

import (
	"crowdsim/common"
)

// Localizer tracks which node each agent currently occupies and answers
// point-location queries against the mesh. It owns the route planner.
//
// Location is resolved with three strategies of increasing cost: test the
// last known node (stay), test its portal neighbours, then scan the whole
// mesh blind.
type Localizer struct {
	mesh       *NavMesh
	planner    *Planner
	agentNodes map[common.AgentID]uint32
}

// NewLocalizer creates a localizer and its planner over the given mesh.
func NewLocalizer(mesh *NavMesh) *Localizer {
	return &Localizer{
		mesh:       mesh,
		planner:    NewPlanner(mesh),
		agentNodes: make(map[common.AgentID]uint32),
	}
}

// Mesh returns the shared mesh.
func (l *Localizer) Mesh() *NavMesh { return l.mesh }

// Planner returns the shared route planner.
func (l *Localizer) Planner() *Planner { return l.planner }

// NodeID locates p by blind scan, NoNode when p is off-mesh.
func (l *Localizer) NodeID(p common.Vec2) uint32 {
	return l.mesh.FindNode(p)
}

// FindNodeBlind is the linear scan strategy.
func (l *Localizer) FindNodeBlind(p common.Vec2) uint32 {
	return l.mesh.FindNode(p)
}

// TestNeighbors tests p against each portal-adjacent node of node.
func (l *Localizer) TestNeighbors(node *Node, p common.Vec2) uint32 {
	for _, e := range node.Edges {
		other := e.Other(node)
		if other == nil || other.Deleted {
			continue
		}
		if other.ContainsPoint(p) {
			return other.ID
		}
	}
	return NoNode
}

// Locate runs the stay -> neighbours -> blind cascade from the agent's last
// known node. When every strategy fails the last known node is kept, so a
// numerically displaced agent does not lose its mesh attachment.
func (l *Localizer) Locate(id common.AgentID, p common.Vec2) uint32 {
	last, ok := l.agentNodes[id]
	if !ok {
		last = NoNode
	}
	if last != NoNode {
		node := l.mesh.NodeByID(last)
		if node != nil && !node.Deleted {
			if node.ContainsPoint(p) {
				return last
			}
			if found := l.TestNeighbors(node, p); found != NoNode {
				return found
			}
		}
	}
	if found := l.mesh.FindNode(p); found != NoNode {
		return found
	}
	return last
}

// UpdateAgentPosition records a node transition for an agent. Idempotent;
// must be called whenever an agent crosses a portal.
func (l *Localizer) UpdateAgentPosition(id common.AgentID, oldNode, newNode uint32) {
	if cur, ok := l.agentNodes[id]; ok && cur == newNode {
		return
	}
	l.agentNodes[id] = newNode
}

// AgentNode returns the last recorded node for an agent, NoNode if unknown.
func (l *Localizer) AgentNode(id common.AgentID) uint32 {
	if n, ok := l.agentNodes[id]; ok {
		return n
	}
	return NoNode
}

// RemoveAgent drops the tracking entry for a retired agent.
func (l *Localizer) RemoveAgent(id common.AgentID) {
	delete(l.agentNodes, id)
}
