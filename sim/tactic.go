package sim

import (
	"math"

	"crowdsim/common"
	"crowdsim/goal"
	"crowdsim/navmesh"
)

// NavMeshTactic follows portal routes across the mesh: every tick it
// advances each member's portal path and writes the resulting preferred
// velocity. Goal changes are noticed by goal id and trigger a new route.
type NavMeshTactic struct {
	sim           *Simulator
	localizer     *navmesh.Localizer
	headingDevCos float64

	members membership
	paths   map[common.AgentID]*navmesh.PortalPath
}

// NewNavMeshTactic creates the tactic over the simulator's localizer. The
// default heading cone is the full circle.
func NewNavMeshTactic(s *Simulator) *NavMeshTactic {
	return &NavMeshTactic{
		sim:           s,
		localizer:     s.NavSystem().Localizer(),
		headingDevCos: math.Cos(math.Pi),
		members:       newMembership(),
		paths:         make(map[common.AgentID]*navmesh.PortalPath),
	}
}

func (t *NavMeshTactic) ID() ComponentID { return ComponentNavMesh }

// SetHeadingDeviation tightens the cone the preferred direction may deviate
// from the current orientation, given as a cosine threshold.
func (t *NavMeshTactic) SetHeadingDeviation(cos float64) { t.headingDevCos = cos }

// AddAgent snaps the agent onto the mesh and plans its initial route.
func (t *NavMeshTactic) AddAgent(id common.AgentID) {
	info := t.sim.GetSpatialInfo(id)
	if info == nil {
		return
	}
	mesh := t.localizer.Mesh()
	info.Pos = mesh.ClosestAvailablePoint(info.Pos)

	from := t.localizer.NodeID(info.Pos)
	t.localizer.UpdateAgentPosition(id, navmesh.NoNode, from)
	t.members.add(id)
	t.planPath(id, info)
}

func (t *NavMeshTactic) RemoveAgent(id common.AgentID) bool {
	delete(t.paths, id)
	return t.members.remove(id)
}

// Update advances location and preferred velocity for every member, in
// membership order.
func (t *NavMeshTactic) Update(timeStep float64) {
	for _, id := range t.members.order {
		info := t.sim.GetSpatialInfo(id)
		if info == nil {
			continue
		}
		t.updateLocation(id, info)
		t.setPrefVelocity(id, info)
	}
}

// Path returns the agent's current portal path, nil when none.
func (t *NavMeshTactic) Path(id common.AgentID) *navmesh.PortalPath {
	return t.paths[id]
}

// updateLocation feeds the agent position into its path, which advances
// portal indices, resyncs or re-plans; node transitions are recorded with
// the localizer.
func (t *NavMeshTactic) updateLocation(id common.AgentID, info *AgentSpatialInfo) {
	old := t.localizer.AgentNode(id)
	now := old
	if path := t.paths[id]; path != nil {
		now = path.UpdateLocation(id, info.Pos, t.localizer)
	} else {
		now = t.localizer.Locate(id, info.Pos)
	}
	if now != navmesh.NoNode {
		t.localizer.UpdateAgentPosition(id, old, now)
	}
}

// setPrefVelocity re-plans on goal change, then derives the preferred
// direction from the path funnel. An unreachable goal holds the agent
// still for the tick.
func (t *NavMeshTactic) setPrefVelocity(id common.AgentID, info *AgentSpatialInfo) {
	g := t.sim.GetAgentGoal(id)
	if g == nil {
		info.PrefVelocity.Speed = 0
		return
	}

	path := t.paths[id]
	if path == nil || path.Goal().ID() != g.ID() {
		if !t.planPath(id, info) {
			info.PrefVelocity.Speed = 0
			return
		}
		path = t.paths[id]
	}

	if path == nil || path.Done() || !path.Route().Valid() {
		info.PrefVelocity.Speed = 0
		return
	}

	dir, ok := path.PreferredDirection(info.Pos, info.Orient, t.headingDevCos)
	if !ok {
		info.PrefVelocity.Speed = 0
		return
	}
	info.PrefVelocity.Direction = dir
	info.PrefVelocity.Speed = info.PrefSpeed
	info.PrefVelocity.Target = path.Waypoint()
}

// planPath builds a fresh route from the agent's node to the goal's node,
// snapping an off-mesh goal to the closest available point first.
func (t *NavMeshTactic) planPath(id common.AgentID, info *AgentSpatialInfo) bool {
	g := t.sim.GetAgentGoal(id)
	if g == nil {
		return false
	}
	mesh := t.localizer.Mesh()

	goalPoint := g.Centroid()
	goalNode := t.localizer.NodeID(goalPoint)
	if goalNode == navmesh.NoNode {
		// The goal is off-mesh: retarget the agent to the closest
		// available point so the funnel never leads off the walkable
		// surface.
		goalPoint = mesh.ClosestAvailablePoint(goalPoint)
		snapped := goal.NewPoint(goalPoint[0], goalPoint[1])
		t.sim.SetAgentGoal(id, snapped)
		g = snapped
		goalNode = t.localizer.NodeID(goalPoint)
	}
	agentNode := t.localizer.AgentNode(id)
	if agentNode == navmesh.NoNode {
		agentNode = t.localizer.NodeID(info.Pos)
	}
	if goalNode == navmesh.NoNode || agentNode == navmesh.NoNode {
		return false
	}

	route := t.localizer.Planner().Route(agentNode, goalNode, 2*info.Radius)
	t.paths[id] = navmesh.NewPortalPath(info.Pos, g, route, info.Radius)
	return true
}
