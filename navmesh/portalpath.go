package navmesh

import (
	"math"

	"crowdsim/common"
	"crowdsim/goal"
)

// PortalPath is the per-agent traversal state along a PortalRoute toward a
// goal. It advances a portal index as the agent crosses portals, derives
// the next corner waypoint with a funnel over the remaining portals, and
// re-plans when the agent departs from the route.
//
// The portal index never decreases while the goal stays the same: an agent
// found behind its consumed portals triggers a re-plan instead of a
// rewind.
type PortalPath struct {
	route  *PortalRoute
	target goal.Goal
	radius float64

	current int

	// Waypoint cache, refreshed once per preferred-direction query.
	waypoint common.Vec2
	done     bool
}

// NewPortalPath binds an agent at pos to a route toward g.
func NewPortalPath(pos common.Vec2, g goal.Goal, route *PortalRoute, radius float64) *PortalPath {
	p := &PortalPath{route: route, target: g, radius: radius}
	if g.Contains(pos) {
		p.done = true
	}
	return p
}

// Route returns the underlying immutable route.
func (p *PortalPath) Route() *PortalRoute { return p.route }

// Goal returns the goal this path is headed to.
func (p *PortalPath) Goal() goal.Goal { return p.target }

// Done reports whether the agent has reached the goal shape.
func (p *PortalPath) Done() bool { return p.done }

// CurrentPortal returns the index of the first uncrossed portal.
func (p *PortalPath) CurrentPortal() int { return p.current }

// NodeID returns the node the path believes the agent is in: the source
// node of the first unreached portal, or the destination once every portal
// is consumed.
func (p *PortalPath) NodeID() uint32 {
	if !p.route.Valid() {
		return NoNode
	}
	if p.current >= len(p.route.Portals) {
		return p.route.Dest
	}
	return p.route.NodeBeforePortal(p.current)
}

// PreferredDirection returns the unit direction toward the next funnel
// corner, clamped into the heading cone of half-angle acos(headingDevCos)
// around orient. ok is false when the path cannot produce a direction
// (invalid route or already at the waypoint).
func (p *PortalPath) PreferredDirection(pos, orient common.Vec2, headingDevCos float64) (common.Vec2, bool) {
	if p.done || !p.route.Valid() {
		return common.Vec2{}, false
	}
	p.waypoint = p.nextWaypoint(pos)
	dir := common.Norm(p.waypoint.Sub(pos))
	if dir.Len() < common.Epsilon {
		return common.Vec2{}, false
	}
	return clampHeading(dir, orient, headingDevCos), true
}

// Waypoint returns the last computed corner waypoint.
func (p *PortalPath) Waypoint() common.Vec2 { return p.waypoint }

// UpdateLocation advances the path for an agent at pos and returns the node
// id the agent is now attributed to. Portal crossings advance the index;
// straying off the expected node resyncs against the route or re-plans
// from wherever the agent actually is.
func (p *PortalPath) UpdateLocation(id common.AgentID, pos common.Vec2, loc *Localizer) uint32 {
	if p.target.Contains(pos) {
		p.done = true
	}
	if !p.route.Valid() {
		return p.replan(pos, loc)
	}

	for p.current < len(p.route.Portals) && p.crossedPortal(p.current, pos) {
		p.current++
	}

	nodeID := p.NodeID()
	node := loc.Mesh().NodeByID(nodeID)
	if node != nil && !node.Deleted && node.ContainsPoint(pos) {
		return nodeID
	}

	found := NoNode
	if node != nil {
		found = loc.TestNeighbors(node, pos)
	}
	if found == NoNode {
		found = loc.FindNodeBlind(pos)
	}
	if found == NoNode {
		// Numerically displaced off-mesh; keep the route's idea of where
		// the agent is.
		return nodeID
	}

	if idx := p.route.IndexOfNode(found); idx >= p.current {
		p.current = idx
		return found
	}
	return p.replan(pos, loc)
}

// replan rebuilds the route from the agent's actual node to the goal.
// Off-mesh goals are snapped to the closest available point first.
func (p *PortalPath) replan(pos common.Vec2, loc *Localizer) uint32 {
	from := loc.FindNodeBlind(pos)
	if from == NoNode {
		return NoNode
	}
	goalPoint := p.target.Centroid()
	to := loc.NodeID(goalPoint)
	if to == NoNode {
		to = loc.NodeID(loc.Mesh().ClosestAvailablePoint(goalPoint))
	}
	if to != NoNode {
		p.route = loc.Planner().Route(from, to, 2*p.radius)
		p.current = 0
	}
	return from
}

// crossedPortal reports whether pos lies on the far side of portal i, i.e.
// on the same side as the node the portal leads to.
func (p *PortalPath) crossedPortal(i int, pos common.Vec2) bool {
	e := p.route.Portals[i]
	after := p.route.NodeAfterPortal(i)
	var toCenter common.Vec2
	if e.NodeA.ID == after {
		toCenter = e.NodeA.Center
	} else {
		toCenter = e.NodeB.Center
	}
	sPos := common.LeftOf(e.P0, e.P1, pos)
	sNext := common.LeftOf(e.P0, e.P1, toCenter)
	return sPos*sNext > 0
}

// portalSpan returns the endpoints of portal i ordered left/right with
// respect to the direction of travel, pulled inward by the agent radius.
func (p *PortalPath) portalSpan(i int) (left, right common.Vec2) {
	e := p.route.Portals[i]
	before := p.route.NodeBeforePortal(i)
	var from, to *Node
	if e.NodeA.ID == before {
		from, to = e.NodeA, e.NodeB
	} else {
		from, to = e.NodeB, e.NodeA
	}
	d := to.Center.Sub(from.Center)
	mid := e.Midpoint()
	if common.Det(d, e.P0.Sub(mid)) > 0 {
		left, right = e.P0, e.P1
	} else {
		left, right = e.P1, e.P0
	}

	if w := e.Width(); w > 2*p.radius {
		inset := common.Norm(right.Sub(left)).Mul(p.radius)
		left = left.Add(inset)
		right = right.Sub(inset)
	} else {
		left, right = mid, mid
	}
	return left, right
}

// nextWaypoint runs the funnel over the remaining portals and returns the
// first corner, or the goal point when the funnel never collapses. The two
// running tangents narrow as portals are consumed; when a new endpoint
// would cross the opposite tangent, the opposite apex is the corner.
func (p *PortalPath) nextWaypoint(pos common.Vec2) common.Vec2 {
	end := p.target.NearestPoint(pos)
	apex := pos
	left, right := apex, apex
	n := len(p.route.Portals)

	for i := p.current; i <= n; i++ {
		var l, r common.Vec2
		if i < n {
			l, r = p.portalSpan(i)
		} else {
			l, r = end, end
		}

		// A new right endpoint tightens the funnel when it lies on the left
		// of the right tangent; crossing the left tangent makes the left
		// apex the corner. Symmetric for the left side.
		if common.TriArea2D(apex, right, r) >= 0 {
			if common.DistSqr(apex, right) < common.Epsilon*common.Epsilon ||
				common.TriArea2D(apex, left, r) <= 0 {
				right = r
			} else {
				return left
			}
		}

		if common.TriArea2D(apex, left, l) <= 0 {
			if common.DistSqr(apex, left) < common.Epsilon*common.Epsilon ||
				common.TriArea2D(apex, right, l) >= 0 {
				left = l
			} else {
				return right
			}
		}
	}
	return end
}

// clampHeading limits dir to the cone around orient whose half-angle
// cosine is devCos. With devCos <= -1 the clamp is inert.
func clampHeading(dir, orient common.Vec2, devCos float64) common.Vec2 {
	if devCos <= -1 || orient.Len() < common.Epsilon {
		return dir
	}
	if dir.Dot(orient) >= devCos {
		return dir
	}
	sin := math.Sqrt(1 - devCos*devCos)
	if common.Det(orient, dir) < 0 {
		sin = -sin
	}
	return common.Rotate(orient, devCos, sin)
}
