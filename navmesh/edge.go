package navmesh

import (
	"crowdsim/common"
)

// Edge is a portal: the shared border between exactly two nodes. Portals
// are undirected; routes decide a travel direction when they use one.
type Edge struct {
	P0, P1 common.Vec2
	NodeA  *Node
	NodeB  *Node
}

// Width returns the traversal width of the portal.
func (e *Edge) Width() float64 {
	return common.Dist(e.P0, e.P1)
}

// Other returns the node on the far side of the portal from n, or nil when
// n is not incident to the portal.
func (e *Edge) Other(n *Node) *Node {
	switch n {
	case e.NodeA:
		return e.NodeB
	case e.NodeB:
		return e.NodeA
	}
	return nil
}

// Midpoint returns the centre of the portal segment.
func (e *Edge) Midpoint() common.Vec2 {
	return e.P0.Add(e.P1).Mul(0.5)
}
