// Package navmesh models walkable space as a planar partition of convex
// polygonal nodes connected by portal edges, and provides point location,
// route planning and per-agent path advancement over it.
package navmesh

import (
	"crowdsim/common"
)

// NoNode marks an unknown or unresolvable node id.
const NoNode = ^uint32(0)

// containEps is the tolerance of the point-in-node test. It bounds the
// bounding-box margin and the edge cross product (distance to the edge
// line times edge length), so on long edges the distance tolerance is
// smaller than containEps.
const containEps = 1e-5

// Plane gives the elevation over a node as z = A*x + B*y + C.
type Plane struct {
	A, B, C float64
}

// Elevation evaluates the plane at p.
func (pl Plane) Elevation(p common.Vec2) float64 {
	return pl.A*p[0] + pl.B*p[1] + pl.C
}

// BoundingBox is an axis-aligned rectangle.
type BoundingBox struct {
	Min, Max common.Vec2
}

func (b BoundingBox) Contains(p common.Vec2) bool {
	return p[0] >= b.Min[0] && p[0] <= b.Max[0] &&
		p[1] >= b.Min[1] && p[1] <= b.Max[1]
}

func (b *BoundingBox) extend(p common.Vec2) {
	if p[0] < b.Min[0] {
		b.Min[0] = p[0]
	}
	if p[1] < b.Min[1] {
		b.Min[1] = p[1]
	}
	if p[0] > b.Max[0] {
		b.Max[0] = p[0]
	}
	if p[1] > b.Max[1] {
		b.Max[1] = p[1]
	}
}

// Node is one convex polygon of the mesh. Vertices are indices into the
// mesh vertex table, ordered counter-clockwise. A node may be tombstoned
// via Deleted; queries skip tombstoned nodes.
type Node struct {
	ID        uint32
	Verts     []int
	Center    common.Vec2
	BB        BoundingBox
	Plane     Plane
	Edges     []*Edge
	Obstacles []*Obstacle
	Deleted   bool

	mesh *NavMesh
}

// Vertex returns the i-th polygon corner position.
func (n *Node) Vertex(i int) common.Vec2 {
	return n.mesh.vertices[n.Verts[i]]
}

// ContainsPoint reports whether p lies inside the polygon. The polygon is
// convex and counter-clockwise, so p is inside iff it is on the interior
// side of every directed edge.
func (n *Node) ContainsPoint(p common.Vec2) bool {
	if p[0] < n.BB.Min[0]-containEps || p[0] > n.BB.Max[0]+containEps ||
		p[1] < n.BB.Min[1]-containEps || p[1] > n.BB.Max[1]+containEps {
		return false
	}
	k := len(n.Verts)
	for i := 0; i < k; i++ {
		if common.LeftOf(n.Vertex(i), n.Vertex((i+1)%k), p) < -containEps {
			return false
		}
	}
	return true
}

// Elevation evaluates the node plane at p.
func (n *Node) Elevation(p common.Vec2) float64 {
	return n.Plane.Elevation(p)
}

// Gradient returns the slope of the node plane.
func (n *Node) Gradient() common.Vec2 {
	return common.Vec2{n.Plane.A, n.Plane.B}
}

// Connection returns the portal shared with the given node, or nil.
func (n *Node) Connection(nodeID uint32) *Edge {
	for _, e := range n.Edges {
		if e.Other(n) != nil && e.Other(n).ID == nodeID {
			return e
		}
	}
	return nil
}
