package navmesh

import (
	"math"

	"crowdsim/common"
)

// NavMesh owns the vertex, node, edge and obstacle tables. The geometry is
// immutable after load; only the tombstone flag on nodes may change.
type NavMesh struct {
	vertices  []common.Vec2
	nodes     []*Node
	edges     []*Edge
	obstacles []*Obstacle
	bb        BoundingBox

	activeNodes int
}

// Vertex returns the i-th vertex of the shared vertex table.
func (m *NavMesh) Vertex(i int) common.Vec2 { return m.vertices[i] }

// VertexCount returns the size of the vertex table.
func (m *NavMesh) VertexCount() int { return len(m.vertices) }

// NodeByID returns the node with the given id, or nil when the id is out of
// range. Tombstoned nodes are returned as-is; callers check Deleted.
func (m *NavMesh) NodeByID(id uint32) *Node {
	if id == NoNode || int(id) >= len(m.nodes) {
		return nil
	}
	return m.nodes[id]
}

// NodeCount returns the total node count, tombstones included.
func (m *NavMesh) NodeCount() int { return len(m.nodes) }

// ActiveNodeCount returns the number of non-deleted nodes.
func (m *NavMesh) ActiveNodeCount() int { return m.activeNodes }

// EdgeCount returns the number of portals.
func (m *NavMesh) EdgeCount() int { return len(m.edges) }

// Edge returns the i-th portal.
func (m *NavMesh) Edge(i int) *Edge { return m.edges[i] }

// ObstacleByID returns the obstacle with the given id, or nil.
func (m *NavMesh) ObstacleByID(id int) *Obstacle {
	if id < 0 || id >= len(m.obstacles) {
		return nil
	}
	return m.obstacles[id]
}

// ObstacleCount returns the number of obstacles.
func (m *NavMesh) ObstacleCount() int { return len(m.obstacles) }

// BB returns the bounding box of the whole mesh.
func (m *NavMesh) BB() BoundingBox { return m.bb }

// FindNode scans the non-deleted nodes in id order and returns the first
// node containing p, or NoNode.
func (m *NavMesh) FindNode(p common.Vec2) uint32 {
	seen := 0
	for _, n := range m.nodes {
		if n.Deleted {
			continue
		}
		if n.ContainsPoint(p) {
			return n.ID
		}
		seen++
		if seen == m.activeNodes {
			break
		}
	}
	return NoNode
}

// Elevation returns the mesh elevation at p, or 0 when p is off-mesh.
func (m *NavMesh) Elevation(p common.Vec2) float64 {
	id := m.FindNode(p)
	if id == NoNode {
		return 0
	}
	return m.nodes[id].Elevation(p)
}

// ClosestAvailablePoint returns p itself when p is on the mesh, otherwise
// the centre of the nearest non-deleted node by squared distance, ties
// broken by lowest node id.
func (m *NavMesh) ClosestAvailablePoint(p common.Vec2) common.Vec2 {
	if m.FindNode(p) != NoNode {
		return p
	}
	best := p
	bestDist := math.Inf(1)
	for _, n := range m.nodes {
		if n.Deleted {
			continue
		}
		if d := common.DistSqr(p, n.Center); d < bestDist {
			bestDist = d
			best = n.Center
		}
	}
	return best
}

// SetNodeDeleted toggles the tombstone flag on a node and keeps the active
// node count in step. Unknown ids are ignored.
func (m *NavMesh) SetNodeDeleted(id uint32, deleted bool) {
	n := m.NodeByID(id)
	if n == nil || n.Deleted == deleted {
		return
	}
	n.Deleted = deleted
	if deleted {
		m.activeNodes--
	} else {
		m.activeNodes++
	}
}

// finalize computes node centres and bounding boxes, normalizes winding
// and attaches obstacles to their containing nodes. Node planes are not
// touched here: Load derives them, and grid meshes keep flat zero planes.
// Called once by the loaders.
func (m *NavMesh) finalize() {
	m.bb = BoundingBox{
		Min: common.Vec2{math.Inf(1), math.Inf(1)},
		Max: common.Vec2{math.Inf(-1), math.Inf(-1)},
	}
	for _, v := range m.vertices {
		m.bb.extend(v)
	}
	for _, n := range m.nodes {
		n.mesh = m
		ensureCCW(m, n)

		n.BB = BoundingBox{
			Min: common.Vec2{math.Inf(1), math.Inf(1)},
			Max: common.Vec2{math.Inf(-1), math.Inf(-1)},
		}
		c := common.Vec2{}
		for _, vi := range n.Verts {
			v := m.vertices[vi]
			n.BB.extend(v)
			c = c.Add(v)
		}
		n.Center = c.Mul(1 / float64(len(n.Verts)))
	}
	m.activeNodes = 0
	for _, n := range m.nodes {
		if !n.Deleted {
			m.activeNodes++
		}
	}
	for _, o := range m.obstacles {
		if id := m.FindNode(o.Midpoint()); id != NoNode {
			node := m.nodes[id]
			node.Obstacles = append(node.Obstacles, o)
		}
	}
}

// ensureCCW reverses the vertex order of nodes authored clockwise.
func ensureCCW(m *NavMesh, n *Node) {
	area := 0.0
	k := len(n.Verts)
	for i := 0; i < k; i++ {
		a := m.vertices[n.Verts[i]]
		b := m.vertices[n.Verts[(i+1)%k]]
		area += common.Det(a, b)
	}
	if area < 0 {
		for i, j := 0, k-1; i < j; i, j = i+1, j-1 {
			n.Verts[i], n.Verts[j] = n.Verts[j], n.Verts[i]
		}
	}
}
