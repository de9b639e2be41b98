package navmesh

// PortalRoute is an ordered portal sequence from a source node to a
// destination node, respecting a minimum traversal width. Routes are
// immutable once built and owned by the planner cache.
type PortalRoute struct {
	Source uint32
	Dest   uint32

	// Portals to cross, in travel order. Nodes holds the node sequence the
	// route passes through; len(Nodes) == len(Portals)+1 for a valid route.
	Portals []*Edge
	Nodes   []uint32

	// MinWidth is the narrowest portal width along the route.
	MinWidth float64
	// Length is the accumulated centre-to-centre cost of the search.
	Length float64

	valid bool
}

// Valid reports whether the route actually connects Source to Dest. The
// planner caches and returns invalid routes for unreachable pairs.
func (r *PortalRoute) Valid() bool { return r.valid }

// PortalCount returns the number of portals to cross.
func (r *PortalRoute) PortalCount() int { return len(r.Portals) }

// NodeAfterPortal returns the node id entered after crossing portal i.
func (r *PortalRoute) NodeAfterPortal(i int) uint32 {
	return r.Nodes[i+1]
}

// NodeBeforePortal returns the node id occupied before crossing portal i.
func (r *PortalRoute) NodeBeforePortal(i int) uint32 {
	return r.Nodes[i]
}

// IndexOfNode returns the position of nodeID in the route's node sequence,
// or -1 when the node is not on the route.
func (r *PortalRoute) IndexOfNode(nodeID uint32) int {
	for i, n := range r.Nodes {
		if n == nodeID {
			return i
		}
	}
	return -1
}
