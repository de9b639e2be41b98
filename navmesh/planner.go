package navmesh

import (
	"container/heap"
	"math"
	"sync"

	"crowdsim/common"
	"crowdsim/logger"

	"go.uber.org/zap"
)

// widthBucketSize quantises the requested traversal width so that near-equal
// widths share a cache entry.
const widthBucketSize = 0.05

type routeKey struct {
	src, dst uint32
	bucket   int
}

// Planner computes portal routes between mesh nodes. Results, including
// unreachable pairs, are memoised by (source, destination, width bucket).
// The cache grows monotonically; reads use shared access, insertion is
// exclusive.
type Planner struct {
	mesh *NavMesh

	mu    sync.RWMutex
	cache map[routeKey]*PortalRoute
}

// NewPlanner creates a planner over the given mesh.
func NewPlanner(mesh *NavMesh) *Planner {
	return &Planner{
		mesh:  mesh,
		cache: make(map[routeKey]*PortalRoute),
	}
}

// Route returns the cached or freshly planned route from src to dst for
// the given minimum traversal width. The returned route is shared and must
// not be mutated. Check Valid() before use: unreachable pairs and bad ids
// produce an invalid route.
func (p *Planner) Route(src, dst uint32, width float64) *PortalRoute {
	key := routeKey{src: src, dst: dst, bucket: int(math.Floor(width / widthBucketSize))}

	p.mu.RLock()
	r, ok := p.cache[key]
	p.mu.RUnlock()
	if ok {
		return r
	}

	r = p.plan(src, dst, width)

	p.mu.Lock()
	if cached, ok := p.cache[key]; ok {
		r = cached
	} else {
		p.cache[key] = r
	}
	p.mu.Unlock()
	return r
}

// CacheSize returns the number of memoised routes.
func (p *Planner) CacheSize() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.cache)
}

// plan runs an A* search over nodes. Edges are portals at least width
// wide; the cost is the distance between node centres and the heuristic is
// the straight-line distance to the destination centre. Ties resolve to
// the lower node id.
func (p *Planner) plan(src, dst uint32, width float64) *PortalRoute {
	invalid := &PortalRoute{Source: src, Dest: dst}

	from := p.mesh.NodeByID(src)
	to := p.mesh.NodeByID(dst)
	if from == nil || from.Deleted || to == nil || to.Deleted {
		return invalid
	}
	if src == dst {
		return &PortalRoute{
			Source: src, Dest: dst,
			Nodes:    []uint32{src},
			MinWidth: math.Inf(1),
			valid:    true,
		}
	}

	gScore := map[uint32]float64{src: 0}
	parent := map[uint32]searchStep{}
	open := &searchHeap{}
	heap.Init(open)
	heap.Push(open, &searchItem{node: src, g: 0, f: common.Dist(from.Center, to.Center)})
	closed := map[uint32]bool{}

	for open.Len() > 0 {
		cur := heap.Pop(open).(*searchItem)
		if closed[cur.node] {
			continue
		}
		if cur.node == dst {
			return p.reconstruct(src, dst, cur.g, parent)
		}
		closed[cur.node] = true

		node := p.mesh.NodeByID(cur.node)
		for _, e := range node.Edges {
			next := e.Other(node)
			if next == nil || next.Deleted || closed[next.ID] {
				continue
			}
			if e.Width() < width {
				continue
			}
			g := cur.g + common.Dist(node.Center, next.Center)
			if old, ok := gScore[next.ID]; ok && old <= g {
				continue
			}
			gScore[next.ID] = g
			parent[next.ID] = searchStep{node: cur.node, portal: e}
			heap.Push(open, &searchItem{
				node: next.ID,
				g:    g,
				f:    g + common.Dist(next.Center, to.Center),
			})
		}
	}

	logger.Debug("no route",
		zap.Uint32("src", src), zap.Uint32("dst", dst), zap.Float64("width", width))
	return invalid
}

// searchStep records how a node was reached during the A* search.
type searchStep struct {
	node   uint32
	portal *Edge
}

func (p *Planner) reconstruct(src, dst uint32, length float64, parent map[uint32]searchStep) *PortalRoute {
	r := &PortalRoute{
		Source: src, Dest: dst,
		Length:   length,
		MinWidth: math.Inf(1),
		valid:    true,
	}
	for at := dst; at != src; {
		step := parent[at]
		r.Portals = append(r.Portals, step.portal)
		r.Nodes = append(r.Nodes, at)
		at = step.node
	}
	r.Nodes = append(r.Nodes, src)
	reverseEdges(r.Portals)
	reverseIDs(r.Nodes)
	for _, e := range r.Portals {
		if w := e.Width(); w < r.MinWidth {
			r.MinWidth = w
		}
	}
	return r
}

func reverseEdges(s []*Edge) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

func reverseIDs(s []uint32) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

type searchItem struct {
	node uint32
	g, f float64
}

type searchHeap []*searchItem

func (h searchHeap) Len() int { return len(h) }
func (h searchHeap) Less(i, j int) bool {
	if h[i].f != h[j].f {
		return h[i].f < h[j].f
	}
	return h[i].node < h[j].node
}
func (h searchHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *searchHeap) Push(x any) { *h = append(*h, x.(*searchItem)) }
func (h *searchHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}
