package navmesh

import (
	"crowdsim/common"
)

// NewGrid builds a flat rectangular mesh of cols x rows square nodes of the
// given cell size, with min at the lower-left corner. Adjacent cells share
// full-width portals. Useful for tests and for scenes without authored
// meshes.
func NewGrid(min common.Vec2, cols, rows int, cellSize float64) *NavMesh {
	m := &NavMesh{}

	vid := func(cx, cy int) int { return cy*(cols+1) + cx }
	for cy := 0; cy <= rows; cy++ {
		for cx := 0; cx <= cols; cx++ {
			m.vertices = append(m.vertices, common.Vec2{
				min[0] + float64(cx)*cellSize,
				min[1] + float64(cy)*cellSize,
			})
		}
	}

	nid := func(cx, cy int) uint32 { return uint32(cy*cols + cx) }
	for cy := 0; cy < rows; cy++ {
		for cx := 0; cx < cols; cx++ {
			m.nodes = append(m.nodes, &Node{
				ID: nid(cx, cy),
				Verts: []int{
					vid(cx, cy), vid(cx+1, cy),
					vid(cx+1, cy+1), vid(cx, cy+1),
				},
			})
		}
	}

	addPortal := func(a, b uint32, v0, v1 int) {
		e := &Edge{
			P0:    m.vertices[v0],
			P1:    m.vertices[v1],
			NodeA: m.nodes[a],
			NodeB: m.nodes[b],
		}
		m.edges = append(m.edges, e)
		m.nodes[a].Edges = append(m.nodes[a].Edges, e)
		m.nodes[b].Edges = append(m.nodes[b].Edges, e)
	}
	for cy := 0; cy < rows; cy++ {
		for cx := 0; cx < cols; cx++ {
			if cx+1 < cols {
				addPortal(nid(cx, cy), nid(cx+1, cy), vid(cx+1, cy), vid(cx+1, cy+1))
			}
			if cy+1 < rows {
				addPortal(nid(cx, cy), nid(cx, cy+1), vid(cx, cy+1), vid(cx+1, cy+1))
			}
		}
	}

	m.finalize()
	return m
}
