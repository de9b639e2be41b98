package navmesh

import (
	"errors"
	"math"
	"strings"
	"testing"

	"crowdsim/common"
)

// twoRooms is a hand-authored document: two unit-height rooms side by
// side, elevation rising with x (z = x) across both, one obstacle, one
// portal.
const twoRooms = `
# two rooms sharing a portal
navmesh
vertices 6
0 0 0
2 0 2
4 0 4
0 1 0
2 1 2
4 1 4
nodes 2
4 0 1 4 3
4 1 2 5 4
edges 1
0 1 1 4
obstacles 1
0 0 2 0 0 1 -1 -1
`

func loadTwoRooms(t *testing.T) *NavMesh {
	t.Helper()
	m, err := Load(strings.NewReader(twoRooms))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return m
}

func TestLoadCounts(t *testing.T) {
	m := loadTwoRooms(t)
	if m.VertexCount() != 6 || m.NodeCount() != 2 || m.EdgeCount() != 1 || m.ObstacleCount() != 1 {
		t.Fatalf("counts: v=%d n=%d e=%d o=%d",
			m.VertexCount(), m.NodeCount(), m.EdgeCount(), m.ObstacleCount())
	}
}

func TestLoadGeometry(t *testing.T) {
	m := loadTwoRooms(t)

	n0 := m.NodeByID(0)
	if common.Dist(n0.Center, common.Vec2{1, 0.5}) > 1e-12 {
		t.Fatalf("node 0 centre = %v", n0.Center)
	}
	if !n0.ContainsPoint(common.Vec2{1, 0.5}) {
		t.Fatal("node 0 does not contain its centre")
	}

	e := m.Edge(0)
	if e.NodeA.ID != 0 || e.NodeB.ID != 1 {
		t.Fatalf("portal connects %d and %d", e.NodeA.ID, e.NodeB.ID)
	}
	if math.Abs(e.Width()-1) > 1e-12 {
		t.Fatalf("portal width = %v", e.Width())
	}

	// The obstacle midpoint (1, 0) lies on node 0's border.
	if len(n0.Obstacles) != 1 {
		t.Fatalf("node 0 obstacles = %d", len(n0.Obstacles))
	}
	o := m.ObstacleByID(0)
	if o.Prev != -1 || o.Next != -1 {
		t.Fatalf("obstacle links = %d/%d", o.Prev, o.Next)
	}
	if o.Normal != (common.Vec2{0, 1}) {
		t.Fatalf("obstacle normal = %v", o.Normal)
	}
}

func TestLoadElevation(t *testing.T) {
	m := loadTwoRooms(t)
	// The authored elevations rise with x: z = x on both nodes.
	n := m.NodeByID(0)
	if e := n.Elevation(common.Vec2{1, 0.5}); math.Abs(e-1) > 1e-9 {
		t.Fatalf("elevation at x=1: %v, want 1", e)
	}
	grad := n.Gradient()
	if math.Abs(grad[0]-1) > 1e-9 || math.Abs(grad[1]) > 1e-9 {
		t.Fatalf("gradient = %v, want (1, 0)", grad)
	}
}

func TestLoadRejectsGarbage(t *testing.T) {
	cases := []string{
		"",
		"not-a-mesh",
		"navmesh\nvertices 1\n0 0\nnodes 1\n2 0 0",       // degenerate polygon
		"navmesh\nvertices 2\n0 0\n1 0\nnodes 1\n3 0 1 5", // bad index
	}
	for i, doc := range cases {
		if _, err := Load(strings.NewReader(doc)); err == nil {
			t.Fatalf("case %d: bad document accepted", i)
		}
	}
}

func TestLoadBadFormatSentinel(t *testing.T) {
	_, err := Load(strings.NewReader("bogus"))
	if !errors.Is(err, ErrBadFormat) {
		t.Fatalf("err = %v, want ErrBadFormat", err)
	}
}
