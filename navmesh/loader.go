package navmesh

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"crowdsim/common"
	"crowdsim/logger"

	"go.uber.org/zap"
)

// ErrBadFormat reports a malformed mesh document.
var ErrBadFormat = errors.New("navmesh: bad format")

// The ASCII mesh document has four sections. Vertices carry an optional
// elevation; node planes are derived from the first three vertices of each
// polygon. Section headers are literal keywords:
//
//	navmesh
//	vertices <n>
//	  x y [z]
//	nodes <n>
//	  <k> i0 i1 ... i(k-1)
//	edges <n>
//	  nodeA nodeB v0 v1
//	obstacles <n>
//	  x0 y0 x1 y1 nx ny prev next
//
// Blank lines and lines starting with '#' are skipped.

// LoadFile reads a mesh document from disk.
func LoadFile(path string) (*NavMesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("navmesh: open %s: %w", path, err)
	}
	defer f.Close()
	m, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("navmesh: load %s: %w", path, err)
	}
	return m, nil
}

// Load parses a mesh document.
func Load(r io.Reader) (*NavMesh, error) {
	sc := newTokenScanner(r)

	if kw, err := sc.word(); err != nil || kw != "navmesh" {
		return nil, fmt.Errorf("%w: missing navmesh header", ErrBadFormat)
	}

	m := &NavMesh{}

	if err := sc.expect("vertices"); err != nil {
		return nil, err
	}
	nVerts, err := sc.count()
	if err != nil {
		return nil, err
	}
	elev := make([]float64, 0, nVerts)
	for i := 0; i < nVerts; i++ {
		x, y, z, err := sc.vertex()
		if err != nil {
			return nil, fmt.Errorf("%w: vertex %d: %v", ErrBadFormat, i, err)
		}
		m.vertices = append(m.vertices, common.Vec2{x, y})
		elev = append(elev, z)
	}

	if err := sc.expect("nodes"); err != nil {
		return nil, err
	}
	nNodes, err := sc.count()
	if err != nil {
		return nil, err
	}
	for i := 0; i < nNodes; i++ {
		k, err := sc.intVal()
		if err != nil || k < 3 {
			return nil, fmt.Errorf("%w: node %d: bad vertex count", ErrBadFormat, i)
		}
		verts := make([]int, k)
		for j := range verts {
			vi, err := sc.intVal()
			if err != nil || vi < 0 || vi >= nVerts {
				return nil, fmt.Errorf("%w: node %d: bad vertex index", ErrBadFormat, i)
			}
			verts[j] = vi
		}
		n := &Node{ID: uint32(i), Verts: verts}
		n.Plane = planeFrom(m.vertices, elev, verts)
		m.nodes = append(m.nodes, n)
	}

	if err := sc.expect("edges"); err != nil {
		return nil, err
	}
	nEdges, err := sc.count()
	if err != nil {
		return nil, err
	}
	for i := 0; i < nEdges; i++ {
		a, err1 := sc.intVal()
		b, err2 := sc.intVal()
		v0, err3 := sc.intVal()
		v1, err4 := sc.intVal()
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			return nil, fmt.Errorf("%w: edge %d", ErrBadFormat, i)
		}
		if a < 0 || a >= nNodes || b < 0 || b >= nNodes || a == b ||
			v0 < 0 || v0 >= nVerts || v1 < 0 || v1 >= nVerts {
			return nil, fmt.Errorf("%w: edge %d: bad reference", ErrBadFormat, i)
		}
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

	if err := sc.expect("obstacles"); err != nil {
		return nil, err
	}
	nObst, err := sc.count()
	if err != nil {
		return nil, err
	}
	for i := 0; i < nObst; i++ {
		vals := make([]float64, 6)
		for j := range vals {
			v, err := sc.floatVal()
			if err != nil {
				return nil, fmt.Errorf("%w: obstacle %d", ErrBadFormat, i)
			}
			vals[j] = v
		}
		prev, err1 := sc.intVal()
		next, err2 := sc.intVal()
		if err1 != nil || err2 != nil {
			return nil, fmt.Errorf("%w: obstacle %d: bad links", ErrBadFormat, i)
		}
		m.obstacles = append(m.obstacles, &Obstacle{
			ID:     i,
			P0:     common.Vec2{vals[0], vals[1]},
			P1:     common.Vec2{vals[2], vals[3]},
			Normal: common.Vec2{vals[4], vals[5]},
			Prev:   prev,
			Next:   next,
		})
	}

	m.finalize()
	logger.Debug("navmesh loaded",
		zap.Int("vertices", len(m.vertices)),
		zap.Int("nodes", len(m.nodes)),
		zap.Int("edges", len(m.edges)),
		zap.Int("obstacles", len(m.obstacles)))
	return m, nil
}

// planeFrom solves z = A*x + B*y + C from the first three polygon corners.
// Degenerate triples fall back to a flat plane at the mean elevation.
func planeFrom(verts []common.Vec2, elev []float64, idx []int) Plane {
	p0, p1, p2 := verts[idx[0]], verts[idx[1]], verts[idx[2]]
	z0, z1, z2 := elev[idx[0]], elev[idx[1]], elev[idx[2]]

	det := (p1[0]-p0[0])*(p2[1]-p0[1]) - (p2[0]-p0[0])*(p1[1]-p0[1])
	if det > -common.Epsilon && det < common.Epsilon {
		return Plane{C: (z0 + z1 + z2) / 3}
	}
	a := ((z1-z0)*(p2[1]-p0[1]) - (z2-z0)*(p1[1]-p0[1])) / det
	b := ((z2-z0)*(p1[0]-p0[0]) - (z1-z0)*(p2[0]-p0[0])) / det
	return Plane{A: a, B: b, C: z0 - a*p0[0] - b*p0[1]}
}

// tokenScanner yields whitespace-separated tokens, skipping comments.
type tokenScanner struct {
	sc  *bufio.Scanner
	buf []string
}

func newTokenScanner(r io.Reader) *tokenScanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	return &tokenScanner{sc: sc}
}

func (t *tokenScanner) word() (string, error) {
	for len(t.buf) == 0 {
		if !t.sc.Scan() {
			if err := t.sc.Err(); err != nil {
				return "", err
			}
			return "", io.EOF
		}
		line := strings.TrimSpace(t.sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		t.buf = strings.Fields(line)
	}
	w := t.buf[0]
	t.buf = t.buf[1:]
	return w, nil
}

func (t *tokenScanner) expect(kw string) error {
	w, err := t.word()
	if err != nil || w != kw {
		return fmt.Errorf("%w: expected %q section", ErrBadFormat, kw)
	}
	return nil
}

func (t *tokenScanner) count() (int, error) {
	n, err := t.intVal()
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: bad count", ErrBadFormat)
	}
	return n, nil
}

func (t *tokenScanner) intVal() (int, error) {
	w, err := t.word()
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(w)
}

func (t *tokenScanner) floatVal() (float64, error) {
	w, err := t.word()
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(w, 64)
}

// vertex reads "x y" with an optional trailing z on the same line.
func (t *tokenScanner) vertex() (x, y, z float64, err error) {
	if x, err = t.floatVal(); err != nil {
		return
	}
	if y, err = t.floatVal(); err != nil {
		return
	}
	// z is optional and only present when the remainder of the line holds
	// one more number.
	if len(t.buf) > 0 {
		if v, perr := strconv.ParseFloat(t.buf[0], 64); perr == nil {
			z = v
			t.buf = t.buf[1:]
		}
	}
	return
}
