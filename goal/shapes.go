package goal

import (
	"math"

	"crowdsim/common"
)

// Point is a zero-area goal. Contains matches only within a small epsilon.
type Point struct {
	id     uint64
	center common.Vec2
}

func NewPoint(x, y float64) *Point {
	return &Point{id: newID(), center: common.Vec2{x, y}}
}

func (g *Point) ID() uint64              { return g.id }
func (g *Point) Centroid() common.Vec2   { return g.center }
func (g *Point) Contains(p common.Vec2) bool {
	return common.DistSqr(p, g.center) <= common.Sqr(common.Epsilon)
}
func (g *Point) NearestPoint(common.Vec2) common.Vec2 { return g.center }

// Disk is a filled circle.
type Disk struct {
	id     uint64
	center common.Vec2
	radius float64
}

func NewDisk(cx, cy, r float64) *Disk {
	return &Disk{id: newID(), center: common.Vec2{cx, cy}, radius: r}
}

func (g *Disk) ID() uint64            { return g.id }
func (g *Disk) Centroid() common.Vec2 { return g.center }

func (g *Disk) Contains(p common.Vec2) bool {
	return common.DistSqr(p, g.center) <= common.Sqr(g.radius)
}

func (g *Disk) NearestPoint(p common.Vec2) common.Vec2 {
	d := p.Sub(g.center)
	if d.Len() <= g.radius {
		return p
	}
	return g.center.Add(common.Norm(d).Mul(g.radius))
}

// AxisAlignedBox is a filled axis-aligned rectangle.
type AxisAlignedBox struct {
	id       uint64
	min, max common.Vec2
}

func NewAxisAlignedBox(xMin, yMin, xMax, yMax float64) *AxisAlignedBox {
	return &AxisAlignedBox{
		id:  newID(),
		min: common.Vec2{math.Min(xMin, xMax), math.Min(yMin, yMax)},
		max: common.Vec2{math.Max(xMin, xMax), math.Max(yMin, yMax)},
	}
}

func (g *AxisAlignedBox) ID() uint64 { return g.id }

func (g *AxisAlignedBox) Centroid() common.Vec2 {
	return g.min.Add(g.max).Mul(0.5)
}

func (g *AxisAlignedBox) Contains(p common.Vec2) bool {
	return p[0] >= g.min[0] && p[0] <= g.max[0] &&
		p[1] >= g.min[1] && p[1] <= g.max[1]
}

func (g *AxisAlignedBox) NearestPoint(p common.Vec2) common.Vec2 {
	return common.Vec2{
		common.Clamp(p[0], g.min[0], g.max[0]),
		common.Clamp(p[1], g.min[1], g.max[1]),
	}
}

// OrientedBox is a filled rectangle rotated by an angle around its pivot
// corner. Points are tested in the box frame.
type OrientedBox struct {
	id       uint64
	pivot    common.Vec2
	size     common.Vec2
	cos, sin float64
}

func NewOrientedBox(px, py, w, h, angle float64) *OrientedBox {
	return &OrientedBox{
		id:    newID(),
		pivot: common.Vec2{px, py},
		size:  common.Vec2{w, h},
		cos:   math.Cos(angle),
		sin:   math.Sin(angle),
	}
}

func (g *OrientedBox) ID() uint64 { return g.id }

// toLocal maps p into the box frame where the box spans [0,w]x[0,h].
func (g *OrientedBox) toLocal(p common.Vec2) common.Vec2 {
	d := p.Sub(g.pivot)
	return common.Vec2{g.cos*d[0] + g.sin*d[1], -g.sin*d[0] + g.cos*d[1]}
}

func (g *OrientedBox) toWorld(p common.Vec2) common.Vec2 {
	return g.pivot.Add(common.Vec2{g.cos*p[0] - g.sin*p[1], g.sin*p[0] + g.cos*p[1]})
}

func (g *OrientedBox) Centroid() common.Vec2 {
	return g.toWorld(g.size.Mul(0.5))
}

func (g *OrientedBox) Contains(p common.Vec2) bool {
	l := g.toLocal(p)
	return l[0] >= 0 && l[0] <= g.size[0] && l[1] >= 0 && l[1] <= g.size[1]
}

func (g *OrientedBox) NearestPoint(p common.Vec2) common.Vec2 {
	l := g.toLocal(p)
	return g.toWorld(common.Vec2{
		common.Clamp(l[0], 0, g.size[0]),
		common.Clamp(l[1], 0, g.size[1]),
	})
}
