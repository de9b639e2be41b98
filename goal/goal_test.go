package goal

import (
	"math"
	"testing"

	"crowdsim/common"
)

func TestGoalIDsAreUnique(t *testing.T) {
	a := NewPoint(0, 0)
	b := NewPoint(0, 0)
	if a.ID() == b.ID() {
		t.Fatal("two goals share an id")
	}
}

func TestPoint(t *testing.T) {
	g := NewPoint(1, 2)
	if c := g.Centroid(); c != (common.Vec2{1, 2}) {
		t.Fatalf("centroid = %v", c)
	}
	if !g.Contains(common.Vec2{1, 2}) {
		t.Fatal("point goal should contain its centre")
	}
	if g.Contains(common.Vec2{1.1, 2}) {
		t.Fatal("point goal should not contain a distant point")
	}
	if np := g.NearestPoint(common.Vec2{50, 50}); np != (common.Vec2{1, 2}) {
		t.Fatalf("nearest = %v", np)
	}
}

func TestDisk(t *testing.T) {
	g := NewDisk(0, 0, 3)
	if !g.Contains(common.Vec2{3, 0}) {
		t.Fatal("boundary should be inside")
	}
	if g.Contains(common.Vec2{3.01, 0}) {
		t.Fatal("outside the radius should be outside")
	}
	np := g.NearestPoint(common.Vec2{6, 0})
	if math.Abs(np[0]-3) > 1e-12 || math.Abs(np[1]) > 1e-12 {
		t.Fatalf("nearest from outside = %v, want (3,0)", np)
	}
	inside := common.Vec2{1, 1}
	if np := g.NearestPoint(inside); np != inside {
		t.Fatalf("nearest from inside = %v, want identity", np)
	}
}

func TestAxisAlignedBox(t *testing.T) {
	g := NewAxisAlignedBox(4, 1, 0, 3) // corners may come unordered
	if c := g.Centroid(); c != (common.Vec2{2, 2}) {
		t.Fatalf("centroid = %v", c)
	}
	if !g.Contains(common.Vec2{0, 1}) || !g.Contains(common.Vec2{4, 3}) {
		t.Fatal("corners should be inside")
	}
	if g.Contains(common.Vec2{2, 3.5}) {
		t.Fatal("point above the box should be outside")
	}
	if np := g.NearestPoint(common.Vec2{-2, 2}); np != (common.Vec2{0, 2}) {
		t.Fatalf("nearest = %v", np)
	}
}

func TestOrientedBox(t *testing.T) {
	// Unit square rotated 45 degrees around the origin.
	g := NewOrientedBox(0, 0, 1, 1, math.Pi/4)
	if !g.Contains(common.Vec2{0, 1}) {
		t.Fatal("rotated interior point should be inside")
	}
	if g.Contains(common.Vec2{1, 0}) {
		t.Fatal("point outside the rotated box reported inside")
	}
	c := g.Centroid()
	want := common.Vec2{0, math.Sqrt2 / 2}
	if common.Dist(c, want) > 1e-12 {
		t.Fatalf("centroid = %v, want %v", c, want)
	}
	np := g.NearestPoint(c)
	if common.Dist(np, c) > 1e-12 {
		t.Fatal("nearest point from inside should be identity")
	}
}
