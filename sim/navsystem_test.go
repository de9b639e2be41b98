package sim

import (
	"math"
	"strings"
	"testing"

	"crowdsim/common"
	"crowdsim/navmesh"
)

func square40() *navmesh.NavMesh {
	return navmesh.NewGrid(common.Vec2{-20, -20}, 2, 2, 20)
}

func TestAccelClamp(t *testing.T) {
	// One tick with velNew far beyond reach: the velocity moves by exactly
	// maxAccel * timeStep along the demanded direction.
	info := DefaultSpatialInfo(0, common.Vec2{})
	info.MaxAccel = 1
	info.VelNew = common.Vec2{10, 0}

	updatePos(&info, 0.1)

	if common.Dist(info.Vel, common.Vec2{0.1, 0}) > 1e-12 {
		t.Fatalf("vel = %v, want (0.1, 0)", info.Vel)
	}
	if common.Dist(info.Pos, common.Vec2{0.01, 0}) > 1e-12 {
		t.Fatalf("pos = %v", info.Pos)
	}
}

func TestAccelClampReachable(t *testing.T) {
	info := DefaultSpatialInfo(0, common.Vec2{})
	info.MaxAccel = 5
	info.VelNew = common.Vec2{0.2, 0}

	updatePos(&info, 0.1)

	if info.Vel != info.VelNew {
		t.Fatalf("reachable velNew should be taken exactly, got %v", info.Vel)
	}
}

func TestOrientClampExactRate(t *testing.T) {
	// Orient clamp scenario: a fast turn demand rotates by exactly
	// maxAngVel * timeStep per tick.
	info := DefaultSpatialInfo(0, common.Vec2{})
	info.PrefSpeed = 1
	info.MaxAngVel = math.Pi / 4
	info.Orient = common.Vec2{1, 0}
	info.Vel = common.Vec2{-1, 0}
	info.PrefVelocity = PrefVelocity{Direction: common.Vec2{-1, 0}, Speed: 1}

	const dt = 0.1
	prev := info.Orient
	for tick := 0; tick < 20; tick++ {
		updateOrient(&info, dt)
		delta := common.AngleBetween(prev, info.Orient)
		if math.Abs(delta-math.Pi/4*dt) > 1e-6 {
			t.Fatalf("tick %d: rotated %v, want %v", tick, delta, math.Pi/4*dt)
		}
		prev = info.Orient
	}
}

func TestOrientStaysUnit(t *testing.T) {
	info := DefaultSpatialInfo(0, common.Vec2{})
	info.Vel = common.Vec2{0.01, 0.02}
	info.PrefVelocity = PrefVelocity{Direction: common.Norm(common.Vec2{-1, 3}), Speed: 0.05}
	for tick := 0; tick < 200; tick++ {
		updateOrient(&info, 0.1)
		if math.Abs(info.Orient.Len()-1) > 1e-5 {
			t.Fatalf("tick %d: |orient| = %v", tick, info.Orient.Len())
		}
	}
}

func TestOrientPreservedWhenStopped(t *testing.T) {
	info := DefaultSpatialInfo(0, common.Vec2{})
	info.Orient = common.Norm(common.Vec2{1, 1})
	info.Vel = common.Vec2{}
	info.PrefVelocity = PrefVelocity{Direction: common.Vec2{-1, 0}, Speed: 0.05}

	before := info.Orient
	updateOrient(&info, 0.1)
	if info.Orient != before {
		t.Fatalf("zero speed changed orient to %v", info.Orient)
	}
}

func TestOrientBlendsTowardPreferredAtLowSpeed(t *testing.T) {
	info := DefaultSpatialInfo(0, common.Vec2{})
	info.PrefSpeed = 0.3 // threshold 0.1
	info.MaxAngVel = 100 // effectively unclamped
	info.Orient = common.Vec2{1, 0}
	info.Vel = common.Vec2{0.01, 0} // far below threshold
	info.PrefVelocity = PrefVelocity{Direction: common.Vec2{0, 1}, Speed: 0.3}

	updateOrient(&info, 0.1)
	// frac = sqrt(0.01/0.1) ~ 0.316: mostly the preferred direction.
	if info.Orient[1] < 0.5 {
		t.Fatalf("orient = %v, want it leaning to +y", info.Orient)
	}
}

func TestNavSystemNeighboursAcrossTicks(t *testing.T) {
	ns := NewNavSystem(square40())
	ns.SetSensitivityRadius(2)
	ns.AddAgent(DefaultSpatialInfo(0, common.Vec2{0, 0}))
	ns.AddAgent(DefaultSpatialInfo(1, common.Vec2{1, 0}))
	ns.AddAgent(DefaultSpatialInfo(2, common.Vec2{10, 10}))

	if got := ns.CountNeighbours(0); got != 0 {
		t.Fatalf("before any update: %d neighbours", got)
	}

	ns.Update(0.1)

	if got := ns.CountNeighbours(0); got != 1 {
		t.Fatalf("agent 0 has %d neighbours, want 1", got)
	}
	nbs := ns.Neighbours(0)
	if len(nbs) != 1 || nbs[0].ID != 1 {
		t.Fatalf("neighbours of 0: %+v", nbs)
	}
	if got := ns.CountNeighbours(2); got != 0 {
		t.Fatalf("distant agent has %d neighbours", got)
	}
}

func TestNavSystemRelocalizes(t *testing.T) {
	ns := NewNavSystem(square40())
	info := DefaultSpatialInfo(0, common.Vec2{-10, -10})
	ns.AddAgent(info)
	ns.Update(0.1)

	loc := ns.Localizer()
	first := loc.AgentNode(0)
	if first == navmesh.NoNode {
		t.Fatal("agent not localized")
	}

	// Teleport across a portal; the relocalisation phase must follow.
	ns.SpatialInfo(0).Pos = common.Vec2{10, -10}
	ns.Update(0.1)
	second := loc.AgentNode(0)
	if second == first || second == navmesh.NoNode {
		t.Fatalf("relocalisation: %d -> %d", first, second)
	}
	// The recorded node must actually contain the position.
	if !ns.Mesh().NodeByID(second).ContainsPoint(ns.SpatialInfo(0).Pos) {
		t.Fatal("recorded node does not contain the agent")
	}
}

func TestClosestObstacles(t *testing.T) {
	const doc = `
navmesh
vertices 4
0 0
4 0
4 4
0 4
nodes 1
4 0 1 2 3
edges 0
obstacles 1
0 0 4 0 0 1 -1 -1
`
	mesh, err := navmesh.Load(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	ns := NewNavSystem(mesh)
	ns.AddAgent(DefaultSpatialInfo(0, common.Vec2{2, 2}))
	ns.Update(0.1)

	obs := ns.GetClosestObstacles(0)
	if len(obs) != 1 {
		t.Fatalf("obstacles = %d, want 1", len(obs))
	}
	if obs[0].Normal != (common.Vec2{0, 1}) {
		t.Fatalf("normal = %v", obs[0].Normal)
	}
	if ns.GetClosestObstacles(99) != nil {
		t.Fatal("unknown agent returned obstacles")
	}
}

func TestNavSystemRemoveAgent(t *testing.T) {
	ns := NewNavSystem(square40())
	ns.AddAgent(DefaultSpatialInfo(0, common.Vec2{0, 0}))
	ns.AddAgent(DefaultSpatialInfo(1, common.Vec2{1, 0}))
	ns.RemoveAgent(0)
	if ns.AgentCount() != 1 {
		t.Fatalf("count = %d", ns.AgentCount())
	}
	if ns.SpatialInfo(0) != nil {
		t.Fatal("removed agent still has spatial info")
	}
	ns.Update(0.1) // must not touch the retired id
	if got := ns.CountNeighbours(1); got != 0 {
		t.Fatalf("agent 1 neighbours = %d", got)
	}
}
