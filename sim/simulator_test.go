package sim

import (
	"testing"

	"crowdsim/common"
	"crowdsim/goal"
)

func newTestSim(t *testing.T) *Simulator {
	t.Helper()
	s, err := BuildSimulator().
		WithNavMeshObject(square40()).
		WithSensitivityRadius(2).
		WithStrategy(ComponentHold).
		WithTactic(ComponentNavMesh).
		WithOp(ComponentDirect).
		WithOp(ComponentORCA).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return s
}

func TestBuilderRequiresMesh(t *testing.T) {
	if _, err := BuildSimulator().Build(); err == nil {
		t.Fatal("build without a mesh should fail")
	}
}

func TestBuilderRejectsUnknownComponent(t *testing.T) {
	_, err := BuildSimulator().
		WithNavMeshObject(square40()).
		WithOp(ComponentID(99)).
		Build()
	if err == nil {
		t.Fatal("unknown component id accepted")
	}
}

func TestAddAgentAssignsDenseIDs(t *testing.T) {
	s := newTestSim(t)
	a, ok1 := s.AddAgent(0, 0, ComponentDirect, ComponentNavMesh, ComponentHold)
	b, ok2 := s.AddAgent(1, 1, ComponentDirect, ComponentNavMesh, ComponentHold)
	if !ok1 || !ok2 {
		t.Fatal("add agent failed")
	}
	if b != a+1 {
		t.Fatalf("ids not dense: %d then %d", a, b)
	}
}

func TestAddAgentUnknownComponent(t *testing.T) {
	s := newTestSim(t)
	if _, ok := s.AddAgent(0, 0, ComponentID(42), ComponentNavMesh, ComponentHold); ok {
		t.Fatal("agent added with unknown operation component")
	}
	if s.AgentCount() != 0 {
		t.Fatal("failed add left state behind")
	}
}

func TestAddAgentSnapsOffMesh(t *testing.T) {
	s := newTestSim(t)
	id, ok := s.AddAgent(100, 100, ComponentDirect, ComponentNavMesh, ComponentHold)
	if !ok {
		t.Fatal("off-mesh spawn rejected")
	}
	info := s.GetSpatialInfo(id)
	// Snapped to the centre of the closest node, (10, 10).
	if info.Pos != (common.Vec2{10, 10}) {
		t.Fatalf("spawn pos = %v, want (10,10)", info.Pos)
	}

	s.SetAgentGoal(id, goal.NewPoint(0, 0))
	s.DoStep()
	// One tick of walking moves at most maxSpeed * timeStep.
	if common.Dist(s.GetSpatialInfo(id).Pos, common.Vec2{10, 10}) > 0.05 {
		t.Fatalf("agent far from snap point after one tick: %v", s.GetSpatialInfo(id).Pos)
	}
}

func TestGetAgentsInfo(t *testing.T) {
	s := newTestSim(t)
	idA, _ := s.AddAgent(0, 0, ComponentDirect, ComponentNavMesh, ComponentHold)
	s.AddAgent(5, 5, ComponentORCA, ComponentNavMesh, ComponentHold)
	s.SetAgentGoal(idA, goal.NewPoint(3, 4))

	small := make([]AgentInfo, 1)
	if s.GetAgentsInfo(small) {
		t.Fatal("undersized buffer accepted")
	}

	out := make([]AgentInfo, 2)
	if !s.GetAgentsInfo(out) {
		t.Fatal("fill failed")
	}
	if out[0].ID != 0 || out[1].ID != 1 {
		t.Fatalf("order: %d, %d", out[0].ID, out[1].ID)
	}
	if out[0].GoalCentroid != (common.Vec2{3, 4}) {
		t.Fatalf("goal centroid = %v", out[0].GoalCentroid)
	}
	if out[0].OpID != ComponentDirect || out[1].OpID != ComponentORCA {
		t.Fatal("component ids not exported")
	}
}

func TestSetAgentGoal(t *testing.T) {
	s := newTestSim(t)
	id, _ := s.AddAgent(0, 0, ComponentDirect, ComponentNavMesh, ComponentHold)
	if !s.SetAgentGoal(id, goal.NewPoint(1, 1)) {
		t.Fatal("set goal failed")
	}
	if s.SetAgentGoal(id+99, goal.NewPoint(1, 1)) {
		t.Fatal("set goal on unknown agent succeeded")
	}
	if s.SetAgentGoal(id, nil) {
		t.Fatal("nil goal accepted")
	}
}

func TestOperationSwitchDeferred(t *testing.T) {
	s := newTestSim(t)
	id, _ := s.AddAgent(0, 0, ComponentDirect, ComponentNavMesh, ComponentHold)

	if !s.SetOperationComponent(id, ComponentORCA) {
		t.Fatal("switch rejected")
	}
	// Not applied yet: the agent stays with its current component until
	// the next tick's switch boundary.
	if s.AgentByID(id).OpID != ComponentDirect {
		t.Fatal("switch applied immediately")
	}

	s.DoStep()
	if s.AgentByID(id).OpID != ComponentORCA {
		t.Fatal("switch not applied at the boundary")
	}
}

func TestOperationSwitchLaterOverrides(t *testing.T) {
	s := newTestSim(t)
	id, _ := s.AddAgent(0, 0, ComponentDirect, ComponentNavMesh, ComponentHold)
	s.SetOperationComponent(id, ComponentORCA)
	s.SetOperationComponent(id, ComponentDirect)
	s.DoStep()
	if got := s.AgentByID(id).OpID; got != ComponentDirect {
		t.Fatalf("op = %d, want the later request to win", got)
	}
}

func TestOperationSwitchUnknownTargets(t *testing.T) {
	s := newTestSim(t)
	id, _ := s.AddAgent(0, 0, ComponentDirect, ComponentNavMesh, ComponentHold)
	if s.SetOperationComponent(id, ComponentID(99)) {
		t.Fatal("unknown component id accepted")
	}
	if s.SetOperationComponent(id+1, ComponentORCA) {
		t.Fatal("unknown agent accepted")
	}
	if s.AgentByID(id).OpID != ComponentDirect {
		t.Fatal("failed request changed state")
	}
}

func TestTacticAndStrategySwitchImmediate(t *testing.T) {
	s := newTestSim(t)
	id, _ := s.AddAgent(0, 0, ComponentDirect, ComponentNavMesh, ComponentHold)
	if !s.SetStrategyComponent(id, ComponentHold) {
		t.Fatal("strategy switch failed")
	}
	if s.AgentByID(id).StrategyID != ComponentHold {
		t.Fatal("strategy switch not applied immediately")
	}
	if s.SetTacticComponent(id, ComponentID(77)) {
		t.Fatal("unknown tactic accepted")
	}
}

func TestRemoveAgent(t *testing.T) {
	s := newTestSim(t)
	a, _ := s.AddAgent(0, 0, ComponentDirect, ComponentNavMesh, ComponentHold)
	b, _ := s.AddAgent(1, 1, ComponentDirect, ComponentNavMesh, ComponentHold)

	if !s.RemoveAgent(a) {
		t.Fatal("remove failed")
	}
	if s.RemoveAgent(a) {
		t.Fatal("double remove succeeded")
	}
	if s.AgentCount() != 1 {
		t.Fatalf("count = %d", s.AgentCount())
	}

	// Ids are retired, never reused.
	c, _ := s.AddAgent(2, 2, ComponentDirect, ComponentNavMesh, ComponentHold)
	if c == a {
		t.Fatal("retired id reissued")
	}

	s.DoStep() // the survivors keep ticking
	out := make([]AgentInfo, 2)
	if !s.GetAgentsInfo(out) {
		t.Fatal("fill failed")
	}
	if out[0].ID != b || out[1].ID != c {
		t.Fatalf("order after removal: %d, %d", out[0].ID, out[1].ID)
	}
}

func TestClockAdvances(t *testing.T) {
	s := newTestSim(t)
	if s.Time() != 0 || s.Tick() != 0 {
		t.Fatal("clock not zeroed")
	}
	s.DoStep()
	s.DoStep()
	if s.Tick() != 2 {
		t.Fatalf("tick = %d", s.Tick())
	}
	if d := s.Time() - 2*DefaultTimeStep; d > 1e-12 || d < -1e-12 {
		t.Fatalf("time = %v", s.Time())
	}
}

func TestObserverReceivesSnapshots(t *testing.T) {
	s := newTestSim(t)
	s.AddAgent(0, 0, ComponentDirect, ComponentNavMesh, ComponentHold)

	var ticks []float64
	var agents int
	s.AttachObserver(observerFunc(func(time float64, infos []AgentInfo) {
		ticks = append(ticks, time)
		agents = len(infos)
	}))
	s.DoStep()
	s.DoStep()
	if len(ticks) != 2 || agents != 1 {
		t.Fatalf("observer saw %d ticks, %d agents", len(ticks), agents)
	}
	if s.GetRecording() == nil {
		t.Fatal("recording handle lost")
	}
}

type observerFunc func(float64, []AgentInfo)

func (f observerFunc) OnTick(time float64, agents []AgentInfo) { f(time, agents) }

func TestDeterministicTrajectories(t *testing.T) {
	run := func() []common.Vec2 {
		s := newTestSim(t)
		g := goal.NewPoint(0, 20)
		for _, p := range [][2]float64{{-5, 20}, {5, 20}, {0, 15}, {2, 18}} {
			id, ok := s.AddAgent(p[0], p[1], ComponentORCA, ComponentNavMesh, ComponentHold)
			if !ok {
				t.Fatal("add agent")
			}
			s.SetAgentGoal(id, g)
		}
		for i := 0; i < 200; i++ {
			s.DoStep()
		}
		out := make([]AgentInfo, s.AgentCount())
		s.GetAgentsInfo(out)
		pos := make([]common.Vec2, len(out))
		for i, a := range out {
			pos[i] = a.Pos
		}
		return pos
	}

	first := run()
	second := run()
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("agent %d diverged: %v vs %v", i, first[i], second[i])
		}
	}
}
