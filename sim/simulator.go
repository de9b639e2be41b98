package sim

import (
	"crowdsim/common"
	"crowdsim/goal"
	"crowdsim/logger"
	"crowdsim/navmesh"

	"go.uber.org/zap"
)

// DefaultTimeStep is the simulated time advanced by one tick.
const DefaultTimeStep = 0.1

// TickObserver receives the full agent snapshot at the end of every tick.
type TickObserver interface {
	OnTick(time float64, agents []AgentInfo)
}

// Simulator owns the agent table, the behaviour component registries and
// the NavSystem, and drives the fixed tick pipeline:
//
//	strategy -> tactic -> deferred switches -> operation ->
//	integration -> neighbour rebuild -> relocalisation -> recording
//
// The API is single-threaded: no method may be called concurrently with
// DoStep.
type Simulator struct {
	nav      *NavSystem
	timeStep float64

	time float64
	tick uint64

	agents map[common.AgentID]*Agent
	order  []common.AgentID
	nextID common.AgentID

	strategies []StrategyComponent
	tactics    []TacticComponent
	operations []OperationComponent
	byID       map[ComponentID]Component

	opSwitches switchQueue
	removals   []common.AgentID
	inTick     bool

	observer TickObserver
}

// NewSimulator creates a simulator over a loaded mesh. Components must be
// registered before agents reference them.
func NewSimulator(mesh *navmesh.NavMesh) *Simulator {
	return &Simulator{
		nav:      NewNavSystem(mesh),
		timeStep: DefaultTimeStep,
		agents:   make(map[common.AgentID]*Agent),
		byID:     make(map[ComponentID]Component),
		opSwitches: switchQueue{
			target: make(map[common.AgentID]ComponentID),
		},
	}
}

// NavSystem exposes the spatial subsystem.
func (s *Simulator) NavSystem() *NavSystem { return s.nav }

// TimeStep returns the per-tick simulated time delta.
func (s *Simulator) TimeStep() float64 { return s.timeStep }

// SetTimeStep changes the tick length. Must not be called mid-tick.
func (s *Simulator) SetTimeStep(dt float64) {
	if dt > 0 {
		s.timeStep = dt
	}
}

// Time returns the accumulated simulated time.
func (s *Simulator) Time() float64 { return s.time }

// Tick returns the number of completed ticks.
func (s *Simulator) Tick() uint64 { return s.tick }

// AgentCount returns the number of live agents.
func (s *Simulator) AgentCount() int { return len(s.order) }

// AddStrategyComponent registers a strategy-layer component.
func (s *Simulator) AddStrategyComponent(c StrategyComponent) {
	s.strategies = append(s.strategies, c)
	s.byID[c.ID()] = c
}

// AddTacticComponent registers a tactic-layer component.
func (s *Simulator) AddTacticComponent(c TacticComponent) {
	s.tactics = append(s.tactics, c)
	s.byID[c.ID()] = c
}

// AddOperationComponent registers an operation-layer component.
func (s *Simulator) AddOperationComponent(c OperationComponent) {
	s.operations = append(s.operations, c)
	s.byID[c.ID()] = c
}

// component resolves a weak component reference; nil for NoComponent or an
// unknown id.
func (s *Simulator) component(id ComponentID) Component {
	if id == NoComponent {
		return nil
	}
	return s.byID[id]
}

// AddAgent spawns an agent at (x, y) with default kinematics, attached to
// the given components. Off-mesh positions snap to the centre of the
// closest node. Returns false when a non-zero component id is not
// registered. Must be called outside a tick.
func (s *Simulator) AddAgent(x, y float64, opID, tacticID, strategyID ComponentID) (common.AgentID, bool) {
	for _, id := range []ComponentID{opID, tacticID, strategyID} {
		if id != NoComponent && s.byID[id] == nil {
			return 0, false
		}
	}

	pos := s.nav.Mesh().ClosestAvailablePoint(common.Vec2{x, y})
	id := s.nextID
	s.nextID++

	info := DefaultSpatialInfo(id, pos)
	s.nav.AddAgent(info)
	if node := s.nav.Mesh().FindNode(pos); node != navmesh.NoNode {
		s.nav.Localizer().UpdateAgentPosition(id, navmesh.NoNode, node)
	}

	s.agents[id] = &Agent{
		ID:         id,
		Goal:       goal.NewPoint(pos[0], pos[1]),
		OpID:       opID,
		TacticID:   tacticID,
		StrategyID: strategyID,
	}
	s.order = append(s.order, id)

	for _, cid := range []ComponentID{strategyID, tacticID, opID} {
		if c := s.component(cid); c != nil {
			c.AddAgent(id)
		}
	}

	logger.Debug("agent added",
		zap.Int("id", int(id)),
		zap.Float64("x", pos[0]), zap.Float64("y", pos[1]))
	return id, true
}

// RemoveAgent retires an agent. During a tick the removal is deferred to
// the next switch boundary.
func (s *Simulator) RemoveAgent(id common.AgentID) bool {
	if _, ok := s.agents[id]; !ok {
		return false
	}
	if s.inTick {
		s.removals = append(s.removals, id)
		return true
	}
	s.removeAgentNow(id)
	return true
}

func (s *Simulator) removeAgentNow(id common.AgentID) {
	agent, ok := s.agents[id]
	if !ok {
		return
	}
	for _, cid := range []ComponentID{agent.StrategyID, agent.TacticID, agent.OpID} {
		if c := s.component(cid); c != nil {
			c.RemoveAgent(id)
		}
	}
	s.opSwitches.drop(id)
	delete(s.agents, id)
	for i, a := range s.order {
		if a == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.nav.RemoveAgent(id)
}

// AgentByID returns the agent record, nil when unknown or retired.
func (s *Simulator) AgentByID(id common.AgentID) *Agent { return s.agents[id] }

// GetSpatialInfo returns the mutable spatial state of an agent.
func (s *Simulator) GetSpatialInfo(id common.AgentID) *AgentSpatialInfo {
	return s.nav.SpatialInfo(id)
}

// GetAgentGoal returns the agent's goal, nil when the agent is unknown.
func (s *Simulator) GetAgentGoal(id common.AgentID) goal.Goal {
	if a, ok := s.agents[id]; ok {
		return a.Goal
	}
	return nil
}

// SetAgentGoal re-targets an agent. The tactic notices the goal id change
// on its next update and re-plans.
func (s *Simulator) SetAgentGoal(id common.AgentID, g goal.Goal) bool {
	a, ok := s.agents[id]
	if !ok || g == nil {
		return false
	}
	a.Goal = g
	return true
}

// SetOperationComponent queues an operation-layer re-assignment. The queue
// is applied at the next switch boundary (before the operation phase), so
// within one tick an agent is operated on by exactly one component. Later
// requests for the same agent override earlier ones.
func (s *Simulator) SetOperationComponent(id common.AgentID, compID ComponentID) bool {
	if _, ok := s.agents[id]; !ok {
		return false
	}
	if s.byID[compID] == nil {
		return false
	}
	s.opSwitches.push(id, compID)
	return true
}

// SetTacticComponent moves an agent to another tactic component, applied
// immediately.
func (s *Simulator) SetTacticComponent(id common.AgentID, compID ComponentID) bool {
	return s.switchNow(id, compID, func(a *Agent) *ComponentID { return &a.TacticID })
}

// SetStrategyComponent moves an agent to another strategy component,
// applied immediately.
func (s *Simulator) SetStrategyComponent(id common.AgentID, compID ComponentID) bool {
	return s.switchNow(id, compID, func(a *Agent) *ComponentID { return &a.StrategyID })
}

func (s *Simulator) switchNow(id common.AgentID, compID ComponentID, slot func(*Agent) *ComponentID) bool {
	a, ok := s.agents[id]
	if !ok {
		return false
	}
	next := s.byID[compID]
	if next == nil {
		return false
	}
	cur := slot(a)
	if old := s.component(*cur); old != nil {
		old.RemoveAgent(id)
	}
	next.AddAgent(id)
	*cur = compID
	return true
}

// applyDeferred runs the step-3 boundary: queued operation switches in
// request order, then queued removals.
func (s *Simulator) applyDeferred() {
	s.opSwitches.drain(func(id common.AgentID, compID ComponentID) {
		a, ok := s.agents[id]
		if !ok {
			return
		}
		next := s.byID[compID]
		if next == nil {
			return
		}
		if old := s.component(a.OpID); old != nil {
			old.RemoveAgent(id)
		}
		next.AddAgent(id)
		a.OpID = compID
	})
	for _, id := range s.removals {
		s.removeAgentNow(id)
	}
	s.removals = s.removals[:0]
}

// DoStep advances the simulation by one tick. A tick always runs to
// completion.
func (s *Simulator) DoStep() bool {
	s.inTick = true
	dt := s.timeStep

	for _, c := range s.strategies {
		c.Update(dt)
	}
	for _, c := range s.tactics {
		c.Update(dt)
	}
	s.applyDeferred()
	for _, c := range s.operations {
		c.Update(dt)
	}
	s.nav.Update(dt)

	s.time += dt
	s.tick++
	s.inTick = false

	if s.observer != nil {
		s.observer.OnTick(s.time, s.snapshot())
	}
	return true
}

// GetAgentsInfo fills out with the public snapshot of every live agent in
// ascending id order. Returns false without partial fill when out is too
// small.
func (s *Simulator) GetAgentsInfo(out []AgentInfo) bool {
	if len(out) < len(s.order) {
		return false
	}
	for i, id := range s.order {
		out[i] = s.agentInfo(id)
	}
	return true
}

// AttachObserver installs the tick observer (the recording collaborator).
func (s *Simulator) AttachObserver(o TickObserver) { s.observer = o }

// GetRecording returns the attached tick observer.
func (s *Simulator) GetRecording() TickObserver { return s.observer }

func (s *Simulator) snapshot() []AgentInfo {
	out := make([]AgentInfo, len(s.order))
	_ = s.GetAgentsInfo(out)
	return out
}

func (s *Simulator) agentInfo(id common.AgentID) AgentInfo {
	a := s.agents[id]
	info := s.nav.SpatialInfo(id)
	ai := AgentInfo{
		ID:         id,
		Pos:        info.Pos,
		Vel:        info.Vel,
		Orient:     info.Orient,
		Radius:     info.Radius,
		OpID:       a.OpID,
		TacticID:   a.TacticID,
		StrategyID: a.StrategyID,
	}
	if a.Goal != nil {
		ai.GoalCentroid = a.Goal.Centroid()
	}
	return ai
}

// switchQueue is the insertion-ordered AgentID -> ComponentID mapping used
// for deferred operation switches.
type switchQueue struct {
	order  []common.AgentID
	target map[common.AgentID]ComponentID
}

func (q *switchQueue) push(id common.AgentID, comp ComponentID) {
	if _, ok := q.target[id]; !ok {
		q.order = append(q.order, id)
	}
	q.target[id] = comp
}

func (q *switchQueue) drop(id common.AgentID) {
	if _, ok := q.target[id]; !ok {
		return
	}
	delete(q.target, id)
	for i, a := range q.order {
		if a == id {
			q.order = append(q.order[:i], q.order[i+1:]...)
			break
		}
	}
}

func (q *switchQueue) drain(fn func(common.AgentID, ComponentID)) {
	for _, id := range q.order {
		fn(id, q.target[id])
	}
	q.order = q.order[:0]
	clear(q.target)
}
