// Package sim schedules the crowd simulation: it owns the agent table,
// composes the strategy, tactic and operation behaviour layers each tick,
// integrates agent kinematics under acceleration and angular-velocity
// limits, and keeps every agent localized on the navigation mesh.
package sim

import (
	"math"

	"crowdsim/common"
	"crowdsim/goal"
)

// ComponentID identifies a registered behaviour component. Agents refer to
// their components by id only; liveness is a table lookup in the
// simulator, never a stored pointer.
type ComponentID uint32

const (
	NoComponent ComponentID = iota
	ComponentNavMesh
	ComponentHold
	ComponentDirect
	ComponentORCA
)

// PrefVelocity is the preferred direction and speed the tactic hands to
// the operation layer, before local avoidance.
type PrefVelocity struct {
	Direction common.Vec2
	Speed     float64
	// Target is the waypoint Direction aims at, for solvers that want it.
	Target common.Vec2
}

// Preferred returns the preferred velocity vector.
func (p PrefVelocity) Preferred() common.Vec2 {
	return p.Direction.Mul(p.Speed)
}

// AgentSpatialInfo is the per-agent kinematic state.
//
// Invariants: Orient stays unit length, Radius > 0 and
// 0 <= PrefSpeed <= MaxSpeed.
type AgentSpatialInfo struct {
	ID common.AgentID

	Pos    common.Vec2
	Vel    common.Vec2
	VelNew common.Vec2
	Orient common.Vec2

	Radius    float64
	PrefSpeed float64
	MaxSpeed  float64
	MaxAccel  float64
	MaxAngVel float64

	PrefVelocity PrefVelocity
}

// DefaultSpatialInfo returns an agent at pos with the stock kinematic
// limits.
func DefaultSpatialInfo(id common.AgentID, pos common.Vec2) AgentSpatialInfo {
	return AgentSpatialInfo{
		ID:        id,
		Pos:       pos,
		Orient:    common.Vec2{1, 0},
		Radius:    0.19,
		PrefSpeed: 0.05,
		MaxSpeed:  0.2,
		MaxAccel:  5,
		MaxAngVel: 2 * math.Pi,
	}
}

// Agent pairs an id with its goal and the ids of the components operating
// it. Component references are weak: resolving them goes through the
// simulator's tables.
type Agent struct {
	ID         common.AgentID
	Goal       goal.Goal
	OpID       ComponentID
	TacticID   ComponentID
	StrategyID ComponentID
}

// AgentInfo is the flat public snapshot of one agent, as handed to the
// embedding host and to recording observers.
type AgentInfo struct {
	ID     common.AgentID
	Pos    common.Vec2
	Vel    common.Vec2
	Orient common.Vec2
	Radius float64

	OpID       ComponentID
	TacticID   ComponentID
	StrategyID ComponentID

	GoalCentroid common.Vec2
}
