package navmesh

import (
	"crowdsim/common"
)

// NoObstacle marks a missing prev/next link in an obstacle loop.
const NoObstacle = -1

// Obstacle is a directed static segment with an outward-facing normal.
// Obstacles form closed loops through their Prev/Next links and are owned
// by the mesh.
type Obstacle struct {
	ID     int
	P0, P1 common.Vec2
	Normal common.Vec2
	Prev   int
	Next   int
}

// Direction returns the unit vector from P0 to P1.
func (o *Obstacle) Direction() common.Vec2 {
	return common.Norm(o.P1.Sub(o.P0))
}

// Midpoint returns the centre of the segment.
func (o *Obstacle) Midpoint() common.Vec2 {
	return o.P0.Add(o.P1).Mul(0.5)
}

// DistSqr returns the squared distance from p to the segment.
func (o *Obstacle) DistSqr(p common.Vec2) float64 {
	return common.DistPtSegSqr(p, o.P0, o.P1)
}
