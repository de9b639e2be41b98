// Package goal defines the target shapes an agent can be sent toward.
// Every shape answers three questions: where is its centroid, does it
// contain a point, and what is the nearest point inside it. An agent has
// reached its goal exactly when the shape contains the agent position.
package goal

import (
	"sync/atomic"

	"crowdsim/common"
)

// Goal is an abstract target assigned to an agent. Goals carry a stable id
// so a path can detect that the agent was re-targeted.
type Goal interface {
	ID() uint64
	Centroid() common.Vec2
	Contains(p common.Vec2) bool
	NearestPoint(p common.Vec2) common.Vec2
}

var nextID atomic.Uint64

func newID() uint64 { return nextID.Add(1) }
