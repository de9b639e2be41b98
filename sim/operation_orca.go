package sim

import (
	"math"

	"crowdsim/common"
)

// ORCAOperation resolves local collisions with optimal reciprocal
// collision avoidance: each neighbour contributes a half-plane of
// permitted velocities, and the candidate closest to the preferred
// velocity inside the intersection wins. Responsibility for avoidance is
// split evenly between the two agents of every pair.
type ORCAOperation struct {
	sim     *Simulator
	members membership

	// timeHorizon is how far ahead, in seconds, a pairwise collision must
	// lie to constrain the velocity.
	timeHorizon float64
}

// NewORCAOperation creates the solver with a 5 second time horizon.
func NewORCAOperation(s *Simulator) *ORCAOperation {
	return &ORCAOperation{sim: s, members: newMembership(), timeHorizon: 5}
}

func (o *ORCAOperation) ID() ComponentID { return ComponentORCA }

// SetTimeHorizon overrides the pairwise look-ahead.
func (o *ORCAOperation) SetTimeHorizon(t float64) {
	if t > 0 {
		o.timeHorizon = t
	}
}

func (o *ORCAOperation) AddAgent(id common.AgentID) { o.members.add(id) }

func (o *ORCAOperation) RemoveAgent(id common.AgentID) bool {
	return o.members.remove(id)
}

func (o *ORCAOperation) Update(timeStep float64) {
	for _, id := range o.members.order {
		info := o.sim.GetSpatialInfo(id)
		if info == nil {
			continue
		}
		lines := o.orcaLines(info, timeStep)
		pref := info.PrefVelocity.Preferred()
		count, vel := linearProgram2(lines, info.MaxSpeed, pref, false)
		if count < len(lines) {
			vel = linearProgram3(lines, count, info.MaxSpeed, vel)
		}
		info.VelNew = vel
	}
}

// orcaLine is a half-plane constraint: permitted velocities lie on the
// left of the directed line through point.
type orcaLine struct {
	point     common.Vec2
	direction common.Vec2
}

// orcaLines builds one constraint per neighbour from the previous tick's
// neighbour set.
func (o *ORCAOperation) orcaLines(agent *AgentSpatialInfo, timeStep float64) []orcaLine {
	neighbours := o.sim.NavSystem().Neighbours(agent.ID)
	lines := make([]orcaLine, 0, len(neighbours))
	invHorizon := 1 / o.timeHorizon

	for _, other := range neighbours {
		relPos := other.Pos.Sub(agent.Pos)
		relVel := agent.Vel.Sub(other.Vel)
		distSq := relPos[0]*relPos[0] + relPos[1]*relPos[1]
		combined := agent.Radius + other.Radius
		combinedSq := combined * combined

		var line orcaLine
		var u common.Vec2

		if distSq > combinedSq {
			// No current collision; constrain against the velocity
			// obstacle truncated at the time horizon.
			w := relVel.Sub(relPos.Mul(invHorizon))
			wLenSq := w[0]*w[0] + w[1]*w[1]
			dot1 := w.Dot(relPos)

			if dot1 < 0 && dot1*dot1 > combinedSq*wLenSq {
				// Project on the cut-off circle.
				wLen := math.Sqrt(wLenSq)
				unitW := w.Mul(1 / wLen)
				line.direction = common.Vec2{unitW[1], -unitW[0]}
				u = unitW.Mul(combined*invHorizon - wLen)
			} else {
				// Project on a leg.
				leg := math.Sqrt(distSq - combinedSq)
				if common.Det(relPos, w) > 0 {
					line.direction = common.Vec2{
						relPos[0]*leg - relPos[1]*combined,
						relPos[0]*combined + relPos[1]*leg,
					}.Mul(1 / distSq)
				} else {
					line.direction = common.Vec2{
						relPos[0]*leg + relPos[1]*combined,
						-relPos[0]*combined + relPos[1]*leg,
					}.Mul(-1 / distSq)
				}
				dot2 := relVel.Dot(line.direction)
				u = line.direction.Mul(dot2).Sub(relVel)
			}
		} else {
			// Already overlapping; resolve within one time step.
			invStep := 1 / timeStep
			w := relVel.Sub(relPos.Mul(invStep))
			wLen := w.Len()
			if wLen < common.Epsilon {
				continue
			}
			unitW := w.Mul(1 / wLen)
			line.direction = common.Vec2{unitW[1], -unitW[0]}
			u = unitW.Mul(combined*invStep - wLen)
		}

		line.point = agent.Vel.Add(u.Mul(0.5))
		lines = append(lines, line)
	}
	return lines
}

// linearProgram1 optimises along one constraint line within the speed
// circle, honouring the lines before it.
func linearProgram1(lines []orcaLine, lineNo int, radius float64, optVel common.Vec2, dirOpt bool) (common.Vec2, bool) {
	ln := lines[lineNo]
	dot := ln.point.Dot(ln.direction)
	discriminant := dot*dot + radius*radius - ln.point.Dot(ln.point)
	if discriminant < 0 {
		// The speed circle misses the line entirely.
		return common.Vec2{}, false
	}
	sqrtDisc := math.Sqrt(discriminant)
	tLeft := -dot - sqrtDisc
	tRight := -dot + sqrtDisc

	for i := 0; i < lineNo; i++ {
		denom := common.Det(ln.direction, lines[i].direction)
		num := common.Det(lines[i].direction, ln.point.Sub(lines[i].point))
		if math.Abs(denom) <= common.Epsilon {
			if num < 0 {
				return common.Vec2{}, false
			}
			continue
		}
		t := num / denom
		if denom >= 0 {
			tRight = math.Min(tRight, t)
		} else {
			tLeft = math.Max(tLeft, t)
		}
		if tLeft > tRight {
			return common.Vec2{}, false
		}
	}

	var t float64
	if dirOpt {
		if optVel.Dot(ln.direction) > 0 {
			t = tRight
		} else {
			t = tLeft
		}
	} else {
		t = ln.direction.Dot(optVel.Sub(ln.point))
		t = common.Clamp(t, tLeft, tRight)
	}
	return ln.point.Add(ln.direction.Mul(t)), true
}

// linearProgram2 finds the velocity closest to optVel satisfying all
// constraint lines inside the speed circle. Returns the index of the
// first failing line (len(lines) on success) and the best velocity found.
func linearProgram2(lines []orcaLine, radius float64, optVel common.Vec2, dirOpt bool) (int, common.Vec2) {
	var result common.Vec2
	switch {
	case dirOpt:
		// optVel is a unit direction in this mode.
		result = optVel.Mul(radius)
	case optVel.Dot(optVel) > radius*radius:
		result = common.Norm(optVel).Mul(radius)
	default:
		result = optVel
	}

	for i, ln := range lines {
		if common.Det(ln.direction, ln.point.Sub(result)) > 0 {
			prev := result
			next, ok := linearProgram1(lines, i, radius, optVel, dirOpt)
			if !ok {
				return i, prev
			}
			result = next
		}
	}
	return len(lines), result
}

// linearProgram3 relaxes an infeasible program by permitting the least
// possible penetration of the violated constraints.
func linearProgram3(lines []orcaLine, beginLine int, radius float64, result common.Vec2) common.Vec2 {
	distance := 0.0
	for i := beginLine; i < len(lines); i++ {
		if common.Det(lines[i].direction, lines[i].point.Sub(result)) <= distance {
			continue
		}
		projLines := make([]orcaLine, 0, i)
		for j := 0; j < i; j++ {
			var ln orcaLine
			determinant := common.Det(lines[i].direction, lines[j].direction)
			if math.Abs(determinant) <= common.Epsilon {
				if lines[i].direction.Dot(lines[j].direction) > 0 {
					// Parallel, same direction: redundant.
					continue
				}
				ln.point = lines[i].point.Add(lines[j].point).Mul(0.5)
			} else {
				shift := common.Det(lines[j].direction, lines[i].point.Sub(lines[j].point)) / determinant
				ln.point = lines[i].point.Add(lines[i].direction.Mul(shift))
			}
			ln.direction = common.Norm(lines[j].direction.Sub(lines[i].direction))
			projLines = append(projLines, ln)
		}

		prev := result
		count, next := linearProgram2(projLines, radius,
			common.Vec2{-lines[i].direction[1], lines[i].direction[0]}, true)
		if count < len(projLines) {
			result = prev
		} else {
			result = next
		}
		distance = common.Det(lines[i].direction, lines[i].point.Sub(result))
	}
	return result
}
