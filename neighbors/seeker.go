// Package neighbors answers fixed-radius nearest-neighbour queries over
// agent positions with a uniform grid. The index is rebuilt from scratch
// every tick and holds no state between builds.
package neighbors

import (
	"math"

	"crowdsim/common"
)

// Entry is one agent position to index.
type Entry struct {
	ID  common.AgentID
	Pos common.Vec2
}

// Seeker buckets entries into cells whose side equals the sensitivity
// radius, so any neighbour within the radius lies in the entry's cell or
// one of the 8 surrounding cells.
type Seeker struct {
	radius float64
}

// NewSeeker creates a seeker for the given sensitivity radius.
func NewSeeker(radius float64) *Seeker {
	return &Seeker{radius: radius}
}

// Radius returns the configured sensitivity radius.
func (s *Seeker) Radius() float64 { return s.radius }

// SetRadius changes the sensitivity radius for subsequent builds.
func (s *Seeker) SetRadius(r float64) { s.radius = r }

type cellKey struct {
	x, y int
}

// Find returns, for every entry, the ids of the other entries within the
// sensitivity radius (distance in (0, radius]). The result is
// deterministic for identical input order; each neighbour list is ordered
// by the fixed 3x3 cell scan around the entry, and by entry order within a
// cell. A non-positive radius yields empty sets for everyone.
func (s *Seeker) Find(entries []Entry) map[common.AgentID][]common.AgentID {
	result := make(map[common.AgentID][]common.AgentID, len(entries))
	for _, e := range entries {
		result[e.ID] = nil
	}
	if len(entries) == 0 || s.radius <= 0 {
		return result
	}

	// Accumulate bounds from +Inf so all-negative clouds translate
	// correctly; every coordinate becomes >= 0 below.
	minX, minY := math.Inf(1), math.Inf(1)
	for _, e := range entries {
		minX = math.Min(minX, e.Pos[0])
		minY = math.Min(minY, e.Pos[1])
	}

	inv := 1 / s.radius
	cells := make(map[cellKey][]int, len(entries))
	coords := make([]cellKey, len(entries))
	for i, e := range entries {
		c := cellKey{
			x: int(math.Floor((e.Pos[0] - minX) * inv)),
			y: int(math.Floor((e.Pos[1] - minY) * inv)),
		}
		coords[i] = c
		cells[c] = append(cells[c], i)
	}

	rSqr := s.radius * s.radius
	for i, e := range entries {
		c := coords[i]
		var found []common.AgentID
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				for _, j := range cells[cellKey{x: c.x + dx, y: c.y + dy}] {
					if j == i {
						continue
					}
					d := common.DistSqr(e.Pos, entries[j].Pos)
					if d > 0 && d <= rSqr {
						found = append(found, entries[j].ID)
					}
				}
			}
		}
		result[e.ID] = found
	}
	return result
}
