package sim

import (
	"errors"
	"fmt"

	"crowdsim/navmesh"
)

// ErrNoNavMesh is returned by Build when no mesh was supplied.
var ErrNoNavMesh = errors.New("sim: builder needs a navmesh")

// Builder assembles a simulator for an embedding host: a mesh plus the
// default component set. Component ids passed to WithOp/WithTactic/
// WithStrategy must be among the stock components; hosts with custom
// components register them on the built simulator instead.
type Builder struct {
	meshPath string
	mesh     *navmesh.NavMesh

	timeStep          float64
	sensitivityRadius float64

	ops        []ComponentID
	tactics    []ComponentID
	strategies []ComponentID

	err error
}

// BuildSimulator starts a builder with the stock defaults.
func BuildSimulator() *Builder {
	return &Builder{
		timeStep:          DefaultTimeStep,
		sensitivityRadius: 1,
	}
}

// WithNavMesh loads the mesh from an ASCII mesh document. Required before
// Build unless WithNavMeshObject is used.
func (b *Builder) WithNavMesh(path string) *Builder {
	b.meshPath = path
	return b
}

// WithNavMeshObject uses an already constructed mesh.
func (b *Builder) WithNavMeshObject(m *navmesh.NavMesh) *Builder {
	b.mesh = m
	return b
}

// WithTimeStep overrides the tick length.
func (b *Builder) WithTimeStep(dt float64) *Builder {
	b.timeStep = dt
	return b
}

// WithSensitivityRadius overrides the neighbour cutoff distance.
func (b *Builder) WithSensitivityRadius(r float64) *Builder {
	b.sensitivityRadius = r
	return b
}

// WithOp registers a stock operation component.
func (b *Builder) WithOp(id ComponentID) *Builder {
	b.ops = append(b.ops, id)
	return b
}

// WithTactic registers a stock tactic component.
func (b *Builder) WithTactic(id ComponentID) *Builder {
	b.tactics = append(b.tactics, id)
	return b
}

// WithStrategy registers a stock strategy component.
func (b *Builder) WithStrategy(id ComponentID) *Builder {
	b.strategies = append(b.strategies, id)
	return b
}

// Build produces the simulator handle.
func (b *Builder) Build() (*Simulator, error) {
	mesh := b.mesh
	if mesh == nil {
		if b.meshPath == "" {
			return nil, ErrNoNavMesh
		}
		m, err := navmesh.LoadFile(b.meshPath)
		if err != nil {
			return nil, err
		}
		mesh = m
	}

	s := NewSimulator(mesh)
	s.SetTimeStep(b.timeStep)
	s.NavSystem().SetSensitivityRadius(b.sensitivityRadius)

	for _, id := range b.ops {
		switch id {
		case ComponentDirect:
			s.AddOperationComponent(NewDirectOperation(s))
		case ComponentORCA:
			s.AddOperationComponent(NewORCAOperation(s))
		default:
			return nil, fmt.Errorf("sim: unknown operation component %d", id)
		}
	}
	for _, id := range b.tactics {
		switch id {
		case ComponentNavMesh:
			s.AddTacticComponent(NewNavMeshTactic(s))
		default:
			return nil, fmt.Errorf("sim: unknown tactic component %d", id)
		}
	}
	for _, id := range b.strategies {
		switch id {
		case ComponentHold:
			s.AddStrategyComponent(NewHoldStrategy(s))
		default:
			return nil, fmt.Errorf("sim: unknown strategy component %d", id)
		}
	}
	return s, nil
}
