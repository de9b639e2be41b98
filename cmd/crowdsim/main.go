// Command crowdsim runs a crowd scenario headless: it loads a mesh and a
// scenario from config, steps the simulator, writes the trajectories to a
// CSV file and optionally persists the full recording to SQLite.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"strconv"

	"crowdsim/common"
	"crowdsim/config"
	"crowdsim/goal"
	"crowdsim/logger"
	"crowdsim/navmesh"
	"crowdsim/recording"
	"crowdsim/sim"

	"go.uber.org/zap"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to YAML config (optional)")
		trajPath   = flag.String("traj", "traj.csv", "trajectory CSV output")
		dbPath     = flag.String("db", "", "recording SQLite database (optional)")
	)
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		cfg = loaded
	}

	logger.Init(cfg.Logging.Level, logger.FileConfig{Path: cfg.Logging.File})
	defer logger.Sync()

	if err := run(cfg, *trajPath, *dbPath); err != nil {
		logger.Error("run failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, trajPath, dbPath string) error {
	builder := sim.BuildSimulator().
		WithTimeStep(cfg.Simulation.TimeStep).
		WithSensitivityRadius(cfg.Simulation.SensitivityRadius).
		WithStrategy(sim.ComponentHold).
		WithTactic(sim.ComponentNavMesh).
		WithOp(sim.ComponentDirect).
		WithOp(sim.ComponentORCA)

	if cfg.Simulation.NavMeshPath != "" {
		builder.WithNavMesh(cfg.Simulation.NavMeshPath)
	} else {
		// 40x40 square centred at the origin, four nodes.
		builder.WithNavMeshObject(navmesh.NewGrid(common.Vec2{-20, -20}, 2, 2, 20))
	}

	s, err := builder.Build()
	if err != nil {
		return err
	}

	opID := sim.ComponentORCA
	if cfg.Scenario.Operation == "direct" {
		opID = sim.ComponentDirect
	}

	var g goal.Goal
	gc := cfg.Scenario.Goal
	if gc.Kind == "disk" {
		g = goal.NewDisk(gc.X, gc.Y, gc.Radius)
	} else {
		g = goal.NewPoint(gc.X, gc.Y)
	}

	ids := make([]common.AgentID, 0, len(cfg.Scenario.Agents))
	for _, a := range cfg.Scenario.Agents {
		id, ok := s.AddAgent(a.X, a.Y, opID, sim.ComponentNavMesh, sim.ComponentHold)
		if !ok {
			return fmt.Errorf("add agent at (%g, %g)", a.X, a.Y)
		}
		s.SetAgentGoal(id, g)
		ids = append(ids, id)
	}

	rec := recording.New()
	s.AttachObserver(rec)

	logger.Info("scenario start",
		zap.Int("agents", len(ids)),
		zap.Int("steps", cfg.Simulation.Steps),
		zap.String("operation", cfg.Scenario.Operation))

	for i := 0; i < cfg.Simulation.Steps; i++ {
		if !s.DoStep() {
			return fmt.Errorf("step %d failed", i)
		}
	}

	if err := writeTrajectories(trajPath, rec); err != nil {
		return err
	}
	logger.Info("trajectories written", zap.String("path", trajPath))

	if dbPath != "" {
		store, err := recording.OpenStore(dbPath)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Save(rec); err != nil {
			return err
		}
		logger.Info("recording saved",
			zap.String("path", dbPath),
			zap.String("run", rec.RunID().String()),
			zap.Int("ticks", rec.TickCount()))
	}
	return nil
}

// writeTrajectories dumps one row per tick, two columns (x, y) per agent.
func writeTrajectories(path string, rec *recording.Recording) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	for i := 0; i < rec.TickCount(); i++ {
		snap := rec.Snapshot(i)
		row := make([]string, 0, 2*len(snap.Agents))
		for _, a := range snap.Agents {
			row = append(row,
				strconv.FormatFloat(a.Pos[0], 'g', -1, 64),
				strconv.FormatFloat(a.Pos[1], 'g', -1, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}
