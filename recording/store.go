package recording

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	ticks INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS snapshots (
	run_id TEXT NOT NULL,
	tick INTEGER NOT NULL,
	time REAL NOT NULL,
	agent_id INTEGER NOT NULL,
	pos_x REAL NOT NULL,
	pos_y REAL NOT NULL,
	vel_x REAL NOT NULL,
	vel_y REAL NOT NULL,
	orient_x REAL NOT NULL,
	orient_y REAL NOT NULL,
	radius REAL NOT NULL,
	op_id INTEGER NOT NULL,
	tactic_id INTEGER NOT NULL,
	strategy_id INTEGER NOT NULL,
	goal_x REAL NOT NULL,
	goal_y REAL NOT NULL,
	PRIMARY KEY (run_id, tick, agent_id)
);

CREATE INDEX IF NOT EXISTS idx_snapshots_tick ON snapshots(run_id, tick);
`

// Store wraps a SQLite database holding recorded runs.
type Store struct {
	conn *sqlx.DB
}

// OpenStore opens or creates the recording database at path.
func OpenStore(path string) (*Store, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("recording: open db: %w", err)
	}
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("recording: migrate: %w", err)
	}
	return &Store{conn: conn}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.conn.Close() }

// Save writes the whole recording in one transaction.
func (s *Store) Save(r *Recording) error {
	tx, err := s.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT OR REPLACE INTO runs (run_id, ticks) VALUES (?, ?)`,
		r.RunID().String(), r.TickCount()); err != nil {
		return err
	}

	stmt, err := tx.Preparex(`INSERT OR REPLACE INTO snapshots
		(run_id, tick, time, agent_id,
		 pos_x, pos_y, vel_x, vel_y, orient_x, orient_y, radius,
		 op_id, tactic_id, strategy_id, goal_x, goal_y)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, snap := range r.ticks {
		for _, a := range snap.Agents {
			if _, err := stmt.Exec(
				r.RunID().String(), snap.Tick, snap.Time, int(a.ID),
				a.Pos[0], a.Pos[1], a.Vel[0], a.Vel[1],
				a.Orient[0], a.Orient[1], a.Radius,
				int(a.OpID), int(a.TacticID), int(a.StrategyID),
				a.GoalCentroid[0], a.GoalCentroid[1]); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}
