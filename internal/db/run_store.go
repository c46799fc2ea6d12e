package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/banshee-data/stcluster/internal/stdbscan"
	"github.com/banshee-data/stcluster/internal/timeutil"
)

// ErrRunNotFound is returned when a run id does not exist.
var ErrRunNotFound = errors.New("run not found")

// Run is the stored header of one clustering run.
type Run struct {
	RunID     string              `json:"run_id"`
	Name      string              `json:"name"`
	CreatedAt int64               `json:"created_at"` // Unix nanoseconds
	Params    stdbscan.Params     `json:"params"`
	Stats     stdbscan.Statistics `json:"statistics"`
}

// Created returns CreatedAt as a time.
func (r *Run) Created() time.Time { return time.Unix(0, r.CreatedAt) }

// RunPoint is one stored point with its assignment.
type RunPoint struct {
	Index   int
	Point   stdbscan.Point
	Cluster stdbscan.Label
	Core    bool
}

// RunStore provides persistence for clustering runs.
type RunStore struct {
	db    *sql.DB
	clock timeutil.Clock
}

// NewRunStore creates a RunStore on a migrated database.
func NewRunStore(database *DB) *RunStore {
	return &RunStore{db: database.DB, clock: timeutil.RealClock{}}
}

// SetClock replaces the clock used to stamp new runs.
func (s *RunStore) SetClock(c timeutil.Clock) { s.clock = c }

// SaveRun stores res under a new UUID together with every point and label.
func (s *RunStore) SaveRun(name string, res *stdbscan.Result) (*Run, error) {
	run := &Run{
		RunID:     uuid.New().String(),
		Name:      name,
		CreatedAt: s.clock.Now().UnixNano(),
		Params:    res.Params(),
		Stats:     res.Statistics(),
	}
	statsJSON, err := json.Marshal(run.Stats)
	if err != nil {
		return nil, fmt.Errorf("encoding statistics: %w", err)
	}

	err = retryOnBusy(func() error {
		return s.insertRun(run, statsJSON, res)
	})
	if err != nil {
		return nil, fmt.Errorf("inserting run %s: %w", run.RunID, err)
	}
	return run, nil
}

func (s *RunStore) insertRun(run *Run, statsJSON []byte, res *stdbscan.Result) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO cluster_runs (
			run_id, name, created_at, eps_space_km, eps_time, min_pts, exclude_self,
			absorb_noise, n_points, n_clusters, n_noise, stats_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.Name, run.CreatedAt,
		run.Params.EpsSpace, run.Params.EpsTime, run.Params.MinPts, run.Params.ExcludeSelf,
		run.Params.AbsorbNoise,
		run.Stats.PointCount, run.Stats.ClusterCount, run.Stats.NoiseCount, string(statsJSON),
	)
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO cluster_run_points (
			run_id, idx, point_id, lat, lon, time, value, cluster, is_core
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, p := range res.Points() {
		if _, err := stmt.Exec(run.RunID, i, p.ID, p.Lat, p.Lon, p.Time, p.Value,
			int(res.Label(i)), res.IsCore(i)); err != nil {
			return fmt.Errorf("point %d: %w", p.ID, err)
		}
	}
	return tx.Commit()
}

const runColumns = `
	run_id, name, created_at, eps_space_km, eps_time, min_pts, exclude_self,
	absorb_noise, stats_json`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		r         Run
		statsJSON sql.NullString
	)
	err := row.Scan(&r.RunID, &r.Name, &r.CreatedAt,
		&r.Params.EpsSpace, &r.Params.EpsTime, &r.Params.MinPts, &r.Params.ExcludeSelf,
		&r.Params.AbsorbNoise, &statsJSON)
	if err != nil {
		return nil, err
	}
	if statsJSON.Valid {
		if err := json.Unmarshal([]byte(statsJSON.String), &r.Stats); err != nil {
			return nil, fmt.Errorf("decoding statistics for run %s: %w", r.RunID, err)
		}
	}
	return &r, nil
}

// GetRun returns the run header for runID.
func (s *RunStore) GetRun(runID string) (*Run, error) {
	row := s.db.QueryRow(`SELECT`+runColumns+` FROM cluster_runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", runID, err)
	}
	return r, nil
}

// ListRuns returns every run, newest first.
func (s *RunStore) ListRuns() ([]*Run, error) {
	rows, err := s.db.Query(`SELECT` + runColumns + ` FROM cluster_runs ORDER BY created_at DESC, run_id`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// LoadAssignments returns the stored points of a run in their original
// input order.
func (s *RunStore) LoadAssignments(runID string) ([]RunPoint, error) {
	if _, err := s.GetRun(runID); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(`
		SELECT idx, point_id, lat, lon, time, value, cluster, is_core
		FROM cluster_run_points
		WHERE run_id = ?
		ORDER BY idx`, runID)
	if err != nil {
		return nil, fmt.Errorf("query points for run %s: %w", runID, err)
	}
	defer rows.Close()

	var out []RunPoint
	for rows.Next() {
		var (
			rp      RunPoint
			cluster int
		)
		if err := rows.Scan(&rp.Index, &rp.Point.ID, &rp.Point.Lat, &rp.Point.Lon,
			&rp.Point.Time, &rp.Point.Value, &cluster, &rp.Core); err != nil {
			return nil, fmt.Errorf("scan point for run %s: %w", runID, err)
		}
		rp.Cluster = stdbscan.Label(cluster)
		out = append(out, rp)
	}
	return out, rows.Err()
}

// DeleteRun removes a run and its points.
func (s *RunStore) DeleteRun(runID string) error {
	var deleted int64
	err := retryOnBusy(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		defer tx.Rollback()

		if _, err := tx.Exec(`DELETE FROM cluster_run_points WHERE run_id = ?`, runID); err != nil {
			return err
		}
		res, err := tx.Exec(`DELETE FROM cluster_runs WHERE run_id = ?`, runID)
		if err != nil {
			return err
		}
		if deleted, err = res.RowsAffected(); err != nil {
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return fmt.Errorf("deleting run %s: %w", runID, err)
	}
	if deleted == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}
