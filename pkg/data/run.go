package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mchmarny/biascheck/pkg/compare"
)

const (
	insertRunSQL = `INSERT INTO run (
			started_at,
			batch_file,
			group_count,
			failed_count
		)
		VALUES (?, ?, ?, ?)
	`

	insertResultSQL = `INSERT INTO result (
			run_id,
			group_idx,
			group_name,
			position,
			comment,
			score
		)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	selectRunsSQL = `SELECT
			id,
			started_at,
			batch_file,
			group_count,
			failed_count
		FROM run
		ORDER BY id DESC
		LIMIT ?
	`

	selectRunSQL = `SELECT
			id,
			started_at,
			batch_file,
			group_count,
			failed_count
		FROM run
		WHERE id = ?
	`

	selectResultsSQL = `SELECT
			group_idx,
			group_name,
			comment,
			score
		FROM result
		WHERE run_id = ?
		ORDER BY group_idx, position
	`

	// DefaultListLimit caps ListRuns when no positive limit is given.
	DefaultListLimit = 20
)

// ErrRunNotFound is returned by GetRun for an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

// Run is one invocation of the compare command.
type Run struct {
	ID        int64          `json:"id" yaml:"id"`
	StartedAt time.Time      `json:"started_at" yaml:"started_at"`
	BatchFile string         `json:"batch_file" yaml:"batch_file"`
	Groups    int            `json:"groups" yaml:"groups"`
	Failed    int            `json:"failed" yaml:"failed"`
	Results   []*GroupResult `json:"results,omitempty" yaml:"results,omitempty"`
}

// GroupResult holds the scored pairs of one successful group.
type GroupResult struct {
	Index  int            `json:"index" yaml:"index"`
	Name   string         `json:"name,omitempty" yaml:"name,omitempty"`
	Result compare.Result `json:"result" yaml:"result"`
}

// SaveRun persists r and its results in a single transaction and
// returns the new run ID.
func SaveRun(ctx context.Context, db *sql.DB, r *Run) (int64, error) {
	if db == nil {
		return 0, errDBNotInitialized
	}
	if r == nil {
		return 0, errors.New("run required")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, insertRunSQL,
		r.StartedAt.UTC().Format(time.RFC3339Nano), r.BatchFile, r.Groups, r.Failed)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, insertResultSQL)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare result insert statement: %w", err)
	}
	defer stmt.Close()

	for _, g := range r.Results {
		if g == nil {
			continue
		}
		for i, p := range g.Result {
			if _, err := stmt.ExecContext(ctx, id, g.Index, g.Name, i, p.Comment, p.Score); err != nil {
				return 0, fmt.Errorf("failed to insert result %d of group %d: %w", i, g.Index, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.ID = id
	return id, nil
}

// ListRuns returns the most recent runs, newest first, without results.
func ListRuns(ctx context.Context, db *sql.DB, limit int) ([]*Run, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := db.QueryContext(ctx, selectRunsSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to execute run select statement: %w", err)
	}
	defer rows.Close()

	list := make([]*Run, 0)
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}

	return list, nil
}

// GetRun returns the run with its results grouped in input order.
func GetRun(ctx context.Context, db *sql.DB, id int64) (*Run, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	r, err := scanRun(db.QueryRowContext(ctx, selectRunSQL, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", ErrRunNotFound, id)
		}
		return nil, err
	}

	rows, err := db.QueryContext(ctx, selectResultsSQL, id)
	if err != nil {
		return nil, fmt.Errorf("failed to execute result select statement: %w", err)
	}
	defer rows.Close()

	var current *GroupResult
	for rows.Next() {
		var (
			idx  int
			name string
			p    compare.Pair
		)
		if err := rows.Scan(&idx, &name, &p.Comment, &p.Score); err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}
		if current == nil || current.Index != idx {
			current = &GroupResult{Index: idx, Name: name}
			r.Results = append(r.Results, current)
		}
		current.Result = append(current.Result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate results: %w", err)
	}

	return r, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		r       Run
		started string
	)
	if err := row.Scan(&r.ID, &started, &r.BatchFile, &r.Groups, &r.Failed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan run row: %w", err)
	}

	t, err := time.Parse(time.RFC3339Nano, started)
	if err != nil {
		return nil, fmt.Errorf("invalid start time %q for run %d: %w", started, r.ID, err)
	}
	r.StartedAt = t
	return &r, nil
}
