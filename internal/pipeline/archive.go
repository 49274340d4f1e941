package pipeline

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Archive persists terminal run views in SQLite so history survives daemon
// restarts. Use ":memory:" for an ephemeral archive.
type Archive struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ RunArchiver = (*Archive)(nil)

// OpenArchive opens (and initializes) the archive at path.
func OpenArchive(path string) (*Archive, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open run archive: %w", err)
	}
	a := &Archive{db: db}
	if err := a.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize run archive schema: %w", err)
	}
	return a, nil
}

func (a *Archive) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		draft INTEGER NOT NULL,
		build_only INTEGER NOT NULL,
		status TEXT NOT NULL,
		failed_stage TEXT,
		failure TEXT,
		branches TEXT,
		artifact TEXT,
		invalidation TEXT,
		triggered_at INTEGER NOT NULL,
		started_at INTEGER NOT NULL,
		ended_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_ended_at ON runs(ended_at);
	CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
	`
	_, err := a.db.Exec(schema)
	return err
}

// Save upserts a terminal run view. Saving the same run twice is harmless.
func (a *Archive) Save(ctx context.Context, v RunView) error {
	if !IsTerminal(v.Status) {
		return fmt.Errorf("archive run %s: status %s is not terminal", v.ID, v.Status)
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	branches, err := json.Marshal(v.Branches)
	if err != nil {
		return fmt.Errorf("marshal branches: %w", err)
	}
	var artifact, invalidation []byte
	if v.Artifact != nil {
		if artifact, err = json.Marshal(v.Artifact); err != nil {
			return fmt.Errorf("marshal artifact: %w", err)
		}
	}
	if v.Invalidation != nil {
		if invalidation, err = json.Marshal(v.Invalidation); err != nil {
			return fmt.Errorf("marshal invalidation: %w", err)
		}
	}

	_, err = a.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs
		(id, kind, draft, build_only, status, failed_stage, failure,
		 branches, artifact, invalidation, triggered_at, started_at, ended_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, string(v.Kind), boolInt(v.IsDraft), boolInt(v.BuildOnly),
		string(v.Status), v.FailedStage, v.Failure,
		string(branches), nullable(artifact), nullable(invalidation),
		v.TriggeredAt.Unix(), v.StartedAt.Unix(), v.EndedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Recent returns up to limit terminal runs, newest first.
func (a *Archive) Recent(ctx context.Context, limit int) ([]RunView, error) {
	if limit <= 0 {
		limit = 20
	}
	a.mu.RLock()
	defer a.mu.RUnlock()

	rows, err := a.db.QueryContext(ctx, `
		SELECT id, kind, draft, build_only, status, failed_stage, failure,
		       branches, artifact, invalidation, triggered_at, started_at, ended_at
		FROM runs ORDER BY ended_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()
	return scanRuns(rows)
}

// Get returns one archived run by ID.
func (a *Archive) Get(ctx context.Context, id string) (RunView, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	rows, err := a.db.QueryContext(ctx, `
		SELECT id, kind, draft, build_only, status, failed_stage, failure,
		       branches, artifact, invalidation, triggered_at, started_at, ended_at
		FROM runs WHERE id = ?`, id)
	if err != nil {
		return RunView{}, fmt.Errorf("query run: %w", err)
	}
	defer rows.Close()

	views, err := scanRuns(rows)
	if err != nil {
		return RunView{}, err
	}
	if len(views) == 0 {
		return RunView{}, fmt.Errorf("run %s: %w", id, sql.ErrNoRows)
	}
	return views[0], nil
}

func scanRuns(rows *sql.Rows) ([]RunView, error) {
	var views []RunView
	for rows.Next() {
		var v RunView
		var kind, status string
		var draft, buildOnly int
		var failedStage, failure sql.NullString
		var branches, artifact, invalidation sql.NullString
		var triggered, started, ended int64
		err := rows.Scan(&v.ID, &kind, &draft, &buildOnly, &status,
			&failedStage, &failure, &branches, &artifact, &invalidation,
			&triggered, &started, &ended)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		v.Kind = TriggerKind(kind)
		v.Status = RunStatus(status)
		v.IsDraft = draft != 0
		v.BuildOnly = buildOnly != 0
		v.FailedStage = failedStage.String
		v.Failure = failure.String
		v.TriggeredAt = time.Unix(triggered, 0).UTC()
		v.StartedAt = time.Unix(started, 0).UTC()
		v.EndedAt = time.Unix(ended, 0).UTC()

		if branches.Valid && branches.String != "" {
			if err := json.Unmarshal([]byte(branches.String), &v.Branches); err != nil {
				return nil, fmt.Errorf("unmarshal branches: %w", err)
			}
		}
		if artifact.Valid && artifact.String != "" {
			v.Artifact = &ArtifactView{}
			if err := json.Unmarshal([]byte(artifact.String), v.Artifact); err != nil {
				return nil, fmt.Errorf("unmarshal artifact: %w", err)
			}
		}
		if invalidation.Valid && invalidation.String != "" {
			v.Invalidation = &InvalidationView{}
			if err := json.Unmarshal([]byte(invalidation.String), v.Invalidation); err != nil {
				return nil, fmt.Errorf("unmarshal invalidation: %w", err)
			}
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return views, nil
}

// Close closes the underlying database.
func (a *Archive) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.db.Close()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullable(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
