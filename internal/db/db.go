// Package db provides PostgreSQL access to the content catalog, item
// embeddings, persisted packages and the recommendation run journal.
package db

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// EnsureSchema creates the tables used by the curator when they are missing.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Run journal statuses.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusNoResult  = "no_result"
	RunStatusFailed    = "failed"
)

// Run artifact steps.
const (
	StepIntent  = "intent"
	StepMetrics = "metrics"
	StepResult  = "result"
	StepError   = "error"
)

// CreateRun records the start of a recommendation run.
func (db *DB) CreateRun(ctx context.Context, runID uuid.UUID, learningGoal string) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO recommendation_runs (id, learning_goal, status)
		 VALUES ($1, $2, $3)`,
		runID, learningGoal, RunStatusRunning,
	)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// CompleteRun marks a run finished. packageID is zero when nothing was persisted.
func (db *DB) CompleteRun(ctx context.Context, runID uuid.UUID, status string, packageID int64) error {
	var pkg *int64
	if packageID > 0 {
		pkg = &packageID
	}
	_, err := db.pool.Exec(ctx,
		`UPDATE recommendation_runs SET status = $1, package_id = $2, completed_at = NOW() WHERE id = $3`,
		status, pkg, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

// SaveArtifact stores a JSON artifact for a run step, replacing any previous one.
func (db *DB) SaveArtifact(ctx context.Context, runID uuid.UUID, step string, content any) error {
	jsonBytes, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("failed to marshal artifact: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO run_artifacts (run_id, step, content)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (run_id, step) DO UPDATE SET content = $3, created_at = NOW()`,
		runID, step, jsonBytes,
	)
	if err != nil {
		return fmt.Errorf("failed to save artifact %s: %w", step, err)
	}
	return nil
}

// GetArtifact retrieves a JSON artifact by run ID and step
func (db *DB) GetArtifact(ctx context.Context, runID uuid.UUID, step string) ([]byte, error) {
	var content []byte
	err := db.pool.QueryRow(ctx,
		`SELECT content FROM run_artifacts WHERE run_id = $1 AND step = $2`,
		runID, step,
	).Scan(&content)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get artifact %s: %w", step, err)
	}
	return content, nil
}

// GetRunStatus returns the status of a run, or "" when it does not exist.
func (db *DB) GetRunStatus(ctx context.Context, runID uuid.UUID) (string, error) {
	var status string
	err := db.pool.QueryRow(ctx,
		`SELECT status FROM recommendation_runs WHERE id = $1`, runID,
	).Scan(&status)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("failed to get run: %w", err)
	}
	return status, nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
