package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"finmodel/pkg/models"
)

// ErrRunNotFound reports a lookup for a run ID that was never saved.
var ErrRunNotFound = errors.New("model run not found")

// RunRepository persists generated model runs. The pipeline runs without
// one; a nil repository just skips persistence.
type RunRepository interface {
	Save(ctx context.Context, run *models.ModelRun) error
	Load(ctx context.Context, id string) (*models.ModelRun, error)
	Recent(ctx context.Context, limit int) ([]*models.ModelRun, error)
}

// RunRepo stores runs in Postgres. The summary and the effective assumption
// document land in JSONB columns so they stay queryable without joins.
//
// Schema assumption (managed by migrations):
//
//	CREATE TABLE IF NOT EXISTS model_runs (
//	  id UUID PRIMARY KEY,
//	  company TEXT NOT NULL,
//	  model_type TEXT NOT NULL,
//	  assumptions JSONB,
//	  summary JSONB NOT NULL,
//	  workbook_path TEXT NOT NULL,
//	  created_at TIMESTAMPTZ NOT NULL
//	);
type RunRepo struct {
	pool *pgxpool.Pool
}

var _ RunRepository = (*RunRepo)(nil)

// NewRunRepo creates a repository over an initialized pool.
func NewRunRepo(pool *pgxpool.Pool) *RunRepo {
	return &RunRepo{pool: pool}
}

const runColumns = "id, company, model_type, assumptions, summary, workbook_path, created_at"

// Save upserts a run keyed by its ID, so re-generating under the same ID
// replaces the record.
func (r *RunRepo) Save(ctx context.Context, run *models.ModelRun) error {
	if r.pool == nil {
		return fmt.Errorf("database pool not configured")
	}
	summaryJSON, err := json.Marshal(run.Summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	// Empty documents store as NULL; empty bytes are not valid JSONB.
	var assumptions []byte
	if len(run.Assumptions) > 0 {
		assumptions = run.Assumptions
	}

	query := `
		INSERT INTO model_runs (` + runColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id)
		DO UPDATE SET
			company = EXCLUDED.company,
			model_type = EXCLUDED.model_type,
			assumptions = EXCLUDED.assumptions,
			summary = EXCLUDED.summary,
			workbook_path = EXCLUDED.workbook_path;
	`
	_, err = r.pool.Exec(ctx, query,
		run.ID, run.Company, string(run.ModelType),
		assumptions, summaryJSON, run.WorkbookPath, run.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}
	return nil
}

// Load retrieves one run by ID.
func (r *RunRepo) Load(ctx context.Context, id string) (*models.ModelRun, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("database pool not configured")
	}
	row := r.pool.QueryRow(ctx,
		`SELECT `+runColumns+` FROM model_runs WHERE id = $1`, id)
	run, err := scanRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", id, err)
	}
	return run, nil
}

// Recent returns up to limit runs, newest first.
func (r *RunRepo) Recent(ctx context.Context, limit int) ([]*models.ModelRun, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("database pool not configured")
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+runColumns+` FROM model_runs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.ModelRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func scanRun(row pgx.Row) (*models.ModelRun, error) {
	var (
		run         models.ModelRun
		modelType   string
		summaryJSON []byte
	)
	if err := row.Scan(&run.ID, &run.Company, &modelType, &run.Assumptions,
		&summaryJSON, &run.WorkbookPath, &run.CreatedAt); err != nil {
		return nil, err
	}
	run.ModelType = models.ModelType(modelType)
	if err := json.Unmarshal(summaryJSON, &run.Summary); err != nil {
		return nil, fmt.Errorf("corrupt summary json: %w", err)
	}
	return &run, nil
}
