package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/mnhrk15/hpb-repeat-analyzer/models"
)

// RunStore persists one summary row per analysis run in PostgreSQL. The
// in-memory snapshot stays the source of truth; this table is an audit trail
// of past runs.
type RunStore struct {
	db *sql.DB
}

func NewRunStore(db *sql.DB) *RunStore {
	return &RunStore{db: db}
}

// RunRecord is one persisted run history row.
type RunRecord struct {
	RunID               string          `json:"runId"`
	CreatedAt           time.Time       `json:"createdAt"`
	AnalyzedAt          time.Time       `json:"analyzedAt"`
	TotalRecords        int             `json:"totalRecords"`
	SkippedRecords      int             `json:"skippedRecords"`
	NewCustomerCount    int             `json:"newCustomerCount"`
	OverallRepeatRate   float64         `json:"overallRepeatRate"`
	ThresholdRepeatRate float64         `json:"thresholdRepeatRate"`
	Config              json.RawMessage `json:"config"`
}

// EnsureSchema creates the run history table on first start.
func (s *RunStore) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS analysis_runs (
			run_id                TEXT PRIMARY KEY,
			created_at            TIMESTAMPTZ NOT NULL,
			analyzed_at           TIMESTAMPTZ NOT NULL,
			total_records         INTEGER NOT NULL,
			skipped_records       INTEGER NOT NULL,
			new_customer_count    INTEGER NOT NULL,
			overall_repeat_rate   DOUBLE PRECISION NOT NULL,
			threshold_repeat_rate DOUBLE PRECISION NOT NULL,
			config                JSONB NOT NULL
		);
	`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create analysis_runs table: %w", err)
	}
	return nil
}

// SaveRun upserts the summary row for an analyzed run. Re-analyzing the same
// snapshot with a different configuration overwrites the row.
func (s *RunStore) SaveRun(ctx context.Context, run *models.AnalysisRun) error {
	if run.Result == nil {
		return fmt.Errorf("run %s has no analysis result to persist", run.RunID)
	}

	configJSON, err := json.Marshal(run.Result.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal run config: %w", err)
	}

	query := `
		INSERT INTO analysis_runs (
			run_id, created_at, analyzed_at, total_records, skipped_records,
			new_customer_count, overall_repeat_rate, threshold_repeat_rate, config
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (run_id) DO UPDATE SET
			analyzed_at           = EXCLUDED.analyzed_at,
			new_customer_count    = EXCLUDED.new_customer_count,
			overall_repeat_rate   = EXCLUDED.overall_repeat_rate,
			threshold_repeat_rate = EXCLUDED.threshold_repeat_rate,
			config                = EXCLUDED.config;
	`
	_, err = s.db.ExecContext(ctx, query,
		run.RunID,
		run.CreatedAt,
		run.Result.GeneratedAt,
		run.Summary.TotalRecords,
		run.Summary.SkippedRecords,
		run.Result.NewCustomerCount,
		run.Result.OverallRepeatRate,
		run.Result.ThresholdRepeatRate,
		configJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.RunID, err)
	}

	log.Printf("Run history saved: %s (%d new customers)", run.RunID, run.Result.NewCustomerCount)
	return nil
}

// ListRuns returns the most recent persisted runs, newest first.
func (s *RunStore) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT run_id, created_at, analyzed_at, total_records, skipped_records,
		       new_customer_count, overall_repeat_rate, threshold_repeat_rate, config
		FROM analysis_runs
		ORDER BY analyzed_at DESC
		LIMIT $1;
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list analysis runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var rec RunRecord
		if err := rows.Scan(
			&rec.RunID,
			&rec.CreatedAt,
			&rec.AnalyzedAt,
			&rec.TotalRecords,
			&rec.SkippedRecords,
			&rec.NewCustomerCount,
			&rec.OverallRepeatRate,
			&rec.ThresholdRepeatRate,
			&rec.Config,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row error while listing runs: %w", err)
	}
	return records, nil
}
