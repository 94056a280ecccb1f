package store

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mnhrk15/hpb-repeat-analyzer/database"
	"github.com/mnhrk15/hpb-repeat-analyzer/models"
)

// VisitArchive appends normalized visit records to ClickHouse, one batch per
// run, for ad-hoc SQL exploration outside the analysis engine. The engine
// never reads the archive; archive failures must not fail an upload.
type VisitArchive struct {
	DB *database.ClickHouseClient
}

func NewVisitArchive(chClient *database.ClickHouseClient) *VisitArchive {
	return &VisitArchive{DB: chClient}
}

// MonthCount is one row of the monthly visit aggregation.
type MonthCount struct {
	Month     time.Time `json:"month"`
	Visits    uint64    `json:"visits"`
	Customers uint64    `json:"customers"`
}

// InsertVisits batch-inserts one run's records into the visit_records table.
func (s *VisitArchive) InsertVisits(ctx context.Context, runID string, records []models.VisitRecord) error {
	if len(records) == 0 {
		return nil
	}

	batch, err := s.DB.Conn.PrepareBatch(ctx, `
		INSERT INTO visit_records (
			run_id, customer_id, visit_date, stylist, coupon, source_file
		) VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare visit batch: %w", err)
	}

	for _, rec := range records {
		err := batch.Append(
			runID,
			rec.CustomerID,
			rec.VisitDate,
			rec.Stylist,
			rec.Coupon,
			rec.SourceFile,
		)
		if err != nil {
			log.Printf("Error appending visit to batch (customer %s): %v", rec.CustomerID, err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send visit batch: %w", err)
	}

	log.Printf("Archived %d visit records for run %s", len(records), runID)
	return nil
}

// VisitCountsByMonth aggregates archived visits and unique customers per
// calendar month over [start, end].
func (s *VisitArchive) VisitCountsByMonth(ctx context.Context, start, end time.Time) ([]MonthCount, error) {
	query := `
		SELECT toStartOfMonth(visit_date) AS month,
		       count() AS visits,
		       uniq(customer_id) AS customers
		FROM visit_records
		WHERE visit_date >= ? AND visit_date <= ?
		GROUP BY month
		ORDER BY month ASC
	`
	rows, err := s.DB.Conn.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly visit counts: %w", err)
	}
	defer rows.Close()

	var results []MonthCount
	for rows.Next() {
		var mc MonthCount
		if err := rows.Scan(&mc.Month, &mc.Visits, &mc.Customers); err != nil {
			log.Printf("Error scanning monthly visit count row: %v", err)
			continue
		}
		results = append(results, mc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row error during monthly visit count query: %w", err)
	}
	return results, nil
}
