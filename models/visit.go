package models

import "time"

// VisitRecord is one normalized salon visit row. Immutable once built by the
// ingest package; the date carries no time component (UTC midnight).
type VisitRecord struct {
	CustomerID string    `json:"customerId"`
	VisitDate  time.Time `json:"visitDate"`
	Stylist    string    `json:"stylist,omitempty"`
	Coupon     string    `json:"coupon,omitempty"`
	SourceFile string    `json:"sourceFile"`
}

// FileCount reports how many rows a single uploaded file contributed.
type FileCount struct {
	File    string `json:"file"`
	Rows    int    `json:"rows"`
	Skipped int    `json:"skipped"`
}

// IngestSummary describes one ingestion call across all uploaded files.
type IngestSummary struct {
	Success        bool        `json:"success"`
	TotalRecords   int         `json:"totalRecords"`
	SkippedRecords int         `json:"skippedRecords"`
	MinDate        string      `json:"minDate,omitempty"`
	MaxDate        string      `json:"maxDate,omitempty"`
	PerFileCounts  []FileCount `json:"perFileCounts"`
}
