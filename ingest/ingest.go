// Package ingest turns raw CSV uploads with uncertain encodings into a
// normalized, de-duplicated sequence of visit records.
package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/mnhrk15/hpb-repeat-analyzer/models"
)

// UploadedFile is one raw CSV upload, already read into memory by the caller.
type UploadedFile struct {
	Name string
	Data []byte
}

// Column synonym sets, matched case-insensitively against normalized headers.
// Customer id and visit date are required; stylist and coupon are optional.
var (
	customerIDSynonyms = []string{"顧客id", "お客様番号", "顧客番号", "customer_id", "customer id", "member_id"}
	visitDateSynonyms  = []string{"来店日", "visit_date", "visit date", "date", "利用日"}
	stylistSynonyms    = []string{"スタイリスト名", "担当スタイリスト", "stylist", "stylist_name", "provider", "担当者"}
	couponSynonyms     = []string{"予約時hotpepperbeautyクーポン", "クーポン名", "クーポン", "coupon", "coupon_name", "promo_code"}
)

// Date formats tried in priority order. ISO variants first, then the bare
// YYYYMMDD the salon exports use, then permissive and timestamped variants.
var dateFormats = []string{
	"2006-01-02",
	"2006/01/02",
	"20060102",
	"2006-1-2",
	"2006/1/2",
	"2006年1月2日",
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
}

// Matches ASCII and full-width whitespace runs.
var whitespaceRE = regexp.MustCompile(`[\s　]+`)

// Files parses every uploaded CSV into one combined record sequence.
// Row-level problems (unparsable date, missing customer id) drop the row and
// increment the skip counters; file-level problems (undecodable file, missing
// required column) abort the whole call with a typed error naming the file.
// Exact duplicate rows across files collapse to their first occurrence.
func Files(files []UploadedFile) ([]models.VisitRecord, *models.IngestSummary, error) {
	if len(files) == 0 {
		return nil, nil, errors.New("no CSV files provided")
	}

	summary := &models.IngestSummary{PerFileCounts: make([]models.FileCount, 0, len(files))}
	var records []models.VisitRecord
	dedup := make(map[string]bool)
	var minDate, maxDate time.Time

	for _, file := range files {
		parsed, skipped, err := parseFile(file, dedup)
		if err != nil {
			return nil, nil, err
		}

		for _, rec := range parsed {
			if minDate.IsZero() || rec.VisitDate.Before(minDate) {
				minDate = rec.VisitDate
			}
			if maxDate.IsZero() || rec.VisitDate.After(maxDate) {
				maxDate = rec.VisitDate
			}
		}
		records = append(records, parsed...)
		summary.SkippedRecords += skipped
		summary.PerFileCounts = append(summary.PerFileCounts, models.FileCount{
			File:    file.Name,
			Rows:    len(parsed),
			Skipped: skipped,
		})
		log.Printf("Ingested file %q: %d records, %d skipped", file.Name, len(parsed), skipped)
	}

	summary.Success = true
	summary.TotalRecords = len(records)
	if !minDate.IsZero() {
		summary.MinDate = minDate.Format("2006-01-02")
		summary.MaxDate = maxDate.Format("2006-01-02")
	}
	return records, summary, nil
}

// parseFile decodes and parses a single CSV file. Records already present in
// dedup (same customer, date, stylist, coupon) are dropped silently; dedup is
// shared across files so a re-uploaded export does not double-count.
func parseFile(file UploadedFile, dedup map[string]bool) ([]models.VisitRecord, int, error) {
	decoded, encName, err := decodeToUTF8(file.Name, file.Data)
	if err != nil {
		return nil, 0, err
	}
	log.Printf("Decoded file %q as %s", file.Name, encName)

	reader := csv.NewReader(bytes.NewReader(decoded))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("file %q: reading header: %w", file.Name, err)
	}

	idCol := findColumn(header, customerIDSynonyms)
	if idCol < 0 {
		return nil, 0, &SchemaError{File: file.Name, Column: "customer id"}
	}
	dateCol := findColumn(header, visitDateSynonyms)
	if dateCol < 0 {
		return nil, 0, &SchemaError{File: file.Name, Column: "visit date"}
	}
	stylistCol := findColumn(header, stylistSynonyms)
	couponCol := findColumn(header, couponSynonyms)

	var records []models.VisitRecord
	skipped := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}

		customerID := strings.TrimSpace(field(row, idCol))
		if customerID == "" {
			skipped++
			continue
		}
		visitDate, err := parseVisitDate(field(row, dateCol))
		if err != nil {
			skipped++
			continue
		}

		rec := models.VisitRecord{
			CustomerID: customerID,
			VisitDate:  visitDate,
			Stylist:    normalizeStylist(field(row, stylistCol)),
			Coupon:     strings.TrimSpace(field(row, couponCol)),
			SourceFile: file.Name,
		}

		key := strings.Join([]string{rec.CustomerID, rec.VisitDate.Format("20060102"), rec.Stylist, rec.Coupon}, "\x1f")
		if dedup[key] {
			continue
		}
		dedup[key] = true
		records = append(records, rec)
	}
	return records, skipped, nil
}

func field(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// findColumn returns the first header index matching any synonym, or -1.
func findColumn(header []string, synonyms []string) int {
	for i, h := range header {
		normalized := normalizeHeader(h)
		for _, syn := range synonyms {
			if normalized == syn {
				return i
			}
		}
	}
	return -1
}

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\uFEFF")
	h = whitespaceRE.ReplaceAllString(h, "")
	return strings.ToLower(h)
}

// parseVisitDate tries the format list in order and truncates the winner to a
// UTC calendar date.
func parseVisitDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty date")
	}
	var lastErr error
	for _, layout := range dateFormats {
		t, err := time.Parse(layout, s)
		if err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// normalizeStylist strips all whitespace, so that "山田 太郎" and "山田太郎"
// group as the same stylist.
func normalizeStylist(s string) string {
	return whitespaceRE.ReplaceAllString(s, "")
}
