package analysis

import (
	"errors"
	"testing"
	"time"

	"github.com/mnhrk15/hpb-repeat-analyzer/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testConfig() *models.AnalysisConfig {
	cfg := &models.AnalysisConfig{
		NewCustomerStart:  "2024-01-01",
		NewCustomerEnd:    "2024-01-31",
		RepeatAnalysisEnd: "2024-03-01",
	}
	cfg.Normalize()
	return cfg
}

func TestParseWindow_Valid(t *testing.T) {
	w, err := ParseWindow(testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !w.Start.Equal(date(2024, 1, 1)) || !w.End.Equal(date(2024, 1, 31)) || !w.RepeatEnd.Equal(date(2024, 3, 1)) {
		t.Fatalf("unexpected window: %+v", w)
	}
}

func TestParseWindow_OrderViolation(t *testing.T) {
	cfg := testConfig()
	cfg.NewCustomerEnd = "2023-12-01"
	_, err := ParseWindow(cfg)

	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestParseWindow_RepeatEndBeforeWindowEnd(t *testing.T) {
	cfg := testConfig()
	cfg.RepeatAnalysisEnd = "2024-01-15"
	if _, err := ParseWindow(cfg); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestParseWindow_MissingDate(t *testing.T) {
	cfg := testConfig()
	cfg.NewCustomerStart = ""
	if _, err := ParseWindow(cfg); err == nil {
		t.Fatal("expected error for missing date, got nil")
	}
}

func TestParseWindow_NonPositiveThreshold(t *testing.T) {
	cfg := testConfig()
	cfg.MinRepeatCount = -1
	var cfgErr *ConfigError
	if _, err := ParseWindow(cfg); !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestBuildCustomerFacts_FirstVisitBeforeWindowIsNotNew(t *testing.T) {
	w, _ := ParseWindow(testConfig())
	records := []models.VisitRecord{
		{CustomerID: "C", VisitDate: date(2023, 6, 1)},
		{CustomerID: "C", VisitDate: date(2024, 1, 20)},
	}

	facts := BuildCustomerFacts(records, w)
	if len(facts) != 1 {
		t.Fatalf("got %d facts, want 1", len(facts))
	}
	if facts[0].IsNew {
		t.Fatal("customer first seen in 2023 must not be new")
	}
	if !facts[0].FirstVisit.Equal(date(2023, 6, 1)) {
		t.Fatalf("first visit should be earliest ever: %v", facts[0].FirstVisit)
	}
}

func TestBuildCustomerFacts_SameDayVisitsCountOnce(t *testing.T) {
	w, _ := ParseWindow(testConfig())
	records := []models.VisitRecord{
		{CustomerID: "A", VisitDate: date(2024, 1, 10)},
		{CustomerID: "A", VisitDate: date(2024, 2, 5), Stylist: "x"},
		{CustomerID: "A", VisitDate: date(2024, 2, 5), Stylist: "y"},
	}

	facts := BuildCustomerFacts(records, w)
	if facts[0].RepeatCount != 1 {
		t.Fatalf("same-day rows inflated repeat count: %d", facts[0].RepeatCount)
	}
}

func TestBuildCustomerFacts_RepeatCutoffExcluded(t *testing.T) {
	w, _ := ParseWindow(testConfig())
	records := []models.VisitRecord{
		{CustomerID: "A", VisitDate: date(2024, 1, 10)},
		{CustomerID: "A", VisitDate: date(2024, 3, 1)},  // on the cutoff: counts
		{CustomerID: "A", VisitDate: date(2024, 3, 15)}, // past the cutoff: ignored
	}

	facts := BuildCustomerFacts(records, w)
	if facts[0].RepeatCount != 1 {
		t.Fatalf("got repeat count %d, want 1", facts[0].RepeatCount)
	}
}

func TestBuildCustomerFacts_DimensionTieBreakIsLexical(t *testing.T) {
	w, _ := ParseWindow(testConfig())
	records := []models.VisitRecord{
		{CustomerID: "A", VisitDate: date(2024, 1, 10), Stylist: "zz", Coupon: "aa"},
		{CustomerID: "A", VisitDate: date(2024, 1, 10), Stylist: "bb", Coupon: "zz"},
	}

	facts := BuildCustomerFacts(records, w)
	if facts[0].FirstStylist != "bb" || facts[0].FirstCoupon != "zz" {
		t.Fatalf("tie-break not lexical: %+v", facts[0])
	}

	// Same rows in reverse insertion order give the identical attribution.
	reversed := []models.VisitRecord{records[1], records[0]}
	facts2 := BuildCustomerFacts(reversed, w)
	if facts2[0].FirstStylist != facts[0].FirstStylist || facts2[0].FirstCoupon != facts[0].FirstCoupon {
		t.Fatal("attribution depends on insertion order")
	}
}

func TestBuildCustomerFacts_SortedByCustomerID(t *testing.T) {
	w, _ := ParseWindow(testConfig())
	records := []models.VisitRecord{
		{CustomerID: "B", VisitDate: date(2024, 1, 10)},
		{CustomerID: "A", VisitDate: date(2024, 1, 11)},
	}
	facts := BuildCustomerFacts(records, w)
	if facts[0].CustomerID != "A" || facts[1].CustomerID != "B" {
		t.Fatalf("facts not sorted: %+v", facts)
	}
}
