package report

import (
	"strings"
	"testing"
	"time"

	"github.com/mnhrk15/hpb-repeat-analyzer/analysis"
	"github.com/mnhrk15/hpb-repeat-analyzer/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sampleResult(t *testing.T) *models.AnalysisResult {
	t.Helper()
	cfg := &models.AnalysisConfig{
		NewCustomerStart:    "2024-01-01",
		NewCustomerEnd:      "2024-01-31",
		RepeatAnalysisEnd:   "2024-03-01",
		MinStylistCustomers: 1,
		MinCouponCustomers:  1,
	}
	cfg.Normalize()
	w, err := analysis.ParseWindow(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records := []models.VisitRecord{
		{CustomerID: "A", VisitDate: date(2024, 1, 1), Stylist: "田中", Coupon: "初回割"},
		{CustomerID: "A", VisitDate: date(2024, 2, 1)},
		{CustomerID: "B", VisitDate: date(2024, 1, 15), Stylist: "鈴木"},
	}
	return analysis.Aggregate(analysis.BuildCustomerFacts(records, w), cfg, w)
}

func TestChart_Distribution(t *testing.T) {
	res := sampleResult(t)
	p, err := Chart(ChartDistribution, res)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Kind != ChartDistribution || len(p.Labels) != len(res.Distribution) {
		t.Fatalf("unexpected payload: %+v", p)
	}

	sum := 0
	for _, c := range p.Counts {
		sum += c
	}
	if sum != res.NewCustomerCount {
		t.Fatalf("chart counts sum to %d, want %d", sum, res.NewCustomerCount)
	}
	if p.Labels[0] != "0回" {
		t.Fatalf("unexpected first label: %q", p.Labels[0])
	}
}

func TestChart_StylistRatePercent(t *testing.T) {
	res := sampleResult(t)
	p, err := Chart(ChartStylistRate, res)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Labels) != len(res.StylistTable) {
		t.Fatalf("payload rows %d != table rows %d", len(p.Labels), len(res.StylistTable))
	}
	// 田中 has 1/1 repeaters: 100.0%, ranked first.
	if p.Labels[0] != "田中" || p.Values[0] != 100.0 {
		t.Fatalf("unexpected top row: %q %v", p.Labels[0], p.Values[0])
	}
}

func TestChart_UnknownKind(t *testing.T) {
	if _, err := Chart("pie", sampleResult(t)); err == nil {
		t.Fatal("expected error for unknown chart kind, got nil")
	}
}

func TestRender_AgreesWithCharts(t *testing.T) {
	res := sampleResult(t)
	text := Render(res)

	for _, want := range []string{
		"美容室顧客データリピート分析レポート",
		"新規顧客抽出期間: 2024-01-01 ～ 2024-01-31",
		"新規顧客総数: 2人",
		"初回リピート率: 50.0%",
		"【リピート回数分布】",
		"【リピートファネル分析】",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("report is missing %q:\n%s", want, text)
		}
	}

	// The stylist section lists the same rows in the same order as the chart.
	chart, _ := Chart(ChartStylistRate, res)
	last := -1
	for _, label := range chart.Labels {
		idx := strings.Index(text, "  "+label+": ")
		if idx < 0 {
			t.Fatalf("report is missing stylist row %q", label)
		}
		if idx < last {
			t.Fatalf("report rows out of chart order at %q", label)
		}
		last = idx
	}
}

func TestRender_EmptyCohort(t *testing.T) {
	cfg := &models.AnalysisConfig{
		NewCustomerStart:  "2024-01-01",
		NewCustomerEnd:    "2024-01-31",
		RepeatAnalysisEnd: "2024-03-01",
	}
	cfg.Normalize()
	w, _ := analysis.ParseWindow(cfg)
	res := analysis.Aggregate(nil, cfg, w)

	text := Render(res)
	if !strings.Contains(text, "指定期間に新規顧客がいません") {
		t.Fatalf("empty cohort not disclosed:\n%s", text)
	}
}

func TestRender_DisclosesSuppressedBuckets(t *testing.T) {
	cfg := &models.AnalysisConfig{
		NewCustomerStart:  "2024-01-01",
		NewCustomerEnd:    "2024-01-31",
		RepeatAnalysisEnd: "2024-03-01",
	}
	cfg.Normalize() // min_stylist_customers 10
	w, _ := analysis.ParseWindow(cfg)

	facts := []models.CustomerFacts{
		{CustomerID: "A", IsNew: true, RepeatCount: 1, FirstStylist: "小さい店"},
	}
	res := analysis.Aggregate(facts, cfg, w)

	text := Render(res)
	if !strings.Contains(text, "対象外: 1名") || !strings.Contains(text, "小さい店") {
		t.Fatalf("suppressed bucket not disclosed:\n%s", text)
	}
}
