// repeat-report runs the cohort analysis offline against CSV exports on
// disk and writes the same text report the API serves.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/schollz/progressbar/v3"

	"github.com/mnhrk15/hpb-repeat-analyzer/analysis"
	"github.com/mnhrk15/hpb-repeat-analyzer/ingest"
	"github.com/mnhrk15/hpb-repeat-analyzer/models"
	"github.com/mnhrk15/hpb-repeat-analyzer/report"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	start := flag.String("start", "", "New-customer window start (YYYY-MM-DD)")
	end := flag.String("end", "", "New-customer window end (YYYY-MM-DD)")
	repeatEnd := flag.String("repeat-end", "", "Repeat analysis cutoff (YYYY-MM-DD)")
	minRepeat := flag.Int("min-repeat", models.DefaultMinRepeatCount, "Repeat-count threshold")
	minStylist := flag.Int("min-stylist", models.DefaultMinStylistCustomers, "Minimum customers per stylist bucket")
	minCoupon := flag.Int("min-coupon", models.DefaultMinCouponCustomers, "Minimum customers per coupon bucket")
	distCap := flag.Int("cap", models.DefaultDistributionCap, "Distribution bucket cap")
	out := flag.String("out", "", "Report output path (stdout when empty)")
	verbose := flag.Bool("v", false, "Verbose mode")
	flag.Parse()

	paths := flag.Args()
	if len(paths) == 0 || *start == "" || *end == "" || *repeatEnd == "" {
		log.Fatalf("Usage: repeat-report --start YYYY-MM-DD --end YYYY-MM-DD --repeat-end YYYY-MM-DD file.csv [file.csv ...]")
	}

	bar := progressbar.Default(int64(len(paths)), "reading files")
	uploads := make([]ingest.UploadedFile, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Fatalf("read %s: %v", path, err)
		}
		uploads = append(uploads, ingest.UploadedFile{Name: path, Data: data})
		_ = bar.Add(1)
	}

	records, summary, err := ingest.Files(uploads)
	if err != nil {
		log.Fatalf("ingest: %v", err)
	}
	if *verbose {
		log.Printf("[INFO] ingested records=%d skipped=%d range=%s..%s",
			summary.TotalRecords, summary.SkippedRecords, summary.MinDate, summary.MaxDate)
	}

	cfg := models.AnalysisConfig{
		NewCustomerStart:    *start,
		NewCustomerEnd:      *end,
		RepeatAnalysisEnd:   *repeatEnd,
		MinRepeatCount:      *minRepeat,
		MinStylistCustomers: *minStylist,
		MinCouponCustomers:  *minCoupon,
		DistributionCap:     *distCap,
	}
	window, err := analysis.ParseWindow(&cfg)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	facts := analysis.BuildCustomerFacts(records, window)
	result := analysis.Aggregate(facts, &cfg, window)
	if *verbose {
		log.Printf("[INFO] new_customers=%d overall_rate=%.3f threshold_rate=%.3f",
			result.NewCustomerCount, result.OverallRepeatRate, result.ThresholdRepeatRate)
	}

	text := report.Render(result)
	if *out == "" {
		fmt.Print(text)
		return
	}
	if err := os.WriteFile(*out, []byte(text), 0o644); err != nil {
		log.Fatalf("write report: %v", err)
	}
	log.Printf("Report written to %s", *out)
}
