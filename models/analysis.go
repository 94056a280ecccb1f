package models

import "time"

// Defaults applied by AnalysisConfig.Normalize when the request omits a
// threshold. They mirror the values the salon staff actually run with.
const (
	DefaultMinRepeatCount      = 3
	DefaultMinStylistCustomers = 10
	DefaultMinCouponCustomers  = 5
	DefaultDistributionCap     = 5
)

// AnalysisConfig is the analyze request body. The three dates are calendar
// dates in YYYY-MM-DD form; validation and parsing live in the analysis
// package so a bad window is rejected before any computation.
type AnalysisConfig struct {
	NewCustomerStart    string `json:"new_customer_start"`
	NewCustomerEnd      string `json:"new_customer_end"`
	RepeatAnalysisEnd   string `json:"repeat_analysis_end"`
	MinRepeatCount      int    `json:"min_repeat_count"`
	MinStylistCustomers int    `json:"min_stylist_customers"`
	MinCouponCustomers  int    `json:"min_coupon_customers"`
	DistributionCap     int    `json:"distribution_cap"`
}

// Normalize fills unset thresholds with the documented defaults. It does not
// validate; zero and negative values supplied explicitly are still rejected
// later as configuration errors.
func (c *AnalysisConfig) Normalize() {
	if c.MinRepeatCount == 0 {
		c.MinRepeatCount = DefaultMinRepeatCount
	}
	if c.MinStylistCustomers == 0 {
		c.MinStylistCustomers = DefaultMinStylistCustomers
	}
	if c.MinCouponCustomers == 0 {
		c.MinCouponCustomers = DefaultMinCouponCustomers
	}
	if c.DistributionCap == 0 {
		c.DistributionCap = DefaultDistributionCap
	}
}

// CohortWindow is the validated three-date window: acquisition period
// [Start, End] and the repeat measurement cutoff RepeatEnd.
// Invariant: Start <= End <= RepeatEnd.
type CohortWindow struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	RepeatEnd time.Time `json:"repeatEnd"`
}

// CustomerFacts is the per-customer derivation one analysis run produces.
// A new run builds a new slice; facts are never mutated in place.
type CustomerFacts struct {
	CustomerID   string    `json:"customerId"`
	FirstVisit   time.Time `json:"firstVisit"`
	IsNew        bool      `json:"isNew"`
	RepeatCount  int       `json:"repeatCount"`
	FirstStylist string    `json:"firstStylist,omitempty"`
	FirstCoupon  string    `json:"firstCoupon,omitempty"`
}

// DistributionBucket is one row of the repeat-count distribution.
// RepeatCount is -1 for the open-ended "K+" bucket.
type DistributionBucket struct {
	Label       string `json:"label"`
	RepeatCount int    `json:"repeatCount"`
	Customers   int    `json:"customers"`
}

// DimensionBucket is one row of a stylist or coupon rate table.
// RepeatRate is a fraction in [0, 1].
type DimensionBucket struct {
	Value      string  `json:"value"`
	Customers  int     `json:"customers"`
	Repeaters  int     `json:"repeaters"`
	RepeatRate float64 `json:"repeatRate"`
}

// FunnelStage is one step of the visit funnel (first visit, second visit, ...).
// Share is the stage size relative to the cohort; Continuation is relative to
// the previous stage (1 for the first stage).
type FunnelStage struct {
	Label        string  `json:"label"`
	Visits       int     `json:"visits"`
	Customers    int     `json:"customers"`
	Share        float64 `json:"share"`
	Continuation float64 `json:"continuation"`
}

// AnalysisResult is the full aggregate payload the presentation layer reads.
// All rates are fractions in [0, 1]; EmptyCohort flags the valid zero-new-
// customer outcome.
type AnalysisResult struct {
	NewCustomerCount    int                  `json:"newCustomerCount"`
	EmptyCohort         bool                 `json:"emptyCohort"`
	Distribution        []DistributionBucket `json:"distribution"`
	OverallRepeatRate   float64              `json:"overallRepeatRate"`
	ThresholdRepeaters  int                  `json:"thresholdRepeaters"`
	ThresholdRepeatRate float64              `json:"thresholdRepeatRate"`
	AvgRepeatAll        float64              `json:"avgRepeatAll"`
	AvgRepeatRepeaters  float64              `json:"avgRepeatRepeaters"`
	Funnel              []FunnelStage        `json:"funnel"`
	StylistTable        []DimensionBucket    `json:"stylistTable"`
	CouponTable         []DimensionBucket    `json:"couponTable"`
	SuppressedStylists  []string             `json:"suppressedStylists"`
	SuppressedCoupons   []string             `json:"suppressedCoupons"`
	Window              CohortWindow         `json:"window"`
	Config              AnalysisConfig       `json:"config"`
	GeneratedAt         time.Time            `json:"generatedAt"`
}

// AnalysisRun is the immutable snapshot for one ingestion: the records, how
// they were ingested, and (once analyze has run) the result. A new upload
// supersedes the run; it is never merged into.
type AnalysisRun struct {
	RunID     string          `json:"runId"`
	CreatedAt time.Time       `json:"createdAt"`
	Records   []VisitRecord   `json:"-"`
	Summary   *IngestSummary  `json:"summary"`
	Result    *AnalysisResult `json:"result,omitempty"`
}

// WithResult returns a shallow copy of the run carrying the given result.
// The record slice is shared; neither run mutates it.
func (r *AnalysisRun) WithResult(res *AnalysisResult) *AnalysisRun {
	cp := *r
	cp.Result = res
	return &cp
}
