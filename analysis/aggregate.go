package analysis

import (
	"sort"
	"strconv"
	"time"

	"github.com/mnhrk15/hpb-repeat-analyzer/models"
)

// Placeholder bucket values for customers whose first-visit row carried no
// stylist or coupon. They are real buckets, not dropped rows.
const (
	UnknownStylist = "不明"
	NoCoupon       = "クーポンなし"
)

// Funnel stage labels, first visit through fifth visit.
var funnelLabels = []string{"新規来店", "2回目来店", "3回目来店", "4回目来店", "5回目来店"}

// Aggregate computes the full analysis result from the fact set. Only new
// customers contribute to any aggregate; an empty cohort is a valid outcome
// with all-zero figures and the EmptyCohort flag set, never a division fault.
func Aggregate(facts []models.CustomerFacts, cfg *models.AnalysisConfig, w models.CohortWindow) *models.AnalysisResult {
	newFacts := make([]models.CustomerFacts, 0, len(facts))
	for _, f := range facts {
		if f.IsNew {
			newFacts = append(newFacts, f)
		}
	}
	total := len(newFacts)

	res := &models.AnalysisResult{
		NewCustomerCount: total,
		EmptyCohort:      total == 0,
		Window:           w,
		Config:           *cfg,
		GeneratedAt:      time.Now().UTC(),
	}

	res.Distribution = distribution(newFacts, cfg.DistributionCap)
	res.Funnel = funnel(newFacts)

	repeaters := countAtLeast(newFacts, 1)
	res.ThresholdRepeaters = countAtLeast(newFacts, cfg.MinRepeatCount)
	if total > 0 {
		res.OverallRepeatRate = float64(repeaters) / float64(total)
		res.ThresholdRepeatRate = float64(res.ThresholdRepeaters) / float64(total)

		sum := 0
		repeaterSum := 0
		for _, f := range newFacts {
			sum += f.RepeatCount
			if f.RepeatCount > 0 {
				repeaterSum += f.RepeatCount
			}
		}
		res.AvgRepeatAll = float64(sum) / float64(total)
		if repeaters > 0 {
			res.AvgRepeatRepeaters = float64(repeaterSum) / float64(repeaters)
		}
	}

	res.StylistTable, res.SuppressedStylists = breakdown(newFacts,
		func(f models.CustomerFacts) string { return f.FirstStylist },
		UnknownStylist, cfg.MinStylistCustomers)
	res.CouponTable, res.SuppressedCoupons = breakdown(newFacts,
		func(f models.CustomerFacts) string { return f.FirstCoupon },
		NoCoupon, cfg.MinCouponCustomers)

	return res
}

// distribution buckets repeat counts 0..maxBucket-1 plus an open
// "maxBucket+" bucket. Empty buckets are kept so charts have a stable axis;
// the bucket counts always sum to the new-customer total.
func distribution(newFacts []models.CustomerFacts, maxBucket int) []models.DistributionBucket {
	buckets := make([]models.DistributionBucket, maxBucket+1)
	for i := 0; i < maxBucket; i++ {
		buckets[i] = models.DistributionBucket{Label: strconv.Itoa(i), RepeatCount: i}
	}
	buckets[maxBucket] = models.DistributionBucket{Label: strconv.Itoa(maxBucket) + "+", RepeatCount: -1}

	for _, f := range newFacts {
		if f.RepeatCount >= maxBucket {
			buckets[maxBucket].Customers++
		} else {
			buckets[f.RepeatCount].Customers++
		}
	}
	return buckets
}

func funnel(newFacts []models.CustomerFacts) []models.FunnelStage {
	total := len(newFacts)
	stages := make([]models.FunnelStage, len(funnelLabels))
	prev := 0
	for i, label := range funnelLabels {
		customers := countAtLeast(newFacts, i)
		stage := models.FunnelStage{Label: label, Visits: i + 1, Customers: customers}
		if total > 0 {
			stage.Share = float64(customers) / float64(total)
		}
		if i == 0 {
			if total > 0 {
				stage.Continuation = 1
			}
		} else if prev > 0 {
			stage.Continuation = float64(customers) / float64(prev)
		}
		stages[i] = stage
		prev = customers
	}
	return stages
}

func countAtLeast(facts []models.CustomerFacts, min int) int {
	n := 0
	for _, f := range facts {
		if f.RepeatCount >= min {
			n++
		}
	}
	return n
}

// breakdown groups new customers by a first-visit dimension value, computes
// per-bucket repeat rates, suppresses buckets under the minimum sample and
// returns the suppressed values separately so the presenter can disclose
// them. Kept buckets are sorted by rate desc, then customer count desc, then
// value asc.
func breakdown(newFacts []models.CustomerFacts, key func(models.CustomerFacts) string, placeholder string, minCustomers int) ([]models.DimensionBucket, []string) {
	groups := make(map[string]*models.DimensionBucket)
	for _, f := range newFacts {
		value := key(f)
		if value == "" {
			value = placeholder
		}
		b, ok := groups[value]
		if !ok {
			b = &models.DimensionBucket{Value: value}
			groups[value] = b
		}
		b.Customers++
		if f.RepeatCount >= 1 {
			b.Repeaters++
		}
	}

	kept := make([]models.DimensionBucket, 0, len(groups))
	suppressed := make([]string, 0)
	for _, b := range groups {
		if b.Customers < minCustomers {
			suppressed = append(suppressed, b.Value)
			continue
		}
		b.RepeatRate = float64(b.Repeaters) / float64(b.Customers)
		kept = append(kept, *b)
	}

	sort.Slice(kept, func(i, j int) bool {
		if kept[i].RepeatRate != kept[j].RepeatRate {
			return kept[i].RepeatRate > kept[j].RepeatRate
		}
		if kept[i].Customers != kept[j].Customers {
			return kept[i].Customers > kept[j].Customers
		}
		return kept[i].Value < kept[j].Value
	})
	sort.Strings(suppressed)
	return kept, suppressed
}
