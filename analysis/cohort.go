package analysis

import (
	"sort"
	"time"

	"github.com/mnhrk15/hpb-repeat-analyzer/models"
)

type customerAgg struct {
	first        time.Time
	firstStylist string
	firstCoupon  string
	dates        map[time.Time]bool
}

// BuildCustomerFacts derives per-customer facts for every customer in the
// record sequence. The first visit is the earliest date over the whole
// dataset, not just the window, so a returning customer who also visited
// during the window is never misclassified as new. The repeat count is the
// number of distinct later calendar dates up to the repeat cutoff; same-day
// multi-service rows count once.
func BuildCustomerFacts(records []models.VisitRecord, w models.CohortWindow) []models.CustomerFacts {
	byCustomer := make(map[string]*customerAgg)

	for _, rec := range records {
		agg, ok := byCustomer[rec.CustomerID]
		if !ok {
			agg = &customerAgg{dates: make(map[time.Time]bool)}
			byCustomer[rec.CustomerID] = agg
		}

		if len(agg.dates) == 0 || rec.VisitDate.Before(agg.first) {
			agg.first = rec.VisitDate
			agg.firstStylist = rec.Stylist
			agg.firstCoupon = rec.Coupon
		} else if rec.VisitDate.Equal(agg.first) {
			// Several rows can share the earliest date; pick the smallest
			// (stylist, coupon) pair so attribution is reproducible.
			if rec.Stylist < agg.firstStylist ||
				(rec.Stylist == agg.firstStylist && rec.Coupon < agg.firstCoupon) {
				agg.firstStylist = rec.Stylist
				agg.firstCoupon = rec.Coupon
			}
		}
		agg.dates[rec.VisitDate] = true
	}

	facts := make([]models.CustomerFacts, 0, len(byCustomer))
	for id, agg := range byCustomer {
		repeat := 0
		for d := range agg.dates {
			if d.After(agg.first) && !d.After(w.RepeatEnd) {
				repeat++
			}
		}
		facts = append(facts, models.CustomerFacts{
			CustomerID:   id,
			FirstVisit:   agg.first,
			IsNew:        !agg.first.Before(w.Start) && !agg.first.After(w.End),
			RepeatCount:  repeat,
			FirstStylist: agg.firstStylist,
			FirstCoupon:  agg.firstCoupon,
		})
	}

	sort.Slice(facts, func(i, j int) bool { return facts[i].CustomerID < facts[j].CustomerID })
	return facts
}
