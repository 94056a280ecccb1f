// Package report renders the analysis result into chart payloads and the
// downloadable text report. Pure transforms: every figure comes from the
// upstream aggregates, nothing is recomputed here.
package report

import (
	"fmt"
	"math"

	"github.com/mnhrk15/hpb-repeat-analyzer/models"
)

// Chart kinds the dashboard requests.
const (
	ChartDistribution = "distribution"
	ChartStylistRate  = "stylist_rate"
	ChartCouponRate   = "coupon_rate"
	ChartFunnel       = "funnel"
)

// ChartPayload is a label/value series ready for direct rendering. Values are
// customer counts for the distribution chart and percentages for the rate
// charts; Counts carries the underlying customer counts for tooltips.
type ChartPayload struct {
	Kind       string    `json:"kind"`
	Title      string    `json:"title"`
	Labels     []string  `json:"labels"`
	Values     []float64 `json:"values"`
	Counts     []int     `json:"counts"`
	Suppressed int       `json:"suppressed,omitempty"`
}

// Chart builds the payload for one chart kind from an analysis result.
func Chart(kind string, res *models.AnalysisResult) (*ChartPayload, error) {
	switch kind {
	case ChartDistribution:
		p := &ChartPayload{Kind: kind, Title: "リピート回数分布"}
		for _, b := range res.Distribution {
			p.Labels = append(p.Labels, b.Label+"回")
			p.Values = append(p.Values, float64(b.Customers))
			p.Counts = append(p.Counts, b.Customers)
		}
		return p, nil
	case ChartStylistRate:
		return rateChart(kind, "スタイリスト別初回リピート率", res.StylistTable, len(res.SuppressedStylists)), nil
	case ChartCouponRate:
		return rateChart(kind, "クーポン別初回リピート率", res.CouponTable, len(res.SuppressedCoupons)), nil
	case ChartFunnel:
		p := &ChartPayload{Kind: kind, Title: "リピートファネル"}
		for _, s := range res.Funnel {
			p.Labels = append(p.Labels, s.Label)
			p.Values = append(p.Values, float64(s.Customers))
			p.Counts = append(p.Counts, s.Customers)
		}
		return p, nil
	}
	return nil, fmt.Errorf("unknown chart kind %q", kind)
}

func rateChart(kind, title string, table []models.DimensionBucket, suppressed int) *ChartPayload {
	p := &ChartPayload{Kind: kind, Title: title, Suppressed: suppressed}
	for _, b := range table {
		p.Labels = append(p.Labels, b.Value)
		p.Values = append(p.Values, percent(b.RepeatRate))
		p.Counts = append(p.Counts, b.Customers)
	}
	return p
}

// percent converts a fraction to a percentage rounded to one decimal.
func percent(rate float64) float64 {
	return math.Round(rate*1000) / 10
}
