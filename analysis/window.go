// Package analysis derives per-customer facts from normalized visit records
// and aggregates them into the repeat-visit cohort result.
package analysis

import (
	"fmt"
	"time"

	"github.com/mnhrk15/hpb-repeat-analyzer/models"
)

const dateLayout = "2006-01-02"

// ConfigError marks an invalid analysis configuration: a malformed or
// misordered window, or a non-positive threshold. Raised before any
// per-customer computation.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "invalid analysis configuration: " + e.Reason
}

// ParseWindow validates the configuration and returns the cohort window.
// Invariant: new_customer_start <= new_customer_end <= repeat_analysis_end.
func ParseWindow(cfg *models.AnalysisConfig) (models.CohortWindow, error) {
	var w models.CohortWindow

	start, err := parseConfigDate("new_customer_start", cfg.NewCustomerStart)
	if err != nil {
		return w, err
	}
	end, err := parseConfigDate("new_customer_end", cfg.NewCustomerEnd)
	if err != nil {
		return w, err
	}
	repeatEnd, err := parseConfigDate("repeat_analysis_end", cfg.RepeatAnalysisEnd)
	if err != nil {
		return w, err
	}

	if end.Before(start) {
		return w, &ConfigError{Reason: "new_customer_end is before new_customer_start"}
	}
	if repeatEnd.Before(end) {
		return w, &ConfigError{Reason: "repeat_analysis_end is before new_customer_end"}
	}

	if cfg.MinRepeatCount <= 0 {
		return w, &ConfigError{Reason: "min_repeat_count must be positive"}
	}
	if cfg.MinStylistCustomers <= 0 {
		return w, &ConfigError{Reason: "min_stylist_customers must be positive"}
	}
	if cfg.MinCouponCustomers <= 0 {
		return w, &ConfigError{Reason: "min_coupon_customers must be positive"}
	}
	if cfg.DistributionCap <= 0 {
		return w, &ConfigError{Reason: "distribution_cap must be positive"}
	}

	w.Start, w.End, w.RepeatEnd = start, end, repeatEnd
	return w, nil
}

func parseConfigDate(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, &ConfigError{Reason: name + " is required"}
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, &ConfigError{Reason: fmt.Sprintf("%s %q is not a YYYY-MM-DD date", name, value)}
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}
