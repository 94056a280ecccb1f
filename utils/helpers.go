package utils

func IsValidChartKind(kind string) bool {
	switch kind {
	case "distribution", "stylist_rate", "coupon_rate", "funnel":
		return true
	default:
		return false
	}
}
