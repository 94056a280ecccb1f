package report

import (
	"fmt"
	"strings"

	"github.com/mnhrk15/hpb-repeat-analyzer/models"
)

const separator = "================================================================================"

// Render produces the plain-text analysis report. Sections follow the same
// ordering as the chart payloads so both surfaces always agree.
func Render(res *models.AnalysisResult) string {
	var b strings.Builder
	cfg := res.Config

	b.WriteString(separator + "\n")
	b.WriteString("美容室顧客データリピート分析レポート\n")
	b.WriteString(separator + "\n\n")

	b.WriteString("【分析条件】\n")
	fmt.Fprintf(&b, "新規顧客抽出期間: %s ～ %s\n", cfg.NewCustomerStart, cfg.NewCustomerEnd)
	fmt.Fprintf(&b, "リピート集計終了日: %s\n", cfg.RepeatAnalysisEnd)
	fmt.Fprintf(&b, "リピート基準回数: %d回以上\n\n", cfg.MinRepeatCount)

	b.WriteString("【基本統計】\n")
	fmt.Fprintf(&b, "新規顧客総数: %d人\n", res.NewCustomerCount)
	if res.EmptyCohort {
		b.WriteString("指定期間に新規顧客がいません。\n\n")
	} else {
		fmt.Fprintf(&b, "初回リピート率: %.1f%%\n", res.OverallRepeatRate*100)
		fmt.Fprintf(&b, "%d回以上リピーター数: %d人\n", cfg.MinRepeatCount, res.ThresholdRepeaters)
		fmt.Fprintf(&b, "%d回以上リピート率: %.1f%%\n", cfg.MinRepeatCount, res.ThresholdRepeatRate*100)
		fmt.Fprintf(&b, "平均リピート回数（全顧客）: %.1f回\n", res.AvgRepeatAll)
		fmt.Fprintf(&b, "平均リピート回数（リピーターのみ）: %.1f回\n\n", res.AvgRepeatRepeaters)
	}

	b.WriteString("【リピート回数分布】\n")
	for _, bucket := range res.Distribution {
		share := 0.0
		if res.NewCustomerCount > 0 {
			share = float64(bucket.Customers) / float64(res.NewCustomerCount) * 100
		}
		fmt.Fprintf(&b, "  %s回: %d人 (%.1f%%)\n", bucket.Label, bucket.Customers, share)
	}
	b.WriteString("\n")

	b.WriteString("【リピートファネル分析】\n")
	for _, stage := range res.Funnel {
		fmt.Fprintf(&b, "  %s: %d人 (%.1f%%) 継続率 %.1f%%\n",
			stage.Label, stage.Customers, stage.Share*100, stage.Continuation*100)
	}
	b.WriteString("\n")

	writeDimensionSection(&b, "【スタイリスト別分析】",
		fmt.Sprintf("新規顧客%d人以上のスタイリストが対象", cfg.MinStylistCustomers),
		res.StylistTable, res.SuppressedStylists, "名")
	writeDimensionSection(&b, "【クーポン別分析】",
		fmt.Sprintf("利用顧客%d人以上のクーポンが対象", cfg.MinCouponCustomers),
		res.CouponTable, res.SuppressedCoupons, "件")

	return b.String()
}

func writeDimensionSection(b *strings.Builder, heading, criteria string, table []models.DimensionBucket, suppressed []string, unit string) {
	b.WriteString(heading + "\n")
	fmt.Fprintf(b, "■%s\n", criteria)
	if len(table) == 0 {
		b.WriteString("  該当なし\n")
	}
	for _, row := range table {
		fmt.Fprintf(b, "  %s: %.1f%% (%d/%d人)\n", row.Value, row.RepeatRate*100, row.Repeaters, row.Customers)
	}
	if len(suppressed) > 0 {
		fmt.Fprintf(b, "  対象外: %d%s（サンプル不足: %s）\n", len(suppressed), unit, strings.Join(suppressed, "、"))
	}
	b.WriteString("\n")
}
