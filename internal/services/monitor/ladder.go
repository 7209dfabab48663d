package monitor

import (
	"sort"

	"dex-radar/internal/models"
)

// 严重级别
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
)

// Firing 一次轮询中某个阈值被越过
type Firing struct {
	Threshold   float64
	DrawdownPct float64
	Severity    string
}

// Drawdown 相对峰值的回撤百分比，价格高于峰值时取 0（不允许负回撤）。
// peak 不合法（<=0）时同样取 0，避免除零。
func Drawdown(peak, current float64) float64 {
	if peak <= 0 {
		return 0
	}
	d := (peak - current) / peak * 100
	if d < 0 {
		return 0
	}
	return d
}

// SeverityFor 按实际回撤定级，与阈值本身无关：
// 回撤翻过 20 的阈值但实际跌了 75%，级别就是 critical。
func SeverityFor(drawdown float64) string {
	switch {
	case drawdown >= 70:
		return SeverityCritical
	case drawdown >= 50:
		return SeverityHigh
	case drawdown >= 30:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// EvaluateLadder 按升序走一遍阈值梯子，返回本次需要触发的阈值。
// 已触发过的跳过（每个阈值终生只触发一次）；一次大跌可以
// 同时翻过多个阈值，全部按升序返回。
func EvaluateLadder(thresholds, fired models.ThresholdList, drawdown float64) []Firing {
	sorted := make([]float64, len(thresholds))
	copy(sorted, thresholds)
	sort.Float64s(sorted)

	var firings []Firing
	for _, th := range sorted {
		if drawdown < th {
			break // 升序，后面的阈值更不可能满足
		}
		if fired.Contains(th) {
			continue
		}
		firings = append(firings, Firing{
			Threshold:   th,
			DrawdownPct: drawdown,
			Severity:    SeverityFor(drawdown),
		})
	}
	return firings
}
