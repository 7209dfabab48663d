package scraper

// FilterConfig 入库前的数值筛选阈值
type FilterConfig struct {
	MinMarketCap float64 // 最小市值（USD）
	MinLiquidity float64 // 最小流动性（USD）
	MaxAgeDays   float64 // 最大代币年龄（天）
}

// DefaultFilterConfig 默认阈值
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		MinMarketCap: 500_000,
		MinLiquidity: 50_000,
		MaxAgeDays:   1,
	}
}

// FilterStats 各谓词的淘汰计数，用于批次汇总日志
type FilterStats struct {
	Input        int
	Passed       int
	NoChange24h  int
	LowMarketCap int
	LowLiquidity int
	TooOld       int
}

// Filter 对一批记录应用全部谓词的合取，逐条要么全过要么全弃：
//  1. 24h 涨跌幅必须存在
//  2. market_cap >= MinMarketCap
//  3. liquidity >= MinLiquidity
//  4. age_days <= MaxAgeDays
//
// 谓词相互独立，（1）最便宜所以先判。对已筛选过的批次用同样阈值
// 再筛一遍结果不变。
func Filter(records []*TokenRecord, cfg FilterConfig) ([]*TokenRecord, FilterStats) {
	stats := FilterStats{Input: len(records)}
	out := make([]*TokenRecord, 0, len(records))

	for _, r := range records {
		if r.PriceChange24h == nil {
			stats.NoChange24h++
			continue
		}
		if r.MarketCap == nil || *r.MarketCap < cfg.MinMarketCap {
			stats.LowMarketCap++
			continue
		}
		if r.LiquidityUSD == nil || *r.LiquidityUSD < cfg.MinLiquidity {
			stats.LowLiquidity++
			continue
		}
		if r.AgeDays > cfg.MaxAgeDays {
			stats.TooOld++
			continue
		}
		out = append(out, r)
	}

	stats.Passed = len(out)
	return out, stats
}
