package scrape

import (
	"errors"
	"fmt"
	"time"

	"dex-radar/internal/models"
	"dex-radar/internal/scraper"

	"gorm.io/gorm"
)

// Action Reconcile 对一条记录的处置
type Action int

const (
	ActionSkip      Action = iota // 已存记录涨幅更高（或持平），不动
	ActionInsert                  // 新 pair，插入
	ActionOverwrite               // 新涨幅更高，覆盖全部爬取字段
)

func (a Action) String() string {
	switch a {
	case ActionInsert:
		return "insert"
	case ActionOverwrite:
		return "overwrite"
	default:
		return "skip"
	}
}

// ReconcileStore potential_tokens 表的高水位写入器。
// 这张表记录每个代币观察到的最好 24h 表现，不是最近状态的镜像：
// 涨幅回落绝不能抹掉之前记录的峰值快照。一次爬取运行内
// 所有行走同一个单写入者提交流程，同一 pair 不会并发写。
type ReconcileStore struct {
	db *gorm.DB
}

func NewReconcileStore(db *gorm.DB) *ReconcileStore {
	return &ReconcileStore{db: db}
}

// Reconcile 按 (pair_address, chain) 决定插入、覆盖还是跳过。
// 比较键是原始 24h 涨幅；相等视为"没有更高"，结果是跳过。
func (s *ReconcileStore) Reconcile(rec *scraper.TokenRecord, now time.Time) (Action, error) {
	if rec.PriceChange24h == nil {
		// 过滤器保证 24h 存在，这里兜底
		return ActionSkip, fmt.Errorf("record %s has no 24h change", rec.PairAddress)
	}

	var existing models.PotentialToken
	err := s.db.Where("pair_address = ? AND chain = ?", rec.PairAddress, rec.Chain).
		First(&existing).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		token := models.PotentialToken{
			Chain:        rec.Chain,
			DexID:        "dexscreener",
			DexType:      rec.DexType,
			PairAddress:  rec.PairAddress,
			TokenAddress: rec.PairAddress, // 页面没有代币合约地址，用 pair 地址占位
			TokenSymbol:  rec.TokenSymbol,
			TokenName:    rec.TokenName,

			BaseTokenSymbol: rec.BaseTokenSymbol,
			AgeRaw:          rec.AgeRaw,
			AgeDays:         rec.AgeDays,

			ScrapedPriceUSD:        rec.PriceUSD,
			ScrapedTimestamp:       now,
			MarketCapAtScrape:      rec.MarketCap,
			LiquidityAtScrape:      rec.LiquidityUSD,
			Volume24hAtScrape:      rec.Volume24h,
			PriceChange5m:          rec.PriceChange5m,
			PriceChange1h:          rec.PriceChange1h,
			PriceChange6h:          rec.PriceChange6h,
			PriceChange24hAtScrape: *rec.PriceChange24h,
		}
		if err := s.db.Create(&token).Error; err != nil {
			return ActionSkip, fmt.Errorf("insert potential token %s: %w", rec.PairAddress, err)
		}
		return ActionInsert, nil
	}
	if err != nil {
		return ActionSkip, fmt.Errorf("lookup potential token %s: %w", rec.PairAddress, err)
	}

	if *rec.PriceChange24h <= existing.PriceChange24hAtScrape {
		return ActionSkip, nil
	}

	// 新涨幅更高：覆盖全部爬取字段并刷新快照时间
	existing.TokenSymbol = rec.TokenSymbol
	existing.TokenName = rec.TokenName
	existing.BaseTokenSymbol = rec.BaseTokenSymbol
	existing.DexType = rec.DexType
	existing.AgeRaw = rec.AgeRaw
	existing.AgeDays = rec.AgeDays
	existing.ScrapedPriceUSD = rec.PriceUSD
	existing.ScrapedTimestamp = now
	existing.MarketCapAtScrape = rec.MarketCap
	existing.LiquidityAtScrape = rec.LiquidityUSD
	existing.Volume24hAtScrape = rec.Volume24h
	existing.PriceChange5m = rec.PriceChange5m
	existing.PriceChange1h = rec.PriceChange1h
	existing.PriceChange6h = rec.PriceChange6h
	existing.PriceChange24hAtScrape = *rec.PriceChange24h

	if err := s.db.Save(&existing).Error; err != nil {
		return ActionSkip, fmt.Errorf("overwrite potential token %s: %w", rec.PairAddress, err)
	}
	return ActionOverwrite, nil
}
