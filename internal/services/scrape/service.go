package scrape

import (
	"context"
	"log"
	"sort"
	"time"

	"dex-radar/internal/models"
	"dex-radar/internal/scraper"
	"dex-radar/internal/services/dexscreener"

	"gorm.io/gorm"
)

// ListingSource 列表页抓取的外部依赖（生产实现是 dexscreener.Client）
type ListingSource interface {
	FetchListingRows(ctx context.Context, chain string, limit int) ([]dexscreener.RawRow, error)
	CorrectCaseAddress(ctx context.Context, chain, pairAddress string) string
}

// Options 单次爬取运行的参数
type Options struct {
	Chains        []string             // 要爬的链，默认 bsc+solana
	CountPerChain int                  // 每条链最多解析多少行
	TopPerChain   int                  // 每条链按24h涨幅取前N入库
	Filter        scraper.FilterConfig // 数值筛选阈值
}

func DefaultOptions() Options {
	return Options{
		Chains:        []string{models.ChainBSC, models.ChainSolana},
		CountPerChain: 100,
		TopPerChain:   10,
		Filter:        scraper.DefaultFilterConfig(),
	}
}

// RunSummary 一条链一次运行的统计
type RunSummary struct {
	Chain       string              `json:"chain"`
	Scraped     int                 `json:"scraped"`      // 页面上拿到的行数
	ParseFailed int                 `json:"parse_failed"` // 逐行解析失败数
	Filter      scraper.FilterStats `json:"filter"`       // 各谓词淘汰数
	Inserted    int                 `json:"inserted"`
	Overwritten int                 `json:"overwritten"`
	Skipped     int                 `json:"skipped"`
}

// Service 爬取→解析→筛选→高水位入库 的流水线
type Service struct {
	source ListingSource
	store  *ReconcileStore
	opts   Options
	logger *log.Logger
}

func NewService(db *gorm.DB, source ListingSource, opts Options, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		source: source,
		store:  NewReconcileStore(db),
		opts:   opts,
		logger: logger,
	}
}

// Run 按顺序爬取全部配置的链。单条链整页失败只记日志，
// 不影响其余链；全部链都颗粒无收时返回最后一个错误，
// 由调度器等下个周期。
func (s *Service) Run(ctx context.Context) ([]*RunSummary, error) {
	var summaries []*RunSummary
	var lastErr error
	gotAny := false

	for _, chain := range s.opts.Chains {
		summary, err := s.ScrapeChain(ctx, chain)
		if err != nil {
			s.logger.Printf("❌ %s: 本轮爬取失败: %v", chain, err)
			lastErr = err
			continue
		}
		gotAny = true
		summaries = append(summaries, summary)
	}

	if !gotAny && lastErr != nil {
		return nil, lastErr
	}
	return summaries, nil
}

// ScrapeChain 爬取单条链并入库
func (s *Service) ScrapeChain(ctx context.Context, chain string) (*RunSummary, error) {
	rows, err := s.source.FetchListingRows(ctx, chain, s.opts.CountPerChain)
	if err != nil {
		return nil, err
	}

	summary := &RunSummary{Chain: chain, Scraped: len(rows)}

	// 逐行解析。单行失败只跳过该行并带上下文记日志，
	// 方便对照页面排查解析漂移。
	var records []*scraper.TokenRecord
	for _, row := range rows {
		rec, err := scraper.ParseRow(row.Text, row.PairAddress, chain)
		if err != nil {
			summary.ParseFailed++
			s.logger.Printf("  ⚠️ %s 行解析失败 (%v) pair=%s text=%.120q",
				chain, err, row.PairAddress, row.Text)
			continue
		}
		records = append(records, rec)
	}

	filtered, stats := scraper.Filter(records, s.opts.Filter)
	summary.Filter = stats

	// 按 24h 涨幅降序取前 N
	sort.Slice(filtered, func(i, j int) bool {
		return *filtered[i].PriceChange24h > *filtered[j].PriceChange24h
	})
	if len(filtered) > s.opts.TopPerChain {
		filtered = filtered[:s.opts.TopPerChain]
	}

	// Solana 地址大小写修正（页面 href 是小写，链上地址区分大小写）
	if chain == models.ChainSolana {
		for _, rec := range filtered {
			rec.PairAddress = s.source.CorrectCaseAddress(ctx, chain, rec.PairAddress)
		}
	}

	// 单写入者提交阶段：一次运行里同一 pair 不会并发写
	now := time.Now().UTC()
	for _, rec := range filtered {
		action, err := s.store.Reconcile(rec, now)
		if err != nil {
			s.logger.Printf("  ❌ %s 入库失败 pair=%s: %v", chain, rec.PairAddress, err)
			continue
		}
		switch action {
		case ActionInsert:
			summary.Inserted++
		case ActionOverwrite:
			summary.Overwritten++
		default:
			summary.Skipped++
		}
	}

	s.logger.Printf("✅ %s: 爬取 %d 行, 解析失败 %d, 过滤后 %d, 插入 %d, 覆盖 %d, 跳过 %d",
		chain, summary.Scraped, summary.ParseFailed, summary.Filter.Passed,
		summary.Inserted, summary.Overwritten, summary.Skipped)

	return summary, nil
}
