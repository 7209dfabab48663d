package monitor

import (
	"context"
	"fmt"
	"log"
	"time"

	"dex-radar/internal/models"
	"dex-radar/internal/services/dexscreener"
	"dex-radar/internal/services/notify"

	"gorm.io/gorm"
)

// 自动移除原因
const (
	RemovalLowMarketCap = "low_market_cap"
	RemovalLowLiquidity = "low_liquidity"
)

// PriceSource 实时价格来源（生产实现是 dexscreener.Client）
type PriceSource interface {
	GetPairDetail(ctx context.Context, chain, pairAddress string) (*dexscreener.PairDetail, error)
}

// Options 监控轮询参数。底线为 nil 表示关闭对应的自动移除。
type Options struct {
	MinMarketCap *float64 // 市值低于此值自动移除
	MinLiquidity *float64 // 流动性低于此值自动移除
}

// PollSummary 一轮轮询的统计
type PollSummary struct {
	Total           int `json:"total"`            // 本轮应轮询的代币数
	Updated         int `json:"updated"`          // 成功刷新价格的
	Failed          int `json:"failed"`           // 拿不到价格的（下轮重试）
	AlertsTriggered int `json:"alerts_triggered"` // 新触发的报警条数
	Removed         int `json:"removed"`          // 跌破底线被移除的
}

// Service 价格监控轮询器。每轮对所有未终止的代币拉一次实时价格，
// 维护峰值棘轮并评估报警梯子。
type Service struct {
	db       *gorm.DB
	source   PriceSource
	notifier notify.Notifier
	opts     Options
	logger   *log.Logger
}

func NewService(db *gorm.DB, source PriceSource, notifier notify.Notifier, opts Options, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{db: db, source: source, notifier: notifier, opts: opts, logger: logger}
}

// Poll 对全部 active/alerted 代币轮询一次。
// 单个代币拿不到价格只记日志跳过，状态原样保留，下轮重试。
func (s *Service) Poll(ctx context.Context) (*PollSummary, error) {
	var tokens []models.MonitoredToken
	if err := s.db.Where("status <> ?", models.StatusStopped).Find(&tokens).Error; err != nil {
		return nil, fmt.Errorf("load monitored tokens: %w", err)
	}

	summary := &PollSummary{Total: len(tokens)}

	for i := range tokens {
		token := &tokens[i]

		detail, err := s.source.GetPairDetail(ctx, token.Chain, token.PairAddress)
		if err != nil {
			summary.Failed++
			s.logger.Printf("  ⚠️ %s(%s) 价格获取失败: %v", token.TokenSymbol, token.PairAddress, err)
			continue
		}

		fired, removed, err := s.pollOne(ctx, token, detail)
		if err != nil {
			summary.Failed++
			s.logger.Printf("  ❌ %s(%s) 状态更新失败: %v", token.TokenSymbol, token.PairAddress, err)
			continue
		}
		summary.Updated++
		summary.AlertsTriggered += fired
		if removed {
			summary.Removed++
		}
	}

	s.logger.Printf("✅ 监控轮询完成: 共 %d, 更新 %d, 失败 %d, 新报警 %d, 移除 %d",
		summary.Total, summary.Updated, summary.Failed, summary.AlertsTriggered, summary.Removed)
	return summary, nil
}

// pollOne 刷新单个代币：峰值棘轮 → 报警梯子 → 底线检查。
// 报警记录与 fired_thresholds 的更新在同一事务里提交。
func (s *Service) pollOne(ctx context.Context, token *models.MonitoredToken, detail *dexscreener.PairDetail) (int, bool, error) {
	now := time.Now().UTC()

	token.CurrentPriceUSD = detail.PriceUSD
	token.CurrentMarketCap = detail.MarketCap
	token.CurrentLiquidity = detail.LiquidityUSD
	token.CurrentVolume24h = detail.Volume24h
	token.LastUpdateTimestamp = &now

	// 峰值只升不降
	if detail.PriceUSD > token.PeakPriceUSD {
		token.PeakPriceUSD = detail.PriceUSD
		token.PeakTimestamp = &now
	}

	drawdown := Drawdown(token.PeakPriceUSD, token.CurrentPriceUSD)
	firings := EvaluateLadder(token.AlertThresholds, token.FiredThresholds, drawdown)

	var alerts []models.PriceAlert
	for _, f := range firings {
		alerts = append(alerts, models.PriceAlert{
			MonitoredTokenID:    token.ID,
			PairAddress:         token.PairAddress,
			Chain:               token.Chain,
			TokenSymbol:         token.TokenSymbol,
			Threshold:           f.Threshold,
			TriggerPriceUSD:     token.CurrentPriceUSD,
			PeakPriceUSD:        token.PeakPriceUSD,
			DropFromPeakPercent: f.DrawdownPct,
			Severity:            f.Severity,
			Message: fmt.Sprintf("🚨 %s 从峰值 $%.8f 回撤 %.2f%%，跌破 %.0f%% 阈值，现价 $%.8f",
				token.TokenSymbol, token.PeakPriceUSD, f.DrawdownPct, f.Threshold, token.CurrentPriceUSD),
			TriggeredAt: now,
		})
		token.FiredThresholds = append(token.FiredThresholds, f.Threshold)
	}
	if len(firings) > 0 && token.Status == models.StatusActive {
		token.Status = models.StatusAlerted
	}

	removed, reason := s.belowFloor(detail)
	if removed {
		r := reason
		token.RemovalReason = &r
		token.Status = models.StatusStopped
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for i := range alerts {
			if err := tx.Create(&alerts[i]).Error; err != nil {
				return err
			}
		}
		if err := tx.Save(token).Error; err != nil {
			return err
		}
		if removed {
			return tx.Delete(token).Error // 软删除，可恢复
		}
		return nil
	})
	if err != nil {
		return 0, false, err
	}

	for _, f := range firings {
		s.logger.Printf("  🚨 [%s] %s 触发 %.0f%% 阈值 (回撤 %.2f%%, 峰值 $%.8f → 现价 $%.8f)",
			f.Severity, token.TokenSymbol, f.Threshold, f.DrawdownPct,
			token.PeakPriceUSD, token.CurrentPriceUSD)
		if s.notifier != nil {
			_ = s.notifier.Notify(ctx, notify.AlertEvent{
				PairAddress:  token.PairAddress,
				Chain:        token.Chain,
				TokenSymbol:  token.TokenSymbol,
				Threshold:    f.Threshold,
				DrawdownPct:  f.DrawdownPct,
				PriceUSD:     token.CurrentPriceUSD,
				PeakPriceUSD: token.PeakPriceUSD,
				Severity:     f.Severity,
				Message:      alertMessage(token, f),
				FiredAt:      now,
			})
		}
	}
	if removed {
		s.logger.Printf("  🗑️ %s(%s) 跌破监控底线被移除: %s",
			token.TokenSymbol, token.PairAddress, reason)
	}

	return len(firings), removed, nil
}

// belowFloor 判断代币是否跌破监控底线。数据缺失不算跌破。
func (s *Service) belowFloor(detail *dexscreener.PairDetail) (bool, string) {
	if s.opts.MinMarketCap != nil && detail.MarketCap != nil && *detail.MarketCap < *s.opts.MinMarketCap {
		return true, RemovalLowMarketCap
	}
	if s.opts.MinLiquidity != nil && detail.LiquidityUSD != nil && *detail.LiquidityUSD < *s.opts.MinLiquidity {
		return true, RemovalLowLiquidity
	}
	return false, ""
}

func alertMessage(token *models.MonitoredToken, f Firing) string {
	return fmt.Sprintf("🚨 价格报警 [%s]\n代币: %s (%s)\n跌破阈值: %.0f%%\n实际回撤: %.2f%%\n峰值: $%.8f\n现价: $%.8f",
		f.Severity, token.TokenSymbol, token.Chain, f.Threshold, f.DrawdownPct,
		token.PeakPriceUSD, token.CurrentPriceUSD)
}
