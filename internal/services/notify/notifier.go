package notify

import (
	"context"
	"log"
	"time"
)

// AlertEvent 发给外部通知通道的报警事件
type AlertEvent struct {
	PairAddress  string    `json:"pair_address"`
	Chain        string    `json:"chain"`
	TokenSymbol  string    `json:"token_symbol"`
	Threshold    float64   `json:"threshold"`
	DrawdownPct  float64   `json:"drawdown_pct"`
	PriceUSD     float64   `json:"price_usd"`
	PeakPriceUSD float64   `json:"peak_price_usd"`
	Severity     string    `json:"severity"`
	Message      string    `json:"message"`
	FiredAt      time.Time `json:"fired_at"`
}

// Notifier 报警分发通道
type Notifier interface {
	Notify(ctx context.Context, event AlertEvent) error
}

// Fanout 把一个事件广播到多个通道。
// 单个通道失败只记日志，报警本身已经落库，不因通知失败回滚。
type Fanout []Notifier

func (f Fanout) Notify(ctx context.Context, event AlertEvent) error {
	for _, n := range f {
		if err := n.Notify(ctx, event); err != nil {
			log.Printf("⚠️ 报警通知发送失败 (%T): %v", n, err)
		}
	}
	return nil
}
