package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Chain 链标识
const (
	ChainBSC    = "bsc"
	ChainSolana = "solana"
)

// MonitoredToken 状态
const (
	StatusActive  = "active"  // 正常监控中
	StatusAlerted = "alerted" // 已触发过报警，继续监控（可能触发更高阈值）
	StatusStopped = "stopped" // 操作员终止，不再轮询
)

// ThresholdList 阈值列表，存储为 JSON 列
type ThresholdList []float64

func (t ThresholdList) Value() (driver.Value, error) {
	if t == nil {
		return "[]", nil
	}
	b, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (t *ThresholdList) Scan(value interface{}) error {
	if value == nil {
		*t = ThresholdList{}
		return nil
	}
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into ThresholdList", value)
	}
	if len(b) == 0 {
		*t = ThresholdList{}
		return nil
	}
	return json.Unmarshal(b, t)
}

// Contains reports whether v is present in the list.
func (t ThresholdList) Contains(v float64) bool {
	for _, x := range t {
		if x == v {
			return true
		}
	}
	return false
}

// PotentialToken 爬虫产出的潜力代币（高水位账本）
// 每个 (pair_address, chain) 只保留一行，记录该代币观察到的最高24h涨幅
// 及当时的快照字段，而不是最近一次爬取的状态。
type PotentialToken struct {
	ID      string `json:"id" gorm:"primaryKey;size:36"`
	Chain   string `json:"chain" gorm:"size:16;not null;uniqueIndex:idx_pt_pair_chain,priority:2"`
	DexID   string `json:"dex_id" gorm:"size:32"`
	DexType string `json:"dex_type,omitempty" gorm:"size:16"` // 仅 Solana: CPMM/CLMM/DLMM/...

	PairAddress     string `json:"pair_address" gorm:"size:64;not null;uniqueIndex:idx_pt_pair_chain,priority:1"`
	TokenAddress    string `json:"token_address" gorm:"size:64"`
	TokenSymbol     string `json:"token_symbol" gorm:"size:64"`
	TokenName       string `json:"token_name" gorm:"size:128"`
	BaseTokenSymbol string `json:"base_token_symbol" gorm:"size:32"` // 配对币符号（WBNB/SOL）

	AgeRaw  string  `json:"age_raw" gorm:"size:16"` // 页面原始年龄（如 17h、3mo）
	AgeDays float64 `json:"age_days"`

	ScrapedPriceUSD        float64   `json:"scraped_price_usd"`
	ScrapedTimestamp       time.Time `json:"scraped_timestamp"`
	MarketCapAtScrape      *float64  `json:"market_cap_at_scrape"`
	LiquidityAtScrape      *float64  `json:"liquidity_at_scrape"`
	Volume24hAtScrape      *float64  `json:"volume_24h_at_scrape"`
	PriceChange5m          *float64  `json:"price_change_5m"` // 5m 可能合法缺失（三段布局）
	PriceChange1h          *float64  `json:"price_change_1h"`
	PriceChange6h          *float64  `json:"price_change_6h"`
	PriceChange24hAtScrape float64   `json:"price_change_24h_at_scrape"` // 高水位比较键

	IsAddedToMonitoring int `json:"is_added_to_monitoring" gorm:"default:0"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (p *PotentialToken) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// MonitoredToken 监控中的代币
// peak_price_usd 在整个监控生命周期内单调不减；fired_thresholds 只增不减，
// 只有操作员可以重置。
type MonitoredToken struct {
	ID          string `json:"id" gorm:"primaryKey;size:36"`
	Chain       string `json:"chain" gorm:"size:16;not null;uniqueIndex:idx_mt_pair_chain,priority:2"`
	PairAddress string `json:"pair_address" gorm:"size:64;not null;uniqueIndex:idx_mt_pair_chain,priority:1"`
	TokenSymbol string `json:"token_symbol" gorm:"size:64"`
	TokenName   string `json:"token_name" gorm:"size:128"`
	DexType     string `json:"dex_type,omitempty" gorm:"size:16"`

	EntryPriceUSD   float64 `json:"entry_price_usd"` // 创建时写入，之后不变
	PeakPriceUSD    float64 `json:"peak_price_usd"`
	CurrentPriceUSD float64 `json:"current_price_usd"`

	CurrentMarketCap *float64 `json:"current_market_cap"`
	CurrentLiquidity *float64 `json:"current_liquidity"`
	CurrentVolume24h *float64 `json:"current_volume_24h"`

	AlertThresholds ThresholdList `json:"alert_thresholds" gorm:"type:json"` // 升序跌幅阈值
	FiredThresholds ThresholdList `json:"fired_thresholds" gorm:"type:json"` // 已触发的阈值子集

	Status string `json:"status" gorm:"size:16;default:'active'"`

	EntryTimestamp      time.Time  `json:"entry_timestamp"`
	PeakTimestamp       *time.Time `json:"peak_timestamp"`
	LastUpdateTimestamp *time.Time `json:"last_update_timestamp"`

	// 低于监控底线被自动移除时的原因（low_market_cap / low_liquidity）
	RemovalReason *string `json:"removal_reason,omitempty" gorm:"size:32"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (m *MonitoredToken) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

// PriceAlert 价格跌幅报警记录，每个 (token, threshold) 终生只产生一条
type PriceAlert struct {
	ID               string `json:"id" gorm:"primaryKey;size:36"`
	MonitoredTokenID string `json:"monitored_token_id" gorm:"size:36;index;not null"`
	PairAddress      string `json:"pair_address" gorm:"size:64;index"`
	Chain            string `json:"chain" gorm:"size:16"`
	TokenSymbol      string `json:"token_symbol" gorm:"size:64"`

	Threshold           float64 `json:"threshold"`              // 触发的阈值（跌幅百分比）
	TriggerPriceUSD     float64 `json:"trigger_price_usd"`      // 触发时价格
	PeakPriceUSD        float64 `json:"peak_price_usd"`         // 触发时的峰值价格
	DropFromPeakPercent float64 `json:"drop_from_peak_percent"` // 实际跌幅
	Severity            string  `json:"severity" gorm:"size:16"`
	Message             string  `json:"message" gorm:"size:512"`

	TriggeredAt  time.Time `json:"triggered_at"`
	Acknowledged int       `json:"acknowledged" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at"`
}

func (a *PriceAlert) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}
