package monitor

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"dex-radar/internal/database"
	"dex-radar/internal/models"
	"dex-radar/internal/services/dexscreener"
	"dex-radar/internal/services/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

type fakePriceSource struct {
	prices map[string]float64 // pair → 当前价格
	mcap   map[string]float64
	liq    map[string]float64
	errs   map[string]error
}

func (f *fakePriceSource) GetPairDetail(ctx context.Context, chain, pair string) (*dexscreener.PairDetail, error) {
	if err := f.errs[pair]; err != nil {
		return nil, err
	}
	price, ok := f.prices[pair]
	if !ok {
		return nil, errors.New("no pair data")
	}
	detail := &dexscreener.PairDetail{
		PairAddress: pair,
		TokenSymbol: "CAT",
		TokenName:   "CatCoin",
		PriceUSD:    price,
	}
	if v, ok := f.mcap[pair]; ok {
		detail.MarketCap = &v
	}
	if v, ok := f.liq[pair]; ok {
		detail.LiquidityUSD = &v
	}
	return detail, nil
}

type recordingNotifier struct {
	events []notify.AlertEvent
}

func (r *recordingNotifier) Notify(ctx context.Context, event notify.AlertEvent) error {
	r.events = append(r.events, event)
	return nil
}

func seedToken(t *testing.T, db *gorm.DB, pair string, peak float64) *models.MonitoredToken {
	t.Helper()
	token := &models.MonitoredToken{
		Chain:           models.ChainBSC,
		PairAddress:     pair,
		TokenSymbol:     "CAT",
		EntryPriceUSD:   peak,
		PeakPriceUSD:    peak,
		CurrentPriceUSD: peak,
		AlertThresholds: models.ThresholdList{20, 30, 40, 50},
		FiredThresholds: models.ThresholdList{},
		Status:          models.StatusActive,
		EntryTimestamp:  time.Now().UTC(),
	}
	require.NoError(t, db.Create(token).Error)
	return token
}

func TestPoll_FiresThresholdAndMarksAlerted(t *testing.T) {
	db := setupTestDB(t)
	seedToken(t, db, "0xaaa", 1.00)

	source := &fakePriceSource{prices: map[string]float64{"0xaaa": 0.80}}
	rec := &recordingNotifier{}
	svc := NewService(db, source, rec, Options{}, nil)

	summary, err := svc.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.AlertsTriggered)

	var token models.MonitoredToken
	require.NoError(t, db.First(&token).Error)
	assert.Equal(t, models.StatusAlerted, token.Status)
	assert.Equal(t, models.ThresholdList{20}, token.FiredThresholds)
	assert.InDelta(t, 0.80, token.CurrentPriceUSD, 1e-9)
	assert.InDelta(t, 1.00, token.PeakPriceUSD, 1e-9) // 峰值不动

	var alerts []models.PriceAlert
	require.NoError(t, db.Find(&alerts).Error)
	require.Len(t, alerts, 1)
	assert.InDelta(t, 20, alerts[0].Threshold, 1e-9)
	assert.InDelta(t, 20, alerts[0].DropFromPeakPercent, 1e-9)
	assert.Equal(t, SeverityLow, alerts[0].Severity)

	require.Len(t, rec.events, 1)
	assert.InDelta(t, 20, rec.events[0].Threshold, 1e-9)
}

func TestPoll_MultiFireInOnePoll(t *testing.T) {
	db := setupTestDB(t)
	seedToken(t, db, "0xaaa", 1.00)

	// 一次轮询直接跌 45%：20 和 30 和 40 同时触发
	source := &fakePriceSource{prices: map[string]float64{"0xaaa": 0.55}}
	svc := NewService(db, source, nil, Options{}, nil)

	summary, err := svc.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, summary.AlertsTriggered)

	var token models.MonitoredToken
	require.NoError(t, db.First(&token).Error)
	assert.Equal(t, models.ThresholdList{20, 30, 40}, token.FiredThresholds)

	var alerts []models.PriceAlert
	require.NoError(t, db.Order("threshold ASC").Find(&alerts).Error)
	require.Len(t, alerts, 3)
	for _, a := range alerts {
		assert.Equal(t, SeverityMedium, a.Severity) // 级别按实际回撤 45%
	}
}

func TestPoll_SequentialDropsFireRemainingThresholds(t *testing.T) {
	db := setupTestDB(t)
	seedToken(t, db, "0xaaa", 1.00)

	source := &fakePriceSource{prices: map[string]float64{"0xaaa": 0.80}}
	svc := NewService(db, source, nil, Options{}, nil)

	// 第一轮跌 20%：只触发 20
	_, err := svc.Poll(context.Background())
	require.NoError(t, err)

	// 第二轮跌到 0.60（回撤 40%）：30 和 40 在同一轮按升序触发，20 不重复
	source.prices["0xaaa"] = 0.60
	summary, err := svc.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.AlertsTriggered)

	var token models.MonitoredToken
	require.NoError(t, db.First(&token).Error)
	assert.Equal(t, models.ThresholdList{20, 30, 40}, token.FiredThresholds)
	assert.Equal(t, models.StatusAlerted, token.Status)
}

func TestPoll_PeakRatchetAndNoRefire(t *testing.T) {
	db := setupTestDB(t)
	seedToken(t, db, "0xaaa", 1.00)

	source := &fakePriceSource{prices: map[string]float64{"0xaaa": 0.80}}
	svc := NewService(db, source, nil, Options{}, nil)

	// 第一轮：触发 20
	_, err := svc.Poll(context.Background())
	require.NoError(t, err)

	// 第二轮：价格创新高，峰值棘轮上移
	source.prices["0xaaa"] = 1.20
	_, err = svc.Poll(context.Background())
	require.NoError(t, err)

	var token models.MonitoredToken
	require.NoError(t, db.First(&token).Error)
	assert.InDelta(t, 1.20, token.PeakPriceUSD, 1e-9)

	// 第三轮：从新峰值回撤 25%，但 20 已触发过，终生不再重复
	source.prices["0xaaa"] = 0.90
	summary, err := svc.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.AlertsTriggered)

	require.NoError(t, db.First(&token).Error)
	assert.Equal(t, models.ThresholdList{20}, token.FiredThresholds)
	assert.Equal(t, models.StatusAlerted, token.Status)

	var count int64
	db.Model(&models.PriceAlert{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestPoll_FetchFailureIsIsolated(t *testing.T) {
	db := setupTestDB(t)
	seedToken(t, db, "0xaaa", 1.00)
	seedToken(t, db, "0xbbb", 2.00)

	source := &fakePriceSource{
		prices: map[string]float64{"0xbbb": 1.50},
		errs:   map[string]error{"0xaaa": errors.New("timeout")},
	}
	svc := NewService(db, source, nil, Options{}, nil)

	summary, err := svc.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Updated)

	// 失败的代币状态原样保留，下轮重试
	var token models.MonitoredToken
	require.NoError(t, db.Where("pair_address = ?", "0xaaa").First(&token).Error)
	assert.Equal(t, models.StatusActive, token.Status)
	assert.InDelta(t, 1.00, token.CurrentPriceUSD, 1e-9)
}

func TestPoll_SkipsStoppedTokens(t *testing.T) {
	db := setupTestDB(t)
	token := seedToken(t, db, "0xaaa", 1.00)
	require.NoError(t, db.Model(token).Update("status", models.StatusStopped).Error)

	source := &fakePriceSource{prices: map[string]float64{"0xaaa": 0.10}}
	svc := NewService(db, source, nil, Options{}, nil)

	summary, err := svc.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Total)

	var count int64
	db.Model(&models.PriceAlert{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestPoll_AutoRemovalBelowFloor(t *testing.T) {
	db := setupTestDB(t)
	seedToken(t, db, "0xaaa", 1.00)

	minMcap := 100_000.0
	source := &fakePriceSource{
		prices: map[string]float64{"0xaaa": 0.95},
		mcap:   map[string]float64{"0xaaa": 50_000},
	}
	svc := NewService(db, source, nil, Options{MinMarketCap: &minMcap}, nil)

	summary, err := svc.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Removed)

	// 软删除 + 移除原因，默认查询不可见
	var count int64
	db.Model(&models.MonitoredToken{}).Count(&count)
	assert.Equal(t, int64(0), count)

	var token models.MonitoredToken
	require.NoError(t, db.Unscoped().First(&token).Error)
	assert.Equal(t, models.StatusStopped, token.Status)
	require.NotNil(t, token.RemovalReason)
	assert.Equal(t, RemovalLowMarketCap, *token.RemovalReason)
}

func TestPoll_FloorIgnoredWhenDataMissing(t *testing.T) {
	db := setupTestDB(t)
	seedToken(t, db, "0xaaa", 1.00)

	minLiq := 10_000.0
	source := &fakePriceSource{prices: map[string]float64{"0xaaa": 0.95}} // 无流动性数据
	svc := NewService(db, source, nil, Options{MinLiquidity: &minLiq}, nil)

	summary, err := svc.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Removed)
}
