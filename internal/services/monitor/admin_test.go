package monitor

import (
	"context"
	"testing"
	"time"

	"dex-radar/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestAddByPair(t *testing.T) {
	db := setupTestDB(t)
	source := &fakePriceSource{prices: map[string]float64{"0xaaa": 0.5}}
	svc := NewService(db, source, nil, Options{}, nil)

	token, err := svc.AddByPair(context.Background(), models.ChainBSC, "0xaaa", []float64{50, 20, 30})
	require.NoError(t, err)

	// 入场价=峰值=现价，阈值按升序存储
	assert.InDelta(t, 0.5, token.EntryPriceUSD, 1e-9)
	assert.InDelta(t, 0.5, token.PeakPriceUSD, 1e-9)
	assert.InDelta(t, 0.5, token.CurrentPriceUSD, 1e-9)
	assert.Equal(t, models.ThresholdList{20, 30, 50}, token.AlertThresholds)
	assert.Equal(t, models.StatusActive, token.Status)

	// 重复添加同一 pair 拒绝
	_, err = svc.AddByPair(context.Background(), models.ChainBSC, "0xaaa", []float64{20})
	assert.ErrorIs(t, err, ErrAlreadyMonitored)
}

func TestAddFromPotential(t *testing.T) {
	db := setupTestDB(t)
	pt := &models.PotentialToken{
		Chain:                  models.ChainBSC,
		PairAddress:            "0xaaa",
		TokenSymbol:            "CAT",
		DexType:                "",
		ScrapedPriceUSD:        0.3, // 快照价已过期，入场价应取实时价
		ScrapedTimestamp:       time.Now().UTC(),
		PriceChange24hAtScrape: 150,
	}
	require.NoError(t, db.Create(pt).Error)

	source := &fakePriceSource{prices: map[string]float64{"0xaaa": 0.5}}
	svc := NewService(db, source, nil, Options{}, nil)

	token, err := svc.AddFromPotential(context.Background(), pt.ID, []float64{20, 30})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, token.EntryPriceUSD, 1e-9)

	var saved models.PotentialToken
	require.NoError(t, db.First(&saved, "id = ?", pt.ID).Error)
	assert.Equal(t, 1, saved.IsAddedToMonitoring)
}

func TestStopAndRestore(t *testing.T) {
	db := setupTestDB(t)
	token := seedToken(t, db, "0xaaa", 1.00)

	require.NoError(t, svcForDB(db).Stop(token.ID))

	var saved models.MonitoredToken
	require.NoError(t, db.First(&saved).Error)
	assert.Equal(t, models.StatusStopped, saved.Status)

	assert.ErrorIs(t, svcForDB(db).Stop("missing-id"), ErrNotFound)
}

func TestRestore_AfterAutoRemoval(t *testing.T) {
	db := setupTestDB(t)
	token := seedToken(t, db, "0xaaa", 1.00)
	token.FiredThresholds = models.ThresholdList{20}
	require.NoError(t, db.Save(token).Error)

	reason := RemovalLowLiquidity
	require.NoError(t, db.Model(token).Updates(map[string]interface{}{
		"status":         models.StatusStopped,
		"removal_reason": reason,
	}).Error)
	require.NoError(t, db.Delete(token).Error)

	svc := svcForDB(db)
	require.NoError(t, svc.Restore(token.ID))

	var saved models.MonitoredToken
	require.NoError(t, db.First(&saved).Error) // 默认作用域可见了
	assert.Equal(t, models.StatusActive, saved.Status)
	assert.Nil(t, saved.RemovalReason)
	// 恢复不重置已触发的阈值
	assert.Equal(t, models.ThresholdList{20}, saved.FiredThresholds)

	assert.ErrorIs(t, svc.Restore("missing-id"), ErrNotFound)
}

func svcForDB(db *gorm.DB) *Service {
	return NewService(db, &fakePriceSource{}, nil, Options{}, nil)
}
