package monitor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"dex-radar/internal/models"

	"gorm.io/gorm"
)

var (
	ErrAlreadyMonitored = errors.New("pair is already being monitored")
	ErrNotFound         = errors.New("monitored token not found")
)

// AddFromPotential 把一个潜力代币提升到监控表。
// 入场价取实时价格（爬取快照可能已经过期），峰值从入场价起步。
// thresholds 为空时使用调用方传入的默认梯子。
func (s *Service) AddFromPotential(ctx context.Context, potentialID string, thresholds []float64) (*models.MonitoredToken, error) {
	var pt models.PotentialToken
	if err := s.db.Where("id = ?", potentialID).First(&pt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("potential token %s not found", potentialID)
		}
		return nil, err
	}

	token, err := s.AddByPair(ctx, pt.Chain, pt.PairAddress, thresholds)
	if err != nil {
		return nil, err
	}
	token.DexType = pt.DexType

	pt.IsAddedToMonitoring = 1
	if err := s.db.Model(&pt).Updates(map[string]interface{}{
		"is_added_to_monitoring": 1,
	}).Error; err != nil {
		s.logger.Printf("⚠️ 标记潜力代币 %s 已入监控失败: %v", pt.ID, err)
	}
	if err := s.db.Save(token).Error; err != nil {
		return nil, err
	}
	return token, nil
}

// AddByPair 直接按 (chain, pair) 添加监控
func (s *Service) AddByPair(ctx context.Context, chain, pairAddress string, thresholds []float64) (*models.MonitoredToken, error) {
	var existing models.MonitoredToken
	err := s.db.Where("pair_address = ? AND chain = ?", pairAddress, chain).First(&existing).Error
	if err == nil {
		return nil, ErrAlreadyMonitored
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	detail, err := s.source.GetPairDetail(ctx, chain, pairAddress)
	if err != nil {
		return nil, fmt.Errorf("fetch entry price for %s: %w", pairAddress, err)
	}

	ladder := make(models.ThresholdList, len(thresholds))
	copy(ladder, thresholds)
	sort.Float64s(ladder)

	now := time.Now().UTC()
	token := models.MonitoredToken{
		Chain:            chain,
		PairAddress:      pairAddress,
		TokenSymbol:      detail.TokenSymbol,
		TokenName:        detail.TokenName,
		EntryPriceUSD:    detail.PriceUSD,
		PeakPriceUSD:     detail.PriceUSD,
		CurrentPriceUSD:  detail.PriceUSD,
		CurrentMarketCap: detail.MarketCap,
		CurrentLiquidity: detail.LiquidityUSD,
		CurrentVolume24h: detail.Volume24h,
		AlertThresholds:  ladder,
		FiredThresholds:  models.ThresholdList{},
		Status:           models.StatusActive,
		EntryTimestamp:   now,
	}
	if err := s.db.Create(&token).Error; err != nil {
		return nil, fmt.Errorf("create monitored token %s: %w", pairAddress, err)
	}

	s.logger.Printf("✅ 开始监控 %s(%s) 入场价 $%.8f 阈值 %v",
		token.TokenSymbol, pairAddress, token.EntryPriceUSD, ladder)
	return &token, nil
}

// Stop 操作员终止监控，轮询不再覆盖该代币
func (s *Service) Stop(id string) error {
	res := s.db.Model(&models.MonitoredToken{}).
		Where("id = ?", id).
		Update("status", models.StatusStopped)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Restore 恢复被软删除（自动移除）的代币，重新进入轮询。
// 峰值和已触发阈值原样保留：恢复不是重置。
func (s *Service) Restore(id string) error {
	var token models.MonitoredToken
	if err := s.db.Unscoped().Where("id = ?", id).First(&token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return s.db.Unscoped().Model(&token).Updates(map[string]interface{}{
		"deleted_at":     nil,
		"removal_reason": nil,
		"status":         models.StatusActive,
	}).Error
}
