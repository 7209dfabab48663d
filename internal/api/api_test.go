package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"dex-radar/internal/database"
	"dex-radar/internal/models"
	"dex-radar/internal/services/dexscreener"
	"dex-radar/internal/services/monitor"
	"dex-radar/internal/services/scrape"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type stubSource struct {
	price float64
}

func (s *stubSource) FetchListingRows(ctx context.Context, chain string, limit int) ([]dexscreener.RawRow, error) {
	return nil, nil
}

func (s *stubSource) CorrectCaseAddress(ctx context.Context, chain, pair string) string {
	return pair
}

func (s *stubSource) GetPairDetail(ctx context.Context, chain, pair string) (*dexscreener.PairDetail, error) {
	return &dexscreener.PairDetail{
		PairAddress: pair,
		TokenSymbol: "CAT",
		PriceUSD:    s.price,
	}, nil
}

func setupTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	source := &stubSource{price: 0.5}
	scrapeSvc := scrape.NewService(db, source, scrape.DefaultOptions(), nil)
	monitorSvc := monitor.NewService(db, source, nil, monitor.Options{}, nil)

	r := gin.New()
	SetupRoutes(r.Group("/api/v1"), db, scrapeSvc, monitorSvc, NewAlertHub(), []float64{20, 30, 40})
	return r, db
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func seedPotential(t *testing.T, db *gorm.DB, pair, chain string, change24h float64) *models.PotentialToken {
	t.Helper()
	pt := &models.PotentialToken{
		Chain:                  chain,
		PairAddress:            pair,
		TokenSymbol:            "CAT",
		ScrapedPriceUSD:        0.0123,
		ScrapedTimestamp:       time.Now().UTC(),
		PriceChange24hAtScrape: change24h,
	}
	require.NoError(t, db.Create(pt).Error)
	return pt
}

func TestListPotentialTokens(t *testing.T) {
	r, db := setupTestRouter(t)
	seedPotential(t, db, "0xaaa", models.ChainBSC, 150)
	seedPotential(t, db, "solpair", models.ChainSolana, 300)

	w := doRequest(r, "GET", "/api/v1/potential", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Total  int                     `json:"total"`
		Tokens []models.PotentialToken `json:"tokens"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Total)
	// 按24h涨幅降序
	assert.Equal(t, "solpair", resp.Tokens[0].PairAddress)

	w = doRequest(r, "GET", "/api/v1/potential?chain=bsc", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
}

func TestDeleteAndRestorePotentialToken(t *testing.T) {
	r, db := setupTestRouter(t)
	pt := seedPotential(t, db, "0xaaa", models.ChainBSC, 150)

	w := doRequest(r, "DELETE", "/api/v1/potential/"+pt.ID, "")
	assert.Equal(t, http.StatusOK, w.Code)

	var count int64
	db.Model(&models.PotentialToken{}).Count(&count)
	assert.Equal(t, int64(0), count) // 软删除后默认不可见

	w = doRequest(r, "POST", "/api/v1/potential/"+pt.ID+"/restore", "")
	assert.Equal(t, http.StatusOK, w.Code)

	db.Model(&models.PotentialToken{}).Count(&count)
	assert.Equal(t, int64(1), count)

	// 物理删除后恢复不了
	w = doRequest(r, "DELETE", "/api/v1/potential/"+pt.ID+"?permanent=true", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var total int64
	db.Unscoped().Model(&models.PotentialToken{}).Count(&total)
	assert.Equal(t, int64(0), total)
}

func TestDeletePotentialToken_NotFound(t *testing.T) {
	r, _ := setupTestRouter(t)
	w := doRequest(r, "DELETE", "/api/v1/potential/missing-id", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPromoteToMonitoring(t *testing.T) {
	r, db := setupTestRouter(t)
	pt := seedPotential(t, db, "0xaaa", models.ChainBSC, 150)

	w := doRequest(r, "POST", "/api/v1/potential/"+pt.ID+"/monitor", `{"thresholds":[25,50]}`)
	require.Equal(t, http.StatusOK, w.Code)

	var token models.MonitoredToken
	require.NoError(t, db.First(&token).Error)
	assert.Equal(t, "0xaaa", token.PairAddress)
	assert.InDelta(t, 0.5, token.EntryPriceUSD, 1e-9) // 入场价取实时价
	assert.Equal(t, models.ThresholdList{25, 50}, token.AlertThresholds)

	// 重复提升冲突
	w = doRequest(r, "POST", "/api/v1/potential/"+pt.ID+"/monitor", "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAddMonitoredToken_DefaultThresholds(t *testing.T) {
	r, db := setupTestRouter(t)

	w := doRequest(r, "POST", "/api/v1/monitored", `{"chain":"bsc","pair_address":"0xbbb"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var token models.MonitoredToken
	require.NoError(t, db.First(&token).Error)
	assert.Equal(t, models.ThresholdList{20, 30, 40}, token.AlertThresholds)

	// 缺字段拒绝
	w = doRequest(r, "POST", "/api/v1/monitored", `{"chain":"bsc"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAlertsListAndAck(t *testing.T) {
	r, db := setupTestRouter(t)
	alert := &models.PriceAlert{
		MonitoredTokenID: "tok-1",
		PairAddress:      "0xaaa",
		Chain:            models.ChainBSC,
		TokenSymbol:      "CAT",
		Threshold:        20,
		Severity:         "low",
		TriggeredAt:      time.Now().UTC(),
	}
	require.NoError(t, db.Create(alert).Error)

	w := doRequest(r, "GET", "/api/v1/alerts?unacknowledged=true", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)

	w = doRequest(r, "POST", "/api/v1/alerts/"+alert.ID+"/ack", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(r, "GET", "/api/v1/alerts?unacknowledged=true", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Total)
}

func TestStopAndRestoreMonitored(t *testing.T) {
	r, db := setupTestRouter(t)

	w := doRequest(r, "POST", "/api/v1/monitored", `{"chain":"bsc","pair_address":"0xccc"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var token models.MonitoredToken
	require.NoError(t, db.First(&token).Error)

	w = doRequest(r, "POST", "/api/v1/monitored/"+token.ID+"/stop", "")
	assert.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, db.First(&token).Error)
	assert.Equal(t, models.StatusStopped, token.Status)

	w = doRequest(r, "POST", "/api/v1/monitored/"+token.ID+"/restore", "")
	assert.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, db.First(&token).Error)
	assert.Equal(t, models.StatusActive, token.Status)
}
