package api

import (
	"errors"
	"net/http"
	"strconv"

	"dex-radar/internal/models"
	"dex-radar/internal/services/monitor"
	"dex-radar/internal/services/scrape"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type APIHandler struct {
	db      *gorm.DB
	scrape  *scrape.Service
	monitor *monitor.Service
	hub     *AlertHub

	// 未显式传阈值时使用的默认报警梯子
	defaultThresholds []float64
}

func SetupRoutes(r *gin.RouterGroup, db *gorm.DB, scrapeSvc *scrape.Service, monitorSvc *monitor.Service, hub *AlertHub, defaultThresholds []float64) *APIHandler {
	handler := &APIHandler{
		db:                db,
		scrape:            scrapeSvc,
		monitor:           monitorSvc,
		hub:               hub,
		defaultThresholds: defaultThresholds,
	}

	// 潜力代币（爬虫产出）
	potential := r.Group("/potential")
	{
		potential.GET("", handler.ListPotentialTokens)
		potential.DELETE("/:id", handler.DeletePotentialToken)
		potential.POST("/:id/restore", handler.RestorePotentialToken)
		potential.POST("/:id/monitor", handler.PromoteToMonitoring)
	}

	// 监控中的代币
	monitored := r.Group("/monitored")
	{
		monitored.GET("", handler.ListMonitoredTokens)
		monitored.POST("", handler.AddMonitoredToken)
		monitored.POST("/:id/stop", handler.StopMonitoredToken)
		monitored.POST("/:id/restore", handler.RestoreMonitoredToken)
	}

	// 报警记录
	alerts := r.Group("/alerts")
	{
		alerts.GET("", handler.ListAlerts)
		alerts.POST("/:id/ack", handler.AcknowledgeAlert)
	}

	// 手动触发
	r.POST("/scrape/run", handler.TriggerScrape)
	r.POST("/monitor/poll", handler.TriggerPoll)

	// 导出
	r.GET("/export/potential.xlsx", handler.ExportPotentialTokens)

	// 报警实时推送
	r.GET("/ws/alerts", handler.AlertWebSocket)

	return handler
}

func (h *APIHandler) ListPotentialTokens(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	q := h.db.Model(&models.PotentialToken{}).
		Order("price_change_24h_at_scrape DESC").
		Limit(limit)
	if chain := c.Query("chain"); chain != "" {
		q = q.Where("chain = ?", chain)
	}
	if c.Query("include_deleted") == "true" {
		q = q.Unscoped().Where("deleted_at IS NOT NULL")
	}

	var tokens []models.PotentialToken
	if err := q.Find(&tokens).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": len(tokens), "tokens": tokens})
}

// DeletePotentialToken 默认软删除（可通过 restore 恢复）；
// ?permanent=true 物理删除，不可恢复
func (h *APIHandler) DeletePotentialToken(c *gin.Context) {
	q := h.db
	if c.Query("permanent") == "true" {
		q = q.Unscoped()
	}
	res := q.Where("id = ?", c.Param("id")).Delete(&models.PotentialToken{})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": res.Error.Error()})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "potential token not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

func (h *APIHandler) RestorePotentialToken(c *gin.Context) {
	res := h.db.Unscoped().Model(&models.PotentialToken{}).
		Where("id = ?", c.Param("id")).
		Update("deleted_at", nil)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": res.Error.Error()})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "potential token not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "restored"})
}

type promoteRequest struct {
	Thresholds []float64 `json:"thresholds"`
}

// PromoteToMonitoring 把潜力代币提升到监控表，入场价取实时价格
func (h *APIHandler) PromoteToMonitoring(c *gin.Context) {
	var req promoteRequest
	_ = c.ShouldBindJSON(&req) // body 可选
	thresholds := req.Thresholds
	if len(thresholds) == 0 {
		thresholds = h.defaultThresholds
	}

	token, err := h.monitor.AddFromPotential(c.Request.Context(), c.Param("id"), thresholds)
	if err != nil {
		if errors.Is(err, monitor.ErrAlreadyMonitored) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "monitoring started", "token": token})
}

func (h *APIHandler) ListMonitoredTokens(c *gin.Context) {
	q := h.db.Model(&models.MonitoredToken{}).Order("entry_timestamp DESC")
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if c.Query("include_removed") == "true" {
		q = q.Unscoped()
	}

	var tokens []models.MonitoredToken
	if err := q.Find(&tokens).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": len(tokens), "tokens": tokens})
}

type addMonitoredRequest struct {
	Chain       string    `json:"chain" binding:"required"`
	PairAddress string    `json:"pair_address" binding:"required"`
	Thresholds  []float64 `json:"thresholds"`
}

func (h *APIHandler) AddMonitoredToken(c *gin.Context) {
	var req addMonitoredRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	thresholds := req.Thresholds
	if len(thresholds) == 0 {
		thresholds = h.defaultThresholds
	}

	token, err := h.monitor.AddByPair(c.Request.Context(), req.Chain, req.PairAddress, thresholds)
	if err != nil {
		if errors.Is(err, monitor.ErrAlreadyMonitored) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "monitoring started", "token": token})
}

func (h *APIHandler) StopMonitoredToken(c *gin.Context) {
	if err := h.monitor.Stop(c.Param("id")); err != nil {
		if errors.Is(err, monitor.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "monitoring stopped"})
}

func (h *APIHandler) RestoreMonitoredToken(c *gin.Context) {
	if err := h.monitor.Restore(c.Param("id")); err != nil {
		if errors.Is(err, monitor.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "monitoring restored"})
}

func (h *APIHandler) ListAlerts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	q := h.db.Model(&models.PriceAlert{}).Order("triggered_at DESC").Limit(limit)
	if severity := c.Query("severity"); severity != "" {
		q = q.Where("severity = ?", severity)
	}
	if tokenID := c.Query("token_id"); tokenID != "" {
		q = q.Where("monitored_token_id = ?", tokenID)
	}
	if c.Query("unacknowledged") == "true" {
		q = q.Where("acknowledged = 0")
	}

	var alerts []models.PriceAlert
	if err := q.Find(&alerts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": len(alerts), "alerts": alerts})
}

func (h *APIHandler) AcknowledgeAlert(c *gin.Context) {
	res := h.db.Model(&models.PriceAlert{}).
		Where("id = ?", c.Param("id")).
		Update("acknowledged", 1)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": res.Error.Error()})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "alert not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "acknowledged"})
}

// TriggerScrape 手动跑一轮爬取（正常由调度器驱动）
func (h *APIHandler) TriggerScrape(c *gin.Context) {
	summaries, err := h.scrape.Run(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"summaries": summaries})
}

// TriggerPoll 手动跑一轮价格轮询
func (h *APIHandler) TriggerPoll(c *gin.Context) {
	summary, err := h.monitor.Poll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}
