package api

import (
	"fmt"
	"net/http"
	"time"

	"dex-radar/internal/services/export"

	"github.com/gin-gonic/gin"
)

// ExportPotentialTokens 导出潜力代币表为 XLSX
func (h *APIHandler) ExportPotentialTokens(c *gin.Context) {
	f, _, err := export.BuildPotentialWorkbook(h.db, c.Query("chain"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()

	filename := fmt.Sprintf("potential_tokens_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")

	if err := f.Write(c.Writer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
