package export

import (
	"fmt"

	"dex-radar/internal/models"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// BuildPotentialWorkbook 把潜力代币表导出为 XLSX 工作簿。
// chain 为空时导出全部链。调用方负责 Close。
func BuildPotentialWorkbook(db *gorm.DB, chain string) (*excelize.File, int, error) {
	q := db.Model(&models.PotentialToken{}).Order("price_change_24h_at_scrape DESC")
	if chain != "" {
		q = q.Where("chain = ?", chain)
	}

	var tokens []models.PotentialToken
	if err := q.Find(&tokens).Error; err != nil {
		return nil, 0, fmt.Errorf("load potential tokens: %w", err)
	}

	f := excelize.NewFile()
	sheet := "PotentialTokens"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{
		"链", "代币符号", "代币名称", "配对币", "DEX类型", "Pair地址",
		"年龄", "年龄(天)", "价格(USD)", "24h涨幅%", "1h涨幅%", "6h涨幅%", "5m涨幅%",
		"市值", "流动性", "24h成交量", "爬取时间", "已入监控",
	}
	for i, hd := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, hd)
	}

	setFloat := func(row, col int, v *float64) {
		if v == nil {
			return
		}
		cell, _ := excelize.CoordinatesToCellName(col, row)
		f.SetCellValue(sheet, cell, *v)
	}

	for i, t := range tokens {
		row := i + 2
		values := []interface{}{
			t.Chain, t.TokenSymbol, t.TokenName, t.BaseTokenSymbol, t.DexType, t.PairAddress,
			t.AgeRaw, t.AgeDays, t.ScrapedPriceUSD, t.PriceChange24hAtScrape,
		}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, row)
			f.SetCellValue(sheet, cell, v)
		}
		setFloat(row, 11, t.PriceChange1h)
		setFloat(row, 12, t.PriceChange6h)
		setFloat(row, 13, t.PriceChange5m)
		setFloat(row, 14, t.MarketCapAtScrape)
		setFloat(row, 15, t.LiquidityAtScrape)
		setFloat(row, 16, t.Volume24hAtScrape)

		cell, _ := excelize.CoordinatesToCellName(17, row)
		f.SetCellValue(sheet, cell, t.ScrapedTimestamp.Format("2006-01-02 15:04:05"))
		cell, _ = excelize.CoordinatesToCellName(18, row)
		f.SetCellValue(sheet, cell, t.IsAddedToMonitoring == 1)
	}

	return f, len(tokens), nil
}
