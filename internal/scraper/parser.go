package scraper

import (
	"strconv"
	"strings"
)

// TokenRecord 一行列表解析出的结构化代币记录
type TokenRecord struct {
	PairAddress string
	Chain       string
	DexType     string // 仅 Solana，可为空

	TokenSymbol     string
	TokenName       string
	BaseTokenSymbol string

	AgeRaw  string
	AgeDays float64

	PriceUSD       float64
	PriceChange5m  *float64
	PriceChange1h  *float64
	PriceChange6h  *float64
	PriceChange24h *float64

	MarketCap    *float64
	LiquidityUSD *float64
	FDV          *float64
	Volume24h    *float64
}

// ParseRow 把一行的原始文本解析成 TokenRecord。
// 任何子步骤失败只影响当前行（返回错误，调用方跳过并记日志），
// 绝不会让整批爬取失败。
func ParseRow(raw, pairAddress, chain string) (*TokenRecord, error) {
	parts, err := Tokenize(raw)
	if err != nil {
		return nil, err
	}
	return ParseRowParts(parts, pairAddress, chain)
}

// ParseRowParts 同 ParseRow，但接受已切分的片段序列。
func ParseRowParts(parts []string, pairAddress, chain string) (*TokenRecord, error) {
	rec := &TokenRecord{
		PairAddress: pairAddress,
		Chain:       chain,
	}

	switch chain {
	case "bsc":
		off, _ := bscOffsets(parts)
		if len(parts) <= off.symbol || len(parts) <= off.name {
			return nil, ErrTooFewFields
		}
		rec.TokenName = parts[off.name]
		rec.BaseTokenSymbol = parts[off.base]
		rec.TokenSymbol = parts[off.symbol]

	case "solana":
		off, marker, err := solanaOffsets(parts)
		if err != nil {
			return nil, err
		}
		if len(parts) <= off.name {
			return nil, ErrTooFewFields
		}
		rec.DexType = marker
		rec.TokenSymbol = parts[off.symbol]
		rec.BaseTokenSymbol = parts[off.base]
		rec.TokenName = parts[off.name]

	default:
		return nil, ErrUnknownChain
	}

	block, err := LocatePercentBlock(parts)
	if err != nil {
		return nil, err
	}
	rec.PriceChange5m = block.Change5m
	rec.PriceChange1h = &block.Change1h
	rec.PriceChange6h = &block.Change6h
	rec.PriceChange24h = &block.Change24h

	price, priceIdx, err := extractPrice(parts)
	if err != nil {
		return nil, err
	}
	rec.PriceUSD = price

	// 年龄：从价格列之后扫描第一个年龄格式片段。
	// 年龄列的绝对下标会被价格的下标零渲染（见 extractPrice）顶偏，
	// 按格式找比按下标取稳；从价格之后找避免把形如 "4h" 的代币符号
	// 误当年龄。
	ageFound := false
	for _, p := range parts[priceIdx+1:] {
		if IsAgeFragment(p) {
			raw, days, err := ParseAge(p)
			if err != nil {
				return nil, err
			}
			rec.AgeRaw, rec.AgeDays = raw, days
			ageFound = true
			break
		}
	}
	if !ageFound {
		return nil, ErrInvalidAgeFormat
	}

	extractDollarFigures(parts, rec)
	extractVolume(parts, rec)

	return rec, nil
}

// extractPrice 提取 $ 锚定的单价，返回价格最后一个片段的下标。
// 页面对极小价格用下标零渲染：0.0|4|9152 表示 0.00009152，
// 即 "0.0" 后跟零的个数和有效数字两个片段。
func extractPrice(parts []string) (float64, int, error) {
	for i, p := range parts {
		if p != "$" || i+1 >= len(parts) {
			continue
		}
		first := parts[i+1]

		if first == "0.0" && i+3 < len(parts) && isDigits(parts[i+2]) && isDigits(parts[i+3]) {
			zeros, _ := strconv.Atoi(parts[i+2])
			v, err := strconv.ParseFloat("0."+strings.Repeat("0", zeros)+parts[i+3], 64)
			if err == nil {
				return v, i + 3, nil
			}
			continue
		}

		// K/M/B 后缀的是市值类数字，不是单价
		if strings.ContainsAny(first, "KMB") {
			continue
		}
		if v, err := strconv.ParseFloat(strings.ReplaceAll(first, ",", ""), 64); err == nil {
			return v, i + 1, nil
		}
	}
	return 0, 0, ErrPriceNotFound
}

// extractDollarFigures 提取 $ 后带 K/M/B 后缀的数字，
// 页面顺序固定为 市值、流动性、FDV。
func extractDollarFigures(parts []string, rec *TokenRecord) {
	var figures []float64
	for i, p := range parts {
		if p != "$" || i+1 >= len(parts) {
			continue
		}
		next := parts[i+1]
		if !strings.ContainsAny(next, "KMB") {
			continue
		}
		if v, ok := parseValueWithUnit(next); ok {
			figures = append(figures, v)
		}
	}

	if len(figures) >= 1 {
		rec.MarketCap = &figures[0]
	}
	if len(figures) >= 2 {
		rec.LiquidityUSD = &figures[1]
	}
	if len(figures) >= 3 {
		rec.FDV = &figures[2]
	}
}

// extractVolume 24h 成交量是价格列之后第一个带千分位逗号、
// 不带 $ 的数字。
func extractVolume(parts []string, rec *TokenRecord) {
	lo, hi := 10, 15
	if hi > len(parts) {
		hi = len(parts)
	}
	if lo > hi {
		return
	}
	for _, p := range parts[lo:hi] {
		if !strings.Contains(p, ",") || strings.Contains(p, "$") || strings.Contains(p, "%") {
			continue
		}
		if v, err := strconv.ParseFloat(strings.ReplaceAll(p, ",", ""), 64); err == nil {
			rec.Volume24h = &v
			return
		}
	}
}

// parseValueWithUnit 解析 "44.0M"、"$632K" 这类带单位数字
func parseValueWithUnit(s string) (float64, bool) {
	s = strings.TrimSpace(strings.NewReplacer(",", "", "$", "").Replace(s))
	if s == "" || s == "--" {
		return 0, false
	}

	mult := 1.0
	switch {
	case strings.HasSuffix(s, "K"):
		mult, s = 1_000, strings.TrimSuffix(s, "K")
	case strings.HasSuffix(s, "M"):
		mult, s = 1_000_000, strings.TrimSuffix(s, "M")
	case strings.HasSuffix(s, "B"):
		mult, s = 1_000_000_000, strings.TrimSuffix(s, "B")
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v * mult, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
