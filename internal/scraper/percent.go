package scraper

import (
	"strconv"
	"strings"
)

// PercentBlock 一行中的多时段涨跌幅。
// 三段布局（1h/6h/24h）时 Change5m 为 nil——缺失不等于零。
type PercentBlock struct {
	Change5m  *float64
	Change1h  float64
	Change6h  float64
	Change24h float64
}

// parsePercent 解析形如 "-3.30%"、"+1,788%" 的片段。
// 返回 (值, 是否为百分比片段)。
func parsePercent(frag string) (float64, bool) {
	if !strings.Contains(frag, "%") || frag == "%" {
		return 0, false
	}
	s := strings.NewReplacer("%", "", "+", "", ",", "").Replace(frag)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// LocatePercentBlock 在片段序列中找出代表 5m/1h/6h/24h 涨跌幅的
// 连续百分比片段段。
//
// 合法结果只有两种：
//   - 长度4 → (5m, 1h, 6h, 24h)
//   - 长度3 → (1h, 6h, 24h)，5m 记为缺失
//
// 找不到合格长度的段返回 ErrPercentBlockNotFound；出现多个互不相邻的
// 合格段返回 ErrAmbiguousPercentBlock——页面结构上一行只会有一段，
// 多段说明该行已经不可信，调用方应防御性丢弃。
func LocatePercentBlock(parts []string) (*PercentBlock, error) {
	type run struct {
		values []float64
	}

	var runs []run
	var cur []float64
	for _, p := range parts {
		if v, ok := parsePercent(p); ok {
			cur = append(cur, v)
			continue
		}
		if len(cur) > 0 {
			runs = append(runs, run{values: cur})
			cur = nil
		}
	}
	if len(cur) > 0 {
		runs = append(runs, run{values: cur})
	}

	var found *run
	for i := range runs {
		n := len(runs[i].values)
		if n != 3 && n != 4 {
			continue
		}
		if found != nil {
			return nil, ErrAmbiguousPercentBlock
		}
		found = &runs[i]
	}
	if found == nil {
		return nil, ErrPercentBlockNotFound
	}

	v := found.values
	if len(v) == 4 {
		return &PercentBlock{
			Change5m:  &v[0],
			Change1h:  v[1],
			Change6h:  v[2],
			Change24h: v[3],
		}, nil
	}
	return &PercentBlock{
		Change1h:  v[0],
		Change6h:  v[1],
		Change24h: v[2],
	}, nil
}
