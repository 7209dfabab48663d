package scraper

import "strings"

// MinRowFields 任何链布局可解析的最低片段数。
// BSC 标准布局在符号列（下标6）之前还有排名、标签、名称、配对符号等字段，
// 低于这个数量的行必然缺列。
const MinRowFields = 8

// Tokenize 把一行渲染文本切成有序的非空片段序列。
// 片段之间以换行或 | 分隔（上游提取 HTML 文本节点时逐节点拼接），
// $、% 等符号保持页面上的原样（独立片段或附着在数字上）。
// 这里不做任何语义解释；片段数不足时返回 ErrTooFewFields，
// 调用方丢弃该行即可。
func Tokenize(raw string) ([]string, error) {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == '\n' || r == '|'
	})

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		parts = append(parts, f)
	}

	if len(parts) < MinRowFields {
		return nil, ErrTooFewFields
	}
	return parts, nil
}
