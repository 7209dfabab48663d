package scraper

import (
	"regexp"
	"strconv"
)

// 年龄片段格式：数字 + 单位。两字符的 mo 必须排在单字符 m 之前，
// 否则 "5mo" 会被 m 分支截断导致整体不匹配。
var ageRe = regexp.MustCompile(`^(\d+)(mo|h|d|m|y)$`)

// 单位到天数的换算。裸 m 在该站点的列表页上与 mo 同义（月），
// 不是分钟——见实际抓取样本，如 "3m" 的代币其创建时间在三个月前。
var ageUnitDays = map[string]float64{
	"h":  1.0 / 24.0,
	"d":  1,
	"mo": 30,
	"m":  30,
	"y":  365,
}

// ParseAge 把紧凑年龄片段（"17h"、"3mo"）换算成天数。
// 返回原始片段和天数；不匹配时返回 ErrInvalidAgeFormat，
// 调用方必须拒绝该行，而不是静默置零。
func ParseAge(frag string) (string, float64, error) {
	m := ageRe.FindStringSubmatch(frag)
	if m == nil {
		return "", 0, ErrInvalidAgeFormat
	}

	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return "", 0, ErrInvalidAgeFormat
	}

	return frag, n * ageUnitDays[m[2]], nil
}

// IsAgeFragment 判断片段是否是年龄格式（用于在行内定位年龄列）。
func IsAgeFragment(frag string) bool {
	return ageRe.MatchString(frag)
}
