package scraper

import "errors"

// 行级解析失败分类。所有这些错误只会导致当前行被丢弃并记录日志，
// 绝不会中断整批爬取。
var (
	// ErrTooFewFields 行的片段数低于任何已知链布局的最低要求
	ErrTooFewFields = errors.New("row has too few fields")

	// ErrInvalidAgeFormat 年龄片段不符合 <n><unit> 格式
	ErrInvalidAgeFormat = errors.New("invalid age format")

	// ErrPercentBlockNotFound 找不到长度为3或4的连续百分比片段
	ErrPercentBlockNotFound = errors.New("percent block not found")

	// ErrAmbiguousPercentBlock 存在多个互不相邻的合格百分比片段段
	ErrAmbiguousPercentBlock = errors.New("ambiguous percent block")

	// ErrUnknownDexMarker Solana 行的 DEX 类型标记不在已知集合内
	ErrUnknownDexMarker = errors.New("unknown dex marker")

	// ErrPriceNotFound 找不到 $ 锚定的价格片段
	ErrPriceNotFound = errors.New("price not found")

	// ErrUnknownChain 不支持的链
	ErrUnknownChain = errors.New("unknown chain")
)
