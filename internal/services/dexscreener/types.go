package dexscreener

// DexScreener REST API (/latest/dex/pairs/{chain}/{pair}) 响应结构。
// 单个 pair 查询可能返回 pair 或 pairs 两种包装。

type PairsResponse struct {
	SchemaVersion string     `json:"schemaVersion"`
	Pair          *PairData  `json:"pair"`
	Pairs         []PairData `json:"pairs"`
}

type PairData struct {
	ChainID       string          `json:"chainId"`
	DexID         string          `json:"dexId"`
	URL           string          `json:"url"`
	PairAddress   string          `json:"pairAddress"`
	BaseToken     TokenInfo       `json:"baseToken"`
	QuoteToken    TokenInfo       `json:"quoteToken"`
	PriceNative   string          `json:"priceNative"`
	PriceUsd      string          `json:"priceUsd"`
	Volume        PairVolume      `json:"volume"`
	PriceChange   PairPriceChange `json:"priceChange"`
	Liquidity     *PairLiquidity  `json:"liquidity"`
	Fdv           float64         `json:"fdv"`
	MarketCap     float64         `json:"marketCap"`
	PairCreatedAt int64           `json:"pairCreatedAt"`
}

type TokenInfo struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

type PairVolume struct {
	M5  float64 `json:"m5"`
	H1  float64 `json:"h1"`
	H6  float64 `json:"h6"`
	H24 float64 `json:"h24"`
}

type PairPriceChange struct {
	M5  float64 `json:"m5"`
	H1  float64 `json:"h1"`
	H6  float64 `json:"h6"`
	H24 float64 `json:"h24"`
}

type PairLiquidity struct {
	Usd   float64 `json:"usd"`
	Base  float64 `json:"base"`
	Quote float64 `json:"quote"`
}

// PairDetail 监控轮询用到的归一化字段
type PairDetail struct {
	PairAddress    string
	TokenSymbol    string
	TokenName      string
	PriceUSD       float64
	MarketCap      *float64
	LiquidityUSD   *float64
	Volume24h      *float64
	PriceChange24h float64
}
