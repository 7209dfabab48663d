package dexscreener

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

const (
	siteBaseURL = "https://dexscreener.com"
	apiBaseURL  = "https://api.dexscreener.com"

	// BSC pair 地址42位（0x+40），Solana base58 为 43~44 位
	bscPairAddrLen       = 42
	solanaPairAddrMinLen = 43
	solanaPairAddrMaxLen = 44
)

// Client DexScreener 页面 + REST API 客户端
type Client struct {
	http     *resty.Client
	siteBase string
	apiBase  string
}

// NewClient 创建客户端，所有外部请求都带 30 秒超时。
func NewClient() *Client {
	client := resty.New()
	client.SetTimeout(30 * time.Second)
	// 列表页在 Cloudflare 后面，必须带完整的浏览器请求头，
	// 其中 Sec-Fetch-* 缺一不可
	client.SetHeaders(map[string]string{
		"User-Agent":                "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
		"Accept-Language":           "en-US,en;q=0.5",
		"Connection":                "keep-alive",
		"DNT":                       "1",
		"Upgrade-Insecure-Requests": "1",
		"Sec-Fetch-Dest":            "document",
		"Sec-Fetch-Mode":            "navigate",
		"Sec-Fetch-Site":            "none",
		"Sec-Fetch-User":            "?1",
	})

	return &Client{http: client, siteBase: siteBaseURL, apiBase: apiBaseURL}
}

// RawRow 列表页上一行的原始文本内容
type RawRow struct {
	PairAddress string
	URL         string
	Rank        int
	Text        string // 按文本节点以换行拼接的行内容，交给 scraper.Tokenize
}

// FetchListingRows 抓取某条链的列表页并提取每行的原始文本。
// 整页拿不到任何行才算运行级失败；单行异常由上层解析时逐行处理。
func (c *Client) FetchListingRows(ctx context.Context, chain string, limit int) ([]RawRow, error) {
	url := fmt.Sprintf("%s/%s", c.siteBase, chain)

	resp, err := c.http.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("request %s failed: %w", url, err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode(), url)
	}

	body := resp.String()
	if strings.Contains(body, "Just a moment") || strings.Contains(body, "请稍候") {
		return nil, fmt.Errorf("blocked by cloudflare challenge")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	prefix := fmt.Sprintf("/%s/", chain)
	var rows []RawRow

	doc.Find("a.ds-dex-table-row").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if len(rows) >= limit {
			return false
		}

		href, ok := sel.Attr("href")
		if !ok || !strings.Contains(href, prefix) {
			return true
		}
		pair := strings.SplitN(strings.SplitN(href, prefix, 2)[1], "?", 2)[0]
		if !validPairAddress(pair, chain) {
			return true
		}

		rows = append(rows, RawRow{
			PairAddress: pair,
			URL:         c.siteBase + href,
			Rank:        len(rows) + 1,
			Text:        strings.Join(textFragments(sel), "\n"),
		})
		return true
	})

	return rows, nil
}

// textFragments 按文档顺序收集选区内所有非空文本节点，
// 等价于逐节点提取行文本，保持 $、% 等符号片段独立。
func textFragments(sel *goquery.Selection) []string {
	var out []string
	sel.Contents().Each(func(i int, c *goquery.Selection) {
		if goquery.NodeName(c) == "#text" {
			if t := strings.TrimSpace(c.Text()); t != "" {
				out = append(out, t)
			}
			return
		}
		out = append(out, textFragments(c)...)
	})
	return out
}

func validPairAddress(pair, chain string) bool {
	switch chain {
	case "bsc":
		return len(pair) == bscPairAddrLen && strings.HasPrefix(pair, "0x")
	case "solana":
		return len(pair) >= solanaPairAddrMinLen && len(pair) <= solanaPairAddrMaxLen
	default:
		return false
	}
}

// GetPairDetail 用 REST API 获取单个 pair 的实时数据（监控轮询用）
func (c *Client) GetPairDetail(ctx context.Context, chain, pairAddress string) (*PairDetail, error) {
	url := fmt.Sprintf("%s/latest/dex/pairs/%s/%s", c.apiBase, chain, pairAddress)

	var payload PairsResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetResult(&payload).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch pair %s: %w", pairAddress, err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("unexpected status %d for pair %s", resp.StatusCode(), pairAddress)
	}

	pair := payload.Pair
	if pair == nil && len(payload.Pairs) > 0 {
		pair = &payload.Pairs[0]
	}
	if pair == nil {
		return nil, fmt.Errorf("no pair data for %s", pairAddress)
	}

	price, err := strconv.ParseFloat(pair.PriceUsd, 64)
	if err != nil {
		return nil, fmt.Errorf("bad priceUsd %q for pair %s", pair.PriceUsd, pairAddress)
	}

	detail := &PairDetail{
		PairAddress:    pair.PairAddress,
		TokenSymbol:    pair.BaseToken.Symbol,
		TokenName:      pair.BaseToken.Name,
		PriceUSD:       price,
		PriceChange24h: pair.PriceChange.H24,
	}
	if pair.MarketCap > 0 {
		detail.MarketCap = &pair.MarketCap
	}
	if pair.Liquidity != nil && pair.Liquidity.Usd > 0 {
		detail.LiquidityUSD = &pair.Liquidity.Usd
	}
	if pair.Volume.H24 > 0 {
		detail.Volume24h = &pair.Volume.H24
	}
	return detail, nil
}

// CorrectCaseAddress 把小写的 Solana pair 地址换成 API 返回的
// 正确大小写形式（Solana 地址区分大小写，页面 href 是小写的）。
// 失败时原样返回，不阻塞爬取。
func (c *Client) CorrectCaseAddress(ctx context.Context, chain, pairAddress string) string {
	if chain != "solana" {
		return pairAddress
	}
	detail, err := c.GetPairDetail(ctx, chain, pairAddress)
	if err != nil || detail.PairAddress == "" {
		return pairAddress
	}
	return detail.PairAddress
}
