package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	DatabaseURL string
	Port        string
	Environment string

	// 爬虫配置
	ScrapeChains    []string      // 要爬的链
	ScrapeCount     int           // 每条链最多解析多少行
	ScrapeTopN      int           // 每条链按24h涨幅取前N入库
	ScrapeInterval  time.Duration // 爬取周期
	MinMarketCapUSD float64       // 入选门槛：最低市值
	MinLiquidityUSD float64       // 入选门槛：最低流动性
	MaxAgeDays      float64       // 入选门槛：最大年龄（天）

	// 监控配置
	MonitorInterval time.Duration // 价格轮询周期
	AlertThresholds []float64     // 默认跌幅报警梯子（升序百分比）
	RemoveBelowMcap float64       // 市值低于此值自动移出监控（0=关闭）
	RemoveBelowLiq  float64       // 流动性低于此值自动移出监控（0=关闭）

	// Telegram 报警通道（token 为空时关闭）
	TelegramBotToken string
	TelegramChatID   int64
}

func Load() *Config {
	// Default MySQL connection string
	defaultDSN := "root:password@tcp(127.0.0.1:3306)/dex_radar?charset=utf8mb4&parseTime=True&loc=Local"

	return &Config{
		DatabaseURL: getEnv("DATABASE_URL", defaultDSN),
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),

		ScrapeChains:    strings.Split(getEnv("SCRAPE_CHAINS", "bsc,solana"), ","),
		ScrapeCount:     getEnvInt("SCRAPE_COUNT", 100),
		ScrapeTopN:      getEnvInt("SCRAPE_TOP_N", 10),
		ScrapeInterval:  getEnvDuration("SCRAPE_INTERVAL", 30*time.Minute),
		MinMarketCapUSD: getEnvFloat("MIN_MARKET_CAP_USD", 500000),
		MinLiquidityUSD: getEnvFloat("MIN_LIQUIDITY_USD", 50000),
		MaxAgeDays:      getEnvFloat("MAX_AGE_DAYS", 1),

		MonitorInterval: getEnvDuration("MONITOR_INTERVAL", 1*time.Minute),
		AlertThresholds: getEnvFloats("ALERT_THRESHOLDS", []float64{20, 30, 40, 50, 60, 70, 80, 90}),
		RemoveBelowMcap: getEnvFloat("REMOVE_BELOW_MARKET_CAP", 0),
		RemoveBelowLiq:  getEnvFloat("REMOVE_BELOW_LIQUIDITY", 0),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   int64(getEnvInt("TELEGRAM_CHAT_ID", 0)),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvFloats 解析逗号分隔的数字列表（如 "20,30,40"），解析失败用默认值
func getEnvFloats(key string, defaultValue []float64) []float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []float64
	for _, part := range strings.Split(value, ",") {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return defaultValue
		}
		out = append(out, f)
	}
	return out
}
