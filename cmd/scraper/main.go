package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"dex-radar/internal/config"
	"dex-radar/internal/database"
	"dex-radar/internal/scraper"
	"dex-radar/internal/services/dexscreener"
	"dex-radar/internal/services/scrape"

	"github.com/joho/godotenv"
)

var (
	once     = flag.Bool("once", false, "只跑一轮后退出")
	interval = flag.Duration("interval", 30*time.Minute, "爬取间隔时间")
	chains   = flag.String("chains", "bsc,solana", "要爬取的链，逗号分隔")
	count    = flag.Int("count", 100, "每条链最多解析的行数")
	topN     = flag.Int("top", 10, "每条链按24h涨幅入库的前N名")
)

func main() {
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()

	logger := log.New(os.Stdout, "[Scraper] ", log.LstdFlags)
	logger.Printf("╔════════════════════════════════════════════════════════════════╗\n")
	logger.Printf("║              【代币雷达】- 新币爬取与入库                     ║\n")
	logger.Printf("║                                                                ║\n")
	logger.Printf("║ 功能: 抓取列表页 → 解析行 → 数值筛选 → 高水位入库             ║\n")
	logger.Printf("║ 链: %-58s ║\n", *chains)
	logger.Printf("║ 间隔: %-56v ║\n", *interval)
	logger.Printf("╚════════════════════════════════════════════════════════════════╝\n\n")

	db, err := database.Initialize(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("❌ 数据库连接失败: %v", err)
	}
	logger.Printf("✅ 数据库连接成功\n")

	svc := scrape.NewService(db, dexscreener.NewClient(), scrape.Options{
		Chains:        strings.Split(*chains, ","),
		CountPerChain: *count,
		TopPerChain:   *topN,
		Filter: scraper.FilterConfig{
			MinMarketCap: cfg.MinMarketCapUSD,
			MinLiquidity: cfg.MinLiquidityUSD,
			MaxAgeDays:   cfg.MaxAgeDays,
		},
	}, logger)

	runOnce := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := svc.Run(ctx); err != nil {
			logger.Printf("❌ 本轮爬取失败: %v\n", err)
		}
	}

	runOnce()
	if *once {
		return
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	for {
		select {
		case <-sigChan:
			logger.Printf("🛑 收到关闭信号，退出\n")
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
