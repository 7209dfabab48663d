package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"dex-radar/internal/config"
	"dex-radar/internal/database"
	"dex-radar/internal/scheduler"
	"dex-radar/internal/scraper"
	"dex-radar/internal/services/dexscreener"
	"dex-radar/internal/services/monitor"
	"dex-radar/internal/services/notify"
	"dex-radar/internal/services/scrape"

	"github.com/joho/godotenv"
)

var (
	noScrape  = flag.Bool("no-scrape", false, "关闭爬取任务，只跑监控")
	noMonitor = flag.Bool("no-monitor", false, "关闭监控任务，只跑爬取")
)

func main() {
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()

	logger := log.New(os.Stdout, "[Daemon] ", log.LstdFlags)
	logger.Printf("╔════════════════════════════════════════════════════════════════╗\n")
	logger.Printf("║              【代币雷达】- 后台守护进程                       ║\n")
	logger.Printf("║                                                                ║\n")
	logger.Printf("║ 功能: 定时爬取新币 + 定时轮询监控价格                         ║\n")
	logger.Printf("║ 爬取间隔: %-52v ║\n", cfg.ScrapeInterval)
	logger.Printf("║ 轮询间隔: %-52v ║\n", cfg.MonitorInterval)
	logger.Printf("╚════════════════════════════════════════════════════════════════╝\n\n")

	db, err := database.Initialize(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("❌ 数据库连接失败: %v", err)
	}
	logger.Printf("✅ 数据库连接成功 (PID: %d)\n\n", os.Getpid())

	client := dexscreener.NewClient()
	sched := scheduler.New(logger)

	if !*noScrape {
		scrapeSvc := scrape.NewService(db, client, scrape.Options{
			Chains:        cfg.ScrapeChains,
			CountPerChain: cfg.ScrapeCount,
			TopPerChain:   cfg.ScrapeTopN,
			Filter: scraper.FilterConfig{
				MinMarketCap: cfg.MinMarketCapUSD,
				MinLiquidity: cfg.MinLiquidityUSD,
				MaxAgeDays:   cfg.MaxAgeDays,
			},
		}, log.New(os.Stdout, "[Scraper] ", log.LstdFlags))

		sched.Add(&scheduler.Job{
			Name:     "scrape",
			Interval: cfg.ScrapeInterval,
			Run: func(ctx context.Context) error {
				_, err := scrapeSvc.Run(ctx)
				return err
			},
		})
	}

	if !*noMonitor {
		var notifiers notify.Fanout
		tg, err := notify.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			logger.Printf("⚠️ Telegram 通道初始化失败: %v", err)
		} else if tg != nil {
			logger.Println("✅ Telegram 报警通道已启用")
			notifiers = append(notifiers, tg)
		}

		opts := monitor.Options{}
		if cfg.RemoveBelowMcap > 0 {
			opts.MinMarketCap = &cfg.RemoveBelowMcap
		}
		if cfg.RemoveBelowLiq > 0 {
			opts.MinLiquidity = &cfg.RemoveBelowLiq
		}
		monitorSvc := monitor.NewService(db, client, notifiers, opts,
			log.New(os.Stdout, "[Monitor] ", log.LstdFlags))

		sched.Add(&scheduler.Job{
			Name:     "monitor",
			Interval: cfg.MonitorInterval,
			Run: func(ctx context.Context) error {
				_, err := monitorSvc.Poll(ctx)
				return err
			},
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		logger.Printf("🛑 收到关闭信号，正在优雅关闭...\n")
		cancel()
	}()

	sched.Start(ctx)
	logger.Printf("✅ 全部任务已退出\n")
}
