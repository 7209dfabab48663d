package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dex-radar/internal/config"
	"dex-radar/internal/database"
	"dex-radar/internal/services/dexscreener"
	"dex-radar/internal/services/monitor"
	"dex-radar/internal/services/notify"

	"github.com/joho/godotenv"
)

var (
	once     = flag.Bool("once", false, "只轮询一轮后退出")
	interval = flag.Duration("interval", time.Minute, "价格轮询间隔")
)

func main() {
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()

	logger := log.New(os.Stdout, "[Monitor] ", log.LstdFlags)
	logger.Printf("╔════════════════════════════════════════════════════════════════╗\n")
	logger.Printf("║              【代币雷达】- 价格监控与跌幅报警                 ║\n")
	logger.Printf("║                                                                ║\n")
	logger.Printf("║ 功能: 轮询实时价格 → 峰值棘轮 → 阈值梯子报警                  ║\n")
	logger.Printf("║ 间隔: %-56v ║\n", *interval)
	logger.Printf("╚════════════════════════════════════════════════════════════════╝\n\n")

	db, err := database.Initialize(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("❌ 数据库连接失败: %v", err)
	}
	logger.Printf("✅ 数据库连接成功\n")

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
	svc := monitor.NewService(db, dexscreener.NewClient(), notifiers, opts, logger)

	pollOnce := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if _, err := svc.Poll(ctx); err != nil {
			logger.Printf("❌ 本轮轮询失败: %v\n", err)
		}
	}

	pollOnce()
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
			pollOnce()
		}
	}
}
