package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"dex-radar/internal/api"
	"dex-radar/internal/config"
	"dex-radar/internal/database"
	"dex-radar/internal/scheduler"
	"dex-radar/internal/scraper"
	"dex-radar/internal/services/dexscreener"
	"dex-radar/internal/services/monitor"
	"dex-radar/internal/services/notify"
	"dex-radar/internal/services/scrape"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Initialize configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.Initialize(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Initialize services
	client := dexscreener.NewClient()

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

	// 报警通知链：WebSocket 推送 + Telegram（配置了才挂）
	hub := api.NewAlertHub()
	notifiers := notify.Fanout{hub}
	tg, err := notify.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID)
	if err != nil {
		log.Printf("⚠️ Telegram 通道初始化失败: %v", err)
	} else if tg != nil {
		log.Println("✅ Telegram 报警通道已启用")
		notifiers = append(notifiers, tg)
	}

	monitorOpts := monitor.Options{}
	if cfg.RemoveBelowMcap > 0 {
		monitorOpts.MinMarketCap = &cfg.RemoveBelowMcap
	}
	if cfg.RemoveBelowLiq > 0 {
		monitorOpts.MinLiquidity = &cfg.RemoveBelowLiq
	}
	monitorSvc := monitor.NewService(db, client, notifiers, monitorOpts,
		log.New(os.Stdout, "[Monitor] ", log.LstdFlags))

	// 后台调度：爬取和轮询各自固定节拍，互不等待
	sched := scheduler.New(log.New(os.Stdout, "[Scheduler] ", log.LstdFlags))
	sched.Add(&scheduler.Job{
		Name:     "scrape",
		Interval: cfg.ScrapeInterval,
		Run: func(ctx context.Context) error {
			_, err := scrapeSvc.Run(ctx)
			return err
		},
	})
	sched.Add(&scheduler.Job{
		Name:     "monitor",
		Interval: cfg.MonitorInterval,
		Run: func(ctx context.Context) error {
			_, err := monitorSvc.Poll(ctx)
			return err
		},
	})
	go sched.Start(context.Background())

	// Initialize Gin router
	r := gin.Default()

	// CORS middleware
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API routes
	apiGroup := r.Group("/api/v1")
	api.SetupRoutes(apiGroup, db, scrapeSvc, monitorSvc, hub, cfg.AlertThresholds)

	// Start server
	log.Printf("Server starting on port %s", cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, r))
}
