package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"dex-radar/internal/config"
	"dex-radar/internal/database"
	"dex-radar/internal/services/export"

	"github.com/joho/godotenv"
)

var (
	chain  = flag.String("chain", "", "只导出指定链（空=全部）")
	output = flag.String("o", "", "输出文件路径（默认按时间戳生成）")
)

func main() {
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()

	db, err := database.Initialize(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ 数据库连接失败: %v", err)
	}

	f, total, err := export.BuildPotentialWorkbook(db, *chain)
	if err != nil {
		log.Fatalf("❌ 导出失败: %v", err)
	}
	defer f.Close()

	path := *output
	if path == "" {
		path = fmt.Sprintf("potential_tokens_%s.xlsx", time.Now().Format("20060102_150405"))
	}
	if err := f.SaveAs(path); err != nil {
		log.Fatalf("❌ 写文件失败: %v", err)
	}
	log.Printf("✅ 已导出 %d 条记录到 %s", total, path)
}
