package database

import (
	"fmt"
	"log"
	"time"

	"dex-radar/internal/models"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func Initialize(databaseURL string) (*gorm.DB, error) {
	if databaseURL == "" {
		// Default MySQL connection
		databaseURL = "root:password@tcp(127.0.0.1:3306)/dex_radar?charset=utf8mb4&parseTime=True&loc=Local"
	}

	db, err := gorm.Open(mysql.Open(databaseURL), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Println("Database initialized successfully")
	return db, nil
}

// Migrate 建表/补列。测试里对 sqlite 内存库也走同一个入口。
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.PotentialToken{},
		&models.MonitoredToken{},
		&models.PriceAlert{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
