package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"

	"github.com/blues/crowdsale/internal/config"
	"github.com/blues/crowdsale/internal/model"
)

func Init(cfg config.DatabaseConfig) (*gorm.DB, error) {
	return Open(cfg.DSN())
}

// Open 连接 postgres 并执行迁移
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent), // 禁用 GORM 的默认日志输出
		NamingStrategy: &schema.NamingStrategy{
			SingularTable: true, // 禁用复数表名
		},
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate 自动迁移
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.CampaignModel{},
		&model.DepositModel{},
		&model.ContributeRecordModel{},
		&model.RefundRecordModel{},
		&model.SettlementRecordModel{},
		&model.EventModel{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
