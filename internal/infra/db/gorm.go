package db

import (
	"fmt"
	"time"

	"ecshop/internal/domain/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect はDBに接続して *gorm.DB を返す。
func Connect(dsn string, debug bool) (*gorm.DB, error) {
	gcfg := &gorm.Config{
		//一意制約違反をgorm.ErrDuplicatedKeyにする
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	}
	if debug {
		gcfg.Logger = logger.Default.LogMode(logger.Info)
	}

	gdb, err := gorm.Open(postgres.Open(dsn), gcfg)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("db handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return gdb, nil
}

// テーブル作成・更新
func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&model.User{},
		&model.Product{},
		&model.CartItem{},
		&model.WishlistItem{},
		&model.Order{},
		&model.OrderItem{},
		&model.ContactNote{},
		&model.Payment{},
		&model.Coupon{},
		&model.Review{},
		&model.Tag{},
		&model.Post{},
		&model.AuditLog{},
	)
}

func Close(gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
