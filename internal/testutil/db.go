package testutil

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/yuqie6/YukiClanBattle/internal/schema"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenTestDB 打开内存 SQLite 并自动迁移所有表
func OpenTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	// :memory: 每条连接都是独立的库，必须固定为单连接
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(
		&schema.SchemaMeta{},
		&schema.Clan{},
		&schema.Member{},
		&schema.BossSlot{},
		&schema.DamageRecord{},
		&schema.ChallengeSlot{},
		&schema.Subscription{},
		&schema.TreeHold{},
		&schema.DailyUsage{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	return db
}
