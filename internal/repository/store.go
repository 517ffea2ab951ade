package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repos 绑定到同一个 *gorm.DB（可能是事务）的一组仓储
type Repos struct {
	Clans      *ClanRepository
	Members    *MemberRepository
	Bosses     *BossRepository
	Records    *RecordRepository
	Contention *ContentionRepository
	Usage      *UsageRepository
}

func newRepos(db *gorm.DB) *Repos {
	return &Repos{
		Clans:      NewClanRepository(db),
		Members:    NewMemberRepository(db),
		Bosses:     NewBossRepository(db),
		Records:    NewRecordRepository(db),
		Contention: NewContentionRepository(db),
		Usage:      NewUsageRepository(db),
	}
}

// Store 仓储入口：非事务读取走 Repos()，写操作走 Transaction
type Store struct {
	db    *gorm.DB
	repos *Repos
}

// NewStore 创建仓储入口
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db, repos: newRepos(db)}
}

// Repos 返回非事务仓储
func (s *Store) Repos() *Repos {
	return s.repos
}

// Transaction 在单个数据库事务内执行 fn；fn 返回错误时整体回滚。
// fn 内只能使用传入的 Repos，否则单连接池下会自锁。
func (s *Store) Transaction(ctx context.Context, fn func(r *Repos) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(newRepos(tx))
	})
}
