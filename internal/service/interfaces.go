package service

import (
	"context"
	"time"

	"github.com/yuqie6/YukiClanBattle/internal/eventbus"
	"github.com/yuqie6/YukiClanBattle/internal/repository"
)

// 引擎对外部依赖的最小接口集合

// Store 仓储入口；写操作必须走 Transaction，且 fn 内只使用传入的 Repos
type Store interface {
	Repos() *repository.Repos
	Transaction(ctx context.Context, fn func(r *repository.Repos) error) error
}

// EventPublisher 状态变更通知出口
type EventPublisher interface {
	Publish(evt eventbus.Event)
}

// OpObserver 操作结果与锁等待观测
type OpObserver interface {
	ObserveOp(op, result string)
	ObserveLockWait(op string, d time.Duration)
}

type noopObserver struct{}

func (noopObserver) ObserveOp(string, string)              {}
func (noopObserver) ObserveLockWait(string, time.Duration) {}

type noopPublisher struct{}

func (noopPublisher) Publish(eventbus.Event) {}
