package eventbus

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Event 会战状态变更通知；在公会锁释放之后发布
type Event struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	ClanID    string         `json:"clan_id,omitempty"`
	Timestamp int64          `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// Hub 进程内广播。订阅者按公会过滤，空 clanID 接收全部公会
type Hub struct {
	mu      sync.RWMutex
	subs    map[chan Event]string
	dropped atomic.Int64
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan Event]string)}
}

func (h *Hub) Publish(evt Event) {
	if h == nil {
		return
	}
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	if evt.Timestamp == 0 {
		evt.Timestamp = time.Now().UnixMilli()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch, clanID := range h.subs {
		if clanID != "" && clanID != evt.ClanID {
			continue
		}
		select {
		case ch <- evt:
		default:
			// 慢消费者直接丢弃，不能拖住报刀链路
			h.dropped.Add(1)
		}
	}
}

// Subscribe 订阅某个公会的事件；ctx 结束后通道被关闭
func (h *Hub) Subscribe(ctx context.Context, clanID string, buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)

	h.mu.Lock()
	h.subs[ch] = clanID
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
		close(ch)
	}()

	return ch
}

// SubscriberCount 当前订阅者数量
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Dropped 因订阅者缓冲已满而丢弃的事件总数
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}
