package testutil

import (
	"sync"
	"time"
)

// Clock 可手动推进的测试时钟
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock 创建停在 t 的时钟
func NewClock(t time.Time) *Clock {
	return &Clock{now: t}
}

// Now 返回当前时间；每次调用前进 1ms，保证记录时间严格递增
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Millisecond)
	return c.now
}

// Advance 推进时钟
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Set 直接设定时间
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}
