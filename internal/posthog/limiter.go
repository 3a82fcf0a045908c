package posthog

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// DefaultMaxConcurrent 上游并发上限。
// PostHog 对单个项目限制 3 个并发查询，这里保留 1 个给转发流量。
const DefaultMaxConcurrent = 2

// Limiter 上游查询并发闸门，等待者按 FIFO 顺序获得槽位
type Limiter struct {
	sem      *semaphore.Weighted
	capacity int64
	running  atomic.Int64
	waiting  atomic.Int64
}

// NewLimiter 创建并发闸门，capacity <= 0 时使用默认值
func NewLimiter(capacity int) *Limiter {
	if capacity <= 0 {
		capacity = DefaultMaxConcurrent
	}
	return &Limiter{
		sem:      semaphore.NewWeighted(int64(capacity)),
		capacity: int64(capacity),
	}
}

// Acquire 获取一个槽位，ctx 结束时放弃排队
func (l *Limiter) Acquire(ctx context.Context) error {
	l.waiting.Add(1)
	err := l.sem.Acquire(ctx, 1)
	l.waiting.Add(-1)
	if err != nil {
		return err
	}
	l.running.Add(1)
	return nil
}

// Release 归还槽位，必须与成功的 Acquire 一一对应
func (l *Limiter) Release() {
	l.running.Add(-1)
	l.sem.Release(1)
}

// Do 在持有槽位期间执行 fn，任何退出路径都会归还槽位
func (l *Limiter) Do(ctx context.Context, fn func() error) error {
	if err := l.Acquire(ctx); err != nil {
		return err
	}
	defer l.Release()
	return fn()
}

// Running 当前占用的槽位数
func (l *Limiter) Running() int {
	return int(l.running.Load())
}

// Waiting 当前排队数
func (l *Limiter) Waiting() int {
	return int(l.waiting.Load())
}

// Capacity 槽位总数
func (l *Limiter) Capacity() int {
	return int(l.capacity)
}
