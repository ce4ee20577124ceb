package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sshcollectorpro/intreport/pkg/cache"
	"github.com/sshcollectorpro/intreport/pkg/logger"
)

// BriefCache 缓存 show interface brief 输出，减少重复采集
type BriefCache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string)
}

// NewBriefCache Redis 已启用时使用 Redis，否则使用进程内缓存
func NewBriefCache(ttl time.Duration) BriefCache {
	if cache.Enabled() {
		return &redisBriefCache{ttl: ttl}
	}
	return NewMemoryBriefCache(ttl)
}

func briefKey(runner, command string) string {
	return "intreport:brief:" + runner + ":" + command
}

type redisBriefCache struct {
	ttl time.Duration
}

func (c *redisBriefCache) Get(ctx context.Context, key string) (string, bool) {
	var v string
	if err := cache.Get(ctx, key, &v); err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			logger.WithError(err).WithField("key", key).Warn("brief cache read failed")
		}
		return "", false
	}
	return v, true
}

func (c *redisBriefCache) Set(ctx context.Context, key, value string) {
	if err := cache.Set(ctx, key, value, c.ttl); err != nil {
		logger.WithError(err).WithField("key", key).Warn("brief cache write failed")
	}
}

// MemoryBriefCache 进程内缓存
type MemoryBriefCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	value   string
	expires time.Time
}

// NewMemoryBriefCache 创建进程内缓存；ttl<=0 时不缓存
func NewMemoryBriefCache(ttl time.Duration) *MemoryBriefCache {
	return &MemoryBriefCache{ttl: ttl, entries: make(map[string]memoryEntry), now: time.Now}
}

// Get 读取未过期的值
func (c *MemoryBriefCache) Get(_ context.Context, key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return "", false
	}
	if !c.now().Before(e.expires) {
		delete(c.entries, key)
		return "", false
	}
	return e.value, true
}

// Set 写入
func (c *MemoryBriefCache) Set(_ context.Context, key, value string) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryEntry{value: value, expires: c.now().Add(c.ttl)}
}
