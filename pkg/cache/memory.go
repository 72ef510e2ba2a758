package cache

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// MemoryCache 进程内缓存，使用 sync.Map 保证并发安全
// 未启用 Redis 时的默认实现
type MemoryCache struct {
	items  sync.Map // key -> cacheItem
	mu     sync.Mutex
	closed bool
}

// cacheItem 值和过期时间
type cacheItem struct {
	value      string
	expiration int64 // UnixNano，0 表示不过期
}

// NewMemoryCache 创建进程内缓存
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{}
}

// Get 获取缓存并验证是否过期
func (c *MemoryCache) Get(_ context.Context, key string) (string, bool, error) {
	if c.isClosed() {
		return "", false, ErrCacheClosed
	}
	val, ok := c.items.Load(key)
	if !ok {
		return "", false, nil
	}

	item := val.(cacheItem)
	if item.expiration > 0 && time.Now().UnixNano() > item.expiration {
		c.items.Delete(key) // 懒删除
		return "", false, nil
	}
	return item.value, true, nil
}

// Set 设置缓存
func (c *MemoryCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	if c.isClosed() {
		return ErrCacheClosed
	}
	var exp int64
	if ttl > 0 {
		exp = time.Now().Add(ttl).UnixNano()
	}
	c.items.Store(key, cacheItem{value: value, expiration: exp})
	return nil
}

// Delete 删除缓存
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.items.Delete(key)
	return nil
}

// Incr 计数器自增
func (c *MemoryCache) Incr(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, ErrCacheClosed
	}

	var n int64
	if val, ok := c.items.Load(key); ok {
		item := val.(cacheItem)
		if item.expiration == 0 || time.Now().UnixNano() <= item.expiration {
			n, _ = strconv.ParseInt(item.value, 10, 64)
		}
	}
	n++
	c.items.Store(key, cacheItem{value: strconv.FormatInt(n, 10)})
	return n, nil
}

// Close 关闭
func (c *MemoryCache) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
