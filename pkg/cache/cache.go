package cache

import (
	"context"
	"errors"
	"time"
)

// Cache 简单的 KV 缓存接口
// 统计结果、列表聚合等读多写少的数据使用
type Cache interface {
	// Get 读取，不存在时 found=false
	Get(ctx context.Context, key string) (value string, found bool, err error)
	// Set 写入，ttl<=0 表示不过期
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Delete 删除
	Delete(ctx context.Context, key string) error
	// Incr 自增计数器（不存在时从 0 开始）
	Incr(ctx context.Context, key string) (int64, error)
	// Close 释放连接
	Close() error
}

// ErrCacheClosed 缓存已关闭
var ErrCacheClosed = errors.New("cache closed")
