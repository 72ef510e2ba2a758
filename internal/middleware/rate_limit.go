package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// ==================== JobRateLimiter 任务冷却限流器 ====================

// JobRateLimiter 手动触发任务的冷却限流
// 防止重复点击导致导入、对账、备份并发执行
type JobRateLimiter struct {
	locks sync.Map // key -> *lockEntry
}

// lockEntry 锁条目
type lockEntry struct {
	lastTime time.Time
	mu       sync.Mutex
}

// 全局限流器实例
var globalLimiter = &JobRateLimiter{}

// GetLimiter 获取全局限流器
func GetLimiter() *JobRateLimiter {
	return globalLimiter
}

// CheckResult 检查结果
type CheckResult struct {
	Allowed    bool          // 是否允许
	RetryAfter time.Duration // 剩余冷却时间
}

// Check 检查是否允许执行，允许时记录本次执行时间
func (r *JobRateLimiter) Check(key string, interval time.Duration) CheckResult {
	actual, _ := r.locks.LoadOrStore(key, &lockEntry{})
	entry := actual.(*lockEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	now := time.Now()
	if elapsed := now.Sub(entry.lastTime); elapsed < interval {
		return CheckResult{Allowed: false, RetryAfter: interval - elapsed}
	}

	entry.lastTime = now
	return CheckResult{Allowed: true}
}

// Reset 重置指定 key 的限流
func (r *JobRateLimiter) Reset(key string) {
	r.locks.Delete(key)
}

// ==================== 任务类型 ====================

// JobType 任务类型
type JobType string

const (
	JobImport  JobType = "import"  // 订单导入
	JobCollect JobType = "collect" // 收集微信用户
	JobRefresh JobType = "refresh" // 刷新微信用户
	JobBackup  JobType = "backup"  // 数据库备份
)

// DefaultIntervals 默认冷却间隔
var DefaultIntervals = map[JobType]time.Duration{
	JobImport:  10 * time.Second,
	JobCollect: time.Minute,
	JobRefresh: time.Minute,
	JobBackup:  time.Minute,
}

// GetInterval 获取任务类型的默认间隔
func GetInterval(job JobType) time.Duration {
	if interval, ok := DefaultIntervals[job]; ok {
		return interval
	}
	return time.Minute
}

// UserJobKey 用户维度的限流 Key
func UserJobKey(userID int64, job JobType) string {
	return fmt.Sprintf("user:%d:%s", userID, job)
}

// GlobalJobKey 全局维度的限流 Key
func GlobalJobKey(job JobType) string {
	return fmt.Sprintf("global:%s", job)
}

// ==================== Gin 中间件 ====================

// JobRateLimit 按用户限流，interval 为 0 时使用默认间隔
// 必须挂在 JWTAuth 之后
func JobRateLimit(job JobType, interval time.Duration) gin.HandlerFunc {
	return rateLimit(job, interval, func(c *gin.Context) string {
		return UserJobKey(GetUserID(c), job)
	})
}

// GlobalJobRateLimit 全局限流，用于对账、备份等全局任务
func GlobalJobRateLimit(job JobType, interval time.Duration) gin.HandlerFunc {
	return rateLimit(job, interval, func(*gin.Context) string {
		return GlobalJobKey(job)
	})
}

func rateLimit(job JobType, interval time.Duration, keyFn func(*gin.Context) string) gin.HandlerFunc {
	if interval == 0 {
		interval = GetInterval(job)
	}

	return func(c *gin.Context) {
		result := GetLimiter().Check(keyFn(c), interval)
		if !result.Allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"code":    429,
				"message": formatRetryMessage(result.RetryAfter),
				"data": gin.H{
					"retry_after": int(result.RetryAfter.Seconds()),
					"job":         job,
				},
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// formatRetryMessage 格式化重试提示信息
func formatRetryMessage(d time.Duration) string {
	seconds := int(d.Seconds())
	if seconds < 1 {
		seconds = 1
	}
	if seconds < 60 {
		return fmt.Sprintf("操作过于频繁，请 %d 秒后重试", seconds)
	}

	minutes, rest := seconds/60, seconds%60
	if rest == 0 {
		return fmt.Sprintf("操作过于频繁，请 %d 分钟后重试", minutes)
	}
	return fmt.Sprintf("操作过于频繁，请 %d 分 %d 秒后重试", minutes, rest)
}
