package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"wechat_order_v1/internal/model"
)

// ==================== StatsRepository 统计仓库 ====================

// StatsRange 统计区间（按创建时间，左闭右开）
type StatsRange struct {
	From *time.Time
	To   *time.Time
}

// TotalStats 总计
type TotalStats struct {
	Count  int64
	Amount decimal.Decimal
}

// GroupStats 分组统计
type GroupStats struct {
	Name   string // 分组名称（用户名 / 微信名 / 类型名）
	ID     int64  // 分组 ID（用户 / 类型），微信名分组为 0
	Count  int64
	Amount decimal.Decimal
}

// DailyRow 按日统计的原始行
type DailyRow struct {
	CompletionTime time.Time
	Quantity       int64
	Amount         decimal.NullDecimal
}

// StatsRepository 统计仓库接口
type StatsRepository interface {
	Totals(ctx context.Context, rng StatsRange) (*TotalStats, error)
	ByUser(ctx context.Context, rng StatsRange) ([]GroupStats, error)
	ByWechatName(ctx context.Context, rng StatsRange, orderBy string, limit int) ([]GroupStats, error)
	ByOrderType(ctx context.Context, rng StatsRange) ([]GroupStats, error)
	DailyRows(ctx context.Context, from, to time.Time) ([]DailyRow, error)
}

// 排序字段
const (
	StatsSortAmount = "amount"
	StatsSortCount  = "count"
)

type statsRepository struct {
	db *gorm.DB
}

// NewStatsRepository 创建统计仓库
func NewStatsRepository(db *gorm.DB) StatsRepository {
	return &statsRepository{db: db}
}

func (r *statsRepository) scoped(ctx context.Context, rng StatsRange) *gorm.DB {
	db := r.db.WithContext(ctx).Model(&model.Order{})
	if rng.From != nil {
		db = db.Where("orders.created_at >= ?", *rng.From)
	}
	if rng.To != nil {
		db = db.Where("orders.created_at < ?", *rng.To)
	}
	return db
}

// Totals 订单数与总金额
func (r *statsRepository) Totals(ctx context.Context, rng StatsRange) (*TotalStats, error) {
	var result TotalStats
	err := r.scoped(ctx, rng).
		Select("COUNT(*) AS count, COALESCE(SUM(orders.amount), 0) AS amount").
		Scan(&result).Error
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ByUser 按提交人分组
func (r *statsRepository) ByUser(ctx context.Context, rng StatsRange) ([]GroupStats, error) {
	var rows []GroupStats
	err := r.scoped(ctx, rng).
		Select("users.id AS id, users.username AS name, COUNT(orders.id) AS count, COALESCE(SUM(orders.amount), 0) AS amount").
		Joins("JOIN users ON users.id = orders.user_id").
		Group("users.id, users.username").
		Order("amount DESC").
		Scan(&rows).Error
	return rows, err
}

// ByWechatName 按微信名分组，取前 limit 名
func (r *statsRepository) ByWechatName(ctx context.Context, rng StatsRange, orderBy string, limit int) ([]GroupStats, error) {
	if limit <= 0 {
		limit = 10
	}
	sortExpr := "amount DESC"
	if orderBy == StatsSortCount {
		sortExpr = "count DESC"
	}

	var rows []GroupStats
	err := r.scoped(ctx, rng).
		Select("orders.wechat_name AS name, COUNT(orders.id) AS count, COALESCE(SUM(orders.amount), 0) AS amount").
		Group("orders.wechat_name").
		Order(sortExpr).
		Order("name ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

// ByOrderType 按订单类型分组，没有订单的类型也返回
func (r *statsRepository) ByOrderType(ctx context.Context, rng StatsRange) ([]GroupStats, error) {
	join := "LEFT JOIN orders ON orders.order_type_id = order_types.id"
	args := []interface{}{}
	if rng.From != nil {
		join += " AND orders.created_at >= ?"
		args = append(args, *rng.From)
	}
	if rng.To != nil {
		join += " AND orders.created_at < ?"
		args = append(args, *rng.To)
	}

	var rows []GroupStats
	err := r.db.WithContext(ctx).Model(&model.OrderType{}).
		Select("order_types.id AS id, order_types.name AS name, COUNT(orders.id) AS count, COALESCE(SUM(orders.amount), 0) AS amount").
		Joins(join, args...).
		Group("order_types.id, order_types.name").
		Order("order_types.id ASC").
		Scan(&rows).Error
	return rows, err
}

// DailyRows 完成时间落在 [from, to) 的订单（按日聚合在 Service 层完成，避免方言差异）
func (r *statsRepository) DailyRows(ctx context.Context, from, to time.Time) ([]DailyRow, error) {
	var rows []DailyRow
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Select("completion_time, quantity, amount").
		Where("completion_time >= ? AND completion_time < ?", from, to).
		Scan(&rows).Error
	return rows, err
}
