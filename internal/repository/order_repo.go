package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"wechat_order_v1/internal/model"
)

// ==================== 过滤条件 ====================

// 订单搜索字段
const (
	SearchByOrderCode  = "order_code"
	SearchByWechatName = "wechat_name"
	SearchByWechatID   = "wechat_id"
	SearchByPhone      = "phone"
)

// IsValidSearchType 校验搜索字段
func IsValidSearchType(t string) bool {
	switch t {
	case SearchByOrderCode, SearchByWechatName, SearchByWechatID, SearchByPhone:
		return true
	}
	return false
}

// OrderFilter 订单过滤条件
// 日期区间均为左闭右开 [From, To)
type OrderFilter struct {
	UserID       *int64     // 提交人
	CompleteFrom *time.Time // 完成时间
	CompleteTo   *time.Time
	CreatedFrom  *time.Time // 创建时间
	CreatedTo    *time.Time
	SearchType   string // order_code / wechat_name / wechat_id / phone
	Search       string
	WechatName   string // 包含匹配
	Phone        string // 包含匹配
	OrderTypeID  *int64
	Status       string
	Page         int
	PageSize     int
}

// OrderSummary 列表汇总
type OrderSummary struct {
	TotalAmount   decimal.Decimal
	TotalQuantity int64
}

// ==================== OrderRepository 订单仓库 ====================

// OrderRepository 订单仓库接口
type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	GetByID(ctx context.Context, id int64) (*model.Order, error)
	GetByIDWithRelations(ctx context.Context, id int64) (*model.Order, error)
	GetByIDs(ctx context.Context, ids []int64) ([]model.Order, error)
	ExistsByCode(ctx context.Context, code string, excludeID int64) (bool, error)
	List(ctx context.Context, filter OrderFilter) ([]model.Order, int64, error)
	ListAll(ctx context.Context, filter OrderFilter) ([]model.Order, error)
	Summary(ctx context.Context, filter OrderFilter) (*OrderSummary, error)
	Update(ctx context.Context, order *model.Order) error
	UpdateStatus(ctx context.Context, id int64, status string) error
	BatchUpdateStatus(ctx context.Context, ids []int64, status string) (int64, error)
	Delete(ctx context.Context, id int64) error
	DeleteByIDs(ctx context.Context, ids []int64) (int64, error)

	// 微信用户关联
	FindPhoneConflict(ctx context.Context, phone, wechatID string, excludeID int64) (*model.Order, error)
	ListByPhone(ctx context.Context, phone string, from, to *time.Time, orderTypeID *int64) ([]model.Order, error)
	ListRelated(ctx context.Context, phone, wechatID string) ([]model.Order, error)
	ListWithPhone(ctx context.Context) ([]model.Order, error)
	LatestByPhone(ctx context.Context, phone string) (*model.Order, error)
	CountUncollectedPhones(ctx context.Context) (int64, error)

	// 计数
	CountByType(ctx context.Context, typeID int64) (int64, error)
	CountByUser(ctx context.Context, userID int64) (int64, error)
	ListEmptyCode(ctx context.Context) ([]model.Order, error)
}

// ==================== 实现 ====================

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Omit("User", "OrderType", "Images").Create(order).Error
}

func (r *orderRepository) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).First(&order, id).Error
	return ignoreNotFound(&order, err)
}

// GetByIDWithRelations 获取订单及图片、类型、提交人
func (r *orderRepository) GetByIDWithRelations(ctx context.Context, id int64) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Preload("Images").
		Preload("OrderType").
		Preload("User").
		First(&order, id).Error
	return ignoreNotFound(&order, err)
}

func (r *orderRepository) GetByIDs(ctx context.Context, ids []int64) ([]model.Order, error) {
	var orders []model.Order
	if len(ids) == 0 {
		return orders, nil
	}
	err := r.db.WithContext(ctx).Preload("Images").Where("id IN ?", ids).Find(&orders).Error
	return orders, err
}

// ExistsByCode 订单编码是否被其他订单占用
func (r *orderRepository) ExistsByCode(ctx context.Context, code string, excludeID int64) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&model.Order{}).Where("order_code = ?", code)
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

// applyFilter 应用过滤条件
func (r *orderRepository) applyFilter(db *gorm.DB, filter OrderFilter) *gorm.DB {
	if filter.UserID != nil {
		db = db.Where("orders.user_id = ?", *filter.UserID)
	}
	if filter.CompleteFrom != nil {
		db = db.Where("orders.completion_time >= ?", *filter.CompleteFrom)
	}
	if filter.CompleteTo != nil {
		db = db.Where("orders.completion_time < ?", *filter.CompleteTo)
	}
	if filter.CreatedFrom != nil {
		db = db.Where("orders.created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		db = db.Where("orders.created_at < ?", *filter.CreatedTo)
	}
	if filter.Search != "" && IsValidSearchType(filter.SearchType) {
		db = db.Where("orders."+filter.SearchType+" LIKE ?", likePattern(filter.Search))
	}
	if filter.WechatName != "" {
		db = db.Where("orders.wechat_name LIKE ?", likePattern(filter.WechatName))
	}
	if filter.Phone != "" {
		db = db.Where("orders.phone LIKE ?", likePattern(filter.Phone))
	}
	if filter.OrderTypeID != nil {
		db = db.Where("orders.order_type_id = ?", *filter.OrderTypeID)
	}
	if filter.Status != "" {
		db = db.Where("orders.status = ?", filter.Status)
	}
	return db
}

// List 分页列表，按创建时间倒序
func (r *orderRepository) List(ctx context.Context, filter OrderFilter) ([]model.Order, int64, error) {
	var orders []model.Order
	var total int64

	db := r.applyFilter(r.db.WithContext(ctx).Model(&model.Order{}), filter)

	// 计算总数
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset, limit := normalizePage(filter.Page, filter.PageSize, 10)
	err := db.
		Preload("Images").
		Preload("OrderType").
		Preload("User").
		Order("orders.created_at DESC").
		Order("orders.id DESC").
		Limit(limit).
		Offset(offset).
		Find(&orders).Error

	return orders, total, err
}

// ListAll 不分页（导出使用）
func (r *orderRepository) ListAll(ctx context.Context, filter OrderFilter) ([]model.Order, error) {
	var orders []model.Order
	err := r.applyFilter(r.db.WithContext(ctx).Model(&model.Order{}), filter).
		Preload("OrderType").
		Preload("User").
		Order("orders.created_at DESC").
		Find(&orders).Error
	return orders, err
}

// Summary 过滤条件下的金额与数量合计（金额为空的订单不计入）
func (r *orderRepository) Summary(ctx context.Context, filter OrderFilter) (*OrderSummary, error) {
	var result struct {
		Amount   decimal.Decimal
		Quantity int64
	}
	err := r.applyFilter(r.db.WithContext(ctx).Model(&model.Order{}), filter).
		Select("COALESCE(SUM(orders.amount), 0) AS amount, COALESCE(SUM(orders.quantity), 0) AS quantity").
		Scan(&result).Error
	if err != nil {
		return nil, err
	}
	return &OrderSummary{TotalAmount: result.Amount, TotalQuantity: result.Quantity}, nil
}

func (r *orderRepository) Update(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Omit("User", "OrderType", "Images").Save(order).Error
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	return r.db.WithContext(ctx).Model(&model.Order{}).Where("id = ?", id).Update("status", status).Error
}

func (r *orderRepository) BatchUpdateStatus(ctx context.Context, ids []int64, status string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Model(&model.Order{}).Where("id IN ?", ids).Update("status", status)
	return result.RowsAffected, result.Error
}

func (r *orderRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.Order{}, id).Error
}

func (r *orderRepository) DeleteByIDs(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&model.Order{})
	return result.RowsAffected, result.Error
}

// ==================== 微信用户关联 ====================

// FindPhoneConflict 查找同手机号但微信号不同的其他订单
func (r *orderRepository) FindPhoneConflict(ctx context.Context, phone, wechatID string, excludeID int64) (*model.Order, error) {
	var order model.Order
	query := r.db.WithContext(ctx).
		Where("phone = ?", phone).
		Where("COALESCE(wechat_id, '') <> ?", wechatID)
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.Order("id ASC").First(&order).Error
	return ignoreNotFound(&order, err)
}

// ListByPhone 微信用户详情页订单
// 有完成时间的按完成时间过滤，没有的按创建时间过滤
// 排序：完成时间倒序（空值在后），再按创建时间倒序
func (r *orderRepository) ListByPhone(ctx context.Context, phone string, from, to *time.Time, orderTypeID *int64) ([]model.Order, error) {
	query := r.db.WithContext(ctx).Model(&model.Order{}).Where("phone = ?", phone)

	if from != nil {
		query = query.Where(
			"(completion_time IS NOT NULL AND completion_time >= ?) OR (completion_time IS NULL AND created_at >= ?)",
			*from, *from)
	}
	if to != nil {
		query = query.Where(
			"(completion_time IS NOT NULL AND completion_time < ?) OR (completion_time IS NULL AND created_at < ?)",
			*to, *to)
	}
	if orderTypeID != nil {
		query = query.Where("order_type_id = ?", *orderTypeID)
	}

	var orders []model.Order
	err := query.
		Preload("OrderType").
		Order("CASE WHEN completion_time IS NULL THEN 1 ELSE 0 END").
		Order("completion_time DESC").
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

// ListRelated 按手机号或微信号关联的订单（已去重）
func (r *orderRepository) ListRelated(ctx context.Context, phone, wechatID string) ([]model.Order, error) {
	var orders []model.Order
	if phone == "" && wechatID == "" {
		return orders, nil
	}

	query := r.db.WithContext(ctx).Preload("Images")
	switch {
	case phone != "" && wechatID != "":
		query = query.Where("phone = ? OR wechat_id = ?", phone, wechatID)
	case phone != "":
		query = query.Where("phone = ?", phone)
	default:
		query = query.Where("wechat_id = ?", wechatID)
	}
	err := query.Order("id ASC").Find(&orders).Error
	return orders, err
}

// ListWithPhone 所有填写了手机号的订单，按 id 升序
func (r *orderRepository) ListWithPhone(ctx context.Context) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.WithContext(ctx).
		Select("id", "phone", "wechat_name", "wechat_id", "created_at").
		Where("phone IS NOT NULL AND TRIM(phone) <> ''").
		Order("id ASC").
		Find(&orders).Error
	return orders, err
}

// LatestByPhone 手机号最新的一笔订单
func (r *orderRepository) LatestByPhone(ctx context.Context, phone string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Where("phone = ?", phone).
		Order("created_at DESC").
		Order("id DESC").
		First(&order).Error
	return ignoreNotFound(&order, err)
}

// CountUncollectedPhones 尚未建立微信用户档案的手机号数量
func (r *orderRepository) CountUncollectedPhones(ctx context.Context) (int64, error) {
	var count int64
	sub := r.db.Model(&model.WechatUser{}).Select("phone").Where("phone IS NOT NULL")
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("phone IS NOT NULL AND phone <> ''").
		Where("phone NOT IN (?)", sub).
		Distinct("phone").
		Count(&count).Error
	return count, err
}

// ==================== 计数 ====================

func (r *orderRepository) CountByType(ctx context.Context, typeID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Order{}).Where("order_type_id = ?", typeID).Count(&count).Error
	return count, err
}

func (r *orderRepository) CountByUser(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Order{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// ListEmptyCode 订单编码为空的历史订单
func (r *orderRepository) ListEmptyCode(ctx context.Context) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.WithContext(ctx).Where("order_code IS NULL OR order_code = ''").Find(&orders).Error
	return orders, err
}
