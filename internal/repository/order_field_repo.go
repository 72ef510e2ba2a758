package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"wechat_order_v1/internal/model"
)

// OrderFieldRepository 订单字段仓库接口
type OrderFieldRepository interface {
	Create(ctx context.Context, f *model.OrderField) error
	Update(ctx context.Context, f *model.OrderField) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*model.OrderField, error)
	List(ctx context.Context) ([]model.OrderField, error)
	ListCustom(ctx context.Context) ([]model.OrderField, error)
	ExistsByName(ctx context.Context, name string, excludeID int64) (bool, error)
}

type orderFieldRepository struct {
	db *gorm.DB
}

// NewOrderFieldRepository 创建订单字段仓库
func NewOrderFieldRepository(db *gorm.DB) OrderFieldRepository {
	return &orderFieldRepository{db: db}
}

// byDisplayOrder order 为保留字，交给 clause 负责转义
var byDisplayOrder = clause.OrderBy{Columns: []clause.OrderByColumn{
	{Column: clause.Column{Name: "order"}},
	{Column: clause.Column{Name: "id"}},
}}

func (r *orderFieldRepository) Create(ctx context.Context, f *model.OrderField) error {
	return r.db.WithContext(ctx).Create(f).Error
}

func (r *orderFieldRepository) Update(ctx context.Context, f *model.OrderField) error {
	return r.db.WithContext(ctx).Save(f).Error
}

func (r *orderFieldRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.OrderField{}, id).Error
}

func (r *orderFieldRepository) GetByID(ctx context.Context, id int64) (*model.OrderField, error) {
	var f model.OrderField
	err := r.db.WithContext(ctx).First(&f, id).Error
	return ignoreNotFound(&f, err)
}

// List 全部字段，按显示顺序
func (r *orderFieldRepository) List(ctx context.Context) ([]model.OrderField, error) {
	var fields []model.OrderField
	err := r.db.WithContext(ctx).Clauses(byDisplayOrder).Find(&fields).Error
	return fields, err
}

// ListCustom 非默认字段（写入 custom_fields 的部分）
func (r *orderFieldRepository) ListCustom(ctx context.Context) ([]model.OrderField, error) {
	var fields []model.OrderField
	err := r.db.WithContext(ctx).Where("is_default = ?", false).Clauses(byDisplayOrder).Find(&fields).Error
	return fields, err
}

func (r *orderFieldRepository) ExistsByName(ctx context.Context, name string, excludeID int64) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&model.OrderField{}).Where("name = ?", name)
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}
