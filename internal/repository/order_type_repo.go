package repository

import (
	"context"

	"gorm.io/gorm"

	"wechat_order_v1/internal/model"
)

// OrderTypeRepository 订单类型仓库接口
type OrderTypeRepository interface {
	Create(ctx context.Context, t *model.OrderType) error
	Update(ctx context.Context, t *model.OrderType) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*model.OrderType, error)
	GetByName(ctx context.Context, name string) (*model.OrderType, error)
	List(ctx context.Context, activeOnly bool) ([]model.OrderType, error)
	ExistsByName(ctx context.Context, name string, excludeID int64) (bool, error)
}

type orderTypeRepository struct {
	db *gorm.DB
}

// NewOrderTypeRepository 创建订单类型仓库
func NewOrderTypeRepository(db *gorm.DB) OrderTypeRepository {
	return &orderTypeRepository{db: db}
}

func (r *orderTypeRepository) Create(ctx context.Context, t *model.OrderType) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *orderTypeRepository) Update(ctx context.Context, t *model.OrderType) error {
	return r.db.WithContext(ctx).Save(t).Error
}

func (r *orderTypeRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.OrderType{}, id).Error
}

func (r *orderTypeRepository) GetByID(ctx context.Context, id int64) (*model.OrderType, error) {
	var t model.OrderType
	err := r.db.WithContext(ctx).First(&t, id).Error
	return ignoreNotFound(&t, err)
}

func (r *orderTypeRepository) GetByName(ctx context.Context, name string) (*model.OrderType, error) {
	var t model.OrderType
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&t).Error
	return ignoreNotFound(&t, err)
}

func (r *orderTypeRepository) List(ctx context.Context, activeOnly bool) ([]model.OrderType, error) {
	var types []model.OrderType
	query := r.db.WithContext(ctx)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	err := query.Order("id ASC").Find(&types).Error
	return types, err
}

func (r *orderTypeRepository) ExistsByName(ctx context.Context, name string, excludeID int64) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&model.OrderType{}).Where("name = ?", name)
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}
