package repository

import (
	"context"

	"gorm.io/gorm"

	"wechat_order_v1/internal/model"
)

// OrderImageRepository 订单图片仓库接口
type OrderImageRepository interface {
	Create(ctx context.Context, image *model.OrderImage) error
	GetByID(ctx context.Context, id int64) (*model.OrderImage, error)
	ListByOrderIDs(ctx context.Context, orderIDs []int64) ([]model.OrderImage, error)
	Delete(ctx context.Context, id int64) error
	DeleteByOrderIDs(ctx context.Context, orderIDs []int64) error
}

type orderImageRepository struct {
	db *gorm.DB
}

// NewOrderImageRepository 创建订单图片仓库
func NewOrderImageRepository(db *gorm.DB) OrderImageRepository {
	return &orderImageRepository{db: db}
}

func (r *orderImageRepository) Create(ctx context.Context, image *model.OrderImage) error {
	return r.db.WithContext(ctx).Create(image).Error
}

func (r *orderImageRepository) GetByID(ctx context.Context, id int64) (*model.OrderImage, error) {
	var image model.OrderImage
	err := r.db.WithContext(ctx).First(&image, id).Error
	return ignoreNotFound(&image, err)
}

func (r *orderImageRepository) ListByOrderIDs(ctx context.Context, orderIDs []int64) ([]model.OrderImage, error) {
	var images []model.OrderImage
	if len(orderIDs) == 0 {
		return images, nil
	}
	err := r.db.WithContext(ctx).Where("order_id IN ?", orderIDs).Order("id ASC").Find(&images).Error
	return images, err
}

func (r *orderImageRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.OrderImage{}, id).Error
}

func (r *orderImageRepository) DeleteByOrderIDs(ctx context.Context, orderIDs []int64) error {
	if len(orderIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("order_id IN ?", orderIDs).Delete(&model.OrderImage{}).Error
}
