package repository

import (
	"context"

	"gorm.io/gorm"

	"wechat_order_v1/internal/model"
)

// WechatUserFilter 微信用户筛选
type WechatUserFilter struct {
	Search   string // 匹配微信名 / 微信号 / 手机号
	Page     int
	PageSize int
}

// WechatUserRepository 微信用户仓库接口
type WechatUserRepository interface {
	Create(ctx context.Context, u *model.WechatUser) error
	Update(ctx context.Context, u *model.WechatUser) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*model.WechatUser, error)
	GetByPhone(ctx context.Context, phone string) (*model.WechatUser, error)
	GetByWechatID(ctx context.Context, wechatID string) (*model.WechatUser, error)
	ExistsByWechatID(ctx context.Context, wechatID string, excludeID int64) (bool, error)
	List(ctx context.Context, filter WechatUserFilter) ([]model.WechatUser, int64, error)
	ListAll(ctx context.Context) ([]model.WechatUser, error)
	Count(ctx context.Context) (int64, error)
}

type wechatUserRepository struct {
	db *gorm.DB
}

// NewWechatUserRepository 创建微信用户仓库
func NewWechatUserRepository(db *gorm.DB) WechatUserRepository {
	return &wechatUserRepository{db: db}
}

func (r *wechatUserRepository) Create(ctx context.Context, u *model.WechatUser) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *wechatUserRepository) Update(ctx context.Context, u *model.WechatUser) error {
	return r.db.WithContext(ctx).Save(u).Error
}

func (r *wechatUserRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.WechatUser{}, id).Error
}

func (r *wechatUserRepository) GetByID(ctx context.Context, id int64) (*model.WechatUser, error) {
	var u model.WechatUser
	err := r.db.WithContext(ctx).First(&u, id).Error
	return ignoreNotFound(&u, err)
}

func (r *wechatUserRepository) GetByPhone(ctx context.Context, phone string) (*model.WechatUser, error) {
	var u model.WechatUser
	err := r.db.WithContext(ctx).Where("phone = ?", phone).First(&u).Error
	return ignoreNotFound(&u, err)
}

// GetByWechatID 按微信号查找（微信号不唯一时取最早的一条）
func (r *wechatUserRepository) GetByWechatID(ctx context.Context, wechatID string) (*model.WechatUser, error) {
	var u model.WechatUser
	err := r.db.WithContext(ctx).Where("wechat_id = ?", wechatID).Order("id ASC").First(&u).Error
	return ignoreNotFound(&u, err)
}

func (r *wechatUserRepository) ExistsByWechatID(ctx context.Context, wechatID string, excludeID int64) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&model.WechatUser{}).Where("wechat_id = ?", wechatID)
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

// List 分页列表，按创建时间倒序
func (r *wechatUserRepository) List(ctx context.Context, filter WechatUserFilter) ([]model.WechatUser, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.WechatUser{})
	if filter.Search != "" {
		kw := likePattern(filter.Search)
		query = query.Where("wechat_name LIKE ? OR wechat_id LIKE ? OR phone LIKE ?", kw, kw, kw)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset, limit := normalizePage(filter.Page, filter.PageSize, DefaultPageSize)
	var users []model.WechatUser
	err := query.Order("created_at DESC").Order("id DESC").Offset(offset).Limit(limit).Find(&users).Error
	return users, total, err
}

func (r *wechatUserRepository) ListAll(ctx context.Context) ([]model.WechatUser, error) {
	var users []model.WechatUser
	err := r.db.WithContext(ctx).Order("id ASC").Find(&users).Error
	return users, err
}

func (r *wechatUserRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.WechatUser{}).Count(&count).Error
	return count, err
}
