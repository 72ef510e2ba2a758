package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"wechat_order_v1/internal/model"
)

// RoleRepository 角色仓库接口
type RoleRepository interface {
	GetByID(ctx context.Context, id int64) (*model.Role, error)
	GetByName(ctx context.Context, name string) (*model.Role, error)
	GetDefault(ctx context.Context) (*model.Role, error)
	List(ctx context.Context) ([]model.Role, error)
	Upsert(ctx context.Context, role *model.Role) error
}

type roleRepository struct {
	db *gorm.DB
}

// NewRoleRepository 创建角色仓库
func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{db: db}
}

func (r *roleRepository) GetByID(ctx context.Context, id int64) (*model.Role, error) {
	var role model.Role
	err := r.db.WithContext(ctx).First(&role, id).Error
	return ignoreNotFound(&role, err)
}

func (r *roleRepository) GetByName(ctx context.Context, name string) (*model.Role, error) {
	var role model.Role
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&role).Error
	return ignoreNotFound(&role, err)
}

// GetDefault 注册用户默认角色
func (r *roleRepository) GetDefault(ctx context.Context) (*model.Role, error) {
	var role model.Role
	err := r.db.WithContext(ctx).Where("is_default = ?", true).First(&role).Error
	return ignoreNotFound(&role, err)
}

func (r *roleRepository) List(ctx context.Context) ([]model.Role, error) {
	var roles []model.Role
	err := r.db.WithContext(ctx).Order("id ASC").Find(&roles).Error
	return roles, err
}

// Upsert 按名称插入或更新权限
func (r *roleRepository) Upsert(ctx context.Context, role *model.Role) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"permissions", "is_default"}),
	}).Create(role).Error
}
