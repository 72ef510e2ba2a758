package repository

import (
	"context"

	"gorm.io/gorm"
)

// UnitOfWork 订单相关仓库的工作单元（事务）
// 订单保存会同时写入微信用户，删除会同时清理图片，需要在同一事务中完成
type UnitOfWork struct {
	db          *gorm.DB
	Users       UserRepository
	Roles       RoleRepository
	Orders      OrderRepository
	Images      OrderImageRepository
	OrderTypes  OrderTypeRepository
	OrderFields OrderFieldRepository
	WechatUsers WechatUserRepository
	Stats       StatsRepository
}

// NewUnitOfWork 创建工作单元
func NewUnitOfWork(db *gorm.DB) *UnitOfWork {
	return &UnitOfWork{
		db:          db,
		Users:       NewUserRepository(db),
		Roles:       NewRoleRepository(db),
		Orders:      NewOrderRepository(db),
		Images:      NewOrderImageRepository(db),
		OrderTypes:  NewOrderTypeRepository(db),
		OrderFields: NewOrderFieldRepository(db),
		WechatUsers: NewWechatUserRepository(db),
		Stats:       NewStatsRepository(db),
	}
}

// Transaction 执行事务，fn 内必须使用传入的 uow 访问数据库
func (u *UnitOfWork) Transaction(ctx context.Context, fn func(uow *UnitOfWork) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewUnitOfWork(tx))
	})
}

// DB 底层连接
func (u *UnitOfWork) DB() *gorm.DB {
	return u.db
}
