package model

// ==================== 权限位 ====================

// Permission 权限位掩码
type Permission int

const (
	PermViewOwn      Permission = 1 << iota // 查看自己的订单
	PermSubmit                              // 提交订单
	PermViewAll                             // 查看所有订单 / 统计 / 微信用户
	PermManageFields                        // 管理自定义字段与订单类型
	PermAdmin                               // 系统管理
)

// PermAll 全部权限
const PermAll = PermViewOwn | PermSubmit | PermViewAll | PermManageFields | PermAdmin

// Has 判断是否包含全部指定权限
func (p Permission) Has(perm Permission) bool {
	return p&perm == perm
}

// ==================== 角色 ====================

// 内置角色名称
const (
	RoleUser       = "User"
	RoleAdmin      = "Admin"
	RoleSuperAdmin = "SuperAdmin"
)

// Role 角色
type Role struct {
	ID          int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string     `gorm:"size:64;uniqueIndex;not null" json:"name"`
	IsDefault   bool       `gorm:"column:is_default;index;default:false" json:"is_default"`
	Permissions Permission `gorm:"not null;default:0" json:"permissions"`
}

func (Role) TableName() string {
	return "roles"
}

// RoleSeed 角色种子
type RoleSeed struct {
	Name        string
	Permissions Permission
	IsDefault   bool
}

// DefaultRoles 初始化时写入的角色
func DefaultRoles() []RoleSeed {
	return []RoleSeed{
		{Name: RoleUser, Permissions: PermViewOwn | PermSubmit, IsDefault: true},
		{Name: RoleAdmin, Permissions: PermViewAll | PermSubmit | PermManageFields},
		{Name: RoleSuperAdmin, Permissions: PermAll},
	}
}
