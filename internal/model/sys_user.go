package model

import (
	"regexp"
	"time"
)

// UsernamePattern 用户名规则：字母开头，只能包含字母、数字、点或下划线
var UsernamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_.]*$`)

// MinPasswordLength 密码最小长度
const MinPasswordLength = 8

// User 系统用户（订单提交人 / 管理员）
type User struct {
	BaseModel
	Email        string    `gorm:"size:64;uniqueIndex;not null" json:"email"`
	Username     string    `gorm:"size:64;uniqueIndex;not null" json:"username"`
	PasswordHash string    `gorm:"column:password_hash;size:255;not null" json:"-"`
	RoleID       int64     `gorm:"index" json:"role_id"`
	MemberSince  time.Time `json:"member_since"`
	LastSeen     time.Time `json:"last_seen"`

	Role *Role `gorm:"foreignKey:RoleID" json:"role,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// Permissions 当前用户拥有的权限位
func (u *User) Permissions() Permission {
	if u.Role == nil {
		return 0
	}
	return u.Role.Permissions
}

// Can 是否拥有指定权限
func (u *User) Can(perm Permission) bool {
	return u.Role != nil && u.Role.Permissions.Has(perm)
}

// IsAdministrator 是否系统管理员
func (u *User) IsAdministrator() bool {
	return u.Can(PermAdmin)
}

// RoleName 角色名称
func (u *User) RoleName() string {
	if u.Role == nil {
		return ""
	}
	return u.Role.Name
}
