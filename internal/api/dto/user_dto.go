package dto

import "time"

// ==================== 注册 / 登录 ====================

// RegisterRequest 注册请求
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email,max=64"`
	Username  string `json:"username" binding:"required,max=64,username"`
	Password  string `json:"password" binding:"required,min=8,max=100"`
	Password2 string `json:"password2" binding:"required,eqfield=Password"`
}

// LoginRequest 登录请求（account 可以是邮箱或用户名）
type LoginRequest struct {
	Account  string `json:"account" binding:"required,max=64"`
	Password string `json:"password" binding:"required,max=100"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         *UserInfo `json:"user"`
}

// ==================== Token 刷新 ====================

// RefreshTokenRequest 刷新 Token 请求
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// RefreshTokenResponse 刷新 Token 响应
type RefreshTokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// ==================== 用户信息 ====================

// UserInfo 用户信息
type UserInfo struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	RoleID      int64     `json:"role_id"`
	Role        string    `json:"role"`
	Permissions int       `json:"permissions"`
	MemberSince time.Time `json:"member_since"`
	LastSeen    time.Time `json:"last_seen"`
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=100"`
}

// ==================== 用户管理（管理员） ====================

// CreateUserRequest 创建用户请求
type CreateUserRequest struct {
	Email    string `json:"email" binding:"required,email,max=64"`
	Username string `json:"username" binding:"required,max=64,username"`
	Password string `json:"password" binding:"required,min=8,max=100"`
	RoleID   int64  `json:"role_id" binding:"required"`
}

// UpdateUserRequest 更新用户请求，空值表示不修改
type UpdateUserRequest struct {
	Email    string `json:"email" binding:"omitempty,email,max=64"`
	Username string `json:"username" binding:"omitempty,max=64,username"`
	Password string `json:"password" binding:"omitempty,min=8,max=100"`
	RoleID   int64  `json:"role_id"`
}

// UserListRequest 用户列表请求
type UserListRequest struct {
	Keyword  string `form:"keyword"`
	RoleID   int64  `form:"role_id"`
	Page     int    `form:"page,default=1"`
	PageSize int    `form:"page_size,default=20"`
}

// UserListResponse 用户列表响应
type UserListResponse struct {
	List  []*UserInfo `json:"list"`
	Total int64       `json:"total"`
}

// RoleInfo 角色
type RoleInfo struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	IsDefault   bool   `json:"is_default"`
	Permissions int    `json:"permissions"`
}
