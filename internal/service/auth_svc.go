package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"wechat_order_v1/internal/api/dto"
	"wechat_order_v1/internal/middleware"
	"wechat_order_v1/internal/model"
	"wechat_order_v1/internal/repository"
)

// ==================== AuthService 认证服务 ====================

// AuthService 注册、登录、Token 刷新
type AuthService struct {
	userRepo   repository.UserRepository
	roleRepo   repository.RoleRepository
	adminEmail string
	logger     *zap.Logger
}

// NewAuthService 创建认证服务
// adminEmail 注册时匹配该邮箱的账号直接授予 SuperAdmin
func NewAuthService(userRepo repository.UserRepository, roleRepo repository.RoleRepository, adminEmail string, logger *zap.Logger) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		roleRepo:   roleRepo,
		adminEmail: adminEmail,
		logger:     logger,
	}
}

// Register 注册
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserInfo, error) {
	if req.Password != req.Password2 {
		return nil, newValidationError("password2", "两次输入的密码不一致")
	}
	if err := validateCredentials(req.Username, req.Password); err != nil {
		return nil, err
	}
	if err := checkUserUnique(ctx, s.userRepo, req.Email, req.Username, 0); err != nil {
		return nil, err
	}

	role, err := assignRole(ctx, s.roleRepo, req.Email, s.adminEmail)
	if err != nil {
		return nil, err
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &model.User{
		Email:        strings.ToLower(req.Email),
		Username:     req.Username,
		PasswordHash: hash,
		RoleID:       role.ID,
		MemberSince:  now,
		LastSeen:     now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	user.Role = role

	s.logger.Info("用户注册", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
	return toUserInfo(user), nil
}

// Login 登录，account 可以是邮箱或用户名
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.findByAccount(ctx, req.Account)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	accessToken, refreshToken, err := middleware.GenerateTokenPair(tokenSubject(user))
	if err != nil {
		return nil, err
	}

	// 更新最后访问时间
	if err := s.userRepo.UpdateLastSeen(ctx, user.ID); err != nil {
		s.logger.Warn("更新最后访问时间失败", zap.Int64("user_id", user.ID), zap.Error(err))
	}

	cfg := middleware.GetJWTConfig()
	return &dto.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(cfg.AccessTokenTTL),
		User:         toUserInfo(user),
	}, nil
}

// RefreshToken 刷新 Token
func (s *AuthService) RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.RefreshTokenResponse, error) {
	claims, err := middleware.ParseToken(req.RefreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.Subject != middleware.TokenTypeRefresh {
		return nil, ErrInvalidToken
	}

	// 重新读取用户，角色权限以数据库为准
	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidToken
	}

	accessToken, refreshToken, err := middleware.GenerateTokenPair(tokenSubject(user))
	if err != nil {
		return nil, err
	}

	cfg := middleware.GetJWTConfig()
	return &dto.RefreshTokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(cfg.AccessTokenTTL),
	}, nil
}

// Profile 当前用户信息
func (s *AuthService) Profile(ctx context.Context, userID int64) (*dto.UserInfo, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return toUserInfo(user), nil
}

// ChangePassword 修改密码
func (s *AuthService) ChangePassword(ctx context.Context, userID int64, req *dto.ChangePasswordRequest) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		return ErrInvalidOldPassword
	}
	if len(req.NewPassword) < model.MinPasswordLength {
		return newValidationError("new_password", "密码长度至少 %d 位", model.MinPasswordLength)
	}

	hash, err := hashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	return s.userRepo.UpdatePassword(ctx, userID, hash)
}

func (s *AuthService) findByAccount(ctx context.Context, account string) (*model.User, error) {
	account = strings.TrimSpace(account)
	if strings.Contains(account, "@") {
		return s.userRepo.GetByEmail(ctx, strings.ToLower(account))
	}
	return s.userRepo.GetByUsername(ctx, account)
}

// ==================== 辅助函数 ====================

func tokenSubject(user *model.User) middleware.TokenSubject {
	return middleware.TokenSubject{
		UserID:      user.ID,
		Username:    user.Username,
		Role:        user.RoleName(),
		Permissions: user.Permissions(),
	}
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// validateCredentials 用户名与密码规则
func validateCredentials(username, password string) error {
	if !model.UsernamePattern.MatchString(username) {
		return newValidationError("username", "用户名只能包含字母、数字、点或下划线，且必须以字母开头")
	}
	if len(password) < model.MinPasswordLength {
		return newValidationError("password", "密码长度至少 %d 位", model.MinPasswordLength)
	}
	return nil
}

// checkUserUnique 邮箱、用户名唯一性（excludeID 为编辑中的用户）
func checkUserUnique(ctx context.Context, repo repository.UserRepository, email, username string, excludeID int64) error {
	if email != "" {
		exists, err := repo.ExistsByEmail(ctx, strings.ToLower(email), excludeID)
		if err != nil {
			return err
		}
		if exists {
			return ErrEmailExists
		}
	}
	if username != "" {
		exists, err := repo.ExistsByUsername(ctx, username, excludeID)
		if err != nil {
			return err
		}
		if exists {
			return ErrUsernameExists
		}
	}
	return nil
}

// assignRole 管理员邮箱授予 SuperAdmin，其余使用默认角色
func assignRole(ctx context.Context, repo repository.RoleRepository, email, adminEmail string) (*model.Role, error) {
	var (
		role *model.Role
		err  error
	)
	if adminEmail != "" && strings.EqualFold(email, adminEmail) {
		role, err = repo.GetByName(ctx, model.RoleSuperAdmin)
	} else {
		role, err = repo.GetDefault(ctx)
	}
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, ErrRoleNotFound
	}
	return role, nil
}

// toUserInfo 转换为 DTO
func toUserInfo(user *model.User) *dto.UserInfo {
	return &dto.UserInfo{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		RoleID:      user.RoleID,
		Role:        user.RoleName(),
		Permissions: int(user.Permissions()),
		MemberSince: user.MemberSince,
		LastSeen:    user.LastSeen,
	}
}

// ==================== 错误定义 ====================

var (
	ErrInvalidCredentials = errors.New("用户名或密码错误")
	ErrInvalidToken       = errors.New("Token 无效")
	ErrInvalidOldPassword = errors.New("旧密码错误")
	ErrUsernameExists     = errors.New("用户名已被使用")
	ErrEmailExists        = errors.New("该邮箱已被注册")
	ErrRoleNotFound       = errors.New("角色不存在，请先初始化数据库")
)
