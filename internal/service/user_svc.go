package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"wechat_order_v1/internal/api/dto"
	"wechat_order_v1/internal/model"
	"wechat_order_v1/internal/repository"
)

// ==================== UserService 用户管理 ====================

// UserService 用户管理（管理员）
type UserService struct {
	userRepo  repository.UserRepository
	roleRepo  repository.RoleRepository
	orderRepo repository.OrderRepository
	logger    *zap.Logger
}

// NewUserService 创建用户服务
func NewUserService(userRepo repository.UserRepository, roleRepo repository.RoleRepository, orderRepo repository.OrderRepository, logger *zap.Logger) *UserService {
	return &UserService{userRepo: userRepo, roleRepo: roleRepo, orderRepo: orderRepo, logger: logger}
}

// ListUsers 用户列表
func (s *UserService) ListUsers(ctx context.Context, req *dto.UserListRequest) (*dto.UserListResponse, error) {
	users, total, err := s.userRepo.List(ctx, repository.UserFilter{
		Keyword:  req.Keyword,
		RoleID:   req.RoleID,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		return nil, err
	}

	list := make([]*dto.UserInfo, len(users))
	for i := range users {
		list[i] = toUserInfo(&users[i])
	}
	return &dto.UserListResponse{List: list, Total: total}, nil
}

// GetUser 用户详情
func (s *UserService) GetUser(ctx context.Context, id int64) (*dto.UserInfo, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return toUserInfo(user), nil
}

// CreateUser 创建用户
func (s *UserService) CreateUser(ctx context.Context, req *dto.CreateUserRequest) (*dto.UserInfo, error) {
	if err := validateCredentials(req.Username, req.Password); err != nil {
		return nil, err
	}
	if err := checkUserUnique(ctx, s.userRepo, req.Email, req.Username, 0); err != nil {
		return nil, err
	}
	role, err := s.getRole(ctx, req.RoleID)
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
	return toUserInfo(user), nil
}

// UpdateUser 更新用户，密码为空时不修改
func (s *UserService) UpdateUser(ctx context.Context, id int64, req *dto.UpdateUserRequest) (*dto.UserInfo, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if err := checkUserUnique(ctx, s.userRepo, req.Email, req.Username, id); err != nil {
		return nil, err
	}
	if req.Email != "" {
		user.Email = strings.ToLower(req.Email)
	}
	if req.Username != "" {
		if !model.UsernamePattern.MatchString(req.Username) {
			return nil, newValidationError("username", "用户名只能包含字母、数字、点或下划线，且必须以字母开头")
		}
		user.Username = req.Username
	}
	if req.RoleID > 0 && req.RoleID != user.RoleID {
		role, err := s.getRole(ctx, req.RoleID)
		if err != nil {
			return nil, err
		}
		user.RoleID = role.ID
		user.Role = role
	}
	if req.Password != "" {
		if len(req.Password) < model.MinPasswordLength {
			return nil, newValidationError("password", "密码长度至少 %d 位", model.MinPasswordLength)
		}
		hash, err := hashPassword(req.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return toUserInfo(user), nil
}

// DeleteUser 删除用户：不能删除自己，有订单的用户不能删除
func (s *UserService) DeleteUser(ctx context.Context, viewer Viewer, id int64) error {
	if viewer.UserID == id {
		return ErrCannotDeleteSelf
	}
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	count, err := s.orderRepo.CountByUser(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrUserHasOrders
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("删除用户", zap.Int64("user_id", id), zap.Int64("operator", viewer.UserID))
	return nil
}

// ListRoles 角色列表
func (s *UserService) ListRoles(ctx context.Context) ([]dto.RoleInfo, error) {
	roles, err := s.roleRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	list := make([]dto.RoleInfo, len(roles))
	for i, r := range roles {
		list[i] = dto.RoleInfo{ID: r.ID, Name: r.Name, IsDefault: r.IsDefault, Permissions: int(r.Permissions)}
	}
	return list, nil
}

// ListSubmitters 全部用户（订单筛选下拉）
func (s *UserService) ListSubmitters(ctx context.Context) ([]*dto.UserInfo, error) {
	users, err := s.userRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	list := make([]*dto.UserInfo, len(users))
	for i := range users {
		list[i] = toUserInfo(&users[i])
	}
	return list, nil
}

func (s *UserService) getRole(ctx context.Context, id int64) (*model.Role, error) {
	role, err := s.roleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, ErrRoleNotFound
	}
	return role, nil
}

// ==================== 错误定义 ====================

var (
	ErrUserNotFound     = errors.New("用户不存在")
	ErrCannotDeleteSelf = errors.New("不能删除当前登录的账号")
	ErrUserHasOrders    = errors.New("该用户还有订单，不能删除")
)
