package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wechat_order_v1/internal/api/dto"
	"wechat_order_v1/internal/middleware"
	"wechat_order_v1/internal/model"
	"wechat_order_v1/internal/repository"
)

func newAuthService(t *testing.T) (*AuthService, repository.UserRepository) {
	db := setupServiceTestDB(t)
	users := repository.NewUserRepository(db)
	return NewAuthService(users, repository.NewRoleRepository(db), "boss@example.com", zap.NewNop()), users
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	info, err := svc.Register(ctx, &dto.RegisterRequest{
		Email: "Alice@Example.com", Username: "alice", Password: "password1", Password2: "password1",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", info.Email)
	assert.Equal(t, model.RoleUser, info.Role)
	assert.Equal(t, int(model.PermViewOwn|model.PermSubmit), info.Permissions)

	// 邮箱或用户名都可以登录
	for _, account := range []string{"alice", "ALICE@example.com"} {
		resp, err := svc.Login(ctx, &dto.LoginRequest{Account: account, Password: "password1"})
		require.NoError(t, err, account)
		assert.NotEmpty(t, resp.AccessToken)
		assert.Equal(t, "alice", resp.User.Username)

		claims, err := middleware.ParseToken(resp.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, info.ID, claims.UserID)
	}

	_, err = svc.Login(ctx, &dto.LoginRequest{Account: "alice", Password: "wrong-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, &dto.LoginRequest{Account: "nobody", Password: "password1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_RegisterRules(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, &dto.RegisterRequest{Email: "a@example.com", Username: "alice", Password: "password1", Password2: "password2"})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.Register(ctx, &dto.RegisterRequest{Email: "a@example.com", Username: "1alice", Password: "password1", Password2: "password1"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Register(ctx, &dto.RegisterRequest{Email: "a@example.com", Username: "alice", Password: "password1", Password2: "password1"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, &dto.RegisterRequest{Email: "a@example.com", Username: "alice2", Password: "password1", Password2: "password1"})
	assert.ErrorIs(t, err, ErrEmailExists)
	_, err = svc.Register(ctx, &dto.RegisterRequest{Email: "b@example.com", Username: "alice", Password: "password1", Password2: "password1"})
	assert.ErrorIs(t, err, ErrUsernameExists)

	// 管理员邮箱注册即为超级管理员
	info, err := svc.Register(ctx, &dto.RegisterRequest{Email: "boss@example.com", Username: "boss", Password: "password1", Password2: "password1"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleSuperAdmin, info.Role)
}

func TestAuthService_RefreshAndPassword(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	info, err := svc.Register(ctx, &dto.RegisterRequest{Email: "a@example.com", Username: "alice", Password: "password1", Password2: "password1"})
	require.NoError(t, err)
	login, err := svc.Login(ctx, &dto.LoginRequest{Account: "alice", Password: "password1"})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(ctx, &dto.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	// access token 不能用来刷新
	_, err = svc.RefreshToken(ctx, &dto.RefreshTokenRequest{RefreshToken: login.AccessToken})
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = svc.RefreshToken(ctx, &dto.RefreshTokenRequest{RefreshToken: "garbage"})
	assert.ErrorIs(t, err, ErrInvalidToken)

	err = svc.ChangePassword(ctx, info.ID, &dto.ChangePasswordRequest{OldPassword: "bad", NewPassword: "newpassword"})
	assert.ErrorIs(t, err, ErrInvalidOldPassword)
	require.NoError(t, svc.ChangePassword(ctx, info.ID, &dto.ChangePasswordRequest{OldPassword: "password1", NewPassword: "newpassword"}))

	_, err = svc.Login(ctx, &dto.LoginRequest{Account: "alice", Password: "newpassword"})
	assert.NoError(t, err)

	profile, err := svc.Profile(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", profile.Username)
	_, err = svc.Profile(ctx, 999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
