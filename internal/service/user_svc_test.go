package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wechat_order_v1/internal/api/dto"
	"wechat_order_v1/internal/model"
	"wechat_order_v1/internal/repository"
)

func TestUserService_CRUD(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	svc := NewUserService(f.uow.Users, f.uow.Roles, f.uow.Orders, zap.NewNop())

	roles, err := svc.ListRoles(ctx)
	require.NoError(t, err)
	require.Len(t, roles, 3)
	adminRole, _ := f.uow.Roles.GetByName(ctx, model.RoleAdmin)

	created, err := svc.CreateUser(ctx, &dto.CreateUserRequest{Email: "carol@example.com", Username: "carol", Password: "password1", RoleID: adminRole.ID})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, created.Role)

	_, err = svc.CreateUser(ctx, &dto.CreateUserRequest{Email: "x@example.com", Username: "x", Password: "password1", RoleID: 999})
	assert.ErrorIs(t, err, ErrRoleNotFound)

	updated, err := svc.UpdateUser(ctx, created.ID, &dto.UpdateUserRequest{Username: "carol2"})
	require.NoError(t, err)
	assert.Equal(t, "carol2", updated.Username)
	_, err = svc.UpdateUser(ctx, created.ID, &dto.UpdateUserRequest{Username: "alice"})
	assert.ErrorIs(t, err, ErrUsernameExists)

	list, err := svc.ListUsers(ctx, &dto.UserListRequest{Keyword: "carol"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.Total)

	all, err := svc.ListSubmitters(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	require.NoError(t, svc.DeleteUser(ctx, viewerOf(f.admin), created.ID))
	_, err = svc.GetUser(ctx, created.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserService_DeleteRules(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	svc := NewUserService(f.uow.Users, f.uow.Roles, f.uow.Orders, zap.NewNop())

	assert.ErrorIs(t, svc.DeleteUser(ctx, viewerOf(f.admin), f.admin.ID), ErrCannotDeleteSelf)

	_, err := f.orders.Create(ctx, viewerOf(f.alice), f.saveReq("U1", "张三", "zs001", ""))
	require.NoError(t, err)
	assert.ErrorIs(t, svc.DeleteUser(ctx, viewerOf(f.admin), f.alice.ID), ErrUserHasOrders)
	assert.ErrorIs(t, svc.DeleteUser(ctx, viewerOf(f.admin), 999), ErrUserNotFound)
}

func TestOrderTypeService(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	svc := NewOrderTypeService(f.uow.OrderTypes, f.uow.Orders, zap.NewNop())

	inactive := false
	lightbox, err := svc.Create(ctx, &dto.OrderTypeRequest{Name: " 灯箱 ", IsActive: &inactive})
	require.NoError(t, err)
	assert.Equal(t, "灯箱", lightbox.Name)
	assert.False(t, lightbox.IsActive)
	stored, err := f.uow.OrderTypes.GetByID(ctx, lightbox.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive, "停用状态应写入数据库")

	_, err = svc.Create(ctx, &dto.OrderTypeRequest{Name: "海报"})
	assert.ErrorIs(t, err, ErrOrderTypeExists)
	_, err = svc.Create(ctx, &dto.OrderTypeRequest{Name: " "})
	assert.ErrorIs(t, err, ErrValidation)

	active, err := svc.List(ctx, true)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	updated, err := svc.Update(ctx, lightbox.ID, &dto.OrderTypeRequest{Name: "灯箱片", Description: "d"})
	require.NoError(t, err)
	assert.Equal(t, "灯箱片", updated.Name)
	assert.False(t, updated.IsActive)

	_, err = f.orders.Create(ctx, viewerOf(f.alice), f.saveReq("T1", "张三", "zs001", ""))
	require.NoError(t, err)
	err = svc.Delete(ctx, f.poster.ID)
	assert.ErrorIs(t, err, ErrOrderTypeInUse)
	assert.Contains(t, err.Error(), "1 个订单")

	require.NoError(t, svc.Delete(ctx, lightbox.ID))
	assert.ErrorIs(t, svc.Delete(ctx, lightbox.ID), ErrOrderTypeNotFound)
}

func TestOrderFieldService(t *testing.T) {
	db := setupServiceTestDB(t)
	ctx := context.Background()
	require.NoError(t, seedOrderFields(ctx, db))
	repo := repository.NewOrderFieldRepository(db)
	svc := NewOrderFieldService(repo, zap.NewNop())

	_, err := svc.Create(ctx, &dto.OrderFieldRequest{Name: "amount", FieldType: model.FieldTypeNumber})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.Create(ctx, &dto.OrderFieldRequest{Name: "尺寸", FieldType: "blob"})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.Create(ctx, &dto.OrderFieldRequest{Name: "订单编码", FieldType: model.FieldTypeText})
	assert.ErrorIs(t, err, ErrOrderFieldExists)

	size, err := svc.Create(ctx, &dto.OrderFieldRequest{Name: "尺寸", FieldType: model.FieldTypeNumber, Order: 20})
	require.NoError(t, err)

	fields, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, fields, len(model.DefaultOrderFields)+1)
	assert.Equal(t, "尺寸", fields[len(fields)-1].Name)

	updated, err := svc.Update(ctx, size.ID, &dto.OrderFieldRequest{Name: "规格", FieldType: model.FieldTypeText, Required: true, Order: 20})
	require.NoError(t, err)
	assert.True(t, updated.Required)

	// 默认字段受保护
	_, err = svc.Update(ctx, fields[0].ID, &dto.OrderFieldRequest{Name: "x", FieldType: model.FieldTypeText})
	assert.ErrorIs(t, err, ErrDefaultField)
	assert.ErrorIs(t, svc.Delete(ctx, fields[0].ID), ErrDefaultField)

	require.NoError(t, svc.Delete(ctx, size.ID))
	assert.ErrorIs(t, svc.Delete(ctx, size.ID), ErrOrderFieldNotFound)
}
