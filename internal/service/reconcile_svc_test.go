package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"wechat_order_v1/internal/model"
	"wechat_order_v1/internal/repository"
)

// insertLegacyOrder 直接写库，模拟没有经过建档流程的历史订单
func insertLegacyOrder(t *testing.T, db *gorm.DB, userID int64, code, name, wechatID, phone string, created time.Time) {
	t.Helper()
	o := &model.Order{
		OrderCode:  code,
		WechatName: name,
		WechatID:   wechatID,
		Phone:      phone,
		OrderInfo:  "info",
		Quantity:   1,
		Status:     model.OrderStatusIncomplete,
		UserID:     userID,
	}
	o.CreatedAt = created
	require.NoError(t, db.Omit("User", "OrderType", "Images").Create(o).Error)
}

func TestReconcileService_Collect(t *testing.T) {
	db := setupServiceTestDB(t)
	ctx := context.Background()
	uow := repository.NewUnitOfWork(db)
	user := createUser(t, db, "alice", model.RoleUser)
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.Local)

	insertLegacyOrder(t, db, user.ID, "O1", "", "", "13800000001", base)
	insertLegacyOrder(t, db, user.ID, "O2", "张三", "zs001", " 13800000001 ", base.Add(time.Hour))
	insertLegacyOrder(t, db, user.ID, "O3", "", "", "13800000002", base)
	insertLegacyOrder(t, db, user.ID, "O4", "王五", "lw001", "13800000003", base)
	insertLegacyOrder(t, db, user.ID, "O5", "", "only01", "13800000004", base)

	require.NoError(t, uow.WechatUsers.Create(ctx, &model.WechatUser{WechatName: "老王", Phone: model.StringPtr("13800000003")}))

	svc := NewReconcileService(uow, zap.NewNop())
	result, err := svc.Collect(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 1, result.Updated)

	wu, err := uow.WechatUsers.GetByPhone(ctx, "13800000001")
	require.NoError(t, err)
	require.NotNil(t, wu)
	assert.Equal(t, "张三", wu.WechatName)
	assert.Equal(t, "zs001", wu.WechatID)

	// 只补空字段，不覆盖已有微信名
	wu, err = uow.WechatUsers.GetByPhone(ctx, "13800000003")
	require.NoError(t, err)
	assert.Equal(t, "老王", wu.WechatName)
	assert.Equal(t, "lw001", wu.WechatID)

	wu, err = uow.WechatUsers.GetByPhone(ctx, "13800000004")
	require.NoError(t, err)
	require.NotNil(t, wu)
	assert.Equal(t, "用户_13800000004", wu.WechatName)

	// 没有任何身份信息的手机号不建档
	wu, err = uow.WechatUsers.GetByPhone(ctx, "13800000002")
	require.NoError(t, err)
	assert.Nil(t, wu)

	// 重复执行无变化
	result, err = svc.Collect(ctx)
	require.NoError(t, err)
	assert.Zero(t, result.Created)
	assert.Zero(t, result.Updated)
}

func TestReconcileService_Refresh(t *testing.T) {
	db := setupServiceTestDB(t)
	ctx := context.Background()
	uow := repository.NewUnitOfWork(db)
	user := createUser(t, db, "alice", model.RoleUser)
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.Local)

	insertLegacyOrder(t, db, user.ID, "O1", "张三", "zs001", "13800000001", base)
	insertLegacyOrder(t, db, user.ID, "O2", "张三丰", "zs001", "13800000001", base.Add(time.Hour))
	insertLegacyOrder(t, db, user.ID, "O3", "李四", "ls001", "13800000002", base)

	stale := &model.WechatUser{WechatName: "张三", WechatID: "zs001", Phone: model.StringPtr("13800000001")}
	noID := &model.WechatUser{WechatName: "李四", Phone: model.StringPtr("13800000002")}
	empty := &model.WechatUser{WechatName: "空档案"}
	for _, wu := range []*model.WechatUser{stale, noID, empty} {
		require.NoError(t, uow.WechatUsers.Create(ctx, wu))
	}

	svc := NewReconcileService(uow, zap.NewNop())
	result, err := svc.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Updated)
	assert.Equal(t, 1, result.Cleaned)

	got, err := uow.WechatUsers.GetByID(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, "张三丰", got.WechatName)

	got, err = uow.WechatUsers.GetByID(ctx, noID.ID)
	require.NoError(t, err)
	assert.Equal(t, "ls001", got.WechatID)

	got, err = uow.WechatUsers.GetByID(ctx, empty.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestReconcileService_RejectsConcurrentRun(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewReconcileService(repository.NewUnitOfWork(db), zap.NewNop())

	svc.mu.Lock()
	_, err := svc.Collect(context.Background())
	assert.ErrorIs(t, err, ErrReconcileRunning)
	_, err = svc.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrReconcileRunning)
	svc.mu.Unlock()

	_, err = svc.Collect(context.Background())
	assert.NoError(t, err)
}
