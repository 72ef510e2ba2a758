package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wechat_order_v1/internal/api/dto"
	"wechat_order_v1/internal/model"
)

func TestWechatUserService_ListAndDetail(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	_, err := f.orders.Create(ctx, viewerOf(f.alice), f.saveReq("W1", "张三", "zs001", "13800138000"))
	require.NoError(t, err)
	second := f.saveReq("W2", "张三", "zs001", "13800138000")
	second.CompletionTime = "2024-05-15"
	_, err = f.orders.Create(ctx, viewerOf(f.alice), second)
	require.NoError(t, err)
	// 没有微信号的订单不会建档，计入未采集手机号
	_, err = f.orders.Create(ctx, viewerOf(f.bob), f.saveReq("W3", "李四", "", "13900139000"))
	require.NoError(t, err)

	list, err := f.wechat.List(ctx, &dto.WechatUserListRequest{})
	require.NoError(t, err)
	require.Equal(t, int64(1), list.Total)
	assert.Equal(t, int64(1), list.UncollectedCount)

	id := list.List[0].ID
	detail, err := f.wechat.Detail(ctx, id, &dto.WechatUserDetailRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, detail.TotalOrders)
	assert.Equal(t, "200", detail.TotalAmount.String())
	assert.Equal(t, "100", detail.AvgAmount.String())
	// 按完成时间倒序
	assert.Equal(t, "W2", detail.Orders[0].OrderCode)

	detail, err = f.wechat.Detail(ctx, id, &dto.WechatUserDetailRequest{StartDate: "2024-05-12", EndDate: "2024-05-31"})
	require.NoError(t, err)
	require.Equal(t, 1, detail.TotalOrders)
	assert.Equal(t, "W2", detail.Orders[0].OrderCode)

	_, err = f.wechat.Detail(ctx, 999, &dto.WechatUserDetailRequest{})
	assert.ErrorIs(t, err, ErrWechatUserNotFound)
}

func TestWechatUserService_Update(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	a := &model.WechatUser{WechatName: "张三", WechatID: "zs001", Phone: model.StringPtr("13800138000")}
	b := &model.WechatUser{WechatName: "李四", WechatID: "ls001"}
	require.NoError(t, f.uow.WechatUsers.Create(ctx, a))
	require.NoError(t, f.uow.WechatUsers.Create(ctx, b))

	// 手机号已被其他档案占用
	_, err := f.wechat.Update(ctx, b.ID, &dto.UpdateWechatUserRequest{WechatName: "李四", WechatID: "ls001", Phone: "13800138000"})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "张三(zs001)")

	// 微信号重复
	_, err = f.wechat.Update(ctx, b.ID, &dto.UpdateWechatUserRequest{WechatName: "李四", WechatID: "zs001", Phone: "13900139000"})
	assert.ErrorIs(t, err, ErrValidation)

	vo, err := f.wechat.Update(ctx, b.ID, &dto.UpdateWechatUserRequest{
		WechatName: "李四四", WechatID: "ls001", Phone: "13900139000", Email: " li@example.com ", Address: "上海",
	})
	require.NoError(t, err)
	assert.Equal(t, "李四四", vo.WechatName)
	assert.Equal(t, "13900139000", vo.Phone)
	assert.Equal(t, "li@example.com", vo.Email)
}

func TestWechatUserService_UpdateRejectsPhoneUsedByOrders(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	_, err := f.orders.Create(ctx, viewerOf(f.alice), f.saveReq("W1", "王五", "", "13700137000"))
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&model.Order{}).Where("order_code = ?", "W1").Update("wechat_id", "ww001").Error)

	wu := &model.WechatUser{WechatName: "赵六", WechatID: "zl001"}
	require.NoError(t, f.uow.WechatUsers.Create(ctx, wu))

	_, err = f.wechat.Update(ctx, wu.ID, &dto.UpdateWechatUserRequest{WechatName: "赵六", WechatID: "zl001", Phone: "13700137000"})
	assert.ErrorIs(t, err, ErrValidation)

	// 微信号为空时不检查订单
	_, err = f.wechat.Update(ctx, wu.ID, &dto.UpdateWechatUserRequest{WechatName: "赵六", Phone: "13700137000"})
	assert.NoError(t, err)
}

func TestWechatUserService_UploadAssets(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	wu := &model.WechatUser{WechatName: "张三", WechatID: "zs001"}
	require.NoError(t, f.uow.WechatUsers.Create(ctx, wu))

	_, err := f.wechat.UploadAvatar(ctx, wu.ID, nil, "")
	assert.ErrorIs(t, err, ErrValidation)

	vo, err := f.wechat.UploadAvatar(ctx, wu.ID, &UploadFile{Filename: "a.png", Data: []byte("png")}, "")
	require.NoError(t, err)
	first := vo.Avatar
	assert.True(t, f.storage.has(first))

	// 替换后删除旧文件
	vo, err = f.wechat.UploadAvatar(ctx, wu.ID, nil, "https://example.com/b.png")
	require.NoError(t, err)
	assert.NotEqual(t, first, vo.Avatar)
	assert.False(t, f.storage.has(first))

	vo, err = f.wechat.UploadQRCode(ctx, wu.ID, &UploadFile{Filename: "qr.jpg", Data: []byte("jpg")}, "")
	require.NoError(t, err)
	assert.Contains(t, vo.PaymentQRCode, DirQRCodes)
}

func TestWechatUserService_Delete(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	created, err := f.orders.Create(ctx, viewerOf(f.alice), f.saveReq("D1", "张三", "zs001", "13800138000"))
	require.NoError(t, err)
	images, err := f.orders.UploadImages(ctx, viewerOf(f.alice), created.ID, []UploadFile{{Filename: "a.png", Data: []byte("x")}})
	require.NoError(t, err)

	wu, err := f.uow.WechatUsers.GetByWechatID(ctx, "zs001")
	require.NoError(t, err)

	resp, err := f.wechat.Delete(ctx, wu.ID, false)
	require.NoError(t, err)
	assert.False(t, resp.Deleted)
	assert.True(t, resp.HasOrders)
	assert.Equal(t, 1, resp.OrdersCount)

	before := f.stats.count()
	resp, err = f.wechat.Delete(ctx, wu.ID, true)
	require.NoError(t, err)
	assert.True(t, resp.Deleted)
	assert.Equal(t, before+1, f.stats.count())
	assert.False(t, f.storage.has(images[0].ImagePath))

	exists, err := f.uow.Orders.ExistsByCode(ctx, "D1", 0)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = f.wechat.Delete(ctx, wu.ID, true)
	assert.ErrorIs(t, err, ErrWechatUserNotFound)
}
