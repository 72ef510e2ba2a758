package controller

import (
	"context"

	"github.com/gin-gonic/gin"

	"wechat_order_v1/internal/api/dto"
	"wechat_order_v1/internal/service"
)

// WechatUserController 微信用户（需要查看全部订单权限）
type WechatUserController struct {
	svc *service.WechatUserService
}

// NewWechatUserController 创建控制器
func NewWechatUserController(svc *service.WechatUserService) *WechatUserController {
	return &WechatUserController{svc: svc}
}

// List 微信用户列表
// @Summary 微信用户列表
// @Description 返回结果附带尚未采集的订单手机号数量
// @Tags WechatUsers
// @Produce json
// @Security BearerAuth
// @Param search query string false "微信名 / 微信号 / 手机号"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} dto.WechatUserListResponse
// @Router /wechat-users [get]
func (c *WechatUserController) List(ctx *gin.Context) {
	var req dto.WechatUserListRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	resp, err := c.svc.List(ctx.Request.Context(), &req)
	if err != nil {
		handleError(ctx, err)
		return
	}
	success(ctx, "success", resp)
}

// Detail 微信用户详情及其订单
// @Summary 微信用户详情
// @Tags WechatUsers
// @Produce json
// @Security BearerAuth
// @Param id path int true "微信用户ID"
// @Param start_date query string false "开始日期"
// @Param end_date query string false "结束日期"
// @Param order_type_id query int false "订单类型"
// @Success 200 {object} dto.WechatUserDetailResponse
// @Router /wechat-users/{id} [get]
func (c *WechatUserController) Detail(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var req dto.WechatUserDetailRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	resp, err := c.svc.Detail(ctx.Request.Context(), id, &req)
	if err != nil {
		handleError(ctx, err)
		return
	}
	success(ctx, "success", resp)
}

// Update 编辑微信用户
// @Summary 编辑微信用户
// @Tags WechatUsers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "微信用户ID"
// @Param request body dto.UpdateWechatUserRequest true "微信用户"
// @Success 200 {object} dto.WechatUserVO
// @Router /wechat-users/{id} [put]
func (c *WechatUserController) Update(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var req dto.UpdateWechatUserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	user, err := c.svc.Update(ctx.Request.Context(), id, &req)
	if err != nil {
		handleError(ctx, err)
		return
	}
	success(ctx, "微信用户信息已更新", user)
}

// Delete 删除微信用户
// @Summary 删除微信用户
// @Description 有关联订单且未传 force=1 时只返回订单数量，不删除
// @Tags WechatUsers
// @Produce json
// @Security BearerAuth
// @Param id path int true "微信用户ID"
// @Param force query int false "1 同时删除关联订单"
// @Success 200 {object} dto.DeleteWechatUserResponse
// @Router /wechat-users/{id} [delete]
func (c *WechatUserController) Delete(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}

	resp, err := c.svc.Delete(ctx.Request.Context(), id, ctx.Query("force") == "1")
	if err != nil {
		handleError(ctx, err)
		return
	}
	success(ctx, resp.Message, resp)
}

// UploadAvatar 上传头像
// @Summary 上传头像
// @Description 上传文件或提供图片地址，二选一
// @Tags WechatUsers
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "微信用户ID"
// @Param file formData file false "图片文件"
// @Param source_url formData string false "图片地址"
// @Success 200 {object} dto.WechatUserVO
// @Router /wechat-users/{id}/avatar [post]
func (c *WechatUserController) UploadAvatar(ctx *gin.Context) {
	c.upload(ctx, c.svc.UploadAvatar)
}

// UploadQRCode 上传收款码
// @Summary 上传收款码
// @Tags WechatUsers
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "微信用户ID"
// @Param file formData file false "图片文件"
// @Param source_url formData string false "图片地址"
// @Success 200 {object} dto.WechatUserVO
// @Router /wechat-users/{id}/qr-code [post]
func (c *WechatUserController) UploadQRCode(ctx *gin.Context) {
	c.upload(ctx, c.svc.UploadQRCode)
}

type uploadFunc func(ctx context.Context, id int64, file *service.UploadFile, sourceURL string) (*dto.WechatUserVO, error)

func (c *WechatUserController) upload(ctx *gin.Context, fn uploadFunc) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var req dto.UploadFromURLRequest
	if err := ctx.ShouldBind(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	var file *service.UploadFile
	if fh, err := ctx.FormFile("file"); err == nil {
		f, err := readFile(fh)
		if err != nil {
			handleError(ctx, err)
			return
		}
		file = &f
	}

	user, err := fn(ctx.Request.Context(), id, file, req.SourceURL)
	if err != nil {
		handleError(ctx, err)
		return
	}
	success(ctx, "上传成功", user)
}
