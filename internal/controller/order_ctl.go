package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wechat_order_v1/internal/api/dto"
	"wechat_order_v1/internal/service"
)

// OrderController 订单控制器
type OrderController struct {
	svc      *service.OrderService
	feeRules service.FeeRules
}

// NewOrderController 创建订单控制器
func NewOrderController(svc *service.OrderService, feeRules service.FeeRules) *OrderController {
	return &OrderController{svc: svc, feeRules: feeRules}
}

// ==================== 订单列表与详情 ====================

// List 订单列表
// @Summary 订单列表
// @Description 未传日期时默认当月；无查看全部权限时只返回自己的订单
// @Tags Orders
// @Produce json
// @Security BearerAuth
// @Param user_id query int false "提交人ID（需查看全部权限）"
// @Param start_date query string false "完成时间起 YYYY-MM-DD"
// @Param end_date query string false "完成时间止 YYYY-MM-DD"
// @Param search_type query string false "order_code / wechat_name / wechat_id / phone"
// @Param search query string false "搜索内容"
// @Param order_type_id query int false "订单类型"
// @Param status query string false "状态"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} dto.OrderListResponse
// @Router /orders [get]
func (c *OrderController) List(ctx *gin.Context) {
	var req dto.OrderListRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	resp, err := c.svc.List(ctx.Request.Context(), viewerOf(ctx), &req)
	if err != nil {
		handleError(ctx, err)
		return
	}
	success(ctx, "success", resp)
}

// Get 订单详情
// @Summary 订单详情
// @Tags Orders
// @Produce json
// @Security BearerAuth
// @Param id path int true "订单ID"
// @Success 200 {object} dto.OrderVO
// @Failure 403 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /orders/{id} [get]
func (c *OrderController) Get(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}

	order, err := c.svc.Get(ctx.Request.Context(), viewerOf(ctx), id)
	if err != nil {
		handleError(ctx, err)
		return
	}
	success(ctx, "success", order)
}

// ==================== 新增 / 编辑 / 删除 ====================

// Create 新增订单
// @Summary 新增订单
// @Tags Orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.SaveOrderRequest true "订单"
// @Success 200 {object} dto.OrderVO
// @Failure 400 {object} map[string]interface{}
// @Router /orders [post]
func (c *OrderController) Create(ctx *gin.Context) {
	var req dto.SaveOrderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	order, err := c.svc.Create(ctx.Request.Context(), viewerOf(ctx), &req)
	if err != nil {
		handleError(ctx, err)
		return
	}
	success(ctx, "订单添加成功", order)
}

// QuickAdd 快速录单
// @Summary 快速录单
// @Description 完成时间默认当天，订单类型可不填
// @Tags Orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.QuickAddRequest true "订单"
// @Success 200 {object} dto.OrderVO
// @Router /orders/quick [post]
func (c *OrderController) QuickAdd(ctx *gin.Context) {
	var req dto.QuickAddRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	order, err := c.svc.QuickAdd(ctx.Request.Context(), viewerOf(ctx), &req)
	if err != nil {
		handleError(ctx, err)
		return
	}
	success(ctx, "订单添加成功", order)
}

// Update 编辑订单
// @Summary 编辑订单
// @Tags Orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "订单ID"
// @Param request body dto.SaveOrderRequest true "订单"
// @Success 200 {object} dto.OrderVO
// @Router /orders/{id} [put]
func (c *OrderController) Update(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var req dto.SaveOrderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	order, err := c.svc.Update(ctx.Request.Context(), viewerOf(ctx), id, &req)
	if err != nil {
		handleError(ctx, err)
		return
	}
	success(ctx, "订单更新成功", order)
}

// Delete 删除订单
// @Summary 删除订单
// @Tags Orders
// @Produce json
// @Security BearerAuth
// @Param id path int true "订单ID"
// @Success 200 {object} map[string]interface{}
// @Router /orders/{id} [delete]
func (c *OrderController) Delete(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}

	if err := c.svc.Delete(ctx.Request.Context(), viewerOf(ctx), id); err != nil {
		handleError(ctx, err)
		return
	}
	success(ctx, "订单已删除", nil)
}

// ==================== 图片 ====================

// UploadImages 上传订单图片
// @Summary 上传订单图片
// @Tags Orders
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "订单ID"
// @Param images formData file true "图片，可多选"
// @Success 200 {array} dto.OrderImageVO
// @Router /orders/{id}/images [post]
func (c *OrderController) UploadImages(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	files, err := formFiles(ctx, "images")
	if err != nil {
		badRequest(ctx, err)
		return
	}
	if len(files) == 0 {
		fail(ctx, http.StatusBadRequest, "请选择要上传的图片")
		return
	}

	images, err := c.svc.UploadImages(ctx.Request.Context(), viewerOf(ctx), id, files)
	if err != nil {
		handleError(ctx, err)
		return
	}
	success(ctx, "上传成功", images)
}

// DeleteImage 删除订单图片
// @Summary 删除订单图片
// @Tags Orders
// @Produce json
// @Security BearerAuth
// @Param image_id path int true "图片ID"
// @Success 200 {object} map[string]interface{}
// @Router /orders/images/{image_id} [delete]
func (c *OrderController) DeleteImage(ctx *gin.Context) {
	id, ok := paramID(ctx, "image_id")
	if !ok {
		return
	}

	if err := c.svc.DeleteImage(ctx.Request.Context(), viewerOf(ctx), id); err != nil {
		handleError(ctx, err)
		return
	}
	success(ctx, "图片已删除", nil)
}

// ==================== 状态 / 批量（管理员） ====================

// UpdateStatus 修改订单状态
// @Summary 修改订单状态
// @Tags Orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "订单ID"
// @Param request body dto.UpdateStatusRequest true "状态：未完成 / 已结算 / 未结算"
// @Success 200 {object} map[string]interface{}
// @Router /orders/{id}/status [put]
func (c *OrderController) UpdateStatus(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var req dto.UpdateStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	if err := c.svc.UpdateStatus(ctx.Request.Context(), id, req.Status); err != nil {
		handleError(ctx, err)
		return
	}
	success(ctx, "状态已更新", nil)
}

// BatchUpdateStatus 批量修改状态
// @Summary 批量修改状态
// @Tags Orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.BatchStatusRequest true "订单ID与状态"
// @Success 200 {object} dto.BatchResult
// @Router /orders/batch/status [post]
func (c *OrderController) BatchUpdateStatus(ctx *gin.Context) {
	var req dto.BatchStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	affected, err := c.svc.BatchUpdateStatus(ctx.Request.Context(), req.IDs, req.Status)
	if err != nil {
		handleError(ctx, err)
		return
	}
	success(ctx, "状态已更新", dto.BatchResult{Affected: affected})
}

// BatchDelete 批量删除
// @Summary 批量删除订单
// @Tags Orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.BatchDeleteRequest true "订单ID"
// @Success 200 {object} dto.BatchResult
// @Router /orders/batch/delete [post]
func (c *OrderController) BatchDelete(ctx *gin.Context) {
	var req dto.BatchDeleteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	affected, err := c.svc.BatchDelete(ctx.Request.Context(), req.IDs)
	if err != nil {
		handleError(ctx, err)
		return
	}
	success(ctx, "订单已删除", dto.BatchResult{Affected: affected})
}

// ==================== 工具 ====================

// GenerateCode 生成订单编码
// @Summary 生成订单编码
// @Tags Orders
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.GenerateCodeResponse
// @Router /orders/generate-code [get]
func (c *OrderController) GenerateCode(ctx *gin.Context) {
	code, err := c.svc.GenerateCode(ctx.Request.Context())
	if err != nil {
		handleError(ctx, err)
		return
	}
	success(ctx, "success", dto.GenerateCodeResponse{OrderCode: code})
}

// CalculateFee 费用试算，不修改订单金额
// @Summary 费用试算
// @Tags Orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CalculateFeeRequest true "基础金额"
// @Success 200 {object} dto.FeeBreakdown
// @Router /orders/calculate [post]
func (c *OrderController) CalculateFee(ctx *gin.Context) {
	var req dto.CalculateFeeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}
	success(ctx, "success", service.CalculateFee(c.feeRules, &req))
}
