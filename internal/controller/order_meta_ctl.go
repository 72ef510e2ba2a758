package controller

import (
	"github.com/gin-gonic/gin"

	"wechat_order_v1/internal/api/dto"
	"wechat_order_v1/internal/service"
)

// ==================== 订单类型 ====================

// OrderTypeController 订单类型
type OrderTypeController struct {
	svc *service.OrderTypeService
}

// NewOrderTypeController 创建控制器
func NewOrderTypeController(svc *service.OrderTypeService) *OrderTypeController {
	return &OrderTypeController{svc: svc}
}

// List 订单类型列表
// @Summary 订单类型列表
// @Tags OrderMeta
// @Produce json
// @Security BearerAuth
// @Param active query int false "1 只返回启用的类型"
// @Success 200 {array} model.OrderType
// @Router /order-types [get]
func (c *OrderTypeController) List(ctx *gin.Context) {
	types, err := c.svc.List(ctx.Request.Context(), ctx.Query("active") == "1")
	if err != nil {
		handleError(ctx, err)
		return
	}
	success(ctx, "success", types)
}

// Create 新增订单类型
// @Summary 新增订单类型
// @Tags OrderMeta
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.OrderTypeRequest true "订单类型"
// @Success 200 {object} model.OrderType
// @Router /order-types [post]
func (c *OrderTypeController) Create(ctx *gin.Context) {
	var req dto.OrderTypeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	ot, err := c.svc.Create(ctx.Request.Context(), &req)
	if err != nil {
		handleError(ctx, err)
		return
	}
	success(ctx, "订单类型添加成功", ot)
}

// Update 编辑订单类型
// @Summary 编辑订单类型
// @Tags OrderMeta
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "类型ID"
// @Param request body dto.OrderTypeRequest true "订单类型"
// @Success 200 {object} model.OrderType
// @Router /order-types/{id} [put]
func (c *OrderTypeController) Update(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var req dto.OrderTypeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	ot, err := c.svc.Update(ctx.Request.Context(), id, &req)
	if err != nil {
		handleError(ctx, err)
		return
	}
	success(ctx, "订单类型更新成功", ot)
}

// Delete 删除订单类型，被订单引用时返回 409
// @Summary 删除订单类型
// @Tags OrderMeta
// @Produce json
// @Security BearerAuth
// @Param id path int true "类型ID"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /order-types/{id} [delete]
func (c *OrderTypeController) Delete(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}

	if err := c.svc.Delete(ctx.Request.Context(), id); err != nil {
		handleError(ctx, err)
		return
	}
	success(ctx, "订单类型已删除", nil)
}

// ==================== 订单字段 ====================

// OrderFieldController 自定义订单字段
type OrderFieldController struct {
	svc *service.OrderFieldService
}

// NewOrderFieldController 创建控制器
func NewOrderFieldController(svc *service.OrderFieldService) *OrderFieldController {
	return &OrderFieldController{svc: svc}
}

// List 字段列表（按显示顺序）
// @Summary 订单字段列表
// @Tags OrderMeta
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.OrderField
// @Router /order-fields [get]
func (c *OrderFieldController) List(ctx *gin.Context) {
	fields, err := c.svc.List(ctx.Request.Context())
	if err != nil {
		handleError(ctx, err)
		return
	}
	success(ctx, "success", fields)
}

// Create 新增字段
// @Summary 新增订单字段
// @Tags OrderMeta
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.OrderFieldRequest true "字段"
// @Success 200 {object} model.OrderField
// @Router /order-fields [post]
func (c *OrderFieldController) Create(ctx *gin.Context) {
	var req dto.OrderFieldRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	field, err := c.svc.Create(ctx.Request.Context(), &req)
	if err != nil {
		handleError(ctx, err)
		return
	}
	success(ctx, "字段添加成功", field)
}

// Update 编辑字段，默认字段不可修改
// @Summary 编辑订单字段
// @Tags OrderMeta
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "字段ID"
// @Param request body dto.OrderFieldRequest true "字段"
// @Success 200 {object} model.OrderField
// @Router /order-fields/{id} [put]
func (c *OrderFieldController) Update(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var req dto.OrderFieldRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	field, err := c.svc.Update(ctx.Request.Context(), id, &req)
	if err != nil {
		handleError(ctx, err)
		return
	}
	success(ctx, "字段更新成功", field)
}

// Delete 删除字段
// @Summary 删除订单字段
// @Tags OrderMeta
// @Produce json
// @Security BearerAuth
// @Param id path int true "字段ID"
// @Success 200 {object} map[string]interface{}
// @Router /order-fields/{id} [delete]
func (c *OrderFieldController) Delete(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}

	if err := c.svc.Delete(ctx.Request.Context(), id); err != nil {
		handleError(ctx, err)
		return
	}
	success(ctx, "字段已删除", nil)
}
