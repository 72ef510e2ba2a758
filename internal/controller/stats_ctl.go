package controller

import (
	"github.com/gin-gonic/gin"

	"wechat_order_v1/internal/api/dto"
	"wechat_order_v1/internal/service"
)

// StatsController 订单统计
type StatsController struct {
	svc *service.StatsService
}

// NewStatsController 创建控制器
func NewStatsController(svc *service.StatsService) *StatsController {
	return &StatsController{svc: svc}
}

// Overview 统计总览
// @Summary 统计总览
// @Description 按创建时间筛选，结果缓存 5 分钟，订单变更时失效
// @Tags Stats
// @Produce json
// @Security BearerAuth
// @Param start_date query string false "开始日期"
// @Param end_date query string false "结束日期"
// @Param sort_by query string false "amount / count"
// @Success 200 {object} dto.StatsOverview
// @Router /stats [get]
func (c *StatsController) Overview(ctx *gin.Context) {
	var req dto.StatsRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	resp, err := c.svc.Overview(ctx.Request.Context(), &req)
	if err != nil {
		handleError(ctx, err)
		return
	}
	success(ctx, "success", resp)
}

// Daily 按日统计
// @Summary 按日统计
// @Description 按完成日期分组，默认最近 30 天，无订单的日期补 0
// @Tags Stats
// @Produce json
// @Security BearerAuth
// @Param days query int false "最近天数"
// @Param start_date query string false "开始日期"
// @Param end_date query string false "结束日期"
// @Success 200 {object} dto.DailyStatsResponse
// @Router /admin/stats/daily [get]
func (c *StatsController) Daily(ctx *gin.Context) {
	var req dto.DailyStatsRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	resp, err := c.svc.Daily(ctx.Request.Context(), &req)
	if err != nil {
		handleError(ctx, err)
		return
	}
	success(ctx, "success", resp)
}
