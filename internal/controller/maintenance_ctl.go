package controller

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"wechat_order_v1/internal/service"
)

// MaintenanceController 微信用户采集 / 刷新与数据库备份（管理员）
type MaintenanceController struct {
	reconcile *service.ReconcileService
	backup    *service.BackupService
}

// NewMaintenanceController 创建控制器
func NewMaintenanceController(reconcile *service.ReconcileService, backup *service.BackupService) *MaintenanceController {
	return &MaintenanceController{reconcile: reconcile, backup: backup}
}

// Collect 从订单采集微信用户
// @Summary 采集微信用户
// @Description 按手机号汇总订单，补全或创建微信用户；每分钟最多一次
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.ReconcileResult
// @Failure 409 {object} map[string]interface{}
// @Failure 429 {object} map[string]interface{}
// @Router /admin/wechat-users/collect [post]
func (c *MaintenanceController) Collect(ctx *gin.Context) {
	result, err := c.reconcile.Collect(ctx.Request.Context())
	if err != nil {
		handleError(ctx, err)
		return
	}
	success(ctx, fmt.Sprintf("新增 %d 个，更新 %d 个微信用户", result.Created, result.Updated), result)
}

// Refresh 按最新订单刷新微信用户
// @Summary 刷新微信用户
// @Description 清理无手机号且无微信号的记录，按最新订单更新微信名；每分钟最多一次
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.ReconcileResult
// @Failure 409 {object} map[string]interface{}
// @Router /admin/wechat-users/refresh [post]
func (c *MaintenanceController) Refresh(ctx *gin.Context) {
	result, err := c.reconcile.Refresh(ctx.Request.Context())
	if err != nil {
		handleError(ctx, err)
		return
	}
	success(ctx, fmt.Sprintf("更新 %d 个，清理 %d 个微信用户", result.Updated, result.Cleaned), result)
}

// Backup 备份数据库
// @Summary 备份数据库
// @Description 仅支持 SQLite 文件数据库
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.BackupResult
// @Failure 400 {object} map[string]interface{}
// @Router /admin/backup [post]
func (c *MaintenanceController) Backup(ctx *gin.Context) {
	result, err := c.backup.Backup(ctx.Request.Context())
	if err != nil {
		handleError(ctx, err)
		return
	}
	success(ctx, "备份完成", result)
}
