package controller

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"wechat_order_v1/internal/api/dto"
	"wechat_order_v1/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExcelController 订单导入导出
type ExcelController struct {
	svc *service.ExcelService
}

// NewExcelController 创建控制器
func NewExcelController(svc *service.ExcelService) *ExcelController {
	return &ExcelController{svc: svc}
}

// Template 下载导入模板
// @Summary 下载导入模板
// @Tags Excel
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Success 200 {file} file
// @Router /orders/template [get]
func (c *ExcelController) Template(ctx *gin.Context) {
	data, err := c.svc.Template(ctx.Request.Context())
	if err != nil {
		handleError(ctx, err)
		return
	}
	attachment(ctx, "订单导入模板.xlsx", data)
}

// Export 导出订单
// @Summary 导出订单
// @Description 按创建时间筛选；无查看全部权限时只导出自己的订单
// @Tags Excel
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param user_id query int false "提交人ID（需查看全部权限）"
// @Param start_date query string false "创建时间起 YYYY-MM-DD"
// @Param end_date query string false "创建时间止 YYYY-MM-DD"
// @Param wechat_name query string false "微信名"
// @Param phone query string false "手机号"
// @Success 200 {file} file
// @Router /orders/export [get]
func (c *ExcelController) Export(ctx *gin.Context) {
	var req dto.ExportRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	data, filename, err := c.svc.Export(ctx.Request.Context(), viewerOf(ctx), &req)
	if err != nil {
		handleError(ctx, err)
		return
	}
	attachment(ctx, filename, data)
}

// Import 导入订单
// @Summary 导入订单
// @Description 支持 CSV（UTF-8 / GBK / GB18030）与 XLSX，首行为表头
// @Tags Excel
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "CSV 或 XLSX 文件"
// @Success 200 {object} dto.ImportResult
// @Failure 429 {object} map[string]interface{}
// @Router /orders/import [post]
func (c *ExcelController) Import(ctx *gin.Context) {
	fh, err := ctx.FormFile("file")
	if err != nil {
		fail(ctx, http.StatusBadRequest, "请选择要导入的文件")
		return
	}
	file, err := readFile(fh)
	if err != nil {
		handleError(ctx, err)
		return
	}

	result, err := c.svc.Import(ctx.Request.Context(), viewerOf(ctx), file.Filename, file.Data)
	if err != nil {
		handleError(ctx, err)
		return
	}

	message := fmt.Sprintf("成功导入 %d 条订单", result.SuccessCount)
	if result.ErrorCount > 0 {
		message += fmt.Sprintf("，%d 条失败", result.ErrorCount)
	}
	success(ctx, message, result)
}

// attachment 以附件形式返回 xlsx
func attachment(ctx *gin.Context, filename string, data []byte) {
	ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(filename)))
	ctx.Data(http.StatusOK, xlsxContentType, data)
}
