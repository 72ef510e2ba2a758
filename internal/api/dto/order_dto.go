package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ==================== 订单列表 ====================

// OrderListRequest 订单列表请求
type OrderListRequest struct {
	UserID      int64  `form:"user_id"`     // 仅 ViewAll 生效
	StartDate   string `form:"start_date"`  // 2006-01-02，完成时间
	EndDate     string `form:"end_date"`    // 含当天
	SearchType  string `form:"search_type"` // order_code / wechat_name / wechat_id / phone
	Search      string `form:"search"`
	OrderTypeID int64  `form:"order_type_id"`
	Status      string `form:"status"`
	Page        int    `form:"page,default=1"`
	PageSize    int    `form:"page_size,default=10"`
}

// OrderListResponse 订单列表响应
type OrderListResponse struct {
	List            []*OrderVO      `json:"list"`
	Total           int64           `json:"total"`
	Page            int             `json:"page"`
	PageSize        int             `json:"page_size"`
	StartDate       string          `json:"start_date"`
	EndDate         string          `json:"end_date"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	TotalQuantity   int64           `json:"total_quantity"`
	WechatUserCount int64           `json:"wechat_user_count"`
}

// OrderVO 订单视图对象
type OrderVO struct {
	ID             int64                  `json:"id"`
	OrderCode      string                 `json:"order_code"`
	WechatName     string                 `json:"wechat_name"`
	WechatID       string                 `json:"wechat_id"`
	Phone          string                 `json:"phone"`
	OrderInfo      string                 `json:"order_info"`
	CompletionTime string                 `json:"completion_time"`
	Quantity       int                    `json:"quantity"`
	Amount         *decimal.Decimal       `json:"amount"`
	Notes          string                 `json:"notes"`
	Status         string                 `json:"status"`
	OrderTypeID    *int64                 `json:"order_type_id"`
	OrderTypeName  string                 `json:"order_type_name"`
	UserID         int64                  `json:"user_id"`
	Username       string                 `json:"username,omitempty"`
	CustomFields   map[string]interface{} `json:"custom_fields"`
	Images         []OrderImageVO         `json:"images"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// OrderImageVO 订单图片
type OrderImageVO struct {
	ID         int64     `json:"id"`
	ImagePath  string    `json:"image_path"`
	UploadTime time.Time `json:"upload_time"`
}

// ==================== 新增 / 编辑 ====================

// SaveOrderRequest 新增或编辑订单
// 字段级校验在 Service 中完成，导入与接口共用同一套规则
type SaveOrderRequest struct {
	OrderCode      string                 `json:"order_code"`
	WechatName     string                 `json:"wechat_name"`
	WechatID       string                 `json:"wechat_id"`
	Phone          string                 `json:"phone" binding:"omitempty,cnphone"`
	OrderInfo      string                 `json:"order_info"`
	CompletionTime string                 `json:"completion_time"`
	Quantity       int                    `json:"quantity"`
	Amount         *decimal.Decimal       `json:"amount"`
	Notes          string                 `json:"notes"`
	Status         string                 `json:"status"`
	OrderTypeID    *int64                 `json:"order_type_id"`
	CustomFields   map[string]interface{} `json:"custom_fields"`
}

// QuickAddRequest 快速录单
type QuickAddRequest struct {
	OrderCode      string           `json:"order_code" binding:"required"`
	WechatName     string           `json:"wechat_name" binding:"required,max=64"`
	WechatID       string           `json:"wechat_id" binding:"required,max=64"`
	Phone          string           `json:"phone" binding:"omitempty,cnphone"`
	OrderInfo      string           `json:"order_info" binding:"required"`
	Quantity       int              `json:"quantity" binding:"required,min=1"`
	Amount         *decimal.Decimal `json:"amount" binding:"required"`
	CompletionTime string           `json:"completion_time"` // 为空取当天
	OrderTypeID    *int64           `json:"order_type_id"`
	Notes          string           `json:"notes"`
}

// ==================== 状态 / 批量 ====================

// UpdateStatusRequest 修改状态
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// BatchStatusRequest 批量修改状态
type BatchStatusRequest struct {
	IDs    []int64 `json:"ids" binding:"required,min=1"`
	Status string  `json:"status" binding:"required"`
}

// BatchDeleteRequest 批量删除
type BatchDeleteRequest struct {
	IDs []int64 `json:"ids" binding:"required,min=1"`
}

// BatchResult 批量操作结果
type BatchResult struct {
	Affected int64 `json:"affected"`
}

// GenerateCodeResponse 生成订单编码
type GenerateCodeResponse struct {
	OrderCode string `json:"order_code"`
}

// ==================== 金额计算预览 ====================

// CalculateFeeRequest 费用试算
type CalculateFeeRequest struct {
	BaseAmount decimal.Decimal `json:"base_amount" binding:"required"`
	Quantity   int             `json:"quantity" binding:"omitempty,min=1"`
	VIP        bool            `json:"vip"`
}

// FeeBreakdown 试算明细
type FeeBreakdown struct {
	BaseAmount  decimal.Decimal `json:"base_amount"`
	AppliedRate decimal.Decimal `json:"applied_rate"`
	Discount    decimal.Decimal `json:"discount"`
	MinApplied  bool            `json:"min_applied"`
	FinalAmount decimal.Decimal `json:"final_amount"`
	Details     []string        `json:"details"`
}
