package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// WechatUserListRequest 微信用户列表
type WechatUserListRequest struct {
	Search   string `form:"search"`
	Page     int    `form:"page,default=1"`
	PageSize int    `form:"page_size,default=20"`
}

// WechatUserListResponse 微信用户列表响应
type WechatUserListResponse struct {
	List             []*WechatUserVO `json:"list"`
	Total            int64           `json:"total"`
	UncollectedCount int64           `json:"uncollected_count"`
}

// WechatUserVO 微信用户
type WechatUserVO struct {
	ID            int64     `json:"id"`
	WechatName    string    `json:"wechat_name"`
	WechatID      string    `json:"wechat_id"`
	Phone         string    `json:"phone"`
	Email         string    `json:"email"`
	Address       string    `json:"address"`
	Avatar        string    `json:"avatar"`
	PaymentQRCode string    `json:"payment_qr_code"`
	Notes         string    `json:"notes"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// WechatUserDetailRequest 详情页订单筛选
type WechatUserDetailRequest struct {
	StartDate   string `form:"start_date"`
	EndDate     string `form:"end_date"`
	OrderTypeID int64  `form:"order_type_id"`
}

// WechatUserDetailResponse 详情
type WechatUserDetailResponse struct {
	User        *WechatUserVO   `json:"user"`
	Orders      []*OrderVO      `json:"orders"`
	TotalOrders int             `json:"total_orders"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	AvgAmount   decimal.Decimal `json:"avg_amount"`
}

// UpdateWechatUserRequest 编辑微信用户
type UpdateWechatUserRequest struct {
	WechatName string `json:"wechat_name" binding:"required,max=64"`
	WechatID   string `json:"wechat_id" binding:"max=64"`
	Phone      string `json:"phone" binding:"required,cnphone"`
	Email      string `json:"email" binding:"omitempty,email,max=120"`
	Address    string `json:"address"`
	Notes      string `json:"notes"`
}

// UploadFromURLRequest 通过地址上传头像 / 收款码
type UploadFromURLRequest struct {
	SourceURL string `json:"source_url" form:"source_url" binding:"omitempty,url"`
}

// DeleteWechatUserResponse 删除结果
type DeleteWechatUserResponse struct {
	Deleted     bool   `json:"deleted"`
	HasOrders   bool   `json:"has_orders"`
	OrdersCount int    `json:"orders_count"`
	Message     string `json:"message"`
}

// ReconcileResult 采集 / 刷新结果
type ReconcileResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Cleaned int `json:"cleaned"`
}
