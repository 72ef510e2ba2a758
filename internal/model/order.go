package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// ==================== 订单状态常量 ====================

// 订单状态（沿用历史数据中的中文取值）
const (
	OrderStatusIncomplete = "未完成"
	OrderStatusSettled    = "已结算"
	OrderStatusUnsettled  = "未结算"
)

// OrderStatuses 全部合法状态
var OrderStatuses = []string{OrderStatusIncomplete, OrderStatusSettled, OrderStatusUnsettled}

// IsValidOrderStatus 校验状态取值
func IsValidOrderStatus(status string) bool {
	for _, s := range OrderStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// DateLayout 日期格式
const DateLayout = "2006-01-02"

// ==================== Order 订单主表 ====================

// Order 订单
type Order struct {
	BaseModel
	OrderCode      string              `gorm:"size:64;uniqueIndex;not null" json:"order_code"`
	WechatName     string              `gorm:"size:64;not null" json:"wechat_name"`
	WechatID       string              `gorm:"column:wechat_id;size:64;index" json:"wechat_id"`
	Phone          string              `gorm:"size:20;index" json:"phone"`
	OrderInfo      string              `gorm:"type:text;not null" json:"order_info"`
	CompletionTime *time.Time          `gorm:"type:date;index" json:"completion_time"`
	Quantity       int                 `gorm:"not null;default:1" json:"quantity"`
	Amount         decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"amount"`
	Notes          string              `gorm:"type:text" json:"notes"`
	Status         string              `gorm:"size:16;index;default:'未完成'" json:"status"`
	CustomFields   datatypes.JSONMap   `json:"custom_fields"`

	UserID      int64  `gorm:"index;not null" json:"user_id"`
	OrderTypeID *int64 `gorm:"index" json:"order_type_id"`

	User      *User        `gorm:"foreignKey:UserID" json:"user,omitempty"`
	OrderType *OrderType   `gorm:"foreignKey:OrderTypeID" json:"order_type,omitempty"`
	Images    []OrderImage `gorm:"foreignKey:OrderID" json:"images,omitempty"`
}

func (Order) TableName() string {
	return "orders"
}

// ==================== 自定义字段 ====================

// SetCustomField 写入自定义字段
func (o *Order) SetCustomField(name string, value interface{}) {
	if o.CustomFields == nil {
		o.CustomFields = datatypes.JSONMap{}
	}
	o.CustomFields[name] = value
}

// DeleteCustomField 移除自定义字段
func (o *Order) DeleteCustomField(name string) {
	delete(o.CustomFields, name)
}

// GetCustomField 读取自定义字段，不存在返回 nil
func (o *Order) GetCustomField(name string) interface{} {
	if o.CustomFields == nil {
		return nil
	}
	return o.CustomFields[name]
}

// CustomFieldString 自定义字段的展示文本
func (o *Order) CustomFieldString(name string) string {
	v := o.GetCustomField(name)
	if v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return decimal.NewFromFloat(val).String()
	default:
		return fmt.Sprint(val)
	}
}

// ==================== 辅助方法 ====================

// AmountValue 金额，空值按 0 处理
func (o *Order) AmountValue() decimal.Decimal {
	if !o.Amount.Valid {
		return decimal.Zero
	}
	return o.Amount.Decimal
}

// CompletionDate 完成日期文本
func (o *Order) CompletionDate() string {
	if o.CompletionTime == nil {
		return ""
	}
	return o.CompletionTime.Format(DateLayout)
}

// TypeName 订单类型名称，未分类时返回默认文本
func (o *Order) TypeName() string {
	if o.OrderType == nil {
		return "未分类"
	}
	return o.OrderType.Name
}

// OwnedBy 是否为指定用户提交
func (o *Order) OwnedBy(userID int64) bool {
	return o.UserID == userID
}

// ==================== OrderImage 订单图片 ====================

// OrderImage 订单图片
type OrderImage struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID    int64     `gorm:"index;not null" json:"order_id"`
	ImagePath  string    `gorm:"size:255;not null" json:"image_path"`
	UploadTime time.Time `json:"upload_time"`
}

func (OrderImage) TableName() string {
	return "order_images"
}
