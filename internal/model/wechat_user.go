package model

import "regexp"

// PhonePattern 大陆手机号
var PhonePattern = regexp.MustCompile(`^1[3-9]\d{9}$`)

// WechatUser 微信客户档案（按手机号聚合订单）
type WechatUser struct {
	BaseModel
	AuditMixin
	WechatName    string  `gorm:"size:64;not null" json:"wechat_name"`
	WechatID      string  `gorm:"column:wechat_id;size:64;index" json:"wechat_id"`
	Phone         *string `gorm:"size:20;uniqueIndex" json:"phone"`
	Email         string  `gorm:"size:120" json:"email"`
	Address       string  `gorm:"type:text" json:"address"`
	Avatar        string  `gorm:"size:255" json:"avatar"`
	PaymentQRCode string  `gorm:"column:payment_qr_code;size:255" json:"payment_qr_code"`
	Notes         string  `gorm:"type:text" json:"notes"`
}

func (WechatUser) TableName() string {
	return "wechat_users"
}

// PhoneValue 手机号文本
func (w *WechatUser) PhoneValue() string {
	if w.Phone == nil {
		return ""
	}
	return *w.Phone
}

// DisplayName 用于冲突提示的 "名称(微信号)"
func (w *WechatUser) DisplayName() string {
	return w.WechatName + "(" + w.WechatID + ")"
}

// StringPtr 空字符串返回 nil
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
