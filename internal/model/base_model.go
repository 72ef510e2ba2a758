package model

import (
	"time"
)

// BaseModel 通用主键与时间戳
// 订单系统统一使用硬删除，唯一键（手机号、订单编码）删除后可复用
type BaseModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AuditMixin 审计字段 (只记录，不参与 WHERE 查询权限)
type AuditMixin struct {
	CreatedBy int64 `gorm:"index" json:"created_by"` // 创建人 UserID
	UpdatedBy int64 `gorm:"index" json:"updated_by"` // 最后修改人 UserID
}
