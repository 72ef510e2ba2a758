package dto

// ==================== 订单类型 ====================

// OrderTypeRequest 新增 / 编辑订单类型
type OrderTypeRequest struct {
	Name        string `json:"name" binding:"required,max=64"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

// ==================== 订单字段 ====================

// OrderFieldRequest 新增 / 编辑订单字段
type OrderFieldRequest struct {
	Name      string `json:"name" binding:"required,max=64"`
	FieldType string `json:"field_type" binding:"required,oneof=text number date image"`
	Required  bool   `json:"required"`
	Order     int    `json:"order"`
}
