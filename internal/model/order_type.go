package model

// OrderType 订单类型
type OrderType struct {
	BaseModel
	AuditMixin
	Name        string `gorm:"size:64;uniqueIndex;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	IsActive    bool   `gorm:"not null" json:"is_active"`
}

func (OrderType) TableName() string {
	return "order_types"
}

// DefaultOrderTypes 初始化时写入的订单类型
var DefaultOrderTypes = []OrderType{
	{Name: "灯箱", Description: "灯箱类订单", IsActive: true},
	{Name: "海报", Description: "海报类订单", IsActive: true},
	{Name: "三折页", Description: "三折页类订单", IsActive: true},
	{Name: "详情页", Description: "详情页类订单", IsActive: true},
	{Name: "其他", Description: "其他类型订单", IsActive: true},
}
