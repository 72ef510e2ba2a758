package model

// 自定义字段类型
const (
	FieldTypeText   = "text"
	FieldTypeNumber = "number"
	FieldTypeDate   = "date"
	FieldTypeImage  = "image"
)

// OrderField 订单字段定义（默认字段 + 管理员添加的自定义字段）
type OrderField struct {
	BaseModel
	AuditMixin
	Name      string `gorm:"size:64;uniqueIndex;not null" json:"name"`
	FieldType string `gorm:"size:20;not null" json:"field_type"`
	Required  bool   `gorm:"default:false" json:"required"`
	Order     int    `gorm:"column:order;default:0" json:"order"`
	IsDefault bool   `gorm:"default:false" json:"is_default"`
}

func (OrderField) TableName() string {
	return "order_fields"
}

// IsValidFieldType 校验字段类型
func IsValidFieldType(t string) bool {
	switch t {
	case FieldTypeText, FieldTypeNumber, FieldTypeDate, FieldTypeImage:
		return true
	}
	return false
}

// ReservedFieldNames 与订单固定列冲突的名称
var ReservedFieldNames = []string{
	"order_code", "wechat_name", "wechat_id", "order_info",
	"completion_time", "quantity", "amount", "images",
}

// DefaultOrderFields 初始化时写入的默认字段
var DefaultOrderFields = []OrderField{
	{Name: "订单编码", FieldType: FieldTypeText, Required: true, Order: 1, IsDefault: true},
	{Name: "微信名", FieldType: FieldTypeText, Required: true, Order: 2, IsDefault: true},
	{Name: "微信号", FieldType: FieldTypeText, Required: true, Order: 3, IsDefault: true},
	{Name: "订单信息", FieldType: FieldTypeText, Required: true, Order: 4, IsDefault: true},
	{Name: "完成时间", FieldType: FieldTypeDate, Required: true, Order: 5, IsDefault: true},
	{Name: "数量", FieldType: FieldTypeNumber, Required: true, Order: 6, IsDefault: true},
	{Name: "图片", FieldType: FieldTypeImage, Required: false, Order: 7, IsDefault: true},
	{Name: "金额", FieldType: FieldTypeNumber, Required: false, Order: 8, IsDefault: true},
}
