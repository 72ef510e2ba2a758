package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPermission_Has(t *testing.T) {
	user := PermViewOwn | PermSubmit
	assert.True(t, user.Has(PermViewOwn))
	assert.True(t, user.Has(PermViewOwn|PermSubmit))
	assert.False(t, user.Has(PermViewAll))
	assert.False(t, user.Has(PermSubmit|PermAdmin))
	assert.True(t, PermAll.Has(PermAdmin|PermManageFields))
}

func TestDefaultRoles(t *testing.T) {
	roles := DefaultRoles()
	assert.Len(t, roles, 3)

	defaults := 0
	for _, r := range roles {
		if r.IsDefault {
			defaults++
			assert.Equal(t, RoleUser, r.Name)
		}
		if r.Name == RoleAdmin {
			assert.False(t, r.Permissions.Has(PermAdmin), "Admin 角色不应包含系统管理权限")
		}
	}
	assert.Equal(t, 1, defaults)
}

func TestUser_Can(t *testing.T) {
	u := &User{}
	assert.False(t, u.Can(PermViewOwn))
	assert.Equal(t, Permission(0), u.Permissions())

	u.Role = &Role{Name: RoleSuperAdmin, Permissions: PermAll}
	assert.True(t, u.IsAdministrator())
	assert.Equal(t, RoleSuperAdmin, u.RoleName())
}

func TestOrder_CustomFields(t *testing.T) {
	o := &Order{}
	assert.Nil(t, o.GetCustomField("尺寸"))
	assert.Equal(t, "", o.CustomFieldString("尺寸"))

	o.SetCustomField("尺寸", "A4")
	o.SetCustomField("页数", float64(12))
	assert.Equal(t, "A4", o.GetCustomField("尺寸"))
	assert.Equal(t, "12", o.CustomFieldString("页数"))
}

func TestOrder_Helpers(t *testing.T) {
	o := &Order{}
	assert.True(t, o.AmountValue().IsZero())
	assert.Equal(t, "未分类", o.TypeName())
	assert.Equal(t, "", o.CompletionDate())

	o.OrderType = &OrderType{Name: "海报"}
	assert.Equal(t, "海报", o.TypeName())
}

func TestIsValidOrderStatus(t *testing.T) {
	assert.True(t, IsValidOrderStatus(OrderStatusIncomplete))
	assert.True(t, IsValidOrderStatus(OrderStatusSettled))
	assert.False(t, IsValidOrderStatus("done"))
}

func TestPhonePattern(t *testing.T) {
	assert.True(t, PhonePattern.MatchString("13800138000"))
	assert.False(t, PhonePattern.MatchString("12800138000"))
	assert.False(t, PhonePattern.MatchString("1380013800"))
	assert.True(t, UsernamePattern.MatchString("li.si_01"))
	assert.False(t, UsernamePattern.MatchString("1lisi"))
}
