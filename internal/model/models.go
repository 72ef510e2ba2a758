package model

// AllModels 需要自动建表的模型
func AllModels() []interface{} {
	return []interface{}{
		&Role{},
		&User{},
		&OrderType{},
		&OrderField{},
		&Order{},
		&OrderImage{},
		&WechatUser{},
	}
}
