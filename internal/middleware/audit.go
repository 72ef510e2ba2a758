package middleware

import (
	"context"
	"fmt"
	"reflect"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// ==================== 操作人上下文 ====================

type auditorKey struct{}

// Auditor 当前操作人
type Auditor struct {
	UserID   int64
	Username string
}

// WithAuditor 把操作人写入 context，repository 通过 db.WithContext(ctx) 带到 GORM 回调
func WithAuditor(ctx context.Context, a Auditor) context.Context {
	return context.WithValue(ctx, auditorKey{}, a)
}

// AuditorFrom 读取操作人，未登录请求返回 false
func AuditorFrom(ctx context.Context) (Auditor, bool) {
	if ctx == nil {
		return Auditor{}, false
	}
	a, ok := ctx.Value(auditorKey{}).(Auditor)
	return a, ok && a.UserID > 0
}

// AuditContext 把 JWT 中的用户写入 request context，需挂在 JWTAuth 之后
func AuditContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		if uid := GetUserID(c); uid > 0 {
			ctx := WithAuditor(c.Request.Context(), Auditor{UserID: uid, Username: GetUsername(c)})
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}

// ==================== GORM 回调 ====================

const (
	auditCreateCallback = "audit:create"
	auditUpdateCallback = "audit:update"
)

// RegisterAuditCallbacks 为带 AuditMixin 的模型（订单类型、订单字段、微信用户）填充 created_by / updated_by
func RegisterAuditCallbacks(db *gorm.DB) error {
	if err := db.Callback().Create().Before("gorm:create").Register(auditCreateCallback, stampAuditor(true)); err != nil {
		return fmt.Errorf("注册 %s 失败: %w", auditCreateCallback, err)
	}
	if err := db.Callback().Update().Before("gorm:update").Register(auditUpdateCallback, stampAuditor(false)); err != nil {
		return fmt.Errorf("注册 %s 失败: %w", auditUpdateCallback, err)
	}
	return nil
}

// stampAuditor 新增时写创建人和修改人，更新时只覆盖修改人
func stampAuditor(creating bool) func(*gorm.DB) {
	return func(tx *gorm.DB) {
		stmt := tx.Statement
		if stmt.Schema == nil {
			return
		}
		who, ok := AuditorFrom(stmt.Context)
		if !ok {
			return
		}
		updatedBy := stmt.Schema.LookUpField("UpdatedBy")
		if updatedBy == nil {
			return
		}

		// Updates(map) 只会写 map 里的列
		if values, isMap := stmt.Dest.(map[string]interface{}); isMap && !creating {
			values[updatedBy.DBName] = who.UserID
			return
		}

		var createdBy *schema.Field
		if creating {
			createdBy = stmt.Schema.LookUpField("CreatedBy")
		}
		eachRow(stmt.ReflectValue, func(row reflect.Value) {
			if createdBy != nil {
				if _, zero := createdBy.ValueOf(stmt.Context, row); zero {
					_ = createdBy.Set(stmt.Context, row, who.UserID)
				}
			}
			_ = updatedBy.Set(stmt.Context, row, who.UserID)
		})
	}
}

// eachRow 单条与批量写入统一按行处理
func eachRow(rv reflect.Value, fn func(reflect.Value)) {
	switch rv.Kind() {
	case reflect.Struct:
		fn(rv)
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			row := reflect.Indirect(rv.Index(i))
			if row.Kind() == reflect.Struct {
				fn(row)
			}
		}
	}
}
