package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"wechat_order_v1/internal/model"
)

// ==================== 调用方身份 ====================

// Viewer 当前操作人
type Viewer struct {
	UserID      int64
	Username    string
	Permissions model.Permission
}

// Can 是否具备权限
func (v Viewer) Can(perm model.Permission) bool {
	return v.Permissions.Has(perm)
}

// CanViewAll 是否可以查看所有人的订单
func (v Viewer) CanViewAll() bool {
	return v.Can(model.PermViewAll)
}

// canAccessOrder 订单的查看/编辑权限：本人或 ViewAll
func (v Viewer) canAccessOrder(o *model.Order) bool {
	return v.CanViewAll() || o.OwnedBy(v.UserID)
}

// ==================== 校验错误 ====================

// ValidationError 字段校验错误
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is 使 errors.Is(err, ErrValidation) 成立
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func newValidationError(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// phoneTakenError 手机号冲突提示
func phoneTakenError(wechatName, wechatID string) error {
	return newValidationError("phone", "该手机号已被微信用户 \"%s(%s)\" 使用", wechatName, wechatID)
}

// ==================== 日期 ====================

// parseDate 解析 2006-01-02，空字符串返回 nil
func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(model.DateLayout, s, time.Local)
	if err != nil {
		return nil, fmt.Errorf("日期格式错误，应为 YYYY-MM-DD: %s", s)
	}
	return &t, nil
}

// parseDateRange 解析起止日期，结束日期包含当天，返回左闭右开区间
func parseDateRange(start, end string) (from, to *time.Time, err error) {
	if from, err = parseDate(start); err != nil {
		return nil, nil, newValidationError("start_date", "%s", err.Error())
	}
	if to, err = parseDate(end); err != nil {
		return nil, nil, newValidationError("end_date", "%s", err.Error())
	}
	if to != nil {
		next := to.AddDate(0, 0, 1)
		to = &next
	}
	return from, to, nil
}

// monthRange 当月区间 [月初, 下月初)
func monthRange(now time.Time) (time.Time, time.Time) {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.Local)
	return first, first.AddDate(0, 1, 0)
}

// startOfDay 当天零点
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}

// formatInclusiveEnd 左闭右开区间的结束日期展示为前一天
func formatInclusiveEnd(to *time.Time) string {
	if to == nil {
		return ""
	}
	return to.AddDate(0, 0, -1).Format(model.DateLayout)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(model.DateLayout)
}

// ==================== 通用错误 ====================

var (
	ErrValidation = errors.New("参数校验失败")
	ErrForbidden  = errors.New("无权限执行此操作")
)
