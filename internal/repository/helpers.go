package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// 分页默认值
const (
	DefaultPageSize = 20
	MaxPageSize     = 200
)

// normalizePage 规范化分页参数，返回 offset 和 limit
func normalizePage(page, pageSize, defaultSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return (page - 1) * pageSize, pageSize
}

// likePattern 包含匹配
func likePattern(s string) string {
	return "%" + strings.TrimSpace(s) + "%"
}

// ignoreNotFound 记录不存在时返回 nil,nil
func ignoreNotFound[T any](v *T, err error) (*T, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}
