package service

import (
	"context"
	"errors"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"wechat_order_v1/internal/api/dto"
	"wechat_order_v1/internal/model"
	"wechat_order_v1/internal/repository"
)

// OrderFieldService 订单字段管理
type OrderFieldService struct {
	fieldRepo repository.OrderFieldRepository
	logger    *zap.Logger
}

// NewOrderFieldService 创建订单字段服务
func NewOrderFieldService(fieldRepo repository.OrderFieldRepository, logger *zap.Logger) *OrderFieldService {
	return &OrderFieldService{fieldRepo: fieldRepo, logger: logger}
}

// List 全部字段（按显示顺序）
func (s *OrderFieldService) List(ctx context.Context) ([]model.OrderField, error) {
	return s.fieldRepo.List(ctx)
}

// Create 新增自定义字段
func (s *OrderFieldService) Create(ctx context.Context, req *dto.OrderFieldRequest) (*model.OrderField, error) {
	name := strings.TrimSpace(req.Name)
	if err := s.validate(ctx, name, req.FieldType, 0); err != nil {
		return nil, err
	}

	f := &model.OrderField{
		Name:      name,
		FieldType: req.FieldType,
		Required:  req.Required,
		Order:     req.Order,
	}
	if err := s.fieldRepo.Create(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// Update 编辑自定义字段，默认字段不可修改
func (s *OrderFieldService) Update(ctx context.Context, id int64, req *dto.OrderFieldRequest) (*model.OrderField, error) {
	f, err := s.getCustom(ctx, id)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if err := s.validate(ctx, name, req.FieldType, id); err != nil {
		return nil, err
	}
	f.Name = name
	f.FieldType = req.FieldType
	f.Required = req.Required
	f.Order = req.Order

	if err := s.fieldRepo.Update(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// Delete 删除自定义字段（订单中已保存的值保留在 JSON 中）
func (s *OrderFieldService) Delete(ctx context.Context, id int64) error {
	f, err := s.getCustom(ctx, id)
	if err != nil {
		return err
	}
	if err := s.fieldRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("删除自定义字段", zap.Int64("field_id", id), zap.String("name", f.Name))
	return nil
}

func (s *OrderFieldService) getCustom(ctx context.Context, id int64) (*model.OrderField, error) {
	f, err := s.fieldRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, ErrOrderFieldNotFound
	}
	if f.IsDefault {
		return nil, ErrDefaultField
	}
	return f, nil
}

func (s *OrderFieldService) validate(ctx context.Context, name, fieldType string, excludeID int64) error {
	if name == "" {
		return newValidationError("name", "字段名称不能为空")
	}
	if lo.Contains(model.ReservedFieldNames, strings.ToLower(name)) {
		return newValidationError("name", "该字段名称已被系统使用")
	}
	if !model.IsValidFieldType(fieldType) {
		return newValidationError("field_type", "不支持的字段类型: %s", fieldType)
	}
	exists, err := s.fieldRepo.ExistsByName(ctx, name, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return ErrOrderFieldExists
	}
	return nil
}

// ==================== 错误定义 ====================

var (
	ErrOrderFieldNotFound = errors.New("字段不存在")
	ErrOrderFieldExists   = errors.New("字段名称已存在")
	ErrDefaultField       = errors.New("默认字段不能修改或删除")
)
