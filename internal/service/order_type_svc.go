package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"wechat_order_v1/internal/api/dto"
	"wechat_order_v1/internal/model"
	"wechat_order_v1/internal/repository"
)

// OrderTypeService 订单类型管理
type OrderTypeService struct {
	typeRepo  repository.OrderTypeRepository
	orderRepo repository.OrderRepository
	logger    *zap.Logger
}

// NewOrderTypeService 创建订单类型服务
func NewOrderTypeService(typeRepo repository.OrderTypeRepository, orderRepo repository.OrderRepository, logger *zap.Logger) *OrderTypeService {
	return &OrderTypeService{typeRepo: typeRepo, orderRepo: orderRepo, logger: logger}
}

// List 类型列表，activeOnly 只返回启用的
func (s *OrderTypeService) List(ctx context.Context, activeOnly bool) ([]model.OrderType, error) {
	return s.typeRepo.List(ctx, activeOnly)
}

// Create 新增类型
func (s *OrderTypeService) Create(ctx context.Context, req *dto.OrderTypeRequest) (*model.OrderType, error) {
	name := strings.TrimSpace(req.Name)
	if err := s.checkName(ctx, name, 0); err != nil {
		return nil, err
	}

	t := &model.OrderType{Name: name, Description: req.Description, IsActive: true}
	if req.IsActive != nil {
		t.IsActive = *req.IsActive
	}
	if err := s.typeRepo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Update 编辑类型
func (s *OrderTypeService) Update(ctx context.Context, id int64, req *dto.OrderTypeRequest) (*model.OrderType, error) {
	t, err := s.typeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrOrderTypeNotFound
	}

	name := strings.TrimSpace(req.Name)
	if err := s.checkName(ctx, name, id); err != nil {
		return nil, err
	}
	t.Name = name
	t.Description = req.Description
	if req.IsActive != nil {
		t.IsActive = *req.IsActive
	}
	if err := s.typeRepo.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Delete 删除类型，仍有订单引用时拒绝
func (s *OrderTypeService) Delete(ctx context.Context, id int64) error {
	t, err := s.typeRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if t == nil {
		return ErrOrderTypeNotFound
	}

	count, err := s.orderRepo.CountByType(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: 有 %d 个订单使用该类型", ErrOrderTypeInUse, count)
	}

	if err := s.typeRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("删除订单类型", zap.Int64("type_id", id), zap.String("name", t.Name))
	return nil
}

func (s *OrderTypeService) checkName(ctx context.Context, name string, excludeID int64) error {
	if name == "" {
		return newValidationError("name", "类型名称不能为空")
	}
	exists, err := s.typeRepo.ExistsByName(ctx, name, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return ErrOrderTypeExists
	}
	return nil
}

// ==================== 错误定义 ====================

var (
	ErrOrderTypeNotFound = errors.New("订单类型不存在")
	ErrOrderTypeExists   = errors.New("订单类型名称已存在")
	ErrOrderTypeInUse    = errors.New("订单类型正在使用中")
)
