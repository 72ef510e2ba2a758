package service

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"wechat_order_v1/internal/api/dto"
	"wechat_order_v1/internal/model"
	"wechat_order_v1/internal/repository"
)

// ReconcileService 根据订单维护微信用户档案（采集 / 刷新）
// 同一进程内采集与刷新互斥执行
type ReconcileService struct {
	uow    *repository.UnitOfWork
	logger *zap.Logger
	mu     sync.Mutex
}

// NewReconcileService 创建服务
func NewReconcileService(uow *repository.UnitOfWork, logger *zap.Logger) *ReconcileService {
	return &ReconcileService{uow: uow, logger: logger}
}

// Collect 按手机号从订单采集微信用户
func (s *ReconcileService) Collect(ctx context.Context) (*dto.ReconcileResult, error) {
	if !s.mu.TryLock() {
		return nil, ErrReconcileRunning
	}
	defer s.mu.Unlock()

	result := &dto.ReconcileResult{}
	err := s.uow.Transaction(ctx, func(tx *repository.UnitOfWork) error {
		orders, err := tx.Orders.ListWithPhone(ctx)
		if err != nil {
			return err
		}
		groups := lo.GroupBy(
			lo.Filter(orders, func(o model.Order, _ int) bool { return strings.TrimSpace(o.Phone) != "" }),
			func(o model.Order) string { return strings.TrimSpace(o.Phone) },
		)
		phones := lo.Keys(groups)
		slices.Sort(phones)

		for _, phone := range phones {
			name, wechatID := bestIdentity(groups[phone])

			existing, err := tx.WechatUsers.GetByPhone(ctx, phone)
			if err != nil {
				return err
			}

			if existing != nil {
				changed := false
				if name != "" && strings.TrimSpace(existing.WechatName) == "" {
					existing.WechatName = name
					changed = true
				}
				if wechatID != "" && strings.TrimSpace(existing.WechatID) == "" {
					existing.WechatID = wechatID
					changed = true
				}
				if changed {
					if err := tx.WechatUsers.Update(ctx, existing); err != nil {
						return err
					}
					result.Updated++
				}
				continue
			}

			if name == "" && wechatID == "" {
				continue
			}
			if name == "" {
				name = "用户_" + phone
			}
			wu := &model.WechatUser{WechatName: name, WechatID: wechatID, Phone: model.StringPtr(phone)}
			if err := tx.WechatUsers.Create(ctx, wu); err != nil {
				return err
			}
			result.Created++
		}
		return nil
	})
	if err != nil {
		s.logger.Error("采集微信用户失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("采集微信用户完成", zap.Int("created", result.Created), zap.Int("updated", result.Updated))
	return result, nil
}

// bestIdentity 取分组内第一个非空的微信名和微信号
func bestIdentity(orders []model.Order) (name, wechatID string) {
	for _, o := range orders {
		if name == "" {
			name = strings.TrimSpace(o.WechatName)
		}
		if wechatID == "" {
			wechatID = strings.TrimSpace(o.WechatID)
		}
		if name != "" && wechatID != "" {
			break
		}
	}
	return name, wechatID
}

// Refresh 用最新订单刷新微信用户，并清理手机号与微信号都为空的档案
func (s *ReconcileService) Refresh(ctx context.Context) (*dto.ReconcileResult, error) {
	if !s.mu.TryLock() {
		return nil, ErrReconcileRunning
	}
	defer s.mu.Unlock()

	result := &dto.ReconcileResult{}
	err := s.uow.Transaction(ctx, func(tx *repository.UnitOfWork) error {
		users, err := tx.WechatUsers.ListAll(ctx)
		if err != nil {
			return err
		}

		for i := range users {
			wu := &users[i]
			phone := strings.TrimSpace(wu.PhoneValue())

			if phone == "" && strings.TrimSpace(wu.WechatID) == "" {
				if err := tx.WechatUsers.Delete(ctx, wu.ID); err != nil {
					return err
				}
				result.Cleaned++
				continue
			}
			if phone == "" {
				continue
			}

			latest, err := tx.Orders.LatestByPhone(ctx, phone)
			if err != nil {
				return err
			}
			if latest == nil {
				continue
			}

			changed := false
			if latest.WechatName != "" && latest.WechatName != wu.WechatName {
				wu.WechatName = latest.WechatName
				changed = true
			}
			if latest.WechatID != "" && strings.TrimSpace(wu.WechatID) == "" {
				wu.WechatID = latest.WechatID
				changed = true
			}
			if changed {
				if err := tx.WechatUsers.Update(ctx, wu); err != nil {
					return err
				}
				result.Updated++
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("刷新微信用户失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("刷新微信用户完成", zap.Int("updated", result.Updated), zap.Int("cleaned", result.Cleaned))
	return result, nil
}

// ==================== 错误定义 ====================

var ErrReconcileRunning = errors.New("微信用户同步正在进行中，请稍后再试")
