package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"wechat_order_v1/internal/api/dto"
	"wechat_order_v1/internal/model"
	"wechat_order_v1/internal/repository"
)

// WechatUserService 微信用户档案
type WechatUserService struct {
	uow     *repository.UnitOfWork
	storage StorageProvider
	stats   StatsInvalidator
	limits  UploadLimits
	logger  *zap.Logger
}

// NewWechatUserService 创建微信用户服务
func NewWechatUserService(uow *repository.UnitOfWork, storage StorageProvider, stats StatsInvalidator, limits UploadLimits, logger *zap.Logger) *WechatUserService {
	return &WechatUserService{uow: uow, storage: storage, stats: stats, limits: limits, logger: logger}
}

// List 微信用户列表，附带未采集的手机号数量
func (s *WechatUserService) List(ctx context.Context, req *dto.WechatUserListRequest) (*dto.WechatUserListResponse, error) {
	users, total, err := s.uow.WechatUsers.List(ctx, repository.WechatUserFilter{
		Search:   strings.TrimSpace(req.Search),
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		return nil, err
	}
	uncollected, err := s.uow.Orders.CountUncollectedPhones(ctx)
	if err != nil {
		return nil, err
	}

	return &dto.WechatUserListResponse{
		List:             lo.Map(users, func(u model.WechatUser, _ int) *dto.WechatUserVO { return toWechatUserVO(&u) }),
		Total:            total,
		UncollectedCount: uncollected,
	}, nil
}

// Detail 微信用户详情及其订单
// 有完成时间的订单按完成时间筛选，没有的按创建时间
func (s *WechatUserService) Detail(ctx context.Context, id int64, req *dto.WechatUserDetailRequest) (*dto.WechatUserDetailResponse, error) {
	wu, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	from, to, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	var orders []model.Order
	if phone := wu.PhoneValue(); phone != "" {
		var typeID *int64
		if req.OrderTypeID > 0 {
			typeID = &req.OrderTypeID
		}
		if orders, err = s.uow.Orders.ListByPhone(ctx, phone, from, to, typeID); err != nil {
			return nil, err
		}
	}

	total := decimal.Zero
	for i := range orders {
		total = total.Add(orders[i].AmountValue())
	}

	return &dto.WechatUserDetailResponse{
		User:        toWechatUserVO(wu),
		Orders:      lo.Map(orders, func(o model.Order, _ int) *dto.OrderVO { return toOrderVO(&o) }),
		TotalOrders: len(orders),
		TotalAmount: total,
		AvgAmount:   average(total, int64(len(orders))),
	}, nil
}

// Update 编辑微信用户
func (s *WechatUserService) Update(ctx context.Context, id int64, req *dto.UpdateWechatUserRequest) (*dto.WechatUserVO, error) {
	wu, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.WechatName)
	wechatID := strings.TrimSpace(req.WechatID)
	phone := strings.TrimSpace(req.Phone)

	if name == "" {
		return nil, newValidationError("wechat_name", "微信名不能为空")
	}
	if phone == "" {
		return nil, newValidationError("phone", "手机号不能为空")
	}
	if !model.PhonePattern.MatchString(phone) {
		return nil, newValidationError("phone", "请输入正确的手机号格式")
	}

	if wechatID != "" {
		exists, err := s.uow.WechatUsers.ExistsByWechatID(ctx, wechatID, id)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, newValidationError("wechat_id", "该微信号已存在")
		}
	}

	holder, err := s.uow.WechatUsers.GetByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	if holder != nil && holder.ID != id {
		return nil, phoneTakenError(holder.WechatName, holder.WechatID)
	}
	// 微信号为空时允许使用任何手机号
	if wechatID != "" {
		other, err := s.uow.Orders.FindPhoneConflict(ctx, phone, wechatID, 0)
		if err != nil {
			return nil, err
		}
		if other != nil {
			return nil, phoneTakenError(other.WechatName, other.WechatID)
		}
	}

	wu.WechatName = name
	wu.WechatID = wechatID
	wu.Phone = model.StringPtr(phone)
	wu.Email = strings.TrimSpace(req.Email)
	wu.Address = req.Address
	wu.Notes = req.Notes
	if err := s.uow.WechatUsers.Update(ctx, wu); err != nil {
		return nil, err
	}
	return toWechatUserVO(wu), nil
}

// ==================== 头像 / 收款码 ====================

// UploadAvatar 上传头像，file 为空时从 sourceURL 下载
func (s *WechatUserService) UploadAvatar(ctx context.Context, id int64, file *UploadFile, sourceURL string) (*dto.WechatUserVO, error) {
	return s.uploadAsset(ctx, id, DirAvatars, file, sourceURL, func(wu *model.WechatUser) *string { return &wu.Avatar })
}

// UploadQRCode 上传收款码
func (s *WechatUserService) UploadQRCode(ctx context.Context, id int64, file *UploadFile, sourceURL string) (*dto.WechatUserVO, error) {
	return s.uploadAsset(ctx, id, DirQRCodes, file, sourceURL, func(wu *model.WechatUser) *string { return &wu.PaymentQRCode })
}

func (s *WechatUserService) uploadAsset(ctx context.Context, id int64, dir string, file *UploadFile, sourceURL string, target func(*model.WechatUser) *string) (*dto.WechatUserVO, error) {
	wu, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	var path string
	switch {
	case file != nil:
		if err := s.limits.Check(*file); err != nil {
			return nil, err
		}
		path, err = s.storage.Upload(ctx, file.Data, dir, file.Filename, file.ContentType)
	case strings.TrimSpace(sourceURL) != "":
		path, err = s.storage.UploadFromURL(ctx, strings.TrimSpace(sourceURL), dir)
	default:
		return nil, newValidationError("file", "请选择文件或填写图片地址")
	}
	if err != nil {
		return nil, fmt.Errorf("上传失败: %w", err)
	}

	field := target(wu)
	old := *field
	*field = path
	if err := s.uow.WechatUsers.Update(ctx, wu); err != nil {
		_ = s.storage.Delete(ctx, path)
		return nil, err
	}
	if old != "" {
		if err := s.storage.Delete(ctx, old); err != nil {
			s.logger.Warn("删除旧文件失败", zap.String("path", old), zap.Error(err))
		}
	}
	return toWechatUserVO(wu), nil
}

// ==================== 删除 ====================

// Delete 删除微信用户
// 存在关联订单（同手机号或同微信号）且未 force 时只返回订单数量，不做删除
func (s *WechatUserService) Delete(ctx context.Context, id int64, force bool) (*dto.DeleteWechatUserResponse, error) {
	wu, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	related, err := s.uow.Orders.ListRelated(ctx, wu.PhoneValue(), wu.WechatID)
	if err != nil {
		return nil, err
	}
	related = lo.UniqBy(related, func(o model.Order) int64 { return o.ID })

	if len(related) > 0 && !force {
		return &dto.DeleteWechatUserResponse{
			HasOrders:   true,
			OrdersCount: len(related),
			Message:     fmt.Sprintf("该微信用户关联了 %d 个订单，确认删除将同时删除这些订单", len(related)),
		}, nil
	}

	for _, o := range related {
		for _, img := range o.Images {
			if err := s.storage.Delete(ctx, img.ImagePath); err != nil {
				s.logger.Warn("删除图片文件失败", zap.String("path", img.ImagePath), zap.Error(err))
			}
		}
	}

	orderIDs := lo.Map(related, func(o model.Order, _ int) int64 { return o.ID })
	err = s.uow.Transaction(ctx, func(tx *repository.UnitOfWork) error {
		if err := tx.Images.DeleteByOrderIDs(ctx, orderIDs); err != nil {
			return err
		}
		if _, err := tx.Orders.DeleteByIDs(ctx, orderIDs); err != nil {
			return err
		}
		return tx.WechatUsers.Delete(ctx, id)
	})
	if err != nil {
		return nil, err
	}

	for _, path := range []string{wu.Avatar, wu.PaymentQRCode} {
		if path != "" {
			_ = s.storage.Delete(ctx, path)
		}
	}
	if len(related) > 0 {
		s.stats.Invalidate(ctx)
	}

	s.logger.Info("删除微信用户", zap.Int64("wechat_user_id", id), zap.Int("orders", len(related)))
	msg := "微信用户已删除"
	if len(related) > 0 {
		msg = fmt.Sprintf("微信用户及 %d 个关联订单已删除", len(related))
	}
	return &dto.DeleteWechatUserResponse{Deleted: true, OrdersCount: len(related), Message: msg}, nil
}

func (s *WechatUserService) get(ctx context.Context, id int64) (*model.WechatUser, error) {
	wu, err := s.uow.WechatUsers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if wu == nil {
		return nil, ErrWechatUserNotFound
	}
	return wu, nil
}

func toWechatUserVO(wu *model.WechatUser) *dto.WechatUserVO {
	return &dto.WechatUserVO{
		ID:            wu.ID,
		WechatName:    wu.WechatName,
		WechatID:      wu.WechatID,
		Phone:         wu.PhoneValue(),
		Email:         wu.Email,
		Address:       wu.Address,
		Avatar:        wu.Avatar,
		PaymentQRCode: wu.PaymentQRCode,
		Notes:         wu.Notes,
		CreatedAt:     wu.CreatedAt,
		UpdatedAt:     wu.UpdatedAt,
	}
}

// ==================== 错误定义 ====================

var ErrWechatUserNotFound = errors.New("微信用户不存在")
