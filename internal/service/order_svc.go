package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"wechat_order_v1/internal/api/dto"
	"wechat_order_v1/internal/model"
	"wechat_order_v1/internal/repository"
	"wechat_order_v1/pkg/utils"
)

// StatsInvalidator 订单变更后使统计缓存失效
type StatsInvalidator interface {
	Invalidate(ctx context.Context)
}

// ==================== OrderService 订单服务 ====================

// OrderService 订单服务
type OrderService struct {
	uow     *repository.UnitOfWork
	storage StorageProvider
	stats   StatsInvalidator
	limits  UploadLimits
	logger  *zap.Logger
	now     func() time.Time
}

// NewOrderService 创建订单服务
func NewOrderService(uow *repository.UnitOfWork, storage StorageProvider, stats StatsInvalidator, limits UploadLimits, logger *zap.Logger) *OrderService {
	return &OrderService{
		uow:     uow,
		storage: storage,
		stats:   stats,
		limits:  limits,
		logger:  logger,
		now:     time.Now,
	}
}

// OrderInput 订单保存参数（接口、快速录单、导入共用）
type OrderInput struct {
	OrderCode      string
	WechatName     string
	WechatID       string
	Phone          string
	OrderInfo      string
	CompletionTime string // 2006-01-02
	Quantity       int
	Amount         *decimal.Decimal
	Notes          string
	Status         string
	OrderTypeID    *int64
	CustomFields   map[string]interface{}

	TypeOptional bool // 快速录单、导入时订单类型可为空
}

func inputFromRequest(req *dto.SaveOrderRequest) OrderInput {
	return OrderInput{
		OrderCode:      req.OrderCode,
		WechatName:     req.WechatName,
		WechatID:       req.WechatID,
		Phone:          req.Phone,
		OrderInfo:      req.OrderInfo,
		CompletionTime: req.CompletionTime,
		Quantity:       req.Quantity,
		Amount:         req.Amount,
		Notes:          req.Notes,
		Status:         req.Status,
		OrderTypeID:    req.OrderTypeID,
		CustomFields:   req.CustomFields,
	}
}

// ==================== 查询 ====================

// List 订单列表
// 无 ViewAll 权限只能看到自己的订单；未指定日期时默认当月（按完成时间）
func (s *OrderService) List(ctx context.Context, viewer Viewer, req *dto.OrderListRequest) (*dto.OrderListResponse, error) {
	from, to, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	if from == nil && to == nil {
		first, next := monthRange(s.now())
		from, to = &first, &next
	}

	filter := repository.OrderFilter{
		CompleteFrom: from,
		CompleteTo:   to,
		SearchType:   req.SearchType,
		Search:       strings.TrimSpace(req.Search),
		Page:         req.Page,
		PageSize:     req.PageSize,
	}
	if !viewer.CanViewAll() {
		filter.UserID = &viewer.UserID
	} else if req.UserID > 0 {
		filter.UserID = &req.UserID
	}
	if req.OrderTypeID > 0 {
		filter.OrderTypeID = &req.OrderTypeID
	}
	if model.IsValidOrderStatus(req.Status) {
		filter.Status = req.Status
	}

	orders, total, err := s.uow.Orders.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	summary, err := s.uow.Orders.Summary(ctx, filter)
	if err != nil {
		return nil, err
	}
	wechatCount, err := s.uow.WechatUsers.Count(ctx)
	if err != nil {
		return nil, err
	}

	page, pageSize := req.Page, req.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	return &dto.OrderListResponse{
		List:            lo.Map(orders, func(o model.Order, _ int) *dto.OrderVO { return toOrderVO(&o) }),
		Total:           total,
		Page:            page,
		PageSize:        pageSize,
		StartDate:       formatDate(from),
		EndDate:         formatInclusiveEnd(to),
		TotalAmount:     summary.TotalAmount,
		TotalQuantity:   summary.TotalQuantity,
		WechatUserCount: wechatCount,
	}, nil
}

// Get 订单详情
func (s *OrderService) Get(ctx context.Context, viewer Viewer, id int64) (*dto.OrderVO, error) {
	order, err := s.uow.Orders.GetByIDWithRelations(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if !viewer.canAccessOrder(order) {
		return nil, ErrForbidden
	}
	return toOrderVO(order), nil
}

// ==================== 新增 / 编辑 ====================

// Create 新增订单
func (s *OrderService) Create(ctx context.Context, viewer Viewer, req *dto.SaveOrderRequest) (*dto.OrderVO, error) {
	order, err := s.CreateFromInput(ctx, viewer, inputFromRequest(req))
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, viewer, order.ID)
}

// QuickAdd 快速录单：完成时间默认当天，类型可选
func (s *OrderService) QuickAdd(ctx context.Context, viewer Viewer, req *dto.QuickAddRequest) (*dto.OrderVO, error) {
	in := OrderInput{
		OrderCode:      req.OrderCode,
		WechatName:     req.WechatName,
		WechatID:       req.WechatID,
		Phone:          req.Phone,
		OrderInfo:      req.OrderInfo,
		CompletionTime: req.CompletionTime,
		Quantity:       req.Quantity,
		Amount:         req.Amount,
		Notes:          req.Notes,
		OrderTypeID:    req.OrderTypeID,
		TypeOptional:   true,
	}
	if strings.TrimSpace(in.CompletionTime) == "" {
		in.CompletionTime = s.now().Format(model.DateLayout)
	}

	order, err := s.save(ctx, viewer, nil, in)
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, viewer, order.ID)
}

// CreateFromInput 新增订单（导入复用）
func (s *OrderService) CreateFromInput(ctx context.Context, viewer Viewer, in OrderInput) (*model.Order, error) {
	return s.save(ctx, viewer, nil, in)
}

// Update 编辑订单
func (s *OrderService) Update(ctx context.Context, viewer Viewer, id int64, req *dto.SaveOrderRequest) (*dto.OrderVO, error) {
	existing, err := s.uow.Orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrOrderNotFound
	}
	if !viewer.canAccessOrder(existing) {
		return nil, ErrForbidden
	}

	if _, err := s.save(ctx, viewer, existing, inputFromRequest(req)); err != nil {
		return nil, err
	}
	return s.Get(ctx, viewer, id)
}

// save 校验并保存订单，同一事务内维护微信用户档案
func (s *OrderService) save(ctx context.Context, viewer Viewer, existing *model.Order, in OrderInput) (*model.Order, error) {
	fields, err := s.uow.OrderFields.ListCustom(ctx)
	if err != nil {
		return nil, err
	}

	order := &model.Order{UserID: viewer.UserID, Status: model.OrderStatusIncomplete}
	if existing != nil {
		order = existing
	}

	err = s.uow.Transaction(ctx, func(tx *repository.UnitOfWork) error {
		if err := s.apply(ctx, tx, order, in, fields); err != nil {
			return err
		}

		if order.ID == 0 {
			if err := tx.Orders.Create(ctx, order); err != nil {
				return fmt.Errorf("保存订单失败: %w", err)
			}
		} else if err := tx.Orders.Update(ctx, order); err != nil {
			return fmt.Errorf("保存订单失败: %w", err)
		}

		return upsertWechatUser(ctx, tx, order)
	})
	if err != nil {
		return nil, err
	}

	s.stats.Invalidate(ctx)
	s.logger.Info("保存订单",
		zap.Int64("order_id", order.ID),
		zap.String("order_code", order.OrderCode),
		zap.Int64("operator", viewer.UserID),
		zap.Bool("created", existing == nil))
	return order, nil
}

// apply 校验输入并写入 order
func (s *OrderService) apply(ctx context.Context, tx *repository.UnitOfWork, order *model.Order, in OrderInput, fields []model.OrderField) error {
	in.OrderCode = strings.TrimSpace(in.OrderCode)
	in.WechatName = strings.TrimSpace(in.WechatName)
	in.WechatID = strings.TrimSpace(in.WechatID)
	in.Phone = strings.TrimSpace(in.Phone)
	in.OrderInfo = strings.TrimSpace(in.OrderInfo)

	if in.OrderCode == "" {
		return newValidationError("order_code", "订单编码不能为空")
	}
	if in.WechatName == "" {
		return newValidationError("wechat_name", "微信名不能为空")
	}
	if utf8.RuneCountInString(in.WechatName) > 64 {
		return newValidationError("wechat_name", "微信名不能超过 64 个字符")
	}
	if utf8.RuneCountInString(in.WechatID) > 64 {
		return newValidationError("wechat_id", "微信号不能超过 64 个字符")
	}
	if in.OrderInfo == "" {
		return newValidationError("order_info", "订单信息不能为空")
	}
	completion, err := parseDate(in.CompletionTime)
	if err != nil {
		return newValidationError("completion_time", "%s", err.Error())
	}
	if completion == nil {
		return newValidationError("completion_time", "完成时间不能为空")
	}
	if in.Quantity < 1 {
		return newValidationError("quantity", "数量必须大于 0")
	}
	if in.Amount != nil && in.Amount.LessThan(minAmount) {
		return newValidationError("amount", "金额不能小于 0.01")
	}

	status := order.Status
	if in.Status != "" {
		if !model.IsValidOrderStatus(in.Status) {
			return newValidationError("status", "无效的订单状态: %s", in.Status)
		}
		status = in.Status
	}

	if in.OrderTypeID == nil || *in.OrderTypeID == 0 {
		if !in.TypeOptional {
			return newValidationError("order_type_id", "请选择订单类型")
		}
		in.OrderTypeID = nil
	} else {
		t, err := tx.OrderTypes.GetByID(ctx, *in.OrderTypeID)
		if err != nil {
			return err
		}
		if t == nil {
			return newValidationError("order_type_id", "订单类型不存在")
		}
	}

	exists, err := tx.Orders.ExistsByCode(ctx, in.OrderCode, order.ID)
	if err != nil {
		return err
	}
	if exists {
		return newValidationError("order_code", "订单编码已存在")
	}

	if in.Phone != "" {
		if !model.PhonePattern.MatchString(in.Phone) {
			return newValidationError("phone", "请输入正确的手机号格式")
		}
		// 编辑时手机号未变化不做冲突检查
		if order.ID == 0 || in.Phone != order.Phone {
			if err := checkPhoneConflict(ctx, tx, in.Phone, in.WechatID, order.ID); err != nil {
				return err
			}
		}
	}

	custom, err := normalizeCustomFields(fields, in.CustomFields)
	if err != nil {
		return err
	}

	order.OrderCode = in.OrderCode
	order.WechatName = in.WechatName
	order.WechatID = in.WechatID
	order.Phone = in.Phone
	order.OrderInfo = in.OrderInfo
	order.CompletionTime = completion
	order.Quantity = in.Quantity
	order.Amount = decimal.NullDecimal{}
	if in.Amount != nil {
		order.Amount = decimal.NewNullDecimal(in.Amount.Round(2))
	}
	order.Notes = strings.TrimSpace(in.Notes)
	order.Status = status
	order.OrderTypeID = in.OrderTypeID
	// 已定义字段未提交或提交为空时从 JSON 中移除
	for _, f := range fields {
		if v, ok := custom[f.Name]; ok {
			order.SetCustomField(f.Name, v)
		} else {
			order.DeleteCustomField(f.Name)
		}
	}
	return nil
}

var minAmount = decimal.RequireFromString("0.01")

// checkPhoneConflict 手机号已被其他微信号使用时拒绝
func checkPhoneConflict(ctx context.Context, tx *repository.UnitOfWork, phone, wechatID string, excludeOrderID int64) error {
	wu, err := tx.WechatUsers.GetByPhone(ctx, phone)
	if err != nil {
		return err
	}
	if wu != nil && wu.WechatID != wechatID {
		return phoneTakenError(wu.WechatName, wu.WechatID)
	}

	other, err := tx.Orders.FindPhoneConflict(ctx, phone, wechatID, excludeOrderID)
	if err != nil {
		return err
	}
	if other != nil {
		return phoneTakenError(other.WechatName, other.WechatID)
	}
	return nil
}

// upsertWechatUser 按微信号创建或更新微信用户档案
func upsertWechatUser(ctx context.Context, tx *repository.UnitOfWork, order *model.Order) error {
	if order.WechatID == "" {
		return nil
	}
	wu, err := tx.WechatUsers.GetByWechatID(ctx, order.WechatID)
	if err != nil {
		return err
	}

	if wu == nil {
		wu = &model.WechatUser{WechatName: order.WechatName, WechatID: order.WechatID}
		if order.Phone != "" {
			holder, err := tx.WechatUsers.GetByPhone(ctx, order.Phone)
			if err != nil {
				return err
			}
			if holder == nil {
				wu.Phone = model.StringPtr(order.Phone)
			}
		}
		return tx.WechatUsers.Create(ctx, wu)
	}

	// 微信名可能变化
	if wu.WechatName == order.WechatName {
		return nil
	}
	wu.WechatName = order.WechatName
	return tx.WechatUsers.Update(ctx, wu)
}

// normalizeCustomFields 按字段定义校验并转换自定义字段值
func normalizeCustomFields(fields []model.OrderField, values map[string]interface{}) (map[string]interface{}, error) {
	result := make(map[string]interface{}, len(fields))
	for _, f := range fields {
		raw, ok := values[f.Name]
		text := ""
		if ok && raw != nil {
			text = strings.TrimSpace(fmt.Sprint(raw))
		}
		if text == "" {
			if f.Required {
				return nil, newValidationError(f.Name, "%s 不能为空", f.Name)
			}
			continue
		}

		switch f.FieldType {
		case model.FieldTypeNumber:
			var num float64
			switch v := raw.(type) {
			case float64:
				num = v
			case int:
				num = float64(v)
			case int64:
				num = float64(v)
			default:
				parsed, err := strconv.ParseFloat(text, 64)
				if err != nil {
					return nil, newValidationError(f.Name, "%s 必须是数字", f.Name)
				}
				num = parsed
			}
			result[f.Name] = num
		case model.FieldTypeDate:
			if _, err := time.ParseInLocation(model.DateLayout, text, time.Local); err != nil {
				return nil, newValidationError(f.Name, "%s 日期格式错误，应为 YYYY-MM-DD", f.Name)
			}
			result[f.Name] = text
		default:
			result[f.Name] = text
		}
	}
	return result, nil
}

// ==================== 删除 ====================

// Delete 删除订单及其图片
func (s *OrderService) Delete(ctx context.Context, viewer Viewer, id int64) error {
	order, err := s.uow.Orders.GetByIDWithRelations(ctx, id)
	if err != nil {
		return err
	}
	if order == nil {
		return ErrOrderNotFound
	}
	if !viewer.canAccessOrder(order) {
		return ErrForbidden
	}

	if _, err := s.deleteOrders(ctx, []model.Order{*order}); err != nil {
		return err
	}
	s.logger.Info("删除订单", zap.Int64("order_id", id), zap.Int64("operator", viewer.UserID))
	return nil
}

// BatchDelete 批量删除（管理员）
func (s *OrderService) BatchDelete(ctx context.Context, ids []int64) (int64, error) {
	orders, err := s.uow.Orders.GetByIDs(ctx, lo.Uniq(ids))
	if err != nil {
		return 0, err
	}
	if len(orders) == 0 {
		return 0, nil
	}
	return s.deleteOrders(ctx, orders)
}

// deleteOrders 先删文件，再在事务中删除图片记录与订单
func (s *OrderService) deleteOrders(ctx context.Context, orders []model.Order) (int64, error) {
	for _, o := range orders {
		s.removeImageFiles(ctx, o.Images)
	}

	ids := lo.Map(orders, func(o model.Order, _ int) int64 { return o.ID })
	var affected int64
	err := s.uow.Transaction(ctx, func(tx *repository.UnitOfWork) error {
		if err := tx.Images.DeleteByOrderIDs(ctx, ids); err != nil {
			return err
		}
		n, err := tx.Orders.DeleteByIDs(ctx, ids)
		affected = n
		return err
	})
	if err != nil {
		return 0, err
	}
	s.stats.Invalidate(ctx)
	return affected, nil
}

func (s *OrderService) removeImageFiles(ctx context.Context, images []model.OrderImage) {
	for _, img := range images {
		if err := s.storage.Delete(ctx, img.ImagePath); err != nil {
			s.logger.Warn("删除图片文件失败", zap.String("path", img.ImagePath), zap.Error(err))
		}
	}
}

// ==================== 图片 ====================

// UploadImages 上传订单图片
func (s *OrderService) UploadImages(ctx context.Context, viewer Viewer, orderID int64, files []UploadFile) ([]dto.OrderImageVO, error) {
	order, err := s.uow.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if !viewer.canAccessOrder(order) {
		return nil, ErrForbidden
	}
	if len(files) == 0 {
		return nil, newValidationError("images", "请选择要上传的图片")
	}
	for _, f := range files {
		if err := s.limits.Check(f); err != nil {
			return nil, err
		}
	}

	result := make([]dto.OrderImageVO, 0, len(files))
	for _, f := range files {
		path, err := s.storage.Upload(ctx, f.Data, DirOrders, f.Filename, f.ContentType)
		if err != nil {
			return nil, err
		}
		img := &model.OrderImage{OrderID: orderID, ImagePath: path, UploadTime: s.now()}
		if err := s.uow.Images.Create(ctx, img); err != nil {
			_ = s.storage.Delete(ctx, path)
			return nil, err
		}
		result = append(result, toImageVO(img))
	}
	return result, nil
}

// DeleteImage 删除单张图片
func (s *OrderService) DeleteImage(ctx context.Context, viewer Viewer, imageID int64) error {
	img, err := s.uow.Images.GetByID(ctx, imageID)
	if err != nil {
		return err
	}
	if img == nil {
		return ErrImageNotFound
	}
	order, err := s.uow.Orders.GetByID(ctx, img.OrderID)
	if err != nil {
		return err
	}
	// 订单已不存在的图片只允许可查看全部订单的用户清理
	if order == nil {
		if !viewer.CanViewAll() {
			return ErrImageNotFound
		}
	} else if !viewer.canAccessOrder(order) {
		return ErrForbidden
	}

	s.removeImageFiles(ctx, []model.OrderImage{*img})
	return s.uow.Images.Delete(ctx, imageID)
}

// ==================== 状态 ====================

// UpdateStatus 修改订单状态
func (s *OrderService) UpdateStatus(ctx context.Context, id int64, status string) error {
	if !model.IsValidOrderStatus(status) {
		return newValidationError("status", "无效的订单状态: %s", status)
	}
	order, err := s.uow.Orders.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if order == nil {
		return ErrOrderNotFound
	}
	if err := s.uow.Orders.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	s.stats.Invalidate(ctx)
	return nil
}

// BatchUpdateStatus 批量修改状态，返回影响行数
func (s *OrderService) BatchUpdateStatus(ctx context.Context, ids []int64, status string) (int64, error) {
	if !model.IsValidOrderStatus(status) {
		return 0, newValidationError("status", "无效的订单状态: %s", status)
	}
	n, err := s.uow.Orders.BatchUpdateStatus(ctx, lo.Uniq(ids), status)
	if err != nil {
		return 0, err
	}
	s.stats.Invalidate(ctx)
	return n, nil
}

// ==================== 订单编码 ====================

const maxCodeAttempts = 5

// GenerateCode 生成未被占用的订单编码
func (s *OrderService) GenerateCode(ctx context.Context) (string, error) {
	return uniqueOrderCode(ctx, s.uow, s.now)
}

func uniqueOrderCode(ctx context.Context, uow *repository.UnitOfWork, now func() time.Time) (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code := utils.GenerateOrderCode(now())
		exists, err := uow.Orders.ExistsByCode(ctx, code, 0)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", ErrCodeGeneration
}

// ==================== 转换 ====================

func toOrderVO(o *model.Order) *dto.OrderVO {
	vo := &dto.OrderVO{
		ID:             o.ID,
		OrderCode:      o.OrderCode,
		WechatName:     o.WechatName,
		WechatID:       o.WechatID,
		Phone:          o.Phone,
		OrderInfo:      o.OrderInfo,
		CompletionTime: o.CompletionDate(),
		Quantity:       o.Quantity,
		Notes:          o.Notes,
		Status:         o.Status,
		OrderTypeID:    o.OrderTypeID,
		OrderTypeName:  o.TypeName(),
		UserID:         o.UserID,
		CustomFields:   map[string]interface{}(o.CustomFields),
		Images:         lo.Map(o.Images, func(img model.OrderImage, _ int) dto.OrderImageVO { return toImageVO(&img) }),
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
	if o.Amount.Valid {
		amount := o.Amount.Decimal
		vo.Amount = &amount
	}
	if o.User != nil {
		vo.Username = o.User.Username
	}
	if vo.CustomFields == nil {
		vo.CustomFields = map[string]interface{}{}
	}
	return vo
}

func toImageVO(img *model.OrderImage) dto.OrderImageVO {
	return dto.OrderImageVO{ID: img.ID, ImagePath: img.ImagePath, UploadTime: img.UploadTime}
}

// ==================== 错误定义 ====================

var (
	ErrOrderNotFound  = errors.New("订单不存在")
	ErrImageNotFound  = errors.New("图片不存在")
	ErrCodeGeneration = errors.New("生成订单编码失败，请重试")
)
