package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"wechat_order_v1/internal/model"
	"wechat_order_v1/internal/repository"
	"wechat_order_v1/pkg/database"
)

// AdminAccount 初始管理员账号
type AdminAccount struct {
	Email    string
	Username string
	Password string
}

// SeedService 建表与初始化数据（服务启动与命令行共用）
type SeedService struct {
	db     *gorm.DB
	admin  AdminAccount
	logger *zap.Logger
}

// NewSeedService 创建服务
func NewSeedService(db *gorm.DB, admin AdminAccount, logger *zap.Logger) *SeedService {
	return &SeedService{db: db, admin: admin, logger: logger}
}

// Init 建表并写入角色、默认字段、默认订单类型和管理员，可重复执行
func (s *SeedService) Init(ctx context.Context) error {
	return database.NewInitializer(s.db, database.InitOptions{
		Models: model.AllModels(),
		Seeders: []database.Seeder{
			{Name: "写入角色", Run: seedRoles},
			{Name: "写入默认字段", Run: seedOrderFields},
			{Name: "写入默认订单类型", Run: seedOrderTypes},
			{Name: "创建管理员", Run: func(ctx context.Context, db *gorm.DB) error {
				_, err := s.ensureAdmin(ctx, repository.NewUnitOfWork(db), false)
				return err
			}},
		},
	}).Initialize(ctx)
}

// seedRoles 已存在的角色会更新权限
func seedRoles(ctx context.Context, db *gorm.DB) error {
	repo := repository.NewRoleRepository(db)
	for _, r := range model.DefaultRoles() {
		if err := repo.Upsert(ctx, &model.Role{Name: r.Name, Permissions: r.Permissions, IsDefault: r.IsDefault}); err != nil {
			return err
		}
	}
	return nil
}

func seedOrderFields(ctx context.Context, db *gorm.DB) error {
	repo := repository.NewOrderFieldRepository(db)
	for _, f := range model.DefaultOrderFields {
		exists, err := repo.ExistsByName(ctx, f.Name, 0)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		field := f
		if err := repo.Create(ctx, &field); err != nil {
			return err
		}
	}
	return nil
}

func seedOrderTypes(ctx context.Context, db *gorm.DB) error {
	repo := repository.NewOrderTypeRepository(db)
	for _, t := range model.DefaultOrderTypes {
		exists, err := repo.ExistsByName(ctx, t.Name, 0)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		orderType := t
		if err := repo.Create(ctx, &orderType); err != nil {
			return err
		}
	}
	return nil
}

// ResetAdmin 管理员不存在时创建，存在时重置密码
func (s *SeedService) ResetAdmin(ctx context.Context) (*model.User, error) {
	if err := seedRoles(ctx, s.db.WithContext(ctx)); err != nil {
		return nil, err
	}
	return s.ensureAdmin(ctx, repository.NewUnitOfWork(s.db), true)
}

func (s *SeedService) ensureAdmin(ctx context.Context, uow *repository.UnitOfWork, resetPassword bool) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(s.admin.Email))
	if email == "" || s.admin.Password == "" {
		return nil, ErrAdminNotConfigured
	}

	role, err := uow.Roles.GetByName(ctx, model.RoleSuperAdmin)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, ErrRoleNotFound
	}

	user, err := uow.Users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil && s.admin.Username != "" {
		if user, err = uow.Users.GetByUsername(ctx, s.admin.Username); err != nil {
			return nil, err
		}
	}

	if user != nil {
		if !resetPassword {
			return user, nil
		}
		hash, err := hashPassword(s.admin.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
		user.RoleID = role.ID
		if err := uow.Users.Update(ctx, user); err != nil {
			return nil, err
		}
		s.logger.Info("管理员密码已重置", zap.String("username", user.Username))
		return user, nil
	}

	username := s.admin.Username
	if username == "" {
		username = "admin"
	}
	hash, err := hashPassword(s.admin.Password)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	user = &model.User{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		RoleID:       role.ID,
		MemberSince:  now,
		LastSeen:     now,
	}
	if err := uow.Users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("管理员已创建", zap.String("username", username), zap.String("email", email))
	return user, nil
}

// FixOrderCodes 为订单编码为空的历史订单补充编码
func (s *SeedService) FixOrderCodes(ctx context.Context) (int, error) {
	uow := repository.NewUnitOfWork(s.db)
	orders, err := uow.Orders.ListEmptyCode(ctx)
	if err != nil {
		return 0, err
	}

	fixed := 0
	for i := range orders {
		o := &orders[i]
		code, err := uniqueOrderCode(ctx, uow, time.Now)
		if err != nil {
			return fixed, err
		}
		o.OrderCode = code
		if err := uow.Orders.Update(ctx, o); err != nil {
			return fixed, err
		}
		fixed++
	}

	s.logger.Info("订单编码修复完成", zap.Int("fixed", fixed))
	return fixed, nil
}

// ==================== 错误定义 ====================

var ErrAdminNotConfigured = errors.New("未配置管理员邮箱或密码")
