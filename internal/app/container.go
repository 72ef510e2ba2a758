package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"wechat_order_v1/internal/config"
	"wechat_order_v1/internal/controller"
	"wechat_order_v1/internal/middleware"
	"wechat_order_v1/internal/repository"
	"wechat_order_v1/internal/router"
	"wechat_order_v1/internal/service"
	"wechat_order_v1/internal/task"
	"wechat_order_v1/pkg/cache"
	"wechat_order_v1/pkg/database"
	"wechat_order_v1/pkg/utils"
)

// ==================== 依赖容器 ====================

// Container 服务端与命令行共用的依赖容器
type Container struct {
	Config      *config.Config
	DB          *gorm.DB
	Logger      *zap.Logger
	Cache       cache.Cache
	Storage     service.StorageProvider
	Services    *Services
	Controllers *router.Controllers
	Tasks       *task.TaskManager
}

// Services 服务集合
type Services struct {
	Auth       *service.AuthService
	User       *service.UserService
	OrderType  *service.OrderTypeService
	OrderField *service.OrderFieldService
	Order      *service.OrderService
	Stats      *service.StatsService
	WechatUser *service.WechatUserService
	Reconcile  *service.ReconcileService
	Excel      *service.ExcelService
	Backup     *service.BackupService
	Seed       *service.SeedService
}

// New 打开数据库并组装全部依赖
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	db, err := database.Open(&database.Config{
		Driver:       cfg.Database.Driver,
		DSN:          cfg.Database.DSN,
		LogLevel:     cfg.Database.LogLevel,
		MaxIdleConns: cfg.Database.MaxIdle,
		MaxOpenConns: cfg.Database.MaxOpen,
	})
	if err != nil {
		return nil, err
	}

	c, err := NewWithDB(ctx, cfg, db, logger)
	if err != nil {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			_ = sqlDB.Close()
		}
		return nil, err
	}
	return c, nil
}

// NewWithDB 使用已打开的数据库组装依赖
func NewWithDB(ctx context.Context, cfg *config.Config, db *gorm.DB, logger *zap.Logger) (*Container, error) {
	if err := middleware.RegisterAuditCallbacks(db); err != nil {
		return nil, fmt.Errorf("注册审计回调失败: %w", err)
	}
	if err := controller.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("注册参数校验规则失败: %w", err)
	}
	middleware.SetJWTConfig(&middleware.JWTConfig{
		SecretKey:       cfg.JWT.Secret,
		AccessTokenTTL:  cfg.JWT.AccessTTL,
		RefreshTokenTTL: cfg.JWT.RefreshTTL,
		Issuer:          cfg.JWT.Issuer,
	})

	c := &Container{Config: cfg, DB: db, Logger: logger}

	// -------- 基础设施 --------
	c.Cache = newCache(ctx, cfg, logger)

	storage, err := service.NewStorageProvider(&service.StorageConfig{
		Provider:  cfg.Storage.Provider,
		BasePath:  cfg.Storage.BasePath,
		BaseURL:   cfg.Storage.BaseURL,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Endpoint:  cfg.Storage.Endpoint,
		CDNDomain: cfg.Storage.CDNDomain,
	}, utils.NewHTTPClient(30*time.Second))
	if err != nil {
		return nil, fmt.Errorf("初始化存储失败: %w", err)
	}
	c.Storage = storage

	// -------- 业务服务 --------
	c.Services = newServices(cfg, db, storage, c.Cache, logger)

	// -------- Controller 层 --------
	c.Controllers = newControllers(c.Services)

	// -------- 定时任务 --------
	c.Tasks = task.NewTaskManager(&task.TaskManagerDeps{
		Reconciler: c.Services.Reconcile,
		Backupper:  c.Services.Backup,
	}, &task.TaskManagerConfig{
		ReconcileEnabled: cfg.Task.ReconcileEnabled,
		ReconcileSpec:    cfg.Task.ReconcileSpec,
		BackupEnabled:    cfg.Task.BackupEnabled,
		BackupSpec:       cfg.Task.BackupSpec,
	}, logger)

	return c, nil
}

// newCache Redis 不可用时退回进程内缓存
func newCache(ctx context.Context, cfg *config.Config, logger *zap.Logger) cache.Cache {
	if !cfg.Redis.Enabled {
		return cache.NewMemoryCache()
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	rc, err := cache.NewRedisCache(pingCtx, &cache.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Prefix:   cfg.Redis.Prefix,
	})
	if err != nil {
		logger.Warn("Redis 连接失败，使用进程内缓存", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		return cache.NewMemoryCache()
	}
	return rc
}

func newServices(cfg *config.Config, db *gorm.DB, storage service.StorageProvider, c cache.Cache, logger *zap.Logger) *Services {
	uow := repository.NewUnitOfWork(db)
	limits := service.UploadLimits{MaxSize: cfg.Upload.MaxSize, AllowedExt: cfg.Upload.AllowedExt}

	stats := service.NewStatsService(uow.Stats, c, logger)
	orders := service.NewOrderService(uow, storage, stats, limits, logger)

	return &Services{
		Auth:       service.NewAuthService(uow.Users, uow.Roles, cfg.Admin.Email, logger),
		User:       service.NewUserService(uow.Users, uow.Roles, uow.Orders, logger),
		OrderType:  service.NewOrderTypeService(uow.OrderTypes, uow.Orders, logger),
		OrderField: service.NewOrderFieldService(uow.OrderFields, logger),
		Order:      orders,
		Stats:      stats,
		WechatUser: service.NewWechatUserService(uow, storage, stats, limits, logger),
		Reconcile:  service.NewReconcileService(uow, logger),
		Excel:      service.NewExcelService(uow, orders, logger),
		Backup:     service.NewBackupService(cfg.Database.Driver, cfg.Database.DSN, cfg.Backup.Dir, logger),
		Seed: service.NewSeedService(db, service.AdminAccount{
			Email:    cfg.Admin.Email,
			Username: cfg.Admin.Username,
			Password: cfg.Admin.Password,
		}, logger),
	}
}

func newControllers(svc *Services) *router.Controllers {
	return &router.Controllers{
		Auth:        controller.NewAuthController(svc.Auth),
		User:        controller.NewUserController(svc.User),
		Order:       controller.NewOrderController(svc.Order, service.DefaultFeeRules()),
		Excel:       controller.NewExcelController(svc.Excel),
		OrderType:   controller.NewOrderTypeController(svc.OrderType),
		OrderField:  controller.NewOrderFieldController(svc.OrderField),
		WechatUser:  controller.NewWechatUserController(svc.WechatUser),
		Stats:       controller.NewStatsController(svc.Stats),
		Maintenance: controller.NewMaintenanceController(svc.Reconcile, svc.Backup),
	}
}

// Router 创建 HTTP 路由
func (c *Container) Router() *gin.Engine {
	uploadDir := ""
	if c.Config.Storage.Provider == "" || c.Config.Storage.Provider == "local" {
		uploadDir = c.Config.Storage.BasePath
	}
	return router.SetupRouter(c.Controllers, router.Options{Logger: c.Logger, UploadDir: uploadDir})
}

// Close 释放缓存与数据库连接
func (c *Container) Close() {
	if c.Cache != nil {
		_ = c.Cache.Close()
	}
	if sqlDB, err := c.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
