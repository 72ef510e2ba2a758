package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"wechat_order_v1/internal/controller"
	"wechat_order_v1/internal/middleware"
	"wechat_order_v1/internal/model"

	_ "wechat_order_v1/docs"
)

// Controllers 控制器集合
type Controllers struct {
	Auth        *controller.AuthController
	User        *controller.UserController
	Order       *controller.OrderController
	Excel       *controller.ExcelController
	OrderType   *controller.OrderTypeController
	OrderField  *controller.OrderFieldController
	WechatUser  *controller.WechatUserController
	Stats       *controller.StatsController
	Maintenance *controller.MaintenanceController
}

// Options 路由选项
type Options struct {
	Logger    *zap.Logger
	UploadDir string // 本地存储目录，为空时不挂载 /uploads
}

// SetupRouter 创建 gin 引擎并注册所有路由
func SetupRouter(ctl *Controllers, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(middleware.ZapRecovery(opts.Logger), middleware.ZapLogger(opts.Logger))

	// Swagger 文档：/swagger/index.html
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	if opts.UploadDir != "" {
		r.Static("/uploads", opts.UploadDir)
	}

	InitRoutes(r, ctl)
	return r
}

// InitRoutes 注册 /api 路由
func InitRoutes(r *gin.Engine, ctl *Controllers) {
	perm := middleware.RequirePermission

	api := r.Group("/api")

	// auth 公开接口
	public := api.Group("/auth")
	{
		public.POST("/register", ctl.Auth.Register)
		public.POST("/login", ctl.Auth.Login)
		public.POST("/refresh", ctl.Auth.RefreshToken)
	}

	authed := api.Group("")
	authed.Use(middleware.JWTAuth(), middleware.AuditContext())

	auth := authed.Group("/auth")
	{
		auth.GET("/profile", ctl.Auth.GetProfile)
		auth.PUT("/password", ctl.Auth.ChangePassword)
	}

	// 订单
	orders := authed.Group("/orders")
	{
		orders.GET("", perm(model.PermViewOwn), ctl.Order.List)
		orders.POST("", perm(model.PermSubmit), ctl.Order.Create)
		orders.POST("/quick", perm(model.PermSubmit), ctl.Order.QuickAdd)
		orders.GET("/generate-code", perm(model.PermSubmit), ctl.Order.GenerateCode)
		orders.POST("/calculate", perm(model.PermSubmit), ctl.Order.CalculateFee)

		orders.GET("/template", perm(model.PermSubmit), ctl.Excel.Template)
		orders.GET("/export", perm(model.PermViewOwn), ctl.Excel.Export)
		orders.POST("/import", perm(model.PermSubmit),
			middleware.JobRateLimit(middleware.JobImport, 0), ctl.Excel.Import)

		orders.POST("/batch/status", perm(model.PermAdmin), ctl.Order.BatchUpdateStatus)
		orders.POST("/batch/delete", perm(model.PermAdmin), ctl.Order.BatchDelete)

		// 详情 / 编辑 / 删除由 Service 校验本人或查看全部权限
		orders.GET("/:id", ctl.Order.Get)
		orders.PUT("/:id", ctl.Order.Update)
		orders.DELETE("/:id", ctl.Order.Delete)
		orders.PUT("/:id/status", perm(model.PermAdmin), ctl.Order.UpdateStatus)
		orders.POST("/:id/images", ctl.Order.UploadImages)
		orders.DELETE("/images/:image_id", ctl.Order.DeleteImage)
	}

	authed.GET("/users", perm(model.PermViewAll), ctl.User.Submitters)

	// 订单类型 / 字段
	orderTypes := authed.Group("/order-types")
	{
		orderTypes.GET("", ctl.OrderType.List)
		orderTypes.POST("", perm(model.PermManageFields), ctl.OrderType.Create)
		orderTypes.PUT("/:id", perm(model.PermManageFields), ctl.OrderType.Update)
		orderTypes.DELETE("/:id", perm(model.PermManageFields), ctl.OrderType.Delete)
	}
	orderFields := authed.Group("/order-fields")
	{
		orderFields.GET("", ctl.OrderField.List)
		orderFields.POST("", perm(model.PermManageFields), ctl.OrderField.Create)
		orderFields.PUT("/:id", perm(model.PermManageFields), ctl.OrderField.Update)
		orderFields.DELETE("/:id", perm(model.PermManageFields), ctl.OrderField.Delete)
	}

	// 微信用户
	wechatUsers := authed.Group("/wechat-users", perm(model.PermViewAll))
	{
		wechatUsers.GET("", ctl.WechatUser.List)
		wechatUsers.GET("/:id", ctl.WechatUser.Detail)
		wechatUsers.PUT("/:id", ctl.WechatUser.Update)
		wechatUsers.DELETE("/:id", ctl.WechatUser.Delete)
		wechatUsers.POST("/:id/avatar", ctl.WechatUser.UploadAvatar)
		wechatUsers.POST("/:id/qr-code", ctl.WechatUser.UploadQRCode)
	}

	authed.GET("/stats", perm(model.PermViewAll), ctl.Stats.Overview)

	// 管理员
	admin := authed.Group("/admin", perm(model.PermAdmin))
	{
		admin.GET("/stats/daily", ctl.Stats.Daily)

		admin.POST("/wechat-users/collect",
			middleware.GlobalJobRateLimit(middleware.JobCollect, 0), ctl.Maintenance.Collect)
		admin.POST("/wechat-users/refresh",
			middleware.GlobalJobRateLimit(middleware.JobRefresh, 0), ctl.Maintenance.Refresh)
		admin.POST("/backup",
			middleware.GlobalJobRateLimit(middleware.JobBackup, 0), ctl.Maintenance.Backup)

		admin.GET("/users", ctl.User.List)
		admin.POST("/users", ctl.User.Create)
		admin.GET("/users/:id", ctl.User.Get)
		admin.PUT("/users/:id", ctl.User.Update)
		admin.DELETE("/users/:id", ctl.User.Delete)
		admin.GET("/roles", ctl.User.Roles)
	}
}
