package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"wechat_order_v1/internal/app"
	"wechat_order_v1/internal/config"
	"wechat_order_v1/pkg/logger"
)

// @title 微信订单管理 API
// @version 1.0
// @description 订单录入、微信用户、统计与导入导出接口
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Bearer {access_token}
func main() {
	// 1. 加载配置
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	gin.SetMode(cfg.Server.Mode)

	zlog, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, cfg.Log.Service)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	// 2. 初始化依赖
	c, err := app.New(context.Background(), cfg, zlog)
	if err != nil {
		zlog.Fatal("初始化依赖失败", zap.Error(err))
	}
	defer c.Close()

	// 3. 建表与初始化数据
	if err := c.Services.Seed.Init(context.Background()); err != nil {
		zlog.Fatal("数据库初始化失败", zap.Error(err))
	}

	// 4. 启动定时任务
	if err := c.Tasks.Start(); err != nil {
		zlog.Fatal("启动定时任务失败", zap.Error(err))
	}
	defer c.Tasks.Stop()

	// 5. 启动服务
	startServer(c.Router(), cfg.Server.Port, zlog)
}

// ==================== 服务启动 ====================

// startServer 启动服务，收到 SIGINT/SIGTERM 后优雅关闭
func startServer(r *gin.Engine, port string, zlog *zap.Logger) {
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	// 异步启动服务
	go func() {
		zlog.Info("服务启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("服务启动失败", zap.Error(err))
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("正在关闭服务...")

	// 优雅关闭，最多等待 30 秒
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zlog.Error("服务强制关闭", zap.Error(err))
		return
	}

	zlog.Info("服务已退出")
}
