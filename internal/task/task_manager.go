package task

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"wechat_order_v1/internal/api/dto"
)

// ==================== TaskManager 定时任务管理器 ====================

// TaskManager 统一管理微信用户同步与数据库备份任务
type TaskManager struct {
	reconcileTask *ReconcileTask
	backupTask    *BackupTask
	logger        *zap.Logger
}

// TaskManagerDeps 任务管理器依赖
type TaskManagerDeps struct {
	Reconciler Reconciler
	Backupper  Backupper
}

// TaskManagerConfig 任务管理器配置
type TaskManagerConfig struct {
	ReconcileEnabled bool
	ReconcileSpec    string
	BackupEnabled    bool
	BackupSpec       string
}

// DefaultConfig 默认配置：每天 03:00 同步微信用户，02:30 备份
func DefaultConfig() *TaskManagerConfig {
	return &TaskManagerConfig{
		ReconcileEnabled: true,
		ReconcileSpec:    "0 0 3 * * *",
		BackupEnabled:    true,
		BackupSpec:       "0 30 2 * * *",
	}
}

// NewTaskManager 创建任务管理器
// 备份任务只在数据库支持文件备份时启用
func NewTaskManager(deps *TaskManagerDeps, cfg *TaskManagerConfig, logger *zap.Logger) *TaskManager {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	tm := &TaskManager{logger: logger.Named("task_manager")}

	if cfg.ReconcileEnabled && deps.Reconciler != nil {
		tm.reconcileTask = NewReconcileTask(deps.Reconciler, cfg.ReconcileSpec, logger)
	}

	if cfg.BackupEnabled && deps.Backupper != nil {
		if deps.Backupper.Supported() {
			tm.backupTask = NewBackupTask(deps.Backupper, cfg.BackupSpec, logger)
		} else {
			tm.logger.Info("当前数据库不支持文件备份，跳过备份任务")
		}
	}

	return tm
}

// ==================== 生命周期管理 ====================

// Start 启动所有已启用的任务
func (tm *TaskManager) Start() error {
	if tm.reconcileTask != nil {
		if err := tm.reconcileTask.Start(); err != nil {
			return fmt.Errorf("启动微信用户同步任务失败: %w", err)
		}
	}
	if tm.backupTask != nil {
		if err := tm.backupTask.Start(); err != nil {
			return fmt.Errorf("启动备份任务失败: %w", err)
		}
	}

	tm.logger.Info("定时任务已启动", zap.Any("status", tm.Status()))
	return nil
}

// Stop 停止所有任务
func (tm *TaskManager) Stop() {
	if tm.reconcileTask != nil {
		tm.reconcileTask.Stop()
	}
	if tm.backupTask != nil {
		tm.backupTask.Stop()
	}
	tm.logger.Info("定时任务已停止")
}

// ==================== 手动触发接口 ====================

// TriggerReconcile 立即执行一次微信用户同步
func (tm *TaskManager) TriggerReconcile(ctx context.Context) (*ReconcileResult, error) {
	if tm.reconcileTask == nil {
		return nil, ErrTaskDisabled
	}
	return tm.reconcileTask.RunNow(ctx)
}

// TriggerBackup 立即执行一次备份
func (tm *TaskManager) TriggerBackup(ctx context.Context) (*dto.BackupResult, error) {
	if tm.backupTask == nil {
		return nil, ErrTaskDisabled
	}
	return tm.backupTask.RunNow(ctx)
}

// ==================== 状态查询 ====================

// Status 任务启用状态
func (tm *TaskManager) Status() map[string]bool {
	return map[string]bool{
		"reconcile": tm.reconcileTask != nil,
		"backup":    tm.backupTask != nil,
	}
}

// ==================== 错误定义 ====================

type TaskError string

func (e TaskError) Error() string { return string(e) }

const (
	ErrTaskDisabled TaskError = "task is disabled"
)
