package task

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"wechat_order_v1/internal/api/dto"
)

// Backupper 数据库备份
type Backupper interface {
	Supported() bool
	Backup(ctx context.Context) (*dto.BackupResult, error)
}

// BackupTask 定时备份 SQLite 数据库文件
type BackupTask struct {
	svc     Backupper
	spec    string
	cron    *cron.Cron
	timeout time.Duration
	logger  *zap.Logger
}

// NewBackupTask 创建任务
func NewBackupTask(svc Backupper, spec string, logger *zap.Logger) *BackupTask {
	return &BackupTask{
		svc:     svc,
		spec:    spec,
		cron:    cron.New(cron.WithSeconds()),
		timeout: 30 * time.Minute,
		logger:  logger.Named("backup_task"),
	}
}

// Start 注册并启动定时任务
func (t *BackupTask) Start() error {
	_, err := t.cron.AddFunc(t.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
		defer cancel()

		if _, err := t.RunNow(ctx); err != nil {
			t.logger.Error("定时备份失败", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}

	t.cron.Start()
	t.logger.Info("数据库备份任务已启动", zap.String("spec", t.spec))
	return nil
}

// Stop 停止任务
func (t *BackupTask) Stop() {
	<-t.cron.Stop().Done()
}

// RunNow 立即备份
func (t *BackupTask) RunNow(ctx context.Context) (*dto.BackupResult, error) {
	return t.svc.Backup(ctx)
}
