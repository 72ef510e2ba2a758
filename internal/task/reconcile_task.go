package task

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"wechat_order_v1/internal/api/dto"
)

// Reconciler 微信用户采集与刷新
type Reconciler interface {
	Collect(ctx context.Context) (*dto.ReconcileResult, error)
	Refresh(ctx context.Context) (*dto.ReconcileResult, error)
}

// ReconcileResult 一次对账的两步结果
type ReconcileResult struct {
	Collect *dto.ReconcileResult `json:"collect"`
	Refresh *dto.ReconcileResult `json:"refresh"`
}

// ReconcileTask 定时从订单采集并刷新微信用户
type ReconcileTask struct {
	svc     Reconciler
	spec    string
	cron    *cron.Cron
	timeout time.Duration
	logger  *zap.Logger
}

// NewReconcileTask 创建任务，spec 为带秒的 cron 表达式
func NewReconcileTask(svc Reconciler, spec string, logger *zap.Logger) *ReconcileTask {
	return &ReconcileTask{
		svc:     svc,
		spec:    spec,
		cron:    cron.New(cron.WithSeconds()),
		timeout: 10 * time.Minute,
		logger:  logger.Named("reconcile_task"),
	}
}

// Start 注册并启动定时任务
func (t *ReconcileTask) Start() error {
	_, err := t.cron.AddFunc(t.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
		defer cancel()

		if _, err := t.RunNow(ctx); err != nil {
			t.logger.Error("微信用户定时同步失败", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}

	t.cron.Start()
	t.logger.Info("微信用户同步任务已启动", zap.String("spec", t.spec))
	return nil
}

// Stop 停止任务，等待执行中的任务结束
func (t *ReconcileTask) Stop() {
	<-t.cron.Stop().Done()
}

// RunNow 先采集再刷新
func (t *ReconcileTask) RunNow(ctx context.Context) (*ReconcileResult, error) {
	collected, err := t.svc.Collect(ctx)
	if err != nil {
		return nil, err
	}
	refreshed, err := t.svc.Refresh(ctx)
	if err != nil {
		return &ReconcileResult{Collect: collected}, err
	}

	t.logger.Info("微信用户同步完成",
		zap.Int("created", collected.Created),
		zap.Int("updated", collected.Updated+refreshed.Updated),
		zap.Int("cleaned", refreshed.Cleaned),
	)
	return &ReconcileResult{Collect: collected, Refresh: refreshed}, nil
}
