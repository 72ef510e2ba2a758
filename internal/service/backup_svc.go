package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"wechat_order_v1/internal/api/dto"
	"wechat_order_v1/pkg/database"
)

// BackupService SQLite 数据库文件备份
type BackupService struct {
	driver string
	dsn    string
	dir    string
	logger *zap.Logger
	now    func() time.Time
}

// NewBackupService 创建服务
func NewBackupService(driver, dsn, dir string, logger *zap.Logger) *BackupService {
	return &BackupService{driver: driver, dsn: dsn, dir: dir, logger: logger, now: time.Now}
}

// Supported 当前数据库是否支持文件备份
func (s *BackupService) Supported() bool {
	return database.IsSQLite(s.driver) && database.SQLiteFilePath(s.dsn) != ""
}

// Backup 复制数据库文件到 {dir}/{name}_{YYYYmmddHHMMSS}.sqlite
func (s *BackupService) Backup(ctx context.Context) (*dto.BackupResult, error) {
	if !s.Supported() {
		return nil, ErrBackupUnsupported
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src := database.SQLiteFilePath(s.dsn)
	in, err := os.Open(src)
	if err != nil {
		return nil, fmt.Errorf("打开数据库文件失败: %w", err)
	}
	defer in.Close()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("创建备份目录失败: %w", err)
	}
	name := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	dst := filepath.Join(s.dir, fmt.Sprintf("%s_%s.sqlite", name, s.now().Format("20060102150405")))

	out, err := os.Create(dst)
	if err != nil {
		return nil, fmt.Errorf("创建备份文件失败: %w", err)
	}
	size, err := io.Copy(out, in)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(dst)
		return nil, fmt.Errorf("写入备份文件失败: %w", err)
	}

	s.logger.Info("数据库备份完成", zap.String("path", dst), zap.Int64("size", size))
	return &dto.BackupResult{Path: dst, Size: size}, nil
}

// ==================== 错误定义 ====================

var ErrBackupUnsupported = errors.New("仅 SQLite 文件数据库支持备份")
