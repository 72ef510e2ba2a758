package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"wechat_order_v1/internal/api/dto"
	"wechat_order_v1/internal/model"
	"wechat_order_v1/internal/repository"
)

// ==================== 测试辅助 ====================

func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "连接测试数据库失败")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(model.AllModels()...))
	require.NoError(t, seedRoles(context.Background(), db))
	return db
}

// createUser 创建指定角色的系统用户
func createUser(t *testing.T, db *gorm.DB, username, roleName string) *model.User {
	t.Helper()
	var role model.Role
	require.NoError(t, db.Where("name = ?", roleName).First(&role).Error)

	user := &model.User{
		Email:        username + "@example.com",
		Username:     username,
		PasswordHash: "x",
		RoleID:       role.ID,
		MemberSince:  time.Now(),
		LastSeen:     time.Now(),
		Role:         &role,
	}
	require.NoError(t, db.Omit("Role").Create(user).Error)
	return user
}

func viewerOf(u *model.User) Viewer {
	return Viewer{UserID: u.ID, Username: u.Username, Permissions: u.Permissions()}
}

func createOrderType(t *testing.T, db *gorm.DB, name string) *model.OrderType {
	t.Helper()
	ot := &model.OrderType{Name: name, IsActive: true}
	require.NoError(t, db.Create(ot).Error)
	return ot
}

// ==================== 测试替身 ====================

// countingStats 记录统计缓存失效次数
type countingStats struct {
	mu    sync.Mutex
	calls int
}

func (c *countingStats) Invalidate(context.Context) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
}

func (c *countingStats) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// memoryStorage 内存存储
type memoryStorage struct {
	mu      sync.Mutex
	files   map[string][]byte
	deleted []string
	seq     int
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{files: map[string][]byte{}}
}

func (m *memoryStorage) Upload(_ context.Context, data []byte, dir, filename, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	path := fmt.Sprintf("uploads/%s/%d_%s", dir, m.seq, filename)
	m.files[path] = data
	return path, nil
}

func (m *memoryStorage) UploadFromURL(ctx context.Context, sourceURL, dir string) (string, error) {
	name := sourceURL[strings.LastIndex(sourceURL, "/")+1:]
	return m.Upload(ctx, []byte(sourceURL), dir, name, "")
}

func (m *memoryStorage) Delete(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, path)
	m.deleted = append(m.deleted, path)
	return nil
}

func (m *memoryStorage) GetSignedURL(_ context.Context, path string, _ time.Duration) (string, error) {
	return path, nil
}

func (m *memoryStorage) has(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[path]
	return ok
}

var testLimits = UploadLimits{MaxSize: 1 << 20, AllowedExt: []string{"png", "jpg", "jpeg", "gif"}}

// orderFixture 订单相关服务
type orderFixture struct {
	db      *gorm.DB
	uow     *repository.UnitOfWork
	storage *memoryStorage
	stats   *countingStats
	orders  *OrderService
	wechat  *WechatUserService
	poster  *model.OrderType
	admin   *model.User
	alice   *model.User
	bob     *model.User
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	db := setupServiceTestDB(t)
	f := &orderFixture{
		db:      db,
		uow:     repository.NewUnitOfWork(db),
		storage: newMemoryStorage(),
		stats:   &countingStats{},
	}
	f.orders = NewOrderService(f.uow, f.storage, f.stats, testLimits, zap.NewNop())
	f.orders.now = func() time.Time { return time.Date(2024, 5, 20, 10, 0, 0, 0, time.Local) }
	f.wechat = NewWechatUserService(f.uow, f.storage, f.stats, testLimits, zap.NewNop())
	f.poster = createOrderType(t, db, "海报")
	f.admin = createUser(t, db, "admin", model.RoleSuperAdmin)
	f.alice = createUser(t, db, "alice", model.RoleUser)
	f.bob = createUser(t, db, "bob", model.RoleUser)
	return f
}

// saveReq 最小合法的订单请求
func (f *orderFixture) saveReq(code, wechatName, wechatID, phone string) *dto.SaveOrderRequest {
	amount := decimal.RequireFromString("100")
	typeID := f.poster.ID
	return &dto.SaveOrderRequest{
		OrderCode:      code,
		WechatName:     wechatName,
		WechatID:       wechatID,
		Phone:          phone,
		OrderInfo:      "海报设计",
		CompletionTime: "2024-05-10",
		Quantity:       1,
		Amount:         &amount,
		OrderTypeID:    &typeID,
	}
}
