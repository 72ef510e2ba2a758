package app

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"wechat_order_v1/internal/config"
)

// ==================== 测试辅助 ====================

type testServer struct {
	t      *testing.T
	engine *gin.Engine
	c      *Container
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	cfg := config.Default()
	cfg.Database.DSN = ":memory:"
	cfg.Storage.BasePath = t.TempDir()
	cfg.Task.ReconcileEnabled = false
	cfg.Task.BackupEnabled = false

	c, err := NewWithDB(context.Background(), cfg, db, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, c.Services.Seed.Init(context.Background()))
	t.Cleanup(c.Close)

	return &testServer{t: t, engine: c.Router(), c: c}
}

type apiResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (s *testServer) do(method, path, token string, body interface{}) (*httptest.ResponseRecorder, apiResponse) {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var resp apiResponse
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func (s *testServer) login(account, password string) string {
	s.t.Helper()
	w, resp := s.do(http.MethodPost, "/api/auth/login", "", gin.H{"account": account, "password": password})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())

	var data struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(s.t, json.Unmarshal(resp.Data, &data))
	return data.AccessToken
}

func (s *testServer) registerUser(username string) string {
	s.t.Helper()
	w, _ := s.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"email":     username + "@example.com",
		"username":  username,
		"password":  "password123",
		"password2": "password123",
	})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	return s.login(username, "password123")
}

func (s *testServer) firstOrderTypeID(token string) int64 {
	s.t.Helper()
	w, resp := s.do(http.MethodGet, "/api/order-types?active=1", token, nil)
	require.Equal(s.t, http.StatusOK, w.Code)

	var types []struct {
		ID int64 `json:"id"`
	}
	require.NoError(s.t, json.Unmarshal(resp.Data, &types))
	require.NotEmpty(s.t, types)
	return types[0].ID
}

func orderBody(code, phone string, typeID int64) gin.H {
	return gin.H{
		"order_code":      code,
		"wechat_name":     "张三",
		"wechat_id":       "zhangsan01",
		"phone":           phone,
		"order_info":      "A4 海报 2 张",
		"completion_time": "2024-05-10",
		"quantity":        2,
		"amount":          "88.50",
		"order_type_id":   typeID,
	}
}

// ==================== 测试用例 ====================

func TestAPI_AuthRequired(t *testing.T) {
	s := newTestServer(t)

	w, resp := s.do(http.MethodGet, "/api/orders", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 401, resp.Code)

	w, _ = s.do(http.MethodGet, "/api/orders", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAPI_LoginFailure(t *testing.T) {
	s := newTestServer(t)

	w, resp := s.do(http.MethodPost, "/api/auth/login", "", gin.H{"account": "admin", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotEmpty(t, resp.Message)
}

func TestAPI_OrderLifecycle(t *testing.T) {
	s := newTestServer(t)
	alice := s.registerUser("alice")
	typeID := s.firstOrderTypeID(alice)

	w, resp := s.do(http.MethodPost, "/api/orders", alice, orderBody("ORD-API-1", "13800000001", typeID))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 0, resp.Code)

	var created struct {
		ID     int64  `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &created))
	assert.Equal(t, "未完成", created.Status)

	w, resp = s.do(http.MethodGet, "/api/orders?start_date=2024-05-01&end_date=2024-05-31", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Total       int64           `json:"total"`
		TotalAmount decimal.Decimal `json:"total_amount"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &list))
	assert.Equal(t, int64(1), list.Total)
	assert.True(t, list.TotalAmount.Equal(decimal.RequireFromString("88.50")), list.TotalAmount.String())

	// 重复订单编码
	w, _ = s.do(http.MethodPost, "/api/orders", alice, orderBody("ORD-API-1", "13800000001", typeID))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 其他普通用户无权查看
	bob := s.registerUser("bob")
	w, _ = s.do(http.MethodGet, "/api/orders/"+itoa(created.ID), bob, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// 修改状态需要管理员
	w, _ = s.do(http.MethodPut, "/api/orders/"+itoa(created.ID)+"/status", alice, gin.H{"status": "已结算"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	admin := s.login("admin", "admin123")
	w, _ = s.do(http.MethodPut, "/api/orders/"+itoa(created.ID)+"/status", admin, gin.H{"status": "已结算"})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, _ = s.do(http.MethodDelete, "/api/orders/"+itoa(created.ID), alice, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(http.MethodGet, "/api/orders/"+itoa(created.ID), alice, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPI_BindingValidators(t *testing.T) {
	s := newTestServer(t)
	alice := s.registerUser("alice")
	typeID := s.firstOrderTypeID(alice)

	w, resp := s.do(http.MethodPost, "/api/orders", alice, orderBody("ORD-API-2", "12345", typeID))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, resp.Message, "参数错误")

	w, _ = s.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"email":     "x@example.com",
		"username":  "9starts-with-digit",
		"password":  "password123",
		"password2": "password123",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPI_Permissions(t *testing.T) {
	s := newTestServer(t)
	alice := s.registerUser("alice")
	admin := s.login("admin", "admin123")

	for _, path := range []string{"/api/wechat-users", "/api/stats", "/api/users", "/api/admin/users", "/api/admin/stats/daily"} {
		w, _ := s.do(http.MethodGet, path, alice, nil)
		assert.Equal(t, http.StatusForbidden, w.Code, path)

		w, _ = s.do(http.MethodGet, path, admin, nil)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	w, _ := s.do(http.MethodPost, "/api/order-types", alice, gin.H{"name": "名片"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = s.do(http.MethodPost, "/api/order-types", admin, gin.H{"name": "名片"})
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(http.MethodPost, "/api/order-types", admin, gin.H{"name": "名片"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPI_WechatUserCreatedWithOrder(t *testing.T) {
	s := newTestServer(t)
	alice := s.registerUser("alice")
	admin := s.login("admin", "admin123")
	typeID := s.firstOrderTypeID(alice)

	w, _ := s.do(http.MethodPost, "/api/orders", alice, orderBody("ORD-API-3", "13800000003", typeID))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, resp := s.do(http.MethodGet, "/api/wechat-users?search=zhangsan", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Total int64 `json:"total"`
		List  []struct {
			ID    int64  `json:"id"`
			Phone string `json:"phone"`
		} `json:"list"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &list))
	require.Equal(t, int64(1), list.Total)
	assert.Equal(t, "13800000003", list.List[0].Phone)

	// 有关联订单时不强制删除
	w, resp = s.do(http.MethodDelete, "/api/wechat-users/"+itoa(list.List[0].ID), admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(resp.Data), `"has_orders":true`)
}

func TestAPI_Tools(t *testing.T) {
	s := newTestServer(t)
	alice := s.registerUser("alice")

	w, resp := s.do(http.MethodGet, "/api/orders/generate-code", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(resp.Data), `"order_code":"ORD`)

	w, resp = s.do(http.MethodPost, "/api/orders/calculate", alice, gin.H{"base_amount": "50", "quantity": 1})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(resp.Data), `"final_amount"`)

	w, _ = s.do(http.MethodGet, "/api/orders/template", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.NotZero(t, w.Body.Len())
}

func TestAPI_BackupUnsupportedForMemoryDB(t *testing.T) {
	s := newTestServer(t)
	admin := s.login("admin", "admin123")

	w, resp := s.do(http.MethodPost, "/api/admin/backup", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotEmpty(t, resp.Message)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func TestAPI_ImportCSV(t *testing.T) {
	s := newTestServer(t)
	alice := s.registerUser("alice")

	csv := "订单编码,订单类型,微信名,微信号,手机号,订单信息,完成时间,数量,金额,备注\n" +
		"ORD-CSV-1,海报,李四,lisi01,13900000001,名片 100 张,2024-05-12,1,30,\n" +
		"ORD-CSV-2,海报,,lisi01,13900000001,缺少微信名,2024-05-12,1,30,\n"

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "orders.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(csv))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/orders/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+alice)
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data struct {
			SuccessCount int      `json:"success_count"`
			ErrorCount   int      `json:"error_count"`
			Errors       []string `json:"errors"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Data.SuccessCount)
	assert.Equal(t, 1, resp.Data.ErrorCount)
	require.Len(t, resp.Data.Errors, 1)
	assert.True(t, strings.HasPrefix(resp.Data.Errors[0], "第3行"), resp.Data.Errors[0])
}
