package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wechat_order_v1/internal/middleware"
	"wechat_order_v1/internal/model"
	"wechat_order_v1/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func performError(err error) (*httptest.ResponseRecorder, map[string]interface{}) {
	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)
	ctx.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	handleError(ctx, err)

	var body map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestHandleError_StatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{service.ErrOrderNotFound, http.StatusNotFound},
		{fmt.Errorf("查询失败: %w", service.ErrWechatUserNotFound), http.StatusNotFound},
		{service.ErrForbidden, http.StatusForbidden},
		{service.ErrInvalidCredentials, http.StatusUnauthorized},
		{service.ErrOrderTypeExists, http.StatusBadRequest},
		{service.ErrUnsupportedFile, http.StatusBadRequest},
		{service.ErrOrderTypeInUse, http.StatusConflict},
		{service.ErrUserHasOrders, http.StatusConflict},
		{service.ErrReconcileRunning, http.StatusConflict},
		{errors.New("db down"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		w, body := performError(c.err)
		assert.Equal(t, c.status, w.Code, c.err.Error())
		assert.Equal(t, float64(c.status), body["code"])
		assert.Equal(t, c.err.Error(), body["message"])
	}
}

func TestHandleError_ValidationField(t *testing.T) {
	w, body := performError(&service.ValidationError{Field: "phone", Message: "手机号格式不正确"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "手机号格式不正确", body["message"])
	assert.Equal(t, map[string]interface{}{"field": "phone"}, body["data"])
}

func TestViewerOf(t *testing.T) {
	ctx, _ := gin.CreateTestContext(httptest.NewRecorder())
	ctx.Set(middleware.ContextKeyUserID, int64(7))
	ctx.Set(middleware.ContextKeyUsername, "alice")
	ctx.Set(middleware.ContextKeyPerms, model.PermViewOwn|model.PermSubmit)

	v := viewerOf(ctx)
	assert.Equal(t, int64(7), v.UserID)
	assert.Equal(t, "alice", v.Username)
	assert.False(t, v.CanViewAll())
}

func TestParamID(t *testing.T) {
	r := gin.New()
	r.GET("/orders/:id", func(ctx *gin.Context) {
		id, ok := paramID(ctx, "id")
		if !ok {
			return
		}
		success(ctx, "ok", id)
	})

	for path, status := range map[string]int{"/orders/12": 200, "/orders/abc": 400, "/orders/0": 400} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, status, w.Code, path)
	}
}

func TestRegisterValidators(t *testing.T) {
	require.NoError(t, RegisterValidators())

	type form struct {
		Phone    string `json:"phone" binding:"omitempty,cnphone"`
		Username string `json:"username" binding:"omitempty,username"`
	}
	r := gin.New()
	r.POST("/", func(ctx *gin.Context) {
		var f form
		if err := ctx.ShouldBindJSON(&f); err != nil {
			badRequest(ctx, err)
			return
		}
		success(ctx, "ok", nil)
	})

	cases := map[string]int{
		`{"phone":"13800138000"}`:   200,
		`{"phone":"12800138000"}`:   400,
		`{"username":"alice.w_1"}`:  200,
		`{"username":"1alice"}`:     400,
		`{"phone":"","username":""}`: 200,
	}
	for body, status := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		assert.Equal(t, status, w.Code, body)
	}
}
