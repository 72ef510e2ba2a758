package controller

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"wechat_order_v1/internal/middleware"
	"wechat_order_v1/internal/model"
	"wechat_order_v1/internal/service"
)

// ==================== 统一响应 ====================

func success(ctx *gin.Context, message string, data interface{}) {
	ctx.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": message,
		"data":    data,
	})
}

func fail(ctx *gin.Context, status int, message string) {
	ctx.JSON(status, gin.H{
		"code":    status,
		"message": message,
	})
}

// badRequest 参数绑定失败
func badRequest(ctx *gin.Context, err error) {
	fail(ctx, http.StatusBadRequest, "参数错误: "+err.Error())
}

// errorStatus 业务错误与 HTTP 状态码的对应关系，按顺序匹配
var errorStatus = []struct {
	err    error
	status int
}{
	{service.ErrValidation, http.StatusBadRequest},
	{service.ErrForbidden, http.StatusForbidden},

	{service.ErrInvalidCredentials, http.StatusUnauthorized},
	{service.ErrInvalidToken, http.StatusUnauthorized},

	{service.ErrOrderNotFound, http.StatusNotFound},
	{service.ErrImageNotFound, http.StatusNotFound},
	{service.ErrUserNotFound, http.StatusNotFound},
	{service.ErrOrderTypeNotFound, http.StatusNotFound},
	{service.ErrOrderFieldNotFound, http.StatusNotFound},
	{service.ErrWechatUserNotFound, http.StatusNotFound},

	{service.ErrInvalidOldPassword, http.StatusBadRequest},
	{service.ErrUsernameExists, http.StatusBadRequest},
	{service.ErrEmailExists, http.StatusBadRequest},
	{service.ErrOrderTypeExists, http.StatusBadRequest},
	{service.ErrOrderFieldExists, http.StatusBadRequest},
	{service.ErrDefaultField, http.StatusBadRequest},
	{service.ErrCannotDeleteSelf, http.StatusBadRequest},
	{service.ErrBackupUnsupported, http.StatusBadRequest},

	{service.ErrOrderTypeInUse, http.StatusConflict},
	{service.ErrUserHasOrders, http.StatusConflict},
	{service.ErrReconcileRunning, http.StatusConflict},
}

// handleError 按错误类型输出响应，未知错误返回 500
func handleError(ctx *gin.Context, err error) {
	status := http.StatusInternalServerError
	for _, m := range errorStatus {
		if errors.Is(err, m.err) {
			status = m.status
			break
		}
	}

	var verr *service.ValidationError
	if errors.As(err, &verr) {
		ctx.JSON(status, gin.H{
			"code":    status,
			"message": verr.Message,
			"data":    gin.H{"field": verr.Field},
		})
		return
	}

	if status == http.StatusInternalServerError {
		_ = ctx.Error(err)
	}
	fail(ctx, status, err.Error())
}

// ==================== 请求辅助 ====================

// viewerOf 从 JWT 上下文构造当前操作人
func viewerOf(ctx *gin.Context) service.Viewer {
	return service.Viewer{
		UserID:      middleware.GetUserID(ctx),
		Username:    middleware.GetUsername(ctx),
		Permissions: middleware.GetPermissions(ctx),
	}
}

// paramID 解析路径参数中的 ID
func paramID(ctx *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id <= 0 {
		fail(ctx, http.StatusBadRequest, "无效的ID")
		return 0, false
	}
	return id, true
}

// readFile 读取 multipart 文件内容
func readFile(fh *multipart.FileHeader) (service.UploadFile, error) {
	f, err := fh.Open()
	if err != nil {
		return service.UploadFile{}, fmt.Errorf("读取上传文件失败: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return service.UploadFile{}, fmt.Errorf("读取上传文件失败: %w", err)
	}
	return service.UploadFile{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// formFiles 读取表单中 field 对应的全部文件
func formFiles(ctx *gin.Context, field string) ([]service.UploadFile, error) {
	form, err := ctx.MultipartForm()
	if err != nil {
		return nil, err
	}
	headers := form.File[field]
	files := make([]service.UploadFile, 0, len(headers))
	for _, fh := range headers {
		f, err := readFile(fh)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

// ==================== 自定义校验 ====================

// RegisterValidators 注册 binding 自定义规则：cnphone、username
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("binding 校验器类型不支持")
	}
	if err := v.RegisterValidation("cnphone", func(fl validator.FieldLevel) bool {
		return model.PhonePattern.MatchString(fl.Field().String())
	}); err != nil {
		return err
	}
	return v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return model.UsernamePattern.MatchString(fl.Field().String())
	})
}
