package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wechat_order_v1/pkg/utils"
)

func TestNewStorageProvider(t *testing.T) {
	p, err := NewStorageProvider(&StorageConfig{Provider: "local", BasePath: t.TempDir()}, nil)
	require.NoError(t, err)
	assert.IsType(t, &LocalStorage{}, p)

	_, err = NewStorageProvider(&StorageConfig{Provider: "ftp"}, nil)
	assert.Error(t, err)
}

func TestLocalStorage_UploadAndDelete(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStorage(&StorageConfig{BasePath: dir, BaseURL: "uploads"}, nil)
	ctx := context.Background()

	path, err := s.Upload(ctx, []byte("\x89PNG\r\n\x1a\nxxxx"), DirOrders, "a.PNG", "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, "uploads/orders/"))
	assert.True(t, strings.HasSuffix(path, ".png"))

	name := strings.TrimPrefix(path, "uploads/orders/")
	_, err = os.Stat(filepath.Join(dir, DirOrders, name))
	require.NoError(t, err)

	signed, err := s.GetSignedURL(ctx, path, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, path, signed)

	require.NoError(t, s.Delete(ctx, path))
	_, err = os.Stat(filepath.Join(dir, DirOrders, name))
	assert.True(t, os.IsNotExist(err))

	// 重复删除不报错
	assert.NoError(t, s.Delete(ctx, path))
	// 不允许越出上传目录
	assert.Error(t, s.Delete(ctx, "uploads/../../etc/passwd"))
}

func TestLocalStorage_UploadFromURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte("jpeg-bytes"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	s := NewLocalStorage(&StorageConfig{BasePath: dir}, utils.NewHTTPClient(5*time.Second))

	path, err := s.UploadFromURL(context.Background(), srv.URL+"/avatar?size=big", DirAvatars)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, "uploads/avatars/"))
	assert.True(t, strings.HasSuffix(path, ".jpg"))
}

func TestObjectStorage_Keys(t *testing.T) {
	s := &ObjectStorage{prefix: "wx", publicURL: "https://cdn.example.com"}
	key := s.key(DirQRCodes, "a.png")
	assert.Equal(t, "wx/qr_codes/a.png", key)
	assert.Equal(t, key, s.extractKey("https://cdn.example.com/"+key))

	cfg := &StorageConfig{CDNDomain: "img.example.com/"}
	assert.Equal(t, "https://img.example.com", publicBase(cfg, "fallback"))
	assert.Equal(t, "fallback", publicBase(&StorageConfig{}, "fallback"))
}

func TestUploadLimits_Check(t *testing.T) {
	limits := UploadLimits{MaxSize: 4, AllowedExt: []string{"png"}}
	assert.NoError(t, limits.Check(UploadFile{Filename: "a.png", Data: []byte("1234")}))
	assert.ErrorIs(t, limits.Check(UploadFile{Filename: "a.gif", Data: []byte("1")}), ErrValidation)
	assert.ErrorIs(t, limits.Check(UploadFile{Filename: "a.png", Data: []byte("12345")}), ErrValidation)
}
