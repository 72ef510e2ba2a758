package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"wechat_order_v1/pkg/utils"
)

// 存储目录
const (
	DirOrders  = "orders"
	DirAvatars = "avatars"
	DirQRCodes = "qr_codes"
)

// ==================== 接口定义 ====================

// StorageProvider 存储提供者接口
type StorageProvider interface {
	// Upload 上传文件到 dir 目录，返回访问路径
	Upload(ctx context.Context, data []byte, dir, filename, contentType string) (string, error)

	// UploadFromURL 下载网络文件并上传
	UploadFromURL(ctx context.Context, sourceURL, dir string) (string, error)

	// Delete 删除文件，文件不存在不报错
	Delete(ctx context.Context, path string) error

	// GetSignedURL 获取签名URL (私有存储时使用)
	GetSignedURL(ctx context.Context, path string, expires time.Duration) (string, error)
}

// ==================== 配置 ====================

// StorageConfig 存储配置
type StorageConfig struct {
	Provider  string // "local" | "s3" | "cos"
	BasePath  string // local: 磁盘目录; s3/cos: key 前缀
	BaseURL   string // local: 返回路径前缀
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	Endpoint  string // 自定义端点 (腾讯云COS等)
	CDNDomain string // CDN域名 (可选)
}

// NewStorageProvider 根据配置创建存储
func NewStorageProvider(cfg *StorageConfig, client *resty.Client) (StorageProvider, error) {
	if client == nil {
		client = utils.NewHTTPClient(30 * time.Second)
	}
	switch cfg.Provider {
	case "", "local":
		return NewLocalStorage(cfg, client), nil
	case "s3":
		return NewS3Storage(cfg, client)
	case "cos":
		return NewCOSStorage(cfg, client)
	default:
		return nil, fmt.Errorf("不支持的存储提供者: %s", cfg.Provider)
	}
}

// objectName 存储文件名：uuid(hex) + 扩展名
func objectName(filename, contentType string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = utils.ExtFromContentType(contentType)
	}
	if ext == "" {
		ext = ".jpg"
	}
	return strings.ReplaceAll(uuid.NewString(), "-", "") + ext
}

func detectContentType(data []byte) string {
	return http.DetectContentType(data)
}

// ==================== 本地存储 ====================

// LocalStorage 本地磁盘存储，文件由 gin 静态目录对外提供
type LocalStorage struct {
	basePath string
	baseURL  string
	client   *resty.Client
}

// NewLocalStorage 创建本地存储
func NewLocalStorage(cfg *StorageConfig, client *resty.Client) *LocalStorage {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "uploads"
	}
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "uploads"
	}
	return &LocalStorage{basePath: basePath, baseURL: baseURL, client: client}
}

func (s *LocalStorage) Upload(ctx context.Context, data []byte, dir, filename, contentType string) (string, error) {
	if contentType == "" {
		contentType = detectContentType(data)
	}
	name := objectName(filename, contentType)

	target := filepath.Join(s.basePath, dir)
	if err := os.MkdirAll(target, 0o755); err != nil {
		return "", fmt.Errorf("创建上传目录失败: %w", err)
	}
	if err := os.WriteFile(filepath.Join(target, name), data, 0o644); err != nil {
		return "", fmt.Errorf("保存文件失败: %w", err)
	}
	return s.baseURL + "/" + dir + "/" + name, nil
}

func (s *LocalStorage) UploadFromURL(ctx context.Context, sourceURL, dir string) (string, error) {
	data, contentType, err := utils.DownloadFile(ctx, s.client, sourceURL)
	if err != nil {
		return "", err
	}
	return s.Upload(ctx, data, dir, filepath.Base(strings.SplitN(sourceURL, "?", 2)[0]), contentType)
}

func (s *LocalStorage) Delete(ctx context.Context, path string) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("删除文件失败: %w", err)
	}
	return nil
}

func (s *LocalStorage) GetSignedURL(ctx context.Context, path string, expires time.Duration) (string, error) {
	return path, nil // 本地存储无需签名
}

// resolve 访问路径转磁盘路径，拒绝越出上传目录
func (s *LocalStorage) resolve(path string) (string, error) {
	rel := strings.TrimPrefix(strings.TrimPrefix(path, "/"), s.baseURL+"/")
	full := filepath.Join(s.basePath, filepath.FromSlash(rel))
	base, err := filepath.Abs(s.basePath)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(full)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(abs, base+string(filepath.Separator)) {
		return "", fmt.Errorf("非法文件路径: %s", path)
	}
	return abs, nil
}

// ==================== S3 / COS ====================

// ObjectStorage S3 协议对象存储（AWS S3 与腾讯云 COS 共用）
type ObjectStorage struct {
	client    *s3.Client
	http      *resty.Client
	bucket    string
	prefix    string
	publicURL string // 不含末尾斜杠
}

// NewS3Storage 创建 AWS S3 存储
func NewS3Storage(cfg *StorageConfig, client *resty.Client) (*ObjectStorage, error) {
	awsCfg, err := loadAWSConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("加载AWS配置失败: %w", err)
	}
	return &ObjectStorage{
		client:    s3.NewFromConfig(awsCfg),
		http:      client,
		bucket:    cfg.Bucket,
		prefix:    strings.Trim(cfg.BasePath, "/"),
		publicURL: publicBase(cfg, fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)),
	}, nil
}

// NewCOSStorage 创建腾讯云 COS 存储（兼容S3协议）
func NewCOSStorage(cfg *StorageConfig, client *resty.Client) (*ObjectStorage, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://cos.%s.myqcloud.com", cfg.Region)
	}
	awsCfg, err := loadAWSConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("加载COS配置失败: %w", err)
	}
	return &ObjectStorage{
		client: s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}),
		http:      client,
		bucket:    cfg.Bucket,
		prefix:    strings.Trim(cfg.BasePath, "/"),
		publicURL: publicBase(cfg, fmt.Sprintf("https://%s.cos.%s.myqcloud.com", cfg.Bucket, cfg.Region)),
	}, nil
}

func loadAWSConfig(cfg *StorageConfig) (aws.Config, error) {
	return config.LoadDefaultConfig(context.Background(),
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
}

func publicBase(cfg *StorageConfig, fallback string) string {
	if cfg.CDNDomain != "" {
		return "https://" + strings.TrimSuffix(cfg.CDNDomain, "/")
	}
	return fallback
}

func (s *ObjectStorage) Upload(ctx context.Context, data []byte, dir, filename, contentType string) (string, error) {
	if contentType == "" {
		contentType = detectContentType(data)
	}
	key := s.key(dir, objectName(filename, contentType))

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("上传对象存储失败: %w", err)
	}
	return s.publicURL + "/" + key, nil
}

func (s *ObjectStorage) UploadFromURL(ctx context.Context, sourceURL, dir string) (string, error) {
	data, contentType, err := utils.DownloadFile(ctx, s.http, sourceURL)
	if err != nil {
		return "", err
	}
	return s.Upload(ctx, data, dir, filepath.Base(strings.SplitN(sourceURL, "?", 2)[0]), contentType)
}

func (s *ObjectStorage) Delete(ctx context.Context, path string) error {
	key := s.extractKey(path)
	if key == "" {
		return fmt.Errorf("无法解析文件路径")
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return err
}

func (s *ObjectStorage) GetSignedURL(ctx context.Context, path string, expires time.Duration) (string, error) {
	key := s.extractKey(path)
	if key == "" {
		return "", fmt.Errorf("无法解析文件路径")
	}
	presigned, err := s3.NewPresignClient(s.client).PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return "", err
	}
	return presigned.URL, nil
}

func (s *ObjectStorage) key(dir, name string) string {
	if s.prefix != "" {
		return s.prefix + "/" + dir + "/" + name
	}
	return dir + "/" + name
}

func (s *ObjectStorage) extractKey(path string) string {
	return strings.TrimPrefix(strings.TrimPrefix(path, s.publicURL), "/")
}

// ==================== 上传文件 ====================

// UploadFile 待上传的文件
type UploadFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// UploadLimits 上传限制
type UploadLimits struct {
	MaxSize    int64
	AllowedExt []string
}

// Check 校验扩展名与大小
func (l UploadLimits) Check(f UploadFile) error {
	if !utils.AllowedFile(f.Filename, l.AllowedExt) {
		return newValidationError("file", "不支持的文件类型: %s", f.Filename)
	}
	if l.MaxSize > 0 && int64(len(f.Data)) > l.MaxSize {
		return newValidationError("file", "文件过大: %s（上限 %d MB）", f.Filename, l.MaxSize>>20)
	}
	return nil
}
