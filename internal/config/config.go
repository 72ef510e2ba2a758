package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ==================== 配置结构 ====================

// Config 应用配置
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Upload   UploadConfig   `mapstructure:"upload"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Log      LogConfig      `mapstructure:"log"`
	Task     TaskConfig     `mapstructure:"task"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Backup   BackupConfig   `mapstructure:"backup"`
}

// ServerConfig HTTP 服务
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug / release / test
}

// DatabaseConfig 数据库
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"` // sqlite / mysql / postgres
	DSN      string `mapstructure:"dsn"`
	LogLevel string `mapstructure:"log_level"`
	MaxIdle  int    `mapstructure:"max_idle"`
	MaxOpen  int    `mapstructure:"max_open"`
}

// JWTConfig 令牌
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	AccessTTL  time.Duration `mapstructure:"access_ttl"`
	RefreshTTL time.Duration `mapstructure:"refresh_ttl"`
	Issuer     string        `mapstructure:"issuer"`
}

// StorageConfig 文件存储
type StorageConfig struct {
	Provider  string `mapstructure:"provider"`  // local / s3 / cos
	BasePath  string `mapstructure:"base_path"` // local: 上传目录; s3: key 前缀
	BaseURL   string `mapstructure:"base_url"`  // local: 对外访问前缀
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Endpoint  string `mapstructure:"endpoint"`
	CDNDomain string `mapstructure:"cdn_domain"`
}

// UploadConfig 上传限制
type UploadConfig struct {
	MaxSize    int64    `mapstructure:"max_size"`
	AllowedExt []string `mapstructure:"allowed_ext"`
}

// RedisConfig 缓存
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// LogConfig 日志
type LogConfig struct {
	Level   string `mapstructure:"level"`
	Format  string `mapstructure:"format"`
	Service string `mapstructure:"service"`
}

// TaskConfig 定时任务
type TaskConfig struct {
	ReconcileEnabled bool   `mapstructure:"reconcile_enabled"`
	ReconcileSpec    string `mapstructure:"reconcile_spec"`
	BackupEnabled    bool   `mapstructure:"backup_enabled"`
	BackupSpec       string `mapstructure:"backup_spec"`
}

// AdminConfig 初始管理员账号
type AdminConfig struct {
	Email    string `mapstructure:"email"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// BackupConfig 备份
type BackupConfig struct {
	Dir string `mapstructure:"dir"`
}

// ==================== 默认值 ====================

// Default 默认配置
func Default() *Config {
	return &Config{
		Server:   ServerConfig{Port: "8080", Mode: "release"},
		Database: DatabaseConfig{Driver: "sqlite", DSN: "data.sqlite", LogLevel: "warn", MaxIdle: 10, MaxOpen: 100},
		JWT: JWTConfig{
			Secret:     "wechat-order-secret-key-change-in-production",
			AccessTTL:  2 * time.Hour,
			RefreshTTL: 7 * 24 * time.Hour,
			Issuer:     "wechat-order",
		},
		Storage: StorageConfig{Provider: "local", BasePath: "uploads", BaseURL: "uploads"},
		Upload:  UploadConfig{MaxSize: 16 << 20, AllowedExt: []string{"png", "jpg", "jpeg", "gif"}},
		Redis:   RedisConfig{Addr: "127.0.0.1:6379", Prefix: "wechat_order:"},
		Log:     LogConfig{Level: "info", Format: "json", Service: "wechat-order"},
		Task: TaskConfig{
			ReconcileEnabled: true,
			ReconcileSpec:    "0 0 3 * * *",
			BackupEnabled:    true,
			BackupSpec:       "0 30 2 * * *",
		},
		Admin:  AdminConfig{Email: "admin@example.com", Username: "admin", Password: "admin123"},
		Backup: BackupConfig{Dir: "backups"},
	}
}

// setDefaults 将默认值注册到 viper，使环境变量可以覆盖每一项
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.mode", d.Server.Mode)

	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.dsn", d.Database.DSN)
	v.SetDefault("database.log_level", d.Database.LogLevel)
	v.SetDefault("database.max_idle", d.Database.MaxIdle)
	v.SetDefault("database.max_open", d.Database.MaxOpen)

	v.SetDefault("jwt.secret", d.JWT.Secret)
	v.SetDefault("jwt.access_ttl", d.JWT.AccessTTL)
	v.SetDefault("jwt.refresh_ttl", d.JWT.RefreshTTL)
	v.SetDefault("jwt.issuer", d.JWT.Issuer)

	v.SetDefault("storage.provider", d.Storage.Provider)
	v.SetDefault("storage.base_path", d.Storage.BasePath)
	v.SetDefault("storage.base_url", d.Storage.BaseURL)
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.region", "")
	v.SetDefault("storage.access_key", "")
	v.SetDefault("storage.secret_key", "")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.cdn_domain", "")

	v.SetDefault("upload.max_size", d.Upload.MaxSize)
	v.SetDefault("upload.allowed_ext", d.Upload.AllowedExt)

	v.SetDefault("redis.enabled", d.Redis.Enabled)
	v.SetDefault("redis.addr", d.Redis.Addr)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", d.Redis.Prefix)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.service", d.Log.Service)

	v.SetDefault("task.reconcile_enabled", d.Task.ReconcileEnabled)
	v.SetDefault("task.reconcile_spec", d.Task.ReconcileSpec)
	v.SetDefault("task.backup_enabled", d.Task.BackupEnabled)
	v.SetDefault("task.backup_spec", d.Task.BackupSpec)

	v.SetDefault("admin.email", d.Admin.Email)
	v.SetDefault("admin.username", d.Admin.Username)
	v.SetDefault("admin.password", d.Admin.Password)

	v.SetDefault("backup.dir", d.Backup.Dir)
}

// ==================== 加载 ====================

// EnvPrefix 环境变量前缀，如 ORDER_DATABASE_DSN
const EnvPrefix = "ORDER"

// Load 加载配置
// 优先级：环境变量 > 配置文件 > 默认值；.env 文件存在时先载入环境变量
// path 为空时依次查找 ORDER_CONFIG 和当前目录下的 config.yaml
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("读取 .env 失败: %w", err)
	}

	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || path != "" {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 校验关键配置
func (c *Config) Validate() error {
	switch strings.ToLower(c.Database.Driver) {
	case "sqlite", "mysql", "postgres":
	default:
		return fmt.Errorf("不支持的数据库驱动: %s", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database.dsn 不能为空")
	}
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret 不能为空")
	}
	if c.Upload.MaxSize <= 0 {
		return errors.New("upload.max_size 必须大于 0")
	}
	return nil
}
