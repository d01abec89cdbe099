package config

import (
	"errors"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// 用于管理应用配置

var (
	// 使用 atomic.Value 存储 *Config，实现无锁读取
	appConfig atomic.Value
	configMu  sync.Mutex // 仅用于写操作互斥
	configDir = "config"
)

// EnvPrefix 环境变量前缀，例如 server.port 对应 PICTURE_DB_SERVER_PORT
const EnvPrefix = "PICTURE_DB"

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Upload    UploadConfig    `mapstructure:"upload"`
	Thumbnail ThumbnailConfig `mapstructure:"thumbnail"`
	Redis     RedisConfig     `mapstructure:"redis"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Reconcile ReconcileConfig `mapstructure:"reconcile"`
	Backup    BackupConfig    `mapstructure:"backup"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
	// MaxRequestBodyMB 非上传接口的请求体上限
	MaxRequestBodyMB int    `mapstructure:"max_request_body_mb"`
	StaticCache      string `mapstructure:"static_cache"`
}

type DatabaseConfig struct {
	Type     string `mapstructure:"type"`     // sqlite, mysql, postgres
	Filename string `mapstructure:"filename"` // for sqlite
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"` // database name
	SSL      bool   `mapstructure:"ssl"`  // enable TLS/SSL
}

type UploadConfig struct {
	Path                 string `mapstructure:"path"`
	URLPrefix            string `mapstructure:"url_prefix"`
	MaxFileSize          int64  `mapstructure:"max_file_size"` // bytes
	AllowedTypes         string `mapstructure:"allowed_types"` // 逗号分隔的 MIME 类型
	MaxDescriptionLength int    `mapstructure:"max_description_length"`
}

type ThumbnailConfig struct {
	Width  int `mapstructure:"width"`
	Height int `mapstructure:"height"` // 0 表示按比例自动计算
	// Required 为 false 时缩略图生成失败不会中断上传
	Required bool `mapstructure:"required"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type RateLimitConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	UploadRPS   float64 `mapstructure:"upload_rps"`
	UploadBurst int     `mapstructure:"upload_burst"`
}

type ReconcileConfig struct {
	// Schedule cron 表达式，为空则不启用定时对账
	Schedule     string `mapstructure:"schedule"`
	GraceMinutes int    `mapstructure:"grace_minutes"`
}

type BackupConfig struct {
	Dir string `mapstructure:"dir"`
}

// AllowedTypeList 返回去重、去空白后的允许 MIME 列表
func (u UploadConfig) AllowedTypeList() []string {
	var out []string
	seen := make(map[string]bool)
	for _, t := range strings.Split(u.AllowedTypes, ",") {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// Get 获取当前配置的快照（高性能无锁）
func Get() Config {
	val := appConfig.Load()
	if val == nil {
		return Config{}
	}
	c, ok := val.(*Config)
	if !ok {
		return Config{}
	}
	return *c
}

func GetConfigDir() string {
	return configDir
}

// InitConfig 加载配置并监听配置文件变更
func InitConfig(customConfigDir string) {
	v := initViper(customConfigDir)
	loadAndStore(v)

	if v.ConfigFileUsed() != "" {
		v.OnConfigChange(func(e fsnotify.Event) {
			log.Printf("🔄 检测到配置文件变更: %s", e.Name)
			loadAndStore(v)
		})
		v.WatchConfig()
	}
	log.Println("✅ 配置加载成功")
}

// InitConfigWithoutWatch 加载配置但不监听文件，供 CLI 子命令与测试使用
func InitConfigWithoutWatch(customConfigDir string) {
	v := initViper(customConfigDir)
	loadAndStore(v)
}

func initViper(customConfigDir string) *viper.Viper {
	// .env 仅补充尚未设置的环境变量，不覆盖已有值
	loadDotEnv(customConfigDir)

	v := viper.New()

	customConfigDir = strings.TrimSpace(customConfigDir)
	if customConfigDir == "" {
		customConfigDir = "config"
	}
	configDir = customConfigDir

	// 设置配置文件路径
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// 设置默认值
	v.SetDefault("server.port", "3000")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.max_request_body_mb", 2)
	v.SetDefault("server.static_cache", "public, max-age=86400")
	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.filename", "database/pictures.db")
	v.SetDefault("database.host", "127.0.0.1")
	v.SetDefault("database.port", "3306")
	v.SetDefault("database.user", "root")
	v.SetDefault("database.password", "root")
	v.SetDefault("database.name", "pictures")
	v.SetDefault("database.ssl", false)
	v.SetDefault("upload.path", "uploads")
	v.SetDefault("upload.url_prefix", "/uploads/")
	v.SetDefault("upload.max_file_size", 5242880)
	v.SetDefault("upload.allowed_types", "image/jpeg,image/png,image/gif,image/webp,image/svg+xml")
	v.SetDefault("upload.max_description_length", 1000)
	v.SetDefault("thumbnail.width", 200)
	v.SetDefault("thumbnail.height", 0)
	v.SetDefault("thumbnail.required", true)
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "picture_db")
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.upload_rps", 1)
	v.SetDefault("rate_limit.upload_burst", 10)
	v.SetDefault("reconcile.schedule", "")
	v.SetDefault("reconcile.grace_minutes", 60)
	v.SetDefault("backup.dir", "database/backups")

	// 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			log.Println("⚠️  未找到配置文件，将仅使用环境变量或默认值")
		} else {
			log.Fatalf("❌ 读取配置文件失败: %v", err)
		}
	}

	// 规则：所有环境变量必须以 PICTURE_DB_ 开头
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	// 将 key 中的 "." 替换为 "_"，这样 server.port 才能匹配 SERVER_PORT
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return v
}

func loadDotEnv(dir string) {
	candidates := []string{".env"}
	if dir = strings.TrimSpace(dir); dir != "" {
		candidates = append(candidates, filepath.Join(dir, ".env"))
	}
	for _, f := range candidates {
		if err := godotenv.Load(f); err == nil {
			log.Printf("✅ 已加载环境文件: %s", f)
		}
	}
}

// loadAndStore 解析并原子更新配置
func loadAndStore(v *viper.Viper) {
	// 加写锁，防止并发重载时的竞争
	configMu.Lock()
	defer configMu.Unlock()

	var tempConfig Config
	if err := v.Unmarshal(&tempConfig); err != nil {
		log.Printf("❌ 配置解析失败: %v", err)
		return
	}

	normalize(&tempConfig)

	// 原子替换全局配置
	appConfig.Store(&tempConfig)
}

// normalize 修正明显不合法的配置值，避免下游重复兜底
func normalize(c *Config) {
	// gin.SetMode 遇到未知模式会 panic
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		c.Server.Mode = "debug"
	}
	if c.Upload.Path == "" {
		c.Upload.Path = "uploads"
	}
	if c.Upload.URLPrefix == "" {
		c.Upload.URLPrefix = "/uploads/"
	}
	if !strings.HasSuffix(c.Upload.URLPrefix, "/") {
		c.Upload.URLPrefix += "/"
	}
	if c.Upload.MaxFileSize <= 0 {
		c.Upload.MaxFileSize = 5242880
	}
	if c.Upload.MaxDescriptionLength <= 0 {
		c.Upload.MaxDescriptionLength = 1000
	}
	if c.Thumbnail.Width <= 0 {
		c.Thumbnail.Width = 200
	}
	if c.Thumbnail.Height < 0 {
		c.Thumbnail.Height = 0
	}
	if c.RateLimit.UploadRPS < 0 {
		c.RateLimit.UploadRPS = 0
	}
	if c.RateLimit.UploadBurst <= 0 {
		c.RateLimit.UploadBurst = 1
	}
	if c.Reconcile.GraceMinutes < 0 {
		c.Reconcile.GraceMinutes = 0
	}
}
