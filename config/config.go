package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"db"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Mail       MailConfig       `mapstructure:"mail"`
	Log        LogConfig        `mapstructure:"log"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Enrollment EnrollmentConfig `mapstructure:"enrollment"`
	Job        JobConfig        `mapstructure:"job"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port      int        `mapstructure:"port"`
	BaseURL   string     `mapstructure:"base_url"`
	BodyLimit int64      `mapstructure:"body_limit"` // 请求体上限（字节）
	CORS      CORSConfig `mapstructure:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig 数据库配置
// Driver 为 sqlite 时 Name 为数据库文件路径，其余连接参数忽略
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Name            string        `mapstructure:"name"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"sslmode"`
	Timezone        string        `mapstructure:"timezone"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// DSN 生成连接字符串
func (c *DatabaseConfig) DSN() string {
	if c.Driver == DriverSQLite {
		return c.Name
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// 支持的数据库驱动
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// RedisConfig Redis 缓存配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig JWT 认证配置
type AuthConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
}

// MailConfig SMTP 邮件配置，SMTPHost 为空时不发送邮件
type MailConfig struct {
	SMTPHost string `mapstructure:"smtp_host"`
	SMTPPort int    `mapstructure:"smtp_port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// StorageConfig 头像等上传文件的存储配置
type StorageConfig struct {
	UploadDir     string `mapstructure:"upload_dir"`
	PublicPrefix  string `mapstructure:"public_prefix"`
	MaxPhotoBytes int64  `mapstructure:"max_photo_bytes"`
}

// EnrollmentConfig 选课配置
type EnrollmentConfig struct {
	// Timeout 单次选课/退课（含事务）的最长耗时
	Timeout time.Duration `mapstructure:"timeout"`
}

// JobConfig 后台定时任务配置
type JobConfig struct {
	ReconcileEnabled bool   `mapstructure:"reconcile_enabled"`
	ReconcileCron    string `mapstructure:"reconcile_cron"`
}

// defaults 未配置时的取值，键为 viper 路径
// 每个配置项都须在此登记，AutomaticEnv 只覆盖 viper 已知的键
var defaults = map[string]interface{}{
	"server.port":               8080,
	"server.base_url":           "http://localhost:8080",
	"server.body_limit":         4 << 20,
	"server.cors.allow_origins": []string{"http://localhost:3000"},

	"db.driver":             DriverPostgres,
	"db.host":               "localhost",
	"db.port":               5432,
	"db.name":               "student_portal",
	"db.user":               "postgres",
	"db.password":           "",
	"db.sslmode":            "disable",
	"db.timezone":           "America/Edmonton",
	"db.max_open_conns":     25,
	"db.max_idle_conns":     10,
	"db.conn_max_lifetime":  "1h",
	"db.conn_max_idle_time": "30m",

	"redis.addr":     "localhost:6379",
	"redis.password": "",
	"redis.db":       0,

	"auth.jwt_secret":       "",
	"auth.access_token_ttl": "24h",

	"mail.smtp_host": "",
	"mail.smtp_port": 587,
	"mail.username":  "",
	"mail.password":  "",
	"mail.from":      "",

	"log.level":  "info",
	"log.format": "json",

	"storage.upload_dir":      "uploads/profile_photos",
	"storage.public_prefix":   "/uploads/profile_photos",
	"storage.max_photo_bytes": 2 << 20,

	"enrollment.timeout": "5s",

	"job.reconcile_enabled": true,
	"job.reconcile_cron":    "@every 1h",
}

// Load 加载配置，优先级：PORTAL_ 前缀环境变量 > 配置文件 > 默认值
// path 为空时依次查找 ./config/config.yaml 与 ./config.yaml，均不存在则仅用默认值
func Load(path string) (*Config, error) {
	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("PORTAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	cfg := new(Config)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 校验配置，一次返回全部问题
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, msg string) {
		if !ok {
			errs = append(errs, errors.New(msg))
		}
	}

	check(len(c.Auth.JWTSecret) >= 16, "auth.jwt_secret 长度不能少于 16 字符")
	check(c.Server.Port > 0 && c.Server.Port <= 65535, "server.port 必须在 1-65535 之间")
	check(c.Database.Driver == DriverPostgres || c.Database.Driver == DriverSQLite, "db.driver 仅支持 postgres 或 sqlite")
	check(c.Enrollment.Timeout > 0, "enrollment.timeout 必须大于 0")
	check(c.Storage.MaxPhotoBytes > 0, "storage.max_photo_bytes 必须大于 0")

	if len(errs) > 0 {
		return fmt.Errorf("配置校验失败: %w", errors.Join(errs...))
	}
	return nil
}
