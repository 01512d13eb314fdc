package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server          ServerConfig
	Database        DatabaseConfig
	JWT             JWTConfig
	Storage         StorageConfig
	Tracing         TracingConfig `mapstructure:"tracing"`
	Redis           RedisConfig
	CORS            CORSConfig            `mapstructure:"cors"`
	RateLimit       RateLimitConfig       `mapstructure:"rate_limit"`
	Personalization PersonalizationConfig `mapstructure:"personalization"`

	// 运行时标志（非配置文件，通过命令行参数设置）
	ForceMigrate bool `mapstructure:"-"`
	MigrateOnly  bool `mapstructure:"-"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Driver    string `mapstructure:"driver"` // mysql | sqlite
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
	Path      string `mapstructure:"path"` // sqlite 文件路径
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	ExpireTime time.Duration `mapstructure:"expire_hours"`
}

// StorageConfig 活动日志归档的存储目标
type StorageConfig struct {
	Type          string `mapstructure:"type"`
	LocalPath     string `mapstructure:"local_path"`
	MinioEndpoint string `mapstructure:"minio_endpoint"`
	MinioAccessID string `mapstructure:"minio_access_key"`
	MinioSecret   string `mapstructure:"minio_secret_key"`
	MinioBucket   string `mapstructure:"minio_bucket"`
	MinioUseSSL   bool   `mapstructure:"minio_use_ssl"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type RedisConfig struct {
	Enabled  bool `mapstructure:"enabled"`
	Host     string
	Port     int
	Password string
	DB       int
}

type PersonalizationConfig struct {
	RecommendationLimit   int           `mapstructure:"recommendation_limit"`
	DiagnosticLimit       int           `mapstructure:"diagnostic_limit"`
	MaxLimit              int           `mapstructure:"max_limit"`
	RatingThreshold       float64       `mapstructure:"rating_threshold"`
	DashboardReadTimeout  time.Duration `mapstructure:"dashboard_read_timeout"`
	DashboardPolicy       string        `mapstructure:"dashboard_policy"` // strict | partial
	DashboardCacheTTL     time.Duration `mapstructure:"dashboard_cache_ttl"`
	ActivityWriteTimeout  time.Duration `mapstructure:"activity_write_timeout"`
	ActivityRetentionDays int           `mapstructure:"activity_retention_days"`
	ArchiveBatchSize      int           `mapstructure:"archive_batch_size"`
}

const (
	DashboardPolicyStrict  = "strict"
	DashboardPolicyPartial = "partial"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.parsetime", true)
	v.SetDefault("database.path", "library.db")
	v.SetDefault("jwt.expire_hours", 24)
	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local_path", "archive")
	v.SetDefault("rate_limit.max_requests", 6000)
	v.SetDefault("rate_limit.window_minutes", 1)

	v.SetDefault("personalization.recommendation_limit", 3)
	v.SetDefault("personalization.diagnostic_limit", 5)
	v.SetDefault("personalization.max_limit", 10)
	v.SetDefault("personalization.rating_threshold", 4.0)
	v.SetDefault("personalization.dashboard_read_timeout", 2*time.Second)
	v.SetDefault("personalization.dashboard_policy", DashboardPolicyStrict)
	v.SetDefault("personalization.dashboard_cache_ttl", 30*time.Second)
	v.SetDefault("personalization.activity_write_timeout", 3*time.Second)
	v.SetDefault("personalization.activity_retention_days", 0)
	v.SetDefault("personalization.archive_batch_size", 500)
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("LIBRARY")
	v.AutomaticEnv()

	setDefaults(v)

	// Database
	v.BindEnv("database.driver", "DATABASE_DRIVER")
	v.BindEnv("database.host", "DATABASE_HOST")
	v.BindEnv("database.port", "DATABASE_PORT")
	v.BindEnv("database.user", "DATABASE_USER")
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "DATABASE_NAME")
	v.BindEnv("database.path", "DATABASE_PATH")

	// JWT
	v.BindEnv("jwt.secret", "JWT_SECRET")

	// Redis
	v.BindEnv("redis.enabled", "REDIS_ENABLED")
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	v.BindEnv("server.mode", "SERVER_MODE")
	v.BindEnv("server.port", "SERVER_PORT")

	// Storage
	v.BindEnv("storage.type", "STORAGE_TYPE")
	v.BindEnv("storage.minio_endpoint", "MINIO_ENDPOINT")
	v.BindEnv("storage.minio_access_key", "MINIO_ACCESS_KEY")
	v.BindEnv("storage.minio_secret_key", "MINIO_SECRET_KEY")
	v.BindEnv("storage.minio_bucket", "MINIO_BUCKET")

	// Tracing
	v.BindEnv("tracing.enabled", "TRACING_ENABLED")
	v.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	// Personalization
	v.BindEnv("personalization.dashboard_policy", "DASHBOARD_POLICY")
	v.BindEnv("personalization.activity_retention_days", "ACTIVITY_RETENTION_DAYS")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.JWT.ExpireTime = cfg.JWT.ExpireTime * time.Hour

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Storage.Type == "local" {
		if _, err := os.Stat(cfg.Storage.LocalPath); os.IsNotExist(err) {
			os.MkdirAll(cfg.Storage.LocalPath, 0755)
		}
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	// 生产环境校验 JWT Secret 强度
	if c.Server.Mode == "release" && len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(c.JWT.Secret))
	}

	p := c.Personalization
	if p.MaxLimit < 1 {
		return fmt.Errorf("personalization.max_limit must be positive, got %d", p.MaxLimit)
	}
	if p.RecommendationLimit < 1 || p.RecommendationLimit > p.MaxLimit {
		return fmt.Errorf("personalization.recommendation_limit must be within 1..%d, got %d", p.MaxLimit, p.RecommendationLimit)
	}
	if p.DiagnosticLimit < 1 || p.DiagnosticLimit > p.MaxLimit {
		return fmt.Errorf("personalization.diagnostic_limit must be within 1..%d, got %d", p.MaxLimit, p.DiagnosticLimit)
	}
	if p.RatingThreshold < 0 || p.RatingThreshold > 5 {
		return fmt.Errorf("personalization.rating_threshold must be within 0..5, got %.2f", p.RatingThreshold)
	}
	switch p.DashboardPolicy {
	case DashboardPolicyStrict, DashboardPolicyPartial:
	default:
		return fmt.Errorf("unknown personalization.dashboard_policy %q", p.DashboardPolicy)
	}
	if p.DashboardReadTimeout <= 0 {
		return fmt.Errorf("personalization.dashboard_read_timeout must be positive")
	}
	if p.ActivityRetentionDays < 0 {
		return fmt.Errorf("personalization.activity_retention_days must not be negative")
	}
	return nil
}
