package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	ServerPort string `mapstructure:"SERVER_PORT"`
	LogLevel   string `mapstructure:"LOG_LEVEL"`

	ArchiveRoot string `mapstructure:"ARCHIVE_ROOT"`
	AppBaseURL  string `mapstructure:"APP_BASE_URL"`

	ConfluenceEmail        string  `mapstructure:"CONFLUENCE_EMAIL"`
	ConfluenceAPIToken     string  `mapstructure:"CONFLUENCE_API_TOKEN"`
	ConfluenceTimeoutSecs  int     `mapstructure:"CONFLUENCE_TIMEOUT_SECONDS"`
	ConfluenceRateLimit    float64 `mapstructure:"CONFLUENCE_RATE_LIMIT"`
	ConfluenceMaxBodyBytes int64   `mapstructure:"CONFLUENCE_MAX_BODY_BYTES"`

	ExportChildConcurrency int  `mapstructure:"EXPORT_CHILD_CONCURRENCY"`
	ExportCacheTTLHours    int  `mapstructure:"EXPORT_CACHE_TTL_HOURS"`
	ExportRejectDuplicates bool `mapstructure:"EXPORT_REJECT_DUPLICATES"`

	PostgresURL string `mapstructure:"POSTGRES_URL"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	MinioEndpoint  string `mapstructure:"MINIO_ENDPOINT"`
	MinioAccessKey string `mapstructure:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `mapstructure:"MINIO_SECRET_KEY"`
	MinioUseSSL    bool   `mapstructure:"MINIO_USE_SSL"`
	MinioBucket    string `mapstructure:"MINIO_BUCKET"`
}

var keys = []string{
	"SERVER_PORT", "LOG_LEVEL", "ARCHIVE_ROOT", "APP_BASE_URL",
	"CONFLUENCE_EMAIL", "CONFLUENCE_API_TOKEN", "CONFLUENCE_TIMEOUT_SECONDS",
	"CONFLUENCE_RATE_LIMIT", "CONFLUENCE_MAX_BODY_BYTES",
	"EXPORT_CHILD_CONCURRENCY", "EXPORT_CACHE_TTL_HOURS", "EXPORT_REJECT_DUPLICATES",
	"POSTGRES_URL", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
	"MINIO_ENDPOINT", "MINIO_ACCESS_KEY", "MINIO_SECRET_KEY", "MINIO_USE_SSL", "MINIO_BUCKET",
}

// Load reads configuration from an optional .env file and the environment.
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit env file path.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()

	// The file is optional; production config comes from the environment.
	_ = v.ReadInConfig()

	// Unmarshal only sees keys viper knows about, so bind every key explicitly.
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("ARCHIVE_ROOT", "reports")
	v.SetDefault("CONFLUENCE_TIMEOUT_SECONDS", 30)
	v.SetDefault("CONFLUENCE_RATE_LIMIT", 10)
	v.SetDefault("CONFLUENCE_MAX_BODY_BYTES", 100*1024*1024)
	v.SetDefault("EXPORT_CHILD_CONCURRENCY", 4)
	v.SetDefault("EXPORT_CACHE_TTL_HOURS", 48)
	v.SetDefault("EXPORT_REJECT_DUPLICATES", false)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("MINIO_BUCKET", "page-archives")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ConfluenceTimeout returns the per-request timeout for the content API.
func (c *Config) ConfluenceTimeout() time.Duration {
	return time.Duration(c.ConfluenceTimeoutSecs) * time.Second
}

// ExportCacheTTL returns how long export results stay cached.
func (c *Config) ExportCacheTTL() time.Duration {
	return time.Duration(c.ExportCacheTTLHours) * time.Hour
}
