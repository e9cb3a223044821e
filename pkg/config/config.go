package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string
	BaseURL   string

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	S3       S3Config
	SMTP     SMTPConfig
	Albums   AlbumsConfig
	Exports  ExportsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// S3Config points at the object store holding media and archive blobs.
// Works against any S3-compatible endpoint (R2, MinIO, AWS).
type S3Config struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	PresignTTL      time.Duration
}

// SMTPConfig configures the outgoing mail transport for export notifications.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// AlbumsConfig holds plan limits and lifecycle windows for albums.
type AlbumsConfig struct {
	FreeStorageLimit  int64
	PaidStorageLimit  int64
	AlbumTTL          time.Duration
	MediaGracePeriod  time.Duration
	FreeDownloadLimit int
	MaxImageSize      int64
	MaxVideoSize      int64
	CacheTTL          time.Duration
}

// ExportsConfig tunes the bulk download pipeline.
type ExportsConfig struct {
	BatchSize         int
	MaxRetries        int
	RetentionWindow   time.Duration
	ReaperInterval    time.Duration
	WorkerConcurrency int
	QueueBuffer       int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.BaseURL = strings.TrimRight(v.GetString("BASE_URL"), "/")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.S3 = S3Config{
		Endpoint:        v.GetString("S3_ENDPOINT"),
		Region:          v.GetString("S3_REGION"),
		Bucket:          v.GetString("S3_BUCKET"),
		AccessKeyID:     v.GetString("S3_ACCESS_KEY_ID"),
		SecretAccessKey: v.GetString("S3_SECRET_ACCESS_KEY"),
		PresignTTL:      parseDuration(v.GetString("S3_PRESIGN_TTL"), 15*time.Minute),
	}

	cfg.SMTP = SMTPConfig{
		Host:     v.GetString("SMTP_HOST"),
		Port:     v.GetInt("SMTP_PORT"),
		Username: v.GetString("SMTP_USERNAME"),
		Password: v.GetString("SMTP_PASSWORD"),
		From:     v.GetString("SMTP_FROM"),
	}

	cfg.Albums = AlbumsConfig{
		FreeStorageLimit:  v.GetInt64("ALBUMS_FREE_STORAGE_LIMIT"),
		PaidStorageLimit:  v.GetInt64("ALBUMS_PAID_STORAGE_LIMIT"),
		AlbumTTL:          parseDuration(v.GetString("ALBUMS_TTL"), 30*24*time.Hour),
		MediaGracePeriod:  parseDuration(v.GetString("ALBUMS_MEDIA_GRACE_PERIOD"), 7*24*time.Hour),
		FreeDownloadLimit: v.GetInt("ALBUMS_FREE_DOWNLOAD_LIMIT"),
		MaxImageSize:      v.GetInt64("ALBUMS_MAX_IMAGE_SIZE"),
		MaxVideoSize:      v.GetInt64("ALBUMS_MAX_VIDEO_SIZE"),
		CacheTTL:          parseDuration(v.GetString("ALBUMS_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Exports = ExportsConfig{
		BatchSize:         v.GetInt("EXPORTS_BATCH_SIZE"),
		MaxRetries:        v.GetInt("EXPORTS_MAX_RETRIES"),
		RetentionWindow:   parseDuration(v.GetString("EXPORTS_RETENTION_WINDOW"), 7*24*time.Hour),
		ReaperInterval:    parseDuration(v.GetString("EXPORTS_REAPER_INTERVAL"), time.Hour),
		WorkerConcurrency: v.GetInt("EXPORTS_WORKER_CONCURRENCY"),
		QueueBuffer:       v.GetInt("EXPORTS_QUEUE_BUFFER"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("BASE_URL", "http://localhost:8080")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "wedding_snap")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("S3_ENDPOINT", "http://localhost:9000")
	v.SetDefault("S3_REGION", "auto")
	v.SetDefault("S3_BUCKET", "wedding-snap")
	v.SetDefault("S3_ACCESS_KEY_ID", "")
	v.SetDefault("S3_SECRET_ACCESS_KEY", "")
	v.SetDefault("S3_PRESIGN_TTL", "15m")

	v.SetDefault("SMTP_HOST", "localhost")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("SMTP_FROM", "noreply@wedding-snap.example")

	v.SetDefault("ALBUMS_FREE_STORAGE_LIMIT", 2*1024*1024*1024)
	v.SetDefault("ALBUMS_PAID_STORAGE_LIMIT", 10*1024*1024*1024)
	v.SetDefault("ALBUMS_TTL", "720h")
	v.SetDefault("ALBUMS_MEDIA_GRACE_PERIOD", "168h")
	v.SetDefault("ALBUMS_FREE_DOWNLOAD_LIMIT", 1)
	v.SetDefault("ALBUMS_MAX_IMAGE_SIZE", 20*1024*1024)
	v.SetDefault("ALBUMS_MAX_VIDEO_SIZE", 100*1024*1024)
	v.SetDefault("ALBUMS_CACHE_TTL", "5m")

	v.SetDefault("EXPORTS_BATCH_SIZE", 500)
	v.SetDefault("EXPORTS_MAX_RETRIES", 3)
	v.SetDefault("EXPORTS_RETENTION_WINDOW", "168h")
	v.SetDefault("EXPORTS_REAPER_INTERVAL", "1h")
	v.SetDefault("EXPORTS_WORKER_CONCURRENCY", 2)
	v.SetDefault("EXPORTS_QUEUE_BUFFER", 64)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
