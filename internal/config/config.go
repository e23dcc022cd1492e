package config

import (
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	AppEnv   string
	HTTPAddr string
	LogLevel string

	StorageDriver          string
	PostgresDSN            string
	MemorySnapshotPath     string
	MemorySnapshotInterval time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	KafkaBrokers []string
	KafkaGroupID string

	JWTSecret string
	JWTTTL    time.Duration

	OTLPEndpoint       string
	CORSAllowedOrigins []string

	Gemini  GeminiConfig
	S3      S3Config
	Mail    MailConfig
	Payment PaymentConfig
	Credits CreditsConfig
}

type GeminiConfig struct {
	APIKey             string
	BaseURL            string
	ImageModel         string
	EnhancedImageModel string
	VideoModel         string
	PollInterval       time.Duration
	PollAttempts       int
}

type S3Config struct {
	Endpoint      string
	Region        string
	Bucket        string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string
	Prefix        string
	UsePathStyle  bool
}

// Enabled reports whether uploads should go to object storage.
func (c S3Config) Enabled() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

type MailConfig struct {
	SendGridAPIKey string
	FromAddress    string
	FromName       string
}

type PaymentConfig struct {
	Mode           string
	GatewayURL     string
	NotifySecret   string
	CreditsPerUnit int64
}

type CreditsConfig struct {
	RegistrationBonus int64
	ImageCost         int64
	EnhancedImageCost int64
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("STORAGE_DRIVER", "postgres")
	v.SetDefault("POSTGRES_DSN", "host=localhost user=postgres password=postgres dbname=studio sslmode=disable")
	v.SetDefault("MEMORY_SNAPSHOT_PATH", "")
	v.SetDefault("MEMORY_SNAPSHOT_INTERVAL", 30*time.Second)

	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_GROUP_ID", "studio-api")

	v.SetDefault("JWT_SECRET", "supersecret")
	v.SetDefault("JWT_TTL", 7*24*time.Hour)

	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	v.SetDefault("GEMINI_API_KEY", "")
	v.SetDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("GEMINI_IMAGE_MODEL", "gemini-2.5-flash-image-preview")
	v.SetDefault("GEMINI_ENHANCED_IMAGE_MODEL", "gemini-3-pro-image-preview")
	v.SetDefault("GEMINI_VIDEO_MODEL", "veo-2.0-generate-001")
	v.SetDefault("VIDEO_POLL_INTERVAL", 10*time.Second)
	v.SetDefault("VIDEO_POLL_ATTEMPTS", 60)

	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("S3_PREFIX", "studio")
	v.SetDefault("S3_USE_PATH_STYLE", true)

	v.SetDefault("SENDGRID_FROM", "no-reply@studio.local")
	v.SetDefault("SENDGRID_FROM_NAME", "Studio")

	v.SetDefault("PAYMENT_MODE", "mock")
	v.SetDefault("PAYMENT_GATEWAY_URL", "")
	v.SetDefault("PAYMENT_NOTIFY_SECRET", "")
	v.SetDefault("CREDITS_PER_UNIT", 80)

	v.SetDefault("REGISTRATION_BONUS", 100)
	v.SetDefault("IMAGE_COST", 50)
	v.SetDefault("ENHANCED_IMAGE_COST", 100)
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Warn("failed to load .env file, using environment and defaults", "error", err)
	}
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	return v
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) *Config {
	cfg := &Config{
		AppEnv:   v.GetString("APP_ENV"),
		HTTPAddr: v.GetString("HTTP_ADDR"),
		LogLevel: v.GetString("LOG_LEVEL"),

		StorageDriver:          strings.ToLower(v.GetString("STORAGE_DRIVER")),
		PostgresDSN:            v.GetString("POSTGRES_DSN"),
		MemorySnapshotPath:     v.GetString("MEMORY_SNAPSHOT_PATH"),
		MemorySnapshotInterval: v.GetDuration("MEMORY_SNAPSHOT_INTERVAL"),

		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisDB:       v.GetInt("REDIS_DB"),

		KafkaBrokers: splitList(v.GetString("KAFKA_BROKERS")),
		KafkaGroupID: v.GetString("KAFKA_GROUP_ID"),

		JWTSecret: v.GetString("JWT_SECRET"),
		JWTTTL:    v.GetDuration("JWT_TTL"),

		OTLPEndpoint:       v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
		CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),

		Gemini: GeminiConfig{
			APIKey:             v.GetString("GEMINI_API_KEY"),
			BaseURL:            strings.TrimRight(v.GetString("GEMINI_BASE_URL"), "/"),
			ImageModel:         v.GetString("GEMINI_IMAGE_MODEL"),
			EnhancedImageModel: v.GetString("GEMINI_ENHANCED_IMAGE_MODEL"),
			VideoModel:         v.GetString("GEMINI_VIDEO_MODEL"),
			PollInterval:       v.GetDuration("VIDEO_POLL_INTERVAL"),
			PollAttempts:       v.GetInt("VIDEO_POLL_ATTEMPTS"),
		},
		S3: S3Config{
			Endpoint:      v.GetString("S3_ENDPOINT"),
			Region:        v.GetString("S3_REGION"),
			Bucket:        v.GetString("S3_BUCKET"),
			AccessKey:     v.GetString("S3_ACCESS_KEY"),
			SecretKey:     v.GetString("S3_SECRET_KEY"),
			PublicBaseURL: v.GetString("S3_PUBLIC_BASE_URL"),
			Prefix:        v.GetString("S3_PREFIX"),
			UsePathStyle:  v.GetBool("S3_USE_PATH_STYLE"),
		},
		Mail: MailConfig{
			SendGridAPIKey: v.GetString("SENDGRID_API_KEY"),
			FromAddress:    v.GetString("SENDGRID_FROM"),
			FromName:       v.GetString("SENDGRID_FROM_NAME"),
		},
		Payment: PaymentConfig{
			Mode:           strings.ToLower(v.GetString("PAYMENT_MODE")),
			GatewayURL:     v.GetString("PAYMENT_GATEWAY_URL"),
			NotifySecret:   v.GetString("PAYMENT_NOTIFY_SECRET"),
			CreditsPerUnit: v.GetInt64("CREDITS_PER_UNIT"),
		},
		Credits: CreditsConfig{
			RegistrationBonus: v.GetInt64("REGISTRATION_BONUS"),
			ImageCost:         v.GetInt64("IMAGE_COST"),
			EnhancedImageCost: v.GetInt64("ENHANCED_IMAGE_COST"),
		},
	}

	slog.Info("config loaded",
		"app_env", cfg.AppEnv,
		"http_addr", cfg.HTTPAddr,
		"storage_driver", cfg.StorageDriver,
		"redis_addr", cfg.RedisAddr,
		"kafka_brokers", cfg.KafkaBrokers,
		"payment_mode", cfg.Payment.Mode,
		"s3_enabled", cfg.S3.Enabled())
	return cfg
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
