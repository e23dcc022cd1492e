package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromViper_Defaults(t *testing.T) {
	v := newViper()
	cfg := FromViper(v)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "postgres", cfg.StorageDriver)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, 7*24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, int64(100), cfg.Credits.RegistrationBonus)
	assert.Equal(t, int64(50), cfg.Credits.ImageCost)
	assert.Equal(t, int64(100), cfg.Credits.EnhancedImageCost)
	assert.Equal(t, int64(80), cfg.Payment.CreditsPerUnit)
	assert.Equal(t, 10*time.Second, cfg.Gemini.PollInterval)
	assert.False(t, cfg.S3.Enabled())
	assert.True(t, cfg.IsDevelopment())
}

func TestFromViper_Env(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "MEMORY")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("JWT_TTL", "2h")
	t.Setenv("IMAGE_COST", "30")
	t.Setenv("GEMINI_BASE_URL", "http://proxy.local/v1beta/")
	t.Setenv("S3_BUCKET", "results")
	t.Setenv("S3_ACCESS_KEY", "ak")
	t.Setenv("S3_SECRET_KEY", "sk")

	cfg := FromViper(newViper())

	assert.Equal(t, "memory", cfg.StorageDriver)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 2*time.Hour, cfg.JWTTTL)
	assert.Equal(t, int64(30), cfg.Credits.ImageCost)
	assert.Equal(t, "http://proxy.local/v1beta", cfg.Gemini.BaseURL)
	assert.True(t, cfg.S3.Enabled())
}
