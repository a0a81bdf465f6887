package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() Config {
	return Config{
		Database:   DatabaseConfig{Host: "localhost", User: "vidhub", DBName: "vidhub"},
		Redis:      RedisConfig{Addr: "localhost:6379"},
		JWT:        JWTConfig{Secret: strings.Repeat("s", 32)},
		OSS:        OSSConfig{Provider: "minio", BucketName: "files"},
		Moderation: ModerationConfig{PendingLimit: 50},
	}
}

func TestValidate(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		cfg := validConfig()
		assert.NoError(t, cfg.Validate())
	})

	t.Run("short jwt secret", func(t *testing.T) {
		cfg := validConfig()
		cfg.JWT.Secret = "short"
		assert.Error(t, cfg.Validate())
	})

	t.Run("unknown oss provider", func(t *testing.T) {
		cfg := validConfig()
		cfg.OSS.Provider = "s3"
		assert.EqualError(t, cfg.Validate(), "oss.provider must be aliyun or minio")
	})

	t.Run("pending limit above cap", func(t *testing.T) {
		cfg := validConfig()
		cfg.Moderation.PendingLimit = 51
		assert.Error(t, cfg.Validate())
	})
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("MQ_URL", "amqp://guest:guest@mq:5672/")
	t.Setenv("DB_HOST", "db")

	cfg := validConfig()
	applyEnvOverrides(&cfg)

	assert.Equal(t, "amqp://guest:guest@mq:5672/", cfg.MQ.URL)
	assert.Equal(t, "db", cfg.Database.Host)
}
