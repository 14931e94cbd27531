package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, "5m", cfg.Cache.QuoteTTL)
	assert.Equal(t, "gemini-1.5-flash", cfg.Advisor.Model)
	assert.Equal(t, 12, cfg.Security.BcryptCost)
}

func TestLoad_ProductionRequiresJWTSecret(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("ENVIRONMENT", "production")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt_secret")
}

func TestValidate_RejectsMalformedTTL(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("CACHE_QUOTE_TTL", "five minutes")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache.quote_ttl")
}

func TestDuration(t *testing.T) {
	assert.Equal(t, 5*time.Minute, Duration("5m", time.Minute))
	assert.Equal(t, time.Minute, Duration("", time.Minute))
	assert.Equal(t, time.Minute, Duration("garbage", time.Minute))
}

func TestDSNAndAddr(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "finsight", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=finsight sslmode=disable", db.DSN())

	r := RedisConfig{Host: "redis", Port: 6379}
	assert.Equal(t, "redis:6379", r.Addr())
}
