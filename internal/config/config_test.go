package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "DATA_DIR", "GCS_BUCKET", "SNAPSHOT_MAX_AGE", "CORS_ALLOWED_ORIGINS", "STUDY_JWT_SECRET", "RESULT_TTL"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "./data", cfg.DataDir)
	assert.Empty(t, cfg.GCSBucket)
	assert.Equal(t, 24*time.Hour, cfg.SnapshotMaxAge)
	assert.Equal(t, time.Hour, cfg.ResultTTL)
	assert.Nil(t, cfg.CORSAllowedOrigins)
	assert.Empty(t, cfg.JWTSecret)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "3000")
	t.Setenv("GCS_BUCKET", "ops-studies")
	t.Setenv("OBJECT_PREFIX", "estudios")
	t.Setenv("RESULT_TTL", "15m")
	t.Setenv("SNAPSHOT_MAX_AGE", "not-a-duration")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")

	cfg := Load()
	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "ops-studies", cfg.GCSBucket)
	assert.Equal(t, "estudios", cfg.ObjectPrefix)
	assert.Equal(t, 15*time.Minute, cfg.ResultTTL)
	assert.Equal(t, 24*time.Hour, cfg.SnapshotMaxAge)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
}
