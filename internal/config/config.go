// Package config loads service configuration from the environment.
package config

import (
	"log"
	"os"
	"strings"
	"time"
)

// Config holds the service configuration.
type Config struct {
	Port         string
	DataDir      string // local object root, used when GCSBucket is empty
	GCSBucket    string
	ObjectPrefix string

	SnapshotPath   string
	SnapshotMaxAge time.Duration

	IEMBaseURL string

	CORSAllowedOrigins []string // empty allows all origins
	JWTSecret          string   // empty disables bearer auth

	ResultTTL time.Duration
}

// Load reads the configuration from environment variables.
func Load() *Config {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		DataDir:        getEnv("DATA_DIR", "./data"),
		GCSBucket:      os.Getenv("GCS_BUCKET"),
		ObjectPrefix:   os.Getenv("OBJECT_PREFIX"),
		SnapshotPath:   os.Getenv("SNAPSHOT_PATH"),
		SnapshotMaxAge: getDuration("SNAPSHOT_MAX_AGE", 24*time.Hour),
		IEMBaseURL:     getEnv("IEM_BASE_URL", "https://mesonet.agron.iastate.edu/cgi-bin/request/asos.py"),
		JWTSecret:      os.Getenv("STUDY_JWT_SECRET"),
		ResultTTL:      getDuration("RESULT_TTL", time.Hour),
	}

	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
			}
		}
	}

	return cfg
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("config: invalid %s=%q, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}
