package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/Sundram11/backend01/pkg/constant"
)

// Config holds all process-wide settings. It is built once at startup and
// passed by injection; nothing mutates it afterwards.
type Config struct {
	Env                string
	Port               string
	DBURL              string
	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessExpiryMin    int
	RefreshExpiryMin   int
	BcryptCost         int

	// Media store (any S3-compatible endpoint, e.g. MinIO).
	S3Bucket         string
	S3Region         string
	S3Endpoint       string
	S3AccessKey      string
	S3SecretKey      string
	UploadTimeoutSec int
}

func Load() *Config {
	return &Config{
		Env:                getEnv("ENV", "development"),
		Port:               getEnv("PORT", "8080"),
		DBURL:              mustGetEnv("DB_URL"),
		AccessTokenSecret:  mustGetEnv("ACCESS_TOKEN_SECRET"),
		RefreshTokenSecret: mustGetEnv("REFRESH_TOKEN_SECRET"),
		AccessExpiryMin:    getEnvAsInt("ACCESS_TOKEN_EXPIRY", constant.DefaultAccessExpiryMin),
		RefreshExpiryMin:   getEnvAsInt("REFRESH_TOKEN_EXPIRY", constant.DefaultRefreshExpiryMin),
		BcryptCost:         getEnvAsInt("BCRYPT_COST", constant.DefaultBcryptCost),
		S3Bucket:           getEnv("S3_BUCKET", "media"),
		S3Region:           getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:         getEnv("S3_ENDPOINT", "http://127.0.0.1:9000"),
		S3AccessKey:        mustGetEnv("S3_ACCESS_KEY"),
		S3SecretKey:        mustGetEnv("S3_SECRET_KEY"),
		UploadTimeoutSec:   getEnvAsInt("UPLOAD_TIMEOUT", 30),
	}
}

// AccessExpiry returns the access-token lifetime as a duration.
func (c *Config) AccessExpiry() time.Duration {
	return time.Duration(c.AccessExpiryMin) * time.Minute
}

// RefreshExpiry returns the refresh-token lifetime as a duration.
func (c *Config) RefreshExpiry() time.Duration {
	return time.Duration(c.RefreshExpiryMin) * time.Minute
}

// UploadTimeout bounds a single media upload.
func (c *Config) UploadTimeout() time.Duration {
	return time.Duration(c.UploadTimeoutSec) * time.Second
}

func getEnv(key string, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func mustGetEnv(key string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	log.Fatalf("Missing required environment variable: %s", key)
	return ""
}

func getEnvAsInt(key string, defaultVal int) int {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		log.Printf("Invalid value for %s, using default %d", key, defaultVal)
		return defaultVal
	}
	return val
}
