package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	// Environment
	RunMode string // Set via flag, not env

	// MongoDB
	MongoURI    string
	MongoDbName string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// JWT
	JwtSecret string
	TokenTTL  time.Duration

	// Server
	ApiPort     string
	CorsOrigins string

	// Media
	MediaBackend       string // "local" or "s3"
	UploadDir          string
	MaxFilesPerListing int
	ImageMaxSizeMB     int
	ImageMaxDimension  int

	// AWS S3 (only used when MediaBackend is "s3")
	AwsAccessKeyID     string
	AwsSecretAccessKey string
	AwsRegion          string
	AwsS3Bucket        string

	// Geocoding (Nominatim proxy)
	GeocodeBaseURL      string
	GeocodeCountryCodes string
	GeocodeLanguage     string
	GeocodeUserAgent    string
	GeocodeTimeout      time.Duration
	GeocodeCacheTTL     time.Duration

	// Rate Limiting
	RateLimitBucketSize int
	RateLimitRefillRate int // tokens per second
}

// Load configuration from environment variables.
// RunMode needs to be passed in as it comes from command-line flags.
func Load(runMode string) (*Config, error) {
	// Load .env file, ignoring errors if it doesn't exist
	godotenv.Load()

	cfg := &Config{
		RunMode: runMode, // Set from flag
	}

	var err error

	// Helper function to get env var or default
	getEnv := func(key, defaultValue string) string {
		if value, exists := os.LookupEnv(key); exists {
			return value
		}
		return defaultValue
	}

	// Helper function to get required env var
	getRequiredEnv := func(key string) (string, error) {
		value, exists := os.LookupEnv(key)
		if !exists {
			return "", fmt.Errorf("missing required environment variable: %s", key)
		}
		return value, nil
	}

	cfg.MongoURI, err = getRequiredEnv("MONGO_URI")
	if err != nil {
		return nil, err
	}
	cfg.MongoDbName = getEnv("DB_NAME", "immoco")
	cfg.RedisAddr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	cfg.JwtSecret, err = getRequiredEnv("JWT_SECRET_KEY")
	if err != nil {
		return nil, err
	}
	cfg.ApiPort = getEnv("API_PORT", "8080")
	cfg.CorsOrigins = getEnv("CORS_ORIGINS", "*")
	cfg.MediaBackend = getEnv("MEDIA_BACKEND", "local")
	cfg.UploadDir = getEnv("UPLOAD_DIR", "./uploads")
	cfg.AwsAccessKeyID = getEnv("AWS_ACCESS_KEY_ID", "")
	cfg.AwsSecretAccessKey = getEnv("AWS_SECRET_ACCESS_KEY", "")
	cfg.AwsRegion = getEnv("AWS_REGION", "")
	cfg.AwsS3Bucket = getEnv("AWS_S3_BUCKET", "")
	cfg.GeocodeBaseURL = getEnv("GEOCODE_BASE_URL", "https://nominatim.openstreetmap.org")
	cfg.GeocodeCountryCodes = getEnv("GEOCODE_COUNTRY_CODES", "ga")
	cfg.GeocodeLanguage = getEnv("GEOCODE_LANGUAGE", "fr")
	cfg.GeocodeUserAgent = getEnv("GEOCODE_USER_AGENT", "IMMO&CO/1.0 (immobilier@gabon.com)")

	// Load numeric and time duration values with defaults and parsing
	cfg.RedisDB, err = strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	tokenTTLHours, err := strconv.ParseInt(getEnv("TOKEN_TTL_HOURS", "168"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL_HOURS: %w", err)
	}
	cfg.TokenTTL = time.Duration(tokenTTLHours) * time.Hour

	cfg.MaxFilesPerListing, err = strconv.Atoi(getEnv("MAX_FILES_PER_LISTING", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_FILES_PER_LISTING: %w", err)
	}

	cfg.ImageMaxSizeMB, err = strconv.Atoi(getEnv("IMAGE_MAX_SIZE_MB", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid IMAGE_MAX_SIZE_MB: %w", err)
	}

	cfg.ImageMaxDimension, err = strconv.Atoi(getEnv("IMAGE_MAX_DIMENSION", "2048"))
	if err != nil {
		return nil, fmt.Errorf("invalid IMAGE_MAX_DIMENSION: %w", err)
	}

	geocodeTimeoutSeconds, err := strconv.ParseInt(getEnv("GEOCODE_TIMEOUT_SECONDS", "10"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid GEOCODE_TIMEOUT_SECONDS: %w", err)
	}
	cfg.GeocodeTimeout = time.Duration(geocodeTimeoutSeconds) * time.Second

	geocodeCacheTTLSeconds, err := strconv.ParseInt(getEnv("GEOCODE_CACHE_TTL_SECONDS", "3600"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid GEOCODE_CACHE_TTL_SECONDS: %w", err)
	}
	cfg.GeocodeCacheTTL = time.Duration(geocodeCacheTTLSeconds) * time.Second

	// Rate Limiting
	cfg.RateLimitBucketSize, err = strconv.Atoi(getEnv("RATE_LIMIT_BUCKET_SIZE", "20"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BUCKET_SIZE: %w", err)
	}
	cfg.RateLimitRefillRate, err = strconv.Atoi(getEnv("RATE_LIMIT_REFILL_RATE", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_REFILL_RATE: %w", err)
	}

	return cfg, nil
}
