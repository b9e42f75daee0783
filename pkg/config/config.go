package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends
const (
	BackendFirestore = "firestore"
	BackendLegacy    = "legacy"
	BackendMemory    = "memory"
)

type Config struct {
	Port                    string
	Env                     string
	StoreBackend            string
	FirebaseCredentialsPath string
	FirebaseProjectID       string
	FirestoreDatabase       string
	PostgresConnStr         string
	MongoURI                string
	MongoDatabase           string
	NatsURL                 string
	JWTSecret               string
	JWTTTL                  time.Duration
	CloudinaryCloudName     string
	CloudinaryUploadPreset  string
	AppURL                  string
	MetricsPort             string
	LogLevel                string
	LogFile                 string
	TriggerTimeout          time.Duration
	MaxUploadSize           int64
}

// Load reads the configuration from the environment, after merging a .env file if present
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		StoreBackend:            getEnv("STORE_BACKEND", BackendFirestore),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		FirebaseProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
		FirestoreDatabase:       getEnv("FIRESTORE_DATABASE", ""),
		PostgresConnStr:         getEnv("POSTGRES_CONN_STR", ""),
		MongoURI:                getEnv("MONGO_URI", ""),
		MongoDatabase:           getEnv("MONGO_DATABASE", "nano_social"),
		NatsURL:                 getEnv("NATS_URL", ""),
		JWTSecret:               getEnv("JWT_SECRET", "supersecretjwtkey"),
		JWTTTL:                  getDuration("JWT_TTL", 72*time.Hour),
		CloudinaryCloudName:     getEnv("CLOUDINARY_CLOUD_NAME", ""),
		CloudinaryUploadPreset:  getEnv("CLOUDINARY_UPLOAD_PRESET", "ml_default"),
		AppURL:                  getEnv("APP_URL", "http://localhost:3000"),
		MetricsPort:             getEnv("METRICS_PORT", "9090"),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		LogFile:                 getEnv("LOG_FILE", ""),
		TriggerTimeout:          getDuration("TRIGGER_TIMEOUT", 30*time.Second),
		MaxUploadSize:           getInt64("MAX_UPLOAD_SIZE", 10<<20),
	}
}

// IsProduction reports whether ENV is production
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return defaultValue
}

func getInt64(key string, defaultValue int64) int64 {
	if n, err := strconv.ParseInt(os.Getenv(key), 10, 64); err == nil && n > 0 {
		return n
	}
	return defaultValue
}
