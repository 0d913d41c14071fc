package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	StorageDriverFile     = "file"
	StorageDriverPostgres = "postgres"

	DefaultPlaceholderImage = "https://via.placeholder.com/350x250/FFFFFF/333333?text=Изображение+товара"
)

type Config struct {
	// Server
	Port        string
	Environment string

	// Logging (empty LogFile logs to stdout only)
	LogFile string

	// Storage
	StorageDriver string
	DataFile      string

	// Database
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis (empty disables caching)
	RedisURL string

	// NATS (empty disables order events)
	NATSURL string

	// Gateway consumed by the storefront
	GatewayURL     string
	GatewayTimeout time.Duration

	// Telegram relay
	TelegramAPIURL   string
	TelegramBotToken string
	TelegramChatID   string

	// Site
	SiteName         string
	Currency         string
	PlaceholderImage string

	// Name announced by the legacy action endpoint
	LegacyAPIName string

	// Admin
	AdminToken string

	// Storefront sessions
	SessionTTL  time.Duration
	MaxSessions int

	// CORS
	AllowedOrigins []string
}

func Load() *Config {
	dbPort, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	maxSessions, _ := strconv.Atoi(getEnv("MAX_SESSIONS", "10000"))
	port := getEnv("PORT", "8087")

	return &Config{
		// Server
		Port:        port,
		Environment: getEnv("ENVIRONMENT", "development"),

		LogFile: getEnv("LOG_FILE", ""),

		// Storage
		StorageDriver: strings.ToLower(getEnv("STORAGE_DRIVER", StorageDriverFile)),
		DataFile:      getEnv("DATA_FILE", "data/db.json"),

		// Database
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     dbPort,
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "catalog_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		RedisURL: getEnv("REDIS_URL", ""),
		NATSURL:  getEnv("NATS_URL", ""),

		// The storefront talks to its own gateway unless pointed elsewhere
		GatewayURL:     strings.TrimRight(getEnv("GATEWAY_URL", "http://localhost:"+port+"/api/v1"), "/"),
		GatewayTimeout: getDurationEnv("GATEWAY_TIMEOUT", 10*time.Second),

		TelegramAPIURL:   strings.TrimRight(getEnv("TELEGRAM_API_URL", "https://api.telegram.org"), "/"),
		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnv("TELEGRAM_CHAT_ID", ""),

		SiteName:         getEnv("SITE_NAME", "СибМодулинг"),
		Currency:         getEnv("CURRENCY", "₽"),
		PlaceholderImage: getEnv("PLACEHOLDER_IMAGE", DefaultPlaceholderImage),

		LegacyAPIName: getEnv("LEGACY_API_NAME", "SibModuling"),

		AdminToken: getEnv("ADMIN_TOKEN", ""),

		SessionTTL:  getDurationEnv("SESSION_TTL", 30*time.Minute),
		MaxSessions: maxSessions,

		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:"+port)),
	}
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func InitDB(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode)

	var logLevel logger.LogLevel
	if cfg.IsProduction() {
		logLevel = logger.Error
	} else {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Println("Database connection established")
	return db, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	// plain integers are seconds
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	log.Printf("WARNING: invalid duration %s=%q, using %s", key, value, defaultValue)
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
