package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Драйверы хранилища
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config структура конфигурации
type Config struct {
	Port             string
	AppEnv           string // окружение приложения
	JWTSecret        string
	TokenTTL         time.Duration
	StoreDriver      string
	DatabaseURL      string
	DatabaseConfig   DatabaseConfig
	CloudinaryConfig CloudinaryConfig
	AdminAPIKey      string
	WSAddr           string
	LogLevel         string
	LogFormat        string
	SeedFile         string // пусто: встроенный каталог
	StatsInterval    time.Duration
}

// DatabaseConfig содержит конфигурацию базы данных
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// CloudinaryConfig содержит конфигурацию для Cloudinary
type CloudinaryConfig struct {
	CloudName    string
	APIKey       string
	APISecret    string
	UploadPreset string
}

// LoadConfig загружает переменные из .env и окружения
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ .env файл не найден, используем переменные окружения")
	}

	dbConfig := DatabaseConfig{
		Host:     getEnv("PGHOST", "localhost"),
		Port:     getEnv("PGPORT", "5432"),
		User:     getEnv("PGUSER", "cardswap_user"),
		Password: getEnv("PGPASSWORD", "cardswap_pass"),
		Name:     getEnv("PGDATABASE", "cardswap"),
		SSLMode:  getEnv("PGSSLMODE", "disable"),
	}

	// DATABASE_URL имеет приоритет над PG* переменными
	dbURL := getEnv("DATABASE_URL", fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		dbConfig.User, dbConfig.Password, dbConfig.Host, dbConfig.Port, dbConfig.Name, dbConfig.SSLMode))

	cloudinaryConfig := CloudinaryConfig{
		CloudName:    getEnv("CLOUDINARY_CLOUD_NAME", ""),
		APIKey:       getEnv("CLOUDINARY_API_KEY", ""),
		APISecret:    getEnv("CLOUDINARY_API_SECRET", ""),
		UploadPreset: getEnv("CLOUDINARY_UPLOAD_PRESET", "cardswap_cards"),
	}

	tokenTTL, err := time.ParseDuration(getEnv("TOKEN_TTL", "168h"))
	if err != nil {
		return nil, fmt.Errorf("некорректный TOKEN_TTL: %w", err)
	}
	statsInterval, err := time.ParseDuration(getEnv("STATS_INTERVAL", "30s"))
	if err != nil {
		return nil, fmt.Errorf("некорректный STATS_INTERVAL: %w", err)
	}

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		AppEnv:           getEnv("APP_ENV", "production"), // по умолчанию production
		JWTSecret:        getEnv("JWT_SECRET", ""),
		TokenTTL:         tokenTTL,
		StoreDriver:      strings.ToLower(getEnv("STORE_DRIVER", StoreMemory)),
		DatabaseURL:      dbURL,
		DatabaseConfig:   dbConfig,
		CloudinaryConfig: cloudinaryConfig,
		AdminAPIKey:      strings.TrimSpace(getEnv("ADMIN_API_KEY", "")),
		WSAddr:           getEnv("WS_ADDR", ":8081"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "text"),
		SeedFile:         getEnv("SEED_FILE", ""),
		StatsInterval:    statsInterval,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет обязательные поля
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("❌ не задана обязательная переменная окружения JWT_SECRET")
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL должен быть положительным")
	}
	if c.StatsInterval <= 0 {
		return errors.New("STATS_INTERVAL должен быть положительным")
	}
	switch c.StoreDriver {
	case StoreMemory, StorePostgres:
	default:
		return fmt.Errorf("неизвестный STORE_DRIVER %q", c.StoreDriver)
	}
	return nil
}

// IsDevelopment окружение разработки
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// getEnv получает переменную окружения или использует дефолтное значение
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
