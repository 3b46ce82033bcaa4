package configs

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"room-listing-service/internal/constants"

	"github.com/joho/godotenv"
)

const (
	StoreBackendFile     = "file"
	StoreBackendPostgres = "postgres"

	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

type RESTconfig struct {
	PORT               string
	CORSAllowedOrigins []string
}

// StorageConfig - Durable Store и каталог картинок
type StorageConfig struct {
	Backend     string
	DataFile    string
	DatabaseURL string
	AssetsDir   string
}

type CacheConfig struct {
	Backend       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// TextServiceConfig - параметры клиента Gemini
type TextServiceConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
	RPS     float64
}

type FetchConfig struct {
	Timeout time.Duration
}

// RabbitMQConfig хранит конфигурацию для RabbitMQ
type RabbitMQConfig struct {
	Enabled bool
	URL     string
}

type StdoutLogConfig struct {
	Level string
}

type FluentBitConfig struct {
	Host    string
	Port    int
	Enabled bool
	Level   string
}

// AppConfig хранит всю конфигурацию приложения
type AppConfig struct {
	AppName      string
	Rest         RESTconfig
	Storage      StorageConfig
	Cache        CacheConfig
	TextService  TextServiceConfig
	Fetch        FetchConfig
	RabbitMQ     RabbitMQConfig
	FluentBit    FluentBitConfig
	StdoutLogger StdoutLogConfig
	AreasFile    string
}

// LoadConfig загружает конфигурацию из .env и переменных окружения.
// Отсутствие .env не ошибка: в контейнере всё приходит через окружение.
func LoadConfig(envPath ...string) (*AppConfig, error) {
	var err error
	if len(envPath) > 0 {
		err = godotenv.Load(envPath[0])
	} else {
		err = godotenv.Load()
	}
	if err != nil {
		log.Printf("Info: Could not load .env file (path: %v): %v. Using process environment.\n", envPath, err)
	}

	cfg := &AppConfig{}

	cfg.AppName = getEnvAsString("APP_NAME", "room-listing-service")

	cfg.Rest.PORT = getEnvAsString("PORT", "3000")
	cfg.Rest.CORSAllowedOrigins = getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"})

	cfg.Storage.Backend = strings.ToLower(getEnvAsString("STORE_BACKEND", StoreBackendFile))
	cfg.Storage.DataFile = getEnvAsString("DATA_FILE", constants.DefaultDataFile)
	cfg.Storage.AssetsDir = getEnvAsString("ASSETS_DIR", constants.DefaultAssetsDir)
	switch cfg.Storage.Backend {
	case StoreBackendFile:
	case StoreBackendPostgres:
		cfg.Storage.DatabaseURL = os.Getenv("DATABASE_URL")
		if cfg.Storage.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL environment variable is required for STORE_BACKEND=postgres")
		}
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.Storage.Backend)
	}

	cfg.Cache.Backend = strings.ToLower(getEnvAsString("CACHE_BACKEND", CacheBackendMemory))
	switch cfg.Cache.Backend {
	case CacheBackendMemory:
	case CacheBackendRedis:
		cfg.Cache.RedisAddr = getEnvAsString("REDIS_ADDR", "localhost:6379")
		cfg.Cache.RedisPassword = os.Getenv("REDIS_PASSWORD")
		cfg.Cache.RedisDB = getEnvAsInt("REDIS_DB", 0)
	default:
		return nil, fmt.Errorf("unknown CACHE_BACKEND %q", cfg.Cache.Backend)
	}

	// ключ не обязателен: без него ингест отвечает ошибкой сервиса, остальное работает
	cfg.TextService.APIKey = os.Getenv("GEMINI_API_KEY")
	cfg.TextService.Model = getEnvAsString("GEMINI_MODEL", "gemini-2.5-flash")
	cfg.TextService.BaseURL = getEnvAsString("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com")
	cfg.TextService.Timeout = getEnvAsDuration("TEXT_SERVICE_TIMEOUT", 60*time.Second)
	cfg.TextService.RPS = getEnvAsFloat("TEXT_SERVICE_RPS", 1)

	cfg.Fetch.Timeout = getEnvAsDuration("FETCH_TIMEOUT", 30*time.Second)

	cfg.RabbitMQ.Enabled = getEnvAsBool("RABBITMQ_ENABLED", false)
	if cfg.RabbitMQ.Enabled {
		cfg.RabbitMQ.URL = os.Getenv("RABBITMQ_URL")
		if cfg.RabbitMQ.URL == "" {
			return nil, fmt.Errorf("RABBITMQ_URL environment variable is required when RABBITMQ_ENABLED is true")
		}
	}

	cfg.FluentBit.Enabled = getEnvAsBool("FLUENTBIT_ENABLED", false)
	if cfg.FluentBit.Enabled {
		cfg.FluentBit.Host = os.Getenv("FLUENTBIT_HOST")
		if cfg.FluentBit.Host == "" {
			log.Println("WARNING: FLUENTBIT_ENABLED is true, but FLUENTBIT_HOST is not set. Disabling Fluent Bit.")
			cfg.FluentBit.Enabled = false
		}
		cfg.FluentBit.Port = getEnvAsInt("FLUENTBIT_PORT", 24224)
		cfg.FluentBit.Level = getEnvAsString("FLUENTBIT_LOG_LEVEL", "info")
	}

	cfg.StdoutLogger.Level = getEnvAsString("STDOUT_LOG_LEVEL", "debug")
	cfg.AreasFile = os.Getenv("AREAS_FILE")

	return cfg, nil
}

func getEnvAsString(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt читает переменную окружения как int или возвращает значение по умолчанию
func getEnvAsInt(key string, defaultValue int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valueInt, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as int: %v. Using default value: %d\n", key, valueStr, err, defaultValue)
		return defaultValue
	}
	return valueInt
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as float: %v. Using default value: %v\n", key, valueStr, err, defaultValue)
		return defaultValue
	}
	return value
}

// getEnvAsBool читает переменную окружения как bool или возвращает значение по умолчанию
func getEnvAsBool(key string, defaultValue bool) bool {
	valStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valBool, err := strconv.ParseBool(valStr)
	if err != nil {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as bool: %v. Using default value: %t\n", key, valStr, err, defaultValue)
		return defaultValue
	}
	return valBool
}

// getEnvAsDuration понимает "30s", "2m" и голое число секунд
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	if secs, err := strconv.Atoi(valStr); err == nil {
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(valStr)
	if err != nil {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as duration: %v. Using default value: %s\n", key, valStr, err, defaultValue)
		return defaultValue
	}
	return d
}

func getEnvAsList(key string, defaultValue []string) []string {
	valStr, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(valStr) == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(valStr, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
