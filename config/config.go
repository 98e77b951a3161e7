package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DB       DBConfig
	Redis    RedisConfig
	Server   ServerConfig
	Logger   LoggerConfig
	Telegram TelegramConfig
	WhatsApp WhatsAppConfig
	Webhook  WebhookConfig
	Storage  StorageConfig
	AMQP     AMQPConfig
	Menu     MenuConfig
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

type RedisConfig struct {
	Addr     string // empty disables the catalog cache
	Password string
	DB       int
	TTL      time.Duration
}

type ServerConfig struct {
	AppEnv     string
	HTTPAddr   string
	SessionTTL time.Duration
}

type LoggerConfig struct {
	Level             string
	Encoding          string
	Development       bool
	DisableCaller     bool
	DisableStacktrace bool
}

type TelegramConfig struct {
	Token       string // admin bot (list items, toggle availability)
	StaffToken  string // bot used to push order cards to staff
	StaffChatID int64
	Login       string // shared password for the admin bot
}

type WhatsAppConfig struct {
	Number string
}

type WebhookConfig struct {
	URL     string
	Timeout time.Duration
}

type StorageConfig struct {
	Driver     string // "supabase" or "local"
	URL        string
	ServiceKey string
	Bucket     string
	LocalDir   string
	PublicBase string
}

type AMQPConfig struct {
	URL      string // empty disables order event publishing
	Exchange string
}

type MenuConfig struct {
	Currency string
	Rooms    []string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	return &Config{
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "digital_menu"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			TTL:      time.Duration(getEnvInt("CATALOG_CACHE_TTL_SECONDS", 300)) * time.Second,
		},
		Server: ServerConfig{
			AppEnv:     getEnv("APP_ENV", "production"),
			HTTPAddr:   getEnv("HTTP_ADDR", ":8080"),
			SessionTTL: time.Duration(getEnvInt("SESSION_TTL_HOURS", 24*7)) * time.Hour,
		},
		Logger: LoggerConfig{
			Level:             getEnv("LOGGER_LEVEL", "info"),
			Encoding:          getEnv("LOGGER_ENCODING", "json"),
			Development:       getEnv("APP_ENV", "production") == "development",
			DisableCaller:     getEnvBool("LOGGER_DISABLE_CALLER", false),
			DisableStacktrace: getEnvBool("LOGGER_DISABLE_STACKTRACE", true),
		},
		Telegram: TelegramConfig{
			Token:       getEnv("TOKEN", ""),
			StaffToken:  getEnv("MESSAGE_TOKEN", ""),
			StaffChatID: getEnvInt64("STAFF_CHAT_ID", 0),
			Login:       getEnv("LOGIN", ""),
		},
		WhatsApp: WhatsAppConfig{
			Number: getEnv("WHATSAPP_NUMBER", ""),
		},
		Webhook: WebhookConfig{
			URL:     getEnv("ORDER_WEBHOOK_URL", ""),
			Timeout: time.Duration(getEnvInt("ORDER_WEBHOOK_TIMEOUT_SECONDS", 10)) * time.Second,
		},
		Storage: StorageConfig{
			Driver:     getEnv("STORAGE_DRIVER", "local"),
			URL:        getEnv("STORAGE_URL", ""),
			ServiceKey: getEnv("STORAGE_SERVICE_KEY", ""),
			Bucket:     getEnv("STORAGE_BUCKET", "menu-images"),
			LocalDir:   getEnv("STORAGE_LOCAL_DIR", "uploads"),
			PublicBase: getEnv("STORAGE_PUBLIC_BASE", "/uploads"),
		},
		AMQP: AMQPConfig{
			URL:      getEnv("AMQP_URL", ""),
			Exchange: getEnv("AMQP_ORDERS_EXCHANGE", "orders"),
		},
		Menu: MenuConfig{
			Currency: getEnv("MENU_CURRENCY", "₹"),
			Rooms:    getEnvSlice("MENU_ROOMS", nil),
		},
	}, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return def
}

func getEnvInt64(key string, def int64) int64 {
	if v, ok := os.LookupEnv(key); ok {
		if i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return i
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return def
}

func getEnvSlice(key string, def []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
