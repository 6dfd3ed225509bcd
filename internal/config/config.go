package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Workspace WorkspaceConfig
	Telemetry TelemetryConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	NotificationLog    string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	InstanceID         string
}

type DatabaseConfig struct {
	Driver     string // "postgres" or "sqlite"
	Connection string
}

// Configured reports whether a remote store is available. Without one the
// offline gateway is used.
func (d DatabaseConfig) Configured() bool {
	return d.Connection != ""
}

type AuthConfig struct {
	JWTSecret           string
	TokenTTL            time.Duration
	EmailDomain         string
	RequireConfirmation bool
}

type TelemetryConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
}

type WorkspaceConfig struct {
	DefaultChatbots      []string
	SettingsPassword     string
	ProfileLookupDelay   time.Duration
	ProfileLookupRetries int
	IdleTTL              time.Duration
	SendWait             time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	hostname, _ := os.Hostname()

	cfg := &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			NotificationLog:    getEnv("NOTIFICATION_LOG_PATH", "logs/notification.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
			InstanceID:         getEnv("INSTANCE_ID", hostname),
		},
		Database: DatabaseConfig{
			Driver:     getEnv("DB_DRIVER", "postgres"),
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Auth: AuthConfig{
			JWTSecret:           getEnv("JWT_SECRET", DefaultJWTSecret),
			TokenTTL:            getEnvAsDuration("AUTH_TOKEN_TTL", 24*time.Hour),
			EmailDomain:         getEnv("AUTH_EMAIL_DOMAIN", "users.chatrelay.local"),
			RequireConfirmation: getEnvAsBool("AUTH_REQUIRE_CONFIRMATION", false),
		},
		Workspace: WorkspaceConfig{
			DefaultChatbots:      getEnvAsList("DEFAULT_CHATBOTS", []string{"Assistant", "Coder", "Creative"}),
			SettingsPassword:     getEnv("SETTINGS_PASSWORD", ""),
			ProfileLookupDelay:   getEnvAsDuration("PROFILE_LOOKUP_DELAY", 1500*time.Millisecond),
			ProfileLookupRetries: getEnvAsInt("PROFILE_LOOKUP_RETRIES", 3),
			IdleTTL:              getEnvAsDuration("WORKSPACE_IDLE_TTL", time.Hour),
			SendWait:             getEnvAsDuration("SEND_WAIT", 25*time.Second),
		},
		Telemetry: TelemetryConfig{
			Enabled:     getEnvAsBool("OTEL_ENABLED", false),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "chatrelay-be"),
		},
	}

	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = DefaultJWTSecret
	}
	if cfg.UsesDefaultSecret() && cfg.App.Environment == "production" {
		log.Println("Warning: JWT_SECRET is not set, tokens are signed with the built-in default")
	}
	return cfg
}

// DefaultJWTSecret signs tokens when JWT_SECRET is unset. Fine for local
// runs only.
const DefaultJWTSecret = "change-me"

func (c *Config) UsesDefaultSecret() bool {
	return c.Auth.JWTSecret == DefaultJWTSecret
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsList splits a comma separated value, dropping blank entries.
func getEnvAsList(key string, fallback []string) []string {
	strValue, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(strValue, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
