package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Socket   SocketConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Activity ActivityConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// SocketConfig controls the realtime websocket listener.
type SocketConfig struct {
	Host                string
	Port                string
	Path                string
	SendQueueSize       int
	WriteTimeoutSeconds int
	PongTimeoutSeconds  int
	AllowedOrigins      []string
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	RelayEnabled bool
	RelayChannel string
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
}

// ActivityConfig tunes the audit/broadcast pipeline.
type ActivityConfig struct {
	Lanes         int
	LaneQueueSize int
	AppendRetries int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "ticket-activity-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Socket: SocketConfig{
			Host:                getEnv("SOCKET_HOST", "0.0.0.0"),
			Port:                getEnv("SOCKET_PORT", "8081"),
			Path:                getEnv("SOCKET_PATH", "/ws"),
			SendQueueSize:       getEnvAsInt("SOCKET_SEND_QUEUE_SIZE", 64),
			WriteTimeoutSeconds: getEnvAsInt("SOCKET_WRITE_TIMEOUT_SECONDS", 10),
			PongTimeoutSeconds:  getEnvAsInt("SOCKET_PONG_TIMEOUT_SECONDS", 60),
			AllowedOrigins:      getEnvAsList("SOCKET_ALLOWED_ORIGINS"),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:         getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:     os.Getenv("REDIS_PASSWORD"),
			DB:           redisDB,
			RelayEnabled: getEnvAsBool("REDIS_RELAY_ENABLED", false),
			RelayChannel: getEnv("REDIS_RELAY_CHANNEL", "ticket-activity:broadcast"),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
		},
		Activity: ActivityConfig{
			Lanes:         getEnvAsInt("ACTIVITY_LANES", 16),
			LaneQueueSize: getEnvAsInt("ACTIVITY_LANE_QUEUE_SIZE", 256),
			AppendRetries: getEnvAsInt("ACTIVITY_APPEND_RETRIES", 1),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Addr returns the websocket bind address.
func (s SocketConfig) Addr() string {
	return fmt.Sprintf("%s:%s", s.Host, s.Port)
}

// WriteTimeout bounds a single frame write to a client.
func (s SocketConfig) WriteTimeout() time.Duration {
	if s.WriteTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(s.WriteTimeoutSeconds) * time.Second
}

// PongTimeout is how long a silent client is kept before it is considered gone.
func (s SocketConfig) PongTimeout() time.Duration {
	if s.PongTimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(s.PongTimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsList(key string) []string {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
