package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"synq/backend/internal/constants"
)

// DBConfig holds database configuration
type DBConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// DSN returns the PostgreSQL URL shared by GORM, sqlx and goose.
func (c DBConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     c.Host + ":" + c.Port,
		Path:     "/" + c.Name,
		RawQuery: "sslmode=" + c.SSLMode,
	}
	return u.String()
}

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// RedisConfig is optional; an empty Addr selects the in-memory cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AuthConfig holds bearer token verification settings
type AuthConfig struct {
	JWTSecret string
	Issuer    string
}

// IdentityConfig points at the identity provider's admin API. Leaving
// BaseURL empty disables provider sync.
type IdentityConfig struct {
	BaseURL      string
	Realm        string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

func (c IdentityConfig) Enabled() bool {
	return c.BaseURL != ""
}

type RateLimitConfig struct {
	RedeemPerMinute int
	Burst           int
	// IdleTTL is how long a client's bucket survives without requests.
	IdleTTL time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

// Config holds all configuration
type Config struct {
	AppEnv    string
	Server    ServerConfig
	DB        DBConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Identity  IdentityConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
}

// Load reads configuration from the environment, after merging an optional
// .env file from the working directory.
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		DB: DBConfig{
			Host:            getEnv("PG_HOST", "localhost"),
			Port:            getEnv("PG_PORT", "5432"),
			User:            getEnv("PG_USER", "postgres"),
			Password:        getEnv("PG_PASSWORD", "postgres"),
			Name:            getEnv("PG_DB", "synq"),
			SSLMode:         getEnv("PG_SSL_MODE", "disable"),
			MaxIdleConns:    getEnvAsInt("PG_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvAsInt("PG_MAX_OPEN_CONNS", 50),
			ConnMaxLifetime: getEnvAsDuration("PG_CONN_MAX_LIFETIME", time.Hour),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			Issuer:    getEnv("JWT_ISSUER", ""),
		},
		Identity: IdentityConfig{
			BaseURL:      strings.TrimRight(getEnv("KEYCLOAK_URL", ""), "/"),
			Realm:        getEnv("KEYCLOAK_REALM", "synq"),
			ClientID:     getEnv("KEYCLOAK_CLIENT_ID", ""),
			ClientSecret: getEnv("KEYCLOAK_CLIENT_SECRET", ""),
			Timeout:      getEnvAsDuration("KEYCLOAK_TIMEOUT", 5*time.Second),
		},
		RateLimit: RateLimitConfig{
			RedeemPerMinute: getEnvAsInt("RATE_LIMIT_REDEEM_PER_MINUTE", 30),
			Burst:           getEnvAsInt("RATE_LIMIT_BURST", 5),
			IdleTTL:         getEnvAsDuration("RATE_LIMIT_IDLE_TTL", constants.DefaultRateLimitIdleTTL),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if c.AppEnv == "production" && c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	if c.Identity.Enabled() && (c.Identity.ClientID == "" || c.Identity.ClientSecret == "") {
		return fmt.Errorf("KEYCLOAK_CLIENT_ID and KEYCLOAK_CLIENT_SECRET are required when KEYCLOAK_URL is set")
	}
	if c.RateLimit.RedeemPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_REDEEM_PER_MINUTE must be positive, got %d", c.RateLimit.RedeemPerMinute)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
