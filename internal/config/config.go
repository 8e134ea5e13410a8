package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Backend names accepted by USER_STORE, TOKEN_STORE and TWOFA_STORE
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
)

// Notifier names accepted by NOTIFIER
const (
	NotifierLog = "log"
	NotifierSES = "ses"
)

type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	Server   ServerConfig
	Auth     AuthConfig
	Stores   StoreConfig
	Notifier NotifierConfig
}

type DatabaseConfig struct {
	URL               string // takes precedence over the discrete fields
	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	SSLMode           string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
	AutoMigrate       bool
	SQLitePath        string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	AllowedOrigins []string
	TrustedProxies []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RateLimitRPM   int
}

type AuthConfig struct {
	JWTSecret       string
	TokenTTL        time.Duration
	TwoFACodeTTL    time.Duration
	CookieName      string
	CookieDomain    string
	CookieSecure    bool
	CookieSameSite  string
	TimingBaseMs    int
	TimingRandomMs  int
	CleanupInterval time.Duration
}

type StoreConfig struct {
	Users        string
	BannedTokens string
	TwoFACodes   string
}

type NotifierConfig struct {
	Kind      string
	Timeout   time.Duration
	SESRegion string
	EmailFrom string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	env := getEnv("ENV", "development")

	cfg := &Config{
		Database: DatabaseConfig{
			URL:               getEnv("DATABASE_URL", ""),
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnvAsInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", ""),
			Name:              getEnv("DB_NAME", "authgate"),
			SSLMode:           getEnv("DB_SSLMODE", "disable"),
			MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 5)),
			MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
			HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
			AutoMigrate:       getEnvAsBool("DB_AUTO_MIGRATE", false),
			SQLitePath:        getEnv("SQLITE_PATH", "authgate.db"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Server: ServerConfig{
			Port:           getEnv("PORT", "3000"),
			Env:            env,
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			AllowedOrigins: parseAllowedOrigins(env),
			TrustedProxies: splitList(getEnv("TRUSTED_PROXIES", "")),
			ReadTimeout:    getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:    getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			RateLimitRPM:   getEnvAsInt("RATE_LIMIT_RPM", 60),
		},
		Auth: AuthConfig{
			JWTSecret:       jwtSecret,
			TokenTTL:        getEnvAsDuration("TOKEN_TTL", 10*time.Minute),
			TwoFACodeTTL:    getEnvAsDuration("TWOFA_CODE_TTL", 10*time.Minute),
			CookieName:      getEnv("COOKIE_NAME", "jwt"),
			CookieDomain:    getEnv("COOKIE_DOMAIN", ""),
			CookieSecure:    getEnvAsBool("COOKIE_SECURE", true),
			CookieSameSite:  strings.ToLower(getEnv("COOKIE_SAMESITE", "lax")),
			TimingBaseMs:    getEnvAsInt("TIMING_DELAY_BASE_MS", 150),
			TimingRandomMs:  getEnvAsInt("TIMING_DELAY_RANDOM_MS", 100),
			CleanupInterval: getEnvAsDuration("CLEANUP_INTERVAL", 5*time.Minute),
		},
		Stores: StoreConfig{
			Users:        strings.ToLower(getEnv("USER_STORE", BackendMemory)),
			BannedTokens: strings.ToLower(getEnv("TOKEN_STORE", BackendMemory)),
			TwoFACodes:   strings.ToLower(getEnv("TWOFA_STORE", BackendMemory)),
		},
		Notifier: NotifierConfig{
			Kind:      strings.ToLower(getEnv("NOTIFIER", NotifierLog)),
			Timeout:   getEnvAsDuration("NOTIFIER_TIMEOUT", 10*time.Second),
			SESRegion: getEnv("SES_REGION", "us-east-1"),
			EmailFrom: getEnv("EMAIL_FROM", ""),
		},
	}

	if err := validateJWTSecret(jwtSecret, env); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

func (c *Config) validate() error {
	switch c.Stores.Users {
	case BackendMemory, BackendSQLite:
	case BackendPostgres:
		if c.Database.URL == "" && c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD or DATABASE_URL is required when USER_STORE=postgres")
		}
	default:
		return fmt.Errorf("USER_STORE must be one of memory, postgres, sqlite (got %q)", c.Stores.Users)
	}

	for key, backend := range map[string]string{
		"TOKEN_STORE": c.Stores.BannedTokens,
		"TWOFA_STORE": c.Stores.TwoFACodes,
	} {
		if backend != BackendMemory && backend != BackendRedis {
			return fmt.Errorf("%s must be one of memory, redis (got %q)", key, backend)
		}
	}

	switch c.Notifier.Kind {
	case NotifierLog:
		if c.IsProduction() {
			return fmt.Errorf("NOTIFIER=log is not allowed in production")
		}
	case NotifierSES:
		if c.Notifier.EmailFrom == "" {
			return fmt.Errorf("EMAIL_FROM is required when NOTIFIER=ses")
		}
	default:
		return fmt.Errorf("NOTIFIER must be one of log, ses (got %q)", c.Notifier.Kind)
	}

	switch c.Auth.CookieSameSite {
	case "strict", "lax", "none":
	default:
		return fmt.Errorf("COOKIE_SAMESITE must be one of strict, lax, none (got %q)", c.Auth.CookieSameSite)
	}
	if c.Auth.CookieSameSite == "none" && !c.Auth.CookieSecure {
		return fmt.Errorf("COOKIE_SAMESITE=none requires COOKIE_SECURE=true")
	}

	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	if c.Auth.TwoFACodeTTL <= 0 {
		return fmt.Errorf("TWOFA_CODE_TTL must be positive")
	}
	if c.Notifier.Timeout <= 0 {
		return fmt.Errorf("NOTIFIER_TIMEOUT must be positive")
	}

	return nil
}

// validateJWTSecret enforces minimum security standards for JWT secret
func validateJWTSecret(secret, env string) error {
	minLength := 16
	if env == "production" {
		minLength = 32
	}

	if len(secret) < minLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters in %s environment (got %d)",
			minLength, env, len(secret))
	}

	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if secretLower == weak || strings.Repeat(weak, len(secretLower)/len(weak)) == secretLower {
			return fmt.Errorf("JWT_SECRET cannot be a common weak value")
		}
	}

	return nil
}

// DSN returns DATABASE_URL when set, else a key=value connection string
func (c *DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseAllowedOrigins(env string) []string {
	if origins := splitList(getEnv("ALLOWED_ORIGINS", "")); len(origins) > 0 {
		return origins
	}
	if env == "production" {
		return []string{}
	}

	// Development: allow localhost variants
	return []string{
		"http://localhost:3000",
		"http://localhost:8000",
		"http://localhost:5173", // Vite default
		"http://127.0.0.1:3000",
		"http://127.0.0.1:8000",
		"http://127.0.0.1:5173",
	}
}
