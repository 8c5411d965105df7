package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Config is the typed view over the process environment.
type Config struct {
	Env  string
	Port string

	DBHost          string
	DBPort          string
	DBUser          string
	DBPassword      string
	DBName          string
	DBSSLMode       string
	DBMaxIdleConns  int
	DBMaxOpenConns  int
	DBConnLifetime  time.Duration
	DBConnIdleTime  time.Duration
	RedisHost       string
	RedisPort       string
	RedisPassword   string
	RedisDB         int
	CredentialTTL   time.Duration
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	BcryptCost      int
	CORSOrigins     string

	// AuthRateLimit caps register and login requests per IP within AuthRateWindow.
	AuthRateLimit  int
	AuthRateWindow time.Duration
}

// LoadEnv loads variables from a .env file if present.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Debugf("no .env file found: %v", err)
	}
}

// Load reads the environment into a Config, applying defaults.
func Load() *Config {
	LoadEnv()

	return &Config{
		Env:             GetEnv("ENV", "development"),
		Port:            GetEnv("PORT", "3000"),
		DBHost:          GetEnv("DB_HOST", "localhost"),
		DBPort:          GetEnv("DB_PORT", "5432"),
		DBUser:          GetEnv("DB_USER", "postgres"),
		DBPassword:      GetEnv("DB_PASSWORD", "postgres"),
		DBName:          GetEnv("DB_NAME", "insurecow"),
		DBSSLMode:       GetEnv("DB_SSLMODE", "disable"),
		DBMaxIdleConns:  GetIntEnv("DB_MAX_IDLE_CONNS", 10),
		DBMaxOpenConns:  GetIntEnv("DB_MAX_OPEN_CONNS", 100),
		DBConnLifetime:  GetDurationEnv("DB_CONN_MAX_LIFETIME", time.Hour),
		DBConnIdleTime:  GetDurationEnv("DB_CONN_MAX_IDLE_TIME", 30*time.Minute),
		RedisHost:       GetEnv("REDIS_HOST", "localhost"),
		RedisPort:       GetEnv("REDIS_PORT", "6379"),
		RedisPassword:   GetEnv("REDIS_PASSWORD", ""),
		RedisDB:         GetIntEnv("REDIS_DB", 0),
		CredentialTTL:   GetDurationEnv("CREDENTIAL_CACHE_TTL", 10*time.Minute),
		JWTSecret:       GetEnv("JWT_SECRET", ""),
		AccessTokenTTL:  GetDurationEnv("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL: GetDurationEnv("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		BcryptCost:      GetIntEnv("BCRYPT_COST", 12),
		CORSOrigins:     GetEnv("CORS_ORIGINS", "http://localhost:5173"),
		AuthRateLimit:   GetIntEnv("AUTH_RATE_LIMIT", 5),
		AuthRateWindow:  GetDurationEnv("AUTH_RATE_WINDOW", time.Minute),
	}
}

// DSN builds the postgres connection string.
func (c *Config) DSN() string {
	parts := []string{
		"host=" + c.DBHost,
		"user=" + c.DBUser,
		"password=" + c.DBPassword,
		"dbname=" + c.DBName,
		"port=" + c.DBPort,
		"sslmode=" + c.DBSSLMode,
	}
	return strings.Join(parts, " ")
}

// IsProduction checks if the app runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// GetEnv returns an environment variable or a default value.
func GetEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return defaultVal
}

// GetIntEnv returns an int environment variable or a default value.
func GetIntEnv(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
		log.Warnf("invalid %s=%q, using default %d", key, val, defaultVal)
	}
	return defaultVal
}

// GetDurationEnv returns a duration environment variable (e.g. "15m") or a default value.
func GetDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
		log.Warnf("invalid %s=%q, using default %s", key, val, defaultVal)
	}
	return defaultVal
}

// IsProduction checks the ENV variable directly, for callers without a Config.
func IsProduction() bool {
	return GetEnv("ENV", "development") == "production"
}
