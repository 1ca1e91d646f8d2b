package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Slots     SlotsConfig
	RateLimit RateLimitConfig
	Export    ExportConfig
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig governs bearer token validation on mutating routes.
type JWTConfig struct {
	Enabled  bool
	Secret   string
	Issuer   string
	Audience string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SlotsConfig holds defaults and limits for slot stores.
type SlotsConfig struct {
	DefaultSlotLength int64
	MaxSlotsPerStore  int
	MaxStores         int
	StoreTTL          time.Duration
	InclusiveOverlap  bool
	PatchMode         string
}

// RateLimitConfig configures the fixed-window request limiter.
type RateLimitConfig struct {
	Enabled  bool
	Requests int
	Window   time.Duration
	FailOpen bool
}

// ExportConfig controls caching of rendered exports.
type ExportConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("ENABLE_REDIS"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Enabled:  v.GetBool("ENABLE_AUTH"),
		Secret:   v.GetString("JWT_SECRET"),
		Issuer:   v.GetString("JWT_ISSUER"),
		Audience: v.GetString("JWT_AUDIENCE"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	slotLength := v.GetInt64("DEFAULT_SLOT_LENGTH")
	if slotLength <= 0 {
		slotLength = 30 * 60
	}
	cfg.Slots = SlotsConfig{
		DefaultSlotLength: slotLength,
		MaxSlotsPerStore:  v.GetInt("MAX_SLOTS_PER_STORE"),
		MaxStores:         v.GetInt("MAX_STORES"),
		StoreTTL:          parseDuration(v.GetString("SLOT_STORE_TTL"), 2*time.Hour),
		InclusiveOverlap:  v.GetBool("INCLUSIVE_OVERLAP"),
		PatchMode:         v.GetString("PATCH_MODE"),
	}

	cfg.RateLimit = RateLimitConfig{
		Enabled:  v.GetBool("ENABLE_RATE_LIMIT"),
		Requests: v.GetInt("RATE_LIMIT_REQUESTS"),
		Window:   parseDuration(v.GetString("RATE_LIMIT_WINDOW"), time.Minute),
		FailOpen: v.GetBool("RATE_LIMIT_FAIL_OPEN"),
	}

	cfg.Export = ExportConfig{
		CacheEnabled: v.GetBool("ENABLE_EXPORT_CACHE"),
		CacheTTL:     parseDuration(v.GetString("EXPORT_CACHE_TTL"), 10*time.Minute),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("ENABLE_REDIS", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ENABLE_AUTH", false)
	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")
	v.SetDefault("JWT_AUDIENCE", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("DEFAULT_SLOT_LENGTH", 1800)
	v.SetDefault("MAX_SLOTS_PER_STORE", 10000)
	v.SetDefault("MAX_STORES", 1000)
	v.SetDefault("SLOT_STORE_TTL", "2h")
	v.SetDefault("INCLUSIVE_OVERLAP", false)
	v.SetDefault("PATCH_MODE", "explicit")

	v.SetDefault("ENABLE_RATE_LIMIT", false)
	v.SetDefault("RATE_LIMIT_REQUESTS", 120)
	v.SetDefault("RATE_LIMIT_WINDOW", "1m")
	v.SetDefault("RATE_LIMIT_FAIL_OPEN", true)

	v.SetDefault("ENABLE_EXPORT_CACHE", false)
	v.SetDefault("EXPORT_CACHE_TTL", "10m")
}

func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
