package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	_ "time/tzdata"
)

type Config struct {
	DatabaseURL string
	Port        string
	Location    *time.Location
	LogLevel    slog.Level

	JWTSecret    string
	StaticTokens []string

	Google struct {
		ClientID     string
		ClientSecret string
		RedirectURL  string
		Timeout      time.Duration
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}
	RateLimitPerMinute int
}

// Load reads configuration from the environment, after loading a .env file when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("PORT", "8080")
	v.SetDefault("TIMEZONE", "America/Sao_Paulo")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("GOOGLE_TIMEOUT", "10s")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 60)

	cfg := &Config{
		DatabaseURL:        v.GetString("DATABASE_URL"),
		Port:               v.GetString("PORT"),
		JWTSecret:          strings.TrimSpace(v.GetString("JWT_HMAC_SECRET")),
		RateLimitPerMinute: v.GetInt("RATE_LIMIT_PER_MINUTE"),
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_HMAC_SECRET required")
	}

	loc, err := time.LoadLocation(v.GetString("TIMEZONE"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	cfg.Location = loc

	if err := cfg.LogLevel.UnmarshalText([]byte(v.GetString("LOG_LEVEL"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	if raw := strings.TrimSpace(v.GetString("STATIC_TOKENS")); raw != "" {
		cfg.StaticTokens = strings.Split(raw, ",")
	}

	cfg.Google.ClientID = v.GetString("GOOGLE_CLIENT_ID")
	cfg.Google.ClientSecret = v.GetString("GOOGLE_CLIENT_SECRET")
	cfg.Google.RedirectURL = v.GetString("GOOGLE_REDIRECT_URL")
	cfg.Google.Timeout = v.GetDuration("GOOGLE_TIMEOUT")

	cfg.Redis.Addr = v.GetString("REDIS_ADDR")
	cfg.Redis.Password = v.GetString("REDIS_PASSWORD")
	cfg.Redis.DB = v.GetInt("REDIS_DB")

	return cfg, nil
}

func NewLogger(service string, level slog.Level) *slog.Logger {
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(h).With("service", service)
}
