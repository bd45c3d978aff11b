package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	DatabaseName      string `mapstructure:"DATABASE_NAME"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`
	AdminToken        string `mapstructure:"ADMIN_TOKEN"`

	// Redis configuration (sweep queue + generic cache).
	RedisAddr         string `mapstructure:"REDIS_ADDR"`
	RedisPassword     string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB      int    `mapstructure:"REDIS_CACHE_DB"`
	RedisSweepQueueDB int    `mapstructure:"REDIS_SWEEP_QUEUE_DB"`

	// Payment gateway configuration.
	GatewayBaseURL   string `mapstructure:"GATEWAY_BASE_URL"`
	GatewayServerKey string `mapstructure:"GATEWAY_SERVER_KEY"`
	GatewayClientKey string `mapstructure:"GATEWAY_CLIENT_KEY"`
	GatewayProvider  string `mapstructure:"GATEWAY_PROVIDER"`

	// Shared secret for the generic internal webhook guard.
	InternalWebhookSecret string `mapstructure:"INTERNAL_WEBHOOK_SECRET"`

	// Booking lifecycle windows.
	RespondByRegularMin int `mapstructure:"RESPOND_BY_REGULAR_MIN"`
	RespondByInstantMin int `mapstructure:"RESPOND_BY_INSTANT_MIN"`
	ForfeitWindowMin    int `mapstructure:"FORFEIT_WINDOW_MIN"`
	SessionStaleHours   int `mapstructure:"SESSION_STALE_HOURS"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_SWEEP_QUEUE_DB", 1)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "fisiocare")
	viper.SetDefault("GATEWAY_BASE_URL", "https://app.sandbox.midtrans.com")
	viper.SetDefault("GATEWAY_PROVIDER", "midtrans")
	viper.SetDefault("RESPOND_BY_REGULAR_MIN", 30)
	viper.SetDefault("RESPOND_BY_INSTANT_MIN", 5)
	viper.SetDefault("FORFEIT_WINDOW_MIN", 60)
	viper.SetDefault("SESSION_STALE_HOURS", 48)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// RespondByWindow returns the therapist response window for a booking type.
func RespondByWindow(instant bool) time.Duration {
	if instant {
		return time.Duration(AppConfig.RespondByInstantMin) * time.Minute
	}
	return time.Duration(AppConfig.RespondByRegularMin) * time.Minute
}

// ForfeitWindow returns how close to the visit a cancellation still forfeits.
func ForfeitWindow() time.Duration {
	return time.Duration(AppConfig.ForfeitWindowMin) * time.Minute
}

// SessionStaleAge returns how long after scheduledAt a session is swept to EXPIRED.
func SessionStaleAge() time.Duration {
	return time.Duration(AppConfig.SessionStaleHours) * time.Hour
}
