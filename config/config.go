package config

import (
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Twilio   TwilioConfig
	Reminder ReminderConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port        string
	CORSOrigins []string
}

type DatabaseConfig struct {
	URL string
}

type RedisConfig struct {
	URL      string
	Password string
	DB       int
	CacheTTL time.Duration
}

type AuthConfig struct {
	JWTSecret   string
	ExpiryHours int
	TrialDays   int
}

type TwilioConfig struct {
	AccountSID     string
	AuthToken      string
	PhoneNumber    string
	WhatsAppNumber string
}

type ReminderConfig struct {
	Schedule string
	Enabled  bool
}

type LogConfig struct {
	Level  string
	Format string
}

var AppConfig *Config

// LoadConfig reads the process environment (already populated from .env by
// godotenv in main) into AppConfig.
func LoadConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_TTL", "2m")
	v.SetDefault("JWT_EXPIRY_HOURS", 24)
	v.SetDefault("TRIAL_DAYS", 14)
	v.SetDefault("REMINDER_CRON", "0 9 * * *")
	v.SetDefault("REMINDERS_ENABLED", true)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")

	var origins []string
	for _, o := range strings.Split(v.GetString("CORS_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:        v.GetString("PORT"),
			CORSOrigins: origins,
		},
		Database: DatabaseConfig{
			URL: v.GetString("DB_URL"),
		},
		Redis: RedisConfig{
			URL:      v.GetString("REDIS_URL"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			CacheTTL: v.GetDuration("CACHE_TTL"),
		},
		Auth: AuthConfig{
			JWTSecret:   v.GetString("JWT_SECRET"),
			ExpiryHours: v.GetInt("JWT_EXPIRY_HOURS"),
			TrialDays:   v.GetInt("TRIAL_DAYS"),
		},
		Twilio: TwilioConfig{
			AccountSID:     v.GetString("TWILIO_ACCOUNT_SID"),
			AuthToken:      v.GetString("TWILIO_AUTH_TOKEN"),
			PhoneNumber:    v.GetString("TWILIO_PHONE_NUMBER"),
			WhatsAppNumber: v.GetString("TWILIO_WHATSAPP_NUMBER"),
		},
		Reminder: ReminderConfig{
			Schedule: v.GetString("REMINDER_CRON"),
			Enabled:  v.GetBool("REMINDERS_ENABLED"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
	}

	if cfg.Auth.JWTSecret == "" {
		slog.Warn("JWT_SECRET is not set; token issuing will fail")
	}

	AppConfig = cfg
	return cfg
}
