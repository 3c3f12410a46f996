package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"schedulesync/core/constants"
)

type ServerConfig struct {
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	BaseURL string `mapstructure:"base_url"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"name"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type GoogleAPIConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURI  string `mapstructure:"redirect_uri"`
}

type JWTConfig struct {
	Secret           string `mapstructure:"secret"`
	AccessTTLMinutes int    `mapstructure:"access_ttl_minutes"`
	RefreshTTLHours  int    `mapstructure:"refresh_ttl_hours"`
}

type EncryptionConfig struct {
	// Key is the 32-byte URL-safe base64 key used to encrypt OAuth tokens
	// at rest.
	Key string `mapstructure:"key"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type BookingConfig struct {
	SlotDurationMinutes  int    `mapstructure:"slot_duration_minutes"`
	WorkingHoursStart    string `mapstructure:"working_hours_start"`
	WorkingHoursEnd      string `mapstructure:"working_hours_end"`
	DaysAhead            int    `mapstructure:"days_ahead"`
	ReconcileCron        string `mapstructure:"reconcile_cron"`
	ReconcileGraceMinute int    `mapstructure:"reconcile_grace_minutes"`
}

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	GoogleAPI  GoogleAPIConfig  `mapstructure:"google"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	Encryption EncryptionConfig `mapstructure:"encryption"`
	SMTP       SMTPConfig       `mapstructure:"smtp"`
	Booking    BookingConfig    `mapstructure:"booking"`
	LogLevel   string           `mapstructure:"log_level"`
}

var instance *Config

// Load reads configuration from environment variables (SCHEDULESYNC_ prefix,
// dots replaced by underscores) with defaults suitable for local development.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SCHEDULESYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 7070)
	v.SetDefault("server.base_url", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "schedulesync")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("jwt.access_ttl_minutes", 30)
	v.SetDefault("jwt.refresh_ttl_hours", 24*7)
	v.SetDefault("smtp.port", 587)
	v.SetDefault("booking.slot_duration_minutes", constants.DefaultSlotDurationMinutes)
	v.SetDefault("booking.working_hours_start", constants.DefaultWorkingHoursStart)
	v.SetDefault("booking.working_hours_end", constants.DefaultWorkingHoursEnd)
	v.SetDefault("booking.days_ahead", constants.DefaultDaysAhead)
	v.SetDefault("booking.reconcile_cron", "*/10 * * * *")
	v.SetDefault("booking.reconcile_grace_minutes", 15)
	v.SetDefault("log_level", "info")

	// Bind explicitly so AutomaticEnv sees nested keys even without a file.
	for _, key := range []string{
		"server.host", "server.port", "server.base_url",
		"database.host", "database.port", "database.user", "database.password",
		"database.name", "database.ssl_mode",
		"redis.addr", "redis.password", "redis.db",
		"google.client_id", "google.client_secret", "google.redirect_uri",
		"jwt.secret", "jwt.access_ttl_minutes", "jwt.refresh_ttl_hours",
		"encryption.key",
		"smtp.host", "smtp.port", "smtp.username", "smtp.password", "smtp.from",
		"booking.slot_duration_minutes", "booking.working_hours_start",
		"booking.working_hours_end", "booking.days_ahead",
		"booking.reconcile_cron", "booking.reconcile_grace_minutes",
		"log_level",
	} {
		_ = v.BindEnv(key)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	instance = &cfg
	return instance, nil
}

// Get returns the loaded config. Panics when Load has not run.
func Get() *Config {
	if instance == nil {
		panic("config: Get called before Load")
	}
	return instance
}

// GetSafe returns the loaded config and whether Load has run.
func GetSafe() (*Config, bool) {
	return instance, instance != nil
}
