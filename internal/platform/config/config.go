package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"

	MailDriverSendGrid = "sendgrid"
	MailDriverConsole  = "console"

	// DefaultJWTSecret signs unsubscribe links when JWT_SECRET is unset.
	DefaultJWTSecret = "defaultsecret"
)

type Config struct {
	AppName       string
	APIPort       string
	PublicBaseURL string
	LogLevel      string
	Timezone      string
	CORSOrigins   []string

	StoreDriver string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSslMode   string
	DBConnStr   string

	RedisEnabled  bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	CodeforcesBaseURL         string
	CodeforcesSubmissionCount int
	CodeforcesTimeout         time.Duration

	SyncSchedule    string
	SyncConcurrency int
	SyncLockKey     string
	SyncLockTTL     time.Duration
	SyncRunLogKey   string
	SyncRunLogSize  int

	MailDriver     string
	SendGridAPIKey string
	MailFrom       string
	MailFromName   string

	InactivityThreshold time.Duration
	ReminderCooldown    time.Duration

	JWTKey              []byte
	UnsubscribeTokenTTL time.Duration
}

var AppConfig *Config

// Load reads .env (if present) and the process environment into AppConfig.
func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg, err := FromViper(newViper())
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	AppConfig = cfg
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	v.SetDefault("APP_NAME", "TLE Tracker")
	v.SetDefault("API_PORT", "8080")
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:8080")
	v.SetDefault("LOG_LEVEL", "INFO")
	v.SetDefault("TIMEZONE", "Local")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173")

	v.SetDefault("STORE_DRIVER", StoreDriverPostgres)
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "user")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "tle_tracker")
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("CODEFORCES_BASE_URL", "https://codeforces.com/api")
	v.SetDefault("CODEFORCES_SUBMISSION_COUNT", 10000)
	v.SetDefault("CODEFORCES_TIMEOUT", 30*time.Second)

	v.SetDefault("SYNC_SCHEDULE", "0 2 * * *")
	v.SetDefault("SYNC_CONCURRENCY", 1)
	v.SetDefault("SYNC_LOCK_KEY", "cf_sync_lock")
	v.SetDefault("SYNC_LOCK_TTL", 30*time.Minute)
	v.SetDefault("SYNC_RUN_LOG_KEY", "cf_sync_runs")
	v.SetDefault("SYNC_RUN_LOG_SIZE", 20)

	v.SetDefault("MAIL_DRIVER", "")
	v.SetDefault("SENDGRID_API_KEY", "")
	v.SetDefault("MAIL_FROM", "")
	v.SetDefault("MAIL_FROM_NAME", "TLE Tracker")

	v.SetDefault("INACTIVITY_DAYS", 7)
	v.SetDefault("REMINDER_COOLDOWN", 24*time.Hour)

	v.SetDefault("JWT_SECRET", DefaultJWTSecret)
	v.SetDefault("UNSUBSCRIBE_TOKEN_TTL", 30*24*time.Hour)

	v.AutomaticEnv()
	return v
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		AppName:       v.GetString("APP_NAME"),
		APIPort:       v.GetString("API_PORT"),
		PublicBaseURL: strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/"),
		LogLevel:      strings.ToUpper(v.GetString("LOG_LEVEL")),
		Timezone:      v.GetString("TIMEZONE"),
		CORSOrigins:   splitList(v.GetString("CORS_ALLOWED_ORIGINS")),

		StoreDriver: strings.ToLower(v.GetString("STORE_DRIVER")),
		DBHost:      v.GetString("DB_HOST"),
		DBPort:      v.GetString("DB_PORT"),
		DBUser:      v.GetString("DB_USER"),
		DBPassword:  v.GetString("DB_PASSWORD"),
		DBName:      v.GetString("DB_NAME"),
		DBSslMode:   v.GetString("DB_SSLMODE"),
		DBConnStr:   v.GetString("DATABASE_URL"),

		RedisEnabled:  v.GetBool("REDIS_ENABLED"),
		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisDB:       v.GetInt("REDIS_DB"),

		CodeforcesBaseURL:         strings.TrimRight(v.GetString("CODEFORCES_BASE_URL"), "/"),
		CodeforcesSubmissionCount: v.GetInt("CODEFORCES_SUBMISSION_COUNT"),
		CodeforcesTimeout:         v.GetDuration("CODEFORCES_TIMEOUT"),

		SyncSchedule:    v.GetString("SYNC_SCHEDULE"),
		SyncConcurrency: v.GetInt("SYNC_CONCURRENCY"),
		SyncLockKey:     v.GetString("SYNC_LOCK_KEY"),
		SyncLockTTL:     v.GetDuration("SYNC_LOCK_TTL"),
		SyncRunLogKey:   v.GetString("SYNC_RUN_LOG_KEY"),
		SyncRunLogSize:  v.GetInt("SYNC_RUN_LOG_SIZE"),

		MailDriver:     strings.ToLower(v.GetString("MAIL_DRIVER")),
		SendGridAPIKey: v.GetString("SENDGRID_API_KEY"),
		MailFrom:       v.GetString("MAIL_FROM"),
		MailFromName:   v.GetString("MAIL_FROM_NAME"),

		InactivityThreshold: time.Duration(v.GetInt("INACTIVITY_DAYS")) * 24 * time.Hour,
		ReminderCooldown:    v.GetDuration("REMINDER_COOLDOWN"),

		JWTKey:              []byte(v.GetString("JWT_SECRET")),
		UnsubscribeTokenTTL: v.GetDuration("UNSUBSCRIBE_TOKEN_TTL"),
	}

	if cfg.DBConnStr == "" {
		cfg.DBConnStr = "host=" + cfg.DBHost +
			" port=" + cfg.DBPort +
			" user=" + cfg.DBUser +
			" password=" + cfg.DBPassword +
			" dbname=" + cfg.DBName +
			" sslmode=" + cfg.DBSslMode
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q (got %q)", StoreDriverPostgres, StoreDriverMemory, c.StoreDriver)
	}
	switch c.MailDriver {
	case "", MailDriverSendGrid, MailDriverConsole:
	default:
		return fmt.Errorf("MAIL_DRIVER must be empty, %q or %q (got %q)", MailDriverSendGrid, MailDriverConsole, c.MailDriver)
	}
	if c.CodeforcesSubmissionCount <= 0 {
		return fmt.Errorf("CODEFORCES_SUBMISSION_COUNT must be positive (got %d)", c.CodeforcesSubmissionCount)
	}
	if c.SyncConcurrency < 1 {
		return fmt.Errorf("SYNC_CONCURRENCY must be at least 1 (got %d)", c.SyncConcurrency)
	}
	if c.InactivityThreshold <= 0 {
		return fmt.Errorf("INACTIVITY_DAYS must be positive")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("TIMEZONE %q: %w", c.Timezone, err)
	}
	return nil
}

// Location resolves the configured time zone used for day buckets and cron.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "Local") {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// UsesDefaultJWTSecret reports whether JWT_SECRET was left at its default.
func (c *Config) UsesDefaultJWTSecret() bool {
	return string(c.JWTKey) == DefaultJWTSecret
}

// MailConfigured reports whether the reminder mail transport has what it needs.
func (c *Config) MailConfigured() bool {
	switch c.MailDriver {
	case MailDriverSendGrid:
		return c.SendGridAPIKey != "" && c.MailFrom != ""
	case MailDriverConsole:
		return true
	default:
		return false
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
