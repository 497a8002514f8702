// config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the server reads from the environment.
type Config struct {
	Port    string
	Env     string
	Log     LogConfig
	DB      DatabaseConfig
	JWT     JWTConfig
	CORS    CORSConfig
	Notify  NotifyConfig
	Redis   RedisConfig
	Twilio  TwilioConfig
	Admin   AdminConfig
	Pricing PricingConfig
}

type LogConfig struct {
	Level  string
	Format string
}

type DatabaseConfig struct {
	Driver          string // postgres, mysql or sqlite
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	Secret      string
	ExpiryHours int
}

type CORSConfig struct {
	AllowOrigins []string
}

// NotifyConfig selects how job card events reach customers.
type NotifyConfig struct {
	Transport     string // outbox or redis
	RelaySchedule string
	MaxAttempts   int
	BatchSize     int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Stream   string
	Group    string
	Consumer string
}

type TwilioConfig struct {
	AccountSID     string
	AuthToken      string
	PhoneNumber    string
	WhatsAppNumber string
}

// Enabled reports whether credentials for outbound messages are present.
func (c TwilioConfig) Enabled() bool {
	return c.AccountSID != "" && c.AuthToken != ""
}

type AdminConfig struct {
	Email    string
	Password string
	Name     string
}

type PricingConfig struct {
	// StrictProducts rejects job card selections that reference unknown
	// products instead of dropping them.
	StrictProducts bool
}

const (
	TransportOutbox = "outbox"
	TransportRedis  = "redis"
)

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port: "8080",
		Env:  "development",
		Log:  LogConfig{Level: "info", Format: "json"},
		DB: DatabaseConfig{
			Driver:          "postgres",
			MaxOpenConns:    25,
			MaxIdleConns:    10,
			ConnMaxLifetime: 5 * time.Minute,
		},
		JWT:  JWTConfig{ExpiryHours: 24},
		CORS: CORSConfig{AllowOrigins: []string{"http://localhost:3000"}},
		Notify: NotifyConfig{
			Transport:     TransportOutbox,
			RelaySchedule: "@every 30s",
			MaxAttempts:   5,
			BatchSize:     50,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			Stream:   "jobcard-events",
			Group:    "notifier",
			Consumer: "notifier-1",
		},
		Admin: AdminConfig{Name: "Administrator"},
	}

	cfg.Port = envString("PORT", cfg.Port)
	cfg.Env = envString("APP_ENV", cfg.Env)
	cfg.Log.LoadFromEnv("LOG")
	cfg.DB.LoadFromEnv("DB")
	cfg.JWT.LoadFromEnv("JWT")
	if origins := os.Getenv("CORS_ALLOW_ORIGINS"); origins != "" {
		cfg.CORS.AllowOrigins = splitList(origins)
	}
	cfg.Notify.LoadFromEnv("NOTIFY")
	cfg.Redis.LoadFromEnv("REDIS")
	cfg.Twilio.LoadFromEnv("TWILIO")
	cfg.Admin.LoadFromEnv("ADMIN")
	cfg.Pricing.StrictProducts = envBool("PRICING_STRICT_PRODUCTS", false)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required values and enumerations.
func (c *Config) Validate() error {
	var errs []error
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.DB.URL == "" {
		errs = append(errs, errors.New("DB_URL is required"))
	}
	switch c.DB.Driver {
	case "postgres", "mysql", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver))
	}
	switch c.Notify.Transport {
	case TransportOutbox, TransportRedis:
	default:
		errs = append(errs, fmt.Errorf("unsupported NOTIFY_TRANSPORT %q", c.Notify.Transport))
	}
	if c.Notify.MaxAttempts < 1 {
		errs = append(errs, errors.New("NOTIFY_MAX_ATTEMPTS must be at least 1"))
	}
	return errors.Join(errs...)
}

func (c *LogConfig) LoadFromEnv(prefix string) {
	c.Level = envString(prefix+"_LEVEL", c.Level)
	c.Format = envString(prefix+"_FORMAT", c.Format)
}

func (c *DatabaseConfig) LoadFromEnv(prefix string) {
	c.Driver = envString(prefix+"_DRIVER", c.Driver)
	c.URL = envString(prefix+"_URL", c.URL)
	c.MaxOpenConns = envInt(prefix+"_MAX_OPEN_CONNS", c.MaxOpenConns)
	c.MaxIdleConns = envInt(prefix+"_MAX_IDLE_CONNS", c.MaxIdleConns)
	c.ConnMaxLifetime = envDuration(prefix+"_CONN_MAX_LIFETIME", c.ConnMaxLifetime)
}

func (c *JWTConfig) LoadFromEnv(prefix string) {
	c.Secret = envString(prefix+"_SECRET", c.Secret)
	c.ExpiryHours = envInt(prefix+"_EXPIRY_HOURS", c.ExpiryHours)
}

func (c *NotifyConfig) LoadFromEnv(prefix string) {
	c.Transport = strings.ToLower(envString(prefix+"_TRANSPORT", c.Transport))
	c.RelaySchedule = envString(prefix+"_RELAY_SCHEDULE", c.RelaySchedule)
	c.MaxAttempts = envInt(prefix+"_MAX_ATTEMPTS", c.MaxAttempts)
	c.BatchSize = envInt(prefix+"_BATCH_SIZE", c.BatchSize)
}

func (c *RedisConfig) LoadFromEnv(prefix string) {
	c.Addr = envString(prefix+"_ADDR", c.Addr)
	c.Password = envString(prefix+"_PASSWORD", c.Password)
	c.DB = envInt(prefix+"_DB", c.DB)
	c.Stream = envString(prefix+"_STREAM", c.Stream)
	c.Group = envString(prefix+"_GROUP", c.Group)
	c.Consumer = envString(prefix+"_CONSUMER", c.Consumer)
}

func (c *TwilioConfig) LoadFromEnv(prefix string) {
	c.AccountSID = envString(prefix+"_ACCOUNT_SID", c.AccountSID)
	c.AuthToken = envString(prefix+"_AUTH_TOKEN", c.AuthToken)
	c.PhoneNumber = envString(prefix+"_PHONE_NUMBER", c.PhoneNumber)
	c.WhatsAppNumber = envString(prefix+"_WHATSAPP_NUMBER", c.WhatsAppNumber)
}

func (c *AdminConfig) LoadFromEnv(prefix string) {
	c.Email = envString(prefix+"_EMAIL", c.Email)
	c.Password = envString(prefix+"_PASSWORD", c.Password)
	c.Name = envString(prefix+"_NAME", c.Name)
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
