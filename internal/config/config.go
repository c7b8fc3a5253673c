package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/yourusername/verification-api/pkg/logger"
)

// Config holds all application settings.
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Log          LogConfig          `mapstructure:"log"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Verification VerificationConfig `mapstructure:"verification"`
	Email        EmailConfig        `mapstructure:"email"`
	SMS          SMSConfig          `mapstructure:"sms"`
	Events       EventsConfig       `mapstructure:"events"`
	Auth         AuthConfig         `mapstructure:"auth"`
	Purposes     []PurposeSeed      `mapstructure:"purposes"`
}

type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	ReadTimeout    int      `mapstructure:"read_timeout"`
	WriteTimeout   int      `mapstructure:"write_timeout"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            string `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	MigrationsPath  string `mapstructure:"migrations_path"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime_minutes"`
}

// RedisConfig supports "single", "sentinel" and "cluster" modes.
// An empty Addr and Addrs disables Redis and the event bus falls back to a no-op publisher.
type RedisConfig struct {
	Mode       string   `mapstructure:"mode"`
	Addrs      []string `mapstructure:"addrs"`
	Addr       string   `mapstructure:"addr"`
	Password   string   `mapstructure:"password"`
	DB         int      `mapstructure:"db"`
	MasterName string   `mapstructure:"master_name"`
	MaxRetries int      `mapstructure:"max_retries"`
}

type VerificationConfig struct {
	CodeTTLMinutes   int  `mapstructure:"code_ttl_minutes"`
	EnforceUserScope bool `mapstructure:"enforce_user_scope"`
}

type EmailConfig struct {
	// Provider is one of "resend", "smtp" or "log".
	Provider     string `mapstructure:"provider"`
	From         string `mapstructure:"from"`
	ResendAPIKey string `mapstructure:"resend_api_key"`
	SMTPHost     string `mapstructure:"smtp_host"`
	SMTPPort     int    `mapstructure:"smtp_port"`
	SMTPUser     string `mapstructure:"smtp_user"`
	SMTPPassword string `mapstructure:"smtp_password"`
}

type SMSConfig struct {
	// Provider is one of "twilio" or "log".
	Provider         string `mapstructure:"provider"`
	TwilioAccountSID string `mapstructure:"twilio_account_sid"`
	TwilioAuthToken  string `mapstructure:"twilio_auth_token"`
	TwilioFromPhone  string `mapstructure:"twilio_from_phone"`
}

type EventsConfig struct {
	Channel              string `mapstructure:"channel"`
	RelayIntervalSeconds int    `mapstructure:"relay_interval_seconds"`
	RelayBatchSize       int    `mapstructure:"relay_batch_size"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

// PurposeSeed is a verification purpose registered at startup.
type PurposeSeed struct {
	ID          string `mapstructure:"id"`
	Code        string `mapstructure:"code"`
	Name        string `mapstructure:"name"`
	Description string `mapstructure:"description"`
}

// PostgresConnectionString builds the libpq DSN.
func (d *DatabaseConfig) PostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

func (v VerificationConfig) CodeTTL() time.Duration {
	return time.Duration(v.CodeTTLMinutes) * time.Minute
}

func (e EventsConfig) RelayInterval() time.Duration {
	return time.Duration(e.RelayIntervalSeconds) * time.Second
}

// Load reads configPath (optional) and explicitly bound environment variables.
func Load(configPath string) (*Config, error) {
	vip := viper.New()

	vip.SetDefault("server.port", "8080")
	vip.SetDefault("server.read_timeout", 15)
	vip.SetDefault("server.write_timeout", 15)
	vip.SetDefault("log.level", "info")
	vip.SetDefault("log.format", "text")
	vip.SetDefault("database.port", "5432")
	vip.SetDefault("database.sslmode", "disable")
	vip.SetDefault("database.migrations_path", "migrations")
	vip.SetDefault("database.max_open_conns", 25)
	vip.SetDefault("database.max_idle_conns", 10)
	vip.SetDefault("database.conn_max_lifetime_minutes", 30)
	vip.SetDefault("redis.mode", "single")
	vip.SetDefault("verification.code_ttl_minutes", 10)
	vip.SetDefault("verification.enforce_user_scope", true)
	vip.SetDefault("email.provider", "log")
	vip.SetDefault("email.smtp_port", 587)
	vip.SetDefault("sms.provider", "log")
	vip.SetDefault("events.channel", "verification.completed")
	vip.SetDefault("events.relay_interval_seconds", 5)
	vip.SetDefault("events.relay_batch_size", 100)

	bindings := map[string]string{
		"server.port":                     "SERVER_PORT",
		"log.level":                       "LOG_LEVEL",
		"log.format":                      "LOG_FORMAT",
		"database.host":                   "DATABASE_HOST",
		"database.port":                   "DATABASE_PORT",
		"database.user":                   "DATABASE_USER",
		"database.password":               "DATABASE_PASSWORD",
		"database.dbname":                 "DATABASE_DBNAME",
		"database.sslmode":                "DATABASE_SSLMODE",
		"database.migrations_path":        "DATABASE_MIGRATIONS_PATH",
		"redis.mode":                      "REDIS_MODE",
		"redis.addrs":                     "REDIS_ADDRS",
		"redis.addr":                      "REDIS_ADDR",
		"redis.password":                  "REDIS_PASSWORD",
		"redis.db":                        "REDIS_DB",
		"redis.master_name":               "REDIS_MASTER_NAME",
		"verification.code_ttl_minutes":   "VERIFICATION_CODE_TTL_MINUTES",
		"verification.enforce_user_scope": "VERIFICATION_ENFORCE_USER_SCOPE",
		"email.provider":                  "EMAIL_PROVIDER",
		"email.from":                      "EMAIL_FROM",
		"email.resend_api_key":            "RESEND_API_KEY",
		"email.smtp_host":                 "SMTP_HOST",
		"email.smtp_port":                 "SMTP_PORT",
		"email.smtp_user":                 "SMTP_USER",
		"email.smtp_password":             "SMTP_PASSWORD",
		"sms.provider":                    "SMS_PROVIDER",
		"sms.twilio_account_sid":          "TWILIO_ACCOUNT_SID",
		"sms.twilio_auth_token":           "TWILIO_AUTH_TOKEN",
		"sms.twilio_from_phone":           "TWILIO_FROM_PHONE",
		"events.channel":                  "EVENTS_CHANNEL",
		"events.relay_interval_seconds":   "EVENTS_RELAY_INTERVAL_SECONDS",
		"events.relay_batch_size":         "EVENTS_RELAY_BATCH_SIZE",
		"auth.jwt_secret":                 "JWT_SECRET",
	}
	for key, env := range bindings {
		if err := vip.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if configPath != "" {
		vip.SetConfigFile(configPath)
		if err := vip.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) {
				logger.Log.Warnf("Config file '%s' not found, using environment and defaults", configPath)
			} else {
				logger.Log.Warnf("Could not read config file '%s': %v", configPath, err)
			}
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// REDIS_ADDRS arrives as a single comma-separated string.
	if len(cfg.Redis.Addrs) == 1 && strings.Contains(cfg.Redis.Addrs[0], ",") {
		cfg.Redis.Addrs = strings.Split(cfg.Redis.Addrs[0], ",")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Database.Host == "" || c.Database.DBName == "" || c.Database.User == "" {
		return fmt.Errorf("database configuration (host, dbname, user) is incomplete (check DATABASE_HOST, DATABASE_DBNAME, DATABASE_USER)")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("jwt secret is required (check JWT_SECRET)")
	}
	if c.Verification.CodeTTLMinutes <= 0 {
		return fmt.Errorf("verification.code_ttl_minutes must be positive")
	}

	switch c.Email.Provider {
	case "log":
	case "resend":
		if c.Email.ResendAPIKey == "" || c.Email.From == "" {
			return fmt.Errorf("resend email provider requires RESEND_API_KEY and EMAIL_FROM")
		}
	case "smtp":
		if c.Email.SMTPHost == "" || c.Email.From == "" {
			return fmt.Errorf("smtp email provider requires SMTP_HOST and EMAIL_FROM")
		}
	default:
		return fmt.Errorf("unknown email provider %q", c.Email.Provider)
	}

	switch c.SMS.Provider {
	case "log":
	case "twilio":
		if c.SMS.TwilioAccountSID == "" || c.SMS.TwilioAuthToken == "" || c.SMS.TwilioFromPhone == "" {
			return fmt.Errorf("twilio sms provider requires TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_FROM_PHONE")
		}
	default:
		return fmt.Errorf("unknown sms provider %q", c.SMS.Provider)
	}
	return nil
}
