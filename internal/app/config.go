package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

// Config represents the runtime configuration for the MedRec backend.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Email       EmailConfig       `mapstructure:"email"`
	Payment     PaymentConfig     `mapstructure:"payment"`
	Maintenance MaintenanceConfig `mapstructure:"maintenance"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port     int      `mapstructure:"port"`
	LogLevel string   `mapstructure:"log_level"`
	BaseURL  string   `mapstructure:"base_url"`
	CORS     []string `mapstructure:"cors_origins"`
}

// DatabaseConfig describes connection options for the supported databases.
type DatabaseConfig struct {
	Driver   string       `mapstructure:"driver"`
	Path     string       `mapstructure:"path"`
	DSN      string       `mapstructure:"dsn"`
	Postgres DBAuthConfig `mapstructure:"postgres"`
	MySQL    DBAuthConfig `mapstructure:"mysql"`
}

// DBAuthConfig represents host based database parameters.
type DBAuthConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// AuthConfig captures authentication settings.
type AuthConfig struct {
	JWT       JWTSettings   `mapstructure:"jwt"`
	Bootstrap AdminAccount  `mapstructure:"bootstrap_admin"`
	TokenTTL  time.Duration `mapstructure:"verification_token_ttl"`
}

// JWTSettings configures JWT access tokens.
type JWTSettings struct {
	Secret string        `mapstructure:"secret"`
	Issuer string        `mapstructure:"issuer"`
	TTL    time.Duration `mapstructure:"access_token_ttl"`
}

// AdminAccount seeds the initial administrator on first startup.
type AdminAccount struct {
	FullName string `mapstructure:"full_name"`
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

// EmailConfig captures outbound email settings.
type EmailConfig struct {
	SMTP SMTPConfig `mapstructure:"smtp"`
}

// SMTPConfig defines SMTP dialer settings for sending email.
type SMTPConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	From     string        `mapstructure:"from"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// PaymentConfig configures the payment gateway client.
type PaymentConfig struct {
	KeyID     string `mapstructure:"key_id"`
	KeySecret string `mapstructure:"key_secret"`
	Currency  string `mapstructure:"currency"`
}

// MaintenanceConfig controls background housekeeping.
type MaintenanceConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	CleanupSchedule string        `mapstructure:"cleanup_schedule"`
	TokenRetention  time.Duration `mapstructure:"token_retention"`
}

// LoadConfig initialises application configuration using Viper with sensible defaults.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.NewWithOptions(viper.ExperimentalBindStruct())
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("./config")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	v.SetEnvPrefix("MEDREC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config, decodeHook()); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var err error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		err = multierr.Append(err, fmt.Errorf("config: server.port %d is out of range", c.Server.Port))
	}
	if c.Auth.JWT.Secret == "" {
		err = multierr.Append(err, errors.New("config: auth.jwt.secret is required"))
	}
	if c.Auth.TokenTTL <= 0 {
		err = multierr.Append(err, errors.New("config: auth.verification_token_ttl must be positive"))
	}
	switch c.Database.Driver {
	case "sqlite", "postgres", "mysql":
	default:
		err = multierr.Append(err, fmt.Errorf("config: unsupported database.driver %q", c.Database.Driver))
	}
	if c.Email.SMTP.Enabled && c.Email.SMTP.Host == "" {
		err = multierr.Append(err, errors.New("config: email.smtp.host is required when smtp is enabled"))
	}

	return err
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.base_url", "http://localhost:8000")
	v.SetDefault("server.cors_origins", []string{"http://localhost:3000"})

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/medrec.sqlite")

	v.SetDefault("auth.jwt.issuer", "medrec")
	v.SetDefault("auth.jwt.access_token_ttl", "30m")
	v.SetDefault("auth.verification_token_ttl", "10m")
	v.SetDefault("auth.bootstrap_admin.full_name", "Administrator")
	v.SetDefault("auth.bootstrap_admin.email", "admin@medrec.local")

	v.SetDefault("email.smtp.enabled", false)
	v.SetDefault("email.smtp.host", "")
	v.SetDefault("email.smtp.port", 587)
	v.SetDefault("email.smtp.timeout", "10s")

	v.SetDefault("payment.currency", "INR")

	v.SetDefault("maintenance.enabled", true)
	v.SetDefault("maintenance.cleanup_schedule", "@hourly")
	v.SetDefault("maintenance.token_retention", "1h")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
