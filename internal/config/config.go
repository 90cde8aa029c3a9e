package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	JWT       JWTConfig       `yaml:"jwt"`
	Redis     RedisConfig     `yaml:"redis"`
	Storage   StorageConfig   `yaml:"storage"`
	Log       LogConfig       `yaml:"log"`
	Wallet    WalletConfig    `yaml:"wallet"`
	Booking   BookingConfig   `yaml:"booking"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// ServerConfig contains HTTP and gRPC listener settings
type ServerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	GRPCPort int    `yaml:"grpc_port"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	Database     string `yaml:"database"`
	SSLMode      string `yaml:"ssl_mode"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

// JWTConfig contains JWT token settings
type JWTConfig struct {
	Secret            string `yaml:"secret"`
	AccessTokenExpiry int    `yaml:"access_token_expiry_minutes"`
}

// RedisConfig backs the idempotency key store
type RedisConfig struct {
	Enabled               bool   `yaml:"enabled"`
	Addr                  string `yaml:"addr"`
	Password              string `yaml:"password"`
	DB                    int    `yaml:"db"`
	IdempotencyTTLMinutes int    `yaml:"idempotency_ttl_minutes"`
}

// StorageConfig contains file storage settings
type StorageConfig struct {
	Type         string   `yaml:"type"`       // only "local" is supported
	UploadDir    string   `yaml:"upload_dir"` // root for stored images
	BaseURL      string   `yaml:"base_url"`   // prefix for returned URLs
	MaxFileSize  int64    `yaml:"max_file_size_mb"`
	AllowedTypes []string `yaml:"allowed_types"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// WalletConfig contains topup limits and balance view settings
type WalletConfig struct {
	MaxTopup           string `yaml:"max_topup"`
	RecentTransactions int32  `yaml:"recent_transactions"`
	Currency           string `yaml:"currency"`
}

// BookingConfig contains booking lifecycle switches
type BookingConfig struct {
	// ReclaimEarningOnReturn debits the lender's earning when a return is confirmed.
	ReclaimEarningOnReturn bool `yaml:"reclaim_earning_on_return"`
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	ReconcileWallets      string `yaml:"reconcile_wallets"`
	ReportOverdueBookings string `yaml:"report_overdue_bookings"`
}

// Load reads configuration from a YAML file, then applies .env and environment overrides
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
	setString(&c.Database.Host, "DB_HOST")
	setInt(&c.Database.Port, "DB_PORT")
	setString(&c.Database.User, "DB_USER")
	setString(&c.Database.Password, "DB_PASSWORD")
	setString(&c.Database.Database, "DB_NAME")
	setString(&c.Database.SSLMode, "DB_SSL_MODE")

	// JWT
	setString(&c.JWT.Secret, "JWT_SECRET")

	// Server
	setString(&c.Server.Host, "SERVER_HOST")
	setInt(&c.Server.Port, "SERVER_PORT")
	setInt(&c.Server.GRPCPort, "GRPC_PORT")

	// Redis
	if val := os.Getenv("REDIS_ENABLED"); val != "" {
		c.Redis.Enabled, _ = strconv.ParseBool(val)
	}
	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	setInt(&c.Redis.DB, "REDIS_DB")

	// Storage
	setString(&c.Storage.UploadDir, "UPLOAD_DIR")
	setString(&c.Storage.BaseURL, "STORAGE_BASE_URL")

	// Log
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")

	// Wallet / booking
	setString(&c.Wallet.MaxTopup, "WALLET_MAX_TOPUP")
	setString(&c.Wallet.Currency, "WALLET_CURRENCY")
	if val := os.Getenv("BOOKING_RECLAIM_EARNING_ON_RETURN"); val != "" {
		c.Booking.ReclaimEarningOnReturn, _ = strconv.ParseBool(val)
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

func setString(dst *string, key string) {
	if val := os.Getenv(key); val != "" {
		*dst = val
	}
}

func setInt(dst *int, key string) {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*dst = n
		}
	}
}

// Validate checks if the configuration is valid and fills defaults
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.GRPCPort == 0 {
		c.Server.GRPCPort = c.Server.Port + 1
	}
	if c.Server.GRPCPort < 0 || c.Server.GRPCPort > 65535 || c.Server.GRPCPort == c.Server.Port {
		return fmt.Errorf("invalid grpc port: %d", c.Server.GRPCPort)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 20
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}
	if c.JWT.AccessTokenExpiry == 0 {
		c.JWT.AccessTokenExpiry = 60
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis address is required when redis is enabled")
	}
	if c.Redis.IdempotencyTTLMinutes == 0 {
		c.Redis.IdempotencyTTLMinutes = 24 * 60
	}

	if c.Storage.Type == "" {
		c.Storage.Type = "local"
	}
	if c.Storage.UploadDir == "" {
		return fmt.Errorf("upload directory is required")
	}
	if c.Storage.MaxFileSize == 0 {
		c.Storage.MaxFileSize = 5
	}
	if len(c.Storage.AllowedTypes) == 0 {
		c.Storage.AllowedTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}
	}

	if c.Wallet.MaxTopup == "" {
		c.Wallet.MaxTopup = "100000"
	}
	maxTopup, err := decimal.NewFromString(c.Wallet.MaxTopup)
	if err != nil || !maxTopup.IsPositive() {
		return fmt.Errorf("invalid wallet max_topup: %q", c.Wallet.MaxTopup)
	}
	if c.Wallet.RecentTransactions <= 0 {
		c.Wallet.RecentTransactions = 10
	}
	if c.Wallet.Currency == "" {
		c.Wallet.Currency = "PKR"
	}

	if c.Scheduler.ReconcileWallets == "" {
		c.Scheduler.ReconcileWallets = "0 0 1 * * *" // 1 AM UTC
	}
	if c.Scheduler.ReportOverdueBookings == "" {
		c.Scheduler.ReportOverdueBookings = "0 0 8 * * *" // 8 AM UTC
	}

	return nil
}

// MaxTopupAmount returns the parsed topup ceiling. Validate must have succeeded.
func (c *Config) MaxTopupAmount() decimal.Decimal {
	return decimal.RequireFromString(c.Wallet.MaxTopup)
}

// IdempotencyTTL returns how long a stored response is replayed.
func (c *Config) IdempotencyTTL() time.Duration {
	return time.Duration(c.Redis.IdempotencyTTLMinutes) * time.Minute
}

// AccessTokenTTL returns the lifetime of generated access tokens.
func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.JWT.AccessTokenExpiry) * time.Minute
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetGRPCAddress returns the health/reflection gRPC address
func (c *Config) GetGRPCAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.GRPCPort)
}
