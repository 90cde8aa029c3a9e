package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
server:
  port: 8080
database:
  host: localhost
  user: lendahand
  database: lendahand
jwt:
  secret: "0123456789abcdef0123456789abcdef"
storage:
  upload_dir: ./uploads
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.GRPCPort)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.True(t, decimal.NewFromInt(100000).Equal(cfg.MaxTopupAmount()))
	assert.Equal(t, int32(10), cfg.Wallet.RecentTransactions)
	assert.Equal(t, "local", cfg.Storage.Type)
	assert.Equal(t, int64(5), cfg.Storage.MaxFileSize)
	assert.False(t, cfg.Booking.ReclaimEarningOnReturn)
	assert.Equal(t, "0 0 1 * * *", cfg.Scheduler.ReconcileWallets)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("WALLET_MAX_TOPUP", "500")
	t.Setenv("BOOKING_RECLAIM_EARNING_ON_RETURN", "true")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_ADDR", "cache:6379")

	cfg, err := Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.True(t, decimal.NewFromInt(500).Equal(cfg.MaxTopupAmount()))
	assert.True(t, cfg.Booking.ReclaimEarningOnReturn)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: 8080},
			Database: DatabaseConfig{Host: "h", User: "u", Database: "d"},
			JWT:      JWTConfig{Secret: "0123456789abcdef0123456789abcdef"},
			Storage:  StorageConfig{UploadDir: "./uploads"},
		}
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{"Short secret", func(c *Config) { c.JWT.Secret = "short" }, "at least 32"},
		{"Bad port", func(c *Config) { c.Server.Port = 70000 }, "invalid server port"},
		{"Same ports", func(c *Config) { c.Server.GRPCPort = 8080 }, "invalid grpc port"},
		{"Redis without address", func(c *Config) { c.Redis.Enabled = true }, "redis address"},
		{"Negative topup ceiling", func(c *Config) { c.Wallet.MaxTopup = "-1" }, "max_topup"},
		{"Missing upload dir", func(c *Config) { c.Storage.UploadDir = "" }, "upload directory"},
	}

	require.NoError(t, valid().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.ErrorContains(t, c.Validate(), tt.errMsg)
		})
	}
}

func TestGetSecurityLevel(t *testing.T) {
	assert.Equal(t, SecurityPublic, GetSecurityLevel("GET", "/healthz"))
	assert.Equal(t, SecurityPublic, GetSecurityLevel("GET", "/bookings/active-items"))
	assert.Equal(t, SecurityAccess, GetSecurityLevel("PATCH", "/bookings/{id}"))
	assert.Equal(t, SecurityAccess, GetSecurityLevel("GET", "/unknown"))
}
