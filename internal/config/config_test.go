package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.True(t, cfg.Admin.LocalOnly)
	assert.False(t, cfg.Admin.RemoteEnabled)
	assert.Equal(t, RateLimitMemory, cfg.RateLimit.Backend)
	assert.Equal(t, RatePolicy{Limit: 60, Window: time.Minute}, cfg.RateLimit.AdminList)
	assert.Equal(t, RatePolicy{Limit: 30, Window: time.Minute}, cfg.RateLimit.AdminConfirm)
	assert.Equal(t, RatePolicy{Limit: 30, Window: time.Minute}, cfg.RateLimit.Distance)
	assert.Equal(t, RatePolicy{Limit: 20, Window: time.Minute}, cfg.RateLimit.Submit)
	assert.Equal(t, 24*time.Hour, cfg.Distance.CacheTTL)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "9000"
  read_timeout: 3s
database:
  driver: sqlite
  sqlite_path: /tmp/rides.db
admin:
  local_only: false
  remote_enabled: true
  api_key: from-file
  ip_allowlist: ["10.0.0.0/8"]
  trusted_proxies: ["172.16.0.0/12"]
rate_limit:
  submit:
    limit: 5
    window: 30s
`), 0o600))

	t.Setenv("ADMIN_API_KEY", "from-env")
	t.Setenv("ADMIN_IP_ALLOWLIST", "1.2.3.4, ,192.168.0.0/16")
	t.Setenv("RATE_LIMIT_SUBMIT_LIMIT", "7")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "/tmp/rides.db", cfg.Database.SQLitePath)
	assert.False(t, cfg.Admin.LocalOnly)
	assert.True(t, cfg.Admin.RemoteEnabled)
	assert.Equal(t, "from-env", cfg.Admin.APIKey)
	assert.Equal(t, []string{"1.2.3.4", "192.168.0.0/16"}, cfg.Admin.IPAllowlist)
	assert.Equal(t, []string{"172.16.0.0/12"}, cfg.Admin.TrustedProxies)
	assert.Equal(t, RatePolicy{Limit: 7, Window: 30 * time.Second}, cfg.RateLimit.Submit)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown driver", map[string]string{"DB_DRIVER": "mysql"}},
		{"redis limiter without redis", map[string]string{"RATE_LIMIT_BACKEND": "redis"}},
		{"unknown limiter", map[string]string{"RATE_LIMIT_BACKEND": "memcached"}},
		{"zero limit", map[string]string{"RATE_LIMIT_DISTANCE_LIMIT": "0"}},
		{"bad trusted proxy", map[string]string{"ADMIN_TRUSTED_PROXIES": "10.0.0.1,not-an-ip"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoad_InvalidEnvValuesFallBack(t *testing.T) {
	t.Setenv("ADMIN_LOCAL_ONLY", "maybe")
	t.Setenv("SERVER_READ_TIMEOUT", "soon")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.Admin.LocalOnly)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
}
