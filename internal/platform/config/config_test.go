package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(nil, "")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "memory", cfg.Ledger.Backend)
	assert.Equal(t, "none", cfg.Cache.Backend)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "trustdash.audit", cfg.Audit.Topic)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_Environment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TRUSTDASH_LEDGER_BACKEND", "gateway")
	t.Setenv("TRUSTDASH_LEDGER_GATEWAY_URL", "http://gateway:8081")
	t.Setenv("TRUSTDASH_CACHE_TTL", "2m")
	t.Setenv("TRUSTDASH_AUDIT_BACKEND", "kafka")
	t.Setenv("TRUSTDASH_AUDIT_BROKERS", "k1:9092,k2:9092")

	cfg, err := Load(nil, "")
	require.NoError(t, err)
	assert.Equal(t, "gateway", cfg.Ledger.Backend)
	assert.Equal(t, "http://gateway:8081", cfg.Ledger.GatewayURL)
	assert.Equal(t, 2*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Audit.Brokers)
}

func TestLoad_FileAndFlags(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9000"
ledger:
  backend: postgres
postgres:
  dsn: postgres://localhost/trustdash
log:
  format: json
`), 0o600))

	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("addr", "", "")
	require.NoError(t, cmd.Flags().Set("addr", ":9100"))

	cfg, err := Load(cmd, path)
	require.NoError(t, err)
	assert.Equal(t, ":9100", cfg.Server.Addr, "flags override the file")
	assert.Equal(t, "postgres", cfg.Ledger.Backend)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestValidate(t *testing.T) {
	t.Chdir(t.TempDir())

	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"unknown ledger", map[string]string{"TRUSTDASH_LEDGER_BACKEND": "ipfs"}, "ledger.backend must be one of"},
		{"postgres without dsn", map[string]string{"TRUSTDASH_AUDIT_BACKEND": "postgres"}, "postgres.dsn is required"},
		{"redis cache without url", map[string]string{"TRUSTDASH_CACHE_BACKEND": "redis"}, "redis.url is required"},
		{"regulated with dev key", map[string]string{
			"TRUSTDASH_SERVER_REGULATED":   "true",
			"TRUSTDASH_LEDGER_BACKEND":     "gateway",
			"TRUSTDASH_LEDGER_GATEWAY_URL": "http://gw",
		}, "development signing key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(nil, "")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
