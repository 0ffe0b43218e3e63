package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "pgx", cfg.Database.Driver)
	assert.Equal(t, 5*time.Second, cfg.Database.QueryTimeout)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "v19.0", cfg.LeadForms.APIVersion)
	assert.Equal(t, 15*time.Second, cfg.LeadForms.RequestTimeout)
	assert.Zero(t, cfg.LeadForms.SyncInterval)
	assert.Equal(t, "sales", cfg.Assignment.Role)
	assert.Equal(t, int64(10<<20), cfg.Upload.MaxBytes)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
database:
  driver: postgres
  url: postgres://localhost/leads
leadforms:
  page_ids: [p1, p2]
  sync_interval: 5m
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://localhost/leads", cfg.Database.URL)
	assert.Equal(t, []string{"p1", "p2"}, cfg.LeadForms.PageIDs)
	assert.Equal(t, 5*time.Minute, cfg.LeadForms.SyncInterval)
	assert.Equal(t, "debug", cfg.Log.Level)
	// defaults still apply for unset values
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
database:
  url: postgres://file/leads
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("LEADS_DATABASE_URL", "postgres://env/leads")
	t.Setenv("LEADS_ASSIGNMENT_ROLE", "closer")
	t.Setenv("LEADS_LEADFORMS_PAGE_IDS", "a,b")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://env/leads", cfg.Database.URL)
	assert.Equal(t, "closer", cfg.Assignment.Role)
	assert.Equal(t, []string{"a", "b"}, cfg.LeadForms.PageIDs)
}

func validConfig(t *testing.T) *Config {
	t.Helper()
	chdirTemp(t)
	cfg, err := Load()
	require.NoError(t, err)
	cfg.Database.URL = "postgres://localhost/leads"
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults with url", func(*Config) {}, ""},
		{"missing url", func(c *Config) { c.Database.URL = "" }, "database.url"},
		{"bad driver", func(c *Config) { c.Database.Driver = "sqlite" }, "database.driver"},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"zero upload", func(c *Config) { c.Upload.MaxBytes = 0 }, "upload.max_bytes"},
		{"sync without token", func(c *Config) {
			c.LeadForms.SyncInterval = time.Minute
			c.LeadForms.PageIDs = []string{"p1"}
		}, "leadforms.sync_interval"},
		{"sync configured", func(c *Config) {
			c.LeadForms.SyncInterval = time.Minute
			c.LeadForms.PageIDs = []string{"p1"}
			c.LeadForms.AccessToken = "tok"
		}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.NotNil(t, zap.L())
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))
	assert.Error(t, InitLogger(LogConfig{Level: "invalid", Format: "json"}))
}
