package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("APP_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.env"))

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "http://127.0.0.1:8000", cfg.BackendURL)
	assert.Equal(t, time.Duration(0), cfg.BackendTimeout)
	assert.Equal(t, "none", cfg.ActivityStore)
	assert.Equal(t, 120, cfg.HealthHistoryMaxPoints)
}

func TestFromEnv_TrimsBackendURL(t *testing.T) {
	t.Setenv("APP_BACKEND_URL", " http://api.internal:9000/ ")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "http://api.internal:9000", cfg.BackendURL)
}

func TestFromEnv_RejectsUnknownActivityStore(t *testing.T) {
	t.Setenv("APP_ACTIVITY_STORE", "postgres")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "APP_ACTIVITY_STORE")
}

func TestApplyEnvDefaultsFromFile_DoesNotOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.env")
	content := strings.Join([]string{
		"# comment",
		"APP_TEST_FROM_FILE='file-value'",
		"APP_TEST_ALREADY_SET=file-value",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("APP_TEST_ALREADY_SET", "env-value")
	t.Setenv("APP_TEST_FROM_FILE", "")

	require.NoError(t, applyEnvDefaultsFromFile(path))
	assert.Equal(t, "file-value", os.Getenv("APP_TEST_FROM_FILE"))
	assert.Equal(t, "env-value", os.Getenv("APP_TEST_ALREADY_SET"))
}

func TestMySQLDSN(t *testing.T) {
	cfg := Config{
		DBHost:         "db.local",
		DBPort:         3307,
		DBUser:         "dash",
		DBPassword:     "secret",
		DBName:         "trends",
		DBConnTimeout:  5 * time.Second,
		DBQueryTimeout: 10 * time.Second,
	}

	dsn := cfg.MySQLDSN()
	assert.True(t, strings.HasPrefix(dsn, "dash:secret@tcp(db.local:3307)/trends?"), dsn)
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")
}
