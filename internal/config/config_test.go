package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnvConfig_Defaults(t *testing.T) {
	t.Setenv("APP_PORT", "")
	t.Setenv("DB_PORT", "")
	t.Setenv("REPORT_MAX_COLUMN_WIDTH", "")

	require.NoError(t, LoadEnvConfig(filepath.Join(t.TempDir(), "missing.env")))

	assert.Equal(t, "8080", DefaultEnvConfig.APP_PORT)
	assert.Equal(t, 5432, DefaultEnvConfig.DB_PORT)
	assert.Equal(t, 20*time.Minute, DefaultEnvConfig.DB_CONN_MAX_LIFETIME)
	assert.Equal(t, 50.0, DefaultEnvConfig.REPORT_MAX_COLUMN_WIDTH)
	assert.Equal(t, int64(32<<20), DefaultEnvConfig.UPLOAD_MAX_BYTES)
}

func TestLoadEnvConfig_FromFile(t *testing.T) {
	for _, key := range []string{"APP_PORT", "DB_CONN_MAX_LIFETIME", "REPORT_MAX_COLUMN_WIDTH", "REPORT_DATE_FORMAT"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	path := filepath.Join(t.TempDir(), "test.env")
	content := "APP_PORT=9090\nDB_CONN_MAX_LIFETIME=30\nREPORT_MAX_COLUMN_WIDTH=72.5\nREPORT_DATE_FORMAT=2006-01-02\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	require.NoError(t, LoadEnvConfig(path))

	assert.Equal(t, "9090", DefaultEnvConfig.APP_PORT)
	assert.Equal(t, 30*time.Second, DefaultEnvConfig.DB_CONN_MAX_LIFETIME)
	assert.Equal(t, 72.5, DefaultEnvConfig.REPORT_MAX_COLUMN_WIDTH)
	assert.Equal(t, "2006-01-02", DefaultEnvConfig.REPORT_DATE_FORMAT)
}

func TestGetEnvHelpers_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("TEST_INT", "abc")
	t.Setenv("TEST_FLOAT", "x1")
	t.Setenv("TEST_DURATION", "soon")

	assert.Equal(t, 7, getEnvInt("TEST_INT", 7))
	assert.Equal(t, 1.5, getEnvFloat("TEST_FLOAT", 1.5))
	assert.Equal(t, time.Second, getEnvDuration("TEST_DURATION", time.Second))
	assert.Equal(t, "fallback", getEnvString("TEST_UNSET_STRING", "fallback"))
}
