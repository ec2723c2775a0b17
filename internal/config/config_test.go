package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ATTR_API_KEY_MASTER", "test-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "auto", cfg.Report.Schema)
	assert.Equal(t, 10, cfg.Report.TopSources)
	assert.Equal(t, 30, cfg.Report.DefaultRangeDays)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ATTR_API_KEY_MASTER", "test-key")
	t.Setenv("ATTR_ORDER_SCHEMA", "meta")
	t.Setenv("ATTR_REPORT_TOP_SOURCES", "5")
	t.Setenv("ATTR_NONCE_TTL", "30m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "meta", cfg.Report.Schema)
	assert.Equal(t, 5, cfg.Report.TopSources)
	assert.Equal(t, 30*time.Minute, cfg.Auth.NonceTTL)
}

func TestLoadRequiresMasterKey(t *testing.T) {
	t.Setenv("ATTR_API_KEY_MASTER", "")
	t.Setenv("ATTR_AUTH_ENABLED", "true")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsUnknownSchema(t *testing.T) {
	t.Setenv("ATTR_API_KEY_MASTER", "test-key")
	t.Setenv("ATTR_ORDER_SCHEMA", "sqlite")

	_, err := Load()
	assert.Error(t, err)
}
