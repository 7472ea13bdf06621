package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadReadsEnv(t *testing.T) {
	t.Setenv("SPREADSHEET_ID", "sheet-1")
	t.Setenv("GID_IN", "1100244896")
	t.Setenv("SOURCE_BACKEND", " XLSX ")
	t.Setenv("FETCH_TIMEOUT_MS", "not-a-number")
	t.Setenv("CORS_ORIGINS", "http://a.test, ,http://b.test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sheet-1", cfg.SpreadsheetID)
	assert.Equal(t, "1100244896", cfg.GIDIn)
	assert.Equal(t, BackendXLSX, cfg.SourceBackend)
	assert.Equal(t, 15000, cfg.FetchTimeoutMs)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
}

func TestLocationFallsBackToLocal(t *testing.T) {
	assert.Equal(t, time.Local, Config{Timezone: "Nowhere/Atlantis"}.Location())
	assert.Equal(t, time.UTC, Config{Timezone: "UTC"}.Location())
}

func TestRequire(t *testing.T) {
	assert.Error(t, Config{}.Require("SPREADSHEET_ID", "  "))
	assert.NoError(t, Config{}.Require("SPREADSHEET_ID", "x"))
}
