package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendGViz   = "gviz"
	BackendSheets = "sheets"
	BackendXLSX   = "xlsx"

	FormatJSON = "json"
	FormatHTML = "html"
)

type Config struct {
	DBPath    string
	OutputDir string

	SpreadsheetID  string
	GIDIn          string
	GIDExpSched    string
	GIDErp         string
	SourceBackend  string
	GVizBaseURL    string
	GVizFormat     string
	SheetsAPIKey   string
	FetchTimeoutMs int
	FetchRateRPS   int
	FetchAttempts  int

	HTTPAddr           string
	CORSOrigins        []string
	RefreshIntervalSec int
	TableRowLimit      int
	Timezone           string

	LogLevel string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:    getEnv("DB_PATH", filepath.Join(cwd, "data", "dashioh.db")),
		OutputDir: getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),

		SpreadsheetID:  getEnv("SPREADSHEET_ID", ""),
		GIDIn:          getEnv("GID_IN", ""),
		GIDExpSched:    getEnv("GID_EXPSCHED", ""),
		GIDErp:         getEnv("GID_ERP", ""),
		SourceBackend:  strings.ToLower(strings.TrimSpace(getEnv("SOURCE_BACKEND", BackendGViz))),
		GVizBaseURL:    getEnv("GVIZ_BASE_URL", "https://docs.google.com/spreadsheets/d"),
		GVizFormat:     strings.ToLower(strings.TrimSpace(getEnv("GVIZ_FORMAT", FormatJSON))),
		SheetsAPIKey:   getEnv("SHEETS_API_KEY", ""),
		FetchTimeoutMs: getEnvInt("FETCH_TIMEOUT_MS", 15000),
		FetchRateRPS:   getEnvInt("FETCH_RATE_LIMIT_RPS", 5),
		FetchAttempts:  getEnvInt("FETCH_ATTEMPTS", 5),

		HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
		CORSOrigins:        getEnvList("CORS_ORIGINS", []string{"http://localhost:5173", "http://localhost:8080"}),
		RefreshIntervalSec: getEnvInt("REFRESH_INTERVAL_SEC", 300),
		TableRowLimit:      getEnvInt("TABLE_ROW_LIMIT", 200),
		Timezone:           getEnv("DASHBOARD_TZ", "Local"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

// Location resolves DASHBOARD_TZ, falling back to the local zone.
func (c Config) Location() *time.Location {
	name := strings.TrimSpace(c.Timezone)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.Local
	}
	return loc
}

func (c Config) FetchTimeout() time.Duration {
	if c.FetchTimeoutMs <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.FetchTimeoutMs) * time.Millisecond
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := strings.TrimSpace(getEnv(key, ""))
	if value == "" {
		return fallback
	}
	out := []string{}
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
