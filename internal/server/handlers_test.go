package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ShafahmadxX69/Dashioh/internal"
	"github.com/ShafahmadxX69/Dashioh/internal/pipeline"
)

var testNow = time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

type stubRefresher struct {
	res pipeline.RefreshResult
	err error
}

func (s stubRefresher) Refresh(ctx context.Context) (pipeline.RefreshResult, error) {
	return s.res, s.err
}

type stubRuns struct {
	runs      []internal.RefreshRun
	lastLimit int
}

func (s *stubRuns) ListRuns(limit int) ([]internal.RefreshRun, error) {
	s.lastLimit = limit
	return s.runs, nil
}

func testRecords() []internal.CanonicalRecord {
	return pipeline.BuildTable(internal.RawTable{
		Columns: []string{"Date", "Customer", "PART. NO.", "Qty", "Rework"},
		Rows: [][]internal.Value{
			{internal.StringValue("2024-01-15"), internal.StringValue("A"), internal.StringValue("PA"), internal.NumberValue(10), internal.NumberValue(1)},
			{internal.StringValue("2024-01-15"), internal.StringValue("B"), internal.StringValue("PB"), internal.NumberValue(5), internal.NumberValue(0)},
			{internal.StringValue("2023-06-01"), internal.StringValue("C"), internal.StringValue("PC"), internal.NumberValue(7), internal.NumberValue(0)},
		},
	}, internal.RawTable{}, internal.RawTable{})
}

func newTestServer(t *testing.T, refresher Refresher, runs RunStore) http.Handler {
	t.Helper()
	state := pipeline.NewState()
	state.Replace(testRecords(), testNow)
	h := NewHandler(state, refresher, runs, func() time.Time { return testNow }, 200)
	return NewRouter(h, []string{"http://localhost:5173"})
}

func do(t *testing.T, srv http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestDashboardEndpoint(t *testing.T) {
	srv := newTestServer(t, stubRefresher{}, nil)

	rec := do(t, srv, http.MethodGet, "/api/dashboard?range=1D")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Summary     internal.Summary `json:"summary"`
		Brands      []string         `json:"brands"`
		Table       []map[string]any `json:"table"`
		RefreshedAt *time.Time       `json:"refreshedAt"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 15.0, body.Summary.PeriodTotal)
	assert.Equal(t, 15.0, body.Summary.TodayTotal)
	require.NotNil(t, body.Summary.TopBrand)
	assert.Equal(t, "A", *body.Summary.TopBrand)
	assert.Equal(t, []string{"A", "B", "C"}, body.Brands)
	assert.Len(t, body.Table, 2)
	require.NotNil(t, body.RefreshedAt)
}

func TestDashboardBrandFilter(t *testing.T) {
	srv := newTestServer(t, stubRefresher{}, nil)

	rec := do(t, srv, http.MethodGet, "/api/records?brand=B&brands=C")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
}

func TestBrandsEndpoint(t *testing.T) {
	srv := newTestServer(t, stubRefresher{}, nil)
	rec := do(t, srv, http.MethodGet, "/api/brands")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"brands":["A","B","C"]}`, rec.Body.String())
}

func TestRefreshEndpointStatuses(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"ok", nil, http.StatusOK},
		{"busy", pipeline.ErrRefreshInProgress, http.StatusConflict},
		{"all failed", pipeline.ErrAllSourcesFailed, http.StatusBadGateway},
		{"other", context.DeadlineExceeded, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := newTestServer(t, stubRefresher{err: tc.err}, nil)
			rec := do(t, srv, http.MethodPost, "/api/refresh")
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestRunsEndpoint(t *testing.T) {
	runs := &stubRuns{runs: []internal.RefreshRun{{ID: "r1", Status: "ok", Sources: []internal.SourceReport{}}}}
	srv := newTestServer(t, stubRefresher{}, runs)

	rec := do(t, srv, http.MethodGet, "/api/runs?limit=5")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, runs.lastLimit)
	assert.Contains(t, rec.Body.String(), `"id":"r1"`)

	rec = do(t, srv, http.MethodGet, "/api/runs?limit=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportEndpoint(t *testing.T) {
	srv := newTestServer(t, stubRefresher{}, nil)

	rec := do(t, srv, http.MethodGet, "/api/export.xlsx?brand=A")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "dashboard-20240115.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Records")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, stubRefresher{}, nil)
	rec := do(t, srv, http.MethodGet, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"records":3`)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, stubRefresher{}, nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/dashboard", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}
