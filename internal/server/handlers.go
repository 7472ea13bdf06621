package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ShafahmadxX69/Dashioh/internal"
	"github.com/ShafahmadxX69/Dashioh/internal/pipeline"
)

type Refresher interface {
	Refresh(ctx context.Context) (pipeline.RefreshResult, error)
}

type RunStore interface {
	ListRuns(limit int) ([]internal.RefreshRun, error)
}

// Handler serves read-only views of the dashboard state plus a manual
// refresh trigger.
type Handler struct {
	state     *pipeline.State
	refresher Refresher
	runs      RunStore
	now       func() time.Time
	rowLimit  int
}

func NewHandler(state *pipeline.State, refresher Refresher, runs RunStore, now func() time.Time, rowLimit int) *Handler {
	if now == nil {
		now = time.Now
	}
	return &Handler{state: state, refresher: refresher, runs: runs, now: now, rowLimit: rowLimit}
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type healthResponse struct {
	Status      string     `json:"status"`
	Records     int        `json:"records"`
	RefreshedAt *time.Time `json:"refreshedAt,omitempty"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	records, at := h.state.Snapshot()
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Records: len(records), RefreshedAt: timePtr(at)})
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	records, at := h.state.Snapshot()
	d := pipeline.BuildDashboard(records, parseFilter(r), h.now(), h.rowLimit)
	d.RefreshedAt = timePtr(at)
	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) Brands(w http.ResponseWriter, r *http.Request) {
	records, _ := h.state.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{"brands": pipeline.Brands(records)})
}

func (h *Handler) Records(w http.ResponseWriter, r *http.Request) {
	records, _ := h.state.Snapshot()
	filtered := pipeline.Filter(records, parseFilter(r), h.now())
	writeJSON(w, http.StatusOK, map[string]any{"count": len(filtered), "records": filtered})
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	res, err := h.refresher.Refresh(r.Context())
	switch {
	case errors.Is(err, pipeline.ErrRefreshInProgress):
		writeError(w, http.StatusConflict, "refresh already in progress", nil)
	case errors.Is(err, pipeline.ErrAllSourcesFailed):
		writeError(w, http.StatusBadGateway, "all sources failed, keeping previous data", errors.New(res.Run.Error))
	case err != nil:
		writeError(w, http.StatusInternalServerError, "refresh failed", err)
	default:
		writeJSON(w, http.StatusOK, res.Run)
	}
}

func (h *Handler) Runs(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		writeJSON(w, http.StatusOK, map[string]any{"runs": []internal.RefreshRun{}})
		return
	}
	limit := 20
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit", err)
			return
		}
		limit = n
	}
	runs, err := h.runs.ListRuns(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list runs", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (h *Handler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	records, _ := h.state.Snapshot()
	now := h.now()
	filtered := pipeline.Filter(records, parseFilter(r), now)

	var buf bytes.Buffer
	if err := pipeline.WriteRecordsXLSX(&buf, filtered, pipeline.Summarize(filtered, now)); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build workbook", err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="dashboard-`+now.Format("20060102")+`.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// parseFilter reads brand (repeatable or comma separated), q and range.
func parseFilter(r *http.Request) internal.Filter {
	q := r.URL.Query()
	brands := []string{}
	for _, raw := range append(q["brand"], q["brands"]...) {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brands = append(brands, b)
			}
		}
	}
	return internal.Filter{
		Brands: brands,
		Query:  q.Get("q"),
		Range:  pipeline.ParseRange(q.Get("range")),
	}
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
