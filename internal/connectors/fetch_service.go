package connectors

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/ShafahmadxX69/Dashioh/internal"
)

var placeholderIDs = map[string]struct{}{
	"-":             {},
	"none":          {},
	"todo":          {},
	"changeme":      {},
	"your_gid":      {},
	"your_gid_here": {},
	"<gid>":         {},
	"xxx":           {},
}

// IsPlaceholder reports whether a source id is empty or an unfilled
// template value, in which case it is never fetched.
func IsPlaceholder(id string) bool {
	id = strings.ToLower(strings.TrimSpace(id))
	if id == "" {
		return true
	}
	_, ok := placeholderIDs[id]
	return ok
}

// FetchService wraps a TableSource so that a failed or skipped source
// degrades to an empty table instead of an error.
type FetchService struct {
	source  TableSource
	timeout time.Duration
	logger  *slog.Logger
}

func NewFetchService(source TableSource, timeout time.Duration) *FetchService {
	return &FetchService{source: source, timeout: timeout, logger: slog.Default()}
}

func emptyTable() internal.RawTable {
	return internal.RawTable{Columns: []string{}, Rows: [][]internal.Value{}}
}

// Fetch returns the sheet or an empty table.
func (s *FetchService) Fetch(ctx context.Context, sourceID string) internal.RawTable {
	tbl, _ := s.FetchWithStatus(ctx, "", sourceID)
	return tbl
}

// FetchWithStatus is Fetch plus a report of what happened to the source.
func (s *FetchService) FetchWithStatus(ctx context.Context, kind internal.SourceKind, sourceID string) (internal.RawTable, internal.SourceReport) {
	report := internal.SourceReport{Kind: kind, SourceID: strings.TrimSpace(sourceID)}
	if IsPlaceholder(sourceID) {
		report.Status = internal.StatusSkipped
		return emptyTable(), report
	}

	start := time.Now()
	fetchCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	tbl, err := s.source.FetchTable(fetchCtx, report.SourceID)
	report.DurationMs = float64(time.Since(start).Microseconds()) / 1000
	if err != nil {
		report.Status = internal.StatusFailed
		report.Error = err.Error()
		s.logger.Warn("source fetch failed", "kind", kind, "source", report.SourceID, "err", err)
		return emptyTable(), report
	}
	if tbl.Columns == nil {
		tbl.Columns = []string{}
	}
	if tbl.Rows == nil {
		tbl.Rows = [][]internal.Value{}
	}

	report.Status = internal.StatusOK
	report.Rows = tbl.Len()
	s.logger.Debug("source fetched", "kind", kind, "source", report.SourceID, "rows", report.Rows, "ms", report.DurationMs)
	return tbl, report
}
