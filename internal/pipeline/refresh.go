package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ShafahmadxX69/Dashioh/internal"
)

const LastRefreshKey = "dashboard.last_refresh"

var (
	ErrRefreshInProgress = errors.New("refresh already in progress")
	ErrAllSourcesFailed  = errors.New("all sources failed")
)

// Fetcher loads one source and reports how it went. It never fails: a
// broken source comes back empty with a failed report.
type Fetcher interface {
	FetchWithStatus(ctx context.Context, kind internal.SourceKind, sourceID string) (internal.RawTable, internal.SourceReport)
}

// RunLog persists refresh bookkeeping. Row data is never stored.
type RunLog interface {
	InsertRun(run internal.RefreshRun) error
	SetMetadata(key, value string) error
}

// Sources are the sheet ids of the three inputs.
type Sources struct {
	Primary  string
	Schedule string
	Erp      string
}

type RefreshResult struct {
	Run     internal.RefreshRun
	Records int
}

type RefreshService struct {
	fetcher Fetcher
	sources Sources
	state   *State
	runs    RunLog
	now     func() time.Time
	logger  *slog.Logger

	mu sync.Mutex
}

func NewRefreshService(fetcher Fetcher, sources Sources, state *State, runs RunLog, now func() time.Time) *RefreshService {
	if now == nil {
		now = time.Now
	}
	return &RefreshService{
		fetcher: fetcher,
		sources: sources,
		state:   state,
		runs:    runs,
		now:     now,
		logger:  slog.Default(),
	}
}

// Refresh fetches all sources in parallel, rebuilds the table and swaps it
// in. Only one refresh runs at a time; a concurrent call returns
// ErrRefreshInProgress. When every configured source failed the previous
// table stays and ErrAllSourcesFailed is returned.
func (s *RefreshService) Refresh(ctx context.Context) (RefreshResult, error) {
	if !s.mu.TryLock() {
		return RefreshResult{}, ErrRefreshInProgress
	}
	defer s.mu.Unlock()

	started := s.now()
	run := internal.RefreshRun{
		ID:        uuid.NewString(),
		StartedAt: started.UTC().Format(time.RFC3339Nano),
	}

	jobs := []struct {
		kind internal.SourceKind
		id   string
	}{
		{internal.SourcePrimary, s.sources.Primary},
		{internal.SourceSchedule, s.sources.Schedule},
		{internal.SourceErp, s.sources.Erp},
	}
	tables := make([]internal.RawTable, len(jobs))
	reports := make([]internal.SourceReport, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(len(jobs))
	for i, job := range jobs {
		g.Go(func() error {
			tables[i], reports[i] = s.fetcher.FetchWithStatus(gctx, job.kind, job.id)
			return nil
		})
	}
	_ = g.Wait()
	run.Sources = reports

	if err := ctx.Err(); err != nil {
		return RefreshResult{}, err
	}

	configured, failed := 0, 0
	failures := []string{}
	for _, r := range reports {
		if r.Status == internal.StatusSkipped {
			continue
		}
		configured++
		if r.Status == internal.StatusFailed {
			failed++
			failures = append(failures, string(r.Kind)+": "+r.Error)
		}
	}

	if configured > 0 && failed == configured {
		run.Status = "failed"
		run.Error = strings.Join(failures, "; ")
		run.TotalMs = msSince(s.now(), started)
		s.record(run)
		s.logger.Error("refresh failed, keeping previous table", "run", run.ID, "err", run.Error)
		return RefreshResult{Run: run}, ErrAllSourcesFailed
	}

	records := BuildTable(tables[0], tables[1], tables[2])
	finished := s.now()
	s.state.Replace(records, finished)

	run.Status = "ok"
	if failed > 0 {
		run.Status = "partial"
		run.Error = strings.Join(failures, "; ")
	}
	run.Records = len(records)
	run.TotalMs = msSince(finished, started)
	s.record(run)
	if s.runs != nil {
		if err := s.runs.SetMetadata(LastRefreshKey, finished.UTC().Format(time.RFC3339Nano)); err != nil {
			s.logger.Warn("store last refresh", "err", err)
		}
	}

	s.logger.Info("refresh done", "run", run.ID, "status", run.Status, "records", run.Records, "ms", run.TotalMs)
	return RefreshResult{Run: run, Records: len(records)}, nil
}

func (s *RefreshService) record(run internal.RefreshRun) {
	if s.runs == nil {
		return
	}
	if err := s.runs.InsertRun(run); err != nil {
		s.logger.Warn("store refresh run", "run", run.ID, "err", err)
	}
}

func msSince(end, start time.Time) float64 {
	return float64(end.Sub(start).Microseconds()) / 1000
}
