package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShafahmadxX69/Dashioh/internal"
)

type fakeFetcher struct {
	mu      sync.Mutex
	tables  map[internal.SourceKind]internal.RawTable
	fail    map[internal.SourceKind]bool
	started chan struct{}
	release chan struct{}
}

func (f *fakeFetcher) FetchWithStatus(ctx context.Context, kind internal.SourceKind, id string) (internal.RawTable, internal.SourceReport) {
	if f.started != nil && kind == internal.SourcePrimary {
		f.started <- struct{}{}
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	report := internal.SourceReport{Kind: kind, SourceID: id}
	if id == "" {
		report.Status = internal.StatusSkipped
		return internal.RawTable{}, report
	}
	if f.fail[kind] {
		report.Status = internal.StatusFailed
		report.Error = "unreachable"
		return internal.RawTable{}, report
	}
	tbl := f.tables[kind]
	report.Status = internal.StatusOK
	report.Rows = tbl.Len()
	return tbl, report
}

type memRunLog struct {
	mu   sync.Mutex
	runs []internal.RefreshRun
	meta map[string]string
}

func (m *memRunLog) InsertRun(run internal.RefreshRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return nil
}

func (m *memRunLog) SetMetadata(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.meta == nil {
		m.meta = map[string]string{}
	}
	m.meta[key] = value
	return nil
}

func primaryTable() internal.RawTable {
	return internal.RawTable{
		Columns: []string{"Date", "Customer", "PART. NO.", "Qty"},
		Rows: [][]internal.Value{
			{internal.StringValue("2024-01-15"), internal.StringValue("A"), internal.StringValue("PA"), internal.NumberValue(10)},
			{internal.StringValue("2024-01-15"), internal.StringValue("B"), internal.StringValue("PB"), internal.NumberValue(5)},
		},
	}
}

func newTestRefresh(f *fakeFetcher, runs *memRunLog) (*RefreshService, *State) {
	state := NewState()
	svc := NewRefreshService(f, Sources{Primary: "0", Schedule: "1", Erp: "2"}, state, runs, func() time.Time { return testNow })
	return svc, state
}

func TestRefreshReplacesTable(t *testing.T) {
	f := &fakeFetcher{tables: map[internal.SourceKind]internal.RawTable{
		internal.SourcePrimary: primaryTable(),
		internal.SourceSchedule: {
			Columns: []string{"PartNo", "Vessel"},
			Rows:    [][]internal.Value{{internal.StringValue("PA"), internal.StringValue("MV X")}},
		},
	}}
	runs := &memRunLog{}
	svc, state := newTestRefresh(f, runs)

	res, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Records)
	assert.Equal(t, "ok", res.Run.Status)
	assert.NotEmpty(t, res.Run.ID)
	require.Len(t, res.Run.Sources, 3)

	records, at := state.Snapshot()
	require.Len(t, records, 2)
	assert.Equal(t, testNow, at)
	assert.Equal(t, internal.StringValue("MV X"), records[0].ScheduleAttrs["Vessel"])

	require.Len(t, runs.runs, 1)
	assert.Contains(t, runs.meta, LastRefreshKey)
}

func TestRefreshPartialFailure(t *testing.T) {
	f := &fakeFetcher{
		tables: map[internal.SourceKind]internal.RawTable{internal.SourcePrimary: primaryTable()},
		fail:   map[internal.SourceKind]bool{internal.SourceErp: true},
	}
	svc, state := newTestRefresh(f, &memRunLog{})

	res, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "partial", res.Run.Status)
	assert.Contains(t, res.Run.Error, "erp")

	records, _ := state.Snapshot()
	assert.Len(t, records, 2)
}

func TestRefreshKeepsTableWhenAllSourcesFail(t *testing.T) {
	f := &fakeFetcher{tables: map[internal.SourceKind]internal.RawTable{internal.SourcePrimary: primaryTable()}}
	runs := &memRunLog{}
	svc, state := newTestRefresh(f, runs)

	_, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	f.mu.Lock()
	f.fail = map[internal.SourceKind]bool{
		internal.SourcePrimary:  true,
		internal.SourceSchedule: true,
		internal.SourceErp:      true,
	}
	f.mu.Unlock()

	res, err := svc.Refresh(context.Background())
	assert.True(t, errors.Is(err, ErrAllSourcesFailed))
	assert.Equal(t, "failed", res.Run.Status)

	records, _ := state.Snapshot()
	assert.Len(t, records, 2)
	require.Len(t, runs.runs, 2)
	assert.Equal(t, "failed", runs.runs[1].Status)
}

func TestRefreshWithNoConfiguredSources(t *testing.T) {
	state := NewState()
	svc := NewRefreshService(&fakeFetcher{}, Sources{}, state, nil, func() time.Time { return testNow })

	res, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Records)

	records, at := state.Snapshot()
	assert.Empty(t, records)
	assert.Equal(t, testNow, at)
}

func TestRefreshIsSerialized(t *testing.T) {
	f := &fakeFetcher{
		tables:  map[internal.SourceKind]internal.RawTable{internal.SourcePrimary: primaryTable()},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	svc, _ := newTestRefresh(f, &memRunLog{})

	done := make(chan error, 1)
	go func() {
		_, err := svc.Refresh(context.Background())
		done <- err
	}()

	<-f.started
	_, err := svc.Refresh(context.Background())
	assert.True(t, errors.Is(err, ErrRefreshInProgress))

	close(f.release)
	require.NoError(t, <-done)

	// The lock is free again once the first refresh is done.
	f.started = nil
	_, err = svc.Refresh(context.Background())
	assert.NoError(t, err)
}
