package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/ShafahmadxX69/Dashioh/internal"
	"github.com/ShafahmadxX69/Dashioh/internal/config"
	"github.com/ShafahmadxX69/Dashioh/internal/connectors"
	xlsxconnector "github.com/ShafahmadxX69/Dashioh/internal/connectors/xlsx"
	"github.com/ShafahmadxX69/Dashioh/internal/logging"
	"github.com/ShafahmadxX69/Dashioh/internal/pipeline"
	"github.com/ShafahmadxX69/Dashioh/internal/poller"
	"github.com/ShafahmadxX69/Dashioh/internal/server"
	"github.com/ShafahmadxX69/Dashioh/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)
	logging.Setup(cfg.LogLevel)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	var db *storage.DB
	if needsDB(cmd) {
		db, err = storage.Open(cfg.DBPath)
		must(err)
		defer db.Close()
	}

	loc := cfg.Location()
	now := func() time.Time { return time.Now().In(loc) }

	switch cmd {
	case "refresh":
		svc, _ := newRefresh(cfg, db, now)
		res, err := svc.Refresh(context.Background())
		must(err)
		printRun(res.Run)
	case "summary":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		var brands stringList
		fs.Var(&brands, "brand", "brand to include (repeatable)")
		query := fs.String("q", "", "free text search")
		rng := fs.String("range", "", "1D|1W|1M|1Y")
		_ = fs.Parse(os.Args[2:])

		svc, state := newRefresh(cfg, db, now)
		_, err := svc.Refresh(context.Background())
		must(err)
		records, _ := state.Snapshot()
		spec := internal.Filter{Brands: brands, Query: *query, Range: pipeline.ParseRange(*rng)}
		printSummary(pipeline.Summarize(pipeline.Filter(records, spec, now()), now()))
	case "export:xlsx":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		var brands stringList
		fs.Var(&brands, "brand", "brand to include (repeatable)")
		query := fs.String("q", "", "free text search")
		rng := fs.String("range", "", "1D|1W|1M|1Y")
		out := fs.String("out", "", "output xlsx path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*out) == "" {
			*out = filepath.Join(cfg.OutputDir, "dashboard-"+now().Format("20060102")+".xlsx")
		}

		svc, state := newRefresh(cfg, db, now)
		_, err := svc.Refresh(context.Background())
		must(err)
		records, _ := state.Snapshot()
		spec := internal.Filter{Brands: brands, Query: *query, Range: pipeline.ParseRange(*rng)}
		filtered := pipeline.Filter(records, spec, now())
		must(pipeline.ExportRecordsToXLSX(filtered, pipeline.Summarize(filtered, now()), *out))
		fmt.Printf("exported %d records to %s\n", len(filtered), *out)
	case "serve":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		addr := fs.String("addr", cfg.HTTPAddr, "listen address")
		_ = fs.Parse(os.Args[2:])
		must(serve(cfg, db, now, *addr))
	case "runs":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		limit := fs.Int("limit", 20, "number of runs")
		_ = fs.Parse(os.Args[2:])
		runs, err := db.ListRuns(*limit)
		must(err)
		for _, run := range runs {
			printRun(run)
		}
	case "run":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		primary := fs.String("primary", "", "production workbook, path.xlsx[:Sheet]")
		schedule := fs.String("schedule", "", "export schedule workbook, path.xlsx[:Sheet]")
		erp := fs.String("erp", "", "ERP workbook, path.xlsx[:Sheet]")
		out := fs.String("out", "", "output xlsx path")
		_ = fs.Parse(os.Args[2:])
		if *primary == "" && *schedule == "" && *erp == "" {
			must(fmt.Errorf("at least one of --primary --schedule --erp is required"))
		}

		tables := make([]internal.RawTable, 3)
		for i, spec := range []string{*primary, *schedule, *erp} {
			if strings.TrimSpace(spec) == "" {
				continue
			}
			path, sheet := xlsxconnector.SplitSpec(spec)
			tables[i], err = xlsxconnector.ReadSheet(path, sheet)
			must(err)
		}
		records := pipeline.BuildTable(tables[0], tables[1], tables[2])
		summary := pipeline.Summarize(records, now())
		printSummary(summary)
		if strings.TrimSpace(*out) != "" {
			must(pipeline.ExportRecordsToXLSX(records, summary, *out))
			fmt.Printf("run done records=%d output=%s\n", len(records), *out)
		}
	default:
		usage()
		os.Exit(1)
	}
}

// needsDB reports whether cmd records or reads refresh runs. Offline runs
// over local workbooks never touch the database.
func needsDB(cmd string) bool {
	switch cmd {
	case "refresh", "summary", "export:xlsx", "serve", "runs":
		return true
	}
	return false
}

func newRefresh(cfg config.Config, db *storage.DB, now func() time.Time) (*pipeline.RefreshService, *pipeline.State) {
	source, err := connectors.MakeSource(context.Background(), cfg)
	must(err)
	fetch := connectors.NewFetchService(source, cfg.FetchTimeout())
	state := pipeline.NewState()
	sources := pipeline.Sources{Primary: cfg.GIDIn, Schedule: cfg.GIDExpSched, Erp: cfg.GIDErp}
	return pipeline.NewRefreshService(fetch, sources, state, db, now), state
}

func serve(cfg config.Config, db *storage.DB, now func() time.Time, addr string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, state := newRefresh(cfg, db, now)
	go func() {
		_ = poller.NewService(svc, time.Duration(cfg.RefreshIntervalSec)*time.Second).Run(ctx)
	}()

	handler := server.NewHandler(state, svc, db, now, cfg.TableRowLimit)
	srv := &http.Server{
		Addr:              addr,
		Handler:           server.NewRouter(handler, cfg.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("dashboard listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func printSummary(s internal.Summary) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	top := "-"
	if s.TopBrand != nil {
		top = *s.TopBrand
	}
	bold.Println("Dashboard summary")
	fmt.Printf("  records:      %d\n", s.RecordCount)
	fmt.Printf("  today total:  %s\n", green.Sprintf("%g", s.TodayTotal))
	fmt.Printf("  period total: %s\n", green.Sprintf("%g", s.PeriodTotal))
	fmt.Printf("  rework:       %g (%s)\n", s.ReworkTotal, yellow.Sprintf("%.2f%%", s.ReworkRate))
	fmt.Printf("  top brand:    %s\n", bold.Sprint(top))
}

func printRun(run internal.RefreshRun) {
	status := color.New(color.FgGreen).Sprint(run.Status)
	if run.Status != "ok" {
		status = color.New(color.FgRed).Sprint(run.Status)
	}
	fmt.Printf("run %s %s status=%s records=%d ms=%.0f\n", run.ID, run.StartedAt, status, run.Records, run.TotalMs)
	for _, src := range run.Sources {
		line := fmt.Sprintf("  %-8s id=%s status=%s rows=%d", src.Kind, src.SourceID, src.Status, src.Rows)
		if src.Error != "" {
			line += " err=" + src.Error
		}
		fmt.Println(line)
	}
}

type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func usage() {
	fmt.Println("usage: dashioh <command>")
	fmt.Println("commands:")
	fmt.Println("  refresh")
	fmt.Println("  summary [--brand=A --brand=B] [--q=text] [--range=1D|1W|1M|1Y]")
	fmt.Println("  export:xlsx [--brand=A] [--q=text] [--range=1W] [--out=./out/dashboard.xlsx]")
	fmt.Println("  serve [--addr=:8080]")
	fmt.Println("  runs [--limit=20]")
	fmt.Println("  run --primary=in.xlsx[:Sheet] [--schedule=...] [--erp=...] [--out=...xlsx]")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
