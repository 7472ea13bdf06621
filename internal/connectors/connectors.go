package connectors

import (
	"context"
	"fmt"

	"github.com/ShafahmadxX69/Dashioh/internal"
	"github.com/ShafahmadxX69/Dashioh/internal/config"
	"github.com/ShafahmadxX69/Dashioh/internal/connectors/gviz"
	sheetsconnector "github.com/ShafahmadxX69/Dashioh/internal/connectors/sheets"
	xlsxconnector "github.com/ShafahmadxX69/Dashioh/internal/connectors/xlsx"
)

// TableSource fetches one sheet of a spreadsheet as a raw table.
type TableSource interface {
	FetchTable(ctx context.Context, sourceID string) (internal.RawTable, error)
}

// MakeSource builds the backend selected by SOURCE_BACKEND.
func MakeSource(ctx context.Context, cfg config.Config) (TableSource, error) {
	switch cfg.SourceBackend {
	case config.BackendGViz, "":
		return gviz.NewClient(cfg), nil
	case config.BackendSheets:
		return sheetsconnector.NewConnector(ctx, cfg)
	case config.BackendXLSX:
		return xlsxconnector.NewConnector(cfg.SpreadsheetID)
	default:
		return nil, fmt.Errorf("unsupported source backend: %s", cfg.SourceBackend)
	}
}
