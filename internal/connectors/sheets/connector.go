package sheets

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/ShafahmadxX69/Dashioh/internal"
	"github.com/ShafahmadxX69/Dashioh/internal/config"
)

// Connector reads sheets through the Sheets API v4 with an API key, which
// is enough for link-shared spreadsheets.
type Connector struct {
	service       *sheets.Service
	spreadsheetID string
}

func NewConnector(ctx context.Context, cfg config.Config, opts ...option.ClientOption) (*Connector, error) {
	if err := cfg.Require("SPREADSHEET_ID", cfg.SpreadsheetID); err != nil {
		return nil, err
	}
	if len(opts) == 0 {
		if err := cfg.Require("SHEETS_API_KEY", cfg.SheetsAPIKey); err != nil {
			return nil, err
		}
		opts = append(opts, option.WithAPIKey(cfg.SheetsAPIKey))
	}

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &Connector{service: svc, spreadsheetID: strings.TrimSpace(cfg.SpreadsheetID)}, nil
}

// FetchTable reads the whole sheet identified by gid. A non-numeric id is
// taken as the sheet title.
func (c *Connector) FetchTable(ctx context.Context, gid string) (internal.RawTable, error) {
	title, err := c.resolveTitle(ctx, strings.TrimSpace(gid))
	if err != nil {
		return internal.RawTable{}, err
	}

	resp, err := c.service.Spreadsheets.Values.Get(c.spreadsheetID, quoteSheet(title)).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("SERIAL_NUMBER").
		Context(ctx).
		Do()
	if err != nil {
		return internal.RawTable{}, fmt.Errorf("sheets: read %q: %w", title, err)
	}
	return TableFromValues(resp.Values), nil
}

func (c *Connector) resolveTitle(ctx context.Context, gid string) (string, error) {
	id, err := strconv.ParseInt(gid, 10, 64)
	if err != nil {
		return gid, nil
	}

	ss, err := c.service.Spreadsheets.Get(c.spreadsheetID).
		Fields(googleapi.Field("sheets.properties(sheetId,title)")).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("sheets: list sheets: %w", err)
	}
	return TitleForGID(ss.Sheets, id)
}

// TitleForGID finds the title of the sheet with the given numeric id.
func TitleForGID(list []*sheets.Sheet, gid int64) (string, error) {
	for _, s := range list {
		if s == nil || s.Properties == nil {
			continue
		}
		if s.Properties.SheetId == gid {
			return s.Properties.Title, nil
		}
	}
	return "", fmt.Errorf("sheets: no sheet with gid %d", gid)
}

// TableFromValues turns a values.get grid into a table. The first row names
// the columns; short rows are padded with nulls.
func TableFromValues(values [][]any) internal.RawTable {
	out := internal.RawTable{Columns: []string{}, Rows: [][]internal.Value{}}
	if len(values) == 0 {
		return out
	}

	for idx, h := range values[0] {
		name := strings.TrimSpace(internal.ValueFromAny(h).String())
		if name == "" {
			name = "col" + strconv.Itoa(idx)
		}
		out.Columns = append(out.Columns, name)
	}

	for _, raw := range values[1:] {
		width := len(out.Columns)
		if len(raw) > width {
			width = len(raw)
		}
		cells := make([]internal.Value, width)
		for i, v := range raw {
			cells[i] = internal.ValueFromAny(v)
			if cells[i].Kind == internal.KindString && cells[i].Str == "" {
				cells[i] = internal.NullValue
			}
		}
		out.Rows = append(out.Rows, cells)
	}
	return out
}

func quoteSheet(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}
