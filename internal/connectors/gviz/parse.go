package gviz

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ShafahmadxX69/Dashioh/internal"
	"github.com/ShafahmadxX69/Dashioh/internal/util"
)

var reEnvelopeTail = regexp.MustCompile(`\);?\s*$`)

type response struct {
	Status string      `json:"status"`
	Errors []respError `json:"errors"`
	Table  *table      `json:"table"`
}

type respError struct {
	Reason          string `json:"reason"`
	Message         string `json:"message"`
	DetailedMessage string `json:"detailed_message"`
}

type table struct {
	Cols []column `json:"cols"`
	Rows []row    `json:"rows"`
}

type column struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

type row struct {
	C []*cell `json:"c"`
}

// cell keeps v and f raw so a present null v can be told apart from a
// missing one.
type cell struct {
	V json.RawMessage `json:"v"`
	F json.RawMessage `json:"f"`
}

// ParseResponse decodes a GViz out:json body, wrapper included.
func ParseResponse(body []byte) (internal.RawTable, error) {
	payload := stripEnvelope(string(body))
	if payload == "" {
		return internal.RawTable{}, errors.New("gviz: empty response")
	}

	var resp response
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		return internal.RawTable{}, fmt.Errorf("gviz: decode response: %w", err)
	}
	if resp.Status == "error" {
		msg := "unknown error"
		if len(resp.Errors) > 0 {
			e := resp.Errors[0]
			msg = strings.TrimSpace(e.Reason + ": " + util.FirstNonEmpty(e.DetailedMessage, e.Message))
		}
		return internal.RawTable{}, fmt.Errorf("gviz: query failed: %s", msg)
	}
	if resp.Table == nil {
		return internal.RawTable{Columns: []string{}, Rows: [][]internal.Value{}}, nil
	}

	out := internal.RawTable{
		Columns: make([]string, 0, len(resp.Table.Cols)),
		Rows:    make([][]internal.Value, 0, len(resp.Table.Rows)),
	}
	for idx, col := range resp.Table.Cols {
		name := strings.TrimSpace(util.FirstNonEmpty(col.Label, col.ID))
		if name == "" {
			name = "col" + strconv.Itoa(idx)
		}
		out.Columns = append(out.Columns, name)
	}
	for _, r := range resp.Table.Rows {
		cells := make([]internal.Value, 0, len(r.C))
		for _, c := range r.C {
			cells = append(cells, cellValue(c))
		}
		out.Rows = append(out.Rows, cells)
	}
	return out, nil
}

func stripEnvelope(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.Index(text, "("); i >= 0 && !strings.HasPrefix(text, "{") {
		text = text[i+1:]
		text = reEnvelopeTail.ReplaceAllString(text, "")
	}
	return strings.TrimSpace(text)
}

func cellValue(c *cell) internal.Value {
	if c == nil {
		return internal.NullValue
	}
	// f is only consulted when v is absent; a present null v stays null.
	switch {
	case c.V != nil:
		return decodeCell(c.V)
	case c.F != nil:
		return decodeCell(c.F)
	}
	return internal.NullValue
}

func decodeCell(raw json.RawMessage) internal.Value {
	var v internal.Value
	if err := json.Unmarshal(raw, &v); err != nil {
		return internal.NullValue
	}
	return v
}
