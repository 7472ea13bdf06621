package gviz

import (
	"bytes"
	"errors"
	"strconv"

	"github.com/PuerkitoBio/goquery"

	"github.com/ShafahmadxX69/Dashioh/internal"
	"github.com/ShafahmadxX69/Dashioh/internal/util"
)

// ParseHTMLTable reads the first table of a GViz out:html page. The first
// row holds the column names; every other cell is text, empty cells null.
func ParseHTMLTable(body []byte) (internal.RawTable, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return internal.RawTable{}, err
	}

	tbl := doc.Find("table").First()
	if tbl.Length() == 0 {
		return internal.RawTable{}, errors.New("gviz: no table in html response")
	}
	rows := tbl.Find("tr")

	out := internal.RawTable{Columns: []string{}, Rows: [][]internal.Value{}}
	if rows.Length() == 0 {
		return out, nil
	}

	rows.First().Find("th,td").Each(func(idx int, c *goquery.Selection) {
		name := util.NormalizeSpaces(c.Text())
		if name == "" {
			name = "col" + strconv.Itoa(idx)
		}
		out.Columns = append(out.Columns, name)
	})

	rows.Slice(1, rows.Length()).Each(func(_ int, r *goquery.Selection) {
		cells := []internal.Value{}
		r.Find("th,td").Each(func(_ int, c *goquery.Selection) {
			text := util.NormalizeSpaces(c.Text())
			if text == "" {
				cells = append(cells, internal.NullValue)
				return
			}
			cells = append(cells, internal.StringValue(text))
		})
		out.Rows = append(out.Rows, cells)
	})
	return out, nil
}
