package gviz

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShafahmadxX69/Dashioh/internal"
	"github.com/ShafahmadxX69/Dashioh/internal/config"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

const samplePayload = `/*O_o*/
google.visualization.Query.setResponse({"version":"0.6","reqId":"0","status":"ok","sig":"1","table":{"cols":[{"id":"A","label":"Date ","type":"date"},{"id":"B","label":"","type":"string"},{"id":"C","label":"Qty","type":"number"}],"rows":[{"c":[{"v":"Date(2024,0,15)","f":"15/01/2024"},{"v":"Acme"},{"v":10.0,"f":"10"}]},{"c":[null,{"v":null,"f":"fallback"},{"v":null}]}]}});`

func testClient(t *testing.T, rt roundTripFunc) *Client {
	t.Helper()
	cfg := config.Config{
		SpreadsheetID: "sheet-1",
		GVizBaseURL:   "https://example.test/spreadsheets/d/",
		FetchRateRPS:  1000,
		FetchAttempts: 5,
	}
	client := NewClient(cfg)
	client.backoffBase = time.Millisecond
	client.httpClient = &http.Client{Transport: rt}
	return client
}

func response200(body string) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func TestParseResponse(t *testing.T) {
	tbl, err := ParseResponse([]byte(samplePayload))
	require.NoError(t, err)

	assert.Equal(t, []string{"Date", "B", "Qty"}, tbl.Columns)
	require.Equal(t, 2, tbl.Len())

	assert.Equal(t, internal.StringValue("Date(2024,0,15)"), tbl.Rows[0][0])
	assert.Equal(t, internal.StringValue("Acme"), tbl.Rows[0][1])
	assert.Equal(t, internal.NumberValue(10), tbl.Rows[0][2])

	assert.True(t, tbl.Rows[1][0].IsNull())
	assert.True(t, tbl.Rows[1][1].IsNull())
	assert.True(t, tbl.Rows[1][2].IsNull())
}

func TestParseResponseFormattedValueOnlyWhenRawMissing(t *testing.T) {
	body := `{"status":"ok","table":{"cols":[{"label":"A"},{"label":"B"},{"label":"C"}],` +
		`"rows":[{"c":[{"f":"15/01/2024"},{"v":null,"f":"x"},{"v":0,"f":"zero"}]}]}}`
	tbl, err := ParseResponse([]byte(body))
	require.NoError(t, err)
	require.Equal(t, 1, tbl.Len())

	assert.Equal(t, internal.StringValue("15/01/2024"), tbl.Rows[0][0])
	assert.True(t, tbl.Rows[0][1].IsNull())
	assert.Equal(t, internal.NumberValue(0), tbl.Rows[0][2])
}

func TestParseResponseErrorStatus(t *testing.T) {
	body := `google.visualization.Query.setResponse({"status":"error","errors":[{"reason":"invalid_query","message":"bad gid"}]});`
	_, err := ParseResponse([]byte(body))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid_query")
}

func TestParseResponseGarbage(t *testing.T) {
	_, err := ParseResponse([]byte("<html>not json</html>"))
	assert.Error(t, err)
}

func TestFetchTableWithRetry(t *testing.T) {
	attempt := 0
	client := testClient(t, func(r *http.Request) (*http.Response, error) {
		assert.Equal(t, "/spreadsheets/d/sheet-1/gviz/tq", r.URL.Path)
		assert.Equal(t, "out:json", r.URL.Query().Get("tqx"))
		assert.Equal(t, "42", r.URL.Query().Get("gid"))
		attempt++
		if attempt == 1 {
			return &http.Response{
				StatusCode: http.StatusServiceUnavailable,
				Body:       io.NopCloser(strings.NewReader("busy")),
				Header:     make(http.Header),
			}, nil
		}
		return response200(samplePayload), nil
	})

	tbl, err := client.FetchTable(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, 2, attempt)
	assert.Equal(t, 2, tbl.Len())
}

func TestFetchTableDoesNotRetryClientErrors(t *testing.T) {
	attempt := 0
	client := testClient(t, func(r *http.Request) (*http.Response, error) {
		attempt++
		return &http.Response{
			StatusCode: http.StatusNotFound,
			Body:       io.NopCloser(strings.NewReader("missing")),
			Header:     make(http.Header),
		}, nil
	})

	_, err := client.FetchTable(context.Background(), "42")
	require.Error(t, err)
	assert.Equal(t, 1, attempt)
}

func TestFetchTableGivesUpAfterAttempts(t *testing.T) {
	attempt := 0
	client := testClient(t, func(r *http.Request) (*http.Response, error) {
		attempt++
		return &http.Response{
			StatusCode: http.StatusTooManyRequests,
			Body:       io.NopCloser(strings.NewReader("slow down")),
			Header:     make(http.Header),
		}, nil
	})

	_, err := client.FetchTable(context.Background(), "42")
	require.Error(t, err)
	assert.Equal(t, 5, attempt)
}

func TestFetchTableHTML(t *testing.T) {
	client := testClient(t, func(r *http.Request) (*http.Response, error) {
		assert.Equal(t, "out:html", r.URL.Query().Get("tqx"))
		return response200(`<html><body><table>
<tr><td>Date</td><td>Brand</td><td>Qty</td></tr>
<tr><td>15/01/2024</td><td> Acme </td><td>1,000</td></tr>
<tr><td>&nbsp;</td><td>Beta</td><td></td></tr>
</table></body></html>`), nil
	})
	client.format = config.FormatHTML

	tbl, err := client.FetchTable(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, []string{"Date", "Brand", "Qty"}, tbl.Columns)
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, internal.StringValue("Acme"), tbl.Rows[0][1])
	assert.Equal(t, internal.StringValue("1,000"), tbl.Rows[0][2])
	assert.True(t, tbl.Rows[1][0].IsNull())
	assert.True(t, tbl.Rows[1][2].IsNull())
}

func TestFetchTableRequiresSpreadsheet(t *testing.T) {
	client := testClient(t, func(r *http.Request) (*http.Response, error) {
		t.Fatal("no request expected")
		return nil, nil
	})
	client.spreadsheetID = ""

	_, err := client.FetchTable(context.Background(), "1")
	assert.Error(t, err)
}
