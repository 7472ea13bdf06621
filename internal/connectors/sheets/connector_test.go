package sheets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/sheets/v4"

	"github.com/ShafahmadxX69/Dashioh/internal"
)

func TestTableFromValues(t *testing.T) {
	tbl := TableFromValues([][]any{
		{"Date", "Customer", "", "Qty"},
		{45306.0, "Acme", "x", 12.0},
		{"15/01/2024", ""},
	})

	assert.Equal(t, []string{"Date", "Customer", "col2", "Qty"}, tbl.Columns)
	require.Equal(t, 2, tbl.Len())

	assert.Equal(t, internal.NumberValue(45306), tbl.Rows[0][0])
	assert.Equal(t, internal.NumberValue(12), tbl.Rows[0][3])

	require.Len(t, tbl.Rows[1], 4)
	assert.Equal(t, internal.StringValue("15/01/2024"), tbl.Rows[1][0])
	assert.True(t, tbl.Rows[1][1].IsNull())
	assert.True(t, tbl.Rows[1][3].IsNull())
}

func TestTableFromValuesEmpty(t *testing.T) {
	tbl := TableFromValues(nil)
	assert.Equal(t, 0, tbl.Len())
	assert.Empty(t, tbl.Columns)
}

func TestTitleForGID(t *testing.T) {
	list := []*sheets.Sheet{
		{Properties: &sheets.SheetProperties{SheetId: 0, Title: "IN"}},
		nil,
		{Properties: &sheets.SheetProperties{SheetId: 1402, Title: "ExpSched"}},
	}

	title, err := TitleForGID(list, 1402)
	require.NoError(t, err)
	assert.Equal(t, "ExpSched", title)

	_, err = TitleForGID(list, 9)
	assert.Error(t, err)
}

func TestQuoteSheet(t *testing.T) {
	assert.Equal(t, "'Bob''s sheet'", quoteSheet("Bob's sheet"))
}
