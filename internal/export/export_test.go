package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/leads-cli/internal/model"
)

func TestWriteCSV(t *testing.T) {
	t.Parallel()

	rows := []model.Lead{
		{Name: "Acme", Phone: "555-0100", Website: "acme.com", Address: "1 Main St"},
		{Name: "Beta", Phone: "555-0200", Website: "beta.com", Address: "9 Oak Ave"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rows))

	lines := strings.Split(buf.String(), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Name,formatted_phone_number,website,formatted_address", lines[0])
	assert.Equal(t, `"Acme","555-0100","acme.com","1 Main St"`, lines[1])
	assert.Equal(t, `"Beta","555-0200","beta.com","9 Oak Ave"`, lines[2])
}

func TestWriteCSV_QuoteDoubling(t *testing.T) {
	t.Parallel()

	rows := []model.Lead{
		{Name: `Joe's "Best" Pizza`, Phone: "555-0100", Website: "x", Address: "y"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rows))

	assert.Contains(t, buf.String(), `"Joe's ""Best"" Pizza"`)
}

func TestWriteCSV_PassThroughColumns(t *testing.T) {
	t.Parallel()

	rows := []model.Lead{
		{Name: "Acme", Keyword: "plumber", Extra: map[string]string{"rating": "4.5"}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rows))

	lines := strings.Split(buf.String(), "\n")
	assert.Equal(t, "Name,formatted_phone_number,website,formatted_address,keyword,rating", lines[0])
	assert.Equal(t, `"Acme","","","","plumber","4.5"`, lines[1])
}

func TestWriteCSV_Empty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Zero(t, buf.Len())
}

func TestWriteXLSX(t *testing.T) {
	t.Parallel()

	rows := []model.Lead{
		{Name: "Acme", Phone: "555-0100", Website: "acme.com", Address: "1 Main St"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, rows))

	f, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)
	assert.Equal(t, "Leads", f.Sheets[0].Name)

	sheet := f.Sheets[0]
	require.Len(t, sheet.Rows, 2)
	assert.Equal(t, "Name", sheet.Rows[0].Cells[0].String())
	assert.Equal(t, "Acme", sheet.Rows[1].Cells[0].String())
	assert.Equal(t, "1 Main St", sheet.Rows[1].Cells[3].String())
}
