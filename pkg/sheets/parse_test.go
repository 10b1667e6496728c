package sheets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSV_QuotedCommas(t *testing.T) {
	t.Parallel()

	got := ParseCSV("a,b\n1,\"x,y\"")

	require.Len(t, got.Rows, 1)
	assert.Equal(t, []string{"a", "b"}, got.Headers)
	assert.Equal(t, map[string]string{"a": "1", "b": "x,y"}, got.Rows[0])
}

func TestParseCSV_CRLFAndBlankLines(t *testing.T) {
	t.Parallel()

	got := ParseCSV("name,phone\r\n\r\nAcme,555-0100\r\n\nBeta,555-0200\r\n")

	require.Len(t, got.Rows, 2)
	assert.Equal(t, "Acme", got.Rows[0]["name"])
	assert.Equal(t, "Beta", got.Rows[1]["name"])
}

func TestParseCSV_QuoteAndWhitespaceStripping(t *testing.T) {
	t.Parallel()

	got := ParseCSV(`"Name" , "Phone"` + "\n" + ` " Acme Co " , "555-0100"`)

	require.Len(t, got.Rows, 1)
	assert.Equal(t, []string{"Name", "Phone"}, got.Headers)
	assert.Equal(t, "Acme Co", got.Rows[0]["Name"])
	assert.Equal(t, "555-0100", got.Rows[0]["Phone"])
}

func TestParseCSV_ShortRowsPadded(t *testing.T) {
	t.Parallel()

	got := ParseCSV("a,b,c\n1,2")

	require.Len(t, got.Rows, 1)
	assert.Equal(t, map[string]string{"a": "1", "b": "2", "c": ""}, got.Rows[0])
}

func TestParseCSV_ExtraFieldsDropped(t *testing.T) {
	t.Parallel()

	got := ParseCSV("a,b\n1,2,3,4")

	require.Len(t, got.Rows, 1)
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, got.Rows[0])
}

func TestParseCSV_Empty(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "\n\n", "   \n  \r\n"} {
		got := ParseCSV(in)
		assert.Empty(t, got.Headers)
		assert.Empty(t, got.Rows)
	}
}

func TestParseCSV_HeaderOnly(t *testing.T) {
	t.Parallel()

	got := ParseCSV("a,b,c")

	assert.Equal(t, []string{"a", "b", "c"}, got.Headers)
	assert.Empty(t, got.Rows)
}

func TestParseCSV_SingleQuoteLayerStripped(t *testing.T) {
	t.Parallel()

	// Only one layer of quotes is stripped; doubled internal quotes are
	// not unescaped. That is the documented contract, not an oversight.
	got := ParseCSV("a\n\"he said \"\"hi\"\"\"")

	require.Len(t, got.Rows, 1)
	assert.Equal(t, `he said ""hi""`, got.Rows[0]["a"])
}
