// Package export renders a row set as a downloadable artifact.
package export

import (
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/leads-cli/internal/model"
)

// WriteCSV writes rows as delimited text: a header line of field names,
// then one line per row with every field quoted and embedded quotes
// doubled. Columns are the canonical fields followed by any pass-through
// keys. An empty row set produces no output.
func WriteCSV(w io.Writer, rows []model.Lead) error {
	if len(rows) == 0 {
		return nil
	}

	cols := model.Columns(rows)
	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, strings.Join(cols, ","))

	for _, r := range rows {
		fields := make([]string, len(cols))
		for i, c := range cols {
			fields[i] = `"` + strings.ReplaceAll(r.Field(c), `"`, `""`) + `"`
		}
		lines = append(lines, strings.Join(fields, ","))
	}

	_, err := io.WriteString(w, strings.Join(lines, "\n"))
	return eris.Wrap(err, "export: write csv")
}

// WriteXLSX writes rows as a single-sheet workbook with the same column
// layout as the CSV artifact.
func WriteXLSX(w io.Writer, rows []model.Lead) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Leads")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	cols := model.Columns(rows)
	header := sheet.AddRow()
	for _, c := range cols {
		header.AddCell().SetString(c)
	}
	for _, r := range rows {
		row := sheet.AddRow()
		for _, c := range cols {
			row.AddCell().SetString(r.Field(c))
		}
	}

	return eris.Wrap(f.Write(w), "export: write xlsx")
}
