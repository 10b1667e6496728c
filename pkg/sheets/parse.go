package sheets

import "strings"

// Table is a parsed sheet tab: the header row in source order plus one
// string map per data row keyed by header.
type Table struct {
	Headers []string
	Rows    []map[string]string
}

// ParseCSV decodes the delimited text the gviz endpoint returns. The format
// is looser than RFC 4180 and handled accordingly: lines split on \n or
// \r\n, blank lines dropped, fields split on commas outside double quotes,
// and exactly one layer of surrounding quotes stripped per field. Escaped
// internal quotes ("") are not unescaped beyond that single strip; the
// endpoint never emits them. Rows shorter than the header are padded with
// empty strings, extra trailing fields are dropped. Empty input yields an
// empty table, never an error.
func ParseCSV(text string) Table {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return Table{}
	}

	headers := splitFields(lines[0])
	t := Table{Headers: headers, Rows: make([]map[string]string, 0, len(lines)-1)}

	for _, line := range lines[1:] {
		cols := splitFields(line)
		row := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(cols) {
				row[h] = cols[i]
			} else {
				row[h] = ""
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// splitFields splits a line on commas that are not inside double quotes and
// cleans each field.
func splitFields(line string) []string {
	var fields []string
	var b strings.Builder
	inQuotes := false

	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			b.WriteRune(r)
		case r == ',' && !inQuotes:
			fields = append(fields, cleanField(b.String()))
			b.Reset()
		default:
			b.WriteRune(r)
		}
	}
	fields = append(fields, cleanField(b.String()))
	return fields
}

// cleanField trims surrounding whitespace and at most one layer of
// surrounding double quotes.
func cleanField(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, `"`) {
		s = s[1:]
	}
	if strings.HasSuffix(s, `"`) {
		s = s[:len(s)-1]
	}
	return strings.TrimSpace(s)
}
