package model

import "strings"

// headerRows is the number of header rows preceding data in the source
// sheet; duplicate row numbers are 1-based and offset past it.
const headerRows = 1

// DuplicateMarker records a suppressed lead together with the physical sheet
// row it occupied, so a deletion service can target it.
type DuplicateMarker struct {
	Lead
	RowNumber int
}

// AsPayload flattens the marker into the wire shape the duplicate-deletion
// webhook expects: the source-shaped row plus its rowNumber.
func (m DuplicateMarker) AsPayload() map[string]any {
	p := make(map[string]any)
	for k, v := range m.AsRow() {
		p[k] = v
	}
	p["rowNumber"] = m.RowNumber
	return p
}

// DedupeResult partitions a row sequence into first occurrences and the
// duplicates that repeated them. len(Unique)+len(Duplicates) always equals
// the input length.
type DedupeResult struct {
	Unique         []Lead
	Duplicates     []DuplicateMarker
	DuplicateCount int
}

// Key is the identity of a lead for deduplication: the four canonical
// fields lower-cased and trimmed, the phone reduced to digits, joined with
// a separator that cannot appear inside a field value. Pass-through fields
// never participate.
func (l Lead) Key() string {
	return strings.Join([]string{
		strings.ToLower(strings.TrimSpace(l.Name)),
		digitsOnly(l.Phone),
		strings.ToLower(strings.TrimSpace(l.Website)),
		strings.ToLower(strings.TrimSpace(l.Address)),
	}, "||")
}

// Dedupe scans rows in order, keeping the first occurrence of each identity
// key and marking every later occurrence with its sheet row number
// (index + 1 for 1-based numbering, + headerRows for the header line).
func Dedupe(rows []Lead) DedupeResult {
	seen := make(map[string]struct{}, len(rows))
	res := DedupeResult{Unique: make([]Lead, 0, len(rows))}

	for i, r := range rows {
		key := r.Key()
		if _, dup := seen[key]; dup {
			res.Duplicates = append(res.Duplicates, DuplicateMarker{
				Lead:      r,
				RowNumber: i + 1 + headerRows,
			})
			continue
		}
		seen[key] = struct{}{}
		res.Unique = append(res.Unique, r)
	}

	res.DuplicateCount = len(res.Duplicates)
	return res
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
