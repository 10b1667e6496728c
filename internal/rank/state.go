package rank

import (
	"sort"
	"strings"

	"github.com/sells-group/leads-cli/internal/model"
)

// State tracks the column-header sort interaction and the active page.
// Transitions: clicking an unsorted column starts ascending on it, clicking
// the ascending column flips to descending, clicking the descending column
// flips back to ascending, and clicking a different column always restarts
// ascending there.
type State struct {
	Spec SortSpec
	Page int
}

// Click applies one header click to the state.
func (s *State) Click(column string) {
	if s.Spec.Column == column {
		if s.Spec.Direction == Asc {
			s.Spec.Direction = Desc
		} else {
			s.Spec.Direction = Asc
		}
		return
	}
	s.Spec = SortSpec{Column: column, Direction: Asc}
}

// Reset clears the explicit sort (back to default ranking) and rewinds to
// the first page.
func (s *State) Reset() {
	s.Spec = SortSpec{}
	s.Page = 0
}

// Filter narrows a row set before sorting. Global matches any of the given
// columns case-insensitively, Address substring-matches the address column,
// Keyword matches the keyword column exactly (case-insensitive).
type Filter struct {
	Global  string
	Address string
	Keyword string
}

// Apply returns the rows passing every set filter, in input order.
func (f Filter) Apply(rows []model.Lead, columns []string) []model.Lead {
	if f.Global == "" && f.Address == "" && f.Keyword == "" {
		return rows
	}

	global := strings.ToLower(f.Global)
	address := strings.ToLower(f.Address)
	keyword := strings.ToLower(f.Keyword)

	var out []model.Lead
	for _, r := range rows {
		if global != "" && !matchesAny(r, columns, global) {
			continue
		}
		if address != "" && !strings.Contains(strings.ToLower(r.Address), address) {
			continue
		}
		if keyword != "" && strings.ToLower(r.Keyword) != keyword {
			continue
		}
		out = append(out, r)
	}
	return out
}

func matchesAny(r model.Lead, columns []string, q string) bool {
	for _, c := range columns {
		if strings.Contains(strings.ToLower(r.Field(c)), q) {
			return true
		}
	}
	return false
}

// Keywords returns the distinct non-empty keywords across rows, sorted for
// a stable filter dropdown.
func Keywords(rows []model.Lead) []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range rows {
		kw := strings.TrimSpace(r.Keyword)
		if kw != "" && !seen[kw] {
			seen[kw] = true
			out = append(out, kw)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return collator.CompareString(out[i], out[j]) < 0
	})
	return out
}

// Paginate slices one page out of rows. Pages are zero-based; out-of-range
// pages clamp to the nearest valid page.
func Paginate(rows []model.Lead, page, perPage int) []model.Lead {
	if perPage <= 0 {
		perPage = 100
	}
	last := PageCount(len(rows), perPage) - 1
	if page < 0 {
		page = 0
	}
	if page > last {
		page = last
	}

	start := page * perPage
	if start >= len(rows) {
		return nil
	}
	end := start + perPage
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}

// PageCount returns the number of pages needed for n rows, at least one.
func PageCount(n, perPage int) int {
	if perPage <= 0 {
		perPage = 100
	}
	pages := (n + perPage - 1) / perPage
	if pages < 1 {
		return 1
	}
	return pages
}
