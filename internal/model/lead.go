// Package model holds the canonical lead and user types shared across the CLI.
package model

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Canonical lead column names as they appear in the source sheets.
const (
	ColName    = "Name"
	ColPhone   = "formatted_phone_number"
	ColWebsite = "website"
	ColAddress = "formatted_address"
	ColKeyword = "keyword"
)

// Lead is a normalized business-contact row. The four canonical fields are
// always present (possibly empty); any source column that matched none of
// the patterns is retained verbatim in Extra under its original key.
type Lead struct {
	Name    string
	Phone   string // display form; compared digit-only
	Website string
	Address string
	Keyword string
	Extra   map[string]string
}

// fieldMatchers maps source column names onto canonical fields. Evaluated in
// order per source key; the first source column matching a group wins, later
// matches for an already-filled field fall through to Extra.
var fieldMatchers = []struct {
	field   string
	pattern *regexp.Regexp
}{
	{ColName, regexp.MustCompile(`(?i)(^name$|business_name|business|company)`)},
	{ColPhone, regexp.MustCompile(`(?i)(phone|telephone|formatted_phone_number|contact)`)},
	{ColWebsite, regexp.MustCompile(`(?i)(website|url|web)`)},
	{ColAddress, regexp.MustCompile(`(?i)(address|formatted_address|location)`)},
}

// fallbackAliases fills still-empty canonical fields from exact source keys.
var fallbackAliases = map[string][]string{
	ColName:    {"Name", "name"},
	ColPhone:   {"formatted_phone_number", "phone", "telephone"},
	ColWebsite: {"website", "url"},
	ColAddress: {"formatted_address", "address"},
}

// Normalize maps a raw source row onto a Lead. order controls which source
// column wins when several match the same canonical field; pass the header
// order for sheet rows. A nil order falls back to canonical columns first,
// then the remaining keys sorted, so the result stays deterministic for
// unordered inputs and re-normalizing a flattened row cannot let an alias
// steal an already-resolved field. Normalization never fails and never
// drops data.
func Normalize(raw map[string]string, order []string) Lead {
	if order == nil {
		order = defaultOrder(raw)
	}

	l := Lead{Extra: map[string]string{}}

	for _, key := range order {
		v, ok := raw[key]
		if !ok {
			continue
		}
		lk := strings.ToLower(strings.TrimSpace(key))

		// A field counts as filled only once it holds a non-empty value, so
		// a later column can still claim it after an empty first match.
		matched := false
		for _, m := range fieldMatchers {
			if l.Field(m.field) != "" || !m.pattern.MatchString(lk) {
				continue
			}
			l.setField(m.field, v)
			matched = true
			break
		}
		if matched {
			continue
		}

		if lk == ColKeyword && l.Keyword == "" {
			l.Keyword = v
			continue
		}
		l.Extra[key] = v
	}

	for _, m := range fieldMatchers {
		if l.Field(m.field) != "" {
			continue
		}
		for _, alias := range fallbackAliases[m.field] {
			if v, ok := raw[alias]; ok && v != "" {
				l.setField(m.field, v)
				break
			}
		}
	}

	if len(l.Extra) == 0 {
		l.Extra = nil
	}
	return l
}

// defaultOrder is the evaluation order for rows that carry none: canonical
// columns present in the row first, then the remaining keys sorted. An
// exact canonical key must win over a pattern-group alias, or the alias
// would claim the field and push the canonical value into Extra.
func defaultOrder(raw map[string]string) []string {
	order := make([]string, 0, len(raw))
	canonical := map[string]bool{}
	for _, c := range []string{ColName, ColPhone, ColWebsite, ColAddress, ColKeyword} {
		if _, ok := raw[c]; ok {
			order = append(order, c)
			canonical[c] = true
		}
	}
	rest := make([]string, 0, len(raw))
	for k := range raw {
		if !canonical[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(order, rest...)
}

// CoerceRow converts a loosely-typed row (webhook JSON) into the string row
// Normalize expects. Values are stringified, never rejected; nil becomes "".
// JSON objects carry no ordering, so the returned order is the same
// canonical-first order Normalize falls back to.
func CoerceRow(raw map[string]any) (map[string]string, []string) {
	row := make(map[string]string, len(raw))
	for k, v := range raw {
		if v == nil {
			row[k] = ""
			continue
		}
		if s, ok := v.(string); ok {
			row[k] = s
			continue
		}
		row[k] = fmt.Sprint(v)
	}
	return row, defaultOrder(row)
}

func (l *Lead) setField(field, value string) {
	switch field {
	case ColName:
		l.Name = value
	case ColPhone:
		l.Phone = value
	case ColWebsite:
		l.Website = value
	case ColAddress:
		l.Address = value
	}
}

// Field returns the value for a display column, resolving canonical names
// before pass-through keys. Unknown columns yield "".
func (l Lead) Field(col string) string {
	switch col {
	case ColName:
		return l.Name
	case ColPhone:
		return l.Phone
	case ColWebsite:
		return l.Website
	case ColAddress:
		return l.Address
	case ColKeyword, "Keyword":
		return l.Keyword
	}
	return l.Extra[col]
}

// AsRow flattens the lead back into a source-shaped row: canonical columns
// plus pass-through keys. Normalize(AsRow()) round-trips to the same lead.
func (l Lead) AsRow() map[string]string {
	row := map[string]string{
		ColName:    l.Name,
		ColPhone:   l.Phone,
		ColWebsite: l.Website,
		ColAddress: l.Address,
	}
	if l.Keyword != "" {
		row[ColKeyword] = l.Keyword
	}
	for k, v := range l.Extra {
		row[k] = v
	}
	return row
}

// Columns returns the display column order for a row set: the canonical
// fields first, then any pass-through keys sorted by name. Keyword is listed
// only when at least one row carries it.
func Columns(rows []Lead) []string {
	cols := []string{ColName, ColPhone, ColWebsite, ColAddress}
	hasKeyword := false
	extras := map[string]bool{}
	for _, r := range rows {
		if r.Keyword != "" {
			hasKeyword = true
		}
		for k := range r.Extra {
			extras[k] = true
		}
	}
	if hasKeyword {
		cols = append(cols, ColKeyword)
	}
	names := make([]string, 0, len(extras))
	for k := range extras {
		names = append(names, k)
	}
	sort.Strings(names)
	return append(cols, names...)
}
