// Package rank orders and pages lead rows for display.
package rank

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/sells-group/leads-cli/internal/model"
)

// Direction is an explicit sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// SortSpec names the column an explicit sort runs on. A zero Column means
// no explicit sort is active and the default completeness ranking applies.
type SortSpec struct {
	Column    string
	Direction Direction
}

// Completeness weights: fuller records surface first when no explicit sort
// is active, and a usable address is worth more than the other fields.
const (
	weightName    = 1.0
	weightWebsite = 1.0
	weightPhone   = 1.0
	weightAddress = 1.5
)

var nonNumericChars = regexp.MustCompile(`[^0-9.-]+`)

var collator = collate.New(language.Und)

// Sort returns a sorted copy of rows. With an explicit column sort, values
// that both parse as numbers (after stripping currency symbols and the
// like) compare numerically, anything else compares as collated strings;
// ties keep their original relative order. Without one, rows are ranked by
// completeness score descending, ties broken by Name descending.
func Sort(rows []model.Lead, spec SortSpec) []model.Lead {
	out := make([]model.Lead, len(rows))
	copy(out, rows)

	if spec.Column != "" {
		dir := 1
		if spec.Direction == Desc {
			dir = -1
		}
		sort.SliceStable(out, func(i, j int) bool {
			return compareValues(out[i].Field(spec.Column), out[j].Field(spec.Column))*dir < 0
		})
		return out
	}

	sort.SliceStable(out, func(i, j int) bool {
		si, sj := Score(out[i]), Score(out[j])
		if si != sj {
			return si > sj
		}
		return collator.CompareString(out[i].Name, out[j].Name) > 0
	})
	return out
}

// Score is the completeness rank of a row under the default ordering.
func Score(l model.Lead) float64 {
	var s float64
	if strings.TrimSpace(l.Name) != "" {
		s += weightName
	}
	if strings.TrimSpace(l.Website) != "" {
		s += weightWebsite
	}
	if strings.TrimSpace(l.Phone) != "" {
		s += weightPhone
	}
	if strings.TrimSpace(l.Address) != "" {
		s += weightAddress
	}
	return s
}

func compareValues(a, b string) int {
	na, aOK := parseNumeric(a)
	nb, bOK := parseNumeric(b)
	if aOK && bOK {
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		default:
			return 0
		}
	}
	return collator.CompareString(a, b)
}

func parseNumeric(s string) (float64, bool) {
	n, err := strconv.ParseFloat(nonNumericChars.ReplaceAllString(s, ""), 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
