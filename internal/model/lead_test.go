package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_PatternGroups(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  map[string]string
		want Lead
	}{
		{
			name: "canonical headers pass through",
			raw: map[string]string{
				"Name":                   "Acme Plumbing",
				"formatted_phone_number": "(512) 555-0100",
				"website":                "acmeplumbing.com",
				"formatted_address":      "100 Main St, Austin, TX",
			},
			want: Lead{
				Name:    "Acme Plumbing",
				Phone:   "(512) 555-0100",
				Website: "acmeplumbing.com",
				Address: "100 Main St, Austin, TX",
			},
		},
		{
			name: "loose headers match pattern groups",
			raw: map[string]string{
				"Business Name": "Acme Plumbing",
				"Telephone":     "512-555-0100",
				"Web URL":       "acmeplumbing.com",
				"Location":      "Austin, TX",
			},
			want: Lead{
				Name:    "Acme Plumbing",
				Phone:   "512-555-0100",
				Website: "acmeplumbing.com",
				Address: "Austin, TX",
			},
		},
		{
			name: "company header fills name",
			raw:  map[string]string{"company": "Acme"},
			want: Lead{Name: "Acme"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Normalize(tt.raw, nil))
		})
	}
}

func TestNormalize_FirstMatchWins(t *testing.T) {
	t.Parallel()

	raw := map[string]string{
		"business": "First Co",
		"company":  "Second Co",
	}
	got := Normalize(raw, []string{"business", "company"})

	assert.Equal(t, "First Co", got.Name)
	// The loser is retained verbatim, not dropped.
	assert.Equal(t, "Second Co", got.Extra["company"])
}

func TestNormalize_EmptyFirstMatchYieldsToLater(t *testing.T) {
	t.Parallel()

	raw := map[string]string{
		"business": "",
		"company":  "Acme",
	}
	got := Normalize(raw, []string{"business", "company"})

	assert.Equal(t, "Acme", got.Name)
}

func TestNormalize_PassThroughAndKeyword(t *testing.T) {
	t.Parallel()

	raw := map[string]string{
		"Name":    "Acme",
		"keyword": "plumber austin",
		"rating":  "4.8",
	}
	got := Normalize(raw, nil)

	assert.Equal(t, "plumber austin", got.Keyword)
	assert.Equal(t, "4.8", got.Extra["rating"])
	assert.Equal(t, "plumber austin", got.Field("keyword"))
	assert.Equal(t, "4.8", got.Field("rating"))
}

func TestNormalize_FallbackAliases(t *testing.T) {
	t.Parallel()

	// "url" alone matches the website pattern group, but "phone" and
	// "address" style exact aliases must fill fields the patterns missed.
	raw := map[string]string{
		"name":      "Acme",
		"telephone": "555-0100",
	}
	got := Normalize(raw, nil)

	assert.Equal(t, "Acme", got.Name)
	assert.Equal(t, "555-0100", got.Phone)
	assert.Empty(t, got.Website)
	assert.Empty(t, got.Address)
}

func TestNormalize_AllCanonicalFieldsAlwaysPresent(t *testing.T) {
	t.Parallel()

	got := Normalize(map[string]string{"rating": "5"}, nil)

	assert.Empty(t, got.Name)
	assert.Empty(t, got.Phone)
	assert.Empty(t, got.Website)
	assert.Empty(t, got.Address)
	assert.Equal(t, "5", got.Extra["rating"])
}

func TestNormalize_Idempotent(t *testing.T) {
	t.Parallel()

	raws := []map[string]string{
		{"Business Name": "Acme", "Telephone": "555-0100", "web": "a.com", "Location": "TX"},
		{"rating": "4.8", "keyword": "hvac"},
		{},
		{"Name": "N", "formatted_phone_number": "1", "website": "w", "formatted_address": "a"},
		// Pass-through keys that match a pattern group must not steal the
		// canonical field on a re-normalize.
		{"website": "a.com", "url": "b.com"},
		{"formatted_phone_number": "111", "contact": "222"},
	}

	for _, raw := range raws {
		once := Normalize(raw, nil)
		twice := Normalize(once.AsRow(), nil)
		assert.Equal(t, once, twice)
	}
}

func TestNormalize_CanonicalKeyBeatsAlias(t *testing.T) {
	t.Parallel()

	got := Normalize(map[string]string{"website": "a.com", "url": "b.com"}, nil)
	assert.Equal(t, "a.com", got.Website)
	assert.Equal(t, "b.com", got.Extra["url"])

	got = Normalize(map[string]string{"formatted_phone_number": "111", "contact": "222"}, nil)
	assert.Equal(t, "111", got.Phone)
	assert.Equal(t, "222", got.Extra["contact"])
}

func TestCoerceRow(t *testing.T) {
	t.Parallel()

	row, order := CoerceRow(map[string]any{
		"Name":   "Acme",
		"rating": 4.8,
		"open":   true,
		"note":   nil,
	})

	assert.Equal(t, []string{"Name", "note", "open", "rating"}, order)
	assert.Equal(t, "Acme", row["Name"])
	assert.Equal(t, "4.8", row["rating"])
	assert.Equal(t, "true", row["open"])
	assert.Equal(t, "", row["note"])
}

func TestColumns(t *testing.T) {
	t.Parallel()

	rows := []Lead{
		{Name: "A", Keyword: "hvac", Extra: map[string]string{"rating": "5"}},
		{Name: "B", Extra: map[string]string{"hours": "9-5"}},
	}

	assert.Equal(t,
		[]string{ColName, ColPhone, ColWebsite, ColAddress, ColKeyword, "hours", "rating"},
		Columns(rows))
}
