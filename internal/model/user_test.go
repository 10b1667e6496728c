package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecrementAccess(t *testing.T) {
	t.Parallel()

	u := UserSession{CurrentAccess: 2}

	assert.Equal(t, 1, u.DecrementAccess())
	assert.Equal(t, 0, u.DecrementAccess())
	// Floored at zero, never negative.
	assert.Equal(t, 0, u.DecrementAccess())
	assert.Equal(t, 0, u.CurrentAccess)
}

func TestParseCount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want int
	}{
		{"42", 42},
		{" 42 searches", 42},
		{"1,250", 1250},
		{"-5", -5},
		{"", 0},
		{"n/a", 0},
		{"abc", 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ParseCount(tt.in))
		})
	}
}

func TestNormalizeCredentialRow(t *testing.T) {
	t.Parallel()

	nr := NormalizeCredentialRow(map[string]string{
		"  Email ":            " user@example.com ",
		"Sheet Name":          "Leads",
		"Search Limit Access": "100",
		"Current  Access":     "58",
	})

	assert.Equal(t, "user@example.com", nr["email"])
	assert.Equal(t, "Leads", nr["sheet_name"])
	assert.Equal(t, "100", nr["search_limit_access"])
	assert.Equal(t, "58", nr["current_access"])
}

func TestUserFromCredentialRow(t *testing.T) {
	t.Parallel()

	u := UserFromCredentialRow(map[string]string{
		"email":               "user@example.com",
		"sheet_name":          "Leads",
		"search_limit_access": "100",
		"current_access":      "58",
		"total_query":         "301",
		"generate_data_count": "12",
	})

	assert.Equal(t, UserSession{
		Email:             "user@example.com",
		SheetName:         "Leads",
		SearchLimit:       100,
		CurrentAccess:     58,
		TotalQuery:        301,
		GenerateDataCount: 12,
	}, u)
}

func TestUserFromCredentialRow_Aliases(t *testing.T) {
	t.Parallel()

	u := UserFromCredentialRow(map[string]string{
		"e":             "u@x.com",
		"sheetname":     "Tab2",
		"search_limit":  "10",
		"currentaccess": "3",
	})

	assert.Equal(t, "u@x.com", u.Email)
	assert.Equal(t, "Tab2", u.SheetName)
	assert.Equal(t, 10, u.SearchLimit)
	assert.Equal(t, 3, u.CurrentAccess)
}

func TestUserSession_JSONRoundTrip(t *testing.T) {
	t.Parallel()

	u := UserSession{
		Email:             "user@example.com",
		SheetName:         "Leads",
		SearchLimit:       100,
		CurrentAccess:     58,
		TotalQuery:        301,
		GenerateDataCount: 12,
	}

	data, err := json.Marshal(u)
	require.NoError(t, err)

	var back UserSession
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, u, back)

	// Field names match the persisted-session wire shape.
	assert.JSONEq(t, `{
		"email": "user@example.com",
		"sheetName": "Leads",
		"searchLimit": 100,
		"currentAccess": 58,
		"totalQuery": 301,
		"generateDataCount": 12
	}`, string(data))
}
