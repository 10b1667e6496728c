package model

import (
	"regexp"
	"strconv"
	"strings"
)

// UserSession is the signed-in principal with its access counters, as read
// from the USER credential sheet. It round-trips losslessly through JSON for
// the persisted-session cache.
type UserSession struct {
	Email             string `json:"email"`
	SheetName         string `json:"sheetName"`
	SearchLimit       int    `json:"searchLimit"`
	CurrentAccess     int    `json:"currentAccess"`
	TotalQuery        int    `json:"totalQuery"`
	GenerateDataCount int    `json:"generateDataCount"`
}

// DecrementAccess reduces the remaining search quota by one, floored at
// zero, and returns the new value.
func (u *UserSession) DecrementAccess() int {
	if u.CurrentAccess > 0 {
		u.CurrentAccess--
	}
	return u.CurrentAccess
}

var nonNumeric = regexp.MustCompile(`[^0-9-]`)

// ParseCount parses a counter cell permissively: every character that is not
// a digit or minus sign is stripped before parsing, and anything that still
// fails to parse counts as zero. Credential sheets are hand-edited, so this
// never returns an error.
func ParseCount(s string) int {
	n, err := strconv.Atoi(nonNumeric.ReplaceAllString(s, ""))
	if err != nil {
		return 0
	}
	return n
}

var credentialKeySpace = regexp.MustCompile(`\s+`)

// NormalizeCredentialRow rewrites a USER-sheet row for lookup: keys are
// lower-cased, trimmed, and space runs collapsed to underscores; values are
// trimmed.
func NormalizeCredentialRow(raw map[string]string) map[string]string {
	nr := make(map[string]string, len(raw))
	for k, v := range raw {
		nk := credentialKeySpace.ReplaceAllString(strings.ToLower(strings.TrimSpace(k)), "_")
		nr[nk] = strings.TrimSpace(v)
	}
	return nr
}

func firstOf(row map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := row[k]; v != "" {
			return v
		}
	}
	return ""
}

// UserFromCredentialRow builds a UserSession from a normalized USER-sheet
// row, accepting the column-name variants seen in the wild.
func UserFromCredentialRow(row map[string]string) UserSession {
	return UserSession{
		Email:             firstOf(row, "email", "e"),
		SheetName:         firstOf(row, "sheet_name", "sheetname"),
		SearchLimit:       ParseCount(firstOf(row, "search_limit_access", "search_limit")),
		CurrentAccess:     ParseCount(firstOf(row, "current_access", "currentaccess")),
		TotalQuery:        ParseCount(row["total_query"]),
		GenerateDataCount: ParseCount(row["generate_data_count"]),
	}
}
