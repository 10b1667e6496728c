package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leads-cli/internal/session"
	"github.com/sells-group/leads-cli/pkg/sheets"
	"github.com/sells-group/leads-cli/pkg/webhook"
)

type stubSheet struct {
	tables map[string]sheets.Table
}

func (s stubSheet) FetchTable(_ context.Context, sheetName string) (sheets.Table, error) {
	return s.tables[sheetName], nil
}

type stubSearch struct {
	result *webhook.SearchResult
}

func (s stubSearch) Search(_ context.Context, _, _ string) (*webhook.SearchResult, error) {
	if s.result != nil {
		return s.result, nil
	}
	return &webhook.SearchResult{}, nil
}

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	sheet := stubSheet{tables: map[string]sheets.Table{
		"USER": {
			Headers: []string{"Email", "Password", "Current Access"},
			Rows: []map[string]string{
				{"Email": "user@example.com", "Password": "hunter2", "Current Access": "5"},
			},
		},
		"Sheet1": {
			Headers: []string{"Name", "keyword"},
			Rows: []map[string]string{
				{"Name": "Acme", "keyword": "plumber"},
				{"Name": "Acme", "keyword": "plumber"},
				{"Name": "Beta", "keyword": "roofer"},
			},
		},
	}}
	o := session.New(session.Config{}, sheet, stubSearch{}, nil, nil)
	require.NoError(t, o.FetchSheet(context.Background(), ""))
	return newRouter(o)
}

func TestHealth(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	testRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestLoginEndpoint(t *testing.T) {
	t.Parallel()

	r := testRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/login",
		strings.NewReader(`{"email":"user@example.com","password":"hunter2"}`)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"email":"user@example.com"`)
}

func TestLoginEndpoint_BadCredentials(t *testing.T) {
	t.Parallel()

	r := testRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/login",
		strings.NewReader(`{"email":"user@example.com","password":"wrong"}`)))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid email or password")
}

func TestLoginEndpoint_MalformedBody(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	testRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/login",
		strings.NewReader(`{not json`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchEndpoint_ShortQuery(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	testRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/search",
		strings.NewReader(`{"query":"pipes"}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "at least 6 characters")
}

func TestSearchEndpoint(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	testRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/search",
		strings.NewReader(`{"query":"plumbers austin"}`)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"remaining_access"`)
}

func TestRowsEndpoint(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	testRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/rows", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	// Deduplicated view: two unique rows, one duplicate counted.
	assert.Contains(t, body, `"total":2`)
	assert.Contains(t, body, `"duplicates":1`)
	assert.Contains(t, body, `"page_count":1`)
}

func TestRowsEndpoint_Filtered(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	testRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/rows?keyword=roofer", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":1`)
	assert.Contains(t, rec.Body.String(), "Beta")
	assert.NotContains(t, rec.Body.String(), "Acme")
}

func TestRowsEndpoint_Sorted(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	testRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/rows?sort=Name&dir=desc", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Less(t, strings.Index(body, "Beta"), strings.Index(body, "Acme"))
}

func TestDuplicatesToggleEndpoint(t *testing.T) {
	t.Parallel()

	r := testRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/duplicates/toggle", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"showDuplicates":true}`, rec.Body.String())

	// With duplicates visible the raw set is served.
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/rows", nil))
	assert.Contains(t, rec.Body.String(), `"total":3`)
}

func TestDuplicatesRemoveEndpoint(t *testing.T) {
	t.Parallel()

	r := testRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/duplicates/remove", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"Removed":1`)
}

func TestExportEndpoint_CSV(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	testRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/export", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "sheet-data.csv")
	assert.Contains(t, rec.Body.String(), `"Acme"`)
}

func TestExportEndpoint_XLSX(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	testRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/export?format=xlsx", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "spreadsheetml")
	assert.NotZero(t, rec.Body.Len())
}

func TestLogoutEndpoint(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	testRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/logout", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"signed out"}`, rec.Body.String())
}
