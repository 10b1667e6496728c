// Package session drives the lead-dashboard workflow: login against the
// USER sheet, webhook searches, deduplication, quota accounting, and
// duplicate removal.
package session

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leads-cli/internal/model"
	"github.com/sells-group/leads-cli/internal/store"
	"github.com/sells-group/leads-cli/pkg/sheets"
	"github.com/sells-group/leads-cli/pkg/webhook"
)

// State is the orchestrator lifecycle state.
type State string

const (
	StateAnonymous      State = "anonymous"
	StateAuthenticating State = "authenticating"
	StateAuthenticated  State = "authenticated"
	StateSearching      State = "searching"
)

// SheetClient fetches sheet tabs. Satisfied by sheets.Client.
type SheetClient interface {
	FetchTable(ctx context.Context, sheetName string) (sheets.Table, error)
}

// SearchClient dispatches search queries. Satisfied by webhook.Client.
type SearchClient interface {
	Search(ctx context.Context, query, email string) (*webhook.SearchResult, error)
}

// DuplicateDeleter removes sheet rows remotely. Satisfied by
// webhook.Client; a nil deleter means remote deletion is not configured
// and removal falls back to local-only.
type DuplicateDeleter interface {
	DeleteDuplicates(ctx context.Context, req webhook.DeleteDuplicatesRequest) (string, error)
}

// Config is the explicit orchestrator configuration. Optional features
// (deletion endpoint, auto-refresh) default to disabled.
type Config struct {
	SheetID    string
	UserTable  string // credential tab, default "USER"
	DefaultTab string // lead tab when no user sheet is known, default "Sheet1"

	// MinQueryChars rejects shorter search queries before dispatch.
	// Default 6.
	MinQueryChars int

	// AutoRefresh re-runs the last query on this interval. Zero disables.
	AutoRefresh time.Duration

	// Foreground reports whether this session is the active foreground
	// context; auto-refresh ticks are skipped while it returns false.
	// Nil means always foreground.
	Foreground func() bool
}

func (c Config) withDefaults() Config {
	if c.UserTable == "" {
		c.UserTable = "USER"
	}
	if c.DefaultTab == "" {
		c.DefaultTab = "Sheet1"
	}
	if c.MinQueryChars <= 0 {
		c.MinQueryChars = 6
	}
	return c
}

// Orchestrator owns the live UserSession and the last-fetched row set. All
// operations serialize on one mutex; a search additionally holds an
// in-flight flag across its I/O so an overlapping search is rejected
// instead of racing.
type Orchestrator struct {
	cfg     Config
	sheet   SheetClient
	search  SearchClient
	deleter DuplicateDeleter
	cache   store.SessionStore

	mu             sync.Mutex
	state          State
	user           *model.UserSession
	inFlight       bool
	lastQuery      string
	leads          []map[string]any
	raw            []model.Lead // as fetched, newest first
	deduped        []model.Lead
	duplicates     []model.DuplicateMarker
	duplicateCount int
	showDuplicates bool
}

// New creates an orchestrator. deleter and cache may be nil (remote
// deletion and session persistence disabled respectively).
func New(cfg Config, sheet SheetClient, search SearchClient, deleter DuplicateDeleter, cache store.SessionStore) *Orchestrator {
	return &Orchestrator{
		cfg:     cfg.withDefaults(),
		sheet:   sheet,
		search:  search,
		deleter: deleter,
		cache:   cache,
		state:   StateAnonymous,
	}
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// User returns a copy of the signed-in session, or nil when anonymous.
func (o *Orchestrator) User() *model.UserSession {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.user == nil {
		return nil
	}
	u := *o.user
	return &u
}

// VisibleRows returns the row set the duplicates toggle currently selects:
// all raw rows, or the deduplicated set.
func (o *Orchestrator) VisibleRows() []model.Lead {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.showDuplicates {
		return append([]model.Lead(nil), o.raw...)
	}
	return append([]model.Lead(nil), o.deduped...)
}

// DuplicateCount returns the number of duplicates in the last-fetched rows.
func (o *Orchestrator) DuplicateCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.duplicateCount
}

// LastQuery returns the last successfully dispatched query, if any.
func (o *Orchestrator) LastQuery() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastQuery
}

// ToggleDuplicatesVisible flips between showing all raw rows and the
// deduplicated set, and returns the new visibility. Pure presentation;
// counts are untouched.
func (o *Orchestrator) ToggleDuplicatesVisible() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.showDuplicates = !o.showDuplicates
	return o.showDuplicates
}

// Login matches credentials against the USER tab: email case-insensitively,
// password exactly. On success the session is cached and the state becomes
// authenticated. A failed match reports AuthError without revealing which
// part was wrong; a transport failure reports ConnectivityError.
func (o *Orchestrator) Login(ctx context.Context, email, password string) (*model.UserSession, error) {
	o.setState(StateAuthenticating)

	table, err := o.sheet.FetchTable(ctx, o.cfg.UserTable)
	if err != nil {
		o.setState(StateAnonymous)
		return nil, &ConnectivityError{Op: "login", Err: err}
	}

	for _, row := range table.Rows {
		nr := model.NormalizeCredentialRow(row)
		e := credentialField(nr, "email", "e")
		p := credentialField(nr, "password", "p")
		if !strings.EqualFold(e, strings.TrimSpace(email)) || p != password {
			continue
		}

		u := model.UserFromCredentialRow(nr)
		o.mu.Lock()
		o.user = &u
		o.state = StateAuthenticated
		o.mu.Unlock()

		o.persistUser(ctx, u)
		return o.User(), nil
	}

	o.setState(StateAnonymous)
	return nil, &AuthError{}
}

// Resume restores a cached session, then refreshes its counters from the
// credential sheet best-effort. Without a cache (or a cached session) the
// orchestrator stays anonymous.
func (o *Orchestrator) Resume(ctx context.Context) (*model.UserSession, error) {
	if o.cache == nil {
		return nil, nil
	}
	u, err := o.cache.Load(ctx)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, nil
	}

	o.mu.Lock()
	o.user = u
	o.state = StateAuthenticated
	o.mu.Unlock()

	if err := o.refreshUser(ctx); err != nil {
		zap.L().Debug("session refresh after resume failed", zap.Error(err))
	}
	return o.User(), nil
}

// Logout clears the cached session and returns to anonymous.
func (o *Orchestrator) Logout(ctx context.Context) {
	if o.cache != nil {
		if err := o.cache.Clear(ctx); err != nil {
			zap.L().Warn("clear cached session", zap.Error(err))
		}
	}
	o.mu.Lock()
	o.user = nil
	o.state = StateAnonymous
	o.mu.Unlock()
}

// SearchOutcome is the result of a completed search or reload.
type SearchOutcome struct {
	Leads           []map[string]any
	Rows            []model.Lead
	DuplicateCount  int
	RemainingAccess int
}

// Search dispatches a query and runs the full pipeline in order: normalize
// the response rows (reversing once so the newest appear first),
// deduplicate, decrement the local quota, then best-effort refresh the
// authoritative counters and re-sync the lead tab. The best-effort steps
// are logged and swallowed; their failure never fails the search.
func (o *Orchestrator) Search(ctx context.Context, query string) (*SearchOutcome, error) {
	trimmed := strings.TrimSpace(query)
	if utf8.RuneCountInString(trimmed) < o.cfg.MinQueryChars {
		return nil, &ValidationError{
			Reason: "please enter at least 6 characters to search",
		}
	}
	if o.search == nil {
		return nil, eris.New("session: no search webhook configured")
	}

	o.mu.Lock()
	if o.inFlight {
		o.mu.Unlock()
		return nil, ErrSearchInFlight
	}
	o.inFlight = true
	prevState := o.state
	o.state = StateSearching
	email := ""
	if o.user != nil {
		email = o.user.Email
	}
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.inFlight = false
		if o.user != nil {
			o.state = StateAuthenticated
		} else if o.state == StateSearching {
			o.state = prevState
		}
		o.mu.Unlock()
	}()

	res, err := o.search.Search(ctx, trimmed, email)
	if err != nil {
		return nil, &ConnectivityError{Op: "search", Err: err}
	}

	rows := ingestRows(res)

	o.mu.Lock()
	o.commitRows(rows)
	o.leads = res.Leads
	o.lastQuery = trimmed
	var updated *model.UserSession
	if o.user != nil {
		o.user.DecrementAccess()
		u := *o.user
		updated = &u
	}
	o.mu.Unlock()

	if updated != nil {
		o.persistUser(ctx, *updated)
	}

	// Authoritative counters may have moved server-side; a failure here
	// keeps the locally decremented values.
	if err := o.refreshUser(ctx); err != nil {
		zap.L().Debug("authoritative session refresh failed", zap.Error(err))
	}
	if err := o.FetchSheet(ctx, ""); err != nil {
		zap.L().Debug("sheet re-sync after search failed", zap.Error(err))
	}

	return o.outcome(), nil
}

// Reload re-issues the last successful query, or re-fetches the current
// lead tab directly when no query has run yet.
func (o *Orchestrator) Reload(ctx context.Context) (*SearchOutcome, error) {
	if q := o.LastQuery(); q != "" {
		return o.Search(ctx, q)
	}
	if err := o.FetchSheet(ctx, ""); err != nil {
		return nil, err
	}
	return o.outcome(), nil
}

// FetchSheet loads a lead tab directly, bypassing the search webhook. An
// empty name means the signed-in user's tab, falling back to the default.
func (o *Orchestrator) FetchSheet(ctx context.Context, sheetName string) error {
	if sheetName == "" {
		sheetName = o.currentTab()
	}

	table, err := o.sheet.FetchTable(ctx, sheetName)
	if err != nil {
		return &ConnectivityError{Op: "fetch sheet", Err: err}
	}

	rows := make([]model.Lead, 0, len(table.Rows))
	for _, r := range table.Rows {
		rows = append(rows, model.Normalize(r, table.Headers))
	}
	reverse(rows)

	o.mu.Lock()
	o.commitRows(rows)
	o.mu.Unlock()
	return nil
}

// RemoveOutcome describes how a duplicate-removal request was resolved.
type RemoveOutcome struct {
	// Removed is the number of duplicate rows removed (or zero on no-op).
	Removed int
	// Remote is true when the deletion service performed the removal.
	Remote bool
	// Message is the human-readable status to surface.
	Message string
	// FallbackReason is set when remote deletion failed and the rows were
	// removed locally instead.
	FallbackReason string
}

// RemoveDuplicates recomputes duplicates from the last-fetched rows and
// removes them. With a deletion service configured it dispatches the
// duplicate set and refreshes from source on success, falling back to
// local-only removal on failure; without one it removes locally and says
// how to enable remote deletion.
func (o *Orchestrator) RemoveDuplicates(ctx context.Context) (*RemoveOutcome, error) {
	o.mu.Lock()
	res := model.Dedupe(o.raw)
	sheetName := o.currentTabLocked()
	o.mu.Unlock()

	if res.DuplicateCount == 0 {
		return &RemoveOutcome{Message: "no duplicates to remove"}, nil
	}

	if o.deleter == nil {
		o.removeLocally(res)
		return &RemoveOutcome{
			Removed: res.DuplicateCount,
			Message: "removed duplicates locally; configure a remove-duplicates webhook to delete them from the sheet",
		}, nil
	}

	payload := make([]map[string]any, len(res.Duplicates))
	for i, d := range res.Duplicates {
		payload[i] = d.AsPayload()
	}

	msg, err := o.deleter.DeleteDuplicates(ctx, webhook.DeleteDuplicatesRequest{
		SheetID:    o.cfg.SheetID,
		SheetName:  sheetName,
		Duplicates: payload,
	})
	if err != nil {
		zap.L().Warn("remote duplicate deletion failed, removing locally",
			zap.Int("duplicates", res.DuplicateCount),
			zap.Error(err),
		)
		o.removeLocally(res)
		return &RemoveOutcome{
			Removed:        res.DuplicateCount,
			Message:        "failed to remove duplicates remotely; removed locally instead",
			FallbackReason: err.Error(),
		}, nil
	}

	if msg == "" {
		msg = "duplicate rows removed"
	}
	if err := o.FetchSheet(ctx, sheetName); err != nil {
		zap.L().Debug("sheet refresh after duplicate deletion failed", zap.Error(err))
	}
	return &RemoveOutcome{Removed: res.DuplicateCount, Remote: true, Message: msg}, nil
}

// StartAutoRefresh periodically re-runs the last query until ctx is done.
// A tick is skipped silently while the session is backgrounded, a search is
// in flight, or no query has run yet. No-op when the interval is disabled.
func (o *Orchestrator) StartAutoRefresh(ctx context.Context) {
	if o.cfg.AutoRefresh <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(o.cfg.AutoRefresh)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			if o.cfg.Foreground != nil && !o.cfg.Foreground() {
				continue
			}
			q := o.LastQuery()
			if q == "" {
				continue
			}
			if _, err := o.Search(ctx, q); err != nil {
				zap.L().Debug("auto-refresh search failed", zap.Error(err))
			}
		}
	}()
}

// commitRows replaces the row set and its derived dedupe state. Caller
// holds o.mu.
func (o *Orchestrator) commitRows(rows []model.Lead) {
	res := model.Dedupe(rows)
	o.raw = rows
	o.deduped = res.Unique
	o.duplicates = res.Duplicates
	o.duplicateCount = res.DuplicateCount
}

// removeLocally makes the deduplicated set the new raw set.
func (o *Orchestrator) removeLocally(res model.DedupeResult) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.raw = res.Unique
	o.deduped = res.Unique
	o.duplicates = nil
	o.duplicateCount = 0
	o.showDuplicates = false
}

// refreshUser re-reads the signed-in user's credential row and replaces the
// session wholesale when found.
func (o *Orchestrator) refreshUser(ctx context.Context) error {
	o.mu.Lock()
	email := ""
	if o.user != nil {
		email = o.user.Email
	}
	o.mu.Unlock()
	if email == "" {
		return nil
	}

	table, err := o.sheet.FetchTable(ctx, o.cfg.UserTable)
	if err != nil {
		return err
	}

	for _, row := range table.Rows {
		nr := model.NormalizeCredentialRow(row)
		if !strings.EqualFold(credentialField(nr, "email", "e"), email) {
			continue
		}
		u := model.UserFromCredentialRow(nr)
		o.mu.Lock()
		o.user = &u
		o.mu.Unlock()
		o.persistUser(ctx, u)
		return nil
	}
	return nil
}

func (o *Orchestrator) persistUser(ctx context.Context, u model.UserSession) {
	if o.cache == nil {
		return
	}
	if err := o.cache.Save(ctx, u); err != nil {
		zap.L().Warn("persist session", zap.Error(err))
	}
}

func (o *Orchestrator) outcome() *SearchOutcome {
	o.mu.Lock()
	defer o.mu.Unlock()

	rows := o.deduped
	if o.showDuplicates {
		rows = o.raw
	}
	remaining := 0
	if o.user != nil {
		remaining = o.user.CurrentAccess
	}
	return &SearchOutcome{
		Leads:           o.leads,
		Rows:            append([]model.Lead(nil), rows...),
		DuplicateCount:  o.duplicateCount,
		RemainingAccess: remaining,
	}
}

func (o *Orchestrator) currentTab() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.currentTabLocked()
}

func (o *Orchestrator) currentTabLocked() string {
	if o.user != nil && o.user.SheetName != "" {
		return o.user.SheetName
	}
	return o.cfg.DefaultTab
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

func credentialField(row map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := row[k]; v != "" {
			return v
		}
	}
	return ""
}

// ingestRows normalizes whichever shape the webhook returned and reverses
// the order once: the sheet appends chronologically, the dashboard shows
// newest first.
func ingestRows(res *webhook.SearchResult) []model.Lead {
	var rows []model.Lead
	if res.CSV != "" {
		t := sheets.ParseCSV(res.CSV)
		rows = make([]model.Lead, 0, len(t.Rows))
		for _, r := range t.Rows {
			rows = append(rows, model.Normalize(r, t.Headers))
		}
	} else {
		rows = make([]model.Lead, 0, len(res.Rows))
		for _, r := range res.Rows {
			row, order := model.CoerceRow(r)
			rows = append(rows, model.Normalize(row, order))
		}
	}
	reverse(rows)
	return rows
}

func reverse(rows []model.Lead) {
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
}
