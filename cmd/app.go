package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leads-cli/internal/config"
	"github.com/sells-group/leads-cli/internal/session"
	"github.com/sells-group/leads-cli/internal/store"
	"github.com/sells-group/leads-cli/pkg/sheets"
	"github.com/sells-group/leads-cli/pkg/webhook"
)

// appEnv bundles the wired orchestrator and its resources for a command.
type appEnv struct {
	orch  *session.Orchestrator
	cache store.SessionStore
}

func (e *appEnv) Close() {
	if e.cache != nil {
		_ = e.cache.Close()
	}
}

// initApp wires config into clients and the session orchestrator, and
// restores any cached session.
func initApp(ctx context.Context, c *config.Config) (*appEnv, error) {
	if c.Sheet.ID == "" {
		return nil, eris.New("sheet.id is not configured")
	}

	sheetClient := sheets.NewClient(c.Sheet.ID)

	var searchClient webhook.Client
	var deleter session.DuplicateDeleter
	if c.Webhook.SearchURL != "" || c.Webhook.RemoveDuplicatesURL != "" {
		searchClient = webhook.NewClient(c.Webhook.SearchURL,
			webhook.WithDeleteURL(c.Webhook.RemoveDuplicatesURL))
		if c.Webhook.RemoveDuplicatesURL != "" {
			deleter = searchClient
		}
	}

	cache, err := store.NewSQLite(c.Store.Path)
	if err != nil {
		return nil, eris.Wrap(err, "init session cache")
	}

	orch := session.New(session.Config{
		SheetID:     c.Sheet.ID,
		UserTable:   c.Sheet.UserTable,
		DefaultTab:  c.Sheet.DefaultTab,
		AutoRefresh: time.Duration(c.Refresh.IntervalSecs) * time.Second,
	}, sheetClient, searchClient, deleter, cache)

	if _, err := orch.Resume(ctx); err != nil {
		return nil, eris.Wrap(err, "resume session")
	}

	return &appEnv{orch: orch, cache: cache}, nil
}
