// Package store persists the signed-in session between CLI invocations.
package store

import (
	"context"

	"github.com/sells-group/leads-cli/internal/model"
)

// SessionStore caches the one live UserSession. The backing sheet remains
// the source of truth; the cache only bridges process restarts.
type SessionStore interface {
	// Save replaces the cached session.
	Save(ctx context.Context, u model.UserSession) error
	// Load returns the cached session, or nil when none is cached.
	Load(ctx context.Context) (*model.UserSession, error)
	// Clear drops the cached session.
	Clear(ctx context.Context) error
	Close() error
}
