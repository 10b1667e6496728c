package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/leads-cli/internal/model"
)

// sessionKey is the fixed cache key: there is exactly one persisted session
// per database file.
const sessionKey = "user"

// SQLiteStore implements SessionStore using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path, configures WAL mode,
// and creates the session table if missing.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}

	const migration = `
CREATE TABLE IF NOT EXISTS session_cache (
	key        TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);`
	if _, err := db.Exec(migration); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "sqlite: migrate")
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Save(ctx context.Context, u model.UserSession) error {
	payload, err := json.Marshal(u)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal session")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO session_cache (key, payload, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		sessionKey, string(payload), time.Now().UTC(),
	)
	return eris.Wrap(err, "sqlite: save session")
}

func (s *SQLiteStore) Load(ctx context.Context) (*model.UserSession, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM session_cache WHERE key = ?`, sessionKey,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load session")
	}

	var u model.UserSession
	if err := json.Unmarshal([]byte(payload), &u); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal session")
	}
	return &u, nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM session_cache WHERE key = ?`, sessionKey,
	)
	return eris.Wrap(err, "sqlite: clear session")
}
