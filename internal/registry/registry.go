// Package registry is the local durable storage: the report list and the
// auth token live in a single SQLite file and outlive backend sessions.
// Backend sessions expire server-side; once one has been purged the stored
// report links go stale, and removing the row is the only reconciliation.
package registry

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"femstat/internal/errors"
	"femstat/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS reports (
	id           TEXT PRIMARY KEY,
	session_id   TEXT NOT NULL,
	title        TEXT NOT NULL,
	html_url     TEXT NOT NULL DEFAULT '',
	pdf_url      TEXT NOT NULL DEFAULT '',
	docx_url     TEXT NOT NULL DEFAULT '',
	generated_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_reports_generated_at ON reports(generated_at DESC);

CREATE TABLE IF NOT EXISTS auth_token (
	id           INTEGER PRIMARY KEY CHECK (id = 1),
	access_token TEXT NOT NULL,
	email        TEXT NOT NULL,
	saved_at     TIMESTAMP NOT NULL
);
`

// Registry owns the SQLite handle. One writer at a time; reads share it.
type Registry struct {
	db *sqlx.DB
}

// Open creates or opens the registry database and ensures its schema.
func Open(path string) (*Registry, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create registry directory")
	}

	dsn := path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open registry database")
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to initialize registry schema")
	}

	return &Registry{db: db}, nil
}

// Close releases the database handle.
func (r *Registry) Close() error {
	return r.db.Close()
}

// Append adds one report record. A missing id or timestamp is filled in;
// the list is append-only and duplicates per session are allowed.
func (r *Registry) Append(entry models.ReportEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.GeneratedAt.IsZero() {
		entry.GeneratedAt = time.Now().UTC()
	}
	if entry.Title == "" {
		entry.Title = models.DefaultReportTitle
	}

	_, err := r.db.NamedExec(`
		INSERT INTO reports (id, session_id, title, html_url, pdf_url, docx_url, generated_at)
		VALUES (:id, :session_id, :title, :html_url, :pdf_url, :docx_url, :generated_at)
	`, entry)
	if err != nil {
		return errors.Wrap(err, "failed to append report record")
	}
	return nil
}

// List returns every stored report, newest first.
func (r *Registry) List() ([]models.ReportEntry, error) {
	var entries []models.ReportEntry
	err := r.db.Select(&entries, `
		SELECT id, session_id, title, html_url, pdf_url, docx_url, generated_at
		FROM reports
		ORDER BY generated_at DESC, id
	`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list report records")
	}
	return entries, nil
}

// Remove deletes every report recorded for the session and reports how
// many rows went away.
func (r *Registry) Remove(sessionID string) (int64, error) {
	res, err := r.db.Exec(`DELETE FROM reports WHERE session_id = ?`, sessionID)
	if err != nil {
		return 0, errors.Wrap(err, "failed to remove report records")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "failed to count removed report records")
	}
	return n, nil
}

// StoredToken is the persisted auth credential. It is shown in the UI nav
// but never attached to backend calls.
type StoredToken struct {
	AccessToken string    `db:"access_token"`
	Email       string    `db:"email"`
	SavedAt     time.Time `db:"saved_at"`
}

// SaveToken stores the current token, replacing any previous one.
func (r *Registry) SaveToken(accessToken, email string) error {
	_, err := r.db.Exec(`
		INSERT INTO auth_token (id, access_token, email, saved_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			access_token = excluded.access_token,
			email = excluded.email,
			saved_at = excluded.saved_at
	`, accessToken, email, time.Now().UTC())
	if err != nil {
		return errors.Wrap(err, "failed to save auth token")
	}
	return nil
}

// CurrentToken returns the stored token, or NOT_FOUND when signed out.
func (r *Registry) CurrentToken() (*StoredToken, error) {
	var token StoredToken
	err := r.db.Get(&token, `SELECT access_token, email, saved_at FROM auth_token WHERE id = 1`)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("auth token")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read auth token")
	}
	return &token, nil
}

// ClearToken signs the local user out.
func (r *Registry) ClearToken() error {
	if _, err := r.db.Exec(`DELETE FROM auth_token WHERE id = 1`); err != nil {
		return errors.Wrap(err, "failed to clear auth token")
	}
	return nil
}
