// Package storage keeps named documents in a local SQLite database so an
// editing session can be restored after a crash or restart.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/example/labelcanvas/internal/document"
	"github.com/example/labelcanvas/internal/history"
)

// ErrNotFound is returned when no document is saved under a name.
var ErrNotFound = errors.New("storage: document not found")

// DefaultBusyTimeout is the SQLite busy timeout in milliseconds.
const DefaultBusyTimeout = 10000

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	name       TEXT PRIMARY KEY,
	body       TEXT NOT NULL,
	version    INTEGER NOT NULL,
	elements   INTEGER NOT NULL,
	last_op    TEXT NOT NULL DEFAULT '',
	saved_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_documents_saved_at ON documents(saved_at);
`

// Store is a handle on the autosave database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Entry summarises a saved document.
type Entry struct {
	Name     string
	Elements int
	LastOp   history.Op
	SavedAt  time.Time
}

// DefaultPath is the autosave database location under the user config dir.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "labelcanvas", "autosave.db"), nil
}

// Open opens or creates the database at path and applies the schema.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("storage: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", path, err)
	}
	// One connection keeps :memory: databases whole and serialises writers.
	db.SetMaxOpenConns(1)
	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: init schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", DefaultBusyTimeout),
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("storage: %s: %w", p, err)
		}
	}
	return nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save writes doc under name, replacing any earlier copy.
func (s *Store) Save(ctx context.Context, name string, doc document.Document, op history.Op) error {
	if name == "" {
		return errors.New("storage: empty document name")
	}
	body, err := document.EncodeBytes(doc, document.FormatJSON)
	if err != nil {
		return fmt.Errorf("storage: encode %s: %w", name, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (name, body, version, elements, last_op, saved_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			body = excluded.body,
			version = excluded.version,
			elements = excluded.elements,
			last_op = excluded.last_op,
			saved_at = excluded.saved_at
	`, name, string(body), document.Version, len(doc.Elements), string(op), s.now().UnixNano())
	if err != nil {
		return fmt.Errorf("storage: save %s: %w", name, err)
	}
	return nil
}

// Load reads the document saved under name.
func (s *Store) Load(ctx context.Context, name string) (document.Document, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM documents WHERE name = ?`, name).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return document.Document{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return document.Document{}, fmt.Errorf("storage: load %s: %w", name, err)
	}
	doc, err := document.DecodeBytes([]byte(body), document.FormatJSON)
	if err != nil {
		return document.Document{}, fmt.Errorf("storage: decode %s: %w", name, err)
	}
	return doc, nil
}

// List returns saved documents, most recent first.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, elements, last_op, saved_at FROM documents
		ORDER BY saved_at DESC, name
	`)
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var (
			e  Entry
			op string
			at int64
		)
		if err := rows.Scan(&e.Name, &e.Elements, &op, &at); err != nil {
			return nil, fmt.Errorf("storage: list: %w", err)
		}
		e.LastOp = history.Op(op)
		e.SavedAt = time.Unix(0, at)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Delete removes the document saved under name.
func (s *Store) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("storage: delete %s: %w", name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}

// Autosave returns a commit hook that saves every new history state under
// name. Failures are logged and never interrupt editing.
func (s *Store) Autosave(name string, logger *log.Logger) func(history.State) {
	return func(st history.State) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Save(ctx, name, st.Document(), st.Op()); err != nil {
			if logger != nil {
				logger.Printf("autosave: %v", err)
			} else {
				log.Printf("autosave: %v", err)
			}
		}
	}
}
