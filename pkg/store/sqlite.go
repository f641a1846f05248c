package store

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/matzehuels/netdraw/pkg/errors"
)

// SQLiteStore keeps diagrams in a SQLite database.
type SQLiteStore struct {
	conn *sql.DB
	path string
}

// NewSQLiteStore opens (or creates) the database at dbPath.
// If dbPath is empty, defaults to ~/.config/netdraw/netdraw.db
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		dbPath = filepath.Join(home, ".config", "netdraw", "netdraw.db")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time.
	conn.SetMaxOpenConns(1)

	s := &SQLiteStore{conn: conn, path: dbPath}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS diagrams (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			document TEXT NOT NULL,
			devices INTEGER NOT NULL DEFAULT 0,
			connections INTEGER NOT NULL DEFAULT 0,
			texts INTEGER NOT NULL DEFAULT 0,
			pages INTEGER NOT NULL DEFAULT 1,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_diagrams_updated ON diagrams(updated_at)`,
	}
	for _, m := range migrations {
		if _, err := s.conn.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %s: %w", m, err)
		}
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*Record, error) {
	if err := errors.ValidateStoreID(id); err != nil {
		return nil, err
	}
	var (
		rec              Record
		doc              string
		created, updated string
	)
	err := s.conn.QueryRowContext(ctx,
		`SELECT id, name, document, created_at, updated_at FROM diagrams WHERE id = ?`, id,
	).Scan(&rec.ID, &rec.Name, &doc, &created, &updated)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("query diagram: %w", err)
	}
	if rec.Document, err = decodeDocument(id, []byte(doc)); err != nil {
		return nil, err
	}
	rec.CreatedAt = parseTime(created)
	rec.UpdatedAt = parseTime(updated)
	return &rec, nil
}

func (s *SQLiteStore) Put(ctx context.Context, rec *Record) error {
	if err := prepare(rec, time.Now().UTC()); err != nil {
		return err
	}
	doc, err := encodeDocument(rec.Document)
	if err != nil {
		return err
	}
	st := rec.Document.Stats()
	// created_at is kept from the existing row on conflict.
	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO diagrams (id, name, document, devices, connections, texts, pages, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			document = excluded.document,
			devices = excluded.devices,
			connections = excluded.connections,
			texts = excluded.texts,
			pages = excluded.pages,
			updated_at = excluded.updated_at`,
		rec.ID, rec.Name, string(doc), st.Devices, st.Connections, st.Texts, st.Pages,
		formatTime(rec.CreatedAt), formatTime(rec.UpdatedAt))
	if err != nil {
		return fmt.Errorf("upsert diagram: %w", err)
	}
	var created string
	if err := s.conn.QueryRowContext(ctx, `SELECT created_at FROM diagrams WHERE id = ?`, rec.ID).Scan(&created); err == nil {
		rec.CreatedAt = parseTime(created)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, name, devices, connections, texts, pages, updated_at FROM diagrams`)
	if err != nil {
		return nil, fmt.Errorf("list diagrams: %w", err)
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var (
			sm      Summary
			updated string
		)
		if err := rows.Scan(&sm.ID, &sm.Name, &sm.Stats.Devices, &sm.Stats.Connections,
			&sm.Stats.Texts, &sm.Stats.Pages, &updated); err != nil {
			return nil, fmt.Errorf("scan diagram: %w", err)
		}
		sm.UpdatedAt = parseTime(updated)
		out = append(out, sm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list diagrams: %w", err)
	}
	sortSummaries(out)
	return out, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if err := errors.ValidateStoreID(id); err != nil {
		return err
	}
	res, err := s.conn.ExecContext(ctx, `DELETE FROM diagrams WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete diagram: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound(id)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

// Path returns the database file.
func (s *SQLiteStore) Path() string {
	return s.path
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

var _ Store = (*SQLiteStore)(nil)
