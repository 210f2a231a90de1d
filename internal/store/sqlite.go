package store

import (
    "context"
    "database/sql"
    "fmt"
    "time"

    _ "modernc.org/sqlite"
)

// SQLite is a KV backed by a single-file SQLite database.
type SQLite struct {
    db *sql.DB
}

// OpenSQLite opens (and if needed creates) the database at path and applies
// the schema. The schema statement is idempotent.
func OpenSQLite(path string) (*SQLite, error) {
    db, err := sql.Open("sqlite", path)
    if err != nil {
        return nil, fmt.Errorf("open sqlite: %w", err)
    }
    // single writer; the kv table sees small values only
    db.SetMaxOpenConns(1)
    ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()
    if _, err := db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS kv (
            key        TEXT PRIMARY KEY,
            value      TEXT NOT NULL,
            updated_at INTEGER NOT NULL
        )`); err != nil {
        db.Close()
        return nil, fmt.Errorf("init schema: %w", err)
    }
    return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) Get(ctx context.Context, key string) (string, bool, error) {
    var v string
    err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&v)
    if err == sql.ErrNoRows {
        return "", false, nil
    }
    if err != nil {
        return "", false, err
    }
    return v, true, nil
}

func (s *SQLite) Set(ctx context.Context, key, value string) error {
    _, err := s.db.ExecContext(ctx, `
        INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
        ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
        key, value, time.Now().UnixMilli())
    return err
}

func (s *SQLite) Keys(ctx context.Context) ([]string, error) {
    rows, err := s.db.QueryContext(ctx, `SELECT key FROM kv ORDER BY key`)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []string
    for rows.Next() {
        var k string
        if err := rows.Scan(&k); err != nil {
            return nil, err
        }
        out = append(out, k)
    }
    return out, rows.Err()
}

func (s *SQLite) Remove(ctx context.Context, key string) error {
    _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
    return err
}
