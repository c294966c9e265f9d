package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// SQLite is a Store kept in a local SQLite database file.
// Each row of the nodes table is one node, keyed by its absolute path.
type SQLite struct {
	mu sync.Mutex
	db *sql.DB
}

var _ Store = (*SQLite)(nil)

// OpenSQLite opens (creating if needed) the database at dbPath and makes sure the root node exists.
func OpenSQLite(dbPath string) (*SQLite, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("sqlite store: empty database path")
	}
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", dbPath, err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	now := time.Now()
	_, err = db.Exec(`INSERT OR IGNORE INTO nodes (path, parent, data, created_at, modified_at) VALUES ('/', '', x'', ?, ?);`, now, now)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create root node: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Ensure(p string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT OR IGNORE INTO nodes (path, parent, data, created_at, modified_at) VALUES (?, ?, x'', ?, ?);`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for _, current := range ancestors(p) {
		if _, err := stmt.Exec(current, parentOf(current), now, now); err != nil {
			tx.Rollback()
			return fmt.Errorf("ensure %s: %w", current, err)
		}
	}
	return tx.Commit()
}

func (s *SQLite) Delete(p string, recursive bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p == "/" {
		return fmt.Errorf("delete %s: cannot delete the root node", p)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	if err := existsTx(tx, p); err != nil {
		tx.Rollback()
		return fmt.Errorf("delete %s: %w", p, err)
	}

	var childCount int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM nodes WHERE parent = ?;`, p).Scan(&childCount); err != nil {
		tx.Rollback()
		return fmt.Errorf("delete %s: failed to count children: %w", p, err)
	}
	if childCount > 0 && !recursive {
		tx.Rollback()
		return fmt.Errorf("delete %s: %w", p, ErrNotEmpty)
	}

	prefix := p + "/"
	_, err = tx.Exec(`DELETE FROM nodes WHERE path = ? OR substr(path, 1, length(?)) = ?;`, p, prefix, prefix)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("delete %s: %w", p, err)
	}
	return tx.Commit()
}

func (s *SQLite) Children(p string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := existsTx(s.db, p); err != nil {
		return nil, fmt.Errorf("children %s: %w", p, err)
	}

	rows, err := s.db.Query(`SELECT path FROM nodes WHERE parent = ? ORDER BY path;`, p)
	if err != nil {
		return nil, fmt.Errorf("children %s: %w", p, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var child string
		if err := rows.Scan(&child); err != nil {
			return nil, fmt.Errorf("failed to scan child of %s: %w", p, err)
		}
		names = append(names, baseName(child))
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating children of %s: %w", p, err)
	}
	return names, nil
}

func (s *SQLite) Get(p string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var data []byte
	err := s.db.QueryRow(`SELECT data FROM nodes WHERE path = ?;`, p).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get %s: %w", p, ErrNoNode)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", p, err)
	}
	return data, nil
}

func (s *SQLite) Set(p string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if data == nil {
		data = []byte{}
	}
	result, err := s.db.Exec(`UPDATE nodes SET data = ?, modified_at = ? WHERE path = ?;`, data, time.Now(), p)
	if err != nil {
		return fmt.Errorf("set %s: %w", p, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set %s: %w", p, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("set %s: %w", p, ErrNoNode)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

type queryRower interface {
	QueryRow(query string, args ...any) *sql.Row
}

// existsTx returns ErrNoNode when p has no row.
func existsTx(q queryRower, p string) error {
	var one int
	err := q.QueryRow(`SELECT 1 FROM nodes WHERE path = ?;`, p).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNoNode
	}
	return err
}
