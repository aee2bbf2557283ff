// Package history persists a per-room transcript of everything the
// bridge accepted or dispatched. The recent window seeds the engine's
// context on startup, and the table doubles as an audit log.
package history

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Entry is one transcript row.
type Entry struct {
	RoomID    string
	MessageID string // empty for outbound rows (responses have no transport id yet)
	SenderID  string
	Role      string // "user" or "assistant"
	Kind      string // response kind; empty for inbound rows
	Text      string
	CreatedAt time.Time
}

// Store is the sqlite-backed transcript store. Safe for concurrent use;
// database/sql serializes access.
type Store struct {
	db *sql.DB
}

// Open creates or opens the store at path and applies pending migrations.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("history: create dir: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("history: open: %w", err)
	}
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("history: load migrations: %w", err)
	}
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("history: migrate driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("history: migrate: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("history: migrate up: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// RecordInbound stores one accepted submission.
func (s *Store) RecordInbound(roomID, messageID, senderID, text string) error {
	_, err := s.db.Exec(
		`INSERT INTO transcript (room_id, message_id, sender_id, role, text) VALUES (?, ?, ?, 'user', ?)`,
		roomID, messageID, senderID, text)
	if err != nil {
		return fmt.Errorf("history: record inbound: %w", err)
	}
	return nil
}

// RecordOutbound stores one dispatched response. The message id stays
// empty: the response has no transport event id at record time, and
// replay synthesizes ids for such rows.
func (s *Store) RecordOutbound(roomID, kind, text string) error {
	_, err := s.db.Exec(
		`INSERT INTO transcript (room_id, sender_id, role, kind, text) VALUES (?, 'robit', 'assistant', ?, ?)`,
		roomID, kind, text)
	if err != nil {
		return fmt.Errorf("history: record outbound: %w", err)
	}
	return nil
}

// Recent returns the last limit entries for a room, oldest first —
// the shape context replay wants.
func (s *Store) Recent(roomID string, limit int) ([]Entry, error) {
	rows, err := s.db.Query(
		`SELECT room_id, message_id, sender_id, role, kind, text, created_at
		 FROM (SELECT * FROM transcript WHERE room_id = ? ORDER BY id DESC LIMIT ?)
		 ORDER BY id ASC`,
		roomID, limit)
	if err != nil {
		return nil, fmt.Errorf("history: recent: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.RoomID, &e.MessageID, &e.SenderID, &e.Role, &e.Kind, &e.Text, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
