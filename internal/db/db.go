package db

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the database connection
type DB struct {
	*sql.DB
	dbPath string
}

// Init initializes the database connection and runs migrations
func Init(dbPath string) (*DB, error) {
	// Ensure data directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	sqlDB, err := sql.Open("sqlite", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	db := &DB{sqlDB, dbPath}

	if err := db.migrate(); err != nil {
		sqlDB.Close()
		return nil, err
	}

	return db, nil
}

// GetDBPath returns the database file path
func (db *DB) GetDBPath() string {
	return db.dbPath
}

// migrate runs database migrations
func (db *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS auth_events (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			email TEXT,
			remote_addr TEXT,
			detail TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_auth_events_created_at ON auth_events(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_auth_events_kind ON auth_events(kind)`,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return err
		}
	}
	return nil
}

// InsertAuthEvent records an authentication event
func (db *DB) InsertAuthEvent(event *AuthEvent) error {
	_, err := db.Exec(
		`INSERT INTO auth_events (id, kind, email, remote_addr, detail, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		event.ID, event.Kind, event.Email, event.RemoteAddr, event.Detail, event.CreatedAt,
	)
	return err
}

// RecentAuthEvents returns the most recent authentication events, newest first
func (db *DB) RecentAuthEvents(limit int) ([]*AuthEvent, error) {
	rows, err := db.Query(
		`SELECT id, kind, email, remote_addr, detail, created_at
		 FROM auth_events ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*AuthEvent
	for rows.Next() {
		var e AuthEvent
		var createdAt time.Time
		if err := rows.Scan(&e.ID, &e.Kind, &e.Email, &e.RemoteAddr, &e.Detail, &createdAt); err != nil {
			return nil, err
		}
		e.CreatedAt = createdAt
		events = append(events, &e)
	}
	return events, rows.Err()
}

// CountAuthEvents returns the number of recorded events of a given kind.
// An empty kind counts all events.
func (db *DB) CountAuthEvents(kind string) (int, error) {
	var count int
	var err error
	if kind == "" {
		err = db.QueryRow(`SELECT COUNT(*) FROM auth_events`).Scan(&count)
	} else {
		err = db.QueryRow(`SELECT COUNT(*) FROM auth_events WHERE kind = ?`, kind).Scan(&count)
	}
	return count, err
}
