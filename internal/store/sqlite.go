package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/Priyan-git/rait-rooms/internal/crypto"
	"github.com/Priyan-git/rait-rooms/internal/models"
)

// SQLiteStore handles SQLite database operations. It is the development
// fallback when no DATABASE_URL is configured.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
// If dbPath is empty, defaults to "./data/rait.db"
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = "./data/rait.db"
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}

	// Initialize schema
	if err := store.initSchema(ctx); err != nil {
		return nil, err
	}

	return store, nil
}

// initSchema creates tables if they don't exist.
func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS rooms (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		locked INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		last_active_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS rooms_last_active_idx ON rooms (last_active_at DESC);

	CREATE TABLE IF NOT EXISTS principals (
		id TEXT PRIMARY KEY,
		public_key TEXT UNIQUE NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database.
func (s *SQLiteStore) Close() {
	s.db.Close()
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// EnsureRoom upserts a directory entry without clobbering an existing name.
func (s *SQLiteStore) EnsureRoom(ctx context.Context, id, defaultName string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rooms (id, name)
		VALUES (?, ?)
		ON CONFLICT (id) DO UPDATE SET last_active_at = CURRENT_TIMESTAMP
	`, id, defaultName)
	return err
}

// RenameRoom overwrites the room name (last-write-wins).
func (s *SQLiteStore) RenameRoom(ctx context.Context, id, name string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE rooms SET name = ? WHERE id = ?
	`, name, id)
	return err
}

// GetRoom retrieves a room by ID. Returns nil when the room does not exist.
func (s *SQLiteStore) GetRoom(ctx context.Context, id string) (*models.Room, error) {
	room := &models.Room{}
	var locked int
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, locked, created_at, last_active_at
		FROM rooms WHERE id = ?
	`, id).Scan(
		&room.ID,
		&room.Name,
		&locked,
		&room.CreatedAt,
		&room.LastActiveAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	room.Locked = locked != 0
	return room, nil
}

// ListRooms retrieves up to limit rooms ordered by recency.
func (s *SQLiteStore) ListRooms(ctx context.Context, limit int) ([]models.Room, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, locked, created_at, last_active_at
		FROM rooms
		ORDER BY last_active_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []models.Room
	for rows.Next() {
		var room models.Room
		var locked int
		err := rows.Scan(
			&room.ID,
			&room.Name,
			&locked,
			&room.CreatedAt,
			&room.LastActiveAt,
		)
		if err != nil {
			return nil, err
		}
		room.Locked = locked != 0
		rooms = append(rooms, room)
	}

	return rooms, rows.Err()
}

// TouchRoom advances the last_active_at timestamp.
//
// SQLite's CURRENT_TIMESTAMP has second resolution, so the explicit
// millisecond time keeps recency ordering stable in tests.
func (s *SQLiteStore) TouchRoom(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE rooms SET last_active_at = ? WHERE id = ?
	`, time.Now().UTC(), id)
	return err
}

// CreatePrincipal creates a new principal record.
func (s *SQLiteStore) CreatePrincipal(ctx context.Context, publicKey string) (*models.Principal, error) {
	id := crypto.NewUUIDv7()
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO principals (id, public_key, created_at)
		VALUES (?, ?, ?)
	`, id.String(), publicKey, now)
	if err != nil {
		return nil, err
	}
	return &models.Principal{ID: id, PublicKey: publicKey, CreatedAt: now}, nil
}

// GetPrincipal retrieves a principal by ID.
func (s *SQLiteStore) GetPrincipal(ctx context.Context, id uuid.UUID) (*models.Principal, error) {
	return s.scanPrincipal(s.db.QueryRowContext(ctx, `
		SELECT id, public_key, created_at
		FROM principals WHERE id = ?
	`, id.String()))
}

// GetPrincipalByPublicKey retrieves a principal by public key.
func (s *SQLiteStore) GetPrincipalByPublicKey(ctx context.Context, publicKey string) (*models.Principal, error) {
	return s.scanPrincipal(s.db.QueryRowContext(ctx, `
		SELECT id, public_key, created_at
		FROM principals WHERE public_key = ?
	`, publicKey))
}

func (s *SQLiteStore) scanPrincipal(row *sql.Row) (*models.Principal, error) {
	p := &models.Principal{}
	var idStr string
	err := row.Scan(&idStr, &p.PublicKey, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	p.ID, err = uuid.Parse(idStr)
	if err != nil {
		return nil, err
	}
	return p, nil
}
