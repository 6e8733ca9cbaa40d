package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Priyan-git/rait-rooms/internal/crypto"
	"github.com/Priyan-git/rait-rooms/internal/models"
)

// PostgresStore handles PostgreSQL database operations.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL store with a connection pool.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}

	store := &PostgresStore{pool: pool}
	if err := store.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return store, nil
}

// initSchema creates tables if they don't exist.
func (s *PostgresStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS rooms (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		locked BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		last_active_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS rooms_last_active_idx ON rooms (last_active_at DESC);

	CREATE TABLE IF NOT EXISTS principals (
		id UUID PRIMARY KEY,
		public_key TEXT UNIQUE NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	`
	_, err := s.pool.Exec(ctx, schema)
	return err
}

// Close closes the database connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// EnsureRoom upserts a directory entry. On conflict only last_active_at
// advances; an existing name is never clobbered.
func (s *PostgresStore) EnsureRoom(ctx context.Context, id, defaultName string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO rooms (id, name)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET last_active_at = NOW()
	`, id, defaultName)
	return err
}

// RenameRoom overwrites the room name (last-write-wins).
func (s *PostgresStore) RenameRoom(ctx context.Context, id, name string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE rooms SET name = $2 WHERE id = $1
	`, id, name)
	return err
}

// GetRoom retrieves a room by ID. Returns nil when the room does not exist.
func (s *PostgresStore) GetRoom(ctx context.Context, id string) (*models.Room, error) {
	room := &models.Room{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, locked, created_at, last_active_at
		FROM rooms WHERE id = $1
	`, id).Scan(
		&room.ID,
		&room.Name,
		&room.Locked,
		&room.CreatedAt,
		&room.LastActiveAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return room, nil
}

// ListRooms retrieves up to limit rooms ordered by recency.
func (s *PostgresStore) ListRooms(ctx context.Context, limit int) ([]models.Room, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, locked, created_at, last_active_at
		FROM rooms
		ORDER BY last_active_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []models.Room
	for rows.Next() {
		var room models.Room
		err := rows.Scan(
			&room.ID,
			&room.Name,
			&room.Locked,
			&room.CreatedAt,
			&room.LastActiveAt,
		)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}

	return rooms, rows.Err()
}

// TouchRoom advances the last_active_at timestamp.
func (s *PostgresStore) TouchRoom(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE rooms SET last_active_at = NOW() WHERE id = $1
	`, id)
	return err
}

// CreatePrincipal creates a new principal record with a time-ordered UUID.
func (s *PostgresStore) CreatePrincipal(ctx context.Context, publicKey string) (*models.Principal, error) {
	p := &models.Principal{}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO principals (id, public_key)
		VALUES ($1, $2)
		RETURNING id, public_key, created_at
	`, crypto.NewUUIDv7(), publicKey).Scan(
		&p.ID,
		&p.PublicKey,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetPrincipal retrieves a principal by ID.
func (s *PostgresStore) GetPrincipal(ctx context.Context, id uuid.UUID) (*models.Principal, error) {
	p := &models.Principal{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, public_key, created_at
		FROM principals WHERE id = $1
	`, id).Scan(
		&p.ID,
		&p.PublicKey,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// GetPrincipalByPublicKey retrieves a principal by public key.
func (s *PostgresStore) GetPrincipalByPublicKey(ctx context.Context, publicKey string) (*models.Principal, error) {
	p := &models.Principal{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, public_key, created_at
		FROM principals WHERE public_key = $1
	`, publicKey).Scan(
		&p.ID,
		&p.PublicKey,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}
