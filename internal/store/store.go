package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/Priyan-git/rait-rooms/internal/models"
)

// RoomStore defines the interface for the room directory and principal
// registry. Both PostgresStore and SQLiteStore implement this interface.
type RoomStore interface {
	// Connection management
	Close()
	Ping(ctx context.Context) error

	// Room directory operations
	//
	// EnsureRoom is an upsert with merge semantics: it creates the room with
	// the given default name, or, if the room already exists, only advances
	// last_active_at. An existing name is never overwritten.
	EnsureRoom(ctx context.Context, id, defaultName string) error
	// RenameRoom overwrites the name directly; concurrent renames are
	// last-write-wins.
	RenameRoom(ctx context.Context, id, name string) error
	GetRoom(ctx context.Context, id string) (*models.Room, error)
	ListRooms(ctx context.Context, limit int) ([]models.Room, error)
	TouchRoom(ctx context.Context, id string) error

	// Principal operations
	CreatePrincipal(ctx context.Context, publicKey string) (*models.Principal, error)
	GetPrincipal(ctx context.Context, id uuid.UUID) (*models.Principal, error)
	GetPrincipalByPublicKey(ctx context.Context, publicKey string) (*models.Principal, error)
}
