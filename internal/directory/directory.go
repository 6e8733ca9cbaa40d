// Package directory maintains the room catalog: lazily created entries
// ordered by recency, with live list and per-room metadata watches.
package directory

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/Priyan-git/rait-rooms/internal/metrics"
	"github.com/Priyan-git/rait-rooms/internal/models"
	"github.com/Priyan-git/rait-rooms/internal/store"
)

// MaxRoomNameLen caps user-set room names, in characters.
const MaxRoomNameLen = 50

// DefaultListLimit bounds the lobby room list.
const DefaultListLimit = 10

// defaultRooms are seeded at startup so the lobby is never empty. Seeding
// goes through the same merge upsert as everything else, so restarts never
// clobber a rename.
var defaultRooms = []struct{ ID, Name string }{
	{"general", "General Chat"},
	{"study-group", "Study Group"},
	{"tech-talk", "Tech Talk"},
	{"random", "Random"},
	{"music", "Music Room"},
	{"gaming", "Gaming Zone"},
	{"movies", "Movie Club"},
	{"books", "Book Club"},
}

// Directory is the room catalog over a RoomStore, publishing change events
// through Redis so list and metadata watches stay live.
type Directory struct {
	rooms  store.RoomStore
	redis  *store.RedisStore
	logger zerolog.Logger
}

// New creates a directory. redis may be nil, which disables live watches
// (one-shot reads still work); tests use that mode.
func New(rooms store.RoomStore, redis *store.RedisStore, logger zerolog.Logger) *Directory {
	return &Directory{
		rooms:  rooms,
		redis:  redis,
		logger: logger.With().Str("component", "directory").Logger(),
	}
}

// Ensure lazily creates the directory entry for a room with its derived
// default name, or advances recency if it already exists. Best-effort:
// directory presence is an optimization, not a correctness requirement for
// message delivery, so failures are logged and swallowed.
func (d *Directory) Ensure(ctx context.Context, roomID string) {
	if err := d.rooms.EnsureRoom(ctx, roomID, DeriveName(roomID)); err != nil {
		d.logger.Warn().Err(err).Str("room", roomID).Msg("directory ensure failed")
		return
	}
	metrics.DirectoryEnsures.Inc()
	d.notify(ctx, roomID)
}

// Seed upserts the default rooms with their curated names.
func (d *Directory) Seed(ctx context.Context) {
	for _, r := range defaultRooms {
		if err := d.rooms.EnsureRoom(ctx, r.ID, r.Name); err != nil {
			d.logger.Warn().Err(err).Str("room", r.ID).Msg("seed failed")
		}
	}
}

// Rename overwrites a room's display name. Concurrent renames are
// last-write-wins; there is no conflict detection.
func (d *Directory) Rename(ctx context.Context, roomID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return &models.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if utf8.RuneCountInString(name) > MaxRoomNameLen {
		return &models.ValidationError{Field: "name", Reason: "exceeds 50 characters"}
	}

	if err := d.rooms.RenameRoom(ctx, roomID, name); err != nil {
		return &models.TransportError{Op: "rename", Err: err}
	}
	d.notify(ctx, roomID)
	return nil
}

// Touch advances a room's recency marker. Called by the message log as the
// second, non-transactional write of an append.
func (d *Directory) Touch(ctx context.Context, roomID string) error {
	if err := d.rooms.TouchRoom(ctx, roomID); err != nil {
		return err
	}
	d.notify(ctx, roomID)
	return nil
}

// Get retrieves a room entry; nil when absent.
func (d *Directory) Get(ctx context.Context, roomID string) (*models.Room, error) {
	room, err := d.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return nil, &models.TransportError{Op: "get room", Err: err}
	}
	return room, nil
}

// DisplayName resolves the name shown for a room: the stored name when the
// entry exists, the derived name otherwise.
func (d *Directory) DisplayName(ctx context.Context, roomID string) string {
	room, err := d.rooms.GetRoom(ctx, roomID)
	if err != nil || room == nil || strings.TrimSpace(room.Name) == "" {
		return DeriveName(roomID)
	}
	return room.Name
}

// List returns up to limit rooms ordered by recency descending.
func (d *Directory) List(ctx context.Context, limit int) ([]models.Room, error) {
	if limit <= 0 || limit > 100 {
		limit = DefaultListLimit
	}
	rooms, err := d.rooms.ListRooms(ctx, limit)
	if err != nil {
		return nil, &models.TransportError{Op: "list rooms", Err: err}
	}
	return rooms, nil
}

// notify publishes a directory change event so watches re-read.
func (d *Directory) notify(ctx context.Context, roomID string) {
	if d.redis == nil {
		return
	}
	if err := d.redis.PublishDirectoryEvent(ctx, roomID); err != nil {
		d.logger.Warn().Err(err).Str("room", roomID).Msg("directory event publish failed")
	}
}
