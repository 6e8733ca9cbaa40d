package session

import (
	"context"

	"github.com/Priyan-git/rait-rooms/internal/directory"
	"github.com/Priyan-git/rait-rooms/internal/models"
	"github.com/Priyan-git/rait-rooms/internal/roomlog"
)

// State is the lifecycle of a room sync session.
type State string

const (
	StateConnecting   State = "connecting"
	StateLive         State = "live"
	StateDegraded     State = "degraded"
	StateReconnecting State = "reconnecting"
	// StateFailed is reached when bounded resubscription is exhausted; the
	// session stalls until closed.
	StateFailed State = "failed"
	StateClosed State = "closed"
)

// Identity is the local client identity a session classifies messages
// against. Handle is an unauthenticated label; Principal is the
// authoritative signal.
type Identity struct {
	Handle    string
	Principal string
}

// ViewMessage is one rendered message with session-derived fields.
type ViewMessage struct {
	ID        string             `json:"id"`
	Text      string             `json:"text"`
	Handle    string             `json:"handle"`
	Kind      models.MessageKind `json:"kind"`
	CreatedAt int64              `json:"ts"` // zero while pending
	IsMine    bool               `json:"is_mine"`
	Pending   bool               `json:"pending,omitempty"`
}

// View is what the session publishes to the UI on every change: the full
// current room state, not a diff.
type View struct {
	RoomID   string        `json:"room_id"`
	RoomName string        `json:"room_name"`
	State    State         `json:"state"`
	Messages []ViewMessage `json:"messages"`
}

// Stream is a live full-snapshot message subscription, as produced by the
// room log.
type Stream interface {
	Snapshots() <-chan roomlog.Snapshot
	Err() <-chan error
	Close()
}

// Log is the message-log client surface the session depends on.
type Log interface {
	Append(ctx context.Context, roomID string, draft models.Draft) (string, error)
	Subscribe(ctx context.Context, roomID string) (Stream, error)
}

// MetaStream is a standing room-metadata subscription.
type MetaStream interface {
	Rooms() <-chan models.Room
	Err() <-chan error
	Close()
}

// Directory is the room-directory surface the session depends on.
type Directory interface {
	Ensure(ctx context.Context, roomID string)
	WatchRoom(ctx context.Context, roomID string) (MetaStream, error)
}

// LogAdapter lets the concrete roomlog.Log satisfy Log.
type LogAdapter struct {
	*roomlog.Log
}

func (a LogAdapter) Subscribe(ctx context.Context, roomID string) (Stream, error) {
	sub, err := a.Log.Subscribe(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// DirAdapter lets the concrete directory.Directory satisfy Directory.
type DirAdapter struct {
	*directory.Directory
}

func (a DirAdapter) WatchRoom(ctx context.Context, roomID string) (MetaStream, error) {
	w, err := a.Directory.WatchRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return w, nil
}
