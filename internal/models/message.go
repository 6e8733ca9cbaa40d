package models

// MessageKind classifies a message for presentation only.
type MessageKind string

const (
	KindUser   MessageKind = "user"
	KindBot    MessageKind = "bot"
	KindSystem MessageKind = "system"
)

// MaxMessageLen is the producer-side cap on message text, in characters.
const MaxMessageLen = 800

// Message represents a chat message stored in Redis.
//
// ID is a ULID and must not be used for ordering by itself; CreatedAt is the
// server-assigned sort key, with the ULID breaking ties deterministically.
type Message struct {
	ID              string      `json:"id"`
	RoomID          string      `json:"room_id"`
	AuthorHandle    string      `json:"handle"` // client-chosen label, not an identity
	AuthorPrincipal string      `json:"uid"`    // anonymous principal UUID
	Text            string      `json:"text"`
	Kind            MessageKind `json:"kind"`
	CreatedAt       int64       `json:"ts"` // Unix ms, assigned at acceptance
}

// Draft is the producer-side input to the message log, before the server
// assigns an ID and timestamp.
type Draft struct {
	Text            string
	AuthorHandle    string
	AuthorPrincipal string
	Kind            MessageKind
}
