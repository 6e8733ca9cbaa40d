package models

import "time"

// Room represents an entry in the room directory.
//
// The ID is an opaque, stable string chosen at first visit. It doubles as the
// shareable identifier, so rooms are keyed by TEXT rather than UUID.
type Room struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Locked       bool      `json:"locked"` // modeled but never enforced on the write path
	CreatedAt    time.Time `json:"created_at"`
	LastActiveAt time.Time `json:"last_active_at"`
}
