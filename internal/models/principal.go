package models

import (
	"time"

	"github.com/google/uuid"
)

// Principal represents an anonymous identity issued by the backend.
//
// The UID is stable for one client instance: re-registering the same public
// key always yields the same principal.
type Principal struct {
	ID        uuid.UUID `json:"id"`
	PublicKey string    `json:"public_key"`
	CreatedAt time.Time `json:"created_at"`
}

// ConnectionStatus is the three-valued reachability state reported to the UI.
type ConnectionStatus string

const (
	StatusOnline       ConnectionStatus = "online"
	StatusReconnecting ConnectionStatus = "reconnecting"
	StatusOffline      ConnectionStatus = "offline"
)
