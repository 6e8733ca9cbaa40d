package handlers

import (
	"encoding/json"
	"net/http"
	"regexp"

	"github.com/rs/zerolog"

	"github.com/Priyan-git/rait-rooms/internal/directory"
	"github.com/Priyan-git/rait-rooms/internal/identity"
	"github.com/Priyan-git/rait-rooms/internal/models"
	"github.com/Priyan-git/rait-rooms/internal/netmon"
	"github.com/Priyan-git/rait-rooms/internal/roomlog"
	"github.com/Priyan-git/rait-rooms/internal/store"
)

// roomIDRegex validates room identifiers in URL paths.
var roomIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	rooms    store.RoomStore
	redis    *store.RedisStore
	dir      *directory.Directory
	log      *roomlog.Log
	identity *identity.Provider
	monitor  *netmon.Monitor
	logger   zerolog.Logger
}

// NewHandler creates a new Handler with the given dependencies.
func NewHandler(rooms store.RoomStore, redis *store.RedisStore, dir *directory.Directory, log *roomlog.Log, ident *identity.Provider, monitor *netmon.Monitor, logger zerolog.Logger) *Handler {
	return &Handler{
		rooms:    rooms,
		redis:    redis,
		dir:      dir,
		log:      log,
		identity: ident,
		monitor:  monitor,
		logger:   logger.With().Str("component", "handlers").Logger(),
	}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}

// Fail maps a domain error onto an HTTP status and sends it.
func (h *Handler) Fail(w http.ResponseWriter, err error) {
	switch {
	case models.IsValidation(err):
		h.Error(w, http.StatusBadRequest, err.Error())
	case models.IsPermission(err):
		h.Error(w, http.StatusForbidden, err.Error())
	default:
		h.Error(w, http.StatusInternalServerError, "internal error")
	}
}

// validRoomID reports whether a path parameter is an acceptable room id.
func validRoomID(id string) bool {
	return roomIDRegex.MatchString(id)
}
