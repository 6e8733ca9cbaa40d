package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Priyan-git/rait-rooms/internal/directory"
	"github.com/Priyan-git/rait-rooms/internal/models"
)

// RoomInfo represents a room directory entry in API responses.
type RoomInfo struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	LastActive int64  `json:"last_active"`
}

// ListRoomsResponse represents the room listing response.
type ListRoomsResponse struct {
	Rooms []RoomInfo `json:"rooms"`
}

// MessageResponse represents a message in API responses.
type MessageResponse struct {
	ID        string             `json:"id"`
	Handle    string             `json:"handle"`
	UID       string             `json:"uid"`
	Text      string             `json:"text"`
	Kind      models.MessageKind `json:"kind"`
	Timestamp int64              `json:"ts"`
}

// RoomMessagesResponse represents the get room messages response.
type RoomMessagesResponse struct {
	Room     RoomInfo          `json:"room"`
	Messages []MessageResponse `json:"messages"`
}

// PostMessageRequest represents the post message request.
type PostMessageRequest struct {
	Text   string `json:"text"`
	Handle string `json:"handle"`
	UID    string `json:"uid"`
}

// PostMessageResponse represents the post message response.
type PostMessageResponse struct {
	ID string `json:"id"`
}

// RenameRoomRequest represents the rename room request.
type RenameRoomRequest struct {
	Name string `json:"name"`
}

// ListRooms handles the lobby room listing: most recently active first.
func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	limit := directory.DefaultListLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		if l, err := strconv.Atoi(s); err == nil && l > 0 {
			limit = l
		}
	}

	rooms, err := h.dir.List(r.Context(), limit)
	if err != nil {
		h.Fail(w, err)
		return
	}

	infos := make([]RoomInfo, len(rooms))
	for i, room := range rooms {
		infos[i] = RoomInfo{
			ID:         room.ID,
			Name:       room.Name,
			LastActive: room.LastActiveAt.UnixMilli(),
		}
	}

	h.JSON(w, http.StatusOK, ListRoomsResponse{Rooms: infos})
}

// RenameRoom handles changing a room's display name. Last write wins.
func (h *Handler) RenameRoom(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")
	if !validRoomID(roomID) {
		h.Error(w, http.StatusBadRequest, "invalid room ID")
		return
	}

	var req RenameRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	// The entry may not exist yet when the rename races room creation.
	h.dir.Ensure(r.Context(), roomID)

	if err := h.dir.Rename(r.Context(), roomID, req.Name); err != nil {
		h.Fail(w, err)
		return
	}

	h.JSON(w, http.StatusOK, map[string]string{"id": roomID, "name": req.Name})
}

// GetRoomMessages handles a one-shot read of a room's full message log.
func (h *Handler) GetRoomMessages(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")
	if !validRoomID(roomID) {
		h.Error(w, http.StatusBadRequest, "invalid room ID")
		return
	}

	messages, err := h.log.Messages(r.Context(), roomID)
	if err != nil {
		h.Fail(w, err)
		return
	}

	msgResponses := make([]MessageResponse, len(messages))
	for i, msg := range messages {
		msgResponses[i] = MessageResponse{
			ID:        msg.ID,
			Handle:    msg.AuthorHandle,
			UID:       msg.AuthorPrincipal,
			Text:      msg.Text,
			Kind:      msg.Kind,
			Timestamp: msg.CreatedAt,
		}
	}

	h.JSON(w, http.StatusOK, RoomMessagesResponse{
		Room: RoomInfo{
			ID:   roomID,
			Name: h.dir.DisplayName(r.Context(), roomID),
		},
		Messages: msgResponses,
	})
}

// PostMessage handles appending a message to a room.
func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")
	if !validRoomID(roomID) {
		h.Error(w, http.StatusBadRequest, "invalid room ID")
		return
	}

	var req PostMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	// Lazily create the directory entry so the room is listable.
	h.dir.Ensure(r.Context(), roomID)

	id, err := h.log.Append(r.Context(), roomID, models.Draft{
		Text:            req.Text,
		AuthorHandle:    req.Handle,
		AuthorPrincipal: req.UID,
		Kind:            models.KindUser,
	})
	if err != nil {
		h.Fail(w, err)
		return
	}

	h.JSON(w, http.StatusCreated, PostMessageResponse{ID: id})
}
