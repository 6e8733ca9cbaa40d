package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/Priyan-git/rait-rooms/internal/metrics"
)

// maxReportLen caps the free-text reason on an abuse report.
const maxReportLen = 500

// ReportRequest represents an abuse report submission.
type ReportRequest struct {
	RoomID    string `json:"room_id"`
	MessageID string `json:"message_id,omitempty"`
	Reason    string `json:"reason"`
}

// Report handles abuse report submission. Reports are fire-and-forget from
// the client's perspective: they are logged for operators, never surfaced
// back into the room.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	var req ReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if !validRoomID(req.RoomID) {
		h.Error(w, http.StatusBadRequest, "invalid room ID")
		return
	}

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		h.Error(w, http.StatusBadRequest, "reason is required")
		return
	}
	if utf8.RuneCountInString(reason) > maxReportLen {
		h.Error(w, http.StatusBadRequest, "reason too long (max 500 characters)")
		return
	}

	metrics.ReportsSubmitted.Inc()
	h.logger.Info().
		Str("room", req.RoomID).
		Str("message", req.MessageID).
		Str("reason", reason).
		Msg("abuse report submitted")

	h.JSON(w, http.StatusAccepted, map[string]string{"status": "received"})
}
