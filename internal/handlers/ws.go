package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/Priyan-git/rait-rooms/internal/metrics"
	"github.com/Priyan-git/rait-rooms/internal/models"
	"github.com/Priyan-git/rait-rooms/internal/session"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// CORS policy is enforced at the router; the handshake itself is open.
		return true
	},
}

// wsInbound is a client-to-server frame.
type wsInbound struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
	Name string `json:"name,omitempty"`
}

// wsView wraps a session view for the wire.
type wsView struct {
	Type string       `json:"type"`
	View session.View `json:"view"`
}

// wsError is a server-to-client error frame.
type wsError struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// RoomStream upgrades to a WebSocket and runs a room sync session over it:
// every change in the room arrives as a full view frame, and send frames go
// through the session's composer path.
func (h *Handler) RoomStream(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")
	if !validRoomID(roomID) {
		h.Error(w, http.StatusBadRequest, "invalid room ID")
		return
	}

	handle := r.URL.Query().Get("handle")
	uid := r.URL.Query().Get("uid")
	if handle == "" || uid == "" {
		h.Error(w, http.StatusBadRequest, "handle and uid query parameters are required")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the response.
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	metrics.WSConnections.Inc()
	defer metrics.WSConnections.Dec()

	opts := session.Options{OptimisticEcho: true}
	var cancelStatus func()
	if h.monitor != nil {
		opts.Status, cancelStatus = h.monitor.Subscribe()
		defer cancelStatus()
	}

	sess := session.New(
		roomID,
		session.Identity{Handle: handle, Principal: uid},
		session.LogAdapter{Log: h.log},
		session.DirAdapter{Directory: h.dir},
		opts,
		h.logger,
	)
	if err := sess.Open(r.Context()); err != nil {
		h.logger.Warn().Err(err).Str("room", roomID).Msg("session open failed")
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "subscription unavailable"),
			time.Now().Add(writeWait))
		return
	}
	defer sess.Close()

	errCh := make(chan string, 8)
	readDone := make(chan struct{})
	go h.readPump(conn, sess, roomID, errCh, readDone)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-readDone:
			return

		case view := <-sess.Updates():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(wsView{Type: "view", View: view}); err != nil {
				return
			}

		case msg := <-errCh:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(wsError{Type: "error", Error: msg}); err != nil {
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump consumes inbound frames until the connection drops. Send frames
// feed the session; bad frames report back on errCh without killing the
// connection.
func (h *Handler) readPump(conn *websocket.Conn, sess *session.Session, roomID string, errCh chan<- string, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(4096)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// Error frames are best-effort: drop rather than block when the writer
	// is gone or lagging.
	report := func(msg string) {
		select {
		case errCh <- msg:
		default:
		}
	}

	for {
		var in wsInbound
		if err := conn.ReadJSON(&in); err != nil {
			return
		}

		switch in.Type {
		case "send":
			if err := sess.Send(context.Background(), in.Text); err != nil {
				if models.IsValidation(err) || err == session.ErrOffline {
					report(err.Error())
					continue
				}
				report("send failed")
			}
		case "rename":
			if err := h.dir.Rename(context.Background(), roomID, in.Name); err != nil {
				if models.IsValidation(err) {
					report(err.Error())
					continue
				}
				report("rename failed")
			}
		default:
			report("unknown frame type")
		}
	}
}
