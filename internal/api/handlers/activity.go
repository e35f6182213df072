package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jvorel/stockpilot/internal/activity"
	"github.com/jvorel/stockpilot/pkg/logger"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins; restrict in production
	},
}

// ActivityHandler serves the activity log: recent entries over plain JSON
// and a live feed over a websocket.
type ActivityHandler struct {
	log    *activity.Log
	logger *logger.Logger
}

// NewActivityHandler creates a new activity handler.
func NewActivityHandler(act *activity.Log, log *logger.Logger) *ActivityHandler {
	return &ActivityHandler{
		log:    act,
		logger: log,
	}
}

// Recent returns the last n activity entries (default 100).
// GET /api/activity?n=50
func (h *ActivityHandler) Recent(w http.ResponseWriter, r *http.Request) {
	n := 100
	if v := r.URL.Query().Get("n"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			respondError(w, http.StatusBadRequest, "n must be a non-negative integer")
			return
		}
		n = parsed
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    h.log.Recent(n),
	})
}

// Stream upgrades the connection to a websocket and pushes every new
// activity entry as a JSON message until the client disconnects.
// GET /api/activity/stream
func (h *ActivityHandler) Stream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	feed := h.log.Subscribe()

	go h.writePump(conn, feed)
	go h.readPump(conn, feed)
}

// writePump pushes activity entries and keepalive pings to the peer.
func (h *ActivityHandler) writePump(conn *websocket.Conn, feed chan activity.Entry) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		h.log.Unsubscribe(feed)
		conn.Close()
	}()

	for {
		select {
		case entry, ok := <-feed:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(entry); err != nil {
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains the connection so pongs and close frames are processed.
func (h *ActivityHandler) readPump(conn *websocket.Conn, feed chan activity.Entry) {
	defer func() {
		h.log.Unsubscribe(feed)
		conn.Close()
	}()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
