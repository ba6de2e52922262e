package session

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"figureit/internal/middleware"
	"figureit/internal/pkg/logger"
	"figureit/internal/pkg/response"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

const EventInitialSession = "INITIAL_SESSION"

type Handler struct {
	loader   Loader
	events   Subscriber
	log      *logger.Logger
	upgrader websocket.Upgrader
}

// NewHandler builds the session endpoints. checkOrigin nil accepts any
// origin.
func NewHandler(loader Loader, events Subscriber, log *logger.Logger, checkOrigin func(r *http.Request) bool) *Handler {
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Handler{
		loader: loader,
		events: events,
		log:    log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

// GetSession returns the current user and profile.
func (h *Handler) GetSession(c *gin.Context) {
	s, ok := FromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}
	response.Success(c, http.StatusOK, s)
}

// Stream upgrades to a websocket, sends the initial session and then one
// message per auth change until either side goes away.
func (h *Handler) Stream(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	provider := NewProvider(h.loader, h.events, h.log)
	defer provider.Close()
	if err := provider.Init(c.Request.Context(), userID); err != nil {
		response.Error(c, http.StatusUnauthorized, "SESSION_INVALID", "Failed to load session")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("session stream upgrade failed", "user_id", userID, "error", err)
		return
	}
	defer conn.Close()

	gone := make(chan struct{})
	go readUntilClosed(conn, gone)

	if err := writeJSON(conn, Change{Event: EventInitialSession, Session: provider.Current()}); err != nil {
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-gone:
			return
		case ch, ok := <-provider.Changes():
			if !ok {
				return
			}
			if err := writeJSON(conn, ch); err != nil {
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

func writeJSON(conn *websocket.Conn, v interface{}) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}

// readUntilClosed discards client frames and closes gone when the peer
// disconnects or stops answering pings.
func readUntilClosed(conn *websocket.Conn, gone chan<- struct{}) {
	defer close(gone)
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
