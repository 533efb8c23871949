package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/solicita/internal/interfaces"
	"golang.org/x/time/rate"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // local single-operator tool
	},
}

// EventsHandler streams bus events to WebSocket clients. Each connection
// gets its own subscription; a client that cannot keep up is dropped by the
// bus and its connection closed.
type EventsHandler struct {
	bus    interfaces.EventService
	logger arbor.ILogger
}

// NewEventsHandler creates a WebSocket events handler.
func NewEventsHandler(bus interfaces.EventService, logger arbor.ILogger) *EventsHandler {
	return &EventsHandler{bus: bus, logger: logger}
}

// HandleWebSocket handles GET /ws, upgrading and streaming all event topics
// until the client disconnects.
func (h *EventsHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	subID, events := h.bus.Subscribe(64)
	h.logger.Debug().Str("remote", r.RemoteAddr).Str("subscription", subID).Msg("WebSocket client connected")

	defer func() {
		h.bus.Unsubscribe(subID)
		conn.Close()
		h.logger.Debug().Str("remote", r.RemoteAddr).Msg("WebSocket client disconnected")
	}()

	// Reader only detects disconnects; clients send nothing meaningful.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// Model pull progress fires per chunk; cap it at one frame per second.
	progressLimiter := rate.NewLimiter(rate.Every(time.Second), 1)
	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				// Quarantined as a slow client.
				return
			}
			if event.Type == interfaces.EventModelPullProgress && !progressLimiter.Allow() {
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
