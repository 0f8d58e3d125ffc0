package handler

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/CageChen/dirserve/internal/logging"
	"github.com/CageChen/dirserve/internal/metrics"
	"github.com/CageChen/dirserve/internal/watcher"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
	wsQueueSize  = 16
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // listing pages may be opened via any host alias
	},
}

// ReloadMessage is pushed to listing pages when something below the root changes.
type ReloadMessage struct {
	Type    string        `json:"type"`
	Payload ReloadPayload `json:"payload"`
}

// ReloadPayload names the change.
type ReloadPayload struct {
	Event string `json:"event"`
	Path  string `json:"path"`
}

// reloadClient owns one connection. Only its writer goroutine writes to conn.
type reloadClient struct {
	conn *websocket.Conn
	send chan []byte
}

// WSHandler pushes filesystem changes to open listing pages.
type WSHandler struct {
	mu      sync.RWMutex
	clients map[*reloadClient]struct{}
}

// NewWSHandler creates a new WebSocket handler
func NewWSHandler() *WSHandler {
	return &WSHandler{
		clients: make(map[*reloadClient]struct{}),
	}
}

// HandleWS upgrades the request and serves the client until it disconnects.
func (h *WSHandler) HandleWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &reloadClient{conn: conn, send: make(chan []byte, wsQueueSize)}
	h.register(client)
	go client.writeLoop()

	// Pages never send anything meaningful; reading detects disconnects and
	// processes pongs.
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.unregister(client)
}

// OnFileChange is a watcher.Callback. It must not block the watcher, so a
// client whose queue is full is dropped.
func (h *WSHandler) OnFileChange(event watcher.Event) {
	data, err := json.Marshal(ReloadMessage{
		Type:    "fileChange",
		Payload: ReloadPayload{Event: event.Type.String(), Path: event.Path},
	})
	if err != nil {
		return
	}

	h.mu.RLock()
	var slow []*reloadClient
	for client := range h.clients {
		select {
		case client.send <- data:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		logging.Debug("dropping slow live-reload client", zap.String("remote", client.conn.RemoteAddr().String()))
		h.unregister(client)
	}
}

// ClientCount returns the number of connected clients.
func (h *WSHandler) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *WSHandler) register(client *reloadClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = struct{}{}
	metrics.SetWSClients(len(h.clients))
}

// unregister is safe to call more than once per client.
func (h *WSHandler) unregister(client *reloadClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)
	metrics.SetWSClients(len(h.clients))
}

func (c *reloadClient) writeLoop() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
