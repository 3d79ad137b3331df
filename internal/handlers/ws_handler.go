package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"evaluation-workflow-api/internal/realtime"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// wsTransport implements realtime.Transport by wrapping a websocket
// connection. Fan-outs from different goroutines may hit the same connection
// concurrently and gorilla allows only one writer, so data writes are
// serialized with a mutex.
type wsTransport struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (t *wsTransport) Send(payload []byte) bool {
	if t == nil || t.conn == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := t.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return false
	}
	return true
}

func (t *wsTransport) Close() {
	if t != nil && t.conn != nil {
		_ = t.conn.Close()
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS is already handled at Gin level; allow upgrade from any origin here
		return true
	},
}

// clientFrame is the only inbound message shape clients may send: room
// membership changes.
type clientFrame struct {
	Action string `json:"action"` // "join" | "leave"
	Room   string `json:"room"`
}

// WebSocketHandler upgrades the connection and registers it with the given
// registry. It requires JWT middleware to have set "user_id" in context; the
// registry trusts that identifier as-is. The optional "rooms" query param
// lists comma-separated rooms to join right after connecting, so clients can
// restore their membership on reconnect.
func WebSocketHandler(registry *realtime.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authorized"})
			return
		}

		connType := c.DefaultQuery("type", "web")
		initialRooms := c.Query("rooms")

		// Upgrade HTTP connection to WebSocket
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Println("websocket upgrade error:", err)
			return
		}

		transport := &wsTransport{conn: conn}
		connection := registry.Connect(transport, userID, connType)

		for _, roomID := range strings.Split(initialRooms, ",") {
			if roomID = strings.TrimSpace(roomID); roomID != "" {
				registry.JoinRoom(connection, roomID)
			}
		}

		// Heartbeat: send periodic pings; close on error
		pingTicker := time.NewTicker(30 * time.Second)
		done := make(chan struct{})
		go func() {
			for {
				select {
				case <-done:
					return
				case <-pingTicker.C:
					if err := conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(5*time.Second)); err != nil {
						// ping failed; reader loop will exit on next error
						return
					}
				}
			}
		}()
		defer func() {
			close(done)
			pingTicker.Stop()
			registry.Disconnect(connection)
		}()

		// Reader loop: handle join/leave frames and keep the connection
		// alive via the pong handler
		conn.SetReadLimit(1024)
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			return nil
		})

		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				// Normal close or error; exit loop
				return
			}

			var frame clientFrame
			if err := json.Unmarshal(payload, &frame); err != nil {
				continue // ignore malformed frames
			}
			switch frame.Action {
			case "join":
				registry.JoinRoom(connection, frame.Room)
			case "leave":
				registry.LeaveRoom(connection, frame.Room)
			}
		}
	}
}
