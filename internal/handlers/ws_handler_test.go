package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"evaluation-workflow-api/internal/auth"
	"evaluation-workflow-api/internal/middleware"
	"evaluation-workflow-api/internal/realtime"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func dialWS(t *testing.T, server *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/ws?" + query
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) realtime.Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	var env realtime.Envelope
	require.NoError(t, json.Unmarshal(payload, &env))
	return env
}

func TestWebSocketHandler_ConnectJoinReceiveDisconnect(t *testing.T) {
	gin.SetMode(gin.TestMode)

	registry := realtime.NewRegistry()
	r := gin.New()
	r.GET("/api/ws", middleware.JWTAuthMiddleware(), WebSocketHandler(registry))
	server := httptest.NewServer(r)
	defer server.Close()

	token, err := auth.GenerateToken("u-1", "alice")
	require.NoError(t, err)

	conn := dialWS(t, server, "token="+token+"&type=web&rooms=project:1")
	defer conn.Close()

	// First frame is always the acknowledgement
	ack := readEnvelope(t, conn)
	require.Equal(t, realtime.TypeConnectionEstablished, ack.Type)
	require.NotEmpty(t, ack.Data["connectionId"])

	require.Eventually(t, func() bool {
		return registry.ConnectionCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	// The rooms query param joins project:1 right after registration
	require.Eventually(t, func() bool {
		return registry.SendToRoom("project:1", realtime.NewEnvelope("probe", "t", "m", nil, realtime.PriorityLow)) == 1
	}, 2*time.Second, 50*time.Millisecond)
	require.Equal(t, "probe", readEnvelope(t, conn).Type)

	// Join another room over the wire
	require.NoError(t, conn.WriteJSON(map[string]string{"action": "join", "room": "project:2"}))
	require.Eventually(t, func() bool {
		return registry.SendToRoom("project:2", realtime.NewEnvelope("probe2", "t", "m", nil, realtime.PriorityLow)) == 1
	}, 2*time.Second, 50*time.Millisecond)

	// Closing the socket makes the handler disconnect and purge
	conn.Close()
	require.Eventually(t, func() bool {
		return registry.ConnectionCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWebSocketHandler_RejectsMissingToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	registry := realtime.NewRegistry()
	r := gin.New()
	r.GET("/api/ws", middleware.JWTAuthMiddleware(), WebSocketHandler(registry))
	server := httptest.NewServer(r)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/ws"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, 0, registry.ConnectionCount())
}
