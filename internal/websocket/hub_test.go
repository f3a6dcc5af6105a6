package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := NewHub(zerolog.Nop())
	go hub.Run(ctx)
	return hub
}

func serveHub(t *testing.T, hub *Hub, userID int64) string {
	t.Helper()
	upgrader := NewUpgrader(nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(hub, conn, userID)
		hub.Register <- client
		go client.ReadPump()
		go client.WritePump()
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestHub_PublishReachesOnlyTargetUser(t *testing.T) {
	hub := startHub(t)

	conn, _, err := websocket.DefaultDialer.Dial(serveHub(t, hub, 42), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ConnectedClients(42) == 1 }, time.Second, 5*time.Millisecond)

	hub.PublishEvent(7, []byte(`{"event_type":"other"}`))
	hub.PublishEvent(42, []byte(`{"event_type":"reward_granted"}`))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	require.JSONEq(t, `{"event_type":"reward_granted"}`, string(msg))
}

func TestHub_UnregistersOnClose(t *testing.T) {
	hub := startHub(t)

	conn, _, err := websocket.DefaultDialer.Dial(serveHub(t, hub, 9), nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.ConnectedClients(9) == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.ConnectedClients(9) == 0 }, 2*time.Second, 10*time.Millisecond)

	hub.PublishEvent(9, []byte("ignored"))
}

func TestNewUpgrader_CheckOrigin(t *testing.T) {
	up := NewUpgrader([]string{"http://localhost:5173"})

	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	r.Header.Set("Origin", "http://localhost:5173")
	require.True(t, up.CheckOrigin(r))

	r.Header.Set("Origin", "https://evil.example")
	require.False(t, up.CheckOrigin(r))

	r.Header.Del("Origin")
	require.True(t, up.CheckOrigin(r))
}
