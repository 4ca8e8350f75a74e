package ws

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub() *Hub {
	return NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
}

func bareClient(h *Hub, userID string, buffer int) *Client {
	return &Client{id: userID + "-c", userID: userID, hub: h, send: make(chan Message, buffer)}
}

func TestHub_JoinLeave(t *testing.T) {
	h := newTestHub()
	c1 := bareClient(h, "u1", 1)
	c2 := bareClient(h, "u1", 1)

	assert.False(t, h.IsOnline("u1"))
	h.JoinRoom("u1", c1)
	h.JoinRoom("u1", c2)
	assert.True(t, h.IsOnline("u1"))

	h.LeaveRoom("u1", c1)
	assert.True(t, h.IsOnline("u1"))
	h.LeaveRoom("u1", c2)
	assert.False(t, h.IsOnline("u1"))

	// leaving twice must not panic on the closed queue
	h.LeaveRoom("u1", c2)
}

func TestHub_SendToUser(t *testing.T) {
	h := newTestHub()
	c := bareClient(h, "u1", 2)
	h.JoinRoom("u1", c)

	require.NoError(t, h.SendToUser("u1", "notification", map[string]int{"badge_count": 3}))
	msg := <-c.send
	assert.Equal(t, "notification", msg.Event)
	assert.Equal(t, map[string]int{"badge_count": 3}, msg.Data)
}

func TestHub_SendToOfflineUser(t *testing.T) {
	h := newTestHub()
	assert.ErrorIs(t, h.SendToUser("nobody", "notification", nil), ErrOffline)
}

func TestClient_EnqueueAfterLeave(t *testing.T) {
	h := newTestHub()
	c := bareClient(h, "u1", 4)
	h.JoinRoom("u1", c)
	h.LeaveRoom("u1", c)

	assert.False(t, c.enqueue(Message{Event: "pong"}))
	_, open := <-c.send
	assert.False(t, open)
}

func TestClient_ConcurrentEnqueueAndClose(t *testing.T) {
	h := newTestHub()
	c := bareClient(h, "u1", 1)
	h.JoinRoom("u1", c)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			c.enqueue(Message{Event: "pong"})
		}
	}()
	go func() {
		for range c.send {
		}
	}()
	h.LeaveRoom("u1", c)
	<-done
	assert.False(t, c.enqueue(Message{Event: "pong"}))
}

func TestHub_FullQueueDropsClient(t *testing.T) {
	h := newTestHub()
	slow := bareClient(h, "u1", 0)
	h.JoinRoom("u1", slow)

	assert.ErrorIs(t, h.SendToUser("u1", "notification", nil), ErrOffline)
	assert.False(t, h.IsOnline("u1"))
}

func TestHub_ServeWS(t *testing.T) {
	h := newTestHub()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.ServeWS(w, r, "u1")
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return h.IsOnline("u1") }, time.Second, 10*time.Millisecond)
	require.NoError(t, h.SendToUser("u1", "badge_count", map[string]int{"badge_count": 1}))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var got struct {
		Event string         `json:"event"`
		Data  map[string]int `json:"data"`
	}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "badge_count", got.Event)
	assert.Equal(t, 1, got.Data["badge_count"])

	conn.Close()
	assert.Eventually(t, func() bool { return !h.IsOnline("u1") }, 2*time.Second, 10*time.Millisecond)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://app.example.com"})
	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	assert.True(t, check(r))
	r.Header.Set("Origin", "https://app.example.com")
	assert.True(t, check(r))
	r.Header.Set("Origin", "https://evil.example.com")
	assert.False(t, check(r))
}
