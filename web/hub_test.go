package web_test

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/crossroad-sim/web"
)

func dial(t *testing.T, url string) *websocket.Conn {
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(url, "http"), nil)
	require.NoError(t, err)
	return conn
}

func TestBroadcast(t *testing.T) {
	h := web.NewHub()
	srv := httptest.NewServer(h)
	defer srv.Close()
	defer h.Close()

	conn := dial(t, srv.URL)
	defer conn.Close()
	assert.Eventually(t, func() bool { return h.Len() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, h.Broadcast(map[string]int{"step": 1}))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"step":1}`, string(msg))
}

func TestLateClientGetsLastMessage(t *testing.T) {
	h := web.NewHub()
	srv := httptest.NewServer(h)
	defer srv.Close()
	defer h.Close()

	require.NoError(t, h.Broadcast([]string{"a"}))
	conn := dial(t, srv.URL)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `["a"]`, string(msg))
}

func TestDisconnect(t *testing.T) {
	h := web.NewHub()
	srv := httptest.NewServer(h)
	defer srv.Close()

	conn := dial(t, srv.URL)
	assert.Eventually(t, func() bool { return h.Len() == 1 }, time.Second, 10*time.Millisecond)
	conn.Close()
	assert.Eventually(t, func() bool { return h.Len() == 0 }, time.Second, 10*time.Millisecond)
}

func TestStalledClientDoesNotBlockBroadcast(t *testing.T) {
	h := web.NewHub()
	srv := httptest.NewServer(h)
	defer srv.Close()
	defer h.Close()

	// 从不读取的连接
	stalled := dial(t, srv.URL)
	defer stalled.Close()
	assert.Eventually(t, func() bool { return h.Len() == 1 }, time.Second, 10*time.Millisecond)

	payload := strings.Repeat("x", 1<<20)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range 64 {
			assert.NoError(t, h.Broadcast(payload))
		}
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("broadcast blocked on a client that never reads")
	}
	assert.Eventually(t, func() bool { return h.Len() == 0 }, time.Second, 10*time.Millisecond)

	// 之后的连接照常收到消息
	conn := dial(t, srv.URL)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Len(t, msg, len(payload)+2)
}

func TestCloseNotifiesClients(t *testing.T) {
	h := web.NewHub()
	srv := httptest.NewServer(h)
	defer srv.Close()

	conn := dial(t, srv.URL)
	defer conn.Close()
	assert.Eventually(t, func() bool { return h.Len() == 1 }, time.Second, 10*time.Millisecond)

	h.Close()
	assert.Equal(t, 0, h.Len())
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}
