package stream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FlareCast/pkg/logger"
)

func dial(t *testing.T, h *Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = h.Serve(w, r)
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.Eventually(t, func() bool { return h.Clients() == 1 }, time.Second, 5*time.Millisecond)
	return conn
}

func TestHubBroadcast(t *testing.T) {
	h := NewHub(logger.Nop(), 4, []string{"*"})
	conn := dial(t, h)

	h.Broadcast("prediction", map[string]string{"flare_class": "M-Class"})

	var ev struct {
		Type string            `json:"type"`
		Data map[string]string `json:"data"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "prediction", ev.Type)
	assert.Equal(t, "M-Class", ev.Data["flare_class"])
}

func TestHubRunPolls(t *testing.T) {
	h := NewHub(logger.Nop(), 4, nil)
	conn := dial(t, h)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx, 10*time.Millisecond, "xray_flux", func(context.Context) (interface{}, error) {
		return map[string]float64{"flux": 1.3e-6}, nil
	})

	var ev Event
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "xray_flux", ev.Type)
}

func TestHubCloseDisconnects(t *testing.T) {
	h := NewHub(logger.Nop(), 4, nil)
	conn := dial(t, h)

	h.Close()
	assert.Equal(t, 0, h.Clients())

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway))
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://flarecast.example"})
	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	assert.True(t, check(r), "no origin header")
	r.Header.Set("Origin", "https://flarecast.example")
	assert.True(t, check(r))
	r.Header.Set("Origin", "https://evil.example")
	assert.False(t, check(r))
}
