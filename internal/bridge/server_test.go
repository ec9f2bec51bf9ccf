package bridge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/san-kum/tiltfluid/internal/config"
	"github.com/san-kum/tiltfluid/internal/dynamo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.Config {
	cfg := *config.DefaultConfig()
	cfg.ParticleCount = 20
	cfg.Container = config.ContainerConfig{Width: 6, Height: 4}
	cfg.FrameInterval = 5 * time.Millisecond
	return cfg
}

func startServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := New(testConfig(), Options{BroadcastEvery: 2})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		cancel()
		assert.NoError(t, <-done)
	})
	return s, ts
}

func TestDecodeMessage(t *testing.T) {
	m, err := DecodeMessage([]byte(`{"type":"motion","ax":1.5,"ay":-2}`))
	require.NoError(t, err)
	assert.Equal(t, 1.5, m.Motion().AX)
	assert.Equal(t, -2.0, m.Motion().AY)

	m, err = DecodeMessage([]byte(`{"type":"orientation","beta":30}`))
	require.NoError(t, err)
	assert.Equal(t, 30.0, m.Orientation().Beta)

	_, err = DecodeMessage([]byte(`{"type":"shake"}`))
	assert.Error(t, err)
	_, err = DecodeMessage([]byte(`not json`))
	assert.Error(t, err)
}

func TestServer_Health(t *testing.T) {
	_, ts := startServer(t)

	require.Eventually(t, func() bool {
		resp, err := http.Get(ts.URL + "/healthz")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		var h Health
		if json.NewDecoder(resp.Body).Decode(&h) != nil {
			return false
		}
		return resp.StatusCode == http.StatusOK && h.Phase == "running" && h.Tick > 0
	}, 5*time.Second, 20*time.Millisecond)
}

func TestServer_WebSocketRoundTrip(t *testing.T) {
	_, ts := startServer(t)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(Message{Type: TypeMotion, AX: 3, AY: 9.8}))
	require.NoError(t, conn.WriteJSON(Message{Type: TypeTouch}))

	deadline := time.Now().Add(5 * time.Second)
	require.NoError(t, conn.SetReadDeadline(deadline))
	for {
		var f FrameMessage
		require.NoError(t, conn.ReadJSON(&f))
		require.Equal(t, "frame", f.Type)
		assert.Zero(t, f.Tick%2, "only every second tick is broadcast")
		assert.Len(t, f.Positions, 20)
		if f.Gravity[0] == 3 {
			assert.Equal(t, -9.8, f.Gravity[1])
			return
		}
	}
}

func TestServer_PauseResume(t *testing.T) {
	s, ts := startServer(t)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(Message{Type: TypePause}))
	require.Eventually(t, func() bool {
		var phase string
		_ = s.call(context.Background(), func() { phase = s.loop.Phase().String() })
		return phase == "paused"
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteJSON(Message{Type: TypeResume}))
	require.Eventually(t, func() bool {
		var phase string
		_ = s.call(context.Background(), func() { phase = s.loop.Phase().String() })
		return phase == "running"
	}, 5*time.Second, 10*time.Millisecond)
}

func TestServer_InvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.ParticleCount = 0
	s := New(cfg, Options{})

	err := s.Serve(context.Background())
	assert.ErrorIs(t, err, dynamo.ErrInvalidConfig)
}
