package bridge

import (
	"context"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/Rob-Crane/CarND-PID-Control-Project/internal/config"
	"github.com/Rob-Crane/CarND-PID-Control-Project/internal/session"
	"github.com/Rob-Crane/CarND-PID-Control-Project/internal/telemetry"
)

func newServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Tuning.InitialParams = [3]float64{0.5, 10, 0.01}
	cfg.Tuning.UpdateDistance = 15

	sess, err := session.New(cfg.Tuning, nil)
	require.NoError(t, err)

	srv := New(cfg.Server, sess, nil)
	clock := time.Unix(1700000000, 0)
	srv.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return srv
}

func telemetryFrame(cte, speed string) []byte {
	return []byte(`42["telemetry",{"cte":"` + cte + `","speed":"` + speed + `","steering_angle":"0.0000","throttle":"0.2","image":""}]`)
}

func steerOf(t *testing.T, frame []byte) (float64, float64) {
	t.Helper()
	body, ok := telemetry.Extract(string(frame))
	require.True(t, ok, string(frame))
	arr := gjson.Parse(body).Array()
	require.Len(t, arr, 2)
	require.Equal(t, telemetry.EventSteer, arr[0].String())
	return arr[1].Get("steering_angle").Float(), arr[1].Get("throttle").Float()
}

func TestHandleFrameSteers(t *testing.T) {
	srv := newServer(t)

	replies := srv.handleFrame(telemetryFrame("0.4", "10"))
	require.Len(t, replies, 1)

	steer, throttle := steerOf(t, replies[0])
	// first sample: no derivative, integral equals cte
	assert.InDelta(t, -(0.5*0.4 + 0.01*0.4), steer, 1e-12)
	assert.Equal(t, config.DefaultThrottle, throttle)
}

func TestHandleFrameManual(t *testing.T) {
	srv := newServer(t)

	replies := srv.handleFrame([]byte(`42["telemetry",null]`))
	require.Len(t, replies, 1)
	assert.Equal(t, `42["manual",{}]`, string(replies[0]))

	assert.Equal(t, 0, srv.Snapshot().Ticks)
}

func TestHandleFrameIgnoresNoise(t *testing.T) {
	srv := newServer(t)

	for _, frame := range []string{"2", "40", `42["telemetry",{"speed":"1"}]`, `42["other",{}]`, `42["telemetry",{"cte":"NaN","speed":"1"}]`} {
		assert.Empty(t, srv.handleFrame([]byte(frame)), frame)
	}
	assert.Equal(t, 0, srv.Snapshot().Ticks)
}

func TestHandleFrameResetsOnAbort(t *testing.T) {
	srv := newServer(t)

	require.Len(t, srv.handleFrame(telemetryFrame("0.1", "10")), 1)

	replies := srv.handleFrame(telemetryFrame("4.5", "10"))
	require.Len(t, replies, 2)
	steerOf(t, replies[0])
	assert.Equal(t, `42["reset",{}]`, string(replies[1]))

	snap := srv.Snapshot()
	assert.Equal(t, 1, snap.Windows)
	assert.False(t, snap.HasBest())
}

func TestHandleFrameCompletesWindow(t *testing.T) {
	srv := newServer(t)

	// one second per frame at 10 m/s: the third frame passes 15 m
	for _, cte := range []string{"0.3", "0.2"} {
		require.Len(t, srv.handleFrame(telemetryFrame(cte, "10")), 1)
	}
	require.Len(t, srv.handleFrame(telemetryFrame("0.1", "10")), 1)

	snap := srv.Snapshot()
	assert.Equal(t, 1, snap.Windows)
	assert.True(t, snap.HasBest())
	assert.InDelta(t, 0.09+0.04+0.01, snap.Best, 1e-12)
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(url, "http")+"/", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestServeWS(t *testing.T) {
	srv := newServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn := dial(t, ts.URL)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	// handshake frames get no answer, so the next reply belongs to the
	// manual frame
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("2probe")))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`42["telemetry",null]`)))
	_, reply, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, `42["manual",{}]`, string(reply))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, telemetryFrame("-0.2", "10")))
	_, reply, err = conn.ReadMessage()
	require.NoError(t, err)
	steer, _ := steerOf(t, reply)
	assert.Greater(t, steer, 0.0)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, telemetryFrame("3.5", "10")))
	_, reply, err = conn.ReadMessage()
	require.NoError(t, err)
	steerOf(t, reply)
	_, reply, err = conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, `42["reset",{}]`, string(reply))
}

func TestServeShutsDown(t *testing.T) {
	srv := newServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	conn := dial(t, "http://"+ln.Addr().String())
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, telemetryFrame("0.1", "10")))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err = conn.ReadMessage()
	require.NoError(t, err)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}

	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
}
