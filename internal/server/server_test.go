package server

import (
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/posetouch/internal/config"
	"github.com/udisondev/posetouch/internal/model"
	"github.com/udisondev/posetouch/internal/protocol"
	"github.com/udisondev/posetouch/internal/render"
	"github.com/udisondev/posetouch/internal/score"
	"github.com/udisondev/posetouch/internal/testutil"
)

func newTestServer(t *testing.T, store score.Store) (*Server, *httptest.Server) {
	t.Helper()
	cfg := config.Default()
	var results *score.Manager
	if store != nil {
		results = score.NewManager(store)
	}
	s := New(Options{
		Config:   cfg.Server,
		Canvas:   cfg.Canvas.Bounds(),
		Grid:     cfg.Grid,
		Defaults: config.NewLive(model.DefaultConfiguration()),
		Results:  results,
	})
	ts := httptest.NewServer(s.Routes())
	t.Cleanup(ts.Close)
	return s, ts
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	t.Parallel()

	_, ts := newTestServer(t, nil)
	var body healthResponse
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/health", &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, 0, body.Sessions)
	assert.False(t, body.Store)
}

func TestConfigEndpoint(t *testing.T) {
	t.Parallel()

	_, ts := newTestServer(t, nil)
	var body configResponse
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/v1/config", &body))
	assert.Equal(t, 640.0, body.Width)
	assert.Equal(t, 480.0, body.Height)
	assert.True(t, body.GridEnabled)
	assert.Equal(t, 3, body.Rows)
	assert.Equal(t, "medium", body.Config.ObjectSize)
	assert.Equal(t, protocol.Version, body.Version)
}

func TestScoresWithoutStore(t *testing.T) {
	t.Parallel()

	_, ts := newTestServer(t, nil)
	assert.Equal(t, http.StatusServiceUnavailable, getJSON(t, ts.URL+"/api/v1/scores", nil))
	assert.Equal(t, http.StatusServiceUnavailable, getJSON(t, ts.URL+"/api/v1/players/ann/best", nil))
}

func TestScores(t *testing.T) {
	t.Parallel()

	store := testutil.NewMockStore()
	ctx := context.Background()
	for i, p := range []string{"ann", "bob", "ann"} {
		require.NoError(t, store.SaveResult(ctx, score.Result{SessionID: string(rune('a' + i)), Player: p, Score: i + 1}))
	}
	_, ts := newTestServer(t, store)

	var top []score.Result
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/v1/scores?limit=2", &top))
	require.Len(t, top, 2)
	assert.Equal(t, 3, top[0].Score)

	assert.Equal(t, http.StatusBadRequest, getJSON(t, ts.URL+"/api/v1/scores?limit=x", nil))

	var best map[string]any
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/v1/players/ann/best", &best))
	assert.Equal(t, "ann", best["player"])
	assert.EqualValues(t, 3, best["best"])

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/v1/scores", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, store.Count())
}

// wsClient wraps a test connection.
type wsClient struct {
	t    *testing.T
	conn *websocket.Conn
}

func dial(t *testing.T, ts *httptest.Server) *wsClient {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return &wsClient{t: t, conn: conn}
}

func (c *wsClient) send(typ string, payload any) {
	c.t.Helper()
	b, err := protocol.Encode(typ, payload)
	require.NoError(c.t, err)
	require.NoError(c.t, c.conn.WriteMessage(websocket.TextMessage, b))
}

// next reads envelopes until one has type typ.
func (c *wsClient) next(typ string) protocol.Envelope {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		_, data, err := c.conn.ReadMessage()
		require.NoError(c.t, err, "waiting for %q", typ)
		env, err := protocol.DecodeEnvelope(data)
		require.NoError(c.t, err)
		if env.T == typ {
			return env
		}
	}
}

func decode[T any](t *testing.T, env protocol.Envelope) T {
	t.Helper()
	v, err := protocol.DecodePayload[T](env)
	require.NoError(t, err)
	return v
}

func (c *wsClient) hello() protocol.Welcome {
	c.t.Helper()
	c.send(protocol.MsgHello, protocol.Hello{V: protocol.Version, Name: "ann", Width: 640, Height: 480})
	return decode[protocol.Welcome](c.t, c.next(protocol.MsgWelcome))
}

// waitTarget publishes empty poses until a state with a live target arrives.
func (c *wsClient) waitTarget() *protocol.TargetView {
	c.t.Helper()
	for range 50 {
		c.send(protocol.MsgPose, protocol.Pose{Width: 640, Height: 480})
		st := decode[protocol.State](c.t, c.next(protocol.MsgState))
		if st.Target != nil {
			return st.Target
		}
	}
	c.t.Fatal("no target spawned")
	return nil
}

func TestSessionTouchScores(t *testing.T) {
	t.Parallel()

	store := testutil.NewMockStore()
	s, ts := newTestServer(t, store)
	c := dial(t, ts)

	w := c.hello()
	assert.NotEmpty(t, w.SessionID)
	assert.Equal(t, 3, w.Rows)
	assert.Len(t, w.Regions, 9)
	assert.Equal(t, "hand", w.Config.BodyPart)

	target := c.waitTarget()
	assert.Equal(t, 20.0, target.Radius)

	c.send(protocol.MsgPose, protocol.Pose{
		Width:  640,
		Height: 480,
		Keypoints: []model.Keypoint{
			{Part: model.PartRightWrist, Position: model.Point{X: target.X, Y: target.Y}, Score: 0.9},
		},
	})
	sc := decode[protocol.Score](t, c.next(protocol.MsgScore))
	assert.Equal(t, 1, sc.Score)

	assert.Eventually(t, func() bool { return s.Clients().Count() == 1 }, time.Second, 10*time.Millisecond)
	require.NoError(t, c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))

	assert.Eventually(t, func() bool { return store.Count() == 1 }, 5*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return s.Clients().Count() == 0 }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, store.Saved()[0].Score)
	assert.Equal(t, "ann", store.Saved()[0].Player)
}

func TestSessionRejectsBadMessages(t *testing.T) {
	t.Parallel()

	_, ts := newTestServer(t, nil)
	c := dial(t, ts)
	c.hello()

	c.send(protocol.MsgToggle, protocol.Toggle{Cell: "7-7"})
	e := decode[protocol.Error](t, c.next(protocol.MsgError))
	assert.Equal(t, protocol.CodeBadRegion, e.Code)

	c.send(protocol.MsgConfig, protocol.Config{ObjectSize: "huge"})
	e = decode[protocol.Error](t, c.next(protocol.MsgError))
	assert.Equal(t, protocol.CodeBadConfig, e.Code)

	c.send("dance", protocol.Reset{})
	e = decode[protocol.Error](t, c.next(protocol.MsgError))
	assert.Equal(t, protocol.CodeBadMessage, e.Code)

	require.NoError(t, c.conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	e = decode[protocol.Error](t, c.next(protocol.MsgError))
	assert.Equal(t, protocol.CodeBadMessage, e.Code)
}

func TestSessionConfigAndRegions(t *testing.T) {
	t.Parallel()

	_, ts := newTestServer(t, nil)
	c := dial(t, ts)
	c.hello()

	c.send(protocol.MsgConfig, protocol.Config{ObjectSize: "large"})
	off := false
	for _, cell := range []string{"0-0", "0-1", "0-2", "1-0", "1-1", "1-2", "2-0", "2-1"} {
		c.send(protocol.MsgToggle, protocol.Toggle{Cell: cell, Enabled: &off})
	}

	// the first frame spawns in the only enabled cell (2-2) with the new size
	target := c.waitTarget()
	assert.Equal(t, "2-2", target.Region)
	assert.Equal(t, "large", target.Size)
	assert.Equal(t, 30.0, target.Radius)
}

func TestHandshake(t *testing.T) {
	t.Parallel()

	_, ts := newTestServer(t, nil)

	t.Run("wrong first message", func(t *testing.T) {
		c := dial(t, ts)
		c.send(protocol.MsgPose, protocol.Pose{})
		e := decode[protocol.Error](t, c.next(protocol.MsgError))
		assert.Equal(t, protocol.CodeBadMessage, e.Code)
	})

	t.Run("wrong version", func(t *testing.T) {
		c := dial(t, ts)
		c.send(protocol.MsgHello, protocol.Hello{V: protocol.Version + 1})
		e := decode[protocol.Error](t, c.next(protocol.MsgError))
		assert.Equal(t, protocol.CodeBadVersion, e.Code)
	})
}

func TestServeStopsOnCancel(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Server.BindAddress = "127.0.0.1"
	cfg.Server.Port = 0
	s := New(Options{Config: cfg.Server, Canvas: cfg.Canvas.Bounds(), Grid: cfg.Grid})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestFramePreview(t *testing.T) {
	t.Parallel()

	_, ts := newTestServer(t, nil)
	assert.Equal(t, http.StatusNotFound, getJSON(t, ts.URL+"/api/v1/sessions/nope/frame.png", nil))

	c := dial(t, ts)
	w := c.hello()
	target := c.waitTarget()

	resp, err := http.Get(ts.URL + "/api/v1/sessions/" + w.SessionID + "/frame.png")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	img, err := png.Decode(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 640, 480), img.Bounds())

	// above the countdown label, inside the target
	got := color.RGBAModel.Convert(img.At(int(target.X), int(target.Y)-15)).(color.RGBA)
	assert.Equal(t, render.TargetColor, got)
	got = color.RGBAModel.Convert(img.At(0, 0)).(color.RGBA)
	assert.Equal(t, render.Background, got)
}
