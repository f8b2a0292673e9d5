package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/udisondev/posetouch/internal/game"
	"github.com/udisondev/posetouch/internal/protocol"
)

// ErrSendQueueFull is returned by Send when the client does not keep up.
var ErrSendQueueFull = errors.New("send queue full")

// Client is the write side of one WebSocket connection. Every outgoing message goes
// through sendCh so that writePump is the only writer on the connection.
type Client struct {
	conn   *websocket.Conn
	remote string

	sendCh       chan []byte
	writeTimeout time.Duration
	pingInterval time.Duration

	dropped atomic.Uint64
	last    atomic.Pointer[game.State]
}

func newClient(conn *websocket.Conn, remote string, queueSize int, writeTimeout, pingInterval time.Duration) *Client {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Client{
		conn:         conn,
		remote:       remote,
		sendCh:       make(chan []byte, queueSize),
		writeTimeout: writeTimeout,
		pingInterval: pingInterval,
	}
}

// Remote returns the client address.
func (c *Client) Remote() string { return c.remote }

// Dropped returns how many messages were discarded because the queue was full.
func (c *Client) Dropped() uint64 { return c.dropped.Load() }

// Send queues a message. Non-blocking: a full queue drops the message.
func (c *Client) Send(t string, payload any) error {
	b, err := protocol.Encode(t, payload)
	if err != nil {
		return err
	}
	select {
	case c.sendCh <- b:
		return nil
	default:
		c.dropped.Add(1)
		return ErrSendQueueFull
	}
}

func (c *Client) sendError(code, msg string) {
	if err := c.Send(protocol.MsgError, protocol.Error{Code: code, Message: msg}); err != nil {
		slog.Warn("error reply dropped", "client", c.remote, "code", code, "error", err)
	}
}

// ScoreChanged implements game.Observer.
func (c *Client) ScoreChanged(v int) {
	if err := c.Send(protocol.MsgScore, protocol.Score{Score: v}); err != nil {
		slog.Warn("score update dropped", "client", c.remote, "score", v, "error", err)
	}
}

// FrameDone implements game.Observer. States are dropped silently when the client lags;
// the next frame supersedes them.
func (c *Client) FrameDone(st game.State) {
	c.last.Store(&st)
	_ = c.Send(protocol.MsgState, stateMessage(st))
}

// LastState returns the most recent frame state of the session.
func (c *Client) LastState() (game.State, bool) {
	st := c.last.Load()
	if st == nil {
		return game.State{}, false
	}
	return *st, true
}

// writePump writes queued messages and keepalive pings until ctx is done or a write fails.
func (c *Client) writePump(ctx context.Context) error {
	interval := c.pingInterval
	if interval <= 0 {
		interval = 25 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case msg := <-c.sendCh:
			if err := c.write(websocket.TextMessage, msg); err != nil {
				return fmt.Errorf("writing to %s: %w", c.remote, err)
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return fmt.Errorf("pinging %s: %w", c.remote, err)
			}
		case <-ctx.Done():
			c.flush()
			closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = c.write(websocket.CloseMessage, closeMsg)
			return ctx.Err()
		}
	}
}

// flush writes whatever is still queued, best effort.
func (c *Client) flush() {
	for {
		select {
		case msg := <-c.sendCh:
			if err := c.write(websocket.TextMessage, msg); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (c *Client) write(kind int, data []byte) error {
	if c.writeTimeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return err
		}
	}
	return c.conn.WriteMessage(kind, data)
}

func stateMessage(st game.State) protocol.State {
	msg := protocol.State{
		Frame:     st.Frame,
		Score:     st.Score,
		Keypoints: st.Keypoints,
		Regions:   st.Regions,
		Spawned:   st.Stats.Spawned,
		Touched:   st.Stats.Touched,
		Expired:   st.Stats.Expired,
	}
	if t := st.Target; t != nil {
		msg.Target = &protocol.TargetView{
			ID:        t.Target.ID,
			X:         t.Target.Position.X,
			Y:         t.Target.Position.Y,
			Radius:    t.Radius,
			Shape:     string(st.Config.ObjectShape),
			Size:      string(st.Config.ObjectSize),
			Region:    t.Target.Region,
			Remaining: t.Remaining.Seconds(),
			Label:     t.Remaining.String(),
		}
	}
	return msg
}
