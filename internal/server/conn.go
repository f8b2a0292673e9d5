package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/udisondev/posetouch/internal/config"
	"github.com/udisondev/posetouch/internal/game"
	"github.com/udisondev/posetouch/internal/model"
	"github.com/udisondev/posetouch/internal/pose"
	"github.com/udisondev/posetouch/internal/protocol"
	"github.com/udisondev/posetouch/internal/region"
	"github.com/udisondev/posetouch/internal/video"
)

const disposeTimeout = 5 * time.Second

var (
	errClientGone = errors.New("client disconnected")
	errHandshake  = errors.New("handshake failed")
)

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if s.cfg.MaxSessions > 0 && s.clients.Count() >= s.cfg.MaxSessions {
		writeError(w, http.StatusServiceUnavailable, "too many sessions")
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade", "remote", r.RemoteAddr, "error", err)
		return
	}
	s.sessions.Add(1)
	defer s.sessions.Done()
	defer conn.Close()

	if err := s.serveConn(r.Context(), conn, r.RemoteAddr); err != nil {
		slog.Warn("session ended with error", "remote", r.RemoteAddr, "error", err)
	}
}

// connSession binds one connection to its game session.
type connSession struct {
	client  *Client
	session *game.Session
	feed    *pose.Feed
	live    *config.Live
	regions *region.Set // read only here; the session owns mutation
	canvas  model.Bounds
	now     func() time.Time
	seq     uint64
}

func (s *Server) serveConn(ctx context.Context, conn *websocket.Conn, remote string) error {
	pongWait := s.cfg.PongWait
	if pongWait <= 0 {
		pongWait = 60 * time.Second
	}
	if s.cfg.MaxMessageSize > 0 {
		conn.SetReadLimit(s.cfg.MaxMessageSize)
	}
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	client := newClient(conn, remote, s.cfg.SendQueueSize, s.cfg.WriteTimeout, s.cfg.PingInterval)

	hello, err := readHello(conn)
	if err != nil {
		b, _ := protocol.Encode(protocol.MsgError, protocol.Error{Code: handshakeCode(err), Message: err.Error()})
		_ = client.write(websocket.TextMessage, b)
		return err
	}

	canvas := s.canvas
	if hello.Width > 0 && hello.Height > 0 {
		canvas = model.Bounds{Width: float64(hello.Width), Height: float64(hello.Height)}
	}
	regions, err := s.grid.Regions()
	if err != nil {
		return fmt.Errorf("building regions: %w", err)
	}
	live := config.NewLive(s.defaults.Snapshot())
	feed := pose.NewFeed()

	sess, err := game.New(game.Options{
		Player:   hello.Name,
		Frames:   feed,
		Poses:    feed,
		Canvas:   canvas,
		Config:   live,
		Regions:  regions,
		Observer: client,
		Results:  s.results,
		Now:      s.now,
	})
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}

	cs := &connSession{
		client:  client,
		session: sess,
		feed:    feed,
		live:    live,
		regions: regions,
		canvas:  canvas,
		now:     s.now,
	}

	best := 0
	if s.results != nil {
		if best, err = s.results.Best(ctx, sess.Player()); err != nil {
			slog.Warn("loading best score", "player", sess.Player(), "error", err)
		}
	}
	_ = client.Send(protocol.MsgWelcome, protocol.Welcome{
		V:         protocol.Version,
		SessionID: sess.ID(),
		Width:     int(canvas.Width),
		Height:    int(canvas.Height),
		Rows:      regions.Rows(),
		Cols:      regions.Cols(),
		Regions:   regions.EnabledStrings(),
		Config:    protocol.NewConfigView(live.Snapshot()),
		Best:      best,
	})

	s.clients.Register(sess.ID(), client)
	defer s.clients.Unregister(sess.ID())
	slog.Info("client connected", "session", sess.ID(), "player", sess.Player(), "remote", remote)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return client.writePump(gctx) })
	g.Go(func() error { return sess.Run(gctx) })
	g.Go(func() error { return cs.readLoop(gctx, conn) })
	err = g.Wait()

	disposeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), disposeTimeout)
	defer cancel()
	res, derr := sess.Dispose(disposeCtx)
	slog.Info("client disconnected",
		"session", sess.ID(),
		"score", res.Score,
		"dropped", client.Dropped())

	if isNormalClose(err) {
		err = nil
	}
	return errors.Join(err, derr)
}

func readHello(conn *websocket.Conn) (protocol.Hello, error) {
	_, data, err := conn.ReadMessage()
	if err != nil {
		return protocol.Hello{}, fmt.Errorf("%w: %w", errClientGone, err)
	}
	env, err := protocol.DecodeEnvelope(data)
	if err != nil {
		return protocol.Hello{}, fmt.Errorf("%w: %w", errHandshake, err)
	}
	if env.T != protocol.MsgHello {
		return protocol.Hello{}, fmt.Errorf("%w: expected %q, got %q", errHandshake, protocol.MsgHello, env.T)
	}
	hello, err := protocol.DecodePayload[protocol.Hello](env)
	if err != nil {
		return protocol.Hello{}, fmt.Errorf("%w: %w", errHandshake, err)
	}
	if hello.V != protocol.Version {
		return protocol.Hello{}, fmt.Errorf("%w: unsupported version %d", errBadVersion, hello.V)
	}
	return hello, nil
}

var errBadVersion = errors.New("protocol version mismatch")

func handshakeCode(err error) string {
	if errors.Is(err, errBadVersion) {
		return protocol.CodeBadVersion
	}
	return protocol.CodeBadMessage
}

func isNormalClose(err error) bool {
	return err == nil ||
		errors.Is(err, errClientGone) ||
		errors.Is(err, context.Canceled) ||
		websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
}

// readLoop dispatches client messages until the connection closes. It always returns a
// non-nil error so the rest of the connection group stops with it.
func (cs *connSession) readLoop(ctx context.Context, conn *websocket.Conn) error {
	stop := context.AfterFunc(ctx, func() {
		// unblock ReadMessage
		_ = conn.SetReadDeadline(time.Now())
	})
	defer stop()
	defer cs.feed.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%w: %w", errClientGone, err)
		}
		env, err := protocol.DecodeEnvelope(data)
		if err != nil {
			cs.client.sendError(protocol.CodeBadMessage, err.Error())
			continue
		}
		if err := cs.handle(env); err != nil {
			return err
		}
	}
}

// handle applies one client message. Rejected messages are answered with an error
// message; only a closed feed is returned.
func (cs *connSession) handle(env protocol.Envelope) error {
	switch env.T {
	case protocol.MsgPose:
		p, err := protocol.DecodePayload[protocol.Pose](env)
		if err != nil {
			cs.client.sendError(protocol.CodeBadMessage, err.Error())
			return nil
		}
		return cs.publish(p)

	case protocol.MsgToggle:
		tg, err := protocol.DecodePayload[protocol.Toggle](env)
		if err != nil {
			cs.client.sendError(protocol.CodeBadMessage, err.Error())
			return nil
		}
		cmd, err := cs.toggleCommand(tg)
		if err != nil {
			cs.client.sendError(protocol.CodeBadRegion, err.Error())
			return nil
		}
		cs.submit(cmd)

	case protocol.MsgReset:
		cs.submit(game.Reset{})

	case protocol.MsgConfig:
		u, err := protocol.DecodePayload[protocol.Config](env)
		if err != nil {
			cs.client.sendError(protocol.CodeBadMessage, err.Error())
			return nil
		}
		if _, err := cs.live.Update(u.Apply); err != nil {
			cs.client.sendError(protocol.CodeBadConfig, err.Error())
			return nil
		}
		slog.Debug("session config updated", "session", cs.session.ID())

	case protocol.MsgHello:
		cs.client.sendError(protocol.CodeBadMessage, "session already started")

	default:
		cs.client.sendError(protocol.CodeBadMessage, fmt.Sprintf("unknown message type %q", env.T))
	}
	return nil
}

func (cs *connSession) publish(p protocol.Pose) error {
	cs.seq++
	frame := video.Frame{
		Seq:      cs.seq,
		Width:    p.Width,
		Height:   p.Height,
		Captured: cs.now(),
	}
	if frame.Width <= 0 || frame.Height <= 0 {
		frame.Width, frame.Height = int(cs.canvas.Width), int(cs.canvas.Height)
	}
	if err := cs.feed.Publish(pose.Sample{Frame: frame, Keypoints: p.Keypoints}); err != nil {
		return fmt.Errorf("publishing pose: %w", err)
	}
	return nil
}

func (cs *connSession) toggleCommand(tg protocol.Toggle) (game.Command, error) {
	if !cs.regions.Constrained() {
		return nil, region.ErrNoGrid
	}
	id, err := region.ParseCellID(tg.Cell)
	if err != nil {
		return nil, err
	}
	if id.Row >= cs.regions.Rows() || id.Col >= cs.regions.Cols() {
		return nil, fmt.Errorf("%w: %s", region.ErrOutOfGrid, id)
	}
	if tg.Enabled != nil {
		return game.SetRegion{Cell: id, Enabled: *tg.Enabled}, nil
	}
	return game.ToggleRegion{Cell: id}, nil
}

func (cs *connSession) submit(cmd game.Command) {
	if err := cs.session.Submit(cmd); err != nil {
		cs.client.sendError(protocol.CodeBusy, err.Error())
	}
}
