// Package game runs the per-frame loop of a posetouch session: read keypoints, keep one
// target alive, count touches.
package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/udisondev/posetouch/internal/lifecycle"
	"github.com/udisondev/posetouch/internal/model"
	"github.com/udisondev/posetouch/internal/pose"
	"github.com/udisondev/posetouch/internal/region"
	"github.com/udisondev/posetouch/internal/render"
	"github.com/udisondev/posetouch/internal/score"
	"github.com/udisondev/posetouch/internal/spawn"
	"github.com/udisondev/posetouch/internal/touch"
	"github.com/udisondev/posetouch/internal/video"
)

// DefaultInboxSize is the command queue length when Options.InboxSize is zero.
const DefaultInboxSize = 32

var (
	ErrNoSource   = errors.New("session needs a frame source and a pose source")
	ErrInboxFull  = errors.New("session command inbox full")
	ErrDisposed   = errors.New("session disposed")
	errNilCommand = errors.New("nil command")
)

// Options configures New. Frames and Poses are required.
type Options struct {
	ID     string // generated when empty
	Player string

	Frames video.Source
	Poses  pose.Source

	// Canvas is used when frames carry no size. Defaults to the surface bounds.
	Canvas  model.Bounds
	Surface render.Surface

	Config   ConfigProvider
	Regions  *region.Set
	Spawner  *spawn.Spawner
	Observer Observer
	Cue      Cue
	Pacer    Pacer
	Results  *score.Manager // finished sessions are recorded here when set

	Now       func() time.Time
	InboxSize int
}

// Session is one player's game. Step, Run, Reset and Dispose must be called from a single
// goroutine; other goroutines talk to a running session through Submit.
type Session struct {
	id     string
	player string

	frames   video.Source
	poses    pose.Source
	surface  render.Surface
	config   ConfigProvider
	regions  *region.Set
	spawner  *spawn.Spawner
	observer Observer
	cue      Cue
	pacer    Pacer
	results  *score.Manager
	now      func() time.Time

	targets *lifecycle.Controller
	score   *score.State
	inbox   chan Command

	canvas    model.Bounds
	startedAt time.Time
	frameNo   uint64
	failures  uint64
	lastCfg   model.Configuration
	disposed  atomic.Bool
}

// New initialises a session. No target exists until the first Step.
func New(opts Options) (*Session, error) {
	if opts.Frames == nil || opts.Poses == nil {
		return nil, ErrNoSource
	}
	s := &Session{
		id:       opts.ID,
		player:   opts.Player,
		frames:   opts.Frames,
		poses:    opts.Poses,
		surface:  opts.Surface,
		config:   opts.Config,
		regions:  opts.Regions,
		spawner:  opts.Spawner,
		observer: opts.Observer,
		cue:      opts.Cue,
		pacer:    opts.Pacer,
		results:  opts.Results,
		now:      opts.Now,
		canvas:   opts.Canvas,
		targets:  lifecycle.NewController(),
	}
	if s.id == "" {
		s.id = uuid.NewString()
	}
	if s.player == "" {
		s.player = "anonymous"
	}
	if s.surface == nil {
		s.surface = render.Discard{Size: s.canvas}
	}
	if s.canvas.Empty() {
		s.canvas = s.surface.Bounds()
	}
	if s.config == nil {
		s.config = StaticConfig(model.DefaultConfiguration())
	}
	if s.regions == nil {
		s.regions = region.Unconstrained()
	}
	if s.spawner == nil {
		s.spawner = spawn.NewSpawner(nil)
	}
	if s.observer == nil {
		s.observer = NopObserver{}
	}
	if s.cue == nil {
		s.cue = NopCue{}
	}
	if s.pacer == nil {
		s.pacer = Immediate{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	size := opts.InboxSize
	if size <= 0 {
		size = DefaultInboxSize
	}
	s.inbox = make(chan Command, size)
	s.score = score.NewState(func(v int) { s.observer.ScoreChanged(v) })
	s.lastCfg = s.config.Snapshot().Normalize()
	s.startedAt = s.now()

	slog.Debug("session created",
		"session", s.id,
		"player", s.player,
		"constrained", s.regions.Constrained(),
		"enabled_cells", s.regions.Len())
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Player returns the player name.
func (s *Session) Player() string { return s.player }

// Score returns the current score.
func (s *Session) Score() int { return s.score.Score() }

// Target returns a copy of the live target or nil.
func (s *Session) Target() *model.Target {
	t := s.targets.Active()
	if t == nil {
		return nil
	}
	cp := *t
	return &cp
}

// Stats returns outcome counters since the last reset.
func (s *Session) Stats() lifecycle.Stats { return s.targets.Stats() }

// Failures returns how many frames were skipped because a source failed.
func (s *Session) Failures() uint64 { return s.failures }

// Submit queues a command for the next frame. It never blocks.
func (s *Session) Submit(cmd Command) error {
	if cmd == nil {
		return errNilCommand
	}
	if s.disposed.Load() {
		return ErrDisposed
	}
	select {
	case s.inbox <- cmd:
		return nil
	default:
		return ErrInboxFull
	}
}

func (s *Session) drain() {
	for {
		select {
		case cmd := <-s.inbox:
			cmd.apply(s)
		default:
			return
		}
	}
}

// Reset zeroes the score, destroys the live target and tries to spawn a new one at once.
func (s *Session) Reset() {
	now := s.now()
	s.targets.Clear()
	s.targets.ResetStats()
	s.score.Reset()
	s.startedAt = now

	cfg := s.config.Snapshot().Normalize()
	s.lastCfg = cfg
	s.spawn(cfg, now)
	slog.Info("session reset", "session", s.id, "target", s.targets.Active() != nil)
}

func (s *Session) spawn(cfg model.Configuration, now time.Time) {
	if s.canvas.Empty() {
		return
	}
	t := s.spawner.Spawn(s.regions, s.canvas, cfg, now)
	if t == nil {
		return
	}
	if err := s.targets.Activate(t); err != nil {
		slog.Error("activating target", "session", s.id, "error", err)
	}
}

// Step runs one frame. Source failures are logged and the frame is skipped with a nil
// error; only ctx cancellation, a closed source or disposal end the session.
func (s *Session) Step(ctx context.Context) error {
	if s.disposed.Load() {
		return ErrDisposed
	}
	frame, err := s.frames.Next(ctx)
	if err != nil {
		return s.skip(ctx, "frame", err)
	}
	kps, err := s.poses.Estimate(ctx, frame)
	if err != nil {
		return s.skip(ctx, "estimate", err)
	}

	// Commands queued while waiting for the frame take effect before it is processed.
	if b := frame.Bounds(); !b.Empty() {
		s.canvas = b
	}
	s.drain()
	cfg := s.config.Snapshot().Normalize()
	s.lastCfg = cfg

	now := s.now()
	s.frameNo++
	tracked := model.FilterKeypoints(kps, cfg.BodyPart, cfg.MinConfidence)

	s.surface.Clear()
	s.surface.DrawMirrored(frame)
	render.DrawKeypoints(s.surface, tracked, cfg.KeypointSize)

	if s.targets.Active() == nil {
		s.spawn(cfg, now)
	}

	var live *TargetState
	if t := s.targets.Active(); t != nil {
		left, alive := s.targets.Advance(now)
		if !alive {
			s.cue.Expired()
		} else {
			render.DrawTarget(s.surface, t.Position, cfg.ObjectShape, cfg.ObjectSize, left.String())
			if kp, ok := touch.FirstTouch(tracked, t, cfg); ok {
				s.targets.Consume()
				n := s.score.Increment()
				s.cue.Touched()
				slog.Debug("target touched",
					"session", s.id,
					"target", t.ID,
					"part", kp.Part,
					"score", n)
			} else {
				live = &TargetState{Target: *t, Radius: touch.TargetRadius(cfg.ObjectSize), Remaining: left}
			}
		}
	}

	if err := s.surface.Present(); err != nil {
		slog.Warn("presenting frame", "session", s.id, "error", err)
	}
	s.observer.FrameDone(State{
		SessionID: s.id,
		Frame:     s.frameNo,
		Canvas:    s.canvas,
		Score:     s.score.Score(),
		Target:    live,
		Keypoints: tracked,
		Regions:   s.regions.EnabledStrings(),
		Rows:      s.regions.Rows(),
		Cols:      s.regions.Cols(),
		Stats:     s.targets.Stats(),
		Config:    cfg,
	})
	return nil
}

func (s *Session) skip(ctx context.Context, stage string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, video.ErrClosed) || errors.Is(err, context.Canceled) {
		return err
	}
	s.failures++
	slog.Warn("frame skipped",
		"session", s.id,
		"stage", stage,
		"error", err)
	return nil
}

// Run steps frames until ctx is cancelled or the source closes. A closed source ends the
// session normally.
func (s *Session) Run(ctx context.Context) error {
	slog.Info("session started", "session", s.id, "player", s.player)
	for {
		if err := s.Step(ctx); err != nil {
			if errors.Is(err, video.ErrClosed) {
				slog.Info("session source closed", "session", s.id, "frames", s.frameNo)
				return nil
			}
			return err
		}
		if err := s.pacer.Wait(ctx); err != nil {
			return err
		}
	}
}

// Result summarises the session so far.
func (s *Session) Result() score.Result {
	st := s.targets.Stats()
	return score.Result{
		SessionID:       s.id,
		Player:          s.player,
		Score:           s.score.Score(),
		Spawned:         st.Spawned,
		Touched:         st.Touched,
		Expired:         st.Expired,
		BodyPart:        string(s.lastCfg.BodyPart),
		ObjectSize:      string(s.lastCfg.ObjectSize),
		IntervalSeconds: s.lastCfg.IntervalSeconds(),
		StartedAt:       s.startedAt,
		EndedAt:         s.now(),
	}
}

// Dispose closes the pose source and records the result when a result manager is set and
// at least one frame was played. Further calls return ErrDisposed.
func (s *Session) Dispose(ctx context.Context) (score.Result, error) {
	if !s.disposed.CompareAndSwap(false, true) {
		return score.Result{}, ErrDisposed
	}
	res := s.Result()
	s.targets.Clear()

	var errs []error
	if err := s.poses.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing pose source: %w", err))
	}
	if s.results != nil && s.frameNo > 0 {
		if err := s.results.Record(ctx, res); err != nil {
			errs = append(errs, fmt.Errorf("recording result: %w", err))
		}
	}
	slog.Info("session finished",
		"session", s.id,
		"player", s.player,
		"score", res.Score,
		"frames", s.frameNo,
		"skipped", s.failures)
	return res, errors.Join(errs...)
}
