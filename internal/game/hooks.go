package game

import (
	"context"
	"time"

	"github.com/udisondev/posetouch/internal/lifecycle"
	"github.com/udisondev/posetouch/internal/model"
)

// ConfigProvider supplies the player options. Snapshot is called once per frame.
type ConfigProvider interface {
	Snapshot() model.Configuration
}

// StaticConfig is a ConfigProvider that never changes.
type StaticConfig model.Configuration

// Snapshot returns c.
func (c StaticConfig) Snapshot() model.Configuration { return model.Configuration(c) }

// Observer receives session output. Both methods are called from the loop goroutine and
// must not block.
type Observer interface {
	ScoreChanged(score int)
	FrameDone(st State)
}

// NopObserver ignores everything.
type NopObserver struct{}

func (NopObserver) ScoreChanged(int) {}
func (NopObserver) FrameDone(State)  {}

// Cue plays feedback for target outcomes.
type Cue interface {
	Touched()
	Expired()
}

// NopCue is silent.
type NopCue struct{}

func (NopCue) Touched() {}
func (NopCue) Expired() {}

// Pacer waits between frames.
type Pacer interface {
	Wait(ctx context.Context) error
}

// Immediate does not wait. Use it when the frame source itself blocks until the next
// frame arrives (a client-pushed feed).
type Immediate struct{}

// Wait returns at once unless ctx is done.
func (Immediate) Wait(ctx context.Context) error {
	return ctx.Err()
}

// Ticker paces frames at a fixed rate.
type Ticker struct {
	t *time.Ticker
}

// NewTicker creates a pacer firing every d.
func NewTicker(d time.Duration) *Ticker {
	return &Ticker{t: time.NewTicker(d)}
}

// Wait blocks until the next tick.
func (p *Ticker) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.t.C:
		return nil
	}
}

// Stop releases the ticker.
func (p *Ticker) Stop() {
	p.t.Stop()
}

// State is what a session looked like at the end of a frame.
type State struct {
	SessionID string
	Frame     uint64
	Canvas    model.Bounds
	Score     int
	Target    *TargetState // nil when no target is live
	Keypoints []model.Keypoint
	Regions   []string
	Rows      int
	Cols      int
	Stats     lifecycle.Stats
	Config    model.Configuration
}

// TargetState is the live target with its countdown.
type TargetState struct {
	Target    model.Target
	Radius    float64
	Remaining lifecycle.Remaining
}
