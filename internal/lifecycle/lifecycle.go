// Package lifecycle owns the active target slot and its countdown.
//
// Remaining time is re-derived from wall-clock elapsed time on every call, so frame-rate
// jitter never stretches or shrinks a countdown.
package lifecycle

import (
	"errors"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/udisondev/posetouch/internal/model"
)

// ErrTargetActive is returned when activating a target while another one is live.
var ErrTargetActive = errors.New("target already active")

// Remaining is the time left on a target's countdown. Never negative.
type Remaining time.Duration

// Tick returns max(deadline - (now - spawnTime), 0) for t.
func Tick(t *model.Target, now time.Time) Remaining {
	if t == nil {
		return 0
	}
	left := t.Deadline - now.Sub(t.SpawnTime)
	if left < 0 {
		left = 0
	}
	return Remaining(left)
}

// Duration returns r as a time.Duration.
func (r Remaining) Duration() time.Duration { return time.Duration(r) }

// Expired reports whether the countdown reached zero.
func (r Remaining) Expired() bool { return r <= 0 }

// Seconds returns the remaining seconds rounded to one decimal place.
func (r Remaining) Seconds() float64 {
	return math.Round(time.Duration(r).Seconds()*10) / 10
}

// String formats the remaining seconds with one decimal place ("2.4").
func (r Remaining) String() string {
	return strconv.FormatFloat(r.Seconds(), 'f', 1, 64)
}

// Stats counts target outcomes for one session.
type Stats struct {
	Spawned int `json:"spawned"`
	Touched int `json:"touched"`
	Expired int `json:"expired"`
}

// Controller holds at most one active target.
// Not safe for concurrent use; a session drives it from its loop goroutine.
type Controller struct {
	active *model.Target
	stats  Stats
}

// NewController creates an empty controller.
func NewController() *Controller {
	return &Controller{}
}

// Active returns the live target or nil.
func (c *Controller) Active() *model.Target {
	return c.active
}

// Activate makes t the live target.
func (c *Controller) Activate(t *model.Target) error {
	if t == nil {
		return errors.New("activating nil target")
	}
	if c.active != nil {
		return ErrTargetActive
	}
	c.active = t
	c.stats.Spawned++
	return nil
}

// Advance re-evaluates the countdown of the live target at now.
// An expired target is destroyed unconditionally. The returned bool is false when no
// target is live after the call.
func (c *Controller) Advance(now time.Time) (Remaining, bool) {
	if c.active == nil {
		return 0, false
	}
	left := Tick(c.active, now)
	if left.Expired() {
		slog.Debug("target expired",
			"id", c.active.ID,
			"deadline", c.active.Deadline)
		c.active = nil
		c.stats.Expired++
		return 0, false
	}
	return left, true
}

// Consume destroys the live target after a successful touch and returns it.
func (c *Controller) Consume() *model.Target {
	t := c.active
	if t == nil {
		return nil
	}
	c.active = nil
	c.stats.Touched++
	return t
}

// Clear destroys the live target without counting an outcome (used on reset).
func (c *Controller) Clear() {
	c.active = nil
}

// Stats returns outcome counters.
func (c *Controller) Stats() Stats {
	return c.stats
}

// ResetStats zeroes outcome counters.
func (c *Controller) ResetStats() {
	c.stats = Stats{}
}
