package model

import (
	"fmt"
	"time"
)

// DefaultInterval is the countdown used when none (or a non-positive one) is configured.
const DefaultInterval = 5 * time.Second

// Configuration is the player-selected game options. Sessions read one snapshot per frame
// and thread it through spawning, rendering and touch evaluation.
type Configuration struct {
	Interval      time.Duration `json:"interval"`
	BodyPart      BodyPart      `json:"bodyPart"`
	ObjectShape   ShapeClass    `json:"objectShape"`
	ObjectSize    SizeClass     `json:"objectSize"`
	KeypointSize  SizeClass     `json:"bodyKeypointSize"`
	MinConfidence float64       `json:"minConfidence,omitempty"`
}

// DefaultConfiguration returns the options a fresh session starts with.
func DefaultConfiguration() Configuration {
	return Configuration{
		Interval:     DefaultInterval,
		BodyPart:     BodyPartHand,
		ObjectShape:  ShapeCircle,
		ObjectSize:   SizeMedium,
		KeypointSize: SizeMedium,
	}
}

// IntervalSeconds returns the countdown in seconds.
func (c Configuration) IntervalSeconds() float64 {
	return c.Interval.Seconds()
}

// Normalize fills unset or unknown fields with defaults so a frame never runs on a
// half-configured snapshot.
func (c Configuration) Normalize() Configuration {
	def := DefaultConfiguration()
	if c.Interval <= 0 {
		c.Interval = def.Interval
	}
	if !c.BodyPart.Valid() {
		c.BodyPart = def.BodyPart
	}
	if !c.ObjectShape.Valid() {
		c.ObjectShape = def.ObjectShape
	}
	c.ObjectSize = c.ObjectSize.OrDefault()
	c.KeypointSize = c.KeypointSize.OrDefault()
	if c.MinConfidence < 0 {
		c.MinConfidence = 0
	}
	return c
}

// Validate reports the first invalid field.
func (c Configuration) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", c.Interval)
	}
	if !c.BodyPart.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownBodyPart, c.BodyPart)
	}
	if !c.ObjectShape.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownShape, c.ObjectShape)
	}
	if !c.ObjectSize.Valid() {
		return fmt.Errorf("object size: %w: %q", ErrUnknownSize, c.ObjectSize)
	}
	if !c.KeypointSize.Valid() {
		return fmt.Errorf("keypoint size: %w: %q", ErrUnknownSize, c.KeypointSize)
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("min confidence must be in [0,1], got %v", c.MinConfidence)
	}
	return nil
}

// SecondsToDuration converts a fractional seconds value (as typed by a player) to a Duration.
func SecondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
