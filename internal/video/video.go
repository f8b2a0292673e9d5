// Package video describes camera frames as seen by the game core.
//
// The core only needs stable frame dimensions for coordinate math. Pixels are optional:
// a front-end that renders the camera itself may send frames without an image.
package video

import (
	"context"
	"errors"
	"image"
	"sync/atomic"
	"time"

	"github.com/udisondev/posetouch/internal/model"
)

// ErrClosed is returned by a Source that will not produce more frames.
var ErrClosed = errors.New("video source closed")

// Frame is one video frame.
type Frame struct {
	Seq      uint64
	Width    int
	Height   int
	Image    image.Image // nil when pixels are not available
	Captured time.Time
}

// Bounds returns frame dimensions as canvas bounds.
func (f Frame) Bounds() model.Bounds {
	return model.Bounds{Width: float64(f.Width), Height: float64(f.Height)}
}

// Source yields frames. Next blocks until a frame is available or ctx is done.
type Source interface {
	Next(ctx context.Context) (Frame, error)
}

// Blank produces pixel-less frames of a fixed size on demand.
type Blank struct {
	width, height int
	seq           atomic.Uint64
	now           func() time.Time
}

// NewBlank creates a blank frame source.
func NewBlank(width, height int, now func() time.Time) *Blank {
	if now == nil {
		now = time.Now
	}
	return &Blank{width: width, height: height, now: now}
}

// Next returns the next blank frame.
func (b *Blank) Next(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	return Frame{
		Seq:      b.seq.Add(1),
		Width:    b.width,
		Height:   b.height,
		Captured: b.now(),
	}, nil
}
