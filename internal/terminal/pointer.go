package terminal

import (
	"context"
	"sync"

	"github.com/udisondev/posetouch/internal/model"
	"github.com/udisondev/posetouch/internal/video"
)

// Pointer is a pose source driven by the mouse. While the pointer is over the field it
// reports every keypoint of the selected body part at the pointer position.
type Pointer struct {
	part func() model.BodyPart

	mu      sync.Mutex
	pos     model.Point
	visible bool
}

// NewPointer creates a pointer source. part is read on every estimate.
func NewPointer(part func() model.BodyPart) *Pointer {
	return &Pointer{part: part}
}

// Move places the pointer at p (canvas coordinates).
func (p *Pointer) Move(at model.Point) {
	p.mu.Lock()
	p.pos, p.visible = at, true
	p.mu.Unlock()
}

// Hide removes the pointer until the next Move.
func (p *Pointer) Hide() {
	p.mu.Lock()
	p.visible = false
	p.mu.Unlock()
}

// Position returns the pointer position and whether it is visible.
func (p *Pointer) Position() (model.Point, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pos, p.visible
}

func (p *Pointer) Estimate(ctx context.Context, _ video.Frame) ([]model.Keypoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pos, ok := p.Position()
	if !ok {
		return nil, nil
	}
	ids := p.part().Keypoints()
	kps := make([]model.Keypoint, len(ids))
	for i, id := range ids {
		kps[i] = model.Keypoint{Part: id, Position: pos, Score: 1}
	}
	return kps, nil
}

func (p *Pointer) Close() error { return nil }
