// Package pose provides keypoint sources for the game loop.
//
// The pose-estimation model is a black box behind Source. Implementations may fail on any
// frame; the game loop logs the failure and moves on to the next frame.
package pose

import (
	"context"

	"github.com/udisondev/posetouch/internal/model"
	"github.com/udisondev/posetouch/internal/video"
)

// Source estimates body keypoints for a frame.
type Source interface {
	Estimate(ctx context.Context, frame video.Frame) ([]model.Keypoint, error)
	Close() error
}

// Mirror reflects keypoints horizontally inside a frame of the given width,
// matching a mirrored video display.
func Mirror(kps []model.Keypoint, width int) []model.Keypoint {
	out := make([]model.Keypoint, len(kps))
	for i, kp := range kps {
		kp.Position = kp.Position.MirrorX(float64(width))
		out[i] = kp
	}
	return out
}
