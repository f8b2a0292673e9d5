package pose

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/udisondev/posetouch/internal/model"
	"github.com/udisondev/posetouch/internal/video"
)

// ErrStaleFrame is returned when Estimate is asked for a frame other than the last one taken by Next.
var ErrStaleFrame = errors.New("frame does not match pending sample")

// Sample is one frame with keypoints produced by a remote estimator (usually the browser).
type Sample struct {
	Frame     video.Frame
	Keypoints []model.Keypoint
}

// Feed is a pushed pose source. A producer Publishes samples; the game loop pulls the
// frame with Next and then its keypoints with Estimate. Only the newest unread sample is
// kept: a slow loop skips frames instead of falling behind.
//
// Feed implements both video.Source and Source.
type Feed struct {
	samples chan Sample
	done    chan struct{}
	once    sync.Once

	mu      sync.Mutex
	current Sample
}

// NewFeed creates an empty feed.
func NewFeed() *Feed {
	return &Feed{
		samples: make(chan Sample, 1),
		done:    make(chan struct{}),
	}
}

// Publish offers a sample, replacing any unread one.
func (f *Feed) Publish(s Sample) error {
	select {
	case <-f.done:
		return video.ErrClosed
	default:
	}

	select {
	case f.samples <- s:
		return nil
	default:
	}
	// drop the stale sample
	select {
	case <-f.samples:
	default:
	}
	select {
	case f.samples <- s:
	default:
	}
	return nil
}

// Next blocks until a sample arrives and returns its frame.
func (f *Feed) Next(ctx context.Context) (video.Frame, error) {
	select {
	case <-ctx.Done():
		return video.Frame{}, ctx.Err()
	case <-f.done:
		return video.Frame{}, video.ErrClosed
	case s := <-f.samples:
		f.mu.Lock()
		f.current = s
		f.mu.Unlock()
		return s.Frame, nil
	}
}

// Estimate returns keypoints of the sample whose frame was last returned by Next.
func (f *Feed) Estimate(ctx context.Context, frame video.Frame) ([]model.Keypoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current.Frame.Seq != frame.Seq {
		return nil, fmt.Errorf("%w: want %d, have %d", ErrStaleFrame, frame.Seq, f.current.Frame.Seq)
	}
	return f.current.Keypoints, nil
}

// Close stops the feed. Pending and future Next calls return video.ErrClosed.
func (f *Feed) Close() error {
	f.once.Do(func() { close(f.done) })
	return nil
}
