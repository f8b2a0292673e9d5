package pose

import (
	"context"
	"errors"

	"github.com/udisondev/posetouch/internal/model"
	"github.com/udisondev/posetouch/internal/video"
)

// Merge returns a Source that concatenates the keypoints of every source in order.
// A failing source fails the frame.
func Merge(sources ...Source) Source {
	if len(sources) == 1 {
		return sources[0]
	}
	return merged(sources)
}

type merged []Source

func (m merged) Estimate(ctx context.Context, frame video.Frame) ([]model.Keypoint, error) {
	var out []model.Keypoint
	for _, s := range m {
		kps, err := s.Estimate(ctx, frame)
		if err != nil {
			return nil, err
		}
		out = append(out, kps...)
	}
	return out, nil
}

func (m merged) Close() error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}
