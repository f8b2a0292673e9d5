package pose

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/posetouch/internal/model"
	"github.com/udisondev/posetouch/internal/video"
)

type fixedSource struct {
	kps    []model.Keypoint
	err    error
	closed bool
}

func (s *fixedSource) Estimate(context.Context, video.Frame) ([]model.Keypoint, error) {
	return s.kps, s.err
}

func (s *fixedSource) Close() error {
	s.closed = true
	return nil
}

func TestMerge(t *testing.T) {
	t.Parallel()

	a := &fixedSource{kps: []model.Keypoint{{Part: model.PartNose}}}
	b := &fixedSource{kps: []model.Keypoint{{Part: model.PartLeftWrist}, {Part: model.PartRightWrist}}}

	src := Merge(a, b)
	kps, err := src.Estimate(context.Background(), testFrame(1))
	require.NoError(t, err)
	require.Len(t, kps, 3)
	assert.Equal(t, model.PartNose, kps[0].Part)
	assert.Equal(t, model.PartRightWrist, kps[2].Part)

	require.NoError(t, src.Close())
	assert.True(t, a.closed)
	assert.True(t, b.closed)
}

func TestMergeFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	src := Merge(&fixedSource{kps: []model.Keypoint{{Part: model.PartNose}}}, &fixedSource{err: boom})
	_, err := src.Estimate(context.Background(), testFrame(1))
	assert.ErrorIs(t, err, boom)
}

func TestMergeSingle(t *testing.T) {
	t.Parallel()

	a := &fixedSource{}
	assert.Same(t, a, Merge(a))
}
