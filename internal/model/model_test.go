package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClasses(t *testing.T) {
	part, err := ParseBodyPart(" Head ")
	require.NoError(t, err)
	assert.Equal(t, BodyPartHead, part)

	_, err = ParseBodyPart("elbow")
	require.ErrorIs(t, err, ErrUnknownBodyPart)

	shape, err := ParseShape("TRIANGLE")
	require.NoError(t, err)
	assert.Equal(t, ShapeTriangle, shape)

	_, err = ParseShape("hexagon")
	require.ErrorIs(t, err, ErrUnknownShape)

	size, err := ParseSize("large")
	require.NoError(t, err)
	assert.Equal(t, SizeLarge, size)

	_, err = ParseSize("huge")
	require.ErrorIs(t, err, ErrUnknownSize)
}

func TestBodyPartKeypoints(t *testing.T) {
	tests := []struct {
		part BodyPart
		want []BodyPartID
	}{
		{BodyPartHand, []BodyPartID{PartLeftWrist, PartRightWrist}},
		{BodyPartHead, []BodyPartID{PartNose, PartLeftEye, PartRightEye}},
		{BodyPartFoot, []BodyPartID{PartLeftAnkle, PartRightAnkle}},
		{BodyPart(""), nil},
	}

	for _, tt := range tests {
		t.Run(string(tt.part), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.part.Keypoints())
		})
	}
}

func TestFilterKeypoints(t *testing.T) {
	kps := []Keypoint{
		{Part: PartNose, Position: NewPoint(1, 1), Score: 0.9},
		{Part: PartLeftWrist, Position: NewPoint(2, 2), Score: 0.2},
		{Part: PartRightWrist, Position: NewPoint(3, 3), Score: 0.8},
		{Part: PartLeftAnkle, Position: NewPoint(4, 4), Score: 0.9},
	}

	all := FilterKeypoints(kps, BodyPartHand, 0)
	require.Len(t, all, 2)
	assert.Equal(t, PartLeftWrist, all[0].Part)
	assert.Equal(t, PartRightWrist, all[1].Part)

	confident := FilterKeypoints(kps, BodyPartHand, 0.5)
	require.Len(t, confident, 1)
	assert.Equal(t, PartRightWrist, confident[0].Part)

	assert.Empty(t, FilterKeypoints(kps, BodyPart("tail"), 0))
}

func TestConfigurationNormalize(t *testing.T) {
	got := Configuration{ObjectSize: "huge"}.Normalize()

	assert.Equal(t, DefaultInterval, got.Interval)
	assert.Equal(t, BodyPartHand, got.BodyPart)
	assert.Equal(t, ShapeCircle, got.ObjectShape)
	assert.Equal(t, SizeMedium, got.ObjectSize)
	assert.Equal(t, SizeMedium, got.KeypointSize)
	require.NoError(t, got.Validate())
}

func TestConfigurationValidate(t *testing.T) {
	cfg := DefaultConfiguration()
	require.NoError(t, cfg.Validate())

	bad := cfg
	bad.Interval = 0
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.KeypointSize = "tiny"
	assert.ErrorIs(t, bad.Validate(), ErrUnknownSize)

	bad = cfg
	bad.MinConfidence = 1.5
	assert.Error(t, bad.Validate())
}

func TestRectGeometry(t *testing.T) {
	canvas := Bounds{Width: 640, Height: 480}.Rect()
	inner := canvas.Inset(30)

	assert.Equal(t, Rect{Min: NewPoint(30, 30), Max: NewPoint(610, 450)}, inner)
	assert.True(t, inner.Contains(NewPoint(30, 450)))
	assert.False(t, inner.Contains(NewPoint(29.9, 100)))

	cell := Rect{Min: NewPoint(0, 0), Max: NewPoint(213, 160)}
	assert.Equal(t, Rect{Min: NewPoint(30, 30), Max: NewPoint(213, 160)}, cell.Intersect(inner))

	assert.True(t, Rect{}.Intersect(inner).Empty())
	assert.True(t, Rect{Max: NewPoint(10, 10)}.Inset(6).Empty())
}

func TestPointDistanceAndMirror(t *testing.T) {
	a := NewPoint(0, 0)
	b := NewPoint(3, 4)
	assert.InDelta(t, 5.0, a.Distance(b), 1e-9)
	assert.InDelta(t, 25.0, b.DistanceSquared(a), 1e-9)
	assert.Equal(t, NewPoint(637, 4), b.MirrorX(640))
}

func TestTargetTiming(t *testing.T) {
	spawn := time.Unix(100, 0)
	tgt := &Target{SpawnTime: spawn, Deadline: 3 * time.Second}

	assert.Equal(t, spawn.Add(3*time.Second), tgt.ExpiresAt())
	assert.Equal(t, time.Second, tgt.Elapsed(spawn.Add(time.Second)))
	assert.Zero(t, tgt.Elapsed(spawn.Add(-time.Second)))
}
