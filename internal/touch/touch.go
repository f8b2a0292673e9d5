// Package touch decides whether a tracked body part overlaps the active target.
//
// Both the target and the body marker are treated as circles. The rendered shape of the
// target does not affect collision.
package touch

import "github.com/udisondev/posetouch/internal/model"

var targetRadius = map[model.SizeClass]float64{
	model.SizeSmall:  10,
	model.SizeMedium: 20,
	model.SizeLarge:  30,
}

var markerRadius = map[model.SizeClass]float64{
	model.SizeSmall:  10,
	model.SizeMedium: 20,
	model.SizeLarge:  30,
}

// MaxTargetRadius is the largest radius any target can have.
const MaxTargetRadius = 30.0

// TargetRadius returns the pixel radius for a target size class.
// Unknown classes fall back to medium.
func TargetRadius(size model.SizeClass) float64 {
	return targetRadius[size.OrDefault()]
}

// MarkerRadius returns the pixel radius of a body keypoint marker.
// Unknown classes fall back to medium.
func MarkerRadius(size model.SizeClass) float64 {
	return markerRadius[size.OrDefault()]
}

// IsTouching reports whether a keypoint at kp overlaps a target at target.
// The result is true iff the distance is strictly less than the sum of both radii.
// A nil position means nothing was detected and never touches.
func IsTouching(kp, target *model.Point, objectSize, keypointSize model.SizeClass) bool {
	if kp == nil || target == nil {
		return false
	}
	reach := TargetRadius(objectSize) + MarkerRadius(keypointSize)
	return kp.DistanceSquared(*target) < reach*reach
}

// FirstTouch returns the first keypoint, in detection order, that touches target.
// Keypoints after the first hit are not evaluated.
func FirstTouch(kps []model.Keypoint, target *model.Target, cfg model.Configuration) (model.Keypoint, bool) {
	if target == nil {
		return model.Keypoint{}, false
	}
	pos := target.Position
	for _, kp := range kps {
		p := kp.Position
		if IsTouching(&p, &pos, cfg.ObjectSize, cfg.KeypointSize) {
			return kp, true
		}
	}
	return model.Keypoint{}, false
}
