package render

import (
	"github.com/udisondev/posetouch/internal/model"
	"github.com/udisondev/posetouch/internal/touch"
)

// DrawKeypoints draws each keypoint as a filled circle of the configured marker radius.
func DrawKeypoints(s Surface, kps []model.Keypoint, size model.SizeClass) {
	r := touch.MarkerRadius(size)
	for _, kp := range kps {
		s.FillCircle(kp.Position, r, KeypointColor)
	}
}

// DrawTarget draws a target shape centered at pos with the countdown label on top.
//
// Geometry: circle of radius r; square of side 2r; triangle with apex (x, y-r) and
// base (x-r, y+r), (x+r, y+r).
func DrawTarget(s Surface, pos model.Point, shape model.ShapeClass, size model.SizeClass, label string) {
	r := touch.TargetRadius(size)
	switch shape {
	case model.ShapeRectangle:
		s.FillRect(model.Rect{
			Min: model.NewPoint(pos.X-r, pos.Y-r),
			Max: model.NewPoint(pos.X+r, pos.Y+r),
		}, TargetColor)
	case model.ShapeTriangle:
		s.FillTriangle(
			model.NewPoint(pos.X, pos.Y-r),
			model.NewPoint(pos.X-r, pos.Y+r),
			model.NewPoint(pos.X+r, pos.Y+r),
			TargetColor,
		)
	default:
		s.FillCircle(pos, r, TargetColor)
	}
	if label != "" {
		s.Text(model.NewPoint(pos.X-10, pos.Y+5), label, LabelColor)
	}
}
