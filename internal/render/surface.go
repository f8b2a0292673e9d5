// Package render draws a game frame onto a 2D surface.
//
// Surfaces use canvas pixel coordinates: origin top-left, y grows down.
package render

import (
	"image/color"

	"github.com/udisondev/posetouch/internal/model"
	"github.com/udisondev/posetouch/internal/video"
)

// Surface is a 2D drawing target.
type Surface interface {
	Bounds() model.Bounds
	Clear()
	// DrawMirrored draws the frame flipped horizontally and scaled to the surface.
	DrawMirrored(frame video.Frame)
	FillCircle(center model.Point, radius float64, c color.RGBA)
	FillRect(r model.Rect, c color.RGBA)
	FillTriangle(a, b, c model.Point, col color.RGBA)
	Text(at model.Point, s string, c color.RGBA)
	// Present flushes the finished frame.
	Present() error
}

// Palette used by the original game.
var (
	KeypointColor = color.RGBA{G: 128, A: 255}                 // green
	TargetColor   = color.RGBA{R: 255, A: 255}                 // red
	LabelColor    = color.RGBA{R: 255, G: 255, B: 255, A: 255} // white
	Background    = color.RGBA{A: 255}
)

// Discard is a surface that draws nothing. Used when the client renders the scene itself.
type Discard struct {
	Size model.Bounds
}

func (d Discard) Bounds() model.Bounds                         { return d.Size }
func (Discard) Clear()                                         {}
func (Discard) DrawMirrored(video.Frame)                       {}
func (Discard) FillCircle(model.Point, float64, color.RGBA)    {}
func (Discard) FillRect(model.Rect, color.RGBA)                {}
func (Discard) FillTriangle(_, _, _ model.Point, _ color.RGBA) {}
func (Discard) Text(model.Point, string, color.RGBA)           {}
func (Discard) Present() error                                 { return nil }
