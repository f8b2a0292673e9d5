package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/udisondev/posetouch/internal/model"
	"github.com/udisondev/posetouch/internal/video"
)

// Raster draws into an in-memory RGBA image.
type Raster struct {
	img  *image.RGBA
	face font.Face
}

// NewRaster creates a raster surface of the given size.
func NewRaster(width, height int) *Raster {
	return &Raster{
		img:  image.NewRGBA(image.Rect(0, 0, width, height)),
		face: basicfont.Face7x13,
	}
}

// Image returns the backing image. It is overwritten by the next frame.
func (r *Raster) Image() *image.RGBA {
	return r.img
}

func (r *Raster) Bounds() model.Bounds {
	b := r.img.Bounds()
	return model.Bounds{Width: float64(b.Dx()), Height: float64(b.Dy())}
}

func (r *Raster) Clear() {
	draw.Draw(r.img, r.img.Bounds(), image.NewUniform(Background), image.Point{}, draw.Src)
}

// DrawMirrored scales the frame to the surface (nearest neighbour) and flips it horizontally.
// Frames without pixels leave the surface untouched.
func (r *Raster) DrawMirrored(frame video.Frame) {
	if frame.Image == nil {
		return
	}
	src := frame.Image.Bounds()
	dst := r.img.Bounds()
	if src.Empty() || dst.Empty() {
		return
	}
	for y := 0; y < dst.Dy(); y++ {
		sy := src.Min.Y + y*src.Dy()/dst.Dy()
		for x := 0; x < dst.Dx(); x++ {
			sx := src.Min.X + (dst.Dx()-1-x)*src.Dx()/dst.Dx()
			r.img.Set(dst.Min.X+x, dst.Min.Y+y, frame.Image.At(sx, sy))
		}
	}
}

func (r *Raster) FillCircle(center model.Point, radius float64, c color.RGBA) {
	if radius <= 0 {
		return
	}
	box := r.clip(center.X-radius, center.Y-radius, center.X+radius, center.Y+radius)
	r2 := radius * radius
	for y := box.Min.Y; y < box.Max.Y; y++ {
		for x := box.Min.X; x < box.Max.X; x++ {
			dx := float64(x) + 0.5 - center.X
			dy := float64(y) + 0.5 - center.Y
			if dx*dx+dy*dy <= r2 {
				r.img.SetRGBA(x, y, c)
			}
		}
	}
}

func (r *Raster) FillRect(rect model.Rect, c color.RGBA) {
	box := r.clip(rect.Min.X, rect.Min.Y, rect.Max.X, rect.Max.Y)
	if box.Empty() {
		return
	}
	draw.Draw(r.img, box, image.NewUniform(c), image.Point{}, draw.Src)
}

func (r *Raster) FillTriangle(a, b, cc model.Point, c color.RGBA) {
	box := r.clip(
		math.Min(a.X, math.Min(b.X, cc.X)), math.Min(a.Y, math.Min(b.Y, cc.Y)),
		math.Max(a.X, math.Max(b.X, cc.X)), math.Max(a.Y, math.Max(b.Y, cc.Y)),
	)
	area := edge(a, b, cc)
	if area == 0 {
		return
	}
	for y := box.Min.Y; y < box.Max.Y; y++ {
		for x := box.Min.X; x < box.Max.X; x++ {
			p := model.NewPoint(float64(x)+0.5, float64(y)+0.5)
			w0 := edge(b, cc, p)
			w1 := edge(cc, a, p)
			w2 := edge(a, b, p)
			if area > 0 && w0 >= 0 && w1 >= 0 && w2 >= 0 ||
				area < 0 && w0 <= 0 && w1 <= 0 && w2 <= 0 {
				r.img.SetRGBA(x, y, c)
			}
		}
	}
}

// edge returns twice the signed area of triangle (a, b, p).
func edge(a, b, p model.Point) float64 {
	return (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)
}

// Text draws s with its baseline starting at at.
func (r *Raster) Text(at model.Point, s string, c color.RGBA) {
	d := font.Drawer{
		Dst:  r.img,
		Src:  image.NewUniform(c),
		Face: r.face,
		Dot:  fixed.P(int(at.X), int(at.Y)),
	}
	d.DrawString(s)
}

func (r *Raster) Present() error {
	return nil
}

// clip converts float bounds to an integer pixel rectangle inside the image.
func (r *Raster) clip(x0, y0, x1, y1 float64) image.Rectangle {
	rect := image.Rect(
		int(math.Floor(x0)), int(math.Floor(y0)),
		int(math.Ceil(x1)), int(math.Ceil(y1)),
	)
	return rect.Intersect(r.img.Bounds())
}
