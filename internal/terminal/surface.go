package terminal

import (
	"image/color"
	"math"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/udisondev/posetouch/internal/model"
	"github.com/udisondev/posetouch/internal/render"
	"github.com/udisondev/posetouch/internal/video"
)

// HUDRows is the number of screen rows below the playing field.
const HUDRows = 2

var (
	fieldStyle = tcell.StyleDefault.Background(rgb(render.Background)).Foreground(tcell.ColorWhite)
	hudStyle   = tcell.StyleDefault.Foreground(tcell.ColorWhite)
)

// Surface draws onto a tcell screen. Canvas pixels are scaled onto character cells;
// the bottom HUDRows rows are left to the overlay.
type Surface struct {
	screen  tcell.Screen
	overlay func(tcell.Screen)

	mu     sync.Mutex
	canvas model.Bounds
}

// NewSurface creates a surface for a canvas of the given size.
func NewSurface(screen tcell.Screen, canvas model.Bounds) *Surface {
	return &Surface{screen: screen, canvas: canvas}
}

// SetOverlay installs a hook drawn on top of the scene right before each Present.
func (s *Surface) SetOverlay(fn func(tcell.Screen)) {
	s.overlay = fn
}

// Bounds returns the canvas size, not the terminal size.
func (s *Surface) Bounds() model.Bounds {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canvas
}

// field returns the size of the playing field in cells.
func (s *Surface) field() (cols, rows int) {
	w, h := s.screen.Size()
	rows = h - HUDRows
	if rows < 1 {
		rows = 1
	}
	return w, rows
}

// ToCell maps a canvas point to the cell that contains it.
func (s *Surface) ToCell(p model.Point) (x, y int) {
	cols, rows := s.field()
	b := s.Bounds()
	x = int(math.Floor(p.X * float64(cols) / b.Width))
	y = int(math.Floor(p.Y * float64(rows) / b.Height))
	return x, y
}

// ToCanvas maps a cell to the canvas point at its center. ok is false outside the field.
func (s *Surface) ToCanvas(x, y int) (model.Point, bool) {
	cols, rows := s.field()
	if x < 0 || y < 0 || x >= cols || y >= rows {
		return model.Point{}, false
	}
	b := s.Bounds()
	return model.NewPoint(
		(float64(x)+0.5)*b.Width/float64(cols),
		(float64(y)+0.5)*b.Height/float64(rows),
	), true
}

func (s *Surface) Clear() {
	s.screen.Fill(' ', fieldStyle)
}

// DrawMirrored adopts the frame size as the canvas and shades every field cell with the
// mirrored pixel under its center.
func (s *Surface) DrawMirrored(frame video.Frame) {
	if b := frame.Bounds(); !b.Empty() {
		s.mu.Lock()
		s.canvas = b
		s.mu.Unlock()
	}
	if frame.Image == nil {
		return
	}
	src := frame.Image.Bounds()
	if src.Empty() {
		return
	}
	cols, rows := s.field()
	for y := 0; y < rows; y++ {
		sy := src.Min.Y + (2*y+1)*src.Dy()/(2*rows)
		for x := 0; x < cols; x++ {
			sx := src.Min.X + (2*(cols-1-x)+1)*src.Dx()/(2*cols)
			c := color.RGBAModel.Convert(frame.Image.At(sx, sy)).(color.RGBA)
			s.screen.SetContent(x, y, ' ', nil, fieldStyle.Background(rgb(c)))
		}
	}
}

func (s *Surface) FillCircle(center model.Point, radius float64, c color.RGBA) {
	r2 := radius * radius
	s.fill(
		model.Rect{
			Min: model.NewPoint(center.X-radius, center.Y-radius),
			Max: model.NewPoint(center.X+radius, center.Y+radius),
		},
		func(p model.Point) bool { return p.DistanceSquared(center) <= r2 },
		c,
	)
	x, y := s.ToCell(center)
	s.paint(x, y, c)
}

func (s *Surface) FillRect(r model.Rect, c color.RGBA) {
	s.fill(r, r.Contains, c)
	x, y := s.ToCell(r.Center())
	s.paint(x, y, c)
}

func (s *Surface) FillTriangle(a, b, c model.Point, col color.RGBA) {
	box := model.Rect{
		Min: model.NewPoint(min(a.X, b.X, c.X), min(a.Y, b.Y, c.Y)),
		Max: model.NewPoint(max(a.X, b.X, c.X), max(a.Y, b.Y, c.Y)),
	}
	s.fill(box, func(p model.Point) bool { return inTriangle(p, a, b, c) }, col)
	x, y := s.ToCell(model.NewPoint((a.X+b.X+c.X)/3, (a.Y+b.Y+c.Y)/3))
	s.paint(x, y, col)
}

// Text writes s starting at the cell of at, keeping the background already there.
func (s *Surface) Text(at model.Point, text string, c color.RGBA) {
	x, y := s.ToCell(at)
	cols, rows := s.field()
	if y < 0 || y >= rows {
		return
	}
	for _, r := range text {
		if x >= cols {
			return
		}
		if x >= 0 {
			_, _, st, _ := s.screen.GetContent(x, y)
			s.screen.SetContent(x, y, r, nil, st.Foreground(rgb(c)))
		}
		x++
	}
}

// Present draws the overlay and shows the frame.
func (s *Surface) Present() error {
	if s.overlay != nil {
		s.overlay(s.screen)
	}
	s.screen.Show()
	return nil
}

// fill paints every field cell inside box whose center satisfies in.
func (s *Surface) fill(box model.Rect, in func(model.Point) bool, c color.RGBA) {
	cols, rows := s.field()
	x0, y0 := s.ToCell(box.Min)
	x1, y1 := s.ToCell(box.Max)
	x0, y0 = max(x0, 0), max(y0, 0)
	x1, y1 = min(x1, cols-1), min(y1, rows-1)
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			p, ok := s.ToCanvas(x, y)
			if ok && in(p) {
				s.paint(x, y, c)
			}
		}
	}
}

// paint colors one cell. Cells outside the field are ignored.
func (s *Surface) paint(x, y int, c color.RGBA) {
	cols, rows := s.field()
	if x < 0 || y < 0 || x >= cols || y >= rows {
		return
	}
	s.screen.SetContent(x, y, ' ', nil, fieldStyle.Background(rgb(c)))
}

func inTriangle(p, a, b, c model.Point) bool {
	d1 := cross(p, a, b)
	d2 := cross(p, b, c)
	d3 := cross(p, c, a)
	neg := d1 < 0 || d2 < 0 || d3 < 0
	pos := d1 > 0 || d2 > 0 || d3 > 0
	return !(neg && pos)
}

func cross(p, a, b model.Point) float64 {
	return (p.X-b.X)*(a.Y-b.Y) - (a.X-b.X)*(p.Y-b.Y)
}

func rgb(c color.RGBA) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}
