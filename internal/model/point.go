package model

import "math"

// Point is a position on the canvas in pixels. Origin is top-left, y grows down.
// Value type, passed by value.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NewPoint creates a Point.
func NewPoint(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Ptr returns a pointer to a copy of p.
func (p Point) Ptr() *Point {
	return &p
}

// DistanceSquared returns squared distance to other (no sqrt).
func (p Point) DistanceSquared(other Point) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return dx*dx + dy*dy
}

// Distance returns Euclidean distance to other.
func (p Point) Distance(other Point) float64 {
	return math.Sqrt(p.DistanceSquared(other))
}

// MirrorX reflects p across the vertical axis of a canvas of the given width.
func (p Point) MirrorX(width float64) Point {
	p.X = width - p.X
	return p
}

// Bounds is the canvas size in pixels.
type Bounds struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Empty reports whether bounds have no area.
func (b Bounds) Empty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// Rect returns the full canvas rectangle.
func (b Bounds) Rect() Rect {
	return Rect{Max: Point{X: b.Width, Y: b.Height}}
}

// Rect is an axis-aligned rectangle [Min, Max).
type Rect struct {
	Min Point `json:"min"`
	Max Point `json:"max"`
}

// Dx returns rectangle width.
func (r Rect) Dx() float64 { return r.Max.X - r.Min.X }

// Dy returns rectangle height.
func (r Rect) Dy() float64 { return r.Max.Y - r.Min.Y }

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.Min.X >= r.Max.X || r.Min.Y >= r.Max.Y
}

// Inset shrinks the rectangle by n on every side. The result may be empty.
func (r Rect) Inset(n float64) Rect {
	return Rect{
		Min: Point{X: r.Min.X + n, Y: r.Min.Y + n},
		Max: Point{X: r.Max.X - n, Y: r.Max.Y - n},
	}
}

// Intersect returns the largest rectangle contained in both r and s.
func (r Rect) Intersect(s Rect) Rect {
	out := Rect{
		Min: Point{X: max(r.Min.X, s.Min.X), Y: max(r.Min.Y, s.Min.Y)},
		Max: Point{X: min(r.Max.X, s.Max.X), Y: min(r.Max.Y, s.Max.Y)},
	}
	if out.Empty() {
		return Rect{}
	}
	return out
}

// Contains reports whether p lies inside r (closed on Min, closed on Max).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// Center returns the rectangle center.
func (r Rect) Center() Point {
	return Point{X: (r.Min.X + r.Max.X) / 2, Y: (r.Min.Y + r.Max.Y) / 2}
}
