// Package region holds the player-selectable spawn cells.
//
// The canvas is split into a rows×cols grid. Cells are addressed "row-col" (0-based),
// the same identifiers the cell-picker UI sends. A Set with no grid is unconstrained:
// targets may appear anywhere on the canvas.
package region

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/udisondev/posetouch/internal/model"
)

// DefaultRows and DefaultCols describe the 3×3 cell picker.
const (
	DefaultRows = 3
	DefaultCols = 3
)

var (
	ErrInvalidCell = errors.New("invalid cell id")
	ErrOutOfGrid   = errors.New("cell outside grid")
	ErrNoGrid      = errors.New("region set has no grid")
)

// CellID addresses one grid cell.
type CellID struct {
	Row int
	Col int
}

// String returns the "row-col" form.
func (c CellID) String() string {
	return strconv.Itoa(c.Row) + "-" + strconv.Itoa(c.Col)
}

// ParseCellID parses "row-col".
func ParseCellID(s string) (CellID, error) {
	r, c, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return CellID{}, fmt.Errorf("%w: %q", ErrInvalidCell, s)
	}
	row, err := strconv.Atoi(r)
	if err != nil || row < 0 {
		return CellID{}, fmt.Errorf("%w: %q", ErrInvalidCell, s)
	}
	col, err := strconv.Atoi(c)
	if err != nil || col < 0 {
		return CellID{}, fmt.Errorf("%w: %q", ErrInvalidCell, s)
	}
	return CellID{Row: row, Col: col}, nil
}

// Set is the grid plus the on/off state of every cell.
// Not safe for concurrent use; sessions mutate it only between frames.
type Set struct {
	rows, cols int
	enabled    map[CellID]struct{}
}

// NewGrid creates a rows×cols grid with every cell disabled.
func NewGrid(rows, cols int) (*Set, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("grid dimensions must be positive, got %dx%d", rows, cols)
	}
	return &Set{
		rows:    rows,
		cols:    cols,
		enabled: make(map[CellID]struct{}, rows*cols),
	}, nil
}

// Unconstrained creates a Set without a grid.
func Unconstrained() *Set {
	return &Set{enabled: map[CellID]struct{}{}}
}

// Constrained reports whether spawning is limited to enabled cells.
func (s *Set) Constrained() bool {
	return s.rows > 0 && s.cols > 0
}

// Rows returns grid row count (0 when unconstrained).
func (s *Set) Rows() int { return s.rows }

// Cols returns grid column count (0 when unconstrained).
func (s *Set) Cols() int { return s.cols }

func (s *Set) check(id CellID) error {
	if !s.Constrained() {
		return ErrNoGrid
	}
	if id.Row < 0 || id.Row >= s.rows || id.Col < 0 || id.Col >= s.cols {
		return fmt.Errorf("%w: %s in %dx%d", ErrOutOfGrid, id, s.rows, s.cols)
	}
	return nil
}

// Toggle flips the cell and returns its new state.
func (s *Set) Toggle(id CellID) (bool, error) {
	if err := s.check(id); err != nil {
		return false, err
	}
	if _, ok := s.enabled[id]; ok {
		delete(s.enabled, id)
		return false, nil
	}
	s.enabled[id] = struct{}{}
	return true, nil
}

// SetEnabled turns a cell on or off.
func (s *Set) SetEnabled(id CellID, on bool) error {
	if err := s.check(id); err != nil {
		return err
	}
	if on {
		s.enabled[id] = struct{}{}
	} else {
		delete(s.enabled, id)
	}
	return nil
}

// EnableAll turns every cell on.
func (s *Set) EnableAll() {
	for r := 0; r < s.rows; r++ {
		for c := 0; c < s.cols; c++ {
			s.enabled[CellID{Row: r, Col: c}] = struct{}{}
		}
	}
}

// Clear turns every cell off.
func (s *Set) Clear() {
	clear(s.enabled)
}

// IsEnabled reports whether the cell is on.
func (s *Set) IsEnabled(id CellID) bool {
	_, ok := s.enabled[id]
	return ok
}

// Len returns the number of enabled cells.
func (s *Set) Len() int {
	return len(s.enabled)
}

// Enabled returns enabled cells in row-major order.
func (s *Set) Enabled() []CellID {
	out := make([]CellID, 0, len(s.enabled))
	for id := range s.enabled {
		out = append(out, id)
	}
	slices.SortFunc(out, func(a, b CellID) int {
		if a.Row != b.Row {
			return a.Row - b.Row
		}
		return a.Col - b.Col
	})
	return out
}

// EnabledStrings returns enabled cells as "row-col" strings in row-major order.
func (s *Set) EnabledStrings() []string {
	ids := s.Enabled()
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

// Clone returns an independent copy.
func (s *Set) Clone() *Set {
	out := &Set{rows: s.rows, cols: s.cols, enabled: make(map[CellID]struct{}, len(s.enabled))}
	for id := range s.enabled {
		out.enabled[id] = struct{}{}
	}
	return out
}

// CellRect returns the pixel rectangle of a cell on a canvas of the given bounds.
func (s *Set) CellRect(id CellID, b model.Bounds) (model.Rect, error) {
	if err := s.check(id); err != nil {
		return model.Rect{}, err
	}
	w := b.Width / float64(s.cols)
	h := b.Height / float64(s.rows)
	return model.Rect{
		Min: model.NewPoint(float64(id.Col)*w, float64(id.Row)*h),
		Max: model.NewPoint(float64(id.Col+1)*w, float64(id.Row+1)*h),
	}, nil
}

// CellAt returns the cell containing p. Points on the far edges belong to the last row/column.
func (s *Set) CellAt(p model.Point, b model.Bounds) (CellID, bool) {
	if !s.Constrained() || b.Empty() {
		return CellID{}, false
	}
	if p.X < 0 || p.Y < 0 || p.X > b.Width || p.Y > b.Height {
		return CellID{}, false
	}
	col := min(int(p.X/(b.Width/float64(s.cols))), s.cols-1)
	row := min(int(p.Y/(b.Height/float64(s.rows))), s.rows-1)
	return CellID{Row: row, Col: col}, true
}
