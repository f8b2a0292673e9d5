// Package terminal is a local front-end that plays posetouch inside a terminal.
//
// The mouse stands in for the tracked body part unless a remote pose estimator is
// configured. Keys and clicks drive the same commands the browser client sends.
package terminal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/udisondev/posetouch/internal/config"
	"github.com/udisondev/posetouch/internal/game"
	"github.com/udisondev/posetouch/internal/model"
	"github.com/udisondev/posetouch/internal/region"
)

// ErrQuit is returned by Run when the player asks to leave.
var ErrQuit = errors.New("quit requested")

const (
	intervalStep = 500 * time.Millisecond
	maxInterval  = time.Minute
)

var (
	bodyParts = []model.BodyPart{model.BodyPartHand, model.BodyPartHead, model.BodyPartFoot}
	shapes    = []model.ShapeClass{model.ShapeCircle, model.ShapeRectangle, model.ShapeTriangle}
	sizes     = []model.SizeClass{model.SizeSmall, model.SizeMedium, model.SizeLarge}

	cellOnStyle  = tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	cellOffStyle = tcell.StyleDefault.Foreground(tcell.ColorGray)
)

const helpLine = " q quit  r reset  1-9/click cell  b part  o shape  s size  k marker  +/- interval"

// App connects a tcell screen to one game session. It is the session's Observer and
// owns the Surface and Pointer the session is built with.
type App struct {
	screen  tcell.Screen
	surface *Surface
	pointer *Pointer
	live    *config.Live
	submit  func(game.Command) error

	mu      sync.Mutex
	score   int
	state   game.State
	pressed bool
}

// New prepares an initialized screen for play.
func New(screen tcell.Screen, canvas model.Bounds, live *config.Live) *App {
	a := &App{
		screen:  screen,
		surface: NewSurface(screen, canvas),
		live:    live,
	}
	a.pointer = NewPointer(func() model.BodyPart {
		return live.Snapshot().Normalize().BodyPart
	})
	a.surface.SetOverlay(a.drawHUD)
	screen.EnableMouse(tcell.MouseMotionEvents)
	screen.HideCursor()
	return a
}

// Surface returns the surface the session should draw on.
func (a *App) Surface() *Surface { return a.surface }

// Pointer returns the mouse-driven pose source.
func (a *App) Pointer() *Pointer { return a.pointer }

// Attach routes commands to s. Call it before Run.
func (a *App) Attach(s *game.Session) {
	a.submit = s.Submit
}

// ScoreChanged implements game.Observer.
func (a *App) ScoreChanged(score int) {
	a.mu.Lock()
	a.score = score
	a.mu.Unlock()
}

// FrameDone implements game.Observer.
func (a *App) FrameDone(st game.State) {
	a.mu.Lock()
	a.state = st
	a.mu.Unlock()
}

// Run handles input until ctx is done or the player quits.
func (a *App) Run(ctx context.Context) error {
	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := a.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			if err := a.handle(ev); err != nil {
				return err
			}
		}
	}
}

func (a *App) handle(ev tcell.Event) error {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return a.handleKey(ev)
	case *tcell.EventMouse:
		a.handleMouse(ev)
	case *tcell.EventResize:
		a.screen.Sync()
	}
	return nil
}

func (a *App) handleKey(ev *tcell.EventKey) error {
	if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
		return ErrQuit
	}
	if ev.Key() != tcell.KeyRune {
		return nil
	}

	switch r := ev.Rune(); {
	case r == 'q':
		return ErrQuit
	case r == 'r':
		a.send(game.Reset{})
	case r >= '1' && r <= '9':
		a.toggleIndex(int(r - '1'))
	case r == 'b':
		a.configure(func(c *model.Configuration) { c.BodyPart = next(bodyParts, c.BodyPart) })
	case r == 'o':
		a.configure(func(c *model.Configuration) { c.ObjectShape = next(shapes, c.ObjectShape) })
	case r == 's':
		a.configure(func(c *model.Configuration) { c.ObjectSize = next(sizes, c.ObjectSize) })
	case r == 'k':
		a.configure(func(c *model.Configuration) { c.KeypointSize = next(sizes, c.KeypointSize) })
	case r == '+' || r == '=':
		a.configure(func(c *model.Configuration) { c.Interval = min(c.Interval+intervalStep, maxInterval) })
	case r == '-':
		a.configure(func(c *model.Configuration) { c.Interval = max(c.Interval-intervalStep, intervalStep) })
	}
	return nil
}

func (a *App) handleMouse(ev *tcell.EventMouse) {
	x, y := ev.Position()
	p, ok := a.surface.ToCanvas(x, y)
	if !ok {
		a.pointer.Hide()
		return
	}
	a.pointer.Move(p)

	down := ev.Buttons()&tcell.Button1 != 0
	a.mu.Lock()
	click := down && !a.pressed
	a.pressed = down
	a.mu.Unlock()
	if click {
		if id, ok := a.cellAt(p); ok {
			a.send(game.ToggleRegion{Cell: id})
		}
	}
}

// cellAt finds the grid cell under a canvas point using the last reported grid.
func (a *App) cellAt(p model.Point) (region.CellID, bool) {
	a.mu.Lock()
	rows, cols := a.state.Rows, a.state.Cols
	a.mu.Unlock()
	if rows == 0 || cols == 0 {
		return region.CellID{}, false
	}
	b := a.surface.Bounds()
	row := min(int(p.Y*float64(rows)/b.Height), rows-1)
	col := min(int(p.X*float64(cols)/b.Width), cols-1)
	return region.CellID{Row: row, Col: col}, true
}

// toggleIndex toggles the i-th cell in row-major order.
func (a *App) toggleIndex(i int) {
	a.mu.Lock()
	rows, cols := a.state.Rows, a.state.Cols
	a.mu.Unlock()
	if cols == 0 || i >= rows*cols {
		return
	}
	a.send(game.ToggleRegion{Cell: region.CellID{Row: i / cols, Col: i % cols}})
}

func (a *App) send(cmd game.Command) {
	if a.submit == nil {
		return
	}
	if err := a.submit(cmd); err != nil {
		slog.Warn("command dropped", "command", fmt.Sprintf("%T", cmd), "error", err)
	}
}

func (a *App) configure(fn func(*model.Configuration)) {
	c, err := a.live.Update(func(c model.Configuration) (model.Configuration, error) {
		c = c.Normalize()
		fn(&c)
		return c, c.Validate()
	})
	if err != nil {
		slog.Warn("config change rejected", "error", err)
		return
	}
	slog.Info("config changed",
		"body_part", c.BodyPart,
		"shape", c.ObjectShape,
		"size", c.ObjectSize,
		"keypoint_size", c.KeypointSize,
		"interval", c.Interval)
}

// drawHUD writes the status lines and grid cell labels. It runs inside Present.
func (a *App) drawHUD(screen tcell.Screen) {
	a.mu.Lock()
	st, score := a.state, a.score
	a.mu.Unlock()
	cfg := a.live.Snapshot().Normalize()

	if st.Rows > 0 && st.Cols > 0 {
		b := a.surface.Bounds()
		for row := range st.Rows {
			for col := range st.Cols {
				id := region.CellID{Row: row, Col: col}
				x, y := a.surface.ToCell(model.NewPoint(
					float64(col)*b.Width/float64(st.Cols),
					float64(row)*b.Height/float64(st.Rows),
				))
				style := cellOffStyle
				if slices.Contains(st.Regions, id.String()) {
					style = cellOnStyle
				}
				putString(screen, x, y, id.String(), style)
			}
		}
	}

	left := "-"
	if st.Target != nil {
		left = st.Target.Remaining.String() + "s"
	}
	status := fmt.Sprintf(" score %d  target %s  part %s  shape %s  size %s  marker %s  interval %.1fs  touched %d  expired %d",
		score, left, cfg.BodyPart, cfg.ObjectShape, cfg.ObjectSize, cfg.KeypointSize,
		cfg.IntervalSeconds(), st.Stats.Touched, st.Stats.Expired)

	w, h := screen.Size()
	for i := range HUDRows {
		for x := range w {
			screen.SetContent(x, h-HUDRows+i, ' ', nil, hudStyle)
		}
	}
	putString(screen, 0, h-HUDRows, status, hudStyle)
	putString(screen, 0, h-HUDRows+1, helpLine, hudStyle.Dim(true))
}

func putString(screen tcell.Screen, x, y int, s string, style tcell.Style) {
	for _, r := range s {
		screen.SetContent(x, y, r, nil, style)
		x++
	}
}

// next returns the element after cur, wrapping around. Unknown values restart the cycle.
func next[T comparable](all []T, cur T) T {
	i := slices.Index(all, cur)
	return all[(i+1)%len(all)]
}
