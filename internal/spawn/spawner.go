package spawn

import (
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/udisondev/posetouch/internal/model"
	"github.com/udisondev/posetouch/internal/region"
	"github.com/udisondev/posetouch/internal/touch"
)

// Spawner places new targets on the canvas.
//
// In grid mode an enabled cell is chosen uniformly and the position is drawn uniformly
// inside it. Without a grid the position is drawn uniformly over the canvas. In both modes
// the canvas is inset by the largest target radius so a target never renders off-canvas.
// Draws are independent: the same cell or position may repeat.
type Spawner struct {
	rng   *rand.Rand
	newID func() string
}

// NewSpawner creates a spawner. A nil rng gets a randomly seeded PCG source.
func NewSpawner(rng *rand.Rand) *Spawner {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Spawner{
		rng:   rng,
		newID: uuid.NewString,
	}
}

// Spawn returns a new target, or nil when spawning is suspended
// (grid mode with no enabled cells, or a canvas without area).
func (s *Spawner) Spawn(regions *region.Set, bounds model.Bounds, cfg model.Configuration, now time.Time) *model.Target {
	if bounds.Empty() {
		return nil
	}
	cfg = cfg.Normalize()

	area := bounds.Rect().Inset(touch.MaxTargetRadius)
	var cellName string

	if regions != nil && regions.Constrained() {
		cells := regions.Enabled()
		if len(cells) == 0 {
			return nil
		}
		cell := cells[s.rng.IntN(len(cells))]
		rect, err := regions.CellRect(cell, bounds)
		if err != nil {
			slog.Warn("enabled cell outside grid", "cell", cell.String(), "error", err)
			return nil
		}
		// A canvas too small for the inset keeps the raw cell.
		if inner := rect.Intersect(area); !inner.Empty() {
			rect = inner
		}
		area = rect
		cellName = cell.String()
	}

	var pos model.Point
	if area.Empty() {
		pos = bounds.Rect().Center()
	} else {
		pos = model.NewPoint(
			area.Min.X+s.rng.Float64()*area.Dx(),
			area.Min.Y+s.rng.Float64()*area.Dy(),
		)
	}

	t := &model.Target{
		ID:        s.newID(),
		Position:  pos,
		Size:      cfg.ObjectSize,
		Shape:     cfg.ObjectShape,
		Region:    cellName,
		SpawnTime: now,
		Deadline:  cfg.Interval,
	}

	slog.Debug("target spawned",
		"id", t.ID,
		"x", pos.X,
		"y", pos.Y,
		"region", cellName,
		"deadline", t.Deadline)

	return t
}
