package game

import (
	"log/slog"

	"github.com/udisondev/posetouch/internal/region"
)

// Command is a UI event applied by the session between frames.
type Command interface {
	apply(s *Session)
}

// ToggleRegion flips one grid cell.
type ToggleRegion struct {
	Cell region.CellID
}

func (c ToggleRegion) apply(s *Session) {
	on, err := s.regions.Toggle(c.Cell)
	if err != nil {
		slog.Warn("toggle region rejected", "session", s.id, "cell", c.Cell.String(), "error", err)
		return
	}
	slog.Debug("region toggled", "session", s.id, "cell", c.Cell.String(), "enabled", on)
}

// SetRegion forces one grid cell on or off.
type SetRegion struct {
	Cell    region.CellID
	Enabled bool
}

func (c SetRegion) apply(s *Session) {
	if err := s.regions.SetEnabled(c.Cell, c.Enabled); err != nil {
		slog.Warn("set region rejected", "session", s.id, "cell", c.Cell.String(), "error", err)
	}
}

// Reset zeroes the score and restarts the round.
type Reset struct{}

func (Reset) apply(s *Session) {
	s.Reset()
}
