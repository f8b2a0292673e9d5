package config

import (
	"sync/atomic"

	"github.com/udisondev/posetouch/internal/model"
)

// Live holds the current game configuration. Writers replace the whole value; readers get
// an immutable copy, so a frame never sees a half-applied update.
type Live struct {
	cur atomic.Pointer[model.Configuration]
}

// NewLive creates a holder with an initial configuration.
func NewLive(c model.Configuration) *Live {
	l := &Live{}
	l.Store(c)
	return l
}

// Snapshot returns the current configuration.
func (l *Live) Snapshot() model.Configuration {
	return *l.cur.Load()
}

// Store replaces the configuration.
func (l *Live) Store(c model.Configuration) {
	l.cur.Store(&c)
}

// Update applies fn to the current configuration and stores the result unless fn fails.
// Concurrent updates are retried so none is lost.
func (l *Live) Update(fn func(model.Configuration) (model.Configuration, error)) (model.Configuration, error) {
	for {
		old := l.cur.Load()
		next, err := fn(*old)
		if err != nil {
			return *old, err
		}
		if l.cur.CompareAndSwap(old, &next) {
			return next, nil
		}
	}
}
