package model

import "time"

// Target is the on-screen object the player must touch before its deadline.
// At most one target is active per session.
type Target struct {
	ID        string        `json:"id"`
	Position  Point         `json:"position"`
	Size      SizeClass     `json:"size"`
	Shape     ShapeClass    `json:"shape"`
	Region    string        `json:"region,omitempty"` // grid cell the target was placed in, empty in unconstrained mode
	SpawnTime time.Time     `json:"spawnTime"`
	Deadline  time.Duration `json:"deadline"`
}

// ExpiresAt returns the wall-clock instant when the target expires.
func (t *Target) ExpiresAt() time.Time {
	return t.SpawnTime.Add(t.Deadline)
}

// Elapsed returns time since spawn. Never negative.
func (t *Target) Elapsed(now time.Time) time.Duration {
	d := now.Sub(t.SpawnTime)
	if d < 0 {
		return 0
	}
	return d
}
