// Package score tracks the running score of a session and persists finished sessions.
package score

// State is the score of one session. Only the session loop mutates it.
type State struct {
	score    int
	onChange func(score int)
}

// NewState creates a zero score. onChange, when non-nil, receives every new value
// (the score display).
func NewState(onChange func(score int)) *State {
	return &State{onChange: onChange}
}

// Score returns the current score.
func (s *State) Score() int {
	return s.score
}

// Increment adds one point and returns the new score.
func (s *State) Increment() int {
	s.score++
	s.notify()
	return s.score
}

// Reset sets the score back to zero.
func (s *State) Reset() {
	s.score = 0
	s.notify()
}

func (s *State) notify() {
	if s.onChange != nil {
		s.onChange(s.score)
	}
}
