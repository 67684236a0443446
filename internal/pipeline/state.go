package pipeline

import "fmt"

// State models the lifecycle of a session's data pipeline. Transitions
// happen only as a result of a completed operation, never from shared
// mutable UI-style state.
type State string

const (
	StateIdle       State = "idle"
	StateUploading  State = "uploading"
	StateReady      State = "ready"
	StateGenerating State = "generating"
	StateError      State = "error"
)

// validTransitions lists the permitted successor states.
var validTransitions = map[State][]State{
	StateIdle:       {StateUploading},
	StateUploading:  {StateReady, StateError},
	StateReady:      {StateGenerating},
	StateGenerating: {StateReady, StateError},
	StateError:      {StateUploading},
}

// CanTransition reports whether moving to next is allowed.
func (s State) CanTransition(next State) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Transition returns the next state or an error when the move is not
// permitted by the lifecycle.
func (s State) Transition(next State) (State, error) {
	if !s.CanTransition(next) {
		return s, fmt.Errorf("invalid state transition %s -> %s", s, next)
	}
	return next, nil
}
