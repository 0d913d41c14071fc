package detail

import (
	"errors"
	"fmt"
)

var ErrInvalidTransition = errors.New("invalid detail state transition")

// State is the lifecycle state of the product detail modal.
type State string

const (
	StateClosed     State = "closed"
	StateViewing    State = "viewing"
	StateFullscreen State = "viewing_fullscreen"
)

// validTransitions defines the allowed modal transitions. Reopening while
// viewing goes through Closed first.
var validTransitions = map[State][]State{
	StateClosed: {
		StateViewing,
	},
	StateViewing: {
		StateFullscreen,
		StateClosed,
	},
	StateFullscreen: {
		StateViewing,
		StateClosed,
	},
}

func canTransition(from, to State) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func validateTransition(from, to State) error {
	if !canTransition(from, to) {
		return fmt.Errorf("%w: from %s to %s", ErrInvalidTransition, from, to)
	}
	return nil
}
