// Package session holds the console's per-browser generation state.
package session

import (
	"errors"

	"sorrymonster/pkg/models"
)

type Phase int

const (
	Idle Phase = iota
	Loading
	Success
	Failed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Success:
		return "success"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

var (
	// ErrInFlight rejects a submit while a generation is already running.
	ErrInFlight = errors.New("generation already in progress")
	// ErrInvalidTransition means the requested move is not allowed from the current phase.
	ErrInvalidTransition = errors.New("invalid session transition")
)

// State is a tagged value: the result only exists in Success and the notice
// only in Failed. The zero value is Idle.
type State struct {
	phase  Phase
	result *models.GenerationResult
	notice string
}

func (s State) Phase() Phase { return s.phase }

// Result returns the generation result when the phase is Success.
func (s State) Result() (*models.GenerationResult, bool) {
	if s.phase != Success {
		return nil, false
	}
	return s.result, true
}

// Notice returns the user-facing failure notice when the phase is Failed.
func (s State) Notice() (string, bool) {
	if s.phase != Failed {
		return "", false
	}
	return s.notice, true
}

// Submit starts a generation. Every phase but Loading may submit.
func (s State) Submit() (State, error) {
	if s.phase == Loading {
		return s, ErrInFlight
	}
	return State{phase: Loading}, nil
}

func (s State) Succeed(res *models.GenerationResult) (State, error) {
	if s.phase != Loading || res == nil {
		return s, ErrInvalidTransition
	}
	return State{phase: Success, result: res}, nil
}

func (s State) Fail(notice string) (State, error) {
	if s.phase != Loading {
		return s, ErrInvalidTransition
	}
	return State{phase: Failed, notice: notice}, nil
}

// Reset returns to Idle from Success or Failed.
func (s State) Reset() (State, error) {
	if s.phase == Loading {
		return s, ErrInFlight
	}
	return State{}, nil
}
