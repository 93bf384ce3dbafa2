// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package scan

import (
	"errors"
	"fmt"
	"sync"
)

// State is the phase of a scan session.
type State int

const (
	StateIdle State = iota
	StateDecoding
	StateClassified
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDecoding:
		return "decoding"
	case StateClassified:
		return "classified"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrInvalidTransition is returned when an event does not fit the current state.
var ErrInvalidTransition = errors.New("invalid scan session transition")

// Session tracks one scanning user. While a decode is being handled or its
// outcome is on screen, further decodes are ignored until Reset.
//
//	Idle -> Decoding -> Classified -> Idle | Terminated
type Session[T any] struct {
	last    T
	mu      sync.Mutex
	state   State
	hasLast bool
}

// NewSession returns an idle session.
func NewSession[T any]() *Session[T] {
	return &Session[T]{}
}

// Begin claims the session for a decode. It returns false, and the decode
// must be dropped, unless the session is idle.
func (s *Session[T]) Begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateIdle {
		return false
	}
	s.state = StateDecoding
	return true
}

// Classified records the outcome of the current decode.
func (s *Session[T]) Classified(outcome T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateDecoding {
		return fmt.Errorf("%w: classified while %s", ErrInvalidTransition, s.state)
	}
	s.state = StateClassified
	s.last = outcome
	s.hasLast = true
	return nil
}

// Abort releases a decode that could not be classified.
func (s *Session[T]) Abort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateDecoding {
		s.state = StateIdle
	}
}

// Reset returns the session to idle so the next decode is accepted.
// A terminated session stays terminated.
func (s *Session[T]) Reset() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateTerminated {
		return false
	}
	s.state = StateIdle
	return true
}

// Terminate ends the session for good.
func (s *Session[T]) Terminate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateTerminated
}

// State returns the current state.
func (s *Session[T]) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Last returns the most recent outcome.
func (s *Session[T]) Last() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.hasLast
}
