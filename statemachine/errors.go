package statemachine

import (
	"errors"
	"fmt"
	"strings"
)

// Predefined error types.
var (
	// ErrInvalidState indicates a malformed or structurally incomplete state declaration.
	ErrInvalidState = errors.New("invalid state")
	// ErrMissingHandlers indicates that one or more mandatory states have no handler.
	ErrMissingHandlers = errors.New("handlers are not implemented")
	// ErrNoInitialState indicates that the graph declares no initial state.
	ErrNoInitialState = errors.New("no initial state found for the workflow")
	// ErrTransitionNotFound indicates that no transition matches a state and condition.
	ErrTransitionNotFound = errors.New("no valid transition found")
	// ErrAmbiguousTransition indicates that two transitions match the same state and condition.
	ErrAmbiguousTransition = errors.New("ambiguous transition")
	// ErrAcceptanceMismatch indicates that a recorded log does not replay against the graph.
	ErrAcceptanceMismatch = errors.New("invalid transition")
	// ErrInsufficientLog indicates that a log has fewer than two entries.
	ErrInsufficientLog = errors.New("automata needs at least two states")
	// ErrStateNotFound indicates a lookup of an undeclared state name.
	ErrStateNotFound = errors.New("state not found")
	// ErrRunInProgress indicates a concurrent Run on the same engine.
	ErrRunInProgress = errors.New("workflow run already in progress")
	// ErrMaxStepsExceeded indicates that a run hit the configured step limit.
	ErrMaxStepsExceeded = errors.New("maximum number of steps exceeded")

	// ErrConfigStatesRequired indicates that a configuration declares no states.
	ErrConfigStatesRequired = errors.New("you must define some states")
	// ErrConfigClassRequired indicates that a configuration has no class name.
	ErrConfigClassRequired = errors.New("class name is required")
	// ErrNoConfigLoader indicates that no config loader is registered.
	ErrNoConfigLoader = errors.New("no config loader registered; use SetConfigLoader() or provide a file path")
	// ErrInvalidTransitionEntry indicates a transitions_from entry that is neither a name nor a {status, result} pair.
	ErrInvalidTransitionEntry = errors.New("invalid transition entry")

	// ErrUnknownImplementation indicates that no implementation is registered for a class name.
	ErrUnknownImplementation = errors.New("unknown workflow implementation")
	// ErrNilImplementation indicates that an implementation builder returned nil.
	ErrNilImplementation = errors.New("implementation builder returned nil")

	// ErrUnsupportedLogFormat indicates a log file extension that cannot be decoded.
	ErrUnsupportedLogFormat = errors.New("unsupported log file format")
)

// InvalidStateError describes a state declaration that failed validation.
type InvalidStateError struct {
	State  string
	Reason string
}

func (e *InvalidStateError) Error() string {
	if e.State == "" {
		return fmt.Sprintf("%v: %s", ErrInvalidState, e.Reason)
	}

	return fmt.Sprintf("%v %s: %s", ErrInvalidState, e.State, e.Reason)
}

func (e *InvalidStateError) Unwrap() error {
	return ErrInvalidState
}

func invalidState(state, format string, args ...any) error {
	return &InvalidStateError{
		State:  state,
		Reason: fmt.Sprintf(format, args...),
	}
}

// MissingHandlersError lists every mandatory state that has no handler.
type MissingHandlersError struct {
	Names []string
	Err   error
}

func (e *MissingHandlersError) Error() string {
	return fmt.Sprintf("%v: %s", ErrMissingHandlers, strings.Join(e.Names, ", "))
}

func (e *MissingHandlersError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMissingHandlers}
	}

	return []error{ErrMissingHandlers, e.Err}
}

// NoTransitionFoundError is returned by ResolveNext when no transition matches.
type NoTransitionFoundError struct {
	State     string
	Condition any
}

func (e *NoTransitionFoundError) Error() string {
	return fmt.Sprintf("δ: (X × Z → Z) return value [%s] x state_source [%s] → state_target [MISSING]: %v",
		FormatCondition(e.Condition), e.State, ErrTransitionNotFound)
}

func (e *NoTransitionFoundError) Unwrap() error {
	return ErrTransitionNotFound
}

// AmbiguousTransitionError names two transitions that match the same source and condition.
type AmbiguousTransitionError struct {
	Source    string
	Condition string
	First     string
	Second    string
}

func (e *AmbiguousTransitionError) Error() string {
	return fmt.Sprintf("%v: from %s on %s leads to both %s and %s",
		ErrAmbiguousTransition, e.Source, e.Condition, e.First, e.Second)
}

func (e *AmbiguousTransitionError) Unwrap() error {
	return ErrAmbiguousTransition
}

// AcceptanceMismatchError describes the first log step the graph does not reproduce.
type AcceptanceMismatchError struct {
	Index     int
	From      string
	Expected  string
	Actual    string
	Condition any
	Message   string
	Err       error
}

func (e *AcceptanceMismatchError) Error() string {
	given := e.Actual
	if given == "" {
		given = "<none>"
	}

	msg := fmt.Sprintf("%v. Last transition: %s. Given: %s", ErrAcceptanceMismatch, e.Message, given)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

func (e *AcceptanceMismatchError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrAcceptanceMismatch}
	}

	return []error{ErrAcceptanceMismatch, e.Err}
}

// StateError wraps an error with state context.
type StateError struct {
	State string
	Err   error
}

func (e *StateError) Error() string {
	return fmt.Sprintf("state %s: %v", e.State, e.Err)
}

func (e *StateError) Unwrap() error {
	return e.Err
}

// WrapStateError wraps an error with state context.
func WrapStateError(state string, err error) error {
	if err == nil {
		return nil
	}

	return &StateError{
		State: state,
		Err:   err,
	}
}
