package testing

import (
	"errors"
	"fmt"
	"time"

	"github.com/amp-labs/flowfsm/statemachine"
)

// Matcher errors.
var (
	ErrNoExecutionTrace          = errors.New("no execution trace available")
	ErrExecutionCompletedNoError = errors.New("execution completed without error")
	ErrNoMatchersPassed          = errors.New("no matchers passed")
	ErrStateNotVisited           = errors.New("state was not visited")
	ErrTransitionNotTaken        = errors.New("transition was not taken")
	ErrVisitCountMismatch        = errors.New("visit count mismatch")
	ErrFinalStateMismatch        = errors.New("final state mismatch")
	ErrReturnMismatch            = errors.New("return value mismatch")
	ErrExecutionTooSlow          = errors.New("execution exceeded time limit")
)

// Matcher defines an assertion matcher interface.
type Matcher interface {
	Match(engine *TestEngine) (bool, error)
	Description() string
}

// StateWasVisited creates a matcher that checks if a state was visited.
func StateWasVisited(name string) Matcher {
	return &stateVisitedMatcher{stateName: name}
}

type stateVisitedMatcher struct {
	stateName string
}

func (m *stateVisitedMatcher) Match(engine *TestEngine) (bool, error) {
	for _, entry := range engine.Trace() {
		if entry.State == m.stateName {
			return true, nil
		}
	}

	return false, fmt.Errorf("%w: '%s'", ErrStateNotVisited, m.stateName)
}

func (m *stateVisitedMatcher) Description() string {
	return fmt.Sprintf("state '%s' should be visited", m.stateName)
}

// TransitionWasTaken creates a matcher that checks if a transition occurred.
func TransitionWasTaken(from, to string) Matcher {
	return &transitionTakenMatcher{from: from, to: to}
}

type transitionTakenMatcher struct {
	from string
	to   string
}

func (m *transitionTakenMatcher) Match(engine *TestEngine) (bool, error) {
	trace := engine.Trace()

	for i := range len(trace) - 1 {
		if trace[i].State == m.from && trace[i+1].State == m.to {
			return true, nil
		}
	}

	return false, fmt.Errorf("%w: from '%s' to '%s'", ErrTransitionNotTaken, m.from, m.to)
}

func (m *transitionTakenMatcher) Description() string {
	return fmt.Sprintf("transition from '%s' to '%s' should be taken", m.from, m.to)
}

// VisitCount creates a matcher that checks how many times a state ran.
func VisitCount(name string, expected int) Matcher {
	return &visitCountMatcher{stateName: name, expected: expected}
}

type visitCountMatcher struct {
	stateName string
	expected  int
}

func (m *visitCountMatcher) Match(engine *TestEngine) (bool, error) {
	count := 0

	for _, entry := range engine.Trace() {
		if entry.State == m.stateName {
			count++
		}
	}

	if count != m.expected {
		return false, fmt.Errorf("%w: '%s' visited %d times, expected %d", ErrVisitCountMismatch, m.stateName, count, m.expected)
	}

	return true, nil
}

func (m *visitCountMatcher) Description() string {
	return fmt.Sprintf("state '%s' should be visited %d times", m.stateName, m.expected)
}

// EndedIn creates a matcher that checks the last dispatched state.
func EndedIn(name string) Matcher {
	return &endedInMatcher{stateName: name}
}

type endedInMatcher struct {
	stateName string
}

func (m *endedInMatcher) Match(engine *TestEngine) (bool, error) {
	trace := engine.Trace()
	if len(trace) == 0 {
		return false, ErrNoExecutionTrace
	}

	if actual := trace[len(trace)-1].State; actual != m.stateName {
		return false, fmt.Errorf("%w: expected '%s', got '%s'", ErrFinalStateMismatch, m.stateName, actual)
	}

	return true, nil
}

func (m *endedInMatcher) Description() string {
	return fmt.Sprintf("run should end in '%s'", m.stateName)
}

// Returned creates a matcher that checks the last value a state's handler
// returned, using the same equality as transition resolution.
func Returned(name string, value any) Matcher {
	return &returnedMatcher{stateName: name, value: value}
}

type returnedMatcher struct {
	stateName string
	value     any
}

func (m *returnedMatcher) Match(engine *TestEngine) (bool, error) {
	trace := engine.Trace()

	for i := len(trace) - 1; i >= 0; i-- {
		if trace[i].State != m.stateName {
			continue
		}

		if !statemachine.ConditionsEqual(m.value, trace[i].Return) {
			return false, fmt.Errorf("%w: '%s' returned %v, expected %v",
				ErrReturnMismatch, m.stateName, trace[i].Return, m.value)
		}

		return true, nil
	}

	return false, fmt.Errorf("%w: '%s'", ErrStateNotVisited, m.stateName)
}

func (m *returnedMatcher) Description() string {
	return fmt.Sprintf("state '%s' should return %v", m.stateName, m.value)
}

// ExecutionCompleted creates a matcher that checks if execution completed successfully.
func ExecutionCompleted() Matcher {
	return &executionCompletedMatcher{}
}

type executionCompletedMatcher struct{}

func (m *executionCompletedMatcher) Match(engine *TestEngine) (bool, error) {
	if len(engine.Trace()) == 0 {
		return false, ErrNoExecutionTrace
	}

	if engine.Err() != nil {
		return false, fmt.Errorf("execution failed with error: %w", engine.Err())
	}

	return true, nil
}

func (m *executionCompletedMatcher) Description() string {
	return "execution should complete successfully"
}

// ExecutionFailed creates a matcher that checks if execution failed.
func ExecutionFailed() Matcher {
	return &executionFailedMatcher{}
}

type executionFailedMatcher struct{}

func (m *executionFailedMatcher) Match(engine *TestEngine) (bool, error) {
	if engine.Err() == nil {
		return false, ErrExecutionCompletedNoError
	}

	return true, nil
}

func (m *executionFailedMatcher) Description() string {
	return "execution should fail"
}

// ExecutionTookLessThan creates a matcher that checks execution duration.
func ExecutionTookLessThan(duration time.Duration) Matcher {
	return &executionDurationMatcher{maxDuration: duration}
}

type executionDurationMatcher struct {
	maxDuration time.Duration
}

func (m *executionDurationMatcher) Match(engine *TestEngine) (bool, error) {
	totalDuration := time.Duration(0)
	for _, entry := range engine.Trace() {
		totalDuration += entry.Duration
	}

	if totalDuration > m.maxDuration {
		return false, fmt.Errorf("%w: took %s, max %s", ErrExecutionTooSlow, totalDuration, m.maxDuration)
	}

	return true, nil
}

func (m *executionDurationMatcher) Description() string {
	return fmt.Sprintf("execution should take less than %s", m.maxDuration)
}

// All creates a matcher that requires all sub-matchers to pass.
func All(matchers ...Matcher) Matcher {
	return &allMatcher{matchers: matchers}
}

type allMatcher struct {
	matchers []Matcher
}

func (m *allMatcher) Match(engine *TestEngine) (bool, error) {
	for _, matcher := range m.matchers {
		matched, err := matcher.Match(engine)
		if !matched || err != nil {
			return false, err
		}
	}

	return true, nil
}

func (m *allMatcher) Description() string {
	return "all matchers should pass"
}

// Any creates a matcher that requires at least one sub-matcher to pass.
func Any(matchers ...Matcher) Matcher {
	return &anyMatcher{matchers: matchers}
}

type anyMatcher struct {
	matchers []Matcher
}

func (m *anyMatcher) Match(engine *TestEngine) (bool, error) {
	for _, matcher := range m.matchers {
		matched, err := matcher.Match(engine)
		if matched && err == nil {
			return true, nil
		}
	}

	return false, ErrNoMatchersPassed
}

func (m *anyMatcher) Description() string {
	return "at least one matcher should pass"
}
