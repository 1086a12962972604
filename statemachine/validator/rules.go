//nolint:lll // Long validation messages
package validator

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/amp-labs/flowfsm/statemachine"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Severity defines the severity level of a validation issue.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
)

// RuleResult contains both errors and warnings from a rule check.
type RuleResult struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// Rule defines a validation rule that can check a graph for specific issues.
type Rule interface {
	Name() string
	Severity() Severity
	Check(graph *statemachine.Graph) RuleResult
}

// DefaultRules returns the standard set of validation rules.
func DefaultRules() []Rule {
	return []Rule{
		&initialStateRule{},
		&unreachableStateRule{},
		&missingTransitionRule{},
		&unreachableFinalRule{},
		&ambiguousTransitionRule{},
		&transitionsToRule{},
		&namingConventionRule{},
	}
}

// initialStateRule checks that the graph declares where runs start.
type initialStateRule struct{}

func (r *initialStateRule) Name() string {
	return "InitialState"
}

func (r *initialStateRule) Severity() Severity {
	return SeverityError
}

func (r *initialStateRule) Check(graph *statemachine.Graph) RuleResult {
	if _, err := graph.Initial(); err != nil {
		return RuleResult{Errors: []ValidationError{{
			Code:    "NO_INITIAL_STATE",
			Message: "Workflow declares no state of type 'initial'",
		}}}
	}

	return RuleResult{}
}

// unreachableStateRule checks for states that cannot be reached from the initial state.
type unreachableStateRule struct{}

func (r *unreachableStateRule) Name() string {
	return "UnreachableState"
}

func (r *unreachableStateRule) Severity() Severity {
	return SeverityError
}

func (r *unreachableStateRule) Check(graph *statemachine.Graph) RuleResult {
	initial, err := graph.Initial()
	if err != nil {
		return RuleResult{}
	}

	var errs []ValidationError

	reachable := reachableFrom(graph, initial.Name())

	for _, state := range graph.States() {
		if reachable[state.Name()] {
			continue
		}

		errs = append(errs, ValidationError{
			Code:     "UNREACHABLE_STATE",
			Message:  fmt.Sprintf("State '%s' cannot be reached from initial state '%s'", state.Name(), initial.Name()),
			Location: Location{State: state.Name()},
			Fix:      RemoveUnreachableState(state.Name()),
		})
	}

	return RuleResult{Errors: errs}
}

// missingTransitionRule checks for states a run can enter but never leave.
type missingTransitionRule struct{}

func (r *missingTransitionRule) Name() string {
	return "MissingTransition"
}

func (r *missingTransitionRule) Severity() Severity {
	return SeverityError
}

func (r *missingTransitionRule) Check(graph *statemachine.Graph) RuleResult {
	var result RuleResult

	outgoing := outgoingEdges(graph)

	for _, state := range graph.States() {
		if state.IsFinal() || len(outgoing[state.Name()]) > 0 {
			continue
		}

		if state.Role() == statemachine.RoleException {
			result.Warnings = append(result.Warnings, ValidationWarning{
				Code:     "EXCEPTION_DEAD_END",
				Message:  fmt.Sprintf("Exception state '%s' has no outgoing transitions; every redirected error ends the run", state.Name()),
				Location: Location{State: state.Name()},
			})

			continue
		}

		var fix *Fix
		if state.Role() == statemachine.RoleNormal {
			fix = MarkAsFinalState(state.Name())
		}

		result.Errors = append(result.Errors, ValidationError{
			Code:     "MISSING_TRANSITION",
			Message:  fmt.Sprintf("Non-final state '%s' has no outgoing transitions", state.Name()),
			Location: Location{State: state.Name()},
			Fix:      fix,
		})
	}

	return result
}

// unreachableFinalRule checks that every reachable state can still end the run.
type unreachableFinalRule struct{}

func (r *unreachableFinalRule) Name() string {
	return "UnreachableFinal"
}

func (r *unreachableFinalRule) Severity() Severity {
	return SeverityWarning
}

func (r *unreachableFinalRule) Check(graph *statemachine.Graph) RuleResult {
	initial, err := graph.Initial()
	if err != nil {
		return RuleResult{}
	}

	var result RuleResult

	outgoing := outgoingEdges(graph)
	reachable := reachableFrom(graph, initial.Name())
	finals := 0

	for _, state := range graph.States() {
		if state.IsFinal() && reachable[state.Name()] {
			finals++
		}
	}

	if finals == 0 {
		result.Errors = append(result.Errors, ValidationError{
			Code:    "NO_REACHABLE_FINAL",
			Message: fmt.Sprintf("No final state can be reached from initial state '%s'", initial.Name()),
		})

		return result
	}

	for _, state := range graph.States() {
		// Dead ends are reported by missingTransitionRule.
		if !reachable[state.Name()] || state.IsFinal() || len(outgoing[state.Name()]) == 0 {
			continue
		}

		if reachesFinal(graph, state.Name()) {
			continue
		}

		result.Warnings = append(result.Warnings, ValidationWarning{
			Code:     "POTENTIAL_INFINITE_LOOP",
			Message:  fmt.Sprintf("No final state can be reached from state '%s'", state.Name()),
			Location: Location{State: state.Name()},
		})
	}

	return result
}

// ambiguousTransitionRule reports transitions that can match the same
// condition from the same source. The first declared one always wins.
type ambiguousTransitionRule struct{}

func (r *ambiguousTransitionRule) Name() string {
	return "AmbiguousTransition"
}

func (r *ambiguousTransitionRule) Severity() Severity {
	return SeverityWarning
}

func (r *ambiguousTransitionRule) Check(graph *statemachine.Graph) RuleResult {
	var warnings []ValidationWarning

	for _, amb := range graph.Ambiguities() {
		warnings = append(warnings, ValidationWarning{
			Code: "AMBIGUOUS_TRANSITION",
			Message: fmt.Sprintf("State '%s' has transitions to '%s' and '%s' for %s; '%s' always wins",
				amb.Source, amb.First, amb.Second, amb.Condition, amb.First),
			Location: Location{State: amb.Source},
		})
	}

	return RuleResult{Warnings: warnings}
}

// transitionsToRule compares the declared transitions_to lists with the edges
// the transitions_from declarations actually create.
type transitionsToRule struct{}

func (r *transitionsToRule) Name() string {
	return "TransitionsTo"
}

func (r *transitionsToRule) Severity() Severity {
	return SeverityWarning
}

func (r *transitionsToRule) Check(graph *statemachine.Graph) RuleResult {
	var warnings []ValidationWarning

	outgoing := outgoingEdges(graph)

	for _, state := range graph.States() {
		if state.Role() == statemachine.RoleInitial || state.Role() == statemachine.RoleException {
			continue
		}

		declared := state.TransitionsTo()
		actual := outgoing[state.Name()]

		for _, target := range declared {
			if !slices.Contains(actual, target) {
				warnings = append(warnings, ValidationWarning{
					Code:     "TRANSITIONS_TO_MISMATCH",
					Message:  fmt.Sprintf("State '%s' lists '%s' in transitions_to but no transition from it leads there", state.Name(), target),
					Location: Location{State: state.Name()},
				})
			}
		}

		for _, target := range actual {
			if !slices.Contains(declared, target) {
				warnings = append(warnings, ValidationWarning{
					Code:     "TRANSITIONS_TO_MISMATCH",
					Message:  fmt.Sprintf("State '%s' transitions to '%s' which is missing from its transitions_to", state.Name(), target),
					Location: Location{State: state.Name()},
				})
			}
		}
	}

	return RuleResult{Warnings: warnings}
}

// namingConventionRule warns about naming convention violations.
type namingConventionRule struct{}

func (r *namingConventionRule) Name() string {
	return "NamingConvention"
}

func (r *namingConventionRule) Severity() Severity {
	return SeverityWarning
}

func (r *namingConventionRule) Check(graph *statemachine.Graph) RuleResult {
	var warnings []ValidationWarning

	for _, state := range graph.States() {
		if !isSnakeCase(state.Name()) {
			suggested := toSnakeCase(state.Name())

			warnings = append(warnings, ValidationWarning{
				Code:     "NAMING_CONVENTION",
				Message:  fmt.Sprintf("State '%s' should use snake_case naming (suggested: '%s')", state.Name(), suggested),
				Location: Location{State: state.Name()},
				Fix:      RenameState(state.Name(), suggested),
			})
		}
	}

	return RuleResult{Warnings: warnings}
}

// Helper functions

// outgoingEdges maps each source to its distinct targets in declaration order.
func outgoingEdges(graph *statemachine.Graph) map[string][]string {
	out := make(map[string][]string)

	for _, transition := range graph.Transitions() {
		targets := out[transition.Source()]
		if !slices.Contains(targets, transition.Target()) {
			out[transition.Source()] = append(targets, transition.Target())
		}
	}

	return out
}

// reachableFrom walks the graph from start. Any state that runs a handler can
// fail, so once one is reached the exception state counts as reached too.
func reachableFrom(graph *statemachine.Graph, start string) map[string]bool {
	outgoing := outgoingEdges(graph)

	var exception string

	for _, state := range graph.States() {
		if state.Role() == statemachine.RoleException {
			exception = state.Name()
		}
	}

	reachable := map[string]bool{start: true}
	queue := []string{start}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		next := outgoing[current]
		if exception != "" && current != exception {
			next = append(slices.Clone(next), exception)
		}

		for _, target := range next {
			if !reachable[target] {
				reachable[target] = true
				queue = append(queue, target)
			}
		}
	}

	return reachable
}

func reachesFinal(graph *statemachine.Graph, from string) bool {
	for name := range reachableFrom(graph, from) {
		if state, err := graph.State(name); err == nil && state.IsFinal() {
			return true
		}
	}

	return false
}

func asInvalidState(err error) (*statemachine.InvalidStateError, bool) {
	var stateErr *statemachine.InvalidStateError
	if errors.As(err, &stateErr) {
		return stateErr, true
	}

	return nil, false
}

// isSnakeCase accepts lowercase ASCII letters, digits and underscores.
func isSnakeCase(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
		default:
			return false
		}
	}

	return true
}

// asciiFold strips diacritics so "prüfung" becomes "prufung".
func asciiFold(s string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		return s
	}

	return folded
}

func toSnakeCase(s string) string {
	var result []rune

	for i, r := range asciiFold(s) {
		switch {
		case r >= 'A' && r <= 'Z':
			if i > 0 && (len(result) == 0 || result[len(result)-1] != '_') {
				result = append(result, '_')
			}

			result = append(result, unicode.ToLower(r))
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			result = append(result, r)
		case len(result) > 0 && result[len(result)-1] != '_':
			result = append(result, '_')
		}
	}

	return strings.TrimSuffix(string(result), "_")
}
