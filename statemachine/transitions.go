package statemachine

import (
	"fmt"
	"reflect"
	"strings"
)

const (
	transitionStatusKey = "status"
	transitionResultKey = "result"
)

// Transition is an edge into its owning State. It fires from Source, either for
// any condition or only when the Source handler returned Condition.
type Transition struct {
	target       string
	source       string
	hasCondition bool
	condition    any
}

// Target returns the name of the state this transition leads to.
func (t Transition) Target() string {
	return t.target
}

// Source returns the name of the state this transition fires from.
func (t Transition) Source() string {
	return t.source
}

// HasCondition reports whether the transition requires a specific condition.
func (t Transition) HasCondition() bool {
	return t.hasCondition
}

// Condition returns the required condition. It is meaningful only if HasCondition is true.
func (t Transition) Condition() any {
	return t.condition
}

// Matches reports whether the transition fires from source for the given condition.
func (t Transition) Matches(source string, condition any) bool {
	if t.source != source {
		return false
	}

	if !t.hasCondition {
		return true
	}

	return ConditionsEqual(t.condition, condition)
}

// Label is the human readable edge label used by graph exports.
func (t Transition) Label() string {
	if !t.hasCondition {
		return t.target
	}

	return fmt.Sprintf("IF %s THEN %s", FormatCondition(t.condition), t.target)
}

func newTransition(target string, decl TransitionDeclaration) Transition {
	return Transition{
		target:       target,
		source:       decl.Status,
		hasCondition: decl.HasCondition,
		condition:    decl.Result,
	}
}

// parseTransitionEntry converts one raw transitions_from entry.
func parseTransitionEntry(raw any) (TransitionDeclaration, error) {
	switch entry := raw.(type) {
	case TransitionDeclaration:
		return entry, nil
	case string:
		return From(entry), nil
	case map[string]any:
		status, ok := entry[transitionStatusKey].(string)
		if !ok {
			return TransitionDeclaration{}, fmt.Errorf("%w: key %s missing in %v",
				ErrInvalidTransitionEntry, transitionStatusKey, entry)
		}

		return When(status, entry[transitionResultKey]), nil
	case map[any]any:
		converted := make(map[string]any, len(entry))
		for k, v := range entry {
			converted[fmt.Sprint(k)] = v
		}

		return parseTransitionEntry(converted)
	default:
		return TransitionDeclaration{}, fmt.Errorf("%w: %v (%T)", ErrInvalidTransitionEntry, raw, raw)
	}
}

// ConditionsEqual compares a declared condition with a handler result. Values
// compare as declared: booleans only equal booleans and strings only equal
// strings, while numbers of any width compare by numeric value.
func ConditionsEqual(declared, actual any) bool {
	if declared == nil || actual == nil {
		return declared == nil && actual == nil
	}

	dv := reflect.ValueOf(declared)
	av := reflect.ValueOf(actual)

	switch {
	case isSigned(dv) && isSigned(av):
		return dv.Int() == av.Int()
	case isUnsigned(dv) && isUnsigned(av):
		return dv.Uint() == av.Uint()
	case isSigned(dv) && isUnsigned(av):
		return dv.Int() >= 0 && uint64(dv.Int()) == av.Uint()
	case isUnsigned(dv) && isSigned(av):
		return av.Int() >= 0 && dv.Uint() == uint64(av.Int())
	case isNumber(dv) && isNumber(av) && (isFloat(dv) || isFloat(av)):
		return toFloat(dv) == toFloat(av)
	}

	if dv.Type() != av.Type() || !dv.Type().Comparable() {
		return false
	}

	return declared == actual
}

func isSigned(v reflect.Value) bool {
	switch v.Kind() { //nolint:exhaustive // Only integer kinds are relevant
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	default:
		return false
	}
}

func isUnsigned(v reflect.Value) bool {
	switch v.Kind() { //nolint:exhaustive // Only integer kinds are relevant
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	default:
		return false
	}
}

func isFloat(v reflect.Value) bool {
	return v.Kind() == reflect.Float32 || v.Kind() == reflect.Float64
}

func isNumber(v reflect.Value) bool {
	return isSigned(v) || isUnsigned(v) || isFloat(v)
}

func toFloat(v reflect.Value) float64 {
	switch {
	case isSigned(v):
		return float64(v.Int())
	case isUnsigned(v):
		return float64(v.Uint())
	default:
		return v.Float()
	}
}

// FormatCondition renders a condition for labels and diagnostics.
func FormatCondition(condition any) string {
	switch c := condition.(type) {
	case nil:
		return "NULL"
	case bool:
		if c {
			return "TRUE"
		}

		return "FALSE"
	case string:
		return c
	default:
		return fmt.Sprintf("%v", c)
	}
}

// exportCondition renders a condition the way a log or diagnostic quotes it.
func exportCondition(condition any) string {
	switch c := condition.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + strings.ReplaceAll(c, "'", `\'`) + "'"
	case bool:
		if c {
			return "true"
		}

		return "false"
	default:
		return fmt.Sprintf("%v", c)
	}
}
