// Package validator checks workflow graphs for problems that construction
// accepts but a run would trip over, and offers fixes for some of them.
package validator

import (
	"fmt"
	"strings"

	"github.com/amp-labs/flowfsm/statemachine"
)

// ValidationResult contains the results of validating a workflow.
type ValidationResult struct {
	Valid       bool
	Errors      []ValidationError
	Warnings    []ValidationWarning
	Suggestions []Suggestion
}

// ValidationError represents a validation error with fix suggestions.
type ValidationError struct {
	Code     string   // Error code like "UNREACHABLE_STATE", "MISSING_TRANSITION"
	Message  string   // Human-readable error message
	Location Location // Where the error occurred
	Fix      *Fix     // Optional auto-fix suggestion
}

// ValidationWarning represents a non-critical issue.
type ValidationWarning struct {
	Code     string   // Warning code
	Message  string   // Human-readable warning message
	Location Location // Where the warning occurred
	Fix      *Fix     // Optional auto-fix suggestion
}

// Suggestion provides improvement recommendations.
type Suggestion struct {
	Message string // Suggestion description
	Example string // Config example showing the improvement
}

// Location identifies where an issue occurred.
type Location struct {
	File  string // Config file path
	State string // State name if applicable
}

// Validate runs the default rules over a graph.
func Validate(graph *statemachine.Graph) ValidationResult {
	return ValidateWithRules(graph, DefaultRules())
}

// ValidateConfig builds the graph declared by config and validates it. A
// configuration that does not build is reported as a CONFIG_INVALID error.
func ValidateConfig(config *statemachine.Config, strict bool) ValidationResult {
	graph, err := config.Graph()
	if err != nil {
		location := Location{}

		if stateErr, ok := asInvalidState(err); ok {
			location.State = stateErr.State
		}

		return ValidationResult{
			Errors: []ValidationError{{
				Code:     "CONFIG_INVALID",
				Message:  err.Error(),
				Location: location,
			}},
		}
	}

	if strict {
		return ValidateWithRulesStrict(graph, DefaultRules())
	}

	return Validate(graph)
}

// ValidateFile loads a config from a file and validates it.
func ValidateFile(path string) (ValidationResult, error) {
	return ValidateFileWithOptions(path, false)
}

// ValidateFileStrict loads a config from a file and validates it in strict mode.
func ValidateFileStrict(path string) (ValidationResult, error) {
	return ValidateFileWithOptions(path, true)
}

// ValidateFileWithOptions loads a config by path or name and validates it.
func ValidateFileWithOptions(path string, strict bool) (ValidationResult, error) {
	config, err := statemachine.LoadConfig(path)
	if err != nil {
		return ValidationResult{
			Valid: false,
			Errors: []ValidationError{
				{
					Code:     "CONFIG_LOAD_FAILED",
					Message:  fmt.Sprintf("Failed to load config: %v", err),
					Location: Location{File: path},
				},
			},
		}, err
	}

	result := ValidateConfig(config, strict)

	// Set file location for all errors and warnings
	for i := range result.Errors {
		if result.Errors[i].Location.File == "" {
			result.Errors[i].Location.File = path
		}
	}

	for i := range result.Warnings {
		if result.Warnings[i].Location.File == "" {
			result.Warnings[i].Location.File = path
		}
	}

	return result, nil
}

// ValidateWithRules validates using custom rules.
func ValidateWithRules(graph *statemachine.Graph, rules []Rule) ValidationResult {
	var result ValidationResult

	result.Valid = true

	for _, rule := range rules {
		ruleResult := rule.Check(graph)
		result.Errors = append(result.Errors, ruleResult.Errors...)
		result.Warnings = append(result.Warnings, ruleResult.Warnings...)
	}

	if len(result.Errors) > 0 {
		result.Valid = false
	}

	result.Suggestions = generateSuggestions(graph)

	return result
}

// ValidateWithRulesStrict validates with strict mode (treats warnings as errors).
func ValidateWithRulesStrict(graph *statemachine.Graph, rules []Rule) ValidationResult {
	result := ValidateWithRules(graph, rules)

	for _, warning := range result.Warnings {
		result.Errors = append(result.Errors, ValidationError(warning))
	}

	result.Warnings = nil

	if len(result.Errors) > 0 {
		result.Valid = false
	}

	return result
}

// generateSuggestions provides general improvement suggestions.
func generateSuggestions(graph *statemachine.Graph) []Suggestion {
	var suggestions []Suggestion

	hasException := false
	hasConditions := false

	for _, state := range graph.States() {
		if state.Role() == statemachine.RoleException {
			hasException = true
		}
	}

	for _, transition := range graph.Transitions() {
		if transition.HasCondition() {
			hasConditions = true

			break
		}
	}

	if !hasException && graph.Len() > 3 { //nolint:mnd
		suggestions = append(suggestions, Suggestion{
			Message: "Consider declaring an exception state so handler errors can be recovered",
			Example: `states:
  exception:
    type: exception
  recover:
    type: normal
    transitions_from:
      - {status: exception, result: retry}
    transitions_to: [process]`,
		})
	}

	if hasConditions && !hasException {
		suggestions = append(suggestions, Suggestion{
			Message: "Conditional states fail the run when no condition matches; add an unconditional fallback edge",
			Example: `transitions_from:
  - {status: check, result: true}
  - check  # fallback when check returns anything else`,
		})
	}

	return suggestions
}

// HasErrors returns true if the result has any errors.
func (r ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if the result has any warnings.
func (r ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// Fixes collects the fixes attached to errors and warnings.
func (r ValidationResult) Fixes() []*Fix {
	var fixes []*Fix

	for _, err := range r.Errors {
		if err.Fix != nil {
			fixes = append(fixes, err.Fix)
		}
	}

	for _, warn := range r.Warnings {
		if warn.Fix != nil {
			fixes = append(fixes, warn.Fix)
		}
	}

	return fixes
}

// String returns a human-readable summary of validation results.
func (r ValidationResult) String() string {
	var sb strings.Builder

	if r.Valid {
		sb.WriteString("✓ Configuration is valid\n")
	} else {
		fmt.Fprintf(&sb, "✗ Configuration has %d error(s)\n", len(r.Errors))

		for _, err := range r.Errors {
			fmt.Fprintf(&sb, "  [%s] %s", err.Code, err.Message)

			if err.Location.State != "" {
				fmt.Fprintf(&sb, " (state: %s)", err.Location.State)
			}

			sb.WriteString("\n")

			if err.Fix != nil {
				fmt.Fprintf(&sb, "    Fix: %s\n", err.Fix.Description)
			}
		}
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintf(&sb, "\n⚠ %d warning(s):\n", len(r.Warnings))

		for _, warn := range r.Warnings {
			fmt.Fprintf(&sb, "  [%s] %s\n", warn.Code, warn.Message)
		}
	}

	if len(r.Suggestions) > 0 {
		fmt.Fprintf(&sb, "\n💡 %d suggestion(s) for improvement\n", len(r.Suggestions))
	}

	return sb.String()
}
