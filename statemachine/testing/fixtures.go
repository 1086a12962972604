package testing

import (
	"context"
	"path/filepath"

	"github.com/amp-labs/flowfsm/statemachine"
)

// LoadTestConfig loads a config from the testdata directory.
func LoadTestConfig(name string) (*statemachine.Config, error) {
	path := filepath.Join("testdata", name)

	return statemachine.LoadConfig(path)
}

// Sequence returns a handler that returns the given values one per call and
// keeps returning the last one once they are exhausted.
func Sequence(values ...any) statemachine.Handler {
	calls := 0

	return func(context.Context, *statemachine.Context) (any, error) {
		if len(values) == 0 {
			return nil, nil //nolint:nilnil
		}

		value := values[min(calls, len(values)-1)]
		calls++

		return value, nil
	}
}

// Counter returns a handler that returns 1, 2, 3... on successive calls.
func Counter() statemachine.Handler {
	count := 0

	return func(context.Context, *statemachine.Context) (any, error) {
		count++

		return count, nil
	}
}

// Failing returns a handler that always fails with err.
func Failing(err error) statemachine.Handler {
	return func(context.Context, *statemachine.Context) (any, error) {
		return nil, err
	}
}

// CommonTestGraphs provides frequently used state declarations.
var CommonTestGraphs = struct { //nolint:gochecknoglobals
	Linear    func() []statemachine.StateDeclaration
	Branching func() []statemachine.StateDeclaration
	Loop      func(limit int) []statemachine.StateDeclaration
	Exception func() []statemachine.StateDeclaration
}{
	// start → middle → end
	Linear: func() []statemachine.StateDeclaration {
		return []statemachine.StateDeclaration{
			statemachine.NewStateDeclaration("start", statemachine.RoleInitial, nil, nil),
			statemachine.NewStateDeclaration("middle", statemachine.RoleNormal,
				[]statemachine.TransitionDeclaration{statemachine.From("start")}, []string{"end"}),
			statemachine.NewStateDeclaration("end", statemachine.RoleFinal,
				[]statemachine.TransitionDeclaration{statemachine.From("middle")}, []string{}),
		}
	},
	// check returns true or false and ends in success or failure.
	Branching: func() []statemachine.StateDeclaration {
		return []statemachine.StateDeclaration{
			statemachine.NewStateDeclaration("start", statemachine.RoleInitial, nil, nil),
			statemachine.NewStateDeclaration("check", statemachine.RoleNormal,
				[]statemachine.TransitionDeclaration{statemachine.From("start")}, []string{"success", "failure"}),
			statemachine.NewStateDeclaration("success", statemachine.RoleFinal,
				[]statemachine.TransitionDeclaration{statemachine.When("check", true)}, []string{}),
			statemachine.NewStateDeclaration("failure", statemachine.RoleFinal,
				[]statemachine.TransitionDeclaration{statemachine.When("check", false)}, []string{}),
		}
	},
	// retry loops until its handler returns limit.
	Loop: func(limit int) []statemachine.StateDeclaration {
		return []statemachine.StateDeclaration{
			statemachine.NewStateDeclaration("start", statemachine.RoleInitial, nil, nil),
			statemachine.NewStateDeclaration("complete", statemachine.RoleFinal,
				[]statemachine.TransitionDeclaration{statemachine.When("retry", limit)}, []string{}),
			statemachine.NewStateDeclaration("retry", statemachine.RoleNormal,
				[]statemachine.TransitionDeclaration{statemachine.From("start"), statemachine.From("retry")},
				[]string{"complete", "retry"}),
		}
	},
	// risky fails over to exception, which routes to recover or gives up.
	Exception: func() []statemachine.StateDeclaration {
		return []statemachine.StateDeclaration{
			statemachine.NewStateDeclaration("start", statemachine.RoleInitial, nil, nil),
			statemachine.NewStateDeclaration("risky", statemachine.RoleNormal,
				[]statemachine.TransitionDeclaration{statemachine.From("start")}, []string{"finish"}),
			statemachine.NewStateDeclaration(statemachine.ExceptionState, statemachine.RoleException, nil, nil),
			statemachine.NewStateDeclaration("recover", statemachine.RoleNormal,
				[]statemachine.TransitionDeclaration{statemachine.When(statemachine.ExceptionState, "recover")},
				[]string{"finish"}),
			statemachine.NewStateDeclaration("finish", statemachine.RoleFinal,
				[]statemachine.TransitionDeclaration{statemachine.From("risky"), statemachine.From("recover")},
				[]string{}),
		}
	},
}
