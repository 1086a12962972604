package main

import (
	"runtime"

	"github.com/amp-labs/flowfsm/envutil"
	"github.com/amp-labs/flowfsm/statemachine/visualizer"
)

const defaultMaxSteps = 10000

// settings are the process-wide knobs read from the environment.
type settings struct {
	Renderer    string
	MaxSteps    int
	Workers     int
	Environment string
}

func loadSettings() (settings, error) {
	renderer, err := envutil.String("FLOWFSM_RENDERER",
		envutil.Default(visualizer.DefaultRendererBinary)).Value()
	if err != nil {
		return settings{}, err
	}

	maxSteps, err := envutil.Int("FLOWFSM_MAX_STEPS",
		envutil.Default(defaultMaxSteps),
		envutil.Validate(envutil.NonNegative)).Value()
	if err != nil {
		return settings{}, err
	}

	workers, err := envutil.Int("FLOWFSM_ACCEPT_WORKERS",
		envutil.Default(runtime.NumCPU()),
		envutil.Validate(envutil.Positive)).Value()
	if err != nil {
		return settings{}, err
	}

	environment, err := envutil.String("FLOWFSM_ENV", envutil.Default("local")).Value()
	if err != nil {
		return settings{}, err
	}

	return settings{
		Renderer:    renderer,
		MaxSteps:    maxSteps,
		Workers:     workers,
		Environment: environment,
	}, nil
}
