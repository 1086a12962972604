package examples

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amp-labs/flowfsm/statemachine"
)

// ErrDownloadFailed is the simulated failure of the exception workflow.
var ErrDownloadFailed = errors.New("download failed")

func newSimple(args map[string]any) (statemachine.HandlerTable, error) {
	if err := statemachine.DecodeArgs(args, &struct{}{}); err != nil {
		return nil, err
	}

	return statemachine.Handlers{
		"second_state": statemachine.Noop,
		"third_state":  statemachine.Noop,
		"finish":       statemachine.Noop,
	}, nil
}

type loopArgs struct {
	Items int `mapstructure:"items"`
}

// newSimpleLoop walks a collection of items one at a time. The run argument
// "items" overrides the configured collection size.
func newSimpleLoop(args map[string]any) (statemachine.HandlerTable, error) {
	parsed := loopArgs{Items: 5}

	if err := statemachine.DecodeArgs(args, &parsed); err != nil {
		return nil, err
	}

	var (
		items     int
		processed int
	)

	return statemachine.Handlers{
		"prepare_collection": func(_ context.Context, wf *statemachine.Context) (any, error) {
			items = parsed.Items
			if n, ok := wf.GetInt("items"); ok {
				items = n
			}

			processed = 0

			return nil, nil //nolint:nilnil
		},
		"process_items": func(context.Context, *statemachine.Context) (any, error) {
			if processed < items {
				processed++
			}

			return nil, nil //nolint:nilnil
		},
		"has_more": func(context.Context, *statemachine.Context) (any, error) {
			return processed < items, nil
		},
		"finish": func(context.Context, *statemachine.Context) (any, error) {
			return processed, nil
		},
	}, nil
}

type ifArgs struct {
	Limit int `mapstructure:"limit"`
}

// newIfConditions counts up to a limit, alternating between two side states.
// third_state returns 0 once the limit is exceeded and 1 or 2 otherwise.
func newIfConditions(args map[string]any) (statemachine.HandlerTable, error) {
	parsed := ifArgs{Limit: 10}

	if err := statemachine.DecodeArgs(args, &parsed); err != nil {
		return nil, err
	}

	var (
		limit int
		index int
	)

	return statemachine.Handlers{
		"second_state": func(_ context.Context, wf *statemachine.Context) (any, error) {
			limit = parsed.Limit
			if n, ok := wf.GetInt("limit"); ok {
				limit = n
			}

			index = 0

			return nil, nil //nolint:nilnil
		},
		"third_state": func(context.Context, *statemachine.Context) (any, error) {
			index++

			switch {
			case index > limit:
				return 0, nil
			case index%2 == 1:
				return 1, nil
			default:
				return 2, nil
			}
		},
		"transition_state":        statemachine.Noop,
		"second_transition_state": statemachine.Noop,
		"finish": func(context.Context, *statemachine.Context) (any, error) {
			return index, nil
		},
	}, nil
}

type galleryArgs struct {
	HasGallery bool `mapstructure:"has_gallery"`
	Images     int  `mapstructure:"images"`
}

// newBooleanConditions creates a media gallery when the product has none and
// then processes its images. Run arguments "has_gallery" and "images"
// override the configured values.
func newBooleanConditions(args map[string]any) (statemachine.HandlerTable, error) {
	var parsed galleryArgs

	if err := statemachine.DecodeArgs(args, &parsed); err != nil {
		return nil, err
	}

	var (
		hasGallery bool
		remaining  int
	)

	return statemachine.Handlers{
		"product_has_media_gallery": func(_ context.Context, wf *statemachine.Context) (any, error) {
			hasGallery = parsed.HasGallery
			if b, ok := wf.GetBool("has_gallery"); ok {
				hasGallery = b
			}

			return hasGallery, nil
		},
		"create_media_gallery": func(context.Context, *statemachine.Context) (any, error) {
			hasGallery = true

			return nil, nil //nolint:nilnil
		},
		"get_images": func(_ context.Context, wf *statemachine.Context) (any, error) {
			remaining = parsed.Images
			if n, ok := wf.GetInt("images"); ok {
				remaining = n
			}

			return remaining, nil
		},
		"process_images": func(context.Context, *statemachine.Context) (any, error) {
			if remaining > 0 {
				remaining--
			}

			return nil, nil //nolint:nilnil
		},
		"has_more": func(context.Context, *statemachine.Context) (any, error) {
			return remaining > 0, nil
		},
		"finish": func(context.Context, *statemachine.Context) (any, error) {
			return hasGallery, nil
		},
	}, nil
}

type exceptionArgs struct {
	Failures        int           `mapstructure:"failures"`
	MaxRetries      int           `mapstructure:"max_retries"`
	DownloadRetries int           `mapstructure:"download_retries"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// newException fails the download a configured number of times. The download
// itself is retried download_retries times in place; once that is spent the
// exception handler sends the run back until max_retries is used up and then
// gives up.
func newException(args map[string]any) (statemachine.HandlerTable, error) {
	parsed := exceptionArgs{Failures: 1, MaxRetries: 3, Timeout: 5 * time.Second}

	if err := statemachine.DecodeArgs(args, &parsed); err != nil {
		return nil, err
	}

	var (
		failures int
		attempts int
		retries  int
	)

	return statemachine.Handlers{
		"start": func(_ context.Context, wf *statemachine.Context) (any, error) {
			failures = parsed.Failures
			if n, ok := wf.GetInt("failures"); ok {
				failures = n
			}

			attempts = 0
			retries = 0

			return nil, nil //nolint:nilnil
		},
		"download_original": statemachine.Timeout(statemachine.Retry(
			func(context.Context, *statemachine.Context) (any, error) {
				attempts++

				if attempts <= failures {
					return nil, fmt.Errorf("%w: attempt %d", ErrDownloadFailed, attempts)
				}

				return attempts, nil
			}, parsed.DownloadRetries+1, 0), parsed.Timeout),
		statemachine.ExceptionState: func(_ context.Context, wf *statemachine.Context) (any, error) {
			if !errors.Is(wf.Cause(), ErrDownloadFailed) || retries >= parsed.MaxRetries {
				return "give_up", nil
			}

			retries++

			return "retry", nil
		},
		"assign_image": statemachine.Noop,
		"give_up": func(context.Context, *statemachine.Context) (any, error) {
			return retries, nil
		},
		"finish": func(context.Context, *statemachine.Context) (any, error) {
			return attempts, nil
		},
	}, nil
}
