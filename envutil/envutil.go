// Package envutil reads typed process settings from environment variables.
package envutil

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// get returns a Reader for the raw value of key. Empty values count as unset.
func get(key string) Reader[string] {
	val, ok := os.LookupEnv(key)

	return Reader[string]{
		key:     key,
		present: ok && val != "",
		value:   val,
	}
}

func apply[T any](rdr Reader[T], opts []Option[T]) Reader[T] {
	for _, opt := range opts {
		rdr = opt(rdr)
	}

	return rdr
}

// String returns a Reader for a string variable.
func String(key string, opts ...Option[string]) Reader[string] {
	return apply(get(key), opts)
}

// Bool returns a Reader for a boolean variable in any form strconv.ParseBool accepts.
func Bool(key string, opts ...Option[bool]) Reader[bool] {
	return apply(Map(get(key), strconv.ParseBool), opts)
}

// Int returns a Reader for a base-10 integer variable.
func Int(key string, opts ...Option[int]) Reader[int] {
	return apply(Map(get(key), func(value string) (int, error) {
		return strconv.Atoi(strings.TrimSpace(value))
	}), opts)
}

// Duration returns a Reader for a variable in time.ParseDuration format.
func Duration(key string, opts ...Option[time.Duration]) Reader[time.Duration] {
	return apply(Map(get(key), time.ParseDuration), opts)
}

// SlogLevel returns a Reader for a log level name: debug, info, warn or error.
func SlogLevel(key string, opts ...Option[slog.Level]) Reader[slog.Level] {
	return apply(Map(get(key), parseLevel), opts)
}

func parseLevel(value string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidLevel, value)
	}
}

// Positive validates that an integer setting is greater than zero.
func Positive(value int) error {
	if value <= 0 {
		return fmt.Errorf("%w: must be positive, got %d", ErrBadEnvVar, value)
	}

	return nil
}

// NonNegative validates that an integer setting is not below zero.
func NonNegative(value int) error {
	if value < 0 {
		return fmt.Errorf("%w: must not be negative, got %d", ErrBadEnvVar, value)
	}

	return nil
}
