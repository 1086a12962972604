// Package logger configures the process-wide slog logger of the CLI and
// carries run correlation fields through contexts.
package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/amp-labs/flowfsm/envutil"
)

// Name of the application, attached to every record as "subsystem".
var subsystem atomic.Value //nolint:gochecknoglobals

// configMutex serializes ConfigureLoggingWithOptions, which replaces global state.
var configMutex sync.Mutex //nolint:gochecknoglobals

type contextKey string

// ErrInvalidLogOutput is returned when LOG_OUTPUT names an unknown destination.
var ErrInvalidLogOutput = errors.New("invalid log output")

// Options is used to configure logging.
type Options struct {
	Subsystem string
	JSON      bool
	MinLevel  slog.Level
	Output    io.Writer
	// Extra handlers receive every record as well, for example an
	// OpenTelemetry log bridge. Their own level filtering applies.
	Extra []slog.Handler
}

// Option is a functional option for ConfigureLogging.
type Option func(*Options)

// WithOutput overrides the destination chosen from the environment.
func WithOutput(w io.Writer) Option {
	return func(o *Options) {
		o.Output = w
	}
}

// WithLevel overrides the minimum level chosen from the environment.
func WithLevel(level slog.Level) Option {
	return func(o *Options) {
		o.MinLevel = level
	}
}

// WithJSON overrides the output format chosen from the environment.
func WithJSON(enabled bool) Option {
	return func(o *Options) {
		o.JSON = enabled
	}
}

// WithHandler adds a handler that receives every record alongside the
// console output.
func WithHandler(h slog.Handler) Option {
	return func(o *Options) {
		if h != nil {
			o.Extra = append(o.Extra, h)
		}
	}
}

// ConfigureLoggingWithOptions installs a text or JSON slog handler as the
// default logger and redirects the standard log package into it.
func ConfigureLoggingWithOptions(opts Options) *slog.Logger {
	configMutex.Lock()
	defer configMutex.Unlock()

	if opts.Output == nil {
		opts.Output = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{Level: opts.MinLevel}

	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(opts.Output, handlerOpts)
	} else {
		handler = slog.NewTextHandler(opts.Output, handlerOpts)
	}

	handler = &slogErrorLogger{inner: newTeeHandler(append([]slog.Handler{handler}, opts.Extra...)...)}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	def := log.Default()
	*def = *slog.NewLogLogger(handler, slog.LevelInfo)

	subsystem.Store(opts.Subsystem)

	return logger
}

// ConfigureLogging configures logging from LOG_JSON, LOG_LEVEL and LOG_OUTPUT,
// then applies opts. It returns the new default logger.
func ConfigureLogging(app string, opts ...Option) (*slog.Logger, error) {
	logJSON, err := envutil.Bool("LOG_JSON", envutil.Default(false)).Value()
	if err != nil {
		return nil, err
	}

	minLevel, err := envutil.SlogLevel("LOG_LEVEL", envutil.Default(slog.LevelInfo)).Value()
	if err != nil {
		return nil, err
	}

	output, err := envutil.Map(envutil.String("LOG_OUTPUT", envutil.Default("stderr")),
		func(name string) (io.Writer, error) {
			switch strings.ToLower(name) {
			case "stdout":
				return os.Stdout, nil
			case "stderr":
				return os.Stderr, nil
			case "none", "discard":
				return io.Discard, nil
			default:
				return nil, fmt.Errorf("%w: %q", ErrInvalidLogOutput, name)
			}
		}).Value()
	if err != nil {
		return nil, err
	}

	options := Options{
		Subsystem: app,
		JSON:      logJSON,
		MinLevel:  minLevel,
		Output:    output,
	}

	for _, o := range opts {
		o(&options)
	}

	return ConfigureLoggingWithOptions(options), nil
}

// WithRunID attaches a run ID to the context.
func WithRunID(ctx context.Context, runID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}

	return context.WithValue(ctx, contextKey("run_id"), runID)
}

// GetRunID returns the run ID attached with WithRunID.
func GetRunID(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}

	val, ok := ctx.Value(contextKey("run_id")).(string)

	return val, ok
}

// WithWorkflow attaches a workflow name to the context.
func WithWorkflow(ctx context.Context, workflow string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}

	return context.WithValue(ctx, contextKey("workflow"), workflow)
}

// GetWorkflow returns the workflow name attached with WithWorkflow.
func GetWorkflow(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}

	val, ok := ctx.Value(contextKey("workflow")).(string)

	return val, ok
}

// WithMuted suppresses all logging done through Get on the returned context.
func WithMuted(ctx context.Context, muted bool) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}

	return context.WithValue(ctx, contextKey("mute"), muted)
}

func isMuted(ctx context.Context) bool {
	if ctx == nil {
		return false
	}

	muted, ok := ctx.Value(contextKey("mute")).(bool)

	return ok && muted
}

// GetSubsystem returns the application name set by ConfigureLogging.
func GetSubsystem() string {
	if val, ok := subsystem.Load().(string); ok {
		return val
	}

	return ""
}

// With returns a context whose logger carries the given key-value pairs.
func With(ctx context.Context, values ...any) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}

	if len(values) == 0 {
		return ctx
	}

	vals := append(getValues(ctx), values...)

	return context.WithValue(ctx, contextKey("loggerValues"), vals)
}

func getValues(ctx context.Context) []any {
	vals, _ := ctx.Value(contextKey("loggerValues")).([]any)

	// Copy so appends in With never share a backing array.
	return append([]any(nil), vals...)
}

var nullLogger = slog.New(slog.DiscardHandler) //nolint:gochecknoglobals

// Get returns the default logger decorated with the subsystem and whatever
// run fields the context carries.
func Get(ctx context.Context) *slog.Logger {
	if ctx == nil {
		ctx = context.Background()
	}

	if isMuted(ctx) {
		return nullLogger
	}

	logger := slog.Default()

	if sub := GetSubsystem(); sub != "" {
		logger = logger.With("subsystem", sub)
	}

	if workflow, ok := GetWorkflow(ctx); ok {
		logger = logger.With("workflow", workflow)
	}

	if runID, ok := GetRunID(ctx); ok {
		logger = logger.With("run_id", runID)
	}

	if vals := getValues(ctx); len(vals) > 0 {
		logger = logger.With(vals...)
	}

	return logger
}
