// Command flowfsm lists, validates, draws, runs and verifies workflow
// configurations.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/amp-labs/flowfsm/logger"
	"github.com/amp-labs/flowfsm/telemetry"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := logger.ConfigureLogging("flowfsm"); err != nil {
		fmt.Fprintln(os.Stderr, err)

		return 1
	}

	settings, err := loadSettings()
	if err != nil {
		logger.Get(ctx).Error("invalid settings", "error", err)

		return 1
	}

	otelConfig, err := telemetry.LoadConfigFromEnv(settings.Environment)
	if err != nil {
		logger.Get(ctx).Error("invalid telemetry settings", "error", err)

		return 1
	}

	if err := telemetry.Initialize(ctx, otelConfig); err != nil {
		logger.Get(ctx).Warn("tracing unavailable", "error", err)
	}

	// Records are mirrored to the collector once log export is up.
	if handler := telemetry.LogHandler("flowfsm"); handler != nil {
		if _, err := logger.ConfigureLogging("flowfsm", logger.WithHandler(handler)); err != nil {
			logger.Get(ctx).Warn("log export unavailable", "error", err)
		}
	}

	defer func() {
		if err := telemetry.Shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.Get(ctx).Warn("failed to flush telemetry", "error", err)
		}
	}()

	root := newRootCmd(newApp(settings))
	if err := root.ExecuteContext(ctx); err != nil {
		logger.Get(ctx).Error("command failed", "error", err)

		return 1
	}

	return 0
}
